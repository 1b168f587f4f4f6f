package dbmodel

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

var pgxFamily = &driverFamily{
	name:              "pgx",
	dsn:               postgresDSN,
	isUniqueViolation: pgIsUniqueViolation,
}

// pqFamily is the lib/pq driver. It shares DSN and error codes with pgx.
var pqFamily = &driverFamily{
	name:              "postgres",
	dsn:               postgresDSN,
	isUniqueViolation: pgIsUniqueViolation,
}

func postgresDSN(cfg Config) (string, error) {
	location := strings.TrimPrefix(strings.TrimPrefix(cfg.URL, "postgres://"), "postgresql://")
	host, database, _ := strings.Cut(location, "/")
	if host == "" {
		return "", fmt.Errorf("postgres url %q has no host", cfg.URL)
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + database,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	query := url.Values{}
	for k, v := range mergeParams(map[string]string{"sslmode": "disable"}, cfg.Params) {
		query.Set(k, v)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.UniqueViolation
	}

	return false
}
