package dbmodel

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var sqliteFamily = &driverFamily{
	name:              "sqlite3",
	dsn:               sqliteDSN,
	isUniqueViolation: sqliteIsUniqueViolation,
}

// sqliteDSN uses the URL as the database file name. Credentials are ignored.
func sqliteDSN(cfg Config) (string, error) {
	name := strings.TrimPrefix(cfg.URL, "sqlite3://")
	if name == "" {
		return "", fmt.Errorf("sqlite3 url is empty")
	}
	if len(cfg.Params) == 0 {
		return name, nil
	}

	query := url.Values{}
	for k, v := range cfg.Params {
		query.Set(k, v)
	}

	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}
	return name + sep + query.Encode(), nil
}

func sqliteIsUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
