package dbmodel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

var mysqlFamily = &driverFamily{
	name:              "mysql",
	dsn:               mysqlDSN,
	isUniqueViolation: mysqlIsUniqueViolation,
}

func mysqlDSN(cfg Config) (string, error) {
	location := strings.TrimPrefix(cfg.URL, "mysql://")
	addr, database, _ := strings.Cut(location, "/")
	if addr == "" {
		return "", fmt.Errorf("mysql url %q has no host", cfg.URL)
	}
	if !strings.Contains(addr, ":") {
		addr += ":3306"
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = addr
	mc.DBName = database
	mc.ParseTime = true
	// report matched rows, so an update that changes nothing still counts
	mc.ClientFoundRows = true

	if len(cfg.Params) > 0 {
		mc.Params = mergeParams(nil, cfg.Params)
	}

	return mc.FormatDSN(), nil
}

func mysqlIsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return false
}
