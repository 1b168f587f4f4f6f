package dbmodel

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnknownDriver(t *testing.T) {
	conn, err := NewProvider(Config{Driver: "oracle", URL: "localhost/xe"}).Open(context.Background())
	assert.Nil(t, conn)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "oracle", connErr.Driver)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_BadLocation(t *testing.T) {
	conn, err := NewProvider(Config{Driver: "mysql", URL: "/nohost"}).Open(context.Background())
	assert.Nil(t, conn)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "mysql", connErr.Driver)
}

func TestOpen_UnreachableDatabase(t *testing.T) {
	cfg := Config{
		Driver: "sqlite3",
		URL:    filepath.Join(t.TempDir(), "missing", "test.db"),
	}
	conn, err := NewProvider(cfg).Open(context.Background())
	assert.Nil(t, conn)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "sqlite3", connErr.Driver)
}

func TestOpenAndClose(t *testing.T) {
	provider := NewProvider(Config{Driver: "SQLite3", URL: filepath.Join(t.TempDir(), "test.db")})

	conn, err := provider.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", conn.DriverName())

	var one int
	require.NoError(t, conn.Get(&one, "SELECT 1"))
	assert.Equal(t, 1, one)

	require.NoError(t, provider.Close(conn))
	assert.ErrorIs(t, provider.Close(conn), ErrConnectionClosed)
}

func TestClose_ConnectionWithoutFamily(t *testing.T) {
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	conn := &Connection{DB: db}
	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Close(), ErrConnectionClosed)
}

func TestDrivers(t *testing.T) {
	assert.Equal(t, []string{"mysql", "pgx", "postgres", "sqlite3"}, Drivers())
}

func TestPostgresDSN(t *testing.T) {
	dsn, err := postgresDSN(Config{
		URL:      "localhost:5432/vet",
		User:     "root",
		Password: "p@ss word",
		Params:   map[string]string{"application_name": "dbmodel"},
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "/vet", u.Path)
	assert.Equal(t, "root", u.User.Username())
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pass)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "dbmodel", u.Query().Get("application_name"))

	dsn, err = postgresDSN(Config{URL: "postgres://db/vet", Params: map[string]string{"sslmode": "require"}})
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/vet?sslmode=require", dsn)

	_, err = postgresDSN(Config{URL: "/vet"})
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN(Config{URL: "localhost/Veterinaria", User: "root", Password: "secret"})
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "localhost:3306", cfg.Addr)
	assert.Equal(t, "Veterinaria", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.True(t, cfg.ClientFoundRows)
}

func TestSqliteDSN(t *testing.T) {
	dsn, err := sqliteDSN(Config{URL: "pets.db", User: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "pets.db", dsn)

	dsn, err = sqliteDSN(Config{URL: "file:pets.db?mode=rwc", Params: map[string]string{"_foreign_keys": "true"}})
	require.NoError(t, err)
	assert.Equal(t, "file:pets.db?mode=rwc&_foreign_keys=true", dsn)

	_, err = sqliteDSN(Config{})
	assert.Error(t, err)
}
