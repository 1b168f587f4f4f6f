package dbmodel

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"github.com/untillpro/goutils/logger"
)

// Config locates a database. URL is the driver-specific location without
// credentials: host[:port]/database for the postgres and mysql families, a file
// name for sqlite3.
type Config struct {
	Driver   string            `yaml:"driver"`
	URL      string            `yaml:"url"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Params   map[string]string `yaml:"params"`
}

// driverFamily is what differs between the supported databases. The sql driver
// registered under name is linked in by the file that declares the family.
type driverFamily struct {
	name              string
	dsn               func(cfg Config) (string, error)
	isUniqueViolation func(err error) bool
}

var driverFamilies = map[string]*driverFamily{
	pgxFamily.name:    pgxFamily,
	pqFamily.name:     pqFamily,
	mysqlFamily.name:  mysqlFamily,
	sqliteFamily.name: sqliteFamily,
}

func lookupFamily(driver string) *driverFamily {
	return driverFamilies[strings.ToLower(strings.TrimSpace(driver))]
}

// Drivers lists the supported driver identifiers.
func Drivers() []string {
	names := make([]string, 0, len(driverFamilies))
	for name := range driverFamilies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Provider opens connections for one Config.
type Provider struct {
	config Config
}

func NewProvider(config Config) *Provider {
	return &Provider{config: config}
}

// Open resolves the driver, connects and pings the database. Any failure is a
// *ConnectionError and no connection is returned.
func (p *Provider) Open(ctx context.Context) (_ *Connection, rerr error) {
	family := lookupFamily(p.config.Driver)
	if family == nil {
		return nil, &ConnectionError{Driver: p.config.Driver, Err: ErrUnknownDriver}
	}

	dsn, err := family.dsn(p.config)
	if err != nil {
		return nil, &ConnectionError{Driver: family.name, Err: err}
	}

	db, err := sqlx.Open(family.name, dsn)
	if err != nil {
		return nil, &ConnectionError{Driver: family.name, Err: err}
	}

	defer func() {
		if rerr != nil {
			db.Close()
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("connect", family.name, p.config.URL, err)
		return nil, &ConnectionError{Driver: family.name, Err: err}
	}

	logger.Verbose("connected", family.name, p.config.URL)
	return &Connection{DB: db, family: family}, nil
}

// Close closes conn. Closing twice reports ErrConnectionClosed.
func (p *Provider) Close(conn *Connection) error {
	return conn.Close()
}

// Connection is an open database handle. It satisfies Conn and can begin the
// transactions used for create and update batches.
type Connection struct {
	*sqlx.DB
	family *driverFamily
	closed atomic.Bool
}

func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		logger.Warning("close called on a closed", c.DriverName(), "connection")
		return ErrConnectionClosed
	}
	return c.DB.Close()
}

func mergeParams(defaults, params map[string]string) map[string]string {
	merged := make(map[string]string, len(params)+len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}
