package dbmodel

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

const testSchema = `
CREATE TABLE Animal (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE Dog (
	id INTEGER PRIMARY KEY REFERENCES Animal(id) ON DELETE CASCADE,
	breed TEXT CHECK (breed IS NULL OR breed <> 'invalid')
);
CREATE TABLE Puppy (id INTEGER PRIMARY KEY REFERENCES Dog(id) ON DELETE CASCADE, toy TEXT);
CREATE TABLE Visit (owner TEXT, pet INTEGER, note TEXT, PRIMARY KEY (owner, pet));
CREATE TABLE Checkup (
	owner TEXT,
	pet INTEGER,
	weight INTEGER,
	PRIMARY KEY (owner, pet),
	FOREIGN KEY (owner, pet) REFERENCES Visit(owner, pet) ON DELETE CASCADE
);
CREATE TABLE Litter (id INTEGER, name TEXT);
CREATE TABLE pet_owner (owner_id INTEGER PRIMARY KEY, full_name TEXT);
`

type Animal struct {
	ID   int64
	Name string
}

type Dog struct {
	Animal
	Breed null.String
}

type Puppy struct {
	Dog
	Toy string
}

type Visit struct {
	Owner string
	Pet   int64
	Note  null.String
}

type Checkup struct {
	Visit
	Weight int64
}

type PetOwner struct {
	OwnerID  int64
	FullName string
}

func animalModel(t *testing.T) *Model[Animal] {
	t.Helper()
	m, err := Define(TableDef{Name: "Animal", PrimaryField: []string{"id"}},
		Field("id", func(a *Animal) *int64 { return &a.ID }),
		Field("name", func(a *Animal) *string { return &a.Name }),
	)
	require.NoError(t, err)
	return m
}

func dogModel(t *testing.T) *Model[Dog] {
	t.Helper()
	m, err := Extend(animalModel(t), func(d *Dog) *Animal { return &d.Animal },
		TableDef{Name: "Dog", PrimaryField: []string{"id"}},
		Field("id", func(d *Dog) *int64 { return &d.ID }),
		Field("breed", func(d *Dog) *null.String { return &d.Breed }),
	)
	require.NoError(t, err)
	return m
}

func puppyModel(t *testing.T) *Model[Puppy] {
	t.Helper()
	m, err := Extend(dogModel(t), func(p *Puppy) *Dog { return &p.Dog },
		TableDef{Name: "Puppy", PrimaryField: []string{"id"}},
		Field("id", func(p *Puppy) *int64 { return &p.ID }),
		Field("toy", func(p *Puppy) *string { return &p.Toy }),
	)
	require.NoError(t, err)
	return m
}

func visitModel(t *testing.T) *Model[Visit] {
	t.Helper()
	m, err := Define(TableDef{Name: "Visit", PrimaryField: []string{"owner", "pet"}},
		Field("owner", func(v *Visit) *string { return &v.Owner }),
		Field("pet", func(v *Visit) *int64 { return &v.Pet }),
		Field("note", func(v *Visit) *null.String { return &v.Note }),
	)
	require.NoError(t, err)
	return m
}

func checkupModel(t *testing.T) *Model[Checkup] {
	t.Helper()
	m, err := Extend(visitModel(t), func(c *Checkup) *Visit { return &c.Visit },
		TableDef{Name: "Checkup", PrimaryField: []string{"owner", "pet"}},
		Field("owner", func(c *Checkup) *string { return &c.Owner }),
		Field("pet", func(c *Checkup) *int64 { return &c.Pet }),
		Field("weight", func(c *Checkup) *int64 { return &c.Weight }),
	)
	require.NoError(t, err)
	return m
}

// litterModel maps Animal onto a table without a unique key.
func litterModel(t *testing.T) *Model[Animal] {
	t.Helper()
	m, err := Define(TableDef{Name: "Litter", PrimaryField: []string{"id"}},
		Field("id", func(a *Animal) *int64 { return &a.ID }),
		Field("name", func(a *Animal) *string { return &a.Name }),
	)
	require.NoError(t, err)
	return m
}

func petOwnerModel(t *testing.T) *Model[PetOwner] {
	t.Helper()
	m, err := Define(TableDef{Name: "PetOwner", PrimaryField: []string{"OwnerID"}},
		Field("OwnerID", func(o *PetOwner) *int64 { return &o.OwnerID }),
		Field("FullName", func(o *PetOwner) *string { return &o.FullName }),
	)
	require.NoError(t, err)
	return m
}

// createTestDB opens a sqlite database with the test schema in a temp dir.
func createTestDB(t *testing.T) *Connection {
	t.Helper()
	conn, err := NewProvider(Config{
		Driver: "sqlite3",
		URL:    filepath.Join(t.TempDir(), "test.db"),
		Params: map[string]string{"_foreign_keys": "true"},
	}).Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(testSchema)
	require.NoError(t, err)
	return conn
}

func countRows(t *testing.T, db Conn, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, sqlx.GetContext(context.Background(), db, &n, query, args...))
	return n
}

// recordingConn remembers the text of every statement it runs. It cannot
// begin transactions, so batches run statement by statement on it.
type recordingConn struct {
	Conn
	queries []string
}

func record(db Conn) *recordingConn {
	return &recordingConn{Conn: db}
}

func (c *recordingConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.queries = append(c.queries, query)
	return c.Conn.ExecContext(ctx, query, args...)
}

func (c *recordingConn) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	c.queries = append(c.queries, query)
	return c.Conn.QueryxContext(ctx, query, args...)
}

func (c *recordingConn) reset() {
	c.queries = nil
}
