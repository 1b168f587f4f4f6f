package dbmodel

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/untillpro/goutils/logger"
)

// Conn executes statements. *sqlx.DB, *sqlx.Tx and *Connection satisfy it.
// A Conn must not be shared by concurrent operations unless the underlying
// handle allows it; the repository does no locking of its own.
type Conn interface {
	sqlx.ExtContext
}

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Action tells what Save did.
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	}
	return "none"
}

type Repository[T any] interface {
	// Save updates rec when a row with its primary key exists in the table of
	// the most derived type, and creates it otherwise.
	Save(ctx context.Context, db Conn, rec *T, options ...QueryOption) (Action, error)
	Create(ctx context.Context, db Conn, rec *T, options ...QueryOption) error
	Update(ctx context.Context, db Conn, rec *T, options ...QueryOption) error
	// Delete removes the row of the root table. It fails unless exactly one row
	// was deleted, and then rolls back unless it runs without a transaction.
	Delete(ctx context.Context, db Conn, rec *T, options ...QueryOption) error
	Exists(ctx context.Context, db Conn, rec *T, options ...QueryOption) (bool, error)
	HydrateRow(row RowScanner, rec *T) (float64, error)
	LoadAll(ctx context.Context, db Conn, options ...QueryOption) ([]*T, error)
	// LoadWhere is LoadAll restricted by raw SQL predicates, ANDed together.
	LoadWhere(ctx context.Context, db Conn, filters []string, options ...QueryOption) ([]*T, error)
	LoadMatching(ctx context.Context, db Conn, filterMap map[string]any, options ...QueryOption) ([]*T, error)
	PrintAll(ctx context.Context, db Conn, w io.Writer, options ...QueryOption) error
	Begin(ctx context.Context, db Conn) (Transaction, error)
	Model() *Model[T]
}

type repository[T any] struct {
	option
	model *Model[T]
}

func CreateRepository[T any](model *Model[T], options ...RepositoryOption) Repository[T] {
	opt := option{}
	for _, op := range options {
		op(&opt)
	}

	if opt.identifier == nil {
		opt.identifier = func(name string) string { return name }
	}

	return &repository[T]{
		option: opt,
		model:  model,
	}
}

func (r *repository[T]) Model() *Model[T] {
	return r.model
}

func (r *repository[T]) Begin(ctx context.Context, db Conn) (Transaction, error) {
	b, ok := db.(txBeginner)
	if !ok {
		return nil, fmt.Errorf("%T cannot begin a transaction", db)
	}

	tx, err := b.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapDriverError(lookupFamily(db.DriverName()), err)
	}

	return &sqlTransaction{Tx: tx}, nil
}

func (r *repository[T]) Save(ctx context.Context, db Conn, rec *T, options ...QueryOption) (Action, error) {
	pred, err := r.keyPredicate(r.model.leaf(), rec)
	if err != nil {
		return ActionNone, err
	}

	exists, err := r.Exists(ctx, db, rec, options...)
	if err != nil {
		return ActionNone, err
	}

	name := r.model.Name()
	if exists {
		logger.Verbose("Updating", name, "(", pred.query, ")")
		if err := r.Update(ctx, db, rec, options...); err != nil {
			logger.Verbose("Update failed!", err)
			return ActionNone, err
		}
		logger.Verbose("Update succeeded!")
		return ActionUpdate, nil
	}

	logger.Verbose("Creating", name, "(", pred.query, ")")
	if err := r.Create(ctx, db, rec, options...); err != nil {
		logger.Verbose("Insert failed!", err)
		return ActionNone, err
	}
	logger.Verbose("Insert succeeded!")
	return ActionCreate, nil
}

func (r *repository[T]) Exists(ctx context.Context, db Conn, rec *T, options ...QueryOption) (bool, error) {
	opt := r.queryOption(options)

	leaf := r.model.leaf()
	b := r.builder()
	b.write("SELECT 1 FROM ", r.identifier(leaf.def.Name), " WHERE ")
	if err := r.writeKeyPredicate(b, leaf, rec); err != nil {
		return false, err
	}

	rows, err := r.query(ctx, db, opt, b.statement())
	if err != nil {
		return false, err
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, wrapDriverError(lookupFamily(db.DriverName()), err)
	}

	return found, nil
}

func (r *repository[T]) Create(ctx context.Context, db Conn, rec *T, options ...QueryOption) error {
	opt := r.queryOption(options)

	stmts := make([]statement, 0, len(r.model.levels))
	for _, l := range r.model.levels {
		b := r.builder()
		columns := Map(l.attrs, func(a Attr[T]) string {
			return r.identifier(a.Name)
		})
		b.write("INSERT INTO ", r.identifier(l.def.Name), " (", strings.Join(columns, ","), ") VALUES (")
		for i, a := range l.attrs {
			if i > 0 {
				b.write(",")
			}
			if err := b.value(a.Get(rec)); err != nil {
				return fmt.Errorf("%s.%s: %w", l.def.Name, a.Name, err)
			}
		}
		b.write(")")
		stmts = append(stmts, b.statement())
	}

	return r.execBatch(ctx, db, opt, stmts)
}

func (r *repository[T]) Update(ctx context.Context, db Conn, rec *T, options ...QueryOption) error {
	opt := r.queryOption(options)

	stmts := make([]statement, 0, len(r.model.levels))
	for _, l := range r.model.levels {
		b := r.builder()
		b.write("UPDATE ", r.identifier(l.def.Name), " SET ")
		for i, a := range l.attrs {
			if i > 0 {
				b.write(",")
			}
			b.write(r.identifier(a.Name), "=")
			if err := b.value(a.Get(rec)); err != nil {
				return fmt.Errorf("%s.%s: %w", l.def.Name, a.Name, err)
			}
		}
		b.write(" WHERE ")
		if err := r.writeKeyPredicate(b, l, rec); err != nil {
			return err
		}
		stmts = append(stmts, b.statement())
	}

	return r.execBatch(ctx, db, opt, stmts)
}

func (r *repository[T]) Delete(ctx context.Context, db Conn, rec *T, options ...QueryOption) error {
	opt := r.queryOption(options)

	root := r.model.root()
	pred, err := r.keyPredicate(root, rec)
	if err != nil {
		return err
	}

	table := r.identifier(root.def.Name)
	logger.Verbose("Deleting", table, "(", pred.query, ")")

	st := statement{query: "DELETE FROM " + table + " WHERE " + pred.query, args: pred.args}
	err = r.inWriteTx(ctx, db, opt, func(exec Conn) error {
		res, err := r.exec(ctx, exec, &queryOption{}, st)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return wrapDriverError(lookupFamily(db.DriverName()), err)
		}

		if affected != 1 {
			return &AmbiguousDeleteError{Table: table, Predicate: pred.String(), Affected: affected}
		}
		return nil
	})
	if err != nil {
		logger.Verbose("Delete failed!", err)
		return err
	}

	logger.Verbose("Delete succeeded!")
	return nil
}

func (r *repository[T]) LoadAll(ctx context.Context, db Conn, options ...QueryOption) ([]*T, error) {
	return r.load(ctx, db, r.selectStatement(nil, nil), options)
}

func (r *repository[T]) LoadWhere(ctx context.Context, db Conn, filters []string, options ...QueryOption) ([]*T, error) {
	return r.load(ctx, db, r.selectStatement(parenthesize(filters), nil), options)
}

func (r *repository[T]) LoadMatching(ctx context.Context, db Conn, filterMap map[string]any, options ...QueryOption) ([]*T, error) {
	where, args, err := r.parseFilterMapIntoWhereClause(filterMap)
	if err != nil {
		return nil, err
	}

	var filters []string
	if where != "" {
		filters = []string{"(" + where + ")"}
	}

	return r.load(ctx, db, r.selectStatement(filters, args), options)
}

func (r *repository[T]) PrintAll(ctx context.Context, db Conn, w io.Writer, options ...QueryOption) error {
	records, err := r.LoadAll(ctx, db, options...)
	if err != nil {
		return err
	}

	name := r.model.Name()
	fmt.Fprintf(w, "\n ========= Printing all %ss =========\n\n", name)
	for _, rec := range records {
		fmt.Fprintln(w, r.model.Describe(rec))
	}
	fmt.Fprintf(w, " =========  End of all %ss  =========\n", name)

	return nil
}

func (r *repository[T]) load(ctx context.Context, db Conn, st statement, options []QueryOption) ([]*T, error) {
	opt := r.queryOption(options)

	rows, err := r.query(ctx, db, opt, st)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*T
	for rows.Next() {
		rec := r.model.New()
		if _, err := r.HydrateRow(rows, rec); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDriverError(lookupFamily(db.DriverName()), err)
	}

	return result, nil
}

// selectStatement joins every table of the chain to its parent on the key
// columns, paired in declaration order, most derived table first, and orders
// by the full key of T.
func (r *repository[T]) selectStatement(filters []string, args []any) statement {
	levels := r.model.levels
	keyColumns := func(l level[T]) []string {
		return Map(l.def.PrimaryField, func(k string) string {
			return r.identifier(l.def.Name) + "." + r.identifier(k)
		})
	}

	var tables, preds []string
	for i := len(levels) - 1; i >= 0; i-- {
		tables = append(tables, r.identifier(levels[i].def.Name))
		if i > 0 {
			parentKeys := keyColumns(levels[i-1])
			for j, k := range keyColumns(levels[i]) {
				preds = append(preds, k+"="+parentKeys[j])
			}
		}
	}
	preds = append(preds, filters...)

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(strings.Join(tables, ","))
	if len(preds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(preds, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(keyColumns(r.model.leaf()), ","))

	return statement{query: sb.String(), args: args}
}

func (r *repository[T]) keyPredicate(l level[T], rec *T) (statement, error) {
	b := r.builder()
	if err := r.writeKeyPredicate(b, l, rec); err != nil {
		return statement{}, err
	}
	return b.statement(), nil
}

// writeKeyPredicate renders the key of level l. Values always come from the
// concrete record, also for base levels.
func (r *repository[T]) writeKeyPredicate(b *sqlBuilder, l level[T], rec *T) error {
	for i, k := range l.def.PrimaryField {
		if i > 0 {
			b.write(" AND ")
		}
		a, ok := l.attr(k)
		if !ok {
			return fmt.Errorf("%w: %s key %s is not an attribute", ErrInvalidModel, l.def.Name, k)
		}
		if err := b.equals(r.identifier(a.Name), a.Get(rec)); err != nil {
			return fmt.Errorf("%s.%s: %w", l.def.Name, a.Name, err)
		}
	}
	return nil
}

func (r *repository[T]) builder() *sqlBuilder {
	return &sqlBuilder{bindVars: r.bindVars}
}

func (r *repository[T]) queryOption(options []QueryOption) *queryOption {
	opt := &queryOption{}
	for _, op := range options {
		op(opt)
	}
	return opt
}

// target is the caller transaction when one was passed, db otherwise.
func (r *repository[T]) target(db Conn, opt *queryOption) Conn {
	if opt.Tx != nil {
		if tx, ok := opt.Tx.(*sqlTransaction); ok {
			return tx.Tx
		}
	}
	return db
}

func (r *repository[T]) query(ctx context.Context, db Conn, opt *queryOption, st statement) (*sqlx.Rows, error) {
	target := r.target(db, opt)
	qry := st.query
	if len(st.args) > 0 {
		qry = target.Rebind(qry)
	}

	logger.Verbose("query:", st)
	rows, err := target.QueryxContext(ctx, qry, st.args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", st.query, wrapDriverError(lookupFamily(db.DriverName()), err))
	}
	return rows, nil
}

func (r *repository[T]) exec(ctx context.Context, db Conn, opt *queryOption, st statement) (sql.Result, error) {
	target := r.target(db, opt)
	qry := st.query
	if len(st.args) > 0 {
		qry = target.Rebind(qry)
	}

	logger.Verbose("exec:", st)
	res, err := target.ExecContext(ctx, qry, st.args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", st.query, wrapDriverError(lookupFamily(db.DriverName()), err))
	}
	return res, nil
}
