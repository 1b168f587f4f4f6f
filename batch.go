package dbmodel

import (
	"context"

	"github.com/untillpro/goutils/logger"
)

// execBatch runs stmts in order and stops at the first statement that fails
// or affects no rows.
func (r *repository[T]) execBatch(ctx context.Context, db Conn, opt *queryOption, stmts []statement) error {
	family := lookupFamily(db.DriverName())

	return r.inWriteTx(ctx, db, opt, func(exec Conn) error {
		for i, st := range stmts {
			qry := st.query
			if len(st.args) > 0 {
				qry = exec.Rebind(qry)
			}

			logger.Verbose("batch", i, st)
			res, err := exec.ExecContext(ctx, qry, st.args...)
			if err != nil {
				err = wrapDriverError(family, err)
				logger.Error(st.query, ":", err)
				return &BatchExecutionError{Index: i, Statement: st.query, Err: err}
			}

			affected, err := res.RowsAffected()
			if err != nil {
				return &BatchExecutionError{Index: i, Statement: st.query, Err: wrapDriverError(family, err)}
			}

			if affected == 0 {
				return &BatchExecutionError{Index: i, Statement: st.query, Err: ErrNoRowsAffected}
			}
		}
		return nil
	})
}

// inWriteTx calls fn with the connection writes go to. Unless disabled, or
// the caller passed its own transaction, that is a transaction begun on db
// which is committed only when fn succeeds.
func (r *repository[T]) inWriteTx(ctx context.Context, db Conn, opt *queryOption, fn func(exec Conn) error) (rerr error) {
	exec := r.target(db, opt)
	if opt.Tx != nil || r.noBatchTx {
		return fn(exec)
	}

	b, ok := db.(txBeginner)
	if !ok {
		return fn(exec)
	}

	family := lookupFamily(db.DriverName())
	tx, err := b.BeginTxx(ctx, nil)
	if err != nil {
		return wrapDriverError(family, err)
	}

	defer func() {
		if rerr != nil {
			if err := tx.Rollback(); err != nil {
				logger.Error("rollback:", err)
			}
			return
		}
		rerr = wrapDriverError(family, tx.Commit())
	}()

	return fn(tx)
}
