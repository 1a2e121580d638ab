package engine

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TxFunc is the body of an Atomic transaction.
type TxFunc func(s *Session) error

// Atomic runs fn on a session bound to a new transaction and commits it.
// The transaction is rolled back when fn returns an error or panics.
func Atomic(ctx context.Context, e *Engine, fn TxFunc, opts ...SessionOption) (err error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &ExecutionError{Op: "begin", Err: err}
	}
	s := e.Session(append([]SessionOption{OnTx(tx)}, opts...)...)

	defer func() {
		err = errors.Join(err, s.Close())
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			// sql.ErrTxDone: already committed
			if !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = errors.Join(err, &ExecutionError{Op: "rollback", Err: rollbackErr})
			}
		}
	}()

	if err = fn(s); err != nil {
		return err
	}
	// cached statements belong to the transaction
	if err = s.Close(); err != nil {
		return err
	}
	start := time.Now()
	err = tx.Commit(ctx)
	e.log(ctx, Info{Kind: "commit", Duration: time.Since(start), Err: err})
	if err != nil {
		return &ExecutionError{Op: "commit", Err: err}
	}
	return nil
}
