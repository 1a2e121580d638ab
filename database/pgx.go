package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLastInsertID is returned by PgxResult.LastInsertId. Use RETURNING.
var ErrLastInsertID = errors.New("LastInsertId not supported in PostgreSQL, use RETURNING")

// pgxQuerier is the subset shared by *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgxDatabase implements Database for pgxpool.Pool.
type PgxDatabase struct {
	pool *pgxpool.Pool
}

// NewPgxDatabase creates a new PgxDatabase.
func NewPgxDatabase(pool *pgxpool.Pool) *PgxDatabase {
	return &PgxDatabase{pool: pool}
}

// Pool returns the wrapped pool.
func (p *PgxDatabase) Pool() *pgxpool.Pool { return p.pool }

// QueryContext executes a query with a context.
func (p *PgxDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	return pgxQuery(ctx, p.pool, query, args)
}

// ExecContext executes a query without returning rows.
func (p *PgxDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	return pgxExec(ctx, p.pool, query, args)
}

// PrepareContext returns a statement bound to the pool. pgx prepares and
// caches statements per connection on first use.
func (p *PgxDatabase) PrepareContext(_ context.Context, query string) (Stmt, error) {
	return &PgxStmt{q: p.pool, sql: query}, nil
}

// BeginTx starts a transaction.
func (p *PgxDatabase) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := p.pool.BeginTx(ctx, pgxTxOptions(opts))
	if err != nil {
		return nil, err
	}
	return &PgxTx{tx: tx}, nil
}

// PingContext verifies the connection to the database is alive.
func (p *PgxDatabase) PingContext(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database.
func (p *PgxDatabase) Close() error {
	p.pool.Close()
	return nil
}

// PgxTx implements Tx for pgx.Tx.
type PgxTx struct {
	tx pgx.Tx
}

func (t *PgxTx) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	return pgxQuery(ctx, t.tx, query, args)
}

func (t *PgxTx) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	return pgxExec(ctx, t.tx, query, args)
}

func (t *PgxTx) PrepareContext(_ context.Context, query string) (Stmt, error) {
	return &PgxStmt{q: t.tx, sql: query}, nil
}

func (t *PgxTx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback reports sql.ErrTxDone when the transaction already ended.
func (t *PgxTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return sql.ErrTxDone
		}
		return err
	}
	return nil
}

// PgxStmt implements Stmt over a pool or transaction.
type PgxStmt struct {
	q   pgxQuerier
	sql string
}

func (s *PgxStmt) QueryContext(ctx context.Context, args ...any) (Rows, error) {
	return pgxQuery(ctx, s.q, s.sql, args)
}

func (s *PgxStmt) ExecContext(ctx context.Context, args ...any) (Result, error) {
	return pgxExec(ctx, s.q, s.sql, args)
}

// Close is a no-op; the connection owns the server-side statement.
func (s *PgxStmt) Close() error { return nil }

// PgxRows implements Rows for pgx.Rows.
type PgxRows struct {
	rows              pgx.Rows
	fieldDescriptions []pgconn.FieldDescription
}

// Next prepares the next result row for reading.
func (p *PgxRows) Next() bool { return p.rows.Next() }

// Scan copies the columns from the current row into the provided destinations.
func (p *PgxRows) Scan(dest ...any) error { return p.rows.Scan(dest...) }

// Close closes the rows iterator.
func (p *PgxRows) Close() error { p.rows.Close(); return nil }

// Err returns the error, if any, encountered during iteration.
func (p *PgxRows) Err() error { return p.rows.Err() }

// Columns returns the column names.
func (p *PgxRows) Columns() ([]string, error) {
	if p.fieldDescriptions == nil {
		p.fieldDescriptions = p.rows.FieldDescriptions()
	}
	columns := make([]string, len(p.fieldDescriptions))
	for i, fd := range p.fieldDescriptions {
		columns[i] = fd.Name
	}
	return columns, nil
}

// PgxResult implements Result for pgx command tags.
type PgxResult struct {
	cmdTag pgconn.CommandTag
}

// LastInsertId is not supported in PostgreSQL.
func (r *PgxResult) LastInsertId() (int64, error) {
	return 0, ErrLastInsertID
}

// RowsAffected returns the number of rows affected by the command.
func (r *PgxResult) RowsAffected() (int64, error) {
	return r.cmdTag.RowsAffected(), nil
}

func pgxQuery(ctx context.Context, q pgxQuerier, query string, args []any) (Rows, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxRows{rows: rows}, nil
}

func pgxExec(ctx context.Context, q pgxQuerier, query string, args []any) (Result, error) {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxResult{cmdTag: tag}, nil
}

func pgxTxOptions(opts *sql.TxOptions) pgx.TxOptions {
	var out pgx.TxOptions
	if opts == nil {
		return out
	}
	switch opts.Isolation {
	case sql.LevelReadUncommitted:
		out.IsoLevel = pgx.ReadUncommitted
	case sql.LevelReadCommitted:
		out.IsoLevel = pgx.ReadCommitted
	case sql.LevelRepeatableRead, sql.LevelSnapshot:
		out.IsoLevel = pgx.RepeatableRead
	case sql.LevelSerializable, sql.LevelLinearizable:
		out.IsoLevel = pgx.Serializable
	}
	if opts.ReadOnly {
		out.AccessMode = pgx.ReadOnly
	}
	return out
}

var (
	_ Database = (*PgxDatabase)(nil)
	_ Tx       = (*PgxTx)(nil)
	_ Stmt     = (*PgxStmt)(nil)
	_ Rows     = (*PgxRows)(nil)
)
