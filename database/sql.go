package database

import (
	"context"
	"database/sql"
)

// SqlDatabase implements Database for *sql.DB.
type SqlDatabase struct {
	db *sql.DB
}

// NewSqlDatabase creates a new SqlDatabase.
func NewSqlDatabase(db *sql.DB) *SqlDatabase {
	return &SqlDatabase{db: db}
}

// DB returns the wrapped handle.
func (s *SqlDatabase) DB() *sql.DB { return s.db }

// QueryContext executes a query that returns rows.
func (s *SqlDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &SqlRows{rows: rows}, nil
}

// ExecContext executes a query without returning rows.
func (s *SqlDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

// PrepareContext creates a prepared statement.
func (s *SqlDatabase) PrepareContext(ctx context.Context, query string) (Stmt, error) {
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &SqlStmt{stmt: stmt}, nil
}

// BeginTx starts a transaction.
func (s *SqlDatabase) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &SqlTx{tx: tx}, nil
}

// PingContext verifies the connection to the database is alive.
func (s *SqlDatabase) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SqlDatabase) Close() error { return s.db.Close() }

// SqlTx implements Tx for *sql.Tx.
type SqlTx struct {
	tx *sql.Tx
}

func (t *SqlTx) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &SqlRows{rows: rows}, nil
}

func (t *SqlTx) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *SqlTx) PrepareContext(ctx context.Context, query string) (Stmt, error) {
	stmt, err := t.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &SqlStmt{stmt: stmt}, nil
}

// Commit commits the transaction. database/sql ignores ctx here.
func (t *SqlTx) Commit(context.Context) error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *SqlTx) Rollback(context.Context) error { return t.tx.Rollback() }

// SqlStmt implements Stmt for *sql.Stmt.
type SqlStmt struct {
	stmt *sql.Stmt
}

func (s *SqlStmt) QueryContext(ctx context.Context, args ...any) (Rows, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return &SqlRows{rows: rows}, nil
}

func (s *SqlStmt) ExecContext(ctx context.Context, args ...any) (Result, error) {
	return s.stmt.ExecContext(ctx, args...)
}

func (s *SqlStmt) Close() error { return s.stmt.Close() }

// SqlRows implements Rows for *sql.Rows.
type SqlRows struct {
	rows *sql.Rows
}

// Next prepares the next result row for reading.
func (s *SqlRows) Next() bool { return s.rows.Next() }

// Scan copies the columns from the current row into the provided destinations.
func (s *SqlRows) Scan(dest ...any) error { return s.rows.Scan(dest...) }

// Close closes the rows iterator.
func (s *SqlRows) Close() error { return s.rows.Close() }

// Columns returns the column names.
func (s *SqlRows) Columns() ([]string, error) { return s.rows.Columns() }

// Err returns the error, if any, encountered during iteration.
func (s *SqlRows) Err() error { return s.rows.Err() }

var (
	_ Database = (*SqlDatabase)(nil)
	_ Tx       = (*SqlTx)(nil)
	_ Stmt     = (*SqlStmt)(nil)
	_ Rows     = (*SqlRows)(nil)
)
