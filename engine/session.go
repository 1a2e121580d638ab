package engine

import (
	"context"
	"time"

	"github.com/Konsultn-Engineering/namedsql/cache"
	"github.com/Konsultn-Engineering/namedsql/database"
)

// Session runs statements on one executor: the engine's database or a
// transaction. It is meant for a single goroutine.
type Session struct {
	e      *Engine
	exec   database.Executor
	tx     database.Tx
	stmts  *cache.StatementCache
	closed bool
}

type SessionOption func(*Session)

// OnTx runs the session's statements inside tx.
func OnTx(tx database.Tx) SessionOption {
	return func(s *Session) {
		s.exec = tx
		s.tx = tx
	}
}

// WithStatementCache keeps up to size prepared statements between
// statement lifetimes, keyed by their SQL. size <= 0 disables it.
func WithStatementCache(size int) SessionOption {
	return func(s *Session) {
		if s.stmts != nil {
			_ = s.stmts.Close()
			s.stmts = nil
		}
		if size > 0 {
			s.stmts, _ = cache.NewStatementCache(size)
		}
	}
}

// Session creates a session on the engine's database.
func (e *Engine) Session(opts ...SessionOption) *Session {
	s := &Session{e: e, exec: e.db}
	if e.stmtCache > 0 {
		s.stmts, _ = cache.NewStatementCache(e.stmtCache)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the engine the session belongs to.
func (s *Session) Engine() *Engine { return s.e }

// Tx returns the session's transaction, or nil.
func (s *Session) Tx() database.Tx { return s.tx }

// CachedStatements returns the number of idle prepared statements.
func (s *Session) CachedStatements() int {
	if s.stmts == nil {
		return 0
	}
	return s.stmts.Len()
}

// Close releases the cached prepared statements. Statements prepared
// from the session must be closed by their owners.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.stmts == nil {
		return nil
	}
	return s.stmts.Close()
}

// PrepareQuery prepares a single-use query.
func (s *Session) PrepareQuery(ctx context.Context, sql *SQL) (*Query, error) {
	st, err := s.prepare(ctx, sql, kindQuery)
	if err != nil {
		return nil, err
	}
	return &Query{statement: st}, nil
}

// PrepareUpdate prepares a reusable UPDATE, DELETE or other statement
// whose result is a row count.
func (s *Session) PrepareUpdate(ctx context.Context, sql *SQL) (*Update, error) {
	st, err := s.prepare(ctx, sql, kindUpdate)
	if err != nil {
		return nil, err
	}
	return &Update{statement: st}, nil
}

// PrepareInsert prepares a reusable INSERT.
func (s *Session) PrepareInsert(ctx context.Context, sql *SQL) (*Insert, error) {
	st, err := s.prepare(ctx, sql, kindInsert)
	if err != nil {
		return nil, err
	}
	return &Insert{statement: st}, nil
}

func (s *Session) prepare(ctx context.Context, sql *SQL, kind stmtKind) (*statement, error) {
	if s.closed {
		return nil, &StateError{Op: "prepare on", State: StateClosed}
	}
	info, err := sql.Parse()
	if err != nil {
		return nil, err
	}
	st := newStatement(s, sql, info, kind)

	if s.stmts != nil {
		if stmt, ok := s.stmts.Take(info.Normalized()); ok {
			st.stmt, st.cached = stmt, true
			return st, nil
		}
	}
	start := time.Now()
	stmt, err := s.exec.PrepareContext(ctx, info.Normalized())
	if err != nil {
		s.e.log(ctx, Info{Kind: "prepare", Template: sql.text, SQL: info.Normalized(), Duration: time.Since(start), Err: err})
		return nil, &ExecutionError{Op: "prepare", Template: sql.text, SQL: info.Normalized(), Err: err}
	}
	st.stmt = stmt
	return st, nil
}

// release hands a prepared statement back to the cache, or closes it.
func (s *Session) release(normalized string, stmt database.Stmt) error {
	if s.stmts != nil && !s.closed {
		return s.stmts.Put(normalized, stmt)
	}
	return stmt.Close()
}
