package engine

import (
	"context"
	"errors"
	"time"

	"github.com/Konsultn-Engineering/namedsql/bind"
	"github.com/Konsultn-Engineering/namedsql/database"
	"github.com/Konsultn-Engineering/namedsql/query"
)

type stmtKind uint8

const (
	kindQuery stmtKind = iota
	kindUpdate
	kindInsert
)

func (k stmtKind) String() string {
	switch k {
	case kindQuery:
		return "query"
	case kindUpdate:
		return "update"
	}
	return "insert"
}

// Statement is the contract shared by Query, Update and Insert.
type Statement interface {
	Set(name string, value any) error
	SetMap(m any) error
	SetRecord(rec any) error
	State() State
	Close() error
}

var (
	_ Statement = (*Query)(nil)
	_ Statement = (*Update)(nil)
	_ Statement = (*Insert)(nil)
)

// statement is a prepared template with its bound values.
type statement struct {
	sess   *Session
	sql    *SQL
	info   *query.SQLInfo
	binder *bind.Binder
	stmt   database.Stmt
	kind   stmtKind
	state  State
	cached bool
	closer func() error // extra resource closed before the statement
}

func newStatement(s *Session, sql *SQL, info *query.SQLInfo, kind stmtKind) *statement {
	return &statement{
		sess:   s,
		sql:    sql,
		info:   info,
		binder: bind.New(info, sql.info, s.e.dialect),
		kind:   kind,
	}
}

// State returns the lifecycle state.
func (st *statement) State() State { return st.state }

// Info returns the parsed template.
func (st *statement) Info() *query.SQLInfo { return st.info }

// Unbound returns the parameters that still need a value.
func (st *statement) Unbound() []string { return st.binder.Unbound() }

func (st *statement) bindable(op string) error {
	if st.state == StateCreated || st.state == StateBound {
		return nil
	}
	return &StateError{Op: op, State: st.state}
}

// Set binds value to the parameter name.
func (st *statement) Set(name string, value any) error {
	if err := st.bindable("bind"); err != nil {
		return err
	}
	if err := st.binder.Set(name, value); err != nil {
		return err
	}
	st.state = StateBound
	return nil
}

// SetMap binds the entries of a map keyed by parameter name.
func (st *statement) SetMap(m any) error {
	if err := st.bindable("bind"); err != nil {
		return err
	}
	if err := st.binder.SetMap(m); err != nil {
		return err
	}
	st.state = StateBound
	return nil
}

// SetRecord binds the fields of a struct whose names match parameters.
func (st *statement) SetRecord(rec any) error {
	if err := st.bindable("bind"); err != nil {
		return err
	}
	if err := st.binder.SetRecord(rec); err != nil {
		return err
	}
	st.state = StateBound
	return nil
}

// resetBindings moves an executed reusable statement back to bound and
// clears its values.
func (st *statement) resetBindings() error {
	switch st.state {
	case StateExecuted, StateBound, StateCreated:
		st.binder.Reset()
		st.state = StateBound
		return nil
	}
	return &StateError{Op: "reset", State: st.state}
}

// args resolves the bound values for execution.
func (st *statement) args(op string) ([]any, error) {
	if err := st.bindable(op); err != nil {
		return nil, err
	}
	return st.binder.Args()
}

func (st *statement) execError(op string, err error) error {
	return &ExecutionError{Op: op, Template: st.sql.text, SQL: st.info.Normalized(), Err: err}
}

func (st *statement) report(ctx context.Context, start time.Time, args []any, err error) {
	st.sess.e.log(ctx, Info{
		Kind:     st.kind.String(),
		Template: st.sql.text,
		SQL:      st.info.Normalized(),
		Args:     args,
		Duration: time.Since(start),
		Err:      err,
		Cached:   st.cached,
	})
}

// exec runs the statement for its row count.
func (st *statement) exec(ctx context.Context) (database.Result, error) {
	args, err := st.args("execute")
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := st.stmt.ExecContext(ctx, args...)
	st.report(ctx, start, args, err)
	if err != nil {
		return nil, st.execError("exec", err)
	}
	st.state = StateExecuted
	return res, nil
}

// query runs the statement for its rows.
func (st *statement) query(ctx context.Context) (database.Rows, error) {
	args, err := st.args("execute")
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := st.stmt.QueryContext(ctx, args...)
	st.report(ctx, start, args, err)
	if err != nil {
		return nil, st.execError("query", err)
	}
	st.state = StateExecuted
	return rows, nil
}

// Close releases the prepared statement and any open cursor. It may be
// called any number of times.
func (st *statement) Close() error {
	if st.state == StateClosed {
		return nil
	}
	st.state = StateClosed
	var errs []error
	if st.closer != nil {
		errs = append(errs, st.closer())
		st.closer = nil
	}
	if st.stmt != nil {
		errs = append(errs, st.sess.release(st.info.Normalized(), st.stmt))
		st.stmt = nil
	}
	return errors.Join(errs...)
}
