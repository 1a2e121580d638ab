package result

import (
	"errors"

	"github.com/Konsultn-Engineering/namedsql/database"
)

// Cursor reads the rows of one query. Values are scanned as driver
// values and converted by a Plan. A Cursor is not safe for concurrent
// use; Close is idempotent.
type Cursor struct {
	rows    database.Rows
	planner *Planner
	columns []string
	holders []any
	dest    []any
	onClose func() error
	closed  bool
}

// NewCursor wraps rows. onClose, if non-nil, runs once after the rows are
// closed.
func NewCursor(rows database.Rows, planner *Planner, onClose func() error) (*Cursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Join(err, rows.Close(), runHook(onClose))
	}
	if planner == nil {
		planner = NewPlanner()
	}
	c := &Cursor{
		rows:    rows,
		planner: planner,
		columns: columns,
		holders: make([]any, len(columns)),
		dest:    make([]any, len(columns)),
		onClose: onClose,
	}
	for i := range c.holders {
		c.dest[i] = &c.holders[i]
	}
	return c, nil
}

// Columns returns the column labels.
func (c *Cursor) Columns() []string { return append([]string(nil), c.columns...) }

// Planner returns the planner used by the materializers.
func (c *Cursor) Planner() *Planner { return c.planner }

// Next advances to the next row.
func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}
	return c.rows.Next()
}

// Values scans the current row. The returned slice is reused by the next
// call.
func (c *Cursor) Values() ([]any, error) {
	if err := c.rows.Scan(c.dest...); err != nil {
		return nil, err
	}
	return c.holders, nil
}

// Err returns the error that ended iteration, if any.
func (c *Cursor) Err() error {
	if c.closed {
		return nil
	}
	return c.rows.Err()
}

// Closed reports whether Close has been called.
func (c *Cursor) Closed() bool { return c.closed }

func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return errors.Join(c.rows.Close(), runHook(c.onClose))
}

// finish closes the cursor and returns the first of err, the iteration
// error and the close error.
func (c *Cursor) finish(err error) error {
	if err == nil {
		err = c.Err()
	}
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	return err
}

func runHook(fn func() error) error {
	if fn == nil {
		return nil
	}
	return fn()
}
