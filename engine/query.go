package engine

import (
	"context"
	"errors"

	"github.com/Konsultn-Engineering/namedsql/result"
	"github.com/Konsultn-Engineering/namedsql/schema"
)

// Query is a prepared SELECT. It executes once; the cursor it returns
// is closed together with the query.
type Query struct {
	*statement
	mapper schema.NameMapper
}

// UseMapper materializes the query's rows with m instead of the engine
// default.
func (q *Query) UseMapper(m schema.NameMapper) *Query {
	q.mapper = m
	return q
}

// Execute runs the query and returns its cursor.
func (q *Query) Execute(ctx context.Context) (*result.Cursor, error) {
	rows, err := q.query(ctx)
	if err != nil {
		return nil, err
	}
	c, err := result.NewCursor(rows, q.sess.e.Planner(q.mapper), nil)
	if err != nil {
		return nil, q.execError("columns", err)
	}
	q.closer = c.Close
	return c, nil
}

// Mappify executes the query and materializes its rows as ordered maps.
func (q *Query) Mappify(ctx context.Context) (*result.Mappifier, error) {
	c, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return result.Mappify(c)
}

// Exists executes the query and reports whether it returns a row.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	c, err := q.Execute(ctx)
	if err != nil {
		return false, err
	}
	ok := c.Next()
	if err := errors.Join(c.Err(), c.Close()); err != nil {
		return false, q.execError("query", err)
	}
	return ok, nil
}

// Beanify executes q and materializes its rows as T.
func Beanify[T any](ctx context.Context, q *Query) (*result.Beanifier[T], error) {
	c, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return result.Beanify[T](c)
}

// Lookup executes q and returns the first column of the first row. ok is
// false when there are no rows.
func Lookup[T any](ctx context.Context, q *Query) (T, bool, error) {
	var zero T
	c, err := q.Execute(ctx)
	if err != nil {
		return zero, false, err
	}
	return result.Scalar[T](c)
}

// Column executes q and returns the first column of every row.
func Column[T any](ctx context.Context, q *Query) ([]T, error) {
	c, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return result.FirstColumn[T](c)
}
