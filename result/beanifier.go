package result

import (
	"iter"
	"reflect"

	"github.com/Konsultn-Engineering/namedsql/schema"
)

// Beanifier materializes the rows of a cursor as values of T. T is a
// struct, a pointer to a struct, *Row or, for scalar readers, any type
// the first column converts to. Every terminal method closes the cursor.
type Beanifier[T any] struct {
	cursor *Cursor
	plan   *Plan
	ptr    bool
}

// Mappifier materializes rows as ordered maps.
type Mappifier = Beanifier[*Row]

// Beanify plans c's columns onto T.
func Beanify[T any](c *Cursor) (*Beanifier[T], error) {
	t := reflect.TypeFor[T]()
	target, ptr := t, false
	if t.Kind() == reflect.Ptr && t != rowPtrType && !schema.IsScalar(t) {
		target, ptr = t.Elem(), true
	}
	plan, err := c.planner.Plan(c.columns, target)
	if err != nil {
		return nil, c.finish(err)
	}
	return &Beanifier[T]{cursor: c, plan: plan, ptr: ptr}, nil
}

// Mappify materializes c's rows as *Row.
func Mappify(c *Cursor) (*Mappifier, error) {
	return Beanify[*Row](c)
}

// Scalars reads the first column of c's rows as T.
func Scalars[T any](c *Cursor) (*Beanifier[T], error) {
	plan, err := c.planner.PlanScalar(c.columns, reflect.TypeFor[T]())
	if err != nil {
		return nil, c.finish(err)
	}
	return &Beanifier[T]{cursor: c, plan: plan}, nil
}

// Plan returns the plan in use.
func (b *Beanifier[T]) Plan() *Plan { return b.plan }

func (b *Beanifier[T]) next() (T, bool, error) {
	var zero T
	if !b.cursor.Next() {
		return zero, false, nil
	}
	values, err := b.cursor.Values()
	if err != nil {
		return zero, false, err
	}
	v, err := b.plan.Materialize(values)
	if err != nil {
		return zero, false, err
	}
	if b.ptr {
		v = v.Addr()
	}
	return v.Interface().(T), true, nil
}

// One returns the first row. ok is false when there are no rows.
func (b *Beanifier[T]) One() (v T, ok bool, err error) {
	v, ok, err = b.next()
	if err = b.cursor.finish(err); err != nil {
		var zero T
		return zero, false, err
	}
	return v, ok, nil
}

// First returns at most n rows.
func (b *Beanifier[T]) First(n int) ([]T, error) {
	out := make([]T, 0, min(n, 64))
	for len(out) < n {
		v, ok, err := b.next()
		if err != nil {
			return nil, b.cursor.finish(err)
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	if err := b.cursor.finish(nil); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every remaining row.
func (b *Beanifier[T]) All() ([]T, error) {
	var out []T
	for {
		v, ok, err := b.next()
		if err != nil {
			return nil, b.cursor.finish(err)
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	if err := b.cursor.finish(nil); err != nil {
		return nil, err
	}
	return out, nil
}

// Iter yields one row at a time. The cursor is closed when the loop
// finishes, breaks or fails; a failure is yielded once as the last pair.
func (b *Beanifier[T]) Iter() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer b.cursor.Close()
		var zero T
		for {
			v, ok, err := b.next()
			if err != nil {
				yield(zero, b.cursor.finish(err))
				return
			}
			if !ok {
				if err := b.cursor.finish(nil); err != nil {
					yield(zero, err)
				}
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Scalar returns the first column of the first row as T.
func Scalar[T any](c *Cursor) (T, bool, error) {
	b, err := Scalars[T](c)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return b.One()
}

// FirstColumn returns the first column of every row as T.
func FirstColumn[T any](c *Cursor) ([]T, error) {
	b, err := Scalars[T](c)
	if err != nil {
		return nil, err
	}
	return b.All()
}
