package result

import (
	"reflect"

	"github.com/Konsultn-Engineering/namedsql/schema"
)

type planKind uint8

const (
	structPlan planKind = iota
	rowPlan
	scalarPlan
)

// Plan maps the columns of one result signature onto a target type. It
// is immutable and shared by every cursor with the same columns.
type Plan struct {
	kind    planKind
	target  reflect.Type
	columns []string
	fields  []*schema.FieldMeta // per column, nil when skipped
	convert schema.Converter    // scalar plans
}

// Target returns the type the plan produces.
func (p *Plan) Target() reflect.Type { return p.target }

// Columns returns the column labels the plan was built for.
func (p *Plan) Columns() []string { return append([]string(nil), p.columns...) }

// Field returns the Go field fed by column i, or "" when it is skipped.
func (p *Plan) Field(i int) string {
	if p.kind != structPlan || p.fields[i] == nil {
		return ""
	}
	return p.fields[i].Name
}

// Materialize builds one value of the plan's target from the scanned
// values of a row. The result does not share memory with values.
func (p *Plan) Materialize(values []any) (reflect.Value, error) {
	switch p.kind {
	case rowPlan:
		r := newRow(p.columns, values)
		if p.target == rowType {
			return reflect.ValueOf(r).Elem(), nil
		}
		return reflect.ValueOf(r), nil

	case scalarPlan:
		v, err := p.convert(values[0])
		if err != nil {
			return reflect.Value{}, &MappingError{Column: p.columns[0], Target: p.target, Err: err}
		}
		return v, nil
	}

	out := reflect.New(p.target).Elem()
	for i, f := range p.fields {
		if f == nil {
			continue
		}
		if err := f.Set(out, values[i]); err != nil {
			return reflect.Value{}, &MappingError{
				Column: p.columns[i],
				Field:  f.Name,
				Target: p.target,
				Err:    err,
			}
		}
	}
	return out, nil
}
