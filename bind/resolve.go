package bind

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/namedsql/dialect"
	"github.com/Konsultn-Engineering/namedsql/schema"
)

// Arg is a resolved value together with the SQL type it is sent as.
// Value is nil for SQL NULL and may be an Expression.
type Arg struct {
	Name  string
	Value any
	Type  schema.SQLType
}

// Resolve turns v, bound to name and read from owner (nil for values set
// by name), into a driver value. The steps run in order: transformer,
// enum representation, SQL type selection and coercion. Registered enums
// take the enum step even when they implement driver.Valuer.
func (i *Info) Resolve(owner any, name string, v any, q dialect.Quoter) (Arg, error) {
	var ownerType reflect.Type
	if owner != nil {
		ownerType = deref(reflect.TypeOf(owner))
	}
	arg := Arg{Name: name}

	if fn, ok := i.transformers[name]; ok {
		tv, err := fn(owner, name, v, q)
		if err != nil {
			return arg, fmt.Errorf("transformer: %w", err)
		}
		v = tv
	}
	if x, ok := v.(Expression); ok {
		arg.Value, arg.Type = x, schema.SQLOther
		return arg, nil
	}

	var declared reflect.Type
	if v != nil {
		declared = reflect.TypeOf(v)
	}
	override, hasOverride := i.SQLType(ownerType, name, declared)

	if isNull(v) {
		arg.Type = schema.InferSQLType(declared)
		if hasOverride {
			arg.Type = override
		}
		return arg, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	e, isEnum := schema.LookupEnum(rv.Type())

	if vr, ok := v.(driver.Valuer); ok && !hasOverride && !isEnum {
		dv, err := vr.Value()
		if err != nil {
			return arg, err
		}
		arg.Type = schema.InferSQLType(declared)
		if dv != nil {
			arg.Value = v
		}
		return arg, nil
	}

	v = rv.Interface()
	t := schema.InferSQLType(rv.Type())
	if isEnum {
		if i.EnumAsText(ownerType, name) {
			s, err := e.Text(v)
			if err != nil {
				return arg, err
			}
			v, t = s, schema.SQLVarchar
		} else {
			n, err := e.Ordinal(v)
			if err != nil {
				return arg, err
			}
			v, t = int64(n), schema.SQLInteger
		}
	}
	if hasOverride {
		t = override
	}

	cv, err := schema.Coerce(v, t)
	if err != nil {
		return arg, fmt.Errorf("%v as %s: %w", v, t, err)
	}
	arg.Value, arg.Type = cv, t
	return arg, nil
}

// isNull reports nil, typed nil pointers, maps and slices.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Literal resolves v like Resolve and renders it as SQL text with q.
// Expressions are emitted verbatim.
func (i *Info) Literal(owner any, name string, v any, q dialect.Quoter) (string, error) {
	arg, err := i.Resolve(owner, name, v, q)
	if err != nil {
		return "", err
	}
	if e, ok := arg.Value.(Expression); ok {
		return string(e), nil
	}
	return q.RenderValue(arg.Value)
}
