package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Value returns the field of struct value v. ok is false when an
// embedded pointer on the path is nil.
func (f *FieldMeta) Value(v reflect.Value) (reflect.Value, bool) {
	fv, err := v.FieldByIndexErr(f.Index)
	if err != nil {
		return reflect.Value{}, false
	}
	return fv, true
}

// Get returns the field's value as an interface, nil when unreachable.
func (f *FieldMeta) Get(v reflect.Value) any {
	fv, ok := f.Value(v)
	if !ok {
		return nil
	}
	return fv.Interface()
}

// Set converts x to the field's type and stores it. v must be an
// addressable struct value; nil embedded pointers are allocated.
func (f *FieldMeta) Set(v reflect.Value, x any) error {
	cv, err := f.convert(x)
	if err != nil {
		return err
	}
	fieldAlloc(v, f.Index).Set(cv)
	return nil
}

// Converter returns the conversion into the field's type.
func (f *FieldMeta) Converter() Converter {
	return f.convert
}

// IsZero reports whether the field holds its zero value.
func (f *FieldMeta) IsZero(v reflect.Value) bool {
	fv, ok := f.Value(v)
	return !ok || fv.IsZero()
}

func fieldAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// buildMeta collects the exported fields of t. Fields of embedded structs
// without a column tag are promoted; a shallower field shadows a deeper
// one with the same column.
func (c *Context) buildMeta(t reflect.Type) (*EntityMeta, error) {
	meta := &EntityMeta{
		Type:      t,
		Name:      t.Name(),
		FieldMap:  make(map[string]*FieldMeta, t.NumField()),
		ColumnMap: make(map[string]*FieldMeta, t.NumField()),
	}

	if tn, ok := reflect.New(t).Interface().(TableNamer); ok {
		meta.TableName = tn.TableName()
	} else {
		meta.TableName = c.namingStrategy.TableName(t.Name())
	}

	type pending struct {
		t     reflect.Type
		index []int
	}
	queue := []pending{{t: t}}
	for len(queue) > 0 {
		var next []pending
		for _, p := range queue {
			for i := 0; i < p.t.NumField(); i++ {
				f := p.t.Field(i)
				index := append(append([]int(nil), p.index...), i)

				parsed, err := c.tags.ParseTag(f.Name, f.Tag)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", t, err)
				}
				if parsed.IsSkipped() {
					continue
				}

				if f.Anonymous && !parsed.Explicit && f.IsExported() {
					ft := f.Type
					if ft.Kind() == reflect.Ptr {
						ft = ft.Elem()
					}
					if ft.Kind() == reflect.Struct && !isScalarStruct(ft) {
						next = append(next, pending{t: ft, index: index})
						continue
					}
				}
				if !f.IsExported() {
					continue
				}
				if _, dup := meta.ColumnMap[parsed.ColumnName]; dup {
					continue
				}
				if _, dup := meta.FieldMap[f.Name]; dup {
					continue
				}

				fm := &FieldMeta{
					Name:      f.Name,
					Column:    parsed.ColumnName,
					Type:      f.Type,
					Index:     index,
					Tag:       parsed,
					Generator: parsed.GetGenerator(),
					convert:   ConverterFor(f.Type),
				}
				if parsed.Type != "" {
					st, err := ParseSQLType(parsed.Type)
					if err != nil {
						return nil, fmt.Errorf("%s.%s: %w", t, f.Name, err)
					}
					fm.SQLType = st
				}
				meta.Fields = append(meta.Fields, fm)
				meta.FieldMap[f.Name] = fm
				meta.ColumnMap[fm.Column] = fm
			}
		}
		queue = next
	}
	return meta, nil
}

// isScalarStruct reports struct types that are stored in a single column.
func isScalarStruct(t reflect.Type) bool {
	if t == timeType {
		return true
	}
	if reflect.PointerTo(t).Implements(scannerType) {
		return true
	}
	return strings.HasPrefix(t.PkgPath(), "database/sql")
}

// Field returns the field whose Go name, lower-camel Go name or column
// equals name.
func (m *EntityMeta) Field(name string) (*FieldMeta, bool) {
	if f, ok := m.FieldMap[name]; ok {
		return f, true
	}
	if f, ok := m.ColumnMap[name]; ok {
		return f, true
	}
	for _, f := range m.Fields {
		if toCamelCase(f.Name) == name {
			return f, true
		}
	}
	return nil, false
}

// IsScalar reports whether values of t occupy a single column: every
// non-struct type plus time.Time, sql.Scanner implementations and the
// database/sql types.
func IsScalar(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() != reflect.Struct || isScalarStruct(t)
}
