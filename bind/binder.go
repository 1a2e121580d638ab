package bind

import (
	"reflect"

	"github.com/Konsultn-Engineering/namedsql/dialect"
	"github.com/Konsultn-Engineering/namedsql/query"
)

type binding struct {
	value any
	owner any
}

// Binder holds the values assigned to the parameters of one template.
// It is not safe for concurrent use.
type Binder struct {
	info   *query.SQLInfo
	policy *Info
	quoter dialect.Quoter
	values map[string]binding
}

// New returns a Binder for info. A nil policy means Default.
func New(info *query.SQLInfo, policy *Info, q dialect.Quoter) *Binder {
	if policy == nil {
		policy = Default
	}
	return &Binder{
		info:   info,
		policy: policy,
		quoter: q,
		values: make(map[string]binding, info.Len()),
	}
}

// Info returns the parsed template.
func (b *Binder) Info() *query.SQLInfo { return b.info }

// Policy returns the binding policy.
func (b *Binder) Policy() *Info { return b.policy }

// Set assigns value to the parameter name. Names that do not occur in
// the template are rejected.
func (b *Binder) Set(name string, value any) error {
	if !b.info.Has(name) {
		return b.errorf([]string{name}, "no such parameter", nil)
	}
	b.values[name] = binding{value: value}
	return nil
}

// SetMap assigns the entries of a map with string keys. Keys that are
// not parameters are ignored.
func (b *Binder) SetMap(m any) error {
	if sm, ok := m.(map[string]any); ok {
		for k, v := range sm {
			if b.info.Has(k) {
				b.values[k] = binding{value: v}
			}
		}
		return nil
	}
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return b.errorf(nil, "SetMap requires a map with string keys, got "+typeName(m), nil)
	}
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		if b.info.Has(k) {
			b.values[k] = binding{value: iter.Value().Interface()}
		}
	}
	return nil
}

// SetRecord assigns every parameter that matches a field of rec by Go
// name, lower-camel Go name or column. Fields without a parameter are
// ignored.
func (b *Binder) SetRecord(rec any) error {
	rv := reflect.ValueOf(rec)
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return b.errorf(nil, "SetRecord requires a struct, got "+typeName(rec), nil)
	}
	meta, err := b.policy.Introspect(rv.Type())
	if err != nil {
		return b.errorf(nil, "cannot read record", err)
	}
	for _, name := range b.info.Names() {
		if f, ok := meta.Field(name); ok {
			b.values[name] = binding{value: f.Get(rv), owner: rec}
		}
	}
	return nil
}

// Reset clears every assignment.
func (b *Binder) Reset() {
	clear(b.values)
}

// Bound reports whether name has a value.
func (b *Binder) Bound(name string) bool {
	_, ok := b.values[name]
	return ok
}

// Unbound returns the parameters without a value, in template order.
func (b *Binder) Unbound() []string {
	var names []string
	for _, name := range b.info.Names() {
		if _, ok := b.values[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}

// Resolved returns one Arg per placeholder. Each parameter is resolved
// once and its value is placed at all of its positions.
func (b *Binder) Resolved() ([]Arg, error) {
	if missing := b.Unbound(); len(missing) > 0 {
		return nil, b.errorf(missing, "missing value for parameter", nil)
	}
	out := make([]Arg, b.info.Count())
	for _, p := range b.info.Parameters() {
		v := b.values[p.Name]
		arg, err := b.policy.Resolve(v.owner, p.Name, v.value, b.quoter)
		if err != nil {
			return nil, b.errorf([]string{p.Name}, "cannot bind value", err)
		}
		if _, ok := arg.Value.(Expression); ok {
			return nil, b.errorf([]string{p.Name}, "SQL expression cannot be bound to a placeholder", nil)
		}
		for _, pos := range p.Positions {
			out[pos-1] = arg
		}
	}
	return out, nil
}

// Args returns the driver arguments in placeholder order.
func (b *Binder) Args() ([]any, error) {
	resolved, err := b.Resolved()
	if err != nil {
		return nil, err
	}
	args := make([]any, len(resolved))
	for i, a := range resolved {
		args[i] = a.Value
	}
	return args, nil
}

func (b *Binder) errorf(names []string, reason string, err error) *BindingError {
	return &BindingError{
		Template: b.info.Original(),
		Names:    names,
		Reason:   reason,
		Err:      err,
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
