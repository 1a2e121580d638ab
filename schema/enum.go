package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Enum holds the ordered values of an enumerated type. A value's ordinal
// is its index in the registration order; its text is fmt.Sprint(value),
// which is String() for types implementing fmt.Stringer.
type Enum struct {
	typ    reflect.Type
	values []reflect.Value
	text   []string
	exact  map[string]int
	folded map[string]int
}

var enumRegistry sync.Map // map[reflect.Type]*Enum

// RegisterEnum declares T as an enumerated type with the given values in
// ordinal order. Registering the same type again replaces the values.
func RegisterEnum[T comparable](values ...T) *Enum {
	e := &Enum{
		typ:    reflect.TypeOf((*T)(nil)).Elem(),
		exact:  make(map[string]int, len(values)),
		folded: make(map[string]int, len(values)),
	}
	for i, v := range values {
		s := fmt.Sprint(v)
		e.values = append(e.values, reflect.ValueOf(v))
		e.text = append(e.text, s)
		e.exact[s] = i
		if _, dup := e.folded[strings.ToLower(s)]; !dup {
			e.folded[strings.ToLower(s)] = i
		}
	}
	enumRegistry.Store(e.typ, e)
	return e
}

// LookupEnum returns the registration of t.
func LookupEnum(t reflect.Type) (*Enum, bool) {
	return lookupEnum(t)
}

func lookupEnum(t reflect.Type) (*Enum, bool) {
	e, ok := enumRegistry.Load(t)
	if !ok {
		return nil, false
	}
	return e.(*Enum), true
}

// Type returns the enumerated type.
func (e *Enum) Type() reflect.Type { return e.typ }

// Ordinal returns the index of v.
func (e *Enum) Ordinal(v any) (int, error) {
	rv := reflect.ValueOf(v)
	for i, ev := range e.values {
		if ev.Interface() == rv.Interface() {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%v is not a registered value of %s", v, e.typ)
}

// Text returns the textual label of v.
func (e *Enum) Text(v any) (string, error) {
	i, err := e.Ordinal(v)
	if err != nil {
		return "", err
	}
	return e.text[i], nil
}

// Parse finds the value labelled s, exactly first and then ignoring case.
func (e *Enum) Parse(s string) (reflect.Value, error) {
	if i, ok := e.exact[s]; ok {
		return e.values[i], nil
	}
	if i, ok := e.folded[strings.ToLower(s)]; ok {
		return e.values[i], nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %q is not a value of %s", ErrUnsupportedConversion, s, e.typ)
}

func (e *Enum) fromDriver(src any) (reflect.Value, error) {
	if s, ok := text(src); ok {
		return e.Parse(s)
	}
	rv := reflect.ValueOf(src)
	var n int64
	switch {
	case isInt(rv.Kind()):
		n = rv.Int()
	case isUint(rv.Kind()):
		n = int64(rv.Uint())
	default:
		return reflect.Value{}, unsupported(src, e.typ)
	}
	if n < 0 || n >= int64(len(e.values)) {
		return reflect.Value{}, fmt.Errorf("%w: ordinal %d out of range for %s", ErrUnsupportedConversion, n, e.typ)
	}
	return e.values[n], nil
}
