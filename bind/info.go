package bind

import (
	"reflect"
	"sync/atomic"

	"github.com/Konsultn-Engineering/namedsql/dialect"
	"github.com/Konsultn-Engineering/namedsql/schema"
)

// Expression is raw SQL returned by a Transformer. It is inlined by
// literal rendering and rejected by placeholder binding.
type Expression = dialect.Expr

// Transformer rewrites a value before it is bound. owner is the record
// the value was read from, or nil for values set by name.
type Transformer func(owner any, name string, value any, q dialect.Quoter) (any, error)

type typeKey struct {
	owner reflect.Type
	param string
	value reflect.Type
}

type enumKey struct {
	owner reflect.Type
	param string
}

// Info is an immutable binding policy: SQL type overrides, enum
// representation and per-parameter transformers. Each Info has a
// distinct ID. Infos derived with With share the Family of their base,
// which keys the template cache.
type Info struct {
	id           uint64
	family       uint64
	types        map[typeKey]schema.SQLType
	enumText     map[enumKey]bool
	allEnumsText bool
	transformers map[string]Transformer
	schema       *schema.Context
}

type Option func(*Info)

var infoSeq atomic.Uint64

// Default is the policy used when none is given: inferred SQL types,
// enums as ordinals, no transformers.
var Default = NewInfo()

func NewInfo(opts ...Option) *Info {
	id := infoSeq.Add(1)
	i := &Info{
		id:           id,
		family:       id,
		types:        make(map[typeKey]schema.SQLType),
		enumText:     make(map[enumKey]bool),
		transformers: make(map[string]Transformer),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// With returns a copy of i extended by opts. The copy has its own ID
// and i's Family.
func (i *Info) With(opts ...Option) *Info {
	c := NewInfo()
	c.family = i.family
	for k, v := range i.types {
		c.types[k] = v
	}
	for k, v := range i.enumText {
		c.enumText[k] = v
	}
	for k, v := range i.transformers {
		c.transformers[k] = v
	}
	c.allEnumsText = i.allEnumsText
	c.schema = i.schema
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSQLType binds param as t. A nil owner matches values set by name
// and acts as the fallback for every record type. A nil value type
// matches every value.
func WithSQLType(owner reflect.Type, param string, value reflect.Type, t schema.SQLType) Option {
	return func(i *Info) {
		i.types[typeKey{deref(owner), param, value}] = t
	}
}

// WithEnumText binds enums of the given parameters by their text instead
// of their ordinal. With no params it applies to every parameter of owner.
func WithEnumText(owner reflect.Type, params ...string) Option {
	return func(i *Info) {
		if len(params) == 0 {
			i.enumText[enumKey{owner: deref(owner)}] = true
			return
		}
		for _, p := range params {
			i.enumText[enumKey{deref(owner), p}] = true
		}
	}
}

// EnumsAsText binds every enum by its text.
func EnumsAsText() Option {
	return func(i *Info) { i.allEnumsText = true }
}

// WithTransformer registers fn for the parameter or field name.
func WithTransformer(name string, fn Transformer) Option {
	return func(i *Info) { i.transformers[name] = fn }
}

// WithSchema sets the metadata context used to read records.
func WithSchema(c *schema.Context) Option {
	return func(i *Info) { i.schema = c }
}

// ID identifies the policy.
func (i *Info) ID() uint64 { return i.id }

// Family identifies the policy's root: the Info created by NewInfo that
// i was derived from.
func (i *Info) Family() uint64 { return i.family }

// SQLType returns the override for (owner, param, value). The most
// specific registration wins.
func (i *Info) SQLType(owner reflect.Type, param string, value reflect.Type) (schema.SQLType, bool) {
	owner = deref(owner)
	for _, k := range [...]typeKey{
		{owner, param, value},
		{owner, param, nil},
		{nil, param, value},
		{nil, param, nil},
	} {
		if t, ok := i.types[k]; ok {
			return t, true
		}
	}
	return schema.SQLUnknown, false
}

// EnumAsText reports whether enums bound to param of owner use their text.
func (i *Info) EnumAsText(owner reflect.Type, param string) bool {
	if i.allEnumsText {
		return true
	}
	owner = deref(owner)
	return i.enumText[enumKey{owner, param}] ||
		i.enumText[enumKey{owner: owner}] ||
		i.enumText[enumKey{nil, param}]
}

// Transformer returns the transformer registered for name.
func (i *Info) Transformer(name string) (Transformer, bool) {
	fn, ok := i.transformers[name]
	return fn, ok
}

// Introspect reads record metadata through the policy's schema context.
func (i *Info) Introspect(t reflect.Type) (*schema.EntityMeta, error) {
	if i.schema != nil {
		return i.schema.Introspect(t)
	}
	return schema.Introspect(t)
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
