package schema

import (
	"fmt"
	"reflect"
	"sync"
)

// Context builds and caches EntityMeta under one naming strategy.
type Context struct {
	namingStrategy NamingStrategy
	tags           *TagParser
	entityCache    sync.Map // map[reflect.Type]*EntityMeta
}

type Option func(*Context)

// WithNamingStrategy sets the naming strategy for derived table and column names.
func WithNamingStrategy(strategy NamingStrategy) Option {
	return func(ctx *Context) { ctx.namingStrategy = strategy }
}

func New(options ...Option) *Context {
	ctx := &Context{namingStrategy: DefaultNamingStrategy()}
	for _, opt := range options {
		opt(ctx)
	}
	ctx.tags = NewTagParser(ctx.namingStrategy)
	return ctx
}

// NamingStrategy returns the context's naming strategy.
func (c *Context) NamingStrategy() NamingStrategy {
	return c.namingStrategy
}

// Introspect retrieves or builds metadata for a given struct type.
func (c *Context) Introspect(t reflect.Type) (*EntityMeta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("invalid model type: %s (expected struct)", t.Kind())
	}
	if meta, ok := c.entityCache.Load(t); ok {
		return meta.(*EntityMeta), nil
	}
	meta, err := c.buildMeta(t)
	if err != nil {
		return nil, err
	}
	actual, _ := c.entityCache.LoadOrStore(t, meta)
	return actual.(*EntityMeta), nil
}

var defaultContext = New()

// Introspect uses the default context (snake_case columns, plural tables).
func Introspect(t reflect.Type) (*EntityMeta, error) {
	return defaultContext.Introspect(t)
}
