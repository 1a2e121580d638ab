package cache

import (
	"sync"
	"sync/atomic"

	"github.com/Konsultn-Engineering/namedsql/dialect"
	"github.com/Konsultn-Engineering/namedsql/query"
	"golang.org/x/sync/singleflight"
)

// Policy is what a template is parsed under. ID must be stable for the
// lifetime of the policy and distinct between policies.
type Policy interface {
	ID() uint64
	Dialect() dialect.Dialect
}

// ParseFunc parses template text for a dialect.
type ParseFunc func(text string, d dialect.Dialect) (*query.SQLInfo, error)

// TemplateCache memoizes parsed templates. Concurrent first requests for
// the same key share one parse and receive the same *query.SQLInfo.
// Entries are kept until Invalidate or Purge.
type TemplateCache struct {
	mu     sync.RWMutex
	data   map[TemplateKey]*query.SQLInfo
	group  singleflight.Group
	parse  ParseFunc
	parses atomic.Int64
}

func NewTemplateCache() *TemplateCache {
	return NewTemplateCacheWithParser(query.Parse)
}

// NewTemplateCacheWithParser creates a cache that parses with fn.
func NewTemplateCacheWithParser(fn ParseFunc) *TemplateCache {
	return &TemplateCache{
		data:  make(map[TemplateKey]*query.SQLInfo, 256),
		parse: fn,
	}
}

// Get returns the parsed template, parsing it on first use. Parse errors
// are returned to every waiting caller and are not cached.
func (c *TemplateCache) Get(text string, p Policy) (*query.SQLInfo, error) {
	key := TemplateKey{Text: text, Policy: p.ID()}

	c.mu.RLock()
	info, ok := c.data[key]
	c.mu.RUnlock()
	if ok {
		return info, nil
	}

	v, err, _ := c.group.Do(key.flight(), func() (any, error) {
		c.mu.RLock()
		info, ok := c.data[key]
		c.mu.RUnlock()
		if ok {
			return info, nil
		}

		c.parses.Add(1)
		info, err := c.parse(text, p.Dialect())
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.data[key] = info
		c.mu.Unlock()
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*query.SQLInfo), nil
}

// Lookup returns a cached entry without parsing.
func (c *TemplateCache) Lookup(text string, p Policy) (*query.SQLInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.data[TemplateKey{Text: text, Policy: p.ID()}]
	return info, ok
}

// Invalidate drops one entry.
func (c *TemplateCache) Invalidate(text string, p Policy) {
	c.mu.Lock()
	delete(c.data, TemplateKey{Text: text, Policy: p.ID()})
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *TemplateCache) Purge() {
	c.mu.Lock()
	clear(c.data)
	c.mu.Unlock()
}

// Len returns the number of cached templates.
func (c *TemplateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Parses returns how many times the parser has run.
func (c *TemplateCache) Parses() int64 {
	return c.parses.Load()
}
