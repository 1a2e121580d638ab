package engine

import (
	"github.com/Konsultn-Engineering/namedsql/bind"
	"github.com/Konsultn-Engineering/namedsql/cache"
	"github.com/Konsultn-Engineering/namedsql/dialect"
	"github.com/Konsultn-Engineering/namedsql/schema"
)

// DefaultChunkSize is the batch-insert chunk size when none is configured.
const DefaultChunkSize = 100

type Option func(*Engine)

func WithDialect(d dialect.Dialect) Option {
	return func(e *Engine) { e.dialect = d }
}

// WithBindInfo sets the default binding policy.
func WithBindInfo(info *bind.Info) Option {
	return func(e *Engine) { e.info = info }
}

// WithNameMapper sets the default column to field mapping.
func WithNameMapper(m schema.NameMapper) Option {
	return func(e *Engine) { e.mapper = m }
}

// WithStrict makes unmatched result columns an error.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

func WithLogger(l Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTemplateCache shares a template cache between engines.
func WithTemplateCache(c *cache.TemplateCache) Option {
	return func(e *Engine) { e.templates = c }
}

// WithNamingStrategy sets the naming of generated tables and columns.
func WithNamingStrategy(s schema.NamingStrategy) Option {
	return func(e *Engine) { e.schema = schema.New(schema.WithNamingStrategy(s)) }
}

// WithDefaultStatementCache gives every new session a prepared-statement
// cache of the given size.
func WithDefaultStatementCache(size int) Option {
	return func(e *Engine) { e.stmtCache = size }
}

// WithBatchDefaults sets the chunk size and per-chunk commit used by
// batch inserts that do not override them.
func WithBatchDefaults(chunkSize int, commitPerChunk bool) Option {
	return func(e *Engine) {
		e.chunkSize = chunkSize
		e.commit = commitPerChunk
	}
}
