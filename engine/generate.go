package engine

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/namedsql/bind"
	"github.com/Konsultn-Engineering/namedsql/schema"
)

// InsertOption configures generated INSERT statements and batch inserts.
type InsertOption func(*insertConfig)

type insertConfig struct {
	table        string
	include      map[string]bool
	exclude      map[string]bool
	naming       schema.ColumnNamingStrategy
	chunkSize    int
	commit       *bool
	transformers []bind.Option
}

// Into sets the table name instead of deriving it from the type.
func Into(table string) InsertOption {
	return func(c *insertConfig) { c.table = table }
}

// Including restricts the columns to the named fields. Read-only and
// primary fields listed here are written too.
func Including(fields ...string) InsertOption {
	return func(c *insertConfig) {
		if c.include == nil {
			c.include = make(map[string]bool, len(fields))
		}
		for _, f := range fields {
			c.include[f] = true
		}
	}
}

// Excluding drops the named fields from the column list.
func Excluding(fields ...string) InsertOption {
	return func(c *insertConfig) {
		if c.exclude == nil {
			c.exclude = make(map[string]bool, len(fields))
		}
		for _, f := range fields {
			c.exclude[f] = true
		}
	}
}

// WithNameMapping derives column names of untagged fields with s.
func WithNameMapping(s schema.ColumnNamingStrategy) InsertOption {
	return func(c *insertConfig) { c.naming = s }
}

// ChunkSize sets the number of rows per batch-insert statement.
func ChunkSize(n int) InsertOption {
	return func(c *insertConfig) { c.chunkSize = n }
}

// CommitPerChunk runs every batch chunk in its own transaction.
func CommitPerChunk(commit bool) InsertOption {
	return func(c *insertConfig) { c.commit = &commit }
}

// WithTransformer rewrites the value of field before it is written.
func WithTransformer(field string, fn bind.Transformer) InsertOption {
	return func(c *insertConfig) {
		c.transformers = append(c.transformers, bind.WithTransformer(field, fn))
	}
}

func newInsertConfig(e *Engine, opts []InsertOption) *insertConfig {
	c := &insertConfig{chunkSize: e.chunkSize}
	for _, opt := range opts {
		opt(c)
	}
	if c.chunkSize <= 0 {
		c.chunkSize = DefaultChunkSize
	}
	if c.commit == nil {
		c.commit = &e.commit
	}
	return c
}

// insertPlan is the column list of a generated INSERT.
type insertPlan struct {
	meta    *schema.EntityMeta
	table   string
	columns []string
	fields  []*schema.FieldMeta
}

func (c *insertConfig) writes(f *schema.FieldMeta) bool {
	if c.exclude[f.Name] {
		return false
	}
	if len(c.include) > 0 {
		return c.include[f.Name]
	}
	if f.Tag.ReadOnly {
		return false
	}
	return !f.Tag.Primary || f.Generator != nil
}

func (c *insertConfig) plan(e *Engine, t reflect.Type) (*insertPlan, error) {
	meta, err := e.schema.Introspect(t)
	if err != nil {
		return nil, err
	}
	p := &insertPlan{meta: meta, table: c.table}
	if p.table == "" {
		p.table = meta.TableName
	}
	for _, f := range meta.Fields {
		if !c.writes(f) {
			continue
		}
		col := f.Column
		if c.naming != nil && !f.Tag.Explicit {
			col = c.naming.ColumnName(f.Name)
		}
		p.columns = append(p.columns, col)
		p.fields = append(p.fields, f)
	}
	if len(p.fields) == 0 {
		return nil, fmt.Errorf("%s has no insertable fields", meta.Type)
	}
	return p, nil
}

// head renders `INSERT INTO <table> (<cols>) VALUES `.
func (p *insertPlan) head(e *Engine) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(e.dialect.QuoteIdentifier(p.table))
	sb.WriteString(" (")
	for i, col := range p.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.dialect.QuoteIdentifier(col))
	}
	sb.WriteString(") VALUES ")
	return sb.String()
}

// InsertInto generates `INSERT INTO <table> (<cols>) VALUES (:Field, ...)`
// for T, ready for Session.PrepareInsert and SetRecord.
func InsertInto[T any](e *Engine, opts ...InsertOption) (*SQL, error) {
	c := newInsertConfig(e, opts)
	p, err := c.plan(e, reflect.TypeFor[T]())
	if err != nil {
		return nil, &bind.BindingError{Reason: "cannot generate INSERT", Err: err}
	}
	var sb strings.Builder
	sb.WriteString(p.head(e))
	sb.WriteByte('(')
	for i, f := range p.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte(':')
		sb.WriteString(f.Name)
	}
	sb.WriteByte(')')

	var sqlOpts []SQLOption
	if len(c.transformers) > 0 {
		sqlOpts = append(sqlOpts, UseBindInfo(e.info.With(c.transformers...)))
	}
	return e.SQL(sb.String(), sqlOpts...), nil
}
