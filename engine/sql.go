package engine

import (
	"context"
	"time"

	"github.com/Konsultn-Engineering/namedsql/bind"
	"github.com/Konsultn-Engineering/namedsql/query"
)

// SQL is a template handle. It is parsed through the engine's template
// cache on first use and may be shared between goroutines.
type SQL struct {
	e    *Engine
	text string
	info *bind.Info
}

type SQLOption func(*SQL)

// UseBindInfo binds the template's values under info instead of the
// engine default.
func UseBindInfo(info *bind.Info) SQLOption {
	return func(s *SQL) { s.info = info }
}

// SQL returns a handle for text.
func (e *Engine) SQL(text string, opts ...SQLOption) *SQL {
	s := &SQL{e: e, text: text, info: e.info}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Text returns the template text.
func (s *SQL) Text() string { return s.text }

// BindInfo returns the binding policy of the template.
func (s *SQL) BindInfo() *bind.Info { return s.info }

// Parse returns the parsed template from the cache.
func (s *SQL) Parse() (*query.SQLInfo, error) {
	p := policy{d: s.e.dialect, info: s.info}
	if info, ok := s.e.templates.Lookup(s.text, p); ok {
		return info, nil
	}
	start := time.Now()
	info, err := s.e.templates.Get(s.text, p)
	normalized := ""
	if info != nil {
		normalized = info.Normalized()
	}
	s.e.log(context.Background(), Info{
		Kind:     "parse",
		Template: s.text,
		SQL:      normalized,
		Duration: time.Since(start),
		Err:      err,
	})
	return info, err
}

// Template is SQL text with ~%name% variables that are substituted
// before the named parameters are parsed.
type Template struct {
	e    *Engine
	tmpl *query.Template
	opts []SQLOption
}

// Template returns a variable template for text, rendering values with
// the engine's dialect.
func (e *Engine) Template(text string, opts ...SQLOption) (*Template, error) {
	t, err := query.NewTemplate(text, e.dialect)
	if err != nil {
		return nil, err
	}
	return &Template{e: e, tmpl: t, opts: opts}, nil
}

// Set substitutes text verbatim.
func (t *Template) Set(name, text string) error { return t.tmpl.Set(name, text) }

// SetIdentifier substitutes a quoted identifier.
func (t *Template) SetIdentifier(name, identifier string) error {
	return t.tmpl.SetIdentifier(name, identifier)
}

// SetValue substitutes v as a SQL literal.
func (t *Template) SetValue(name string, v any) error { return t.tmpl.SetValue(name, v) }

// SetOrderBy substitutes an ORDER BY clause on column.
func (t *Template) SetOrderBy(name, column string, desc bool) error {
	return t.tmpl.SetOrderBy(name, column, desc)
}

// Reset clears every variable.
func (t *Template) Reset() { t.tmpl.Reset() }

// SQL renders the variables and returns a handle for the result. Every
// distinct rendering is parsed once.
func (t *Template) SQL() (*SQL, error) {
	text, err := t.tmpl.Render()
	if err != nil {
		return nil, err
	}
	return t.e.SQL(text, t.opts...), nil
}
