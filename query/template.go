package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/namedsql/dialect"
)

// ErrNoSuchVariable is returned when setting a variable the template
// does not declare.
var ErrNoSuchVariable = errors.New("namedsql: no such template variable")

// Template is SQL text with ~%name% variables that are substituted as
// plain text before the result is parsed for named parameters. It lets
// callers vary identifiers and fragments that cannot be placeholders.
//
// A Template is not safe for concurrent use.
type Template struct {
	raw    string
	q      dialect.Quoter
	parts  []string // even indexes are text, odd indexes are variable names
	values map[string]string
}

// NewTemplate scans text for ~%name% variables. q renders identifiers
// and values for SetIdentifier and SetValue.
func NewTemplate(text string, q dialect.Quoter) (*Template, error) {
	t := &Template{raw: text, q: q, values: make(map[string]string)}
	rest := text
	offset := 0
	for {
		i := strings.Index(rest, "~%")
		if i < 0 {
			t.parts = append(t.parts, rest)
			break
		}
		j := strings.IndexByte(rest[i+2:], '%')
		if j < 0 {
			return nil, &ParseError{Template: text, Offset: offset + i, Reason: "unterminated template variable"}
		}
		name := rest[i+2 : i+2+j]
		if !validVariable(name) {
			return nil, &ParseError{Template: text, Offset: offset + i, Reason: fmt.Sprintf("invalid template variable name %q", name)}
		}
		t.parts = append(t.parts, rest[:i], name)
		consumed := i + 2 + j + 1
		rest = rest[consumed:]
		offset += consumed
	}
	return t, nil
}

// Text returns the template as written.
func (t *Template) Text() string { return t.raw }

// Vars returns the distinct variable names in order of appearance.
func (t *Template) Vars() []string {
	var out []string
	seen := make(map[string]bool)
	for i := 1; i < len(t.parts); i += 2 {
		if !seen[t.parts[i]] {
			seen[t.parts[i]] = true
			out = append(out, t.parts[i])
		}
	}
	return out
}

// Set substitutes text verbatim for every occurrence of the variable.
func (t *Template) Set(name, text string) error {
	if !t.declares(name) {
		return fmt.Errorf("%w: %s", ErrNoSuchVariable, name)
	}
	t.values[name] = text
	return nil
}

// SetIdentifier substitutes a quoted identifier.
func (t *Template) SetIdentifier(name, identifier string) error {
	return t.Set(name, t.q.QuoteIdentifier(identifier))
}

// SetValue substitutes v rendered as a SQL literal.
func (t *Template) SetValue(name string, v any) error {
	lit, err := t.q.RenderValue(v)
	if err != nil {
		return fmt.Errorf("template variable %s: %w", name, err)
	}
	return t.Set(name, lit)
}

// SetOrderBy substitutes an ORDER BY clause on a single column.
func (t *Template) SetOrderBy(name, column string, desc bool) error {
	clause := "ORDER BY " + t.q.QuoteIdentifier(column)
	if desc {
		clause += " DESC"
	}
	return t.Set(name, clause)
}

// Reset forgets all substitutions.
func (t *Template) Reset() {
	clear(t.values)
}

// Render returns the text with every variable substituted. A variable
// that was never set is a *ParseError.
func (t *Template) Render() (string, error) {
	var b strings.Builder
	b.Grow(len(t.raw))
	for i, part := range t.parts {
		if i%2 == 0 {
			b.WriteString(part)
			continue
		}
		v, ok := t.values[part]
		if !ok {
			return "", &ParseError{Template: t.raw, Offset: strings.Index(t.raw, "~%"+part+"%"), Reason: fmt.Sprintf("template variable %s not set", part)}
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

func (t *Template) declares(name string) bool {
	for i := 1; i < len(t.parts); i += 2 {
		if t.parts[i] == name {
			return true
		}
	}
	return false
}

func validVariable(name string) bool {
	if name == "" || !isAlphaUnderscore(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isAlphaNumUnderscore(name[i]) {
			return false
		}
	}
	return true
}
