package query

import (
	"strings"

	"github.com/Konsultn-Engineering/namedsql/dialect"
)

// lexical modes of the template scanner
const (
	sText = iota
	sSQ   // '...'
	sDQ   // "..."
	sBT   // `...` (MySQL, TiDB, SQLite)
	sLC   // -- ... \n
	sBC   // /* ... */
)

// Parse scans text for named parameters and returns the normalized SQL
// with d's placeholders in their place. A nil dialect emits '?'.
//
// Parameters are recognized only outside string literals, quoted
// identifiers and comments. "::" is copied through unchanged, which
// keeps Postgres casts such as created::date intact. There is no escape
// for a single ':' directly before an identifier; put such text inside
// a string literal or a comment.
//
// For MySQL and TiDB a backslash inside a single-quoted literal escapes
// the next byte, so 'B\'AR' is one literal.
func Parse(text string, d dialect.Dialect) (*SQLInfo, error) {
	p := parser{
		text:  text,
		d:     d,
		index: make(map[string]int),
	}
	if d != nil {
		switch d.Name() {
		case "mysql", "tidb":
			p.backticks, p.backslash = true, true
		case "sqlite3":
			p.backticks = true
		}
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &SQLInfo{
		original:   text,
		normalized: p.buf.String(),
		params:     p.params,
		index:      p.index,
		count:      p.pos,
	}, nil
}

// MustParse is like Parse but panics on a malformed template.
// Intended for package-level statement variables.
func MustParse(text string, d dialect.Dialect) *SQLInfo {
	info, err := Parse(text, d)
	if err != nil {
		panic(err)
	}
	return info
}

type parser struct {
	text      string
	d         dialect.Dialect
	backticks bool
	backslash bool

	buf    strings.Builder
	pos    int
	params []*NamedParameter
	index  map[string]int
}

func (p *parser) run() error {
	q := p.text
	p.buf.Grow(len(q) + 8)

	state := sText
	opened := 0 // offset where the current literal or comment started

	for i := 0; i < len(q); {
		c := q[i]

		switch state {
		case sText:
			switch {
			case c == '-' && i+1 < len(q) && q[i+1] == '-':
				state, opened = sLC, i
				p.buf.WriteString("--")
				i += 2
				continue
			case c == '/' && i+1 < len(q) && q[i+1] == '*':
				state, opened = sBC, i
				p.buf.WriteString("/*")
				i += 2
				continue
			case c == '\'':
				state, opened = sSQ, i
			case c == '"':
				state, opened = sDQ, i
			case c == '`' && p.backticks:
				state, opened = sBT, i
			case c == ':':
				n, err := p.marker(i)
				if err != nil {
					return err
				}
				i = n
				continue
			}
			p.buf.WriteByte(c)
			i++

		case sSQ, sDQ, sBT:
			quote := byte('\'')
			if state == sDQ {
				quote = '"'
			} else if state == sBT {
				quote = '`'
			}
			if c == '\\' && state == sSQ && p.backslash && i+1 < len(q) {
				p.buf.WriteString(q[i : i+2])
				i += 2
				continue
			}
			p.buf.WriteByte(c)
			i++
			if c == quote {
				if i < len(q) && q[i] == quote {
					// doubled quote stays inside
					p.buf.WriteByte(quote)
					i++
					continue
				}
				state = sText
			}

		case sLC:
			p.buf.WriteByte(c)
			i++
			if c == '\n' {
				state = sText
			}

		case sBC:
			if c == '*' && i+1 < len(q) && q[i+1] == '/' {
				p.buf.WriteString("*/")
				i += 2
				state = sText
				continue
			}
			p.buf.WriteByte(c)
			i++
		}
	}

	switch state {
	case sSQ:
		return p.errorf(opened, "unterminated string literal")
	case sDQ, sBT:
		return p.errorf(opened, "unterminated quoted identifier")
	case sBC:
		return p.errorf(opened, "unterminated block comment")
	}
	return nil
}

// marker handles a ':' at offset i in normal mode and returns the offset
// just past whatever it consumed.
func (p *parser) marker(i int) (int, error) {
	q := p.text
	if i+1 < len(q) && q[i+1] == ':' {
		p.buf.WriteString("::")
		return i + 2, nil
	}
	j := i + 1
	if j >= len(q) || !isAlphaUnderscore(q[j]) {
		return 0, p.errorf(i, "parameter marker without a name")
	}
	k := j + 1
	for k < len(q) && isAlphaNumUnderscore(q[k]) {
		k++
	}
	if k+1 < len(q) && q[k] == ':' && q[k+1] != ':' {
		return 0, p.errorf(k, "adjacent parameters are not allowed")
	}
	p.add(q[j:k])
	return k, nil
}

func (p *parser) add(name string) {
	p.pos++
	if idx, ok := p.index[name]; ok {
		p.params[idx].Positions = append(p.params[idx].Positions, p.pos)
	} else {
		p.index[name] = len(p.params)
		p.params = append(p.params, &NamedParameter{Name: name, Positions: []int{p.pos}})
	}
	if p.d == nil {
		p.buf.WriteByte('?')
		return
	}
	p.buf.WriteString(p.d.Placeholder(p.pos))
}

func (p *parser) errorf(offset int, reason string) *ParseError {
	return &ParseError{Template: p.text, Offset: offset, Reason: reason}
}

func isAlphaUnderscore(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumUnderscore(c byte) bool {
	return isAlphaUnderscore(c) || (c >= '0' && c <= '9')
}
