package dialect

import "strings"

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

var mysqlStyle = renderStyle{
	trueLit:    "TRUE",
	falseLit:   "FALSE",
	bytes:      hexBytes("X'", "'"),
	timeLayout: "2006-01-02 15:04:05.999999",
}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return quoteIdent(name, '`')
}

func (MySQL) Placeholder(int) string {
	return "?"
}

func (MySQL) RenderValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		// MySQL treats backslash as an escape inside literals by default.
		return quoteString(strings.ReplaceAll(s, `\`, `\\`)), nil
	}
	return mysqlStyle.render(v)
}

func (MySQL) SupportsReturning() bool {
	return false
}

// quoteIdent quotes each dot-separated part of name with q, doubling
// embedded quote characters.
func quoteIdent(name string, q byte) string {
	parts := strings.Split(name, ".")
	qs := string(q)
	for i, p := range parts {
		parts[i] = qs + strings.ReplaceAll(p, qs, qs+qs) + qs
	}
	return strings.Join(parts, ".")
}
