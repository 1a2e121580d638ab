package dialect

type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

var sqliteStyle = renderStyle{
	trueLit:    "1",
	falseLit:   "0",
	bytes:      hexBytes("X'", "'"),
	timeLayout: "2006-01-02 15:04:05.999999999-07:00",
}

func (SQLite) Name() string { return "sqlite3" }

func (SQLite) QuoteIdentifier(name string) string {
	return quoteIdent(name, '"')
}

func (SQLite) Placeholder(int) string {
	return "?"
}

func (SQLite) RenderValue(v any) (string, error) {
	return sqliteStyle.render(v)
}

// SupportsReturning reports true; RETURNING is available since SQLite 3.35.
func (SQLite) SupportsReturning() bool {
	return true
}
