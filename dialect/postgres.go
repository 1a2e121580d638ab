package dialect

import "strconv"

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

var postgresStyle = renderStyle{
	trueLit:    "TRUE",
	falseLit:   "FALSE",
	bytes:      hexBytes(`'\x`, "'::bytea"),
	timeLayout: "2006-01-02 15:04:05.999999-07:00",
}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return quoteIdent(name, '"')
}

func (Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (Postgres) RenderValue(v any) (string, error) {
	return postgresStyle.render(v)
}

func (Postgres) SupportsReturning() bool {
	return true
}
