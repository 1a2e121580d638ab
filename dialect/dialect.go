package dialect

import (
	"fmt"
	"strings"
)

// Quoter renders identifiers and values as SQL text. Transformer hooks
// and batch inserts use it to build literals that cannot travel as
// placeholders.
type Quoter interface {
	QuoteIdentifier(name string) string
	RenderValue(v any) (string, error)
}

// Dialect describes the SQL flavour spoken by a driver.
type Dialect interface {
	Quoter
	Name() string
	Placeholder(n int) string
	SupportsReturning() bool
}

// Expr is a raw SQL fragment. RenderValue emits it verbatim.
type Expr string

var dialects = map[string]func() Dialect{
	"postgres": NewPostgresDialect,
	"pgx":      NewPostgresDialect,
	"mysql":    NewMySQLDialect,
	"tidb":     NewTiDBDialect,
	"sqlite":   NewSQLiteDialect,
	"sqlite3":  NewSQLiteDialect,
}

// ByName returns the dialect registered under name (case-insensitive).
func ByName(name string) (Dialect, error) {
	ctor, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("dialect %q not supported", name)
	}
	return ctor(), nil
}
