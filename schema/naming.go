package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is a singleton instance for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

// =========================================================================
// Naming strategies (Go names -> SQL names)
// =========================================================================

// NamingStrategy converts Go identifiers into table and column names for
// generated statements.
type NamingStrategy interface {
	ColumnNamingStrategy
	TableNamingStrategy
}

// ColumnNamingStrategy defines how Go field names are converted to database column names.
type ColumnNamingStrategy interface {
	ColumnName(fieldName string) string
}

// TableNamingStrategy defines how Go struct names are converted to database table names.
type TableNamingStrategy interface {
	TableName(structName string) string
}

// ColumnNamingType represents different column naming conventions.
type ColumnNamingType int

const (
	ColumnSnakeCase  ColumnNamingType = iota // user_id, first_name, created_at
	ColumnCamelCase                          // userId, firstName, createdAt
	ColumnPascalCase                         // UserId, FirstName, CreatedAt
)

type columnNamingStrategy struct {
	namingType ColumnNamingType
}

func NewColumnNamingStrategy(namingType ColumnNamingType) ColumnNamingStrategy {
	return &columnNamingStrategy{namingType: namingType}
}

func (c *columnNamingStrategy) ColumnName(fieldName string) string {
	switch c.namingType {
	case ColumnCamelCase:
		return toCamelCase(fieldName)
	case ColumnPascalCase:
		return toPascalCase(fieldName)
	default:
		return toSnakeCase(fieldName)
	}
}

// TableNamingType represents different table naming conventions.
type TableNamingType int

const (
	TableSnakeCasePlural    TableNamingType = iota // people, blog_posts
	TableSnakeCaseSingular                         // person, blog_post
	TableCamelCasePlural                           // people, blogPosts
	TablePascalCaseSingular                        // Person, BlogPost
)

type tableNamingStrategy struct {
	namingType TableNamingType
}

func NewTableNamingStrategy(namingType TableNamingType) TableNamingStrategy {
	return &tableNamingStrategy{namingType: namingType}
}

func (t *tableNamingStrategy) TableName(structName string) string {
	switch t.namingType {
	case TableSnakeCaseSingular:
		return toSnakeCase(structName)
	case TableCamelCasePlural:
		return pluralize(toCamelCase(structName))
	case TablePascalCaseSingular:
		return toPascalCase(structName)
	default:
		return pluralize(toSnakeCase(structName))
	}
}

type combinedNamingStrategy struct {
	ColumnNamingStrategy
	TableNamingStrategy
}

func NewCombinedNamingStrategy(columns ColumnNamingStrategy, tables TableNamingStrategy) NamingStrategy {
	return &combinedNamingStrategy{ColumnNamingStrategy: columns, TableNamingStrategy: tables}
}

// DefaultNamingStrategy returns snake_case columns with plural snake_case tables.
func DefaultNamingStrategy() NamingStrategy {
	return NewCombinedNamingStrategy(
		NewColumnNamingStrategy(ColumnSnakeCase),
		NewTableNamingStrategy(TableSnakeCasePlural),
	)
}

// SingularNamingStrategy returns snake_case columns with the struct name
// as the table name.
func SingularNamingStrategy() NamingStrategy {
	return NewCombinedNamingStrategy(
		NewColumnNamingStrategy(ColumnSnakeCase),
		NewTableNamingStrategy(TableSnakeCaseSingular),
	)
}

// =========================================================================
// Name mappers (SQL labels <-> Go names)
// =========================================================================

// NameMapper decides which result column feeds which struct field. A
// column maps to a field when Key(label) == Key(fieldName).
//
// Implementations must be comparable; planners are cached by mapper.
type NameMapper interface {
	Key(name string) string
}

// LooseMapper lower-cases and drops '_', '-' and spaces, so first_name,
// firstName and FIRST-NAME all map to the same key. It is the default.
type LooseMapper struct{}

func (LooseMapper) Key(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '_', '-', ' ':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ExactMapper requires labels to equal field names or tag columns.
type ExactMapper struct{}

func (ExactMapper) Key(name string) string { return name }

// SnakeMapper maps both sides to snake_case.
type SnakeMapper struct{}

func (SnakeMapper) Key(name string) string { return toSnakeCase(name) }

// =========================================================================
// Conversions
// =========================================================================

// ToSnakeCase converts FirstName or firstName to first_name.
func ToSnakeCase(name string) string { return toSnakeCase(name) }

// ToCamelCase converts first_name or FirstName to firstName.
func ToCamelCase(name string) string { return toCamelCase(name) }

// Pluralize returns the plural form of a noun, keeping its case pattern.
func Pluralize(name string) string { return pluralize(name) }

// toSnakeCase converts any naming convention to snake_case.
// Acronyms are kept together: UserID -> user_id, HTTPServer -> http_server.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return name
	}

	var result strings.Builder
	result.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteByte('_')
			} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				result.WriteByte('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}

// toCamelCase converts any naming convention to camelCase.
func toCamelCase(name string) string {
	pascal := toPascalCase(name)
	if pascal == "" {
		return ""
	}
	r := []rune(pascal)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// toPascalCase converts any naming convention to PascalCase.
func toPascalCase(name string) string {
	var result strings.Builder
	result.Grow(len(name))
	for _, part := range strings.Split(toSnakeCase(name), "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		result.WriteString(string(r))
	}
	return result.String()
}

// pluralize converts singular nouns to their plural forms.
// Only the last snake_case segment is pluralized: blog_post -> blog_posts.
func pluralize(name string) string {
	if name == "" {
		return ""
	}
	prefix, last := "", name
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		prefix, last = name[:i+1], name[i+1:]
	}
	return prefix + preserveCase(last, pluralizeClient.Pluralize(last, 2, false))
}

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// preserveCase preserves the case pattern of the original string in the result.
func preserveCase(original, result string) string {
	if original == "" || result == "" {
		return result
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(result)
	}
	if strings.ToUpper(original) == original {
		return strings.ToUpper(result)
	}
	if unicode.IsUpper(rune(original[0])) {
		return strings.ToUpper(result[:1]) + result[1:]
	}
	return result
}
