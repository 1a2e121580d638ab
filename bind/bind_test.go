package bind

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Konsultn-Engineering/namedsql/dialect"
	"github.com/Konsultn-Engineering/namedsql/query"
	"github.com/Konsultn-Engineering/namedsql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Mood int

const (
	Calm Mood = iota
	Happy
	Angry
)

func (m Mood) String() string {
	return [...]string{"calm", "happy", "angry"}[m]
}

// Level is an enum that also implements driver.Valuer.
type Level int

const (
	Low Level = iota
	High
)

func (l Level) String() string { return [...]string{"low", "high"}[l] }

func (l Level) Value() (driver.Value, error) { return "valuer:" + l.String(), nil }

func init() {
	schema.RegisterEnum(Calm, Happy, Angry)
	schema.RegisterEnum(Low, High)
}

type Person struct {
	ID        int64 `db:"id"`
	FirstName string
	Mood      Mood
	Born      time.Time
	Nickname  *string
}

var mysql = dialect.NewMySQLDialect()

func binder(t *testing.T, text string, policy *Info) *Binder {
	t.Helper()
	info, err := query.Parse(text, mysql)
	require.NoError(t, err)
	return New(info, policy, mysql)
}

func TestFanOut(t *testing.T) {
	b := binder(t, "WHERE a=:x OR b=:x", nil)
	require.NoError(t, b.Set("x", 5))

	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(5), int64(5)}, args)
}

func TestLaterSetReplaces(t *testing.T) {
	b := binder(t, "SELECT :a, :b, :a", nil)
	require.NoError(t, b.Set("a", "one"))
	require.NoError(t, b.Set("b", true))
	require.NoError(t, b.Set("a", "two"))

	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"two", true, "two"}, args)
}

func TestSetUnknownName(t *testing.T) {
	b := binder(t, "SELECT :a", nil)
	err := b.Set("y", 1)
	require.ErrorIs(t, err, ErrBinding)

	var be *BindingError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, []string{"y"}, be.Names)
	assert.Equal(t, "SELECT :a", be.Template)
}

func TestMissingValue(t *testing.T) {
	b := binder(t, "SELECT :a, :b, :c", nil)
	require.NoError(t, b.Set("b", 1))
	assert.Equal(t, []string{"a", "c"}, b.Unbound())

	_, err := b.Args()
	var be *BindingError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, []string{"a", "c"}, be.Names)
	assert.Contains(t, err.Error(), "missing value")
}

func TestReset(t *testing.T) {
	b := binder(t, "SELECT :a", nil)
	require.NoError(t, b.Set("a", 1))
	assert.True(t, b.Bound("a"))
	b.Reset()
	assert.False(t, b.Bound("a"))
	assert.Equal(t, []string{"a"}, b.Unbound())
}

func TestNullBinding(t *testing.T) {
	b := binder(t, "SELECT :a, :b, :c", nil)
	var np *int
	require.NoError(t, b.Set("a", nil))
	require.NoError(t, b.Set("b", np))
	require.NoError(t, b.Set("c", sql.NullString{}))

	resolved, err := b.Resolved()
	require.NoError(t, err)
	require.Len(t, resolved, 3)
	for _, a := range resolved {
		assert.Nil(t, a.Value, a.Name)
	}
	assert.Equal(t, schema.SQLNull, resolved[0].Type)
	assert.Equal(t, schema.SQLBigInt, resolved[1].Type)
	assert.Equal(t, schema.SQLVarchar, resolved[2].Type)
}

func TestValuerPassesThrough(t *testing.T) {
	b := binder(t, "SELECT :a", nil)
	v := sql.NullInt64{Int64: 3, Valid: true}
	require.NoError(t, b.Set("a", v))

	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{v}, args)
}

func TestPointerIsDereferenced(t *testing.T) {
	b := binder(t, "SELECT :a", nil)
	n := int32(9)
	require.NoError(t, b.Set("a", &n))

	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(9)}, args)
}

func TestEnumOrdinalByDefault(t *testing.T) {
	b := binder(t, "SELECT :mood", nil)
	require.NoError(t, b.Set("mood", Angry))

	resolved, err := b.Resolved()
	require.NoError(t, err)
	assert.Equal(t, int64(2), resolved[0].Value)
	assert.Equal(t, schema.SQLInteger, resolved[0].Type)
}

func TestEnumAsText(t *testing.T) {
	policy := NewInfo(WithEnumText(nil, "mood"))
	b := binder(t, "SELECT :mood", policy)
	require.NoError(t, b.Set("mood", Happy))

	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"happy"}, args)
}

func TestEnumTakesPrecedenceOverValuer(t *testing.T) {
	b := binder(t, "SELECT :level", nil)
	require.NoError(t, b.Set("level", High))
	resolved, err := b.Resolved()
	require.NoError(t, err)
	assert.Equal(t, int64(1), resolved[0].Value)
	assert.Equal(t, schema.SQLInteger, resolved[0].Type)

	b = binder(t, "SELECT :level", NewInfo(WithEnumText(nil, "level")))
	require.NoError(t, b.Set("level", High))
	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"high"}, args)
}

func TestEnumAsTextPerRecordType(t *testing.T) {
	policy := NewInfo(WithEnumText(reflect.TypeOf(Person{}), "mood"))

	b := binder(t, "INSERT INTO person (mood) VALUES (:mood)", policy)
	require.NoError(t, b.SetRecord(&Person{Mood: Happy}))
	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"happy"}, args)

	b = binder(t, "INSERT INTO person (mood) VALUES (:mood)", policy)
	require.NoError(t, b.Set("mood", Happy))
	args, err = b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, args)
}

func TestSQLTypeOverride(t *testing.T) {
	policy := NewInfo(
		WithSQLType(nil, "code", nil, schema.SQLVarchar),
		WithSQLType(reflect.TypeOf(Person{}), "id", reflect.TypeOf(int64(0)), schema.SQLVarchar),
	)
	b := binder(t, "SELECT :code, :id", policy)
	require.NoError(t, b.Set("code", 42))
	require.NoError(t, b.Set("id", int64(7)))

	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"42", int64(7)}, args)

	b = binder(t, "SELECT :code, :id", policy)
	require.NoError(t, b.Set("code", 1))
	require.NoError(t, b.SetRecord(Person{ID: 7}))
	args, err = b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "7"}, args)
}

func TestConversionFailure(t *testing.T) {
	policy := NewInfo(WithSQLType(nil, "n", nil, schema.SQLInteger))
	b := binder(t, "SELECT :n", policy)
	require.NoError(t, b.Set("n", "abc"))

	_, err := b.Args()
	assert.ErrorIs(t, err, ErrBinding)
	assert.ErrorIs(t, err, schema.ErrUnsupportedConversion)
}

func TestTransformer(t *testing.T) {
	var gotOwner any
	policy := NewInfo(WithTransformer("FirstName", func(owner any, name string, v any, q dialect.Quoter) (any, error) {
		gotOwner = owner
		return strings.ToUpper(v.(string)), nil
	}))
	b := binder(t, "SELECT :FirstName", policy)
	p := &Person{FirstName: "ada"}
	require.NoError(t, b.SetRecord(p))

	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"ADA"}, args)
	assert.Same(t, p, gotOwner)
}

func TestExpressionRejected(t *testing.T) {
	policy := NewInfo(WithTransformer("ts", func(any, string, any, dialect.Quoter) (any, error) {
		return Expression("CURRENT_TIMESTAMP"), nil
	}))
	b := binder(t, "SELECT :ts", policy)
	require.NoError(t, b.Set("ts", time.Now()))

	_, err := b.Args()
	assert.ErrorIs(t, err, ErrBinding)

	lit, err := policy.Literal(nil, "ts", time.Now(), mysql)
	require.NoError(t, err)
	assert.Equal(t, "CURRENT_TIMESTAMP", lit)
}

func TestLiteral(t *testing.T) {
	lit, err := Default.Literal(nil, "name", "O'Brien", mysql)
	require.NoError(t, err)
	assert.Equal(t, "'O''Brien'", lit)

	lit, err = Default.Literal(nil, "n", nil, mysql)
	require.NoError(t, err)
	assert.Equal(t, "NULL", lit)

	lit, err = NewInfo(EnumsAsText()).Literal(nil, "mood", Calm, mysql)
	require.NoError(t, err)
	assert.Equal(t, "'calm'", lit)
}

func TestSetMap(t *testing.T) {
	b := binder(t, "SELECT :a, :b", nil)
	require.NoError(t, b.SetMap(map[string]any{"a": 1, "extra": 2}))
	assert.Equal(t, []string{"b"}, b.Unbound())

	require.NoError(t, b.SetMap(map[string]string{"b": "x"}))
	args, err := b.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "x"}, args)

	assert.ErrorIs(t, b.SetMap(map[int]any{1: 1}), ErrBinding)
	assert.ErrorIs(t, b.SetMap(42), ErrBinding)
}

func TestSetRecord(t *testing.T) {
	b := binder(t, "SELECT :id, :first_name, :born, :nickname", nil)
	born := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, b.SetRecord(&Person{ID: 3, FirstName: "Ada", Born: born}))

	resolved, err := b.Resolved()
	require.NoError(t, err)
	assert.Equal(t, int64(3), resolved[0].Value)
	assert.Equal(t, "Ada", resolved[1].Value)
	assert.Equal(t, born, resolved[2].Value)
	assert.Equal(t, schema.SQLTimestamp, resolved[2].Type)
	assert.Nil(t, resolved[3].Value)

	assert.ErrorIs(t, b.SetRecord(42), ErrBinding)
}

func TestInfoIDsAreDistinct(t *testing.T) {
	assert.NotEqual(t, NewInfo().ID(), NewInfo().ID())
	assert.NotZero(t, Default.ID())
}

func TestInfoWith(t *testing.T) {
	base := NewInfo(EnumsAsText())
	ext := base.With(WithSQLType(nil, "n", nil, schema.SQLVarchar))

	assert.NotEqual(t, base.ID(), ext.ID())
	assert.Equal(t, base.Family(), ext.Family())
	assert.Equal(t, base.Family(), ext.With().Family())
	assert.NotEqual(t, base.Family(), NewInfo().Family())
	assert.True(t, ext.EnumAsText(nil, "mood"))
	_, ok := base.SQLType(nil, "n", nil)
	assert.False(t, ok)
	st, ok := ext.SQLType(nil, "n", reflect.TypeOf(0))
	require.True(t, ok)
	assert.Equal(t, schema.SQLVarchar, st)
}
