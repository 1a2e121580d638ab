package schema

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =========================================================================
// Test Data Structures
// =========================================================================

type Audit struct {
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

type Base struct {
	ID   int64 `db:"id;primary"`
	Note string
}

type Account struct {
	Base
	*Audit
	FirstName string
	LastName  string `db:"surname"`
	Secret    string `db:"-"`
	Balance   float64
	Status    string `db:"status;type:varchar(16)"`
	Deleted   *time.Time
	internal  int
}

type Token struct {
	Key   uuid.UUID `db:"key;primary;generator:uuid"`
	Value string
}

type Legacy struct {
	ID int64
}

func (Legacy) TableName() string { return "tbl_legacy" }

type BlogPost struct {
	ID int64
}

type Color int

const (
	Red Color = iota
	Green
	Blue
)

func (c Color) String() string {
	return [...]string{"red", "green", "blue"}[c]
}

var colors = RegisterEnum(Red, Green, Blue)

// =========================================================================
// Naming
// =========================================================================

func TestNaming(t *testing.T) {
	tests := []struct {
		in, snake, camel string
	}{
		{"FirstName", "first_name", "firstName"},
		{"UserID", "user_id", "userId"},
		{"HTTPServer", "http_server", "httpServer"},
		{"first_name", "first_name", "firstName"},
		{"ID", "id", "id"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.snake, ToSnakeCase(tt.in))
			assert.Equal(t, tt.camel, ToCamelCase(tt.in))
		})
	}
}

func TestTableNaming(t *testing.T) {
	def := DefaultNamingStrategy()
	assert.Equal(t, "blog_posts", def.TableName("BlogPost"))
	assert.Equal(t, "people", def.TableName("Person"))
	assert.Equal(t, "blog_post", SingularNamingStrategy().TableName("BlogPost"))
	assert.Equal(t, "BlogPost", NewTableNamingStrategy(TablePascalCaseSingular).TableName("BlogPost"))
	assert.Equal(t, "firstName", NewColumnNamingStrategy(ColumnCamelCase).ColumnName("FirstName"))
}

func TestLooseMapper(t *testing.T) {
	m := LooseMapper{}
	want := m.Key("FirstName")
	for _, label := range []string{"first_name", "firstName", "FIRST-NAME", "first name"} {
		assert.Equal(t, want, m.Key(label), label)
	}
	assert.NotEqual(t, ExactMapper{}.Key("first_name"), ExactMapper{}.Key("FirstName"))
	assert.Equal(t, SnakeMapper{}.Key("first_name"), SnakeMapper{}.Key("FirstName"))
}

// =========================================================================
// Tags
// =========================================================================

func TestParseTag(t *testing.T) {
	p := NewTagParser(NewColumnNamingStrategy(ColumnSnakeCase))

	tag, err := p.ParseTag("Key", `db:"key;primary;generator:uuid"`)
	require.NoError(t, err)
	assert.Equal(t, "key", tag.ColumnName)
	assert.True(t, tag.Explicit)
	assert.True(t, tag.Primary)
	assert.Equal(t, "uuid", tag.Generator)
	assert.NotNil(t, tag.GetGenerator())

	tag, err = p.ParseTag("CreatedAt", `db:"readonly"`)
	require.NoError(t, err)
	assert.Equal(t, "created_at", tag.ColumnName)
	assert.False(t, tag.Explicit)
	assert.True(t, tag.ReadOnly)

	tag, err = p.ParseTag("ID", `db:"auto"`)
	require.NoError(t, err)
	assert.True(t, tag.Primary)
	assert.True(t, tag.ReadOnly)

	tag, err = p.ParseTag("Name", `db:"column:full_name;type:text"`)
	require.NoError(t, err)
	assert.Equal(t, "full_name", tag.ColumnName)
	assert.Equal(t, "text", tag.Type)

	tag, err = p.ParseTag("Secret", `db:"-"`)
	require.NoError(t, err)
	assert.True(t, tag.IsSkipped())

	_, err = p.ParseTag("ID", `db:"id;generator:nope"`)
	assert.Error(t, err)
}

// =========================================================================
// Introspection
// =========================================================================

func TestIntrospect(t *testing.T) {
	meta, err := Introspect(reflect.TypeOf(&Account{}))
	require.NoError(t, err)

	assert.Equal(t, "accounts", meta.TableName)

	var columns []string
	for _, f := range meta.Fields {
		columns = append(columns, f.Column)
	}
	assert.Equal(t, []string{
		"first_name", "surname", "balance", "status", "deleted",
		"id", "note", "created_by", "created_at",
	}, columns)

	assert.NotContains(t, meta.FieldMap, "Secret")
	assert.NotContains(t, meta.FieldMap, "internal")
	assert.True(t, meta.FieldMap["ID"].Tag.Primary)
	assert.Equal(t, []int{0, 0}, meta.FieldMap["ID"].Index)
	assert.Equal(t, SQLVarchar, meta.FieldMap["Status"].SQLType)

	again, err := Introspect(reflect.TypeOf(Account{}))
	require.NoError(t, err)
	assert.Same(t, meta, again)
}

func TestIntrospectRejectsNonStruct(t *testing.T) {
	_, err := Introspect(reflect.TypeOf(42))
	assert.Error(t, err)
}

func TestIntrospectTableNames(t *testing.T) {
	meta, err := Introspect(reflect.TypeOf(Legacy{}))
	require.NoError(t, err)
	assert.Equal(t, "tbl_legacy", meta.TableName)

	meta, err = New(WithNamingStrategy(SingularNamingStrategy())).Introspect(reflect.TypeOf(BlogPost{}))
	require.NoError(t, err)
	assert.Equal(t, "blog_post", meta.TableName)
}

func TestIntrospectGenerator(t *testing.T) {
	meta, err := Introspect(reflect.TypeOf(Token{}))
	require.NoError(t, err)

	f := meta.FieldMap["Key"]
	require.NotNil(t, f.Generator)
	id, err := f.Generator.Generate()
	require.NoError(t, err)
	assert.IsType(t, uuid.UUID{}, id)
}

func TestEntityMetaField(t *testing.T) {
	meta, err := Introspect(reflect.TypeOf(Account{}))
	require.NoError(t, err)

	for _, name := range []string{"FirstName", "first_name", "firstName"} {
		f, ok := meta.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, "FirstName", f.Name)
	}
	f, ok := meta.Field("surname")
	require.True(t, ok)
	assert.Equal(t, "LastName", f.Name)

	_, ok = meta.Field("Secret")
	assert.False(t, ok)
}

func TestFieldSetGet(t *testing.T) {
	meta, err := Introspect(reflect.TypeOf(Account{}))
	require.NoError(t, err)

	var a Account
	v := reflect.ValueOf(&a).Elem()

	assert.Nil(t, meta.FieldMap["CreatedBy"].Get(v))
	assert.True(t, meta.FieldMap["CreatedBy"].IsZero(v))

	require.NoError(t, meta.FieldMap["CreatedBy"].Set(v, []byte("root")))
	require.NotNil(t, a.Audit)
	assert.Equal(t, "root", a.CreatedBy)
	assert.Equal(t, "root", meta.FieldMap["CreatedBy"].Get(v))

	require.NoError(t, meta.FieldMap["ID"].Set(v, "17"))
	assert.Equal(t, int64(17), a.ID)

	require.NoError(t, meta.FieldMap["Balance"].Set(v, int64(3)))
	assert.Equal(t, 3.0, a.Balance)

	require.NoError(t, meta.FieldMap["Deleted"].Set(v, nil))
	assert.Nil(t, a.Deleted)

	err = meta.FieldMap["ID"].Set(v, nil)
	assert.ErrorIs(t, err, ErrUnsupportedConversion)
	assert.Equal(t, int64(17), a.ID)
}

// =========================================================================
// Conversion
// =========================================================================

func TestConvert(t *testing.T) {
	n, err := Convert[int32]("42")
	require.NoError(t, err)
	assert.Equal(t, int32(42), n)

	_, err = Convert[int8](int64(300))
	assert.ErrorIs(t, err, ErrUnsupportedConversion)

	_, err = Convert[uint](int64(-1))
	assert.ErrorIs(t, err, ErrUnsupportedConversion)

	_, err = Convert[int]("abc")
	assert.ErrorIs(t, err, ErrUnsupportedConversion)

	b, err := Convert[bool]([]byte("true"))
	require.NoError(t, err)
	assert.True(t, b)

	s, err := Convert[string](int64(7))
	require.NoError(t, err)
	assert.Equal(t, "7", s)

	f, err := Convert[float64]("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	tm, err := Convert[time.Time]("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), tm)

	tags, err := Convert[[]string](`["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	m, err := Convert[map[string]int](nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	p, err := Convert[*int64](int64(5))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(5), *p)

	var anyv any
	anyv, err = Convert[any]("x")
	require.NoError(t, err)
	assert.Equal(t, "x", anyv)
}

func TestConvertBytesDoNotAlias(t *testing.T) {
	src := []byte("abc")
	out, err := Convert[[]byte](src)
	require.NoError(t, err)
	src[0] = 'z'
	assert.Equal(t, []byte("abc"), out)
}

func TestConvertScanner(t *testing.T) {
	id := uuid.New()
	got, err := Convert[uuid.UUID](id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = Convert[uuid.UUID](id)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	ns, err := Convert[sql.NullString](nil)
	require.NoError(t, err)
	assert.False(t, ns.Valid)
}

func TestEnum(t *testing.T) {
	c, err := Convert[Color]("green")
	require.NoError(t, err)
	assert.Equal(t, Green, c)

	c, err = Convert[Color]("BLUE")
	require.NoError(t, err)
	assert.Equal(t, Blue, c)

	c, err = Convert[Color](int64(0))
	require.NoError(t, err)
	assert.Equal(t, Red, c)

	_, err = Convert[Color](int64(5))
	assert.ErrorIs(t, err, ErrUnsupportedConversion)

	_, err = Convert[Color]("purple")
	assert.ErrorIs(t, err, ErrUnsupportedConversion)

	i, err := colors.Ordinal(Blue)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	s, err := colors.Text(Green)
	require.NoError(t, err)
	assert.Equal(t, "green", s)

	e, ok := LookupEnum(reflect.TypeOf(Red))
	require.True(t, ok)
	assert.Same(t, colors, e)
}

// =========================================================================
// SQL types
// =========================================================================

func TestParseSQLType(t *testing.T) {
	st, err := ParseSQLType("varchar(255)")
	require.NoError(t, err)
	assert.Equal(t, SQLVarchar, st)

	st, err = ParseSQLType(" double precision ")
	require.NoError(t, err)
	assert.Equal(t, SQLDouble, st)

	_, err = ParseSQLType("geometry")
	assert.Error(t, err)
	assert.Equal(t, "TIMESTAMP", SQLTimestamp.String())
}

func TestInferSQLType(t *testing.T) {
	var np *int
	tests := []struct {
		typ  reflect.Type
		want SQLType
	}{
		{nil, SQLNull},
		{reflect.TypeOf(""), SQLVarchar},
		{reflect.TypeOf(int64(0)), SQLBigInt},
		{reflect.TypeOf(np), SQLBigInt},
		{reflect.TypeOf(true), SQLBoolean},
		{reflect.TypeOf(time.Time{}), SQLTimestamp},
		{reflect.TypeOf(uuid.UUID{}), SQLUUID},
		{reflect.TypeOf([]byte(nil)), SQLBinary},
		{reflect.TypeOf(map[string]any{}), SQLJSON},
		{reflect.TypeOf(Red), SQLInteger},
		{reflect.TypeOf(sql.NullString{}), SQLVarchar},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferSQLType(tt.typ), "%v", tt.typ)
	}
}

func TestCoerce(t *testing.T) {
	v, err := Coerce("12", SQLInteger)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	v, err = Coerce(Green, SQLVarchar)
	require.NoError(t, err)
	assert.Equal(t, "green", v)

	v, err = Coerce(map[string]int{"a": 1}, SQLJSON)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)

	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	v, err = Coerce(ts, SQLDate)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), v)

	id := uuid.New()
	v, err = Coerce(id, SQLUUID)
	require.NoError(t, err)
	assert.Equal(t, id.String(), v)

	v, err = Coerce(nil, SQLInteger)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = Coerce("x", SQLBoolean)
	assert.ErrorIs(t, err, ErrUnsupportedConversion)
}
