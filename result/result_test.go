package result

import (
	"context"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Konsultn-Engineering/namedsql/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Person struct {
	ID        int64 `db:"person_id"`
	FirstName string
	LastName  string
	Age       int
	Photo     []byte
}

func openCursor(t *testing.T, planner *Planner, rows *sqlmock.Rows) (*Cursor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT").WillReturnRows(rows).RowsWillBeClosed()
	r, err := database.NewSqlDatabase(db).QueryContext(context.Background(), "SELECT")
	require.NoError(t, err)

	c, err := NewCursor(r, planner, nil)
	require.NoError(t, err)
	return c, mock
}

func TestBeanifyUnderscoreToCamel(t *testing.T) {
	rows := sqlmock.NewRows([]string{"person_id", "first_name", "lastName", "AGE"}).
		AddRow(int64(1), "Ada", "Lovelace", int64(36))
	c, mock := openCursor(t, NewPlanner(), rows)

	b, err := Beanify[Person](c)
	require.NoError(t, err)
	p, ok, err := b.One()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Person{ID: 1, FirstName: "Ada", LastName: "Lovelace", Age: 36}, p)
	assert.Equal(t, "FirstName", b.Plan().Field(1))
	assert.True(t, c.Closed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeanifyPointerTarget(t *testing.T) {
	rows := sqlmock.NewRows([]string{"first_name"}).AddRow("Ada").AddRow("Grace")
	c, _ := openCursor(t, NewPlanner(), rows)

	b, err := Beanify[*Person](c)
	require.NoError(t, err)
	all, err := b.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Grace", all[1].FirstName)
}

func TestLenientSkipsUnknownColumns(t *testing.T) {
	rows := sqlmock.NewRows([]string{"first_name", "nickname"}).AddRow("Ada", "countess")
	c, _ := openCursor(t, NewPlanner(), rows)

	b, err := Beanify[Person](c)
	require.NoError(t, err)
	assert.Equal(t, "", b.Plan().Field(1))
	p, ok, err := b.One()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada", p.FirstName)
}

func TestStrictRejectsUnknownColumns(t *testing.T) {
	rows := sqlmock.NewRows([]string{"first_name", "nickname"}).AddRow("Ada", "countess")
	c, mock := openCursor(t, NewPlanner(WithStrict(true)), rows)

	_, err := Beanify[Person](c)
	require.ErrorIs(t, err, ErrMapping)
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "nickname", me.Column)
	assert.True(t, c.Closed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionFailure(t *testing.T) {
	rows := sqlmock.NewRows([]string{"age"}).AddRow("old")
	c, _ := openCursor(t, NewPlanner(), rows)

	b, err := Beanify[Person](c)
	require.NoError(t, err)
	_, _, err = b.One()
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "age", me.Column)
	assert.Equal(t, "Age", me.Field)
	assert.True(t, c.Closed())
}

func TestNullIntoNonNullableField(t *testing.T) {
	rows := sqlmock.NewRows([]string{"age"}).AddRow(nil)
	c, _ := openCursor(t, NewPlanner(), rows)

	b, err := Beanify[Person](c)
	require.NoError(t, err)
	_, _, err = b.One()
	assert.ErrorIs(t, err, ErrMapping)
}

func TestBytesAreCopied(t *testing.T) {
	photo := []byte{1, 2, 3}
	rows := sqlmock.NewRows([]string{"photo"}).AddRow(photo)
	c, _ := openCursor(t, NewPlanner(), rows)

	b, err := Beanify[Person](c)
	require.NoError(t, err)
	p, _, err := b.One()
	require.NoError(t, err)
	photo[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, p.Photo)
}

func TestMappify(t *testing.T) {
	rows := sqlmock.NewRows([]string{"first_name", "AGE", "first_name"}).
		AddRow("Ada", int64(36), "x")
	c, _ := openCursor(t, NewPlanner(WithStrict(true)), rows)

	m, err := Mappify(c)
	require.NoError(t, err)
	r, ok, err := m.One()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{"first_name", "AGE", "first_name"}, r.Keys())
	assert.Equal(t, 3, r.Len())
	v, ok := r.Get("first_name")
	require.True(t, ok)
	assert.Equal(t, "Ada", v)
	assert.Equal(t, "x", r.Index(2))
	_, ok = r.Get("age")
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"first_name": "Ada", "AGE": int64(36)}, r.Map())
}

func TestPlanReuseAndReplace(t *testing.T) {
	planner := NewPlanner()

	for i := 0; i < 3; i++ {
		rows := sqlmock.NewRows([]string{"first_name"}).AddRow("Ada")
		c, _ := openCursor(t, planner, rows)
		b, err := Beanify[Person](c)
		require.NoError(t, err)
		_, _, err = b.One()
		require.NoError(t, err)
	}
	assert.Equal(t, 1, planner.Cache().Builds())

	rows := sqlmock.NewRows([]string{"first_name", "age"}).AddRow("Ada", int64(3))
	c, _ := openCursor(t, planner, rows)
	b, err := Beanify[Person](c)
	require.NoError(t, err)
	p, _, err := b.One()
	require.NoError(t, err)
	assert.Equal(t, 3, p.Age)

	assert.Equal(t, 2, planner.Cache().Builds())
	assert.Equal(t, 1, planner.Cache().Len())
	sig, ok := planner.Cache().Signature(PlanKey{Type: reflect.TypeOf(Person{})})
	require.True(t, ok)
	assert.Equal(t, "first_name\x1fage", sig)
}

func TestFirstN(t *testing.T) {
	rows := sqlmock.NewRows([]string{"first_name"}).AddRow("a").AddRow("b").AddRow("c")
	c, mock := openCursor(t, NewPlanner(), rows)

	b, err := Beanify[Person](c)
	require.NoError(t, err)
	got, err := b.First(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIterIsLazyAndCloses(t *testing.T) {
	rows := sqlmock.NewRows([]string{"first_name"}).AddRow("a").AddRow("b").AddRow("c")
	c, mock := openCursor(t, NewPlanner(), rows)

	b, err := Beanify[Person](c)
	require.NoError(t, err)

	var seen []string
	for p, err := range b.Iter() {
		require.NoError(t, err)
		seen = append(seen, p.FirstName)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.True(t, c.Closed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIterYieldsError(t *testing.T) {
	rows := sqlmock.NewRows([]string{"age"}).AddRow(int64(1)).AddRow("bad")
	c, _ := openCursor(t, NewPlanner(), rows)

	b, err := Beanify[Person](c)
	require.NoError(t, err)

	var ages []int
	var last error
	for p, err := range b.Iter() {
		if err != nil {
			last = err
			continue
		}
		ages = append(ages, p.Age)
	}
	assert.Equal(t, []int{1}, ages)
	assert.ErrorIs(t, last, ErrMapping)
	assert.True(t, c.Closed())
}

func TestScalar(t *testing.T) {
	rows := sqlmock.NewRows([]string{"count"}).AddRow(int64(42))
	c, _ := openCursor(t, NewPlanner(), rows)

	n, ok, err := Scalar[int](c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, n)

	rows = sqlmock.NewRows([]string{"count"})
	c, _ = openCursor(t, NewPlanner(), rows)
	_, ok, err = Scalar[int](c)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFirstColumn(t *testing.T) {
	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "a").AddRow(int64(2), "b")
	c, _ := openCursor(t, NewPlanner(), rows)

	ids, err := FirstColumn[string](c)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestPlannerRejectsUnsupportedTarget(t *testing.T) {
	_, err := NewPlanner().buildStruct([]string{"a"}, reflect.TypeOf(0))
	assert.ErrorIs(t, err, ErrMapping)

	_, err = NewPlanner().PlanScalar(nil, reflect.TypeOf(0))
	assert.ErrorIs(t, err, ErrMapping)
}
