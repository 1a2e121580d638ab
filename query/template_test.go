package query

import (
	"errors"
	"testing"

	"github.com/Konsultn-Engineering/namedsql/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRender(t *testing.T) {
	tpl, err := NewTemplate("SELECT * FROM ~%table% WHERE name = ~%name% ~%order%", dialect.NewPostgresDialect())
	require.NoError(t, err)
	assert.Equal(t, []string{"table", "name", "order"}, tpl.Vars())

	require.NoError(t, tpl.SetIdentifier("table", "person"))
	require.NoError(t, tpl.SetValue("name", "O'Brien"))
	require.NoError(t, tpl.SetOrderBy("order", "last_name", true))

	sql, err := tpl.Render()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "person" WHERE name = 'O''Brien' ORDER BY "last_name" DESC`, sql)
}

func TestTemplateUnsetVariable(t *testing.T) {
	tpl, err := NewTemplate("SELECT ~%cols% FROM t", dialect.NewMySQLDialect())
	require.NoError(t, err)

	_, err = tpl.Render()
	assert.True(t, errors.Is(err, ErrParse))

	require.NoError(t, tpl.Set("cols", "a, b"))
	sql, err := tpl.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a, b FROM t", sql)

	tpl.Reset()
	_, err = tpl.Render()
	assert.Error(t, err)
}

func TestTemplateErrors(t *testing.T) {
	_, err := NewTemplate("SELECT ~%oops FROM t", nil)
	assert.True(t, errors.Is(err, ErrParse))

	_, err = NewTemplate("SELECT ~%1x% FROM t", nil)
	assert.True(t, errors.Is(err, ErrParse))

	tpl, err := NewTemplate("SELECT 1", nil)
	require.NoError(t, err)
	assert.True(t, errors.Is(tpl.Set("x", "y"), ErrNoSuchVariable))
}

func TestTemplateKeepsNamedParameters(t *testing.T) {
	tpl, err := NewTemplate("SELECT * FROM ~%t% WHERE id = :id", dialect.NewPostgresDialect())
	require.NoError(t, err)
	require.NoError(t, tpl.Set("t", "person"))

	sql, err := tpl.Render()
	require.NoError(t, err)

	info, err := Parse(sql, dialect.NewPostgresDialect())
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM person WHERE id = $1", info.Normalized())
}
