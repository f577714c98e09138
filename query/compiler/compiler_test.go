package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/cache"
	"github.com/satishbabariya/sqlbridge/query/qerr"
	"github.com/satishbabariya/sqlbridge/query/rewrite"
)

func newTestCompiler() *Compiler {
	return New(cache.New(32), Options{})
}

func TestCompileSimpleSelect(t *testing.T) {
	c := newTestCompiler()

	res, err := c.Compile("SELECT id, name FROM users", query.MySQL, nil, true)
	require.NoError(t, err)

	assert.Equal(t, "SELECT `id`, `name` FROM `users` LIMIT 1000", res.SQL)
	assert.Equal(t, []string{"id", "name"}, res.Headers)
	assert.Contains(t, res.Diagnostics.AppliedRules, "auto_limit")
	assert.False(t, res.Diagnostics.CacheHit)
	assert.NotZero(t, res.Diagnostics.StructuralHash)
	assert.NotEmpty(t, res.Diagnostics.PlanDump)
}

func TestCompileHeaderInference(t *testing.T) {
	c := newTestCompiler()

	res, err := c.Compile("SELECT id, name AS n, COUNT(*) FROM t GROUP BY id", query.PostgreSQL, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "n", "count"}, res.Headers)

	res, err = c.Compile("SELECT u.created_at, 42, 'x', price * 2 FROM u", query.PostgreSQL, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"created_at", "42", "literal", "expr"}, res.Headers)
}

func TestCompileStarHasNoHeaders(t *testing.T) {
	c := newTestCompiler()

	res, err := c.Compile("SELECT * FROM users", query.SQLite, nil, false)
	require.NoError(t, err)
	assert.Empty(t, res.Headers)

	// A wildcard mixed with named columns still defeats inference.
	res, err = c.Compile("SELECT id, * FROM users", query.SQLite, nil, false)
	require.NoError(t, err)
	assert.Empty(t, res.Headers)
}

func TestCompileCacheHit(t *testing.T) {
	c := newTestCompiler()

	first, err := c.Compile("SELECT id FROM users", query.MySQL, nil, true)
	require.NoError(t, err)
	require.False(t, first.Diagnostics.CacheHit)

	second, err := c.Compile("SELECT id FROM users", query.MySQL, nil, true)
	require.NoError(t, err)
	assert.True(t, second.Diagnostics.CacheHit)
	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, first.Headers, second.Headers)
	assert.Equal(t, first.Diagnostics.StructuralHash, second.Diagnostics.StructuralHash)
}

func TestCompileRawKeyIgnoresWhitespaceAndCase(t *testing.T) {
	c := newTestCompiler()

	first, err := c.Compile("SELECT id FROM users", query.MySQL, nil, true)
	require.NoError(t, err)

	second, err := c.Compile("select   id\nfrom USERS", query.MySQL, nil, true)
	require.NoError(t, err)
	assert.True(t, second.Diagnostics.CacheHit)
	assert.Equal(t, first.SQL, second.SQL)
}

func TestCompileCacheKeyedByDatabaseType(t *testing.T) {
	c := newTestCompiler()

	my, err := c.Compile("SELECT id FROM users", query.MySQL, nil, false)
	require.NoError(t, err)
	pg, err := c.Compile("SELECT id FROM users", query.PostgreSQL, nil, false)
	require.NoError(t, err)

	assert.False(t, pg.Diagnostics.CacheHit)
	assert.NotEqual(t, my.SQL, pg.SQL)
}

func TestCompilePagination(t *testing.T) {
	c := newTestCompiler()

	res, err := c.Compile("SELECT id FROM users", query.MySQL, &rewrite.Pagination{Page: 1, PageSize: 50}, false)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `id` FROM `users` LIMIT 50 OFFSET 50", res.SQL)
	assert.Contains(t, res.Diagnostics.AppliedRules, "pagination_limit")
}

func TestCompileWithoutCache(t *testing.T) {
	c := New(nil, Options{})

	first, err := c.Compile("SELECT id FROM users", query.MySQL, nil, true)
	require.NoError(t, err)
	second, err := c.Compile("SELECT id FROM users", query.MySQL, nil, true)
	require.NoError(t, err)

	assert.False(t, second.Diagnostics.CacheHit)
	assert.Equal(t, first.SQL, second.SQL)
}

func TestCompileErrors(t *testing.T) {
	c := newTestCompiler()

	_, err := c.Compile("DELETE FROM users", query.MySQL, nil, false)
	assert.ErrorIs(t, err, qerr.ErrParse)

	_, err = c.Compile("WITH unused AS (SELECT 1) SELECT id FROM t", query.MySQL, nil, false)
	assert.ErrorIs(t, err, qerr.ErrSemantic)

	_, err = c.Compile("SELECT a FROM t FULL JOIN u ON t.id = u.id", query.MySQL, nil, false)
	assert.ErrorIs(t, err, qerr.ErrUnsupported)
}

func TestCompileResidualCTEs(t *testing.T) {
	c := newTestCompiler()

	// b is single-use and gets inlined; a stays because b's body refers to it.
	res, err := c.Compile(
		"WITH a AS (SELECT id FROM t), b AS (SELECT id FROM a) SELECT * FROM a JOIN b ON a.id = b.id",
		query.PostgreSQL, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Diagnostics.ResidualCTEs)
	assert.Contains(t, res.Diagnostics.AppliedRules, "inline_single_use_cte")
}
