package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/logical"
	"github.com/satishbabariya/sqlbridge/query/parser"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

func emit(t *testing.T, sql string, dbType query.DatabaseType) string {
	t.Helper()
	plan, err := parser.Parse(sql)
	require.NoError(t, err)
	out, err := EmitSQL(plan, dbType)
	require.NoError(t, err)
	return out
}

func TestEmitSimpleSelect(t *testing.T) {
	got := emit(t, "SELECT id, name FROM users", query.MySQL)
	assert.Equal(t, "SELECT `id`, `name` FROM `users`", got)

	got = emit(t, "SELECT id, name FROM users", query.PostgreSQL)
	assert.Equal(t, `SELECT "id", "name" FROM "users"`, got)

	got = emit(t, "SELECT id, name FROM users", query.MsSQL)
	assert.Equal(t, "SELECT [id], [name] FROM [users]", got)
}

func TestEmitQualifiedColumnsAndAliases(t *testing.T) {
	got := emit(t, "SELECT u.name AS n FROM users u", query.MySQL)
	assert.Equal(t, "SELECT `u`.`name` AS `n` FROM `users` `u`", got)
}

func TestEmitWhereGroupHavingOrder(t *testing.T) {
	got := emit(t,
		"SELECT dept, COUNT(*) AS c FROM emp WHERE active = TRUE GROUP BY dept HAVING COUNT(*) > 5 ORDER BY c DESC",
		query.PostgreSQL)
	assert.Equal(t,
		`SELECT "dept", COUNT(*) AS "c" FROM "emp" WHERE "active" = TRUE GROUP BY "dept" HAVING COUNT(*) > 5 ORDER BY "c" DESC`,
		got)
}

func TestEmitBooleanPerDialect(t *testing.T) {
	got := emit(t, "SELECT id FROM t WHERE active = TRUE", query.MsSQL)
	assert.Equal(t, "SELECT [id] FROM [t] WHERE [active] = 1", got)

	got = emit(t, "SELECT id FROM t WHERE active = FALSE", query.MySQL)
	assert.Equal(t, "SELECT `id` FROM `t` WHERE `active` = FALSE", got)
}

func TestEmitLimitOffset(t *testing.T) {
	got := emit(t, "SELECT id FROM t LIMIT 10 OFFSET 20", query.MySQL)
	assert.Equal(t, "SELECT `id` FROM `t` LIMIT 10 OFFSET 20", got)

	got = emit(t, "SELECT id FROM t LIMIT 10", query.SQLite)
	assert.Equal(t, "SELECT `id` FROM `t` LIMIT 10", got)
}

func TestEmitMsSQLTop(t *testing.T) {
	got := emit(t, "SELECT id FROM t LIMIT 10", query.MsSQL)
	assert.Equal(t, "SELECT TOP 10 [id] FROM [t]", got)

	got = emit(t, "SELECT DISTINCT id FROM t LIMIT 10", query.MsSQL)
	assert.Equal(t, "SELECT TOP 10 DISTINCT [id] FROM [t]", got)

	got = emit(t, "SELECT id FROM t ORDER BY id LIMIT 10 OFFSET 20", query.MsSQL)
	assert.Equal(t, "SELECT [id] FROM [t] ORDER BY [id] ASC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY", got)
}

func TestEmitJoin(t *testing.T) {
	got := emit(t, "SELECT u.id FROM users u LEFT JOIN orders o ON u.id = o.uid", query.MySQL)
	assert.Equal(t,
		"SELECT `u`.`id` FROM `users` `u` LEFT JOIN `orders` `o` ON `u`.`id` = `o`.`uid`",
		got)
}

func TestEmitFullJoinUnsupported(t *testing.T) {
	plan, err := parser.Parse("SELECT * FROM a FULL JOIN b ON a.x = b.x")
	require.NoError(t, err)

	_, err = EmitSQL(plan, query.MySQL)
	assert.ErrorIs(t, err, qerr.ErrUnsupported)
	_, err = EmitSQL(plan, query.SQLite)
	assert.ErrorIs(t, err, qerr.ErrUnsupported)

	got, err := EmitSQL(plan, query.PostgreSQL)
	require.NoError(t, err)
	assert.Contains(t, got, "FULL JOIN")
}

func TestEmitJoinSubqueryRight(t *testing.T) {
	got := emit(t, "SELECT u.id FROM users u JOIN (SELECT uid FROM orders) o ON u.id = o.uid",
		query.MySQL)
	assert.Equal(t,
		"SELECT `u`.`id` FROM `users` `u` INNER JOIN (SELECT uid FROM orders) `o` ON `u`.`id` = `o`.`uid`",
		got)
}

func TestEmitDerivedTable(t *testing.T) {
	got := emit(t, "SELECT x FROM (SELECT id AS x FROM users) t", query.PostgreSQL)
	assert.Equal(t, `SELECT "x" FROM (SELECT id AS x FROM users) "t"`, got)
}

func TestEmitWith(t *testing.T) {
	got := emit(t, "WITH recent AS (SELECT * FROM orders) SELECT * FROM recent JOIN recent r ON recent.id = r.id",
		query.PostgreSQL)
	assert.Equal(t,
		`WITH "recent" AS (SELECT * FROM orders) SELECT * FROM "recent" INNER JOIN "recent" "r" ON "recent"."id" = "r"."id"`,
		got)
}

func TestEmitWithUnsupported(t *testing.T) {
	plan := &logical.With{
		CTEs:  []logical.CTE{{Name: "c", SQL: "SELECT 1"}},
		Input: &logical.TableScan{Table: "c"},
	}
	_, err := EmitSQL(plan, query.Redis)
	assert.ErrorIs(t, err, qerr.ErrUnsupported)
}

func TestEmitUnion(t *testing.T) {
	got := emit(t, "SELECT id FROM a UNION ALL SELECT id FROM b", query.MySQL)
	assert.Equal(t, "(SELECT `id` FROM `a`) UNION ALL (SELECT `id` FROM `b`)", got)

	got = emit(t, "SELECT id FROM a UNION SELECT id FROM b", query.PostgreSQL)
	assert.Equal(t, `(SELECT "id" FROM "a") UNION (SELECT "id" FROM "b")`, got)
}

func TestEmitLimitAboveUnion(t *testing.T) {
	plan, err := parser.Parse("SELECT id FROM a UNION SELECT id FROM b")
	require.NoError(t, err)
	var wrapped logical.Plan = &logical.Limit{Limit: 100, Input: plan}

	got, err := EmitSQL(wrapped, query.MySQL)
	require.NoError(t, err)
	assert.Equal(t, "(SELECT `id` FROM `a`) UNION (SELECT `id` FROM `b`) LIMIT 100", got)
}

func TestEmitWindowFunction(t *testing.T) {
	src := "SELECT ROW_NUMBER() OVER (PARTITION BY dept ORDER BY salary DESC) AS rn FROM emp"
	got := emit(t, src, query.PostgreSQL)
	assert.Equal(t,
		`SELECT ROW_NUMBER() OVER (PARTITION BY "dept" ORDER BY "salary" DESC) AS "rn" FROM "emp"`,
		got)

	// SQLite ships window functions since 3.25.
	got = emit(t, src, query.SQLite)
	assert.Contains(t, got, "OVER (PARTITION BY")

	plan, err := parser.Parse(src)
	require.NoError(t, err)
	_, err = EmitSQL(plan, query.MongoDB)
	assert.ErrorIs(t, err, qerr.ErrUnsupported)
}

func TestEmitExpressionForms(t *testing.T) {
	got := emit(t,
		"SELECT CASE WHEN x IS NULL THEN 'none' ELSE 'some' END FROM t WHERE name NOT LIKE 'a%' AND id IN (1, 2)",
		query.MySQL)
	assert.Equal(t,
		"SELECT CASE WHEN `x` IS NULL THEN 'none' ELSE 'some' END FROM `t` WHERE `name` NOT LIKE 'a%' AND `id` IN (1, 2)",
		got)
}

func TestEmitStringEscaping(t *testing.T) {
	got := emit(t, "SELECT id FROM t WHERE name = 'it''s'", query.MySQL)
	assert.Equal(t, "SELECT `id` FROM `t` WHERE `name` = 'it''s'", got)
}

func TestEmitRegexBinaryOp(t *testing.T) {
	plan, err := parser.Parse("SELECT id FROM t WHERE name ~ '^a'")
	require.NoError(t, err)

	got, err := EmitSQL(plan, query.PostgreSQL)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "t" WHERE "name" ~ '^a'`, got)

	got, err = EmitSQL(plan, query.MySQL)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `id` FROM `t` WHERE `name` REGEXP '^a'", got)

	_, err = EmitSQL(plan, query.SQLite)
	assert.ErrorIs(t, err, qerr.ErrUnsupported)
}

func TestEmitDeterministic(t *testing.T) {
	plan, err := parser.Parse("SELECT a, b FROM t WHERE a > 1 ORDER BY b LIMIT 5")
	require.NoError(t, err)

	first, err := EmitSQL(plan, query.PostgreSQL)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := EmitSQL(plan, query.PostgreSQL)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
