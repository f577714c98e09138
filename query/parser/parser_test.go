package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlbridge/query/logical"
)

func TestParseSimpleSelect(t *testing.T) {
	plan, err := Parse("SELECT id, name FROM users")
	require.NoError(t, err)

	proj, ok := plan.(*logical.Projection)
	require.True(t, ok, "expected Projection root, got %T", plan)
	require.Len(t, proj.Exprs, 2)

	col, ok := proj.Exprs[0].(*logical.Column)
	require.True(t, ok)
	assert.Equal(t, "id", col.Name)

	scan, ok := proj.Input.(*logical.TableScan)
	require.True(t, ok)
	assert.Equal(t, "users", scan.Table)
	assert.Empty(t, scan.Alias)
}

func TestParseStarProjection(t *testing.T) {
	plan, err := Parse("SELECT * FROM orders")
	require.NoError(t, err)

	proj := plan.(*logical.Projection)
	require.Len(t, proj.Exprs, 1)
	assert.IsType(t, &logical.Star{}, proj.Exprs[0])
}

func TestParseAliases(t *testing.T) {
	plan, err := Parse("SELECT name AS n, email addr FROM users u")
	require.NoError(t, err)

	proj := plan.(*logical.Projection)
	require.Len(t, proj.Exprs, 2)

	a0 := proj.Exprs[0].(*logical.Alias)
	assert.Equal(t, "n", a0.Name)
	a1 := proj.Exprs[1].(*logical.Alias)
	assert.Equal(t, "addr", a1.Name)

	scan := proj.Input.(*logical.TableScan)
	assert.Equal(t, "u", scan.Alias)
}

func TestParseQuotedIdentifiers(t *testing.T) {
	for _, src := range []string{
		`SELECT "order id" FROM "my table"`,
		"SELECT `order id` FROM `my table`",
		`SELECT [order id] FROM [my table]`,
	} {
		plan, err := Parse(src)
		require.NoError(t, err, src)

		proj := plan.(*logical.Projection)
		col := proj.Exprs[0].(*logical.Column)
		assert.Equal(t, "order id", col.Name, src)
		scan := proj.Input.(*logical.TableScan)
		assert.Equal(t, "my table", scan.Table, src)
	}
}

func TestParseWhereOperatorPrecedence(t *testing.T) {
	plan, err := Parse("SELECT id FROM t WHERE a = 1 OR b = 2 AND c = 3")
	require.NoError(t, err)

	proj := plan.(*logical.Projection)
	filter := proj.Input.(*logical.Filter)

	// OR binds loosest: a=1 OR (b=2 AND c=3).
	or := filter.Predicate.(*logical.BinaryOp)
	require.Equal(t, "OR", or.Op)
	and := or.Right.(*logical.BinaryOp)
	assert.Equal(t, "AND", and.Op)
}

func TestParseComparisonVariants(t *testing.T) {
	plan, err := Parse("SELECT id FROM t WHERE name LIKE 'a%' AND x NOT IN (1, 2) AND y IS NOT NULL AND NOT z")
	require.NoError(t, err)

	filter := plan.(*logical.Projection).Input.(*logical.Filter)

	var likes, ins, isNulls, nots int
	var walk func(e logical.Expr)
	walk = func(e logical.Expr) {
		switch v := e.(type) {
		case *logical.BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case *logical.Like:
			likes++
			assert.False(t, v.Negated)
		case *logical.InList:
			ins++
			assert.True(t, v.Negated)
			assert.Len(t, v.List, 2)
		case *logical.IsNull:
			isNulls++
			assert.True(t, v.Negated)
		case *logical.Not:
			nots++
		}
	}
	walk(filter.Predicate)
	assert.Equal(t, 1, likes)
	assert.Equal(t, 1, ins)
	assert.Equal(t, 1, isNulls)
	assert.Equal(t, 1, nots)
}

func TestParseSingleJoin(t *testing.T) {
	plan, err := Parse("SELECT u.id FROM users u LEFT JOIN orders o ON u.id = o.user_id")
	require.NoError(t, err)

	join := plan.(*logical.Projection).Input.(*logical.Join)
	assert.Equal(t, logical.JoinLeft, join.Kind)
	require.NotNil(t, join.On)

	right := join.Right.(*logical.TableScan)
	assert.Equal(t, "orders", right.Table)
	assert.Equal(t, "o", right.Alias)
}

func TestParseRejectsSecondJoin(t *testing.T) {
	_, err := Parse("SELECT * FROM a JOIN b ON a.x = b.x JOIN c ON b.y = c.y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple joins")
}

func TestParseGroupHavingOrderLimit(t *testing.T) {
	plan, err := Parse(
		"SELECT dept, COUNT(*) FROM emp GROUP BY dept HAVING COUNT(*) > 5 ORDER BY dept DESC LIMIT 10 OFFSET 20")
	require.NoError(t, err)

	limit := plan.(*logical.Limit)
	assert.Equal(t, uint64(10), limit.Limit)
	assert.Equal(t, uint64(20), limit.Offset)

	sort := limit.Input.(*logical.Sort)
	require.Len(t, sort.Items, 1)
	assert.False(t, sort.Items[0].Asc)

	proj := sort.Input.(*logical.Projection)
	having := proj.Input.(*logical.Having)
	group := having.Input.(*logical.Group)
	require.Len(t, group.GroupExprs, 1)
}

func TestParseDistinct(t *testing.T) {
	plan, err := Parse("SELECT DISTINCT city FROM users")
	require.NoError(t, err)

	distinct, ok := plan.(*logical.Distinct)
	require.True(t, ok)
	assert.IsType(t, &logical.Projection{}, distinct.Input)
}

func TestParseDerivedTable(t *testing.T) {
	plan, err := Parse("SELECT x FROM (SELECT id AS x FROM users) t")
	require.NoError(t, err)

	scan := plan.(*logical.Projection).Input.(*logical.SubqueryScan)
	assert.Equal(t, "t", scan.Alias)
	assert.Equal(t, "SELECT id AS x FROM users", scan.SQL)
}

func TestParseDerivedTableDefaultAlias(t *testing.T) {
	plan, err := Parse("SELECT x FROM (SELECT 1 x)")
	require.NoError(t, err)

	scan := plan.(*logical.Projection).Input.(*logical.SubqueryScan)
	assert.Equal(t, "subq", scan.Alias)
}

func TestParseScalarSubquery(t *testing.T) {
	plan, err := Parse("SELECT id FROM users WHERE id IN (SELECT user_id FROM orders)")
	require.NoError(t, err)

	filter := plan.(*logical.Projection).Input.(*logical.Filter)
	in := filter.Predicate.(*logical.InList)
	require.Len(t, in.List, 1)
	sub := in.List[0].(*logical.Subquery)
	assert.Equal(t, "SELECT user_id FROM orders", sub.SQL)
	assert.False(t, sub.Correlated)
}

func TestParseMarksCorrelatedSubquery(t *testing.T) {
	plan, err := Parse(
		"SELECT name FROM users u WHERE id IN (SELECT user_id FROM orders WHERE orders.total > u.limit_amt)")
	require.NoError(t, err)

	filter := plan.(*logical.Projection).Input.(*logical.Filter)
	in := filter.Predicate.(*logical.InList)
	sub := in.List[0].(*logical.Subquery)
	assert.True(t, sub.Correlated)
}

func TestParseWith(t *testing.T) {
	plan, err := Parse(
		"WITH recent AS (SELECT * FROM orders WHERE ts > '2024-01-01'), top AS (SELECT id FROM recent LIMIT 5) SELECT * FROM top")
	require.NoError(t, err)

	with := plan.(*logical.With)
	require.Len(t, with.CTEs, 2)
	assert.Equal(t, "recent", with.CTEs[0].Name)
	assert.Equal(t, "SELECT * FROM orders WHERE ts > '2024-01-01'", with.CTEs[0].SQL)
	assert.Equal(t, "top", with.CTEs[1].Name)
}

func TestParseUnion(t *testing.T) {
	plan, err := Parse("SELECT id FROM a UNION ALL SELECT id FROM b UNION SELECT id FROM c")
	require.NoError(t, err)

	// Left-associative: (a UNION ALL b) UNION c.
	outer := plan.(*logical.SetOp)
	assert.Equal(t, logical.Union, outer.Op)
	inner := outer.Left.(*logical.SetOp)
	assert.Equal(t, logical.UnionAll, inner.Op)
}

func TestParseWindowFunction(t *testing.T) {
	plan, err := Parse(
		"SELECT name, ROW_NUMBER() OVER (PARTITION BY dept ORDER BY salary DESC ROWS BETWEEN 1 PRECEDING AND CURRENT ROW) AS rn FROM emp")
	require.NoError(t, err)

	proj := plan.(*logical.Projection)
	alias := proj.Exprs[1].(*logical.Alias)
	wf := alias.Expr.(*logical.WindowFunc)
	assert.Equal(t, "ROW_NUMBER", wf.Name)
	require.Len(t, wf.PartitionBy, 1)
	require.Len(t, wf.OrderBy, 1)
	assert.False(t, wf.OrderBy[0].Asc)
	assert.Equal(t, "ROWS BETWEEN 1 PRECEDING AND CURRENT ROW", wf.Frame)
}

func TestParseCaseExpression(t *testing.T) {
	plan, err := Parse(
		"SELECT CASE WHEN score >= 90 THEN 'A' WHEN score >= 80 THEN 'B' ELSE 'F' END FROM exams")
	require.NoError(t, err)

	proj := plan.(*logical.Projection)
	c := proj.Exprs[0].(*logical.Case)
	assert.Nil(t, c.Operand)
	require.Len(t, c.WhenThen, 2)
	require.NotNil(t, c.Else)
}

func TestParseFunctionsAndArithmetic(t *testing.T) {
	plan, err := Parse("SELECT COALESCE(price, 0) * quantity + -5 FROM items")
	require.NoError(t, err)

	proj := plan.(*logical.Projection)
	add := proj.Exprs[0].(*logical.BinaryOp)
	assert.Equal(t, "+", add.Op)

	mul := add.Left.(*logical.BinaryOp)
	assert.Equal(t, "*", mul.Op)
	fn := mul.Left.(*logical.FuncCall)
	assert.Equal(t, "COALESCE", fn.Name)
	require.Len(t, fn.Args, 2)

	neg := add.Right.(*logical.Number)
	assert.Equal(t, "-5", neg.Text)
}

func TestParseCommentsAndSemicolon(t *testing.T) {
	plan, err := Parse("SELECT id -- trailing\nFROM t /* block */ WHERE id = 1;")
	require.NoError(t, err)
	assert.IsType(t, &logical.Projection{}, plan)
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"UPDATE t SET x = 1",
		"SELECT FROM t",
		"SELECT id users",
		"SELECT id FROM t WHERE",
		"SELECT id FROM t LIMIT abc",
		"SELECT id FROM (SELECT 1",
		"SELECT id FROM a CROSS JOIN b",
		"SELECT id FROM t extra garbage (",
	}
	for _, src := range cases {
		_, err := Parse(src)
		assert.Error(t, err, "input %q", src)
	}
}
