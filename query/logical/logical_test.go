package logical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() Plan {
	return &Projection{
		Exprs: []Expr{&Column{Name: "id"}, &Alias{Name: "n", Expr: &Column{Name: "name"}}},
		Input: &Filter{
			Predicate: &BinaryOp{Left: &Column{Name: "id"}, Op: "=", Right: &Number{Text: "1"}},
			Input:     &TableScan{Table: "users"},
		},
	}
}

func TestStructuralHashStable(t *testing.T) {
	assert.Equal(t, StructuralHash(samplePlan()), StructuralHash(samplePlan()))
}

func TestStructuralHashIgnoresCase(t *testing.T) {
	upper := &Filter{
		Predicate: &Column{Name: "ACTIVE"},
		Input:     &TableScan{Table: "USERS"},
	}
	lowerPlan := &Filter{
		Predicate: &Column{Name: "active"},
		Input:     &TableScan{Table: "users"},
	}
	assert.Equal(t, StructuralHash(upper), StructuralHash(lowerPlan))
}

func TestStructuralHashDistinguishesShapes(t *testing.T) {
	scan := StructuralHash(&TableScan{Table: "users"})
	limited := StructuralHash(&Limit{Limit: 10, Input: &TableScan{Table: "users"}})
	otherLimit := StructuralHash(&Limit{Limit: 20, Input: &TableScan{Table: "users"}})

	assert.NotEqual(t, scan, limited)
	assert.NotEqual(t, limited, otherLimit)
}

func TestDump(t *testing.T) {
	out := Dump(samplePlan())
	assert.Contains(t, out, "Projection [2 exprs]")
	assert.Contains(t, out, "Filter")
	assert.Contains(t, out, "TableScan users")
	// Children are indented below their parents.
	assert.Contains(t, out, "  Filter")
	assert.Contains(t, out, "    TableScan users")
}

func TestMeasure(t *testing.T) {
	c := Measure(samplePlan())
	assert.Equal(t, 3, c.Nodes)
	assert.Equal(t, 3, c.Depth)
	assert.Zero(t, c.Subqueries)

	withSub := &Filter{
		Predicate: &InList{
			Expr: &Column{Name: "id"},
			List: []Expr{&Subquery{SQL: "SELECT id FROM banned", Correlated: true}},
		},
		Input: &SubqueryScan{SQL: "SELECT * FROM t", Alias: "t"},
	}
	c = Measure(withSub)
	assert.Equal(t, 2, c.Subqueries)
	assert.Equal(t, 1, c.Correlated)
}

func TestInputs(t *testing.T) {
	join := &Join{Left: &TableScan{Table: "a"}, Right: &TableScan{Table: "b"}}
	require.Len(t, Inputs(join), 2)
	assert.Empty(t, Inputs(&TableScan{Table: "a"}))
}
