package logical

import (
	"fmt"
	"strings"
)

// Dump renders a human-readable plan tree for the debug panel.
func Dump(p Plan) string {
	var b strings.Builder
	dump(&b, p, 0)
	return b.String()
}

func dump(b *strings.Builder, p Plan, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := p.(type) {
	case nil:
		fmt.Fprintf(b, "%s<nil>\n", indent)
	case *TableScan:
		if v.Alias != "" {
			fmt.Fprintf(b, "%sTableScan %s AS %s\n", indent, v.Table, v.Alias)
		} else {
			fmt.Fprintf(b, "%sTableScan %s\n", indent, v.Table)
		}
	case *SubqueryScan:
		fmt.Fprintf(b, "%sSubqueryScan %s correlated=%v\n", indent, v.Alias, v.Correlated)
	case *Projection:
		fmt.Fprintf(b, "%sProjection [%d exprs]\n", indent, len(v.Exprs))
	case *Distinct:
		fmt.Fprintf(b, "%sDistinct\n", indent)
	case *Filter:
		fmt.Fprintf(b, "%sFilter\n", indent)
	case *Sort:
		fmt.Fprintf(b, "%sSort [%d items]\n", indent, len(v.Items))
	case *Limit:
		fmt.Fprintf(b, "%sLimit %d OFFSET %d\n", indent, v.Limit, v.Offset)
	case *Group:
		fmt.Fprintf(b, "%sGroup [%d exprs]\n", indent, len(v.GroupExprs))
	case *Having:
		fmt.Fprintf(b, "%sHaving\n", indent)
	case *Join:
		fmt.Fprintf(b, "%sJoin %s\n", indent, v.Kind)
	case *With:
		names := make([]string, len(v.CTEs))
		for i, c := range v.CTEs {
			names[i] = c.Name
		}
		fmt.Fprintf(b, "%sWith [%s]\n", indent, strings.Join(names, ", "))
	case *SetOp:
		fmt.Fprintf(b, "%sSetOp %s\n", indent, v.Op)
	}
	for _, in := range Inputs(p) {
		dump(b, in, depth+1)
	}
}

// Complexity summarizes a plan for the diagnostics surface.
type Complexity struct {
	Nodes       int
	Depth       int
	Subqueries  int
	Correlated  int
	WindowFuncs int
}

// Measure walks the plan and every expression, counting nodes, depth,
// subqueries (scans and scalar), correlated subqueries and window functions.
func Measure(p Plan) Complexity {
	var c Complexity
	measurePlan(p, 1, &c)
	return c
}

func measurePlan(p Plan, depth int, c *Complexity) {
	if p == nil {
		return
	}
	c.Nodes++
	if depth > c.Depth {
		c.Depth = depth
	}
	switch v := p.(type) {
	case *SubqueryScan:
		c.Subqueries++
		if v.Correlated {
			c.Correlated++
		}
	case *Projection:
		for _, e := range v.Exprs {
			measureExpr(e, c)
		}
	case *Filter:
		measureExpr(v.Predicate, c)
	case *Having:
		measureExpr(v.Predicate, c)
	case *Sort:
		for _, it := range v.Items {
			measureExpr(it.Expr, c)
		}
	case *Group:
		for _, e := range v.GroupExprs {
			measureExpr(e, c)
		}
	case *Join:
		measureExpr(v.On, c)
	}
	for _, in := range Inputs(p) {
		measurePlan(in, depth+1, c)
	}
}

func measureExpr(e Expr, c *Complexity) {
	switch v := e.(type) {
	case nil:
	case *Subquery:
		c.Subqueries++
		if v.Correlated {
			c.Correlated++
		}
	case *WindowFunc:
		c.WindowFuncs++
		for _, a := range v.Args {
			measureExpr(a, c)
		}
		for _, p := range v.PartitionBy {
			measureExpr(p, c)
		}
		for _, it := range v.OrderBy {
			measureExpr(it.Expr, c)
		}
	case *BinaryOp:
		measureExpr(v.Left, c)
		measureExpr(v.Right, c)
	case *FuncCall:
		for _, a := range v.Args {
			measureExpr(a, c)
		}
	case *Alias:
		measureExpr(v.Expr, c)
	case *Not:
		measureExpr(v.Expr, c)
	case *IsNull:
		measureExpr(v.Expr, c)
	case *Like:
		measureExpr(v.Expr, c)
		measureExpr(v.Pattern, c)
	case *InList:
		measureExpr(v.Expr, c)
		for _, it := range v.List {
			measureExpr(it, c)
		}
	case *Case:
		measureExpr(v.Operand, c)
		for _, wt := range v.WhenThen {
			measureExpr(wt.When, c)
			measureExpr(wt.Then, c)
		}
		measureExpr(v.Else, c)
	}
}
