package logical

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// StructuralHash fingerprints a plan by its shape and content: the variant
// tag of every plan and expression node plus the lowercased text of
// identifiers, literals and operators. Case and quoting style do not affect
// the hash, so semantically identical queries collide by design.
func StructuralHash(p Plan) uint64 {
	d := xxhash.New()
	hashPlan(d, p)
	return d.Sum64()
}

func write(d *xxhash.Digest, parts ...string) {
	for _, s := range parts {
		_, _ = d.WriteString(s)
		_, _ = d.WriteString("\x00")
	}
}

func hashPlan(d *xxhash.Digest, p Plan) {
	switch v := p.(type) {
	case nil:
		write(d, "nil")
	case *TableScan:
		write(d, "scan", lower(v.Table), lower(v.Alias))
	case *SubqueryScan:
		write(d, "subscan", lower(v.SQL), lower(v.Alias), strconv.FormatBool(v.Correlated))
	case *Projection:
		write(d, "proj")
		for _, e := range v.Exprs {
			hashExpr(d, e)
		}
		hashPlan(d, v.Input)
	case *Distinct:
		write(d, "distinct")
		hashPlan(d, v.Input)
	case *Filter:
		write(d, "filter")
		hashExpr(d, v.Predicate)
		hashPlan(d, v.Input)
	case *Sort:
		write(d, "sort")
		for _, it := range v.Items {
			hashExpr(d, it.Expr)
			write(d, strconv.FormatBool(it.Asc))
		}
		hashPlan(d, v.Input)
	case *Limit:
		write(d, "limit", strconv.FormatUint(v.Limit, 10), strconv.FormatUint(v.Offset, 10))
		hashPlan(d, v.Input)
	case *Group:
		write(d, "group")
		for _, e := range v.GroupExprs {
			hashExpr(d, e)
		}
		hashPlan(d, v.Input)
	case *Having:
		write(d, "having")
		hashExpr(d, v.Predicate)
		hashPlan(d, v.Input)
	case *Join:
		write(d, "join", v.Kind.String())
		if v.On != nil {
			hashExpr(d, v.On)
		}
		hashPlan(d, v.Left)
		hashPlan(d, v.Right)
	case *With:
		write(d, "with")
		for _, c := range v.CTEs {
			write(d, lower(c.Name), lower(c.SQL))
		}
		hashPlan(d, v.Input)
	case *SetOp:
		write(d, "setop", v.Op.String())
		hashPlan(d, v.Left)
		hashPlan(d, v.Right)
	}
}

func hashExpr(d *xxhash.Digest, e Expr) {
	switch v := e.(type) {
	case nil:
		write(d, "nil")
	case *Column:
		write(d, "col", lower(v.Name))
	case *StringLiteral:
		write(d, "str", lower(v.Value))
	case *Number:
		write(d, "num", lower(v.Text))
	case *Boolean:
		write(d, "bool", strconv.FormatBool(v.Value))
	case *Null:
		write(d, "null")
	case *Star:
		write(d, "star")
	case *BinaryOp:
		write(d, "binop", lower(v.Op))
		hashExpr(d, v.Left)
		hashExpr(d, v.Right)
	case *FuncCall:
		write(d, "func", lower(v.Name))
		for _, a := range v.Args {
			hashExpr(d, a)
		}
	case *Alias:
		write(d, "alias", lower(v.Name))
		hashExpr(d, v.Expr)
	case *Raw:
		write(d, "raw", lower(v.SQL))
	case *Not:
		write(d, "not")
		hashExpr(d, v.Expr)
	case *IsNull:
		write(d, "isnull", strconv.FormatBool(v.Negated))
		hashExpr(d, v.Expr)
	case *Like:
		write(d, "like", strconv.FormatBool(v.Negated))
		hashExpr(d, v.Expr)
		hashExpr(d, v.Pattern)
	case *InList:
		write(d, "in", strconv.FormatBool(v.Negated))
		hashExpr(d, v.Expr)
		for _, it := range v.List {
			hashExpr(d, it)
		}
	case *Case:
		write(d, "case")
		if v.Operand != nil {
			hashExpr(d, v.Operand)
		}
		for _, wt := range v.WhenThen {
			hashExpr(d, wt.When)
			hashExpr(d, wt.Then)
		}
		if v.Else != nil {
			hashExpr(d, v.Else)
		}
	case *Subquery:
		write(d, "subq", lower(v.SQL), strconv.FormatBool(v.Correlated))
	case *WindowFunc:
		write(d, "window", lower(v.Name), lower(v.Frame))
		for _, a := range v.Args {
			hashExpr(d, a)
		}
		write(d, "partition")
		for _, p := range v.PartitionBy {
			hashExpr(d, p)
		}
		write(d, "order")
		for _, it := range v.OrderBy {
			hashExpr(d, it.Expr)
			write(d, strconv.FormatBool(it.Asc))
		}
	}
}
