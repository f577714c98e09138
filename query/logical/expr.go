// Package logical defines the dialect-independent representation of a query:
// scalar expressions and the relational operator tree produced by the parser,
// mutated by the rewrite engine and consumed by the emitter.
//
// Nodes own their children directly (a tree, not a graph); values are treated
// as immutable once built and may be shared read-only, e.g. by the plan cache.
package logical

// Expr is a scalar SQL expression node.
type Expr interface {
	exprNode()
}

// Column references a column, optionally table-qualified ("t.id").
type Column struct {
	Name string
}

// StringLiteral is a single-quoted string constant.
type StringLiteral struct {
	Value string
}

// Number keeps the numeric literal as source text to preserve formatting.
type Number struct {
	Text string
}

// Boolean is a TRUE/FALSE literal.
type Boolean struct {
	Value bool
}

// Null is the NULL literal.
type Null struct{}

// Star is the bare `*` projection item.
type Star struct{}

// BinaryOp applies an infix operator to two operands.
type BinaryOp struct {
	Left  Expr
	Op    string
	Right Expr
}

// FuncCall is a plain function invocation.
type FuncCall struct {
	Name string
	Args []Expr
}

// Alias attaches an output name to an expression.
type Alias struct {
	Expr Expr
	Name string
}

// Raw is the escape hatch for fragments the parser did not decompose; the
// text is emitted verbatim.
type Raw struct {
	SQL string
}

// Not negates a predicate.
type Not struct {
	Expr Expr
}

// IsNull is `expr IS [NOT] NULL`.
type IsNull struct {
	Expr    Expr
	Negated bool
}

// Like is `expr [NOT] LIKE pattern`.
type Like struct {
	Expr    Expr
	Pattern Expr
	Negated bool
}

// InList is `expr [NOT] IN (items...)`.
type InList struct {
	Expr    Expr
	List    []Expr
	Negated bool
}

// WhenThen is one WHEN/THEN arm of a CASE expression.
type WhenThen struct {
	When Expr
	Then Expr
}

// Case covers both simple (with operand) and searched CASE expressions.
type Case struct {
	Operand  Expr // nil for searched CASE
	WhenThen []WhenThen
	Else     Expr // nil when absent
}

// Subquery is a scalar subquery kept as raw SQL text. Correlated is set by
// the rewrite engine when the text references an outer table alias.
type Subquery struct {
	SQL        string
	Correlated bool
}

// WindowFunc is `name(args) OVER (PARTITION BY ... ORDER BY ... frame)`.
// Frame keeps the frame clause as raw text when present.
type WindowFunc struct {
	Name        string
	Args        []Expr
	PartitionBy []Expr
	OrderBy     []SortItem
	Frame       string
}

// SortItem pairs a sort expression with its direction.
type SortItem struct {
	Expr Expr
	Asc  bool
}

func (*Column) exprNode()        {}
func (*StringLiteral) exprNode() {}
func (*Number) exprNode()        {}
func (*Boolean) exprNode()       {}
func (*Null) exprNode()          {}
func (*Star) exprNode()          {}
func (*BinaryOp) exprNode()      {}
func (*FuncCall) exprNode()      {}
func (*Alias) exprNode()         {}
func (*Raw) exprNode()           {}
func (*Not) exprNode()           {}
func (*IsNull) exprNode()        {}
func (*Like) exprNode()          {}
func (*InList) exprNode()        {}
func (*Case) exprNode()          {}
func (*Subquery) exprNode()      {}
func (*WindowFunc) exprNode()    {}

// CloneExpr deep-copies an expression tree.
func CloneExpr(e Expr) Expr {
	switch v := e.(type) {
	case nil:
		return nil
	case *Column:
		c := *v
		return &c
	case *StringLiteral:
		c := *v
		return &c
	case *Number:
		c := *v
		return &c
	case *Boolean:
		c := *v
		return &c
	case *Null:
		return &Null{}
	case *Star:
		return &Star{}
	case *BinaryOp:
		return &BinaryOp{Left: CloneExpr(v.Left), Op: v.Op, Right: CloneExpr(v.Right)}
	case *FuncCall:
		return &FuncCall{Name: v.Name, Args: cloneExprs(v.Args)}
	case *Alias:
		return &Alias{Expr: CloneExpr(v.Expr), Name: v.Name}
	case *Raw:
		c := *v
		return &c
	case *Not:
		return &Not{Expr: CloneExpr(v.Expr)}
	case *IsNull:
		return &IsNull{Expr: CloneExpr(v.Expr), Negated: v.Negated}
	case *Like:
		return &Like{Expr: CloneExpr(v.Expr), Pattern: CloneExpr(v.Pattern), Negated: v.Negated}
	case *InList:
		return &InList{Expr: CloneExpr(v.Expr), List: cloneExprs(v.List), Negated: v.Negated}
	case *Case:
		out := &Case{Operand: CloneExpr(v.Operand), Else: CloneExpr(v.Else)}
		for _, wt := range v.WhenThen {
			out.WhenThen = append(out.WhenThen, WhenThen{When: CloneExpr(wt.When), Then: CloneExpr(wt.Then)})
		}
		return out
	case *Subquery:
		c := *v
		return &c
	case *WindowFunc:
		out := &WindowFunc{Name: v.Name, Frame: v.Frame, Args: cloneExprs(v.Args), PartitionBy: cloneExprs(v.PartitionBy)}
		for _, it := range v.OrderBy {
			out.OrderBy = append(out.OrderBy, SortItem{Expr: CloneExpr(it.Expr), Asc: it.Asc})
		}
		return out
	}
	return e
}

func cloneExprs(in []Expr) []Expr {
	if in == nil {
		return nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = CloneExpr(e)
	}
	return out
}

// IsSimpleAggregate reports whether e is a call to one of the five basic
// aggregate functions.
func IsSimpleAggregate(e Expr) bool {
	fc, ok := e.(*FuncCall)
	if !ok {
		return false
	}
	switch lower(fc.Name) {
	case "count", "sum", "avg", "min", "max":
		return true
	}
	return false
}
