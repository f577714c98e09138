package logical

import "strings"

// Plan is a relational operator in the logical query plan. Every non-leaf
// variant owns its input plan(s); exactly one scan leaf is reachable along
// any path unless a Join or SetOp branches.
type Plan interface {
	planNode()
}

// TableScan reads a named table, optionally aliased.
type TableScan struct {
	Table string
	Alias string // "" when absent
}

// SubqueryScan reads a parenthesized derived table kept as raw SQL.
type SubqueryScan struct {
	SQL        string
	Alias      string
	Correlated bool
}

// Projection selects the output expressions.
type Projection struct {
	Exprs []Expr
	Input Plan
}

// Distinct removes duplicate rows.
type Distinct struct {
	Input Plan
}

// Filter applies a predicate.
type Filter struct {
	Predicate Expr
	Input     Plan
}

// Sort orders the output.
type Sort struct {
	Items []SortItem
	Input Plan
}

// Limit bounds and offsets the output.
type Limit struct {
	Limit  uint64
	Offset uint64
	Input  Plan
}

// Group groups rows by the given expressions.
type Group struct {
	GroupExprs []Expr
	Input      Plan
}

// Having filters grouped rows.
type Having struct {
	Predicate Expr
	Input     Plan
}

// JoinKind enumerates the supported join flavors.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinFull
)

func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	default:
		return "INNER"
	}
}

// Join combines two inputs. Right is expected (not required) to be a
// TableScan; the emitter degrades other shapes to an opaque "sub" alias.
type Join struct {
	Left  Plan
	Right Plan
	On    Expr // nil when the join carries no ON predicate
	Kind  JoinKind
}

// CTE is one `name AS (body)` pair. The body stays opaque raw SQL; CTE
// handling is intentionally shallow at this layer.
type CTE struct {
	Name string
	SQL  string
}

// With wraps a plan in a leading WITH clause.
type With struct {
	CTEs  []CTE
	Input Plan
}

// SetOpKind enumerates supported set operations.
type SetOpKind int

const (
	Union SetOpKind = iota
	UnionAll
)

func (k SetOpKind) String() string {
	if k == UnionAll {
		return "UNION ALL"
	}
	return "UNION"
}

// SetOp combines two complete plans with UNION / UNION ALL.
type SetOp struct {
	Left  Plan
	Right Plan
	Op    SetOpKind
}

func (*TableScan) planNode()    {}
func (*SubqueryScan) planNode() {}
func (*Projection) planNode()   {}
func (*Distinct) planNode()     {}
func (*Filter) planNode()       {}
func (*Sort) planNode()         {}
func (*Limit) planNode()        {}
func (*Group) planNode()        {}
func (*Having) planNode()       {}
func (*Join) planNode()         {}
func (*With) planNode()         {}
func (*SetOp) planNode()        {}

// ClonePlan deep-copies a plan tree.
func ClonePlan(p Plan) Plan {
	switch v := p.(type) {
	case nil:
		return nil
	case *TableScan:
		c := *v
		return &c
	case *SubqueryScan:
		c := *v
		return &c
	case *Projection:
		return &Projection{Exprs: cloneExprs(v.Exprs), Input: ClonePlan(v.Input)}
	case *Distinct:
		return &Distinct{Input: ClonePlan(v.Input)}
	case *Filter:
		return &Filter{Predicate: CloneExpr(v.Predicate), Input: ClonePlan(v.Input)}
	case *Sort:
		out := &Sort{Input: ClonePlan(v.Input)}
		for _, it := range v.Items {
			out.Items = append(out.Items, SortItem{Expr: CloneExpr(it.Expr), Asc: it.Asc})
		}
		return out
	case *Limit:
		return &Limit{Limit: v.Limit, Offset: v.Offset, Input: ClonePlan(v.Input)}
	case *Group:
		return &Group{GroupExprs: cloneExprs(v.GroupExprs), Input: ClonePlan(v.Input)}
	case *Having:
		return &Having{Predicate: CloneExpr(v.Predicate), Input: ClonePlan(v.Input)}
	case *Join:
		return &Join{Left: ClonePlan(v.Left), Right: ClonePlan(v.Right), On: CloneExpr(v.On), Kind: v.Kind}
	case *With:
		out := &With{Input: ClonePlan(v.Input)}
		out.CTEs = append(out.CTEs, v.CTEs...)
		return out
	case *SetOp:
		return &SetOp{Left: ClonePlan(v.Left), Right: ClonePlan(v.Right), Op: v.Op}
	}
	return p
}

// Inputs returns the direct child plans of p.
func Inputs(p Plan) []Plan {
	switch v := p.(type) {
	case *Projection:
		return []Plan{v.Input}
	case *Distinct:
		return []Plan{v.Input}
	case *Filter:
		return []Plan{v.Input}
	case *Sort:
		return []Plan{v.Input}
	case *Limit:
		return []Plan{v.Input}
	case *Group:
		return []Plan{v.Input}
	case *Having:
		return []Plan{v.Input}
	case *With:
		return []Plan{v.Input}
	case *Join:
		return []Plan{v.Left, v.Right}
	case *SetOp:
		return []Plan{v.Left, v.Right}
	}
	return nil
}

// CollectAliases gathers the table aliases (or table names when unaliased)
// visible in the plan, lowercased.
func CollectAliases(p Plan, out map[string]struct{}) {
	switch v := p.(type) {
	case *TableScan:
		name := v.Alias
		if name == "" {
			parts := strings.Split(v.Table, ".")
			name = parts[len(parts)-1]
		}
		out[lower(name)] = struct{}{}
	case *SubqueryScan:
		out[lower(v.Alias)] = struct{}{}
	default:
		for _, in := range Inputs(p) {
			CollectAliases(in, out)
		}
	}
}

func lower(s string) string { return strings.ToLower(s) }
