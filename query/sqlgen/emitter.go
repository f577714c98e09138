package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/logical"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

// EmitSQL renders a logical plan as a single SELECT statement in the given
// dialect. Identical plans always produce identical text.
func EmitSQL(plan logical.Plan, dbType query.DatabaseType) (string, error) {
	d, err := ForType(dbType)
	if err != nil {
		return "", err
	}
	return emitPlan(plan, d)
}

func emitPlan(plan logical.Plan, d Dialect) (string, error) {
	if with, ok := plan.(*logical.With); ok {
		if !d.SupportsCTE() {
			return "", qerr.Unsupportedf("%s does not support common table expressions", d.Type())
		}
		parts := make([]string, len(with.CTEs))
		for i, cte := range with.CTEs {
			parts[i] = fmt.Sprintf("%s AS (%s)", d.QuoteIdent(cte.Name), cte.SQL)
		}
		body, err := emitPlan(with.Input, d)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("WITH %s %s", strings.Join(parts, ", "), body), nil
	}

	// Peel Limit/Sort wrappers above a set operation so auto-limit and
	// pagination apply to the combined result.
	if sql, handled, err := emitSetOp(plan, d); handled || err != nil {
		return sql, err
	}

	flat := flatten(plan)
	return emitFlat(&flat, d)
}

func emitSetOp(plan logical.Plan, d Dialect) (string, bool, error) {
	var limit *logical.Limit
	var sort *logical.Sort
	cur := plan
loop:
	for {
		switch v := cur.(type) {
		case *logical.Limit:
			if limit == nil {
				limit = v
			}
			cur = v.Input
		case *logical.Sort:
			if sort == nil {
				sort = v
			}
			cur = v.Input
		default:
			break loop
		}
	}
	setop, ok := cur.(*logical.SetOp)
	if !ok {
		return "", false, nil
	}

	left, err := emitSetOpSide(setop.Left, d)
	if err != nil {
		return "", true, err
	}
	right, err := emitSetOpSide(setop.Right, d)
	if err != nil {
		return "", true, err
	}
	sql := fmt.Sprintf("%s %s %s", left, setop.Op, right)

	if sort != nil {
		order, err := emitSortItems(sort.Items, d)
		if err != nil {
			return "", true, err
		}
		sql += " ORDER BY " + order
	}
	if limit != nil {
		clause := d.LimitClause(limit.Limit, limit.Offset)
		if clause == "" {
			// SELECT TOP cannot wrap a set operation; fall back to the
			// offset form with a zero offset.
			clause = fmt.Sprintf(" OFFSET 0 ROWS FETCH NEXT %d ROWS ONLY", limit.Limit)
		}
		sql += clause
	}
	return sql, true, nil
}

func emitSetOpSide(plan logical.Plan, d Dialect) (string, error) {
	sql, err := emitPlan(plan, d)
	if err != nil {
		return "", err
	}
	return "(" + sql + ")", nil
}

// flatSelect is the single-SELECT shape a plan collapses into before
// rendering.
type flatSelect struct {
	table      string
	tableAlias string
	subquery   string // derived table SQL, "" when reading a named table
	subAlias   string
	projection []logical.Expr
	predicates []logical.Expr
	sort       []logical.SortItem
	limit      *logical.Limit
	distinct   bool
	groups     []logical.Expr
	join       *logical.Join
	having     logical.Expr
}

func flatten(plan logical.Plan) flatSelect {
	var flat flatSelect
	flattenInto(plan, &flat)
	return flat
}

func flattenInto(p logical.Plan, flat *flatSelect) {
	switch v := p.(type) {
	case nil:
	case *logical.TableScan:
		flat.table = v.Table
		flat.tableAlias = v.Alias
	case *logical.SubqueryScan:
		flat.subquery = v.SQL
		flat.subAlias = v.Alias
	case *logical.Projection:
		flat.projection = v.Exprs
		flattenInto(v.Input, flat)
	case *logical.Distinct:
		flat.distinct = true
		flattenInto(v.Input, flat)
	case *logical.Filter:
		flat.predicates = append(flat.predicates, v.Predicate)
		flattenInto(v.Input, flat)
	case *logical.Sort:
		flat.sort = v.Items
		flattenInto(v.Input, flat)
	case *logical.Limit:
		if flat.limit == nil {
			flat.limit = v
		}
		flattenInto(v.Input, flat)
	case *logical.Group:
		flat.groups = v.GroupExprs
		flattenInto(v.Input, flat)
	case *logical.Having:
		flat.having = v.Predicate
		flattenInto(v.Input, flat)
	case *logical.Join:
		flat.join = v
		flattenInto(v.Left, flat)
	case *logical.With:
		flattenInto(v.Input, flat)
	case *logical.SetOp:
		flattenInto(v.Left, flat)
	}
}

func emitFlat(flat *flatSelect, d Dialect) (string, error) {
	proj := "*"
	if len(flat.projection) > 0 {
		parts := make([]string, len(flat.projection))
		for i, e := range flat.projection {
			s, err := emitExpr(e, d)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		proj = strings.Join(parts, ", ")
	}

	from := emitFrom(flat, d)

	var b strings.Builder
	b.WriteString("SELECT ")
	if flat.distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(proj)
	b.WriteString(" FROM ")
	b.WriteString(from)

	if flat.join != nil {
		if flat.join.Kind == logical.JoinFull && !d.SupportsFullJoin() {
			return "", qerr.Unsupportedf("%s does not support FULL JOIN", d.Type())
		}
		b.WriteString(" ")
		b.WriteString(d.JoinKeyword(flat.join.Kind))
		b.WriteString(" ")
		b.WriteString(emitJoinRight(flat.join.Right, d))
		if flat.join.On != nil {
			on, err := emitExpr(flat.join.On, d)
			if err != nil {
				return "", err
			}
			b.WriteString(" ON ")
			b.WriteString(on)
		}
	}

	if len(flat.predicates) > 0 {
		parts := make([]string, len(flat.predicates))
		for i, p := range flat.predicates {
			s, err := emitExpr(p, d)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(parts, " AND "))
	}

	if len(flat.groups) > 0 {
		parts := make([]string, len(flat.groups))
		for i, g := range flat.groups {
			s, err := emitExpr(g, d)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	if flat.having != nil {
		s, err := emitExpr(flat.having, d)
		if err != nil {
			return "", err
		}
		b.WriteString(" HAVING ")
		b.WriteString(s)
	}

	if len(flat.sort) > 0 {
		order, err := emitSortItems(flat.sort, d)
		if err != nil {
			return "", err
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
	}

	sql := b.String()
	if flat.limit != nil {
		clause := d.LimitClause(flat.limit.Limit, flat.limit.Offset)
		if clause == "" {
			sql = strings.Replace(sql, "SELECT ", fmt.Sprintf("SELECT TOP %d ", flat.limit.Limit), 1)
		} else {
			sql += clause
		}
	}
	return sql, nil
}

func emitFrom(flat *flatSelect, d Dialect) string {
	if flat.subquery != "" {
		return fmt.Sprintf("(%s) %s", flat.subquery, d.QuoteIdent(flat.subAlias))
	}
	table := flat.table
	if table == "" {
		table = "DUAL"
	}
	from := quoteDotted(table, d)
	if flat.tableAlias != "" {
		from += " " + d.QuoteIdent(flat.tableAlias)
	}
	return from
}

func emitJoinRight(right logical.Plan, d Dialect) string {
	switch v := right.(type) {
	case *logical.TableScan:
		out := quoteDotted(v.Table, d)
		if v.Alias != "" {
			out += " " + d.QuoteIdent(v.Alias)
		}
		return out
	case *logical.SubqueryScan:
		alias := v.Alias
		if alias == "" {
			alias = "sub"
		}
		return fmt.Sprintf("(%s) %s", v.SQL, d.QuoteIdent(alias))
	default:
		return d.QuoteIdent("sub")
	}
}

// emitSortItems renders ORDER BY entries; an unrenderable expression degrades
// to "?" instead of failing the whole statement.
func emitSortItems(items []logical.SortItem, d Dialect) (string, error) {
	parts := make([]string, len(items))
	for i, it := range items {
		s, err := emitExpr(it.Expr, d)
		if err != nil {
			s = "?"
		}
		dir := "ASC"
		if !it.Asc {
			dir = "DESC"
		}
		parts[i] = s + " " + dir
	}
	return strings.Join(parts, ", "), nil
}

func emitExpr(e logical.Expr, d Dialect) (string, error) {
	switch v := e.(type) {
	case *logical.Column:
		return quoteDotted(v.Name, d), nil
	case *logical.StringLiteral:
		return d.QuoteString(v.Value), nil
	case *logical.Number:
		return v.Text, nil
	case *logical.Boolean:
		return d.BooleanLiteral(v.Value), nil
	case *logical.Null:
		return d.NullLiteral(), nil
	case *logical.Star:
		return "*", nil
	case *logical.Raw:
		return v.SQL, nil
	case *logical.BinaryOp:
		left, err := emitExpr(v.Left, d)
		if err != nil {
			return "", err
		}
		right, err := emitExpr(v.Right, d)
		if err != nil {
			return "", err
		}
		if v.Op == "~" {
			return d.EmitRegexMatch(left, right)
		}
		return fmt.Sprintf("%s %s %s", left, v.Op, right), nil
	case *logical.FuncCall:
		args, err := emitExprList(v.Args, d)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", v.Name, strings.Join(args, ", ")), nil
	case *logical.Alias:
		inner, err := emitExpr(v.Expr, d)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s AS %s", inner, d.QuoteIdent(v.Name)), nil
	case *logical.Not:
		inner, err := emitExpr(v.Expr, d)
		if err != nil {
			return "", err
		}
		return "NOT " + inner, nil
	case *logical.IsNull:
		inner, err := emitExpr(v.Expr, d)
		if err != nil {
			return "", err
		}
		if v.Negated {
			return inner + " IS NOT NULL", nil
		}
		return inner + " IS NULL", nil
	case *logical.Like:
		inner, err := emitExpr(v.Expr, d)
		if err != nil {
			return "", err
		}
		pattern, err := emitExpr(v.Pattern, d)
		if err != nil {
			return "", err
		}
		if v.Negated {
			return fmt.Sprintf("%s NOT LIKE %s", inner, pattern), nil
		}
		return fmt.Sprintf("%s LIKE %s", inner, pattern), nil
	case *logical.InList:
		inner, err := emitExpr(v.Expr, d)
		if err != nil {
			return "", err
		}
		items, err := emitExprList(v.List, d)
		if err != nil {
			return "", err
		}
		op := "IN"
		if v.Negated {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", inner, op, strings.Join(items, ", ")), nil
	case *logical.Case:
		var b strings.Builder
		b.WriteString("CASE")
		if v.Operand != nil {
			s, err := emitExpr(v.Operand, d)
			if err != nil {
				return "", err
			}
			b.WriteString(" ")
			b.WriteString(s)
		}
		for _, wt := range v.WhenThen {
			when, err := emitExpr(wt.When, d)
			if err != nil {
				return "", err
			}
			then, err := emitExpr(wt.Then, d)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, " WHEN %s THEN %s", when, then)
		}
		if v.Else != nil {
			s, err := emitExpr(v.Else, d)
			if err != nil {
				return "", err
			}
			b.WriteString(" ELSE ")
			b.WriteString(s)
		}
		b.WriteString(" END")
		return b.String(), nil
	case *logical.Subquery:
		return "(" + v.SQL + ")", nil
	case *logical.WindowFunc:
		return emitWindowFunc(v, d)
	}
	return "", qerr.Unsupportedf("cannot render expression of type %T", e)
}

func emitWindowFunc(v *logical.WindowFunc, d Dialect) (string, error) {
	if !d.SupportsWindowFunctions() {
		return "", qerr.Unsupportedf("%s does not support window functions", d.Type())
	}
	args, err := emitExprList(v.Args, d)
	if err != nil {
		return "", err
	}
	var over []string
	if len(v.PartitionBy) > 0 {
		parts, err := emitExprList(v.PartitionBy, d)
		if err != nil {
			return "", err
		}
		over = append(over, "PARTITION BY "+strings.Join(parts, ", "))
	}
	if len(v.OrderBy) > 0 {
		order, err := emitSortItems(v.OrderBy, d)
		if err != nil {
			return "", err
		}
		over = append(over, "ORDER BY "+order)
	}
	if v.Frame != "" {
		over = append(over, v.Frame)
	}
	return fmt.Sprintf("%s(%s) OVER (%s)", v.Name, strings.Join(args, ", "),
		strings.Join(over, " ")), nil
}

func emitExprList(exprs []logical.Expr, d Dialect) ([]string, error) {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		s, err := emitExpr(e, d)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func quoteDotted(name string, d Dialect) string {
	if !strings.Contains(name, ".") {
		return d.QuoteIdent(name)
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}
