// Package rewrite mutates logical plans in place: pagination and auto-limit
// injection plus a small set of cleanup rules run to a fixed point.
package rewrite

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlbridge/query/logical"
	"github.com/satishbabariya/sqlbridge/query/parser"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

// Rule names surfaced in diagnostics.
const (
	RuleAutoLimit                 = "auto_limit"
	RulePaginationLimit           = "pagination_limit"
	RuleFilterPushdown            = "filter_pushdown"
	RuleMergeFilters              = "merge_filters"
	RuleRemoveRedundantProjection = "remove_redundant_projection"
	RuleLimitIntoSubquery         = "limit_into_subquery"
	RuleAnnotateCorrelation       = "annotate_correlation"
	RuleInlineSingleUseCTE        = "inline_single_use_cte"
	RuleProjectionPrune           = "projection_prune"
)

// DefaultAutoLimit caps result sets when the query carries no LIMIT of its own.
const DefaultAutoLimit = 1000

// Pagination describes a zero-based page window.
type Pagination struct {
	Page     uint64
	PageSize uint64
}

// maxPasses caps the fixed-point loop; the rules are individually idempotent
// so convergence is quick.
const maxPasses = 4

// Apply runs the rewrite rules over the plan, mutating it in place, and
// returns the names of the rules that fired in application order.
//
// A CTE that is defined but never referenced is rejected as a semantic error
// rather than silently emitted.
func Apply(plan *logical.Plan, injectAutoLimit bool, pagination *Pagination) ([]string, error) {
	if plan == nil || *plan == nil {
		return nil, qerr.Semanticf("cannot rewrite empty plan")
	}
	if err := checkCTEReferences(*plan); err != nil {
		return nil, err
	}

	var applied []string
	for pass := 0; pass < maxPasses; pass++ {
		changed := false

		if injectAutoLimit && !hasLimit(*plan) {
			*plan = &logical.Limit{Limit: DefaultAutoLimit, Input: *plan}
			applied = append(applied, RuleAutoLimit)
			changed = true
		}
		if pagination != nil &&
			setLimit(plan, pagination.PageSize, pagination.Page*pagination.PageSize) {
			applied = append(applied, RulePaginationLimit)
			changed = true
		}
		if pushdownFilter(plan) {
			applied = append(applied, RuleFilterPushdown)
			changed = true
		}
		if mergeFilters(plan) {
			applied = append(applied, RuleMergeFilters)
			changed = true
		}
		if removeRedundantProjection(plan) {
			applied = append(applied, RuleRemoveRedundantProjection)
			changed = true
		}
		if projectionPrune(*plan) {
			applied = append(applied, RuleProjectionPrune)
			changed = true
		}
		if inlineSingleUseCTEs(plan) {
			applied = append(applied, RuleInlineSingleUseCTE)
			changed = true
		}
		if limitIntoSubquery(*plan) {
			applied = append(applied, RuleLimitIntoSubquery)
			changed = true
		}
		if annotateCorrelation(*plan) {
			applied = append(applied, RuleAnnotateCorrelation)
			changed = true
		}

		if !changed {
			break
		}
	}
	return applied, nil
}

func hasLimit(p logical.Plan) bool {
	if _, ok := p.(*logical.Limit); ok {
		return true
	}
	for _, in := range logical.Inputs(p) {
		if hasLimit(in) {
			return true
		}
	}
	return false
}

// setLimit rewrites the first Limit found (left spine for joins and set ops)
// to the pagination window, or wraps the scan leaf in a fresh one.
func setLimit(p *logical.Plan, limit, offset uint64) bool {
	switch v := (*p).(type) {
	case *logical.Limit:
		if v.Limit != limit || v.Offset != offset {
			v.Limit = limit
			v.Offset = offset
			return true
		}
		return false
	case *logical.TableScan, *logical.SubqueryScan:
		*p = &logical.Limit{Limit: limit, Offset: offset, Input: *p}
		return true
	case *logical.Projection:
		return setLimit(&v.Input, limit, offset)
	case *logical.Filter:
		return setLimit(&v.Input, limit, offset)
	case *logical.Sort:
		return setLimit(&v.Input, limit, offset)
	case *logical.Distinct:
		return setLimit(&v.Input, limit, offset)
	case *logical.Group:
		return setLimit(&v.Input, limit, offset)
	case *logical.Having:
		return setLimit(&v.Input, limit, offset)
	case *logical.With:
		return setLimit(&v.Input, limit, offset)
	case *logical.Join:
		return setLimit(&v.Left, limit, offset)
	case *logical.SetOp:
		return setLimit(&v.Left, limit, offset)
	}
	return false
}

// pushdownFilter swaps a root-level Projection(Filter(x)) into
// Filter(Projection(x)). Grouping, Distinct and set operations below the
// filter block the swap.
func pushdownFilter(p *logical.Plan) bool {
	proj, ok := (*p).(*logical.Projection)
	if !ok {
		return false
	}
	filter, ok := proj.Input.(*logical.Filter)
	if !ok {
		return false
	}
	if containsGroupOrDistinct(filter.Input) || isBarrier(filter.Input) {
		return false
	}
	*p = &logical.Filter{
		Predicate: filter.Predicate,
		Input:     &logical.Projection{Exprs: proj.Exprs, Input: filter.Input},
	}
	return true
}

func isBarrier(p logical.Plan) bool {
	switch p.(type) {
	case *logical.Group, *logical.Distinct, *logical.SetOp:
		return true
	}
	return false
}

func containsGroupOrDistinct(p logical.Plan) bool {
	switch p.(type) {
	case *logical.Group, *logical.Distinct:
		return true
	}
	for _, in := range logical.Inputs(p) {
		if containsGroupOrDistinct(in) {
			return true
		}
	}
	return false
}

// mergeFilters collapses Filter(Filter(x)) into a single Filter with an
// ANDed predicate.
func mergeFilters(p *logical.Plan) bool {
	changed := false
	if f, ok := (*p).(*logical.Filter); ok {
		changed = mergeFilters(&f.Input)
		if inner, ok := f.Input.(*logical.Filter); ok {
			f.Predicate = &logical.BinaryOp{Left: f.Predicate, Op: "AND", Right: inner.Predicate}
			f.Input = inner.Input
			return true
		}
		return changed
	}
	switch v := (*p).(type) {
	case *logical.Projection:
		changed = mergeFilters(&v.Input)
	case *logical.Sort:
		changed = mergeFilters(&v.Input)
	case *logical.Limit:
		changed = mergeFilters(&v.Input)
	case *logical.Distinct:
		changed = mergeFilters(&v.Input)
	case *logical.Group:
		changed = mergeFilters(&v.Input)
	case *logical.Having:
		changed = mergeFilters(&v.Input)
	case *logical.With:
		changed = mergeFilters(&v.Input)
	case *logical.Join:
		l := mergeFilters(&v.Left)
		r := mergeFilters(&v.Right)
		changed = l || r
	case *logical.SetOp:
		l := mergeFilters(&v.Left)
		r := mergeFilters(&v.Right)
		changed = l || r
	}
	return changed
}

// removeRedundantProjection drops a bare SELECT * projection sitting directly
// above another projection.
func removeRedundantProjection(p *logical.Plan) bool {
	changed := false
	if proj, ok := (*p).(*logical.Projection); ok {
		changed = removeRedundantProjection(&proj.Input)
		if len(proj.Exprs) == 1 {
			if _, star := proj.Exprs[0].(*logical.Star); star {
				if inner, ok := proj.Input.(*logical.Projection); ok {
					proj.Exprs = inner.Exprs
					proj.Input = inner.Input
					return true
				}
			}
		}
		return changed
	}
	switch v := (*p).(type) {
	case *logical.Filter:
		changed = removeRedundantProjection(&v.Input)
	case *logical.Sort:
		changed = removeRedundantProjection(&v.Input)
	case *logical.Limit:
		changed = removeRedundantProjection(&v.Input)
	case *logical.Distinct:
		changed = removeRedundantProjection(&v.Input)
	case *logical.Group:
		changed = removeRedundantProjection(&v.Input)
	case *logical.Having:
		changed = removeRedundantProjection(&v.Input)
	case *logical.With:
		changed = removeRedundantProjection(&v.Input)
	case *logical.Join:
		l := removeRedundantProjection(&v.Left)
		r := removeRedundantProjection(&v.Right)
		changed = l || r
	case *logical.SetOp:
		l := removeRedundantProjection(&v.Left)
		r := removeRedundantProjection(&v.Right)
		changed = l || r
	}
	return changed
}

// projectionPrune drops unreferenced simple columns and aliases from nested
// projections. The root projection is never pruned; it carries the
// user-visible column list.
func projectionPrune(p logical.Plan) bool {
	needed := map[string]bool{}
	collectNeeded(p, needed)
	changed := false
	pruneProjections(p, needed, true, &changed)
	return changed
}

func collectNeeded(p logical.Plan, out map[string]bool) {
	switch v := p.(type) {
	case *logical.Filter:
		collectExprCols(v.Predicate, out)
	case *logical.Having:
		collectExprCols(v.Predicate, out)
	case *logical.Sort:
		for _, it := range v.Items {
			collectExprCols(it.Expr, out)
		}
	case *logical.Group:
		for _, g := range v.GroupExprs {
			collectExprCols(g, out)
		}
	case *logical.Join:
		collectExprCols(v.On, out)
	}
	for _, in := range logical.Inputs(p) {
		collectNeeded(in, out)
	}
}

func collectExprCols(e logical.Expr, out map[string]bool) {
	switch v := e.(type) {
	case nil:
	case *logical.Column:
		out[baseColumn(v.Name)] = true
	case *logical.Alias:
		out[strings.ToLower(v.Name)] = true
		collectExprCols(v.Expr, out)
	case *logical.BinaryOp:
		collectExprCols(v.Left, out)
		collectExprCols(v.Right, out)
	case *logical.FuncCall:
		for _, a := range v.Args {
			collectExprCols(a, out)
		}
	case *logical.Not:
		collectExprCols(v.Expr, out)
	case *logical.IsNull:
		collectExprCols(v.Expr, out)
	case *logical.Like:
		collectExprCols(v.Expr, out)
		collectExprCols(v.Pattern, out)
	case *logical.InList:
		collectExprCols(v.Expr, out)
		for _, it := range v.List {
			collectExprCols(it, out)
		}
	case *logical.Case:
		collectExprCols(v.Operand, out)
		for _, wt := range v.WhenThen {
			collectExprCols(wt.When, out)
			collectExprCols(wt.Then, out)
		}
		collectExprCols(v.Else, out)
	case *logical.WindowFunc:
		for _, a := range v.Args {
			collectExprCols(a, out)
		}
		for _, pe := range v.PartitionBy {
			collectExprCols(pe, out)
		}
		for _, it := range v.OrderBy {
			collectExprCols(it.Expr, out)
		}
	}
}

func baseColumn(name string) string {
	parts := strings.Split(name, ".")
	return strings.ToLower(parts[len(parts)-1])
}

func pruneProjections(p logical.Plan, needed map[string]bool, isRoot bool, changed *bool) {
	if proj, ok := p.(*logical.Projection); ok {
		if !isRoot && len(needed) > 0 {
			kept := proj.Exprs[:0:0]
			for _, e := range proj.Exprs {
				keep := true
				switch v := e.(type) {
				case *logical.Alias:
					keep = needed[strings.ToLower(v.Name)]
				case *logical.Column:
					keep = needed[baseColumn(v.Name)]
				}
				if keep {
					kept = append(kept, e)
				}
			}
			if len(kept) != len(proj.Exprs) {
				proj.Exprs = kept
				*changed = true
			}
		}
		next := map[string]bool{}
		for _, e := range proj.Exprs {
			switch v := e.(type) {
			case *logical.Alias:
				next[strings.ToLower(v.Name)] = true
			case *logical.Column:
				next[baseColumn(v.Name)] = true
			}
		}
		pruneProjections(proj.Input, next, false, changed)
		return
	}
	for _, in := range logical.Inputs(p) {
		pruneProjections(in, needed, isRoot, changed)
	}
}

// limitIntoSubquery appends an outer LIMIT to an uncorrelated derived table
// that has none of its own, so the database bounds the inner scan too. Only
// offset-free limits qualify.
func limitIntoSubquery(p logical.Plan) bool {
	changed := false
	if lim, ok := p.(*logical.Limit); ok && lim.Offset == 0 {
		switch inner := lim.Input.(type) {
		case *logical.Projection:
			changed = limitIntoSubquery(inner.Input)
		case *logical.Distinct:
			changed = limitIntoSubquery(inner.Input)
		case *logical.Sort:
			changed = limitIntoSubquery(inner.Input)
		}
		if scan, ok := lim.Input.(*logical.SubqueryScan); ok {
			if !scan.Correlated && !strings.Contains(strings.ToLower(scan.SQL), " limit ") {
				scan.SQL = fmt.Sprintf("%s LIMIT %d", scan.SQL, lim.Limit)
				return true
			}
		}
		return changed
	}
	for _, in := range logical.Inputs(p) {
		if limitIntoSubquery(in) {
			changed = true
		}
	}
	return changed
}

// annotateCorrelation marks derived tables whose SQL references an outer
// table alias that the subquery does not define locally.
func annotateCorrelation(p logical.Plan) bool {
	aliases := map[string]struct{}{}
	logical.CollectAliases(p, aliases)
	if len(aliases) == 0 {
		return false
	}
	changed := false
	annotate(p, aliases, &changed)
	return changed
}

func annotate(p logical.Plan, aliases map[string]struct{}, changed *bool) {
	if scan, ok := p.(*logical.SubqueryScan); ok {
		if !scan.Correlated && parser.ReferencesOuterAlias(scan.SQL, aliases) {
			scan.Correlated = true
			*changed = true
		}
		return
	}
	for _, in := range logical.Inputs(p) {
		annotate(in, aliases, changed)
	}
}

// checkCTEReferences rejects CTEs that nothing references. References are
// counted in the main plan subtree and in the other CTE bodies.
func checkCTEReferences(p logical.Plan) error {
	with, ok := p.(*logical.With)
	if !ok {
		return nil
	}
	for i, cte := range with.CTEs {
		name := strings.ToLower(cte.Name)
		count := countCTERefs(with.Input, name)
		for j, other := range with.CTEs {
			if j != i && sqlReferencesName(other.SQL, name) {
				count++
			}
		}
		if count == 0 {
			return qerr.Semanticf("CTE %q is defined but never referenced", cte.Name)
		}
	}
	return nil
}

// inlineSingleUseCTEs replaces a CTE referenced exactly once in the main
// subtree (and nowhere in other CTE bodies) with an inline derived table,
// dropping the With wrapper when the last CTE goes.
func inlineSingleUseCTEs(p *logical.Plan) bool {
	changed := false
	with, ok := (*p).(*logical.With)
	if !ok {
		switch v := (*p).(type) {
		case *logical.Projection:
			return inlineSingleUseCTEs(&v.Input)
		case *logical.Filter:
			return inlineSingleUseCTEs(&v.Input)
		case *logical.Sort:
			return inlineSingleUseCTEs(&v.Input)
		case *logical.Limit:
			return inlineSingleUseCTEs(&v.Input)
		case *logical.Distinct:
			return inlineSingleUseCTEs(&v.Input)
		case *logical.Group:
			return inlineSingleUseCTEs(&v.Input)
		case *logical.Having:
			return inlineSingleUseCTEs(&v.Input)
		case *logical.Join:
			l := inlineSingleUseCTEs(&v.Left)
			r := inlineSingleUseCTEs(&v.Right)
			return l || r
		case *logical.SetOp:
			l := inlineSingleUseCTEs(&v.Left)
			r := inlineSingleUseCTEs(&v.Right)
			return l || r
		}
		return false
	}

	remaining := with.CTEs[:0:0]
	for i, cte := range with.CTEs {
		name := strings.ToLower(cte.Name)
		usedByPeer := false
		for j, other := range with.CTEs {
			if j != i && sqlReferencesName(other.SQL, name) {
				usedByPeer = true
				break
			}
		}
		if !usedByPeer && countCTERefs(with.Input, name) == 1 {
			inlineCTE(&with.Input, name, cte.SQL)
			changed = true
			continue
		}
		remaining = append(remaining, cte)
	}
	if changed {
		with.CTEs = remaining
		if len(with.CTEs) == 0 {
			*p = with.Input
		}
	}
	return changed
}

func countCTERefs(p logical.Plan, name string) int {
	switch v := p.(type) {
	case *logical.TableScan:
		target := v.Alias
		if target == "" {
			target = v.Table
		}
		if strings.ToLower(target) == name {
			return 1
		}
		return 0
	case *logical.SubqueryScan:
		if sqlReferencesName(v.SQL, name) {
			return 1
		}
		return 0
	}
	count := 0
	for _, in := range logical.Inputs(p) {
		count += countCTERefs(in, name)
	}
	return count
}

// sqlReferencesName reports whether the SQL text contains name as a whole
// identifier token.
func sqlReferencesName(sql, name string) bool {
	lowered := strings.ToLower(sql)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

func inlineCTE(p *logical.Plan, name, sql string) {
	switch v := (*p).(type) {
	case *logical.TableScan:
		target := v.Alias
		if target == "" {
			target = v.Table
		}
		if strings.EqualFold(target, name) {
			alias := v.Alias
			if alias == "" {
				alias = name
			}
			*p = &logical.SubqueryScan{SQL: sql, Alias: alias}
		}
	case *logical.SubqueryScan:
		if sqlReferencesName(v.SQL, name) {
			v.SQL = replaceIdent(v.SQL, name, "("+sql+")")
		}
	case *logical.Projection:
		inlineCTE(&v.Input, name, sql)
	case *logical.Filter:
		inlineCTE(&v.Input, name, sql)
	case *logical.Sort:
		inlineCTE(&v.Input, name, sql)
	case *logical.Limit:
		inlineCTE(&v.Input, name, sql)
	case *logical.Distinct:
		inlineCTE(&v.Input, name, sql)
	case *logical.Group:
		inlineCTE(&v.Input, name, sql)
	case *logical.Having:
		inlineCTE(&v.Input, name, sql)
	case *logical.With:
		inlineCTE(&v.Input, name, sql)
	case *logical.Join:
		inlineCTE(&v.Left, name, sql)
		inlineCTE(&v.Right, name, sql)
	case *logical.SetOp:
		inlineCTE(&v.Left, name, sql)
		inlineCTE(&v.Right, name, sql)
	}
}

// replaceIdent substitutes whole-identifier occurrences of name (case
// insensitive) in sql with repl.
func replaceIdent(sql, name, repl string) string {
	var b strings.Builder
	lowered := strings.ToLower(sql)
	n := len(name)
	for i := 0; i < len(sql); {
		if strings.HasPrefix(lowered[i:], name) &&
			(i == 0 || !isWordByte(sql[i-1])) &&
			(i+n >= len(sql) || !isWordByte(sql[i+n])) {
			b.WriteString(repl)
			i += n
			continue
		}
		b.WriteByte(sql[i])
		i++
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
