// Package parser turns a single SQL SELECT statement into a logical plan.
//
// Coverage is deliberately narrow: one SELECT with projection, FROM (table or
// derived table), at most one JOIN, WHERE, GROUP BY, HAVING, ORDER BY,
// LIMIT/OFFSET, DISTINCT, a leading WITH clause and top-level UNION [ALL].
// Anything else is a parse error; the caller is expected to fall back to its
// raw-SQL path.
package parser

import (
	"strconv"
	"strings"

	"github.com/satishbabariya/sqlbridge/query/logical"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

// Parse compiles raw SQL into a logical plan.
func Parse(raw string) (logical.Plan, error) {
	toks, err := lex(raw)
	if err != nil {
		return nil, err
	}
	p := &parser{src: raw, toks: toks}

	ctes, err := p.parseWith()
	if err != nil {
		return nil, err
	}

	plan, err := p.parseSelectCore()
	if err != nil {
		return nil, err
	}
	for p.atKw("union") {
		p.next()
		op := logical.Union
		if p.atKw("all") {
			p.next()
			op = logical.UnionAll
		}
		right, err := p.parseSelectCore()
		if err != nil {
			return nil, err
		}
		plan = &logical.SetOp{Left: plan, Right: right, Op: op}
	}

	p.acceptOp(";")
	if p.peek().kind != tokEOF {
		return nil, qerr.Parsef("unexpected trailing input near %q", p.peek().text)
	}

	if len(ctes) > 0 {
		plan = &logical.With{CTEs: ctes, Input: plan}
	}

	markCorrelated(plan)
	return plan, nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) peek2() token { return p.toks[min(p.pos+1, len(p.toks)-1)] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atKw(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *parser) acceptKw(kw string) bool {
	if p.atKw(kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectKw(kw string) error {
	if !p.acceptKw(kw) {
		return qerr.Parsef("expected %s near %q", strings.ToUpper(kw), p.peek().text)
	}
	return nil
}

func (p *parser) atOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) acceptOp(op string) bool {
	if p.atOp(op) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectOp(op string) error {
	if !p.acceptOp(op) {
		return qerr.Parsef("expected %q near %q", op, p.peek().text)
	}
	return nil
}

// reserved words that cannot serve as bare aliases.
var reserved = map[string]bool{
	"select": true, "from": true, "where": true, "group": true, "order": true,
	"having": true, "limit": true, "offset": true, "union": true, "join": true,
	"inner": true, "left": true, "right": true, "full": true, "outer": true,
	"cross": true, "on": true, "as": true, "and": true, "or": true, "not": true,
	"asc": true, "desc": true, "distinct": true, "with": true, "is": true,
	"in": true, "like": true, "case": true, "when": true, "then": true,
	"else": true, "end": true, "by": true, "all": true, "over": true,
	"between": true,
}

func (p *parser) atAlias() bool {
	t := p.peek()
	if t.kind == tokQuotedIdent {
		return true
	}
	return t.kind == tokIdent && !reserved[strings.ToLower(t.text)]
}

// captureParen consumes a balanced parenthesized group starting at the
// current "(" token and returns the raw source text inside the parens.
func (p *parser) captureParen() (string, error) {
	if !p.atOp("(") {
		return "", qerr.Parsef("expected %q near %q", "(", p.peek().text)
	}
	open := p.next()
	depth := 1
	innerStart := open.end
	for {
		t := p.peek()
		if t.kind == tokEOF {
			return "", qerr.Parsef("unbalanced parentheses")
		}
		if t.kind == tokOp && t.text == "(" {
			depth++
		}
		if t.kind == tokOp && t.text == ")" {
			depth--
			if depth == 0 {
				p.next()
				return strings.TrimSpace(p.src[innerStart:t.start]), nil
			}
		}
		p.next()
	}
}

// parseWith recognizes a single leading WITH clause. CTE bodies are kept as
// raw text, not recursively parsed; the rewrite engine decides what to do
// with them.
func (p *parser) parseWith() ([]logical.CTE, error) {
	if !p.acceptKw("with") {
		return nil, nil
	}
	var ctes []logical.CTE
	for {
		t := p.peek()
		if t.kind != tokIdent && t.kind != tokQuotedIdent {
			return nil, qerr.Parsef("expected CTE name near %q", t.text)
		}
		name := p.next().text
		if err := p.expectKw("as"); err != nil {
			return nil, err
		}
		body, err := p.captureParen()
		if err != nil {
			return nil, err
		}
		ctes = append(ctes, logical.CTE{Name: name, SQL: body})
		if !p.acceptOp(",") {
			break
		}
	}
	return ctes, nil
}

func (p *parser) parseSelectCore() (logical.Plan, error) {
	if err := p.expectKw("select"); err != nil {
		return nil, err
	}
	distinct := p.acceptKw("distinct")

	exprs, err := p.parseProjection()
	if err != nil {
		return nil, err
	}

	if err := p.expectKw("from"); err != nil {
		return nil, err
	}
	plan, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}

	// At most one JOIN with a simple right-hand table.
	if join, ok, err := p.parseJoin(plan); err != nil {
		return nil, err
	} else if ok {
		plan = join
		if kind, at := p.atJoinKeyword(); at {
			return nil, qerr.Parsef("multiple joins are not supported (second %s JOIN)", kind)
		}
	}

	if p.acceptKw("where") {
		pred, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		plan = &logical.Filter{Predicate: pred, Input: plan}
	}

	if p.atKw("group") {
		p.next()
		if err := p.expectKw("by"); err != nil {
			return nil, err
		}
		var groups []logical.Expr
		for {
			g, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			groups = append(groups, g)
			if !p.acceptOp(",") {
				break
			}
		}
		plan = &logical.Group{GroupExprs: groups, Input: plan}
	}

	if p.acceptKw("having") {
		pred, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		plan = &logical.Having{Predicate: pred, Input: plan}
	}

	plan = &logical.Projection{Exprs: exprs, Input: plan}
	if distinct {
		plan = &logical.Distinct{Input: plan}
	}

	if p.atKw("order") {
		p.next()
		if err := p.expectKw("by"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderItems()
		if err != nil {
			return nil, err
		}
		plan = &logical.Sort{Items: items, Input: plan}
	}

	if p.acceptKw("limit") {
		limit, err := p.parseUint()
		if err != nil {
			return nil, err
		}
		var offset uint64
		if p.acceptKw("offset") {
			offset, err = p.parseUint()
			if err != nil {
				return nil, err
			}
		}
		plan = &logical.Limit{Limit: limit, Offset: offset, Input: plan}
	}

	return plan, nil
}

func (p *parser) parseUint() (uint64, error) {
	t := p.peek()
	if t.kind != tokNumber {
		return 0, qerr.Parsef("expected number near %q", t.text)
	}
	p.next()
	v, err := strconv.ParseUint(t.text, 10, 64)
	if err != nil {
		return 0, qerr.Parsef("invalid integer %q", t.text)
	}
	return v, nil
}

func (p *parser) parseProjection() ([]logical.Expr, error) {
	var exprs []logical.Expr
	for {
		var item logical.Expr
		if p.atOp("*") {
			p.next()
			item = &logical.Star{}
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			item = e
			if p.acceptKw("as") {
				t := p.peek()
				if t.kind != tokIdent && t.kind != tokQuotedIdent {
					return nil, qerr.Parsef("expected alias near %q", t.text)
				}
				item = &logical.Alias{Expr: e, Name: p.next().text}
			} else if p.atAlias() {
				item = &logical.Alias{Expr: e, Name: p.next().text}
			}
		}
		exprs = append(exprs, item)
		if !p.acceptOp(",") {
			break
		}
	}
	return exprs, nil
}

func (p *parser) parseTableRef() (logical.Plan, error) {
	if p.atOp("(") {
		sql, err := p.captureParen()
		if err != nil {
			return nil, err
		}
		alias := "subq"
		if p.acceptKw("as") || p.atAlias() {
			t := p.peek()
			if t.kind != tokIdent && t.kind != tokQuotedIdent {
				return nil, qerr.Parsef("expected subquery alias near %q", t.text)
			}
			alias = p.next().text
		}
		return &logical.SubqueryScan{SQL: sql, Alias: alias}, nil
	}

	name, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}
	scan := &logical.TableScan{Table: name}
	if p.acceptKw("as") {
		t := p.peek()
		if t.kind != tokIdent && t.kind != tokQuotedIdent {
			return nil, qerr.Parsef("expected table alias near %q", t.text)
		}
		scan.Alias = p.next().text
	} else if p.atAlias() {
		scan.Alias = p.next().text
	}
	return scan, nil
}

func (p *parser) parseDottedName() (string, error) {
	t := p.peek()
	if t.kind != tokIdent && t.kind != tokQuotedIdent {
		return "", qerr.Parsef("expected identifier near %q", t.text)
	}
	name := p.next().text
	for p.atOp(".") {
		p.next()
		t = p.peek()
		if t.kind != tokIdent && t.kind != tokQuotedIdent {
			return "", qerr.Parsef("expected identifier after %q.", name)
		}
		name += "." + p.next().text
	}
	return name, nil
}

func (p *parser) atJoinKeyword() (string, bool) {
	for _, kw := range []string{"join", "inner", "left", "right", "full", "cross"} {
		if p.atKw(kw) {
			return strings.ToUpper(kw), true
		}
	}
	return "", false
}

func (p *parser) parseJoin(left logical.Plan) (logical.Plan, bool, error) {
	kind := logical.JoinInner
	switch {
	case p.acceptKw("join"):
	case p.acceptKw("inner"):
		if err := p.expectKw("join"); err != nil {
			return nil, false, err
		}
	case p.acceptKw("left"):
		kind = logical.JoinLeft
		p.acceptKw("outer")
		if err := p.expectKw("join"); err != nil {
			return nil, false, err
		}
	case p.acceptKw("right"):
		kind = logical.JoinRight
		p.acceptKw("outer")
		if err := p.expectKw("join"); err != nil {
			return nil, false, err
		}
	case p.acceptKw("full"):
		kind = logical.JoinFull
		p.acceptKw("outer")
		if err := p.expectKw("join"); err != nil {
			return nil, false, err
		}
	case p.atKw("cross"):
		return nil, false, qerr.Parsef("CROSS JOIN is not supported")
	default:
		return nil, false, nil
	}

	right, err := p.parseTableRef()
	if err != nil {
		return nil, false, err
	}
	var on logical.Expr
	if p.acceptKw("on") {
		on, err = p.parseExpr()
		if err != nil {
			return nil, false, err
		}
	}
	return &logical.Join{Left: left, Right: right, On: on, Kind: kind}, true, nil
}

func (p *parser) parseOrderItems() ([]logical.SortItem, error) {
	var items []logical.SortItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := logical.SortItem{Expr: e, Asc: true}
		if p.acceptKw("desc") {
			item.Asc = false
		} else {
			p.acceptKw("asc")
		}
		items = append(items, item)
		if !p.acceptOp(",") {
			break
		}
	}
	return items, nil
}

// Expression grammar, loosest binding first: OR, AND, NOT, comparison
// (including LIKE / IS NULL / IN), additive, multiplicative, primary.

func (p *parser) parseExpr() (logical.Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (logical.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKw("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logical.BinaryOp{Left: left, Op: "OR", Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (logical.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptKw("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &logical.BinaryOp{Left: left, Op: "AND", Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (logical.Expr, error) {
	if p.acceptKw("not") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &logical.Not{Expr: inner}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (logical.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	if t.kind == tokOp {
		switch t.text {
		case "=", "!=", "<>", "<", ">", "<=", ">=", "~":
			p.next()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &logical.BinaryOp{Left: left, Op: t.text, Right: right}, nil
		}
	}

	negated := false
	if p.atKw("not") && (keywordAfterNot(p.peek2())) {
		p.next()
		negated = true
	}

	switch {
	case p.acceptKw("like"):
		pattern, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &logical.Like{Expr: left, Pattern: pattern, Negated: negated}, nil
	case p.acceptKw("in"):
		if err := p.expectOp("("); err != nil {
			return nil, err
		}
		var list []logical.Expr
		for {
			item, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			list = append(list, item)
			if !p.acceptOp(",") {
				break
			}
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &logical.InList{Expr: left, List: list, Negated: negated}, nil
	case p.acceptKw("is"):
		neg := p.acceptKw("not")
		if err := p.expectKw("null"); err != nil {
			return nil, err
		}
		return &logical.IsNull{Expr: left, Negated: neg}, nil
	}
	if negated {
		return nil, qerr.Parsef("expected LIKE or IN after NOT near %q", p.peek().text)
	}
	return left, nil
}

func keywordAfterNot(t token) bool {
	return t.kind == tokIdent &&
		(strings.EqualFold(t.text, "like") || strings.EqualFold(t.text, "in"))
}

func (p *parser) parseAdditive() (logical.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind == tokOp && (t.text == "+" || t.text == "-" || t.text == "||") {
			p.next()
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = &logical.BinaryOp{Left: left, Op: t.text, Right: right}
			continue
		}
		return left, nil
	}
}

func (p *parser) parseMultiplicative() (logical.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind == tokOp && (t.text == "*" || t.text == "/" || t.text == "%") {
			p.next()
			right, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			left = &logical.BinaryOp{Left: left, Op: t.text, Right: right}
			continue
		}
		return left, nil
	}
}

func (p *parser) parsePrimary() (logical.Expr, error) {
	t := p.peek()
	switch {
	case t.kind == tokNumber:
		p.next()
		return &logical.Number{Text: t.text}, nil
	case t.kind == tokString:
		p.next()
		return &logical.StringLiteral{Value: t.text}, nil
	case t.kind == tokOp && t.text == "-" && p.peek2().kind == tokNumber:
		p.next()
		num := p.next()
		return &logical.Number{Text: "-" + num.text}, nil
	case t.kind == tokOp && t.text == "*":
		p.next()
		return &logical.Star{}, nil
	case t.kind == tokOp && t.text == "(":
		// Parenthesized subquery or nested expression.
		if p.peek2().kind == tokIdent && strings.EqualFold(p.peek2().text, "select") {
			sql, err := p.captureParen()
			if err != nil {
				return nil, err
			}
			return &logical.Subquery{SQL: sql}, nil
		}
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case p.atKw("case"):
		return p.parseCase()
	case p.atKw("null"):
		p.next()
		return &logical.Null{}, nil
	case p.atKw("true"):
		p.next()
		return &logical.Boolean{Value: true}, nil
	case p.atKw("false"):
		p.next()
		return &logical.Boolean{Value: false}, nil
	case t.kind == tokIdent || t.kind == tokQuotedIdent:
		return p.parseIdentExpr()
	}
	return nil, qerr.Parsef("unexpected token %q in expression", t.text)
}

func (p *parser) parseCase() (logical.Expr, error) {
	if err := p.expectKw("case"); err != nil {
		return nil, err
	}
	out := &logical.Case{}
	if !p.atKw("when") {
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out.Operand = operand
	}
	for p.acceptKw("when") {
		when, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("then"); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out.WhenThen = append(out.WhenThen, logical.WhenThen{When: when, Then: then})
	}
	if len(out.WhenThen) == 0 {
		return nil, qerr.Parsef("CASE without WHEN arm")
	}
	if p.acceptKw("else") {
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out.Else = els
	}
	if err := p.expectKw("end"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseIdentExpr() (logical.Expr, error) {
	name, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}
	if !p.atOp("(") {
		return &logical.Column{Name: name}, nil
	}

	p.next()
	var args []logical.Expr
	if !p.atOp(")") {
		for {
			if p.atOp("*") {
				p.next()
				args = append(args, &logical.Star{})
			} else {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
			}
			if !p.acceptOp(",") {
				break
			}
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}

	if p.acceptKw("over") {
		return p.parseWindowSpec(name, args)
	}
	return &logical.FuncCall{Name: name, Args: args}, nil
}

func (p *parser) parseWindowSpec(name string, args []logical.Expr) (logical.Expr, error) {
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	wf := &logical.WindowFunc{Name: name, Args: args}

	if p.atKw("partition") {
		p.next()
		if err := p.expectKw("by"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			wf.PartitionBy = append(wf.PartitionBy, e)
			if !p.acceptOp(",") {
				break
			}
		}
	}
	if p.atKw("order") {
		p.next()
		if err := p.expectKw("by"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderItems()
		if err != nil {
			return nil, err
		}
		wf.OrderBy = items
	}

	// Whatever remains before the closing paren is the frame clause; kept
	// as raw text.
	if !p.atOp(")") {
		frameStart := p.peek().start
		depth := 1
		var end int
		for {
			t := p.peek()
			if t.kind == tokEOF {
				return nil, qerr.Parsef("unbalanced parentheses in window specification")
			}
			if t.kind == tokOp && t.text == "(" {
				depth++
			}
			if t.kind == tokOp && t.text == ")" {
				depth--
				if depth == 0 {
					end = t.start
					break
				}
			}
			p.next()
		}
		wf.Frame = strings.TrimSpace(p.src[frameStart:end])
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return wf, nil
}

// markCorrelated flags subqueries whose raw text references an outer table
// alias in qualified position ("alias."). This is the cheap first pass; the
// rewrite engine refines it with local-alias shadowing.
func markCorrelated(plan logical.Plan) {
	aliases := map[string]struct{}{}
	logical.CollectAliases(plan, aliases)
	if len(aliases) == 0 {
		return
	}
	walkSubqueries(plan, func(sql string, correlated *bool) {
		if *correlated {
			return
		}
		lowered := strings.ToLower(sql)
		for a := range aliases {
			if strings.Contains(lowered, a+".") {
				*correlated = true
				return
			}
		}
	})
}

func walkSubqueries(plan logical.Plan, fn func(sql string, correlated *bool)) {
	switch v := plan.(type) {
	case *logical.SubqueryScan:
		fn(v.SQL, &v.Correlated)
	case *logical.Projection:
		for _, e := range v.Exprs {
			walkExprSubqueries(e, fn)
		}
	case *logical.Filter:
		walkExprSubqueries(v.Predicate, fn)
	case *logical.Having:
		walkExprSubqueries(v.Predicate, fn)
	case *logical.Join:
		walkExprSubqueries(v.On, fn)
	}
	for _, in := range logical.Inputs(plan) {
		walkSubqueries(in, fn)
	}
}

func walkExprSubqueries(e logical.Expr, fn func(sql string, correlated *bool)) {
	switch v := e.(type) {
	case nil:
	case *logical.Subquery:
		fn(v.SQL, &v.Correlated)
	case *logical.BinaryOp:
		walkExprSubqueries(v.Left, fn)
		walkExprSubqueries(v.Right, fn)
	case *logical.FuncCall:
		for _, a := range v.Args {
			walkExprSubqueries(a, fn)
		}
	case *logical.Alias:
		walkExprSubqueries(v.Expr, fn)
	case *logical.Not:
		walkExprSubqueries(v.Expr, fn)
	case *logical.IsNull:
		walkExprSubqueries(v.Expr, fn)
	case *logical.Like:
		walkExprSubqueries(v.Expr, fn)
		walkExprSubqueries(v.Pattern, fn)
	case *logical.InList:
		walkExprSubqueries(v.Expr, fn)
		for _, it := range v.List {
			walkExprSubqueries(it, fn)
		}
	case *logical.Case:
		walkExprSubqueries(v.Operand, fn)
		for _, wt := range v.WhenThen {
			walkExprSubqueries(wt.When, fn)
			walkExprSubqueries(wt.Then, fn)
		}
		walkExprSubqueries(v.Else, fn)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
