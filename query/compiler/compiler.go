// Package compiler ties the pipeline together: parse, rewrite, cache and
// emit. Callers treat any error as "use the raw SQL path instead".
package compiler

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/cache"
	"github.com/satishbabariya/sqlbridge/query/executor"
	"github.com/satishbabariya/sqlbridge/query/logical"
	"github.com/satishbabariya/sqlbridge/query/parser"
	"github.com/satishbabariya/sqlbridge/query/rewrite"
	"github.com/satishbabariya/sqlbridge/query/sqlgen"
)

// Options configures a Compiler.
type Options struct {
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Compiler compiles single SELECT statements into dialect-specific SQL.
// A nil plan cache disables caching.
type Compiler struct {
	cache  *cache.PlanCache
	logger *zap.Logger
}

// New creates a compiler around a plan cache.
func New(planCache *cache.PlanCache, opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{cache: planCache, logger: logger}
}

// Result is a successful compilation.
type Result struct {
	// SQL is the emitted statement for the target dialect.
	SQL string
	// Headers are the inferred result column names; empty means the
	// projection is a wildcard and headers are only known at runtime.
	Headers []string
	// Diagnostics describes how the result was produced.
	Diagnostics Diagnostics
}

// Diagnostics surfaces what the pipeline did, for debug panels and tests.
type Diagnostics struct {
	AppliedRules   []string
	StructuralHash uint64
	CacheKey       string
	RawCacheKey    string
	CacheHit       bool
	ResidualCTEs   []string
	PlanDump       string
	Complexity     logical.Complexity
}

// Compile turns raw SQL into dialect SQL plus inferred headers. Compiling
// the same query twice yields byte-identical SQL; the second call is served
// from the cache when one is configured.
func (c *Compiler) Compile(raw string, dbType query.DatabaseType, pagination *rewrite.Pagination, injectAutoLimit bool) (Result, error) {
	rawKey := cache.RawKey(raw, dbType.String(), pagination, injectAutoLimit)
	if c.cache != nil {
		if entry, ok := c.cache.Get(rawKey); ok {
			return c.cachedResult(entry, rawKey, pagination, injectAutoLimit, dbType), nil
		}
	}

	plan, err := parser.Parse(raw)
	if err != nil {
		return Result{}, err
	}

	applied, err := rewrite.Apply(&plan, injectAutoLimit, pagination)
	if err != nil {
		return Result{}, err
	}

	hash := logical.StructuralHash(plan)
	key := cache.Key(hash, dbType.String(), pagination, injectAutoLimit)
	if c.cache != nil {
		if entry, ok := c.cache.Get(key); ok {
			res := c.cachedResult(entry, rawKey, pagination, injectAutoLimit, dbType)
			res.Diagnostics.AppliedRules = applied
			c.cache.Put(rawKey, entry)
			return res, nil
		}
	}

	headers := inferHeaders(plan)
	sql, err := sqlgen.EmitSQL(plan, dbType)
	if err != nil {
		return Result{}, err
	}

	if c.cache != nil {
		entry := cache.Entry{Plan: plan, SQL: sql, Headers: headers}
		c.cache.Put(key, entry)
		c.cache.Put(rawKey, entry)
	}

	c.logger.Debug("compiled query",
		zap.String("db_type", dbType.String()),
		zap.Uint64("structural_hash", hash),
		zap.Strings("applied_rules", applied))

	return Result{
		SQL:     sql,
		Headers: headers,
		Diagnostics: Diagnostics{
			AppliedRules:   applied,
			StructuralHash: hash,
			CacheKey:       key,
			RawCacheKey:    rawKey,
			ResidualCTEs:   residualCTEs(plan),
			PlanDump:       logical.Dump(plan),
			Complexity:     logical.Measure(plan),
		},
	}, nil
}

func (c *Compiler) cachedResult(entry cache.Entry, rawKey string, pagination *rewrite.Pagination, injectAutoLimit bool, dbType query.DatabaseType) Result {
	hash := logical.StructuralHash(entry.Plan)
	return Result{
		SQL:     entry.SQL,
		Headers: entry.Headers,
		Diagnostics: Diagnostics{
			StructuralHash: hash,
			CacheKey:       cache.Key(hash, dbType.String(), pagination, injectAutoLimit),
			RawCacheKey:    rawKey,
			CacheHit:       true,
			ResidualCTEs:   residualCTEs(entry.Plan),
			PlanDump:       logical.Dump(entry.Plan),
			Complexity:     logical.Measure(entry.Plan),
		},
	}
}

// Execute compiles raw SQL and runs it through the registered executor for
// the database type, applying the executor's validation gate first.
func (c *Compiler) Execute(ctx context.Context, raw string, dbType query.DatabaseType, connectionID int64, databaseName string, pagination *rewrite.Pagination, injectAutoLimit bool, registry *executor.Registry) (executor.Result, error) {
	compiled, err := c.Compile(raw, dbType, pagination, injectAutoLimit)
	if err != nil {
		return executor.Result{}, err
	}

	exec, err := registry.Get(dbType)
	if err != nil {
		return executor.Result{}, err
	}
	if err := exec.ValidateQuery(compiled.SQL); err != nil {
		return executor.Result{}, err
	}

	res, err := exec.ExecuteQuery(ctx, compiled.SQL, databaseName, connectionID)
	if err != nil {
		return executor.Result{}, err
	}
	// Prefer compile-time headers when the driver reports none.
	if len(res.Headers) == 0 && len(compiled.Headers) > 0 {
		res.Headers = compiled.Headers
	}
	return res, nil
}

func residualCTEs(plan logical.Plan) []string {
	with, ok := plan.(*logical.With)
	if !ok {
		return nil
	}
	names := make([]string, len(with.CTEs))
	for i, cte := range with.CTEs {
		names[i] = cte.Name
	}
	return names
}

// inferHeaders predicts result column names from the projection. A wildcard
// anywhere makes the full set unknowable, so it returns nil and the caller
// falls back to driver-reported columns.
func inferHeaders(plan logical.Plan) []string {
	exprs := findProjection(plan)
	if exprs == nil {
		return nil
	}
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		switch v := e.(type) {
		case *logical.Star:
			return nil
		case *logical.Alias:
			out = append(out, v.Name)
		case *logical.Column:
			parts := strings.Split(v.Name, ".")
			out = append(out, parts[len(parts)-1])
		case *logical.FuncCall:
			out = append(out, strings.ToLower(v.Name))
		case *logical.WindowFunc:
			out = append(out, strings.ToLower(v.Name))
		case *logical.Number:
			out = append(out, v.Text)
		case *logical.StringLiteral:
			out = append(out, "literal")
		case *logical.Boolean:
			out = append(out, "bool")
		case *logical.Null:
			out = append(out, "null")
		case *logical.Not:
			out = append(out, "not")
		case *logical.IsNull:
			out = append(out, "is_null")
		case *logical.Like:
			out = append(out, "like")
		case *logical.InList:
			out = append(out, "in_list")
		case *logical.Case:
			out = append(out, "case")
		case *logical.Subquery:
			out = append(out, "subquery")
		default:
			out = append(out, "expr")
		}
	}
	return out
}

func findProjection(p logical.Plan) []logical.Expr {
	switch v := p.(type) {
	case *logical.Projection:
		return v.Exprs
	case *logical.Filter:
		return findProjection(v.Input)
	case *logical.Sort:
		return findProjection(v.Input)
	case *logical.Limit:
		return findProjection(v.Input)
	case *logical.Distinct:
		return findProjection(v.Input)
	case *logical.Group:
		return findProjection(v.Input)
	case *logical.Having:
		return findProjection(v.Input)
	case *logical.With:
		return findProjection(v.Input)
	case *logical.Join:
		return findProjection(v.Left)
	case *logical.SetOp:
		return findProjection(v.Left)
	}
	return nil
}
