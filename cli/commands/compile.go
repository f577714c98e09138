package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/cache"
	"github.com/satishbabariya/sqlbridge/query/compiler"
	"github.com/satishbabariya/sqlbridge/query/rewrite"
	"github.com/satishbabariya/sqlbridge/query/tools"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	var (
		dbName      string
		page        uint64
		pageSize    uint64
		noAutoLimit bool
		explain     bool
	)

	cmd := &cobra.Command{
		Use:   "compile <sql>",
		Short: "Compile a SELECT statement for a target database",
		Long:  "Parse, rewrite and emit a SELECT statement in the target dialect without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pagination *rewrite.Pagination
			if pageSize > 0 {
				pagination = &rewrite.Pagination{Page: page, PageSize: pageSize}
			}
			return runCompile(args[0], dbName, pagination, !noAutoLimit, explain)
		},
	}

	cmd.Flags().StringVar(&dbName, "db", "postgres", "Target database type (mysql, postgres, sqlite, mssql, mongodb, redis)")
	cmd.Flags().Uint64Var(&page, "page", 0, "Zero-based page number")
	cmd.Flags().Uint64Var(&pageSize, "page-size", 0, "Rows per page; 0 disables pagination")
	cmd.Flags().BoolVar(&noAutoLimit, "no-auto-limit", false, "Do not inject the default row limit")
	cmd.Flags().BoolVar(&explain, "explain", false, "Print the rewritten plan, applied rules and cache diagnostics")

	return cmd
}

func runCompile(sql, dbName string, pagination *rewrite.Pagination, autoLimit, explain bool) error {
	dbType, err := query.ParseDatabaseType(dbName)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	planCache := cache.New(cfg.CacheSize)
	c := compiler.New(planCache, compiler.Options{})

	res, err := c.Compile(sql, dbType, pagination, autoLimit)
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	for _, msg := range tools.LintSQL(sql) {
		color.Yellow("%s: %s", msg.Severity, msg.Message)
		if msg.Hint != "" {
			fmt.Printf("  hint: %s\n", msg.Hint)
		}
	}

	color.Green("%s", res.SQL)
	if len(res.Headers) > 0 {
		fmt.Printf("headers: %s\n", strings.Join(res.Headers, ", "))
	}

	if explain {
		d := res.Diagnostics
		color.Cyan("\nplan:")
		fmt.Println(d.PlanDump)
		fmt.Printf("applied rules:   %s\n", strings.Join(d.AppliedRules, ", "))
		fmt.Printf("structural hash: %016x\n", d.StructuralHash)
		fmt.Printf("cache key:       %s\n", d.CacheKey)
		fmt.Printf("complexity:      nodes=%d depth=%d subqueries=%d correlated=%d windows=%d\n",
			d.Complexity.Nodes, d.Complexity.Depth, d.Complexity.Subqueries,
			d.Complexity.Correlated, d.Complexity.WindowFuncs)
		if len(d.ResidualCTEs) > 0 {
			fmt.Printf("residual CTEs:   %s\n", strings.Join(d.ResidualCTEs, ", "))
		}
		stats := planCache.GetStats()
		fmt.Printf("cache:           %d/%d entries, %d hits, %d misses\n",
			stats.Size, stats.MaxSize, stats.Hits, stats.Misses)
	}

	return nil
}
