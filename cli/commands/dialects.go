package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satishbabariya/sqlbridge/cli/internal/ui"
	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/executor"
	"github.com/satishbabariya/sqlbridge/query/sqlgen"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "Show the capability matrix of the supported databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialects()
		},
	}
}

func runDialects() error {
	registry := executor.DefaultRegistry(executor.NewPools(), zap.NewNop())

	headers := []string{"database", "windows", "cte", "full join", "json", "pagination", "ident quoting"}
	var rows [][]string
	for _, dbType := range query.AllDatabaseTypes() {
		exec, err := registry.Get(dbType)
		if err != nil {
			return err
		}
		d, err := sqlgen.ForType(dbType)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			dbType.String(),
			yesNo(exec.SupportsFeature(executor.FeatureWindowFunctions)),
			yesNo(exec.SupportsFeature(executor.FeatureCTE)),
			yesNo(exec.SupportsFeature(executor.FeatureFullOuterJoin)),
			yesNo(exec.SupportsFeature(executor.FeatureJSONOperators)),
			exec.PaginationStrategy().String(),
			d.QuoteIdent("name"),
		})
	}
	ui.PrintTable(headers, rows)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
