package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlbridge/query/tools"
)

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <sql>",
		Short: "Run heuristic checks over a SQL statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(args[0])
		},
	}
}

func runLint(sql string) error {
	msgs := tools.LintSQL(sql)
	if len(msgs) == 0 {
		color.Green("✓ No findings")
		return nil
	}
	for _, msg := range msgs {
		switch msg.Severity {
		case tools.SeverityWarning, tools.SeverityError:
			color.Yellow("%s: %s", msg.Severity, msg.Message)
		default:
			fmt.Printf("%s: %s\n", msg.Severity, msg.Message)
		}
		if msg.Hint != "" {
			fmt.Printf("  hint: %s\n", msg.Hint)
		}
	}
	return nil
}
