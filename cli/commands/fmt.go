package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlbridge/query/tools"
)

// NewFmtCommand creates the fmt command.
func NewFmtCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "fmt <sql>",
		Aliases: []string{"format"},
		Short:   "Break a SQL statement into one clause per line",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, ok := tools.FormatSQL(args[0])
			if !ok {
				fmt.Println(args[0])
				return nil
			}
			fmt.Println(out)
			return nil
		},
	}
}
