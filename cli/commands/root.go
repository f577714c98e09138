// Package commands implements CLI commands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlbridge/internal/config"
)

var (
	// Version information (set by build)
	Version = "dev"
	Commit  = "unknown"
)

// NewRootCommand builds the sqlbridge command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "sqlbridge",
		Short:   "SQL compilation pipeline for multiple database backends",
		Long:    "sqlbridge parses a SELECT statement, rewrites it and emits dialect-correct SQL for MySQL, PostgreSQL, SQLite, SQL Server, MongoDB and Redis",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
	}

	rootCmd.AddCommand(NewCompileCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewDialectsCommand())
	rootCmd.AddCommand(NewLintCommand())
	rootCmd.AddCommand(NewFmtCommand())

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		return &config.Config{AutoLimit: true, AutoLimitRows: 1000, CacheSize: 256}
	}
	return cfg
}
