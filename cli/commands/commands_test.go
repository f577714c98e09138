package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlbridge/query"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"compile", "run", "dialects", "lint", "fmt"} {
		assert.True(t, names[want], want)
	}
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewCompileCommand()
	for _, flag := range []string{"db", "page", "page-size", "no-auto-limit", "explain"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), flag)
	}

	// Requires exactly one SQL argument.
	require.Error(t, cmd.Args(cmd, nil))
	require.NoError(t, cmd.Args(cmd, []string{"SELECT 1"}))
}

func TestDriverNames(t *testing.T) {
	assert.Equal(t, "mysql", driverName(query.MySQL))
	assert.Equal(t, "postgres", driverName(query.PostgreSQL))
	assert.Equal(t, "sqlite3", driverName(query.SQLite))
	assert.Equal(t, "sqlserver", driverName(query.MsSQL))
}

func TestRunCompile(t *testing.T) {
	err := runCompile("SELECT id FROM users", "postgres", nil, true, true)
	require.NoError(t, err)

	err = runCompile("SELECT id FROM", "postgres", nil, true, false)
	assert.Error(t, err)

	err = runCompile("SELECT id FROM users", "oracle", nil, true, false)
	assert.Error(t, err)
}
