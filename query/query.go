// Package query defines the database type tags shared by the compilation
// pipeline and the execution layer.
package query

import (
	"fmt"
	"strings"
)

// DatabaseType identifies a target backend for SQL emission and execution.
type DatabaseType string

const (
	MySQL      DatabaseType = "mysql"
	PostgreSQL DatabaseType = "postgresql"
	SQLite     DatabaseType = "sqlite"
	MsSQL      DatabaseType = "mssql"
	MongoDB    DatabaseType = "mongodb"
	Redis      DatabaseType = "redis"
)

// AllDatabaseTypes lists every supported backend in registry order.
func AllDatabaseTypes() []DatabaseType {
	return []DatabaseType{MySQL, PostgreSQL, SQLite, MsSQL, MongoDB, Redis}
}

// ParseDatabaseType maps provider names (including common aliases) to a
// DatabaseType.
func ParseDatabaseType(provider string) (DatabaseType, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgresql", "postgres", "pg":
		return PostgreSQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mssql", "sqlserver":
		return MsSQL, nil
	case "mongodb", "mongo":
		return MongoDB, nil
	case "redis":
		return Redis, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (t DatabaseType) String() string { return string(t) }

// IsSQL reports whether the backend speaks real SQL, as opposed to the
// SQL-subset translators used for MongoDB and Redis.
func (t DatabaseType) IsSQL() bool {
	switch t {
	case MySQL, PostgreSQL, SQLite, MsSQL:
		return true
	}
	return false
}
