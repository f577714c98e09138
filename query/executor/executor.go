// Package executor provides database-agnostic query execution.
//
// Each database type implements the Executor interface; the registry
// dispatches to the right one. Executors are stateless apart from their
// connection providers, so a single instance serves all connections.
package executor

import (
	"context"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

// Result is a uniform tabular query result.
type Result struct {
	Headers []string
	Rows    [][]string
}

// Feature enumerates SQL features that not every database supports.
type Feature int

const (
	FeatureWindowFunctions Feature = iota
	FeatureCTE
	FeatureFullOuterJoin
	FeatureJSONOperators
)

// PaginationStrategy describes how a database pages results.
type PaginationStrategy int

const (
	// PaginateLimitOffset is LIMIT n OFFSET m (PostgreSQL, MySQL, SQLite).
	PaginateLimitOffset PaginationStrategy = iota
	// PaginateTopOffset is SELECT TOP n / OFFSET ... FETCH (MS SQL Server).
	PaginateTopOffset
	// PaginateSkipLimit is MongoDB-style skip/limit.
	PaginateSkipLimit
)

func (s PaginationStrategy) String() string {
	switch s {
	case PaginateLimitOffset:
		return "limit/offset"
	case PaginateTopOffset:
		return "top/offset"
	case PaginateSkipLimit:
		return "skip/limit"
	}
	return "unknown"
}

// Executor runs already-emitted queries against one database type.
type Executor interface {
	// DatabaseType returns the database type this executor handles.
	DatabaseType() query.DatabaseType

	// ExecuteQuery runs sql against the connection identified by
	// connectionID. databaseName selects the database/schema when the
	// backend supports switching; "" leaves the connection's default.
	ExecuteQuery(ctx context.Context, sql, databaseName string, connectionID int64) (Result, error)

	// SupportsFeature reports whether the backing database supports a
	// SQL feature.
	SupportsFeature(f Feature) bool

	// PaginationStrategy returns how this database pages results.
	PaginationStrategy() PaginationStrategy

	// ValidateQuery is a fail-closed gate run before execution.
	ValidateQuery(sql string) error
}

// Registry maps database types to executors.
type Registry struct {
	executors map[query.DatabaseType]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[query.DatabaseType]Executor)}
}

// Register adds an executor, replacing any previous one for the same type.
func (r *Registry) Register(e Executor) {
	r.executors[e.DatabaseType()] = e
}

// Get returns the executor for a database type.
func (r *Registry) Get(dbType query.DatabaseType) (Executor, error) {
	e, ok := r.executors[dbType]
	if !ok {
		return nil, qerr.Unsupportedf("no executor registered for database type %q", dbType)
	}
	return e, nil
}

// Types lists the registered database types.
func (r *Registry) Types() []query.DatabaseType {
	out := make([]query.DatabaseType, 0, len(r.executors))
	for t := range r.executors {
		out = append(out, t)
	}
	return out
}

// defaultFeatures is the shared capability matrix; executors override
// entries where the database differs.
func defaultFeatures(dbType query.DatabaseType, f Feature) bool {
	switch f {
	case FeatureWindowFunctions:
		return dbType == query.PostgreSQL || dbType == query.MySQL ||
			dbType == query.MsSQL || dbType == query.SQLite
	case FeatureCTE:
		return dbType.IsSQL()
	case FeatureFullOuterJoin:
		return dbType == query.PostgreSQL || dbType == query.MsSQL
	case FeatureJSONOperators:
		return dbType == query.PostgreSQL || dbType == query.MySQL ||
			dbType == query.MongoDB
	}
	return false
}

func strategyFor(dbType query.DatabaseType) PaginationStrategy {
	switch dbType {
	case query.MsSQL:
		return PaginateTopOffset
	case query.MongoDB:
		return PaginateSkipLimit
	default:
		return PaginateLimitOffset
	}
}
