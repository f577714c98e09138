package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

// sqlExec is the shared engine behind the database/sql-backed executors.
// Per-database behavior is the type tag and the database-switch statement.
type sqlExec struct {
	dbType  query.DatabaseType
	pools   PoolProvider
	logger  *zap.Logger
	useStmt func(databaseName string) string // "" skips switching
}

func (e *sqlExec) DatabaseType() query.DatabaseType { return e.dbType }

func (e *sqlExec) SupportsFeature(f Feature) bool { return defaultFeatures(e.dbType, f) }

func (e *sqlExec) PaginationStrategy() PaginationStrategy { return strategyFor(e.dbType) }

func (e *sqlExec) ValidateQuery(sql string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))
	if strings.HasPrefix(trimmed, "DROP ") {
		return qerr.Semanticf("DROP statements are not allowed through the query executor")
	}
	return nil
}

func (e *sqlExec) ExecuteQuery(ctx context.Context, sqlText, databaseName string, connectionID int64) (Result, error) {
	e.logger.Debug("executing query",
		zap.String("db_type", e.dbType.String()),
		zap.Int64("connection_id", connectionID),
		zap.String("sql", sqlText))

	db, err := e.pools.Pool(connectionID)
	if err != nil {
		return Result{}, err
	}

	if databaseName != "" && e.useStmt != nil {
		if use := e.useStmt(databaseName); use != "" {
			if _, err := db.ExecContext(ctx, use); err != nil {
				return Result{}, qerr.Executionf(use, err)
			}
		}
	}

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, qerr.Executionf(sqlText, err)
	}
	defer rows.Close()

	res, err := collectRows(rows)
	if err != nil {
		return Result{}, qerr.Executionf(sqlText, err)
	}

	e.logger.Debug("query returned",
		zap.String("db_type", e.dbType.String()),
		zap.Int("rows", len(res.Rows)),
		zap.Int("columns", len(res.Headers)))
	return res, nil
}

// NewMySQLExecutor creates the MySQL executor. Drivers: go-sql-driver/mysql.
func NewMySQLExecutor(pools PoolProvider, logger *zap.Logger) Executor {
	return &sqlExec{
		dbType: query.MySQL,
		pools:  pools,
		logger: logger,
		useStmt: func(db string) string {
			return fmt.Sprintf("USE `%s`", strings.ReplaceAll(db, "`", "``"))
		},
	}
}

// NewPostgresExecutor creates the PostgreSQL executor. Drivers: lib/pq.
// PostgreSQL cannot switch databases on a live connection, so databaseName
// selects the schema via search_path instead.
func NewPostgresExecutor(pools PoolProvider, logger *zap.Logger) Executor {
	return &sqlExec{
		dbType: query.PostgreSQL,
		pools:  pools,
		logger: logger,
		useStmt: func(db string) string {
			return fmt.Sprintf(`SET search_path TO "%s"`, strings.ReplaceAll(db, `"`, `""`))
		},
	}
}

// NewSQLiteExecutor creates the SQLite executor. Drivers: mattn/go-sqlite3.
// SQLite is single-database per file; databaseName is ignored.
func NewSQLiteExecutor(pools PoolProvider, logger *zap.Logger) Executor {
	return &sqlExec{
		dbType: query.SQLite,
		pools:  pools,
		logger: logger,
	}
}

// NewMsSQLExecutor creates the SQL Server executor. Drivers:
// microsoft/go-mssqldb.
func NewMsSQLExecutor(pools PoolProvider, logger *zap.Logger) Executor {
	return &sqlExec{
		dbType: query.MsSQL,
		pools:  pools,
		logger: logger,
		useStmt: func(db string) string {
			return fmt.Sprintf("USE [%s]", strings.ReplaceAll(db, "]", "]]"))
		},
	}
}

// DefaultRegistry builds a registry with all built-in executors wired to the
// given connection registry.
func DefaultRegistry(pools *Pools, logger *zap.Logger) *Registry {
	r := NewRegistry()
	r.Register(NewMySQLExecutor(pools, logger))
	r.Register(NewPostgresExecutor(pools, logger))
	r.Register(NewSQLiteExecutor(pools, logger))
	r.Register(NewMsSQLExecutor(pools, logger))
	r.Register(NewMongoExecutor(pools, logger))
	r.Register(NewRedisExecutor(pools, logger))
	return r
}
