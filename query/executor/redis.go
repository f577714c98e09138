package executor

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

// RedisExecutor bridges the smallest possible SQL surface onto Redis: key
// listing. `SELECT * FROM KEYS [WHERE pattern = '...']` and bare `KEYS
// pattern` run a KEYS scan and report each key with its type; everything
// else is rejected.
type RedisExecutor struct {
	clients RedisProvider
	logger  *zap.Logger
}

// NewRedisExecutor creates the Redis executor.
func NewRedisExecutor(clients RedisProvider, logger *zap.Logger) *RedisExecutor {
	return &RedisExecutor{clients: clients, logger: logger}
}

func (e *RedisExecutor) DatabaseType() query.DatabaseType { return query.Redis }

func (e *RedisExecutor) SupportsFeature(Feature) bool { return false }

func (e *RedisExecutor) PaginationStrategy() PaginationStrategy { return PaginateLimitOffset }

func (e *RedisExecutor) ValidateQuery(sql string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))
	if !strings.Contains(trimmed, "KEYS") {
		return qerr.Unsupportedf("Redis executor only supports KEYS operations through SQL")
	}
	return nil
}

func (e *RedisExecutor) ExecuteQuery(ctx context.Context, sqlText, databaseName string, connectionID int64) (Result, error) {
	e.logger.Debug("executing query",
		zap.String("db_type", "redis"),
		zap.Int64("connection_id", connectionID),
		zap.String("sql", sqlText))
	e.logger.Warn("Redis SQL support is minimal; prefer native commands")

	client, err := e.clients.RedisClient(connectionID)
	if err != nil {
		return Result{}, err
	}

	// Redis databases are numbered; switch when the name parses as one.
	if databaseName != "" {
		if n, err := strconv.Atoi(databaseName); err == nil {
			if err := client.Do(ctx, "SELECT", n).Err(); err != nil {
				return Result{}, qerr.Executionf("SELECT "+databaseName, err)
			}
		}
	}

	pattern, err := parseKeysPattern(sqlText)
	if err != nil {
		return Result{}, err
	}

	keys, err := client.Keys(ctx, pattern).Result()
	if err != nil {
		return Result{}, qerr.Executionf(sqlText, err)
	}

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		keyType, err := client.Type(ctx, key).Result()
		if err != nil {
			return Result{}, qerr.Executionf("TYPE "+key, err)
		}
		rows = append(rows, []string{key, keyType})
	}

	e.logger.Debug("query returned", zap.String("db_type", "redis"), zap.Int("keys", len(rows)))
	return Result{Headers: []string{"key", "type"}, Rows: rows}, nil
}

// parseKeysPattern extracts the KEYS pattern: the equality value of a WHERE
// clause, the argument of a bare KEYS command, or "*" by default.
func parseKeysPattern(sqlText string) (string, error) {
	upper := strings.ToUpper(sqlText)
	trimmed := strings.TrimSpace(sqlText)

	switch {
	case strings.HasPrefix(strings.ToUpper(trimmed), "KEYS"):
		rest := strings.TrimSpace(trimmed[len("KEYS"):])
		if rest == "" {
			return "*", nil
		}
		return strings.Trim(rest, "'\";"), nil
	case strings.Contains(upper, "KEYS"), strings.HasPrefix(upper, "SELECT * FROM"):
		if wherePos := strings.Index(upper, "WHERE"); wherePos >= 0 {
			clause := sqlText[wherePos+len("WHERE"):]
			parts := strings.SplitN(clause, "=", 2)
			if len(parts) == 2 {
				return strings.Trim(strings.TrimSpace(parts[1]), "'\";"), nil
			}
		}
		return "*", nil
	}
	return "", qerr.Unsupportedf("Redis executor only supports KEYS operations through SQL")
}
