package executor

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

// MongoExecutor translates basic SELECT statements to MongoDB find
// operations. Anything beyond `SELECT * FROM collection [WHERE field =
// value] [LIMIT n]` is rejected; richer access should use native commands.
type MongoExecutor struct {
	clients MongoProvider
	logger  *zap.Logger
}

// NewMongoExecutor creates the MongoDB executor.
func NewMongoExecutor(clients MongoProvider, logger *zap.Logger) *MongoExecutor {
	return &MongoExecutor{clients: clients, logger: logger}
}

func (e *MongoExecutor) DatabaseType() query.DatabaseType { return query.MongoDB }

func (e *MongoExecutor) SupportsFeature(f Feature) bool {
	return f == FeatureJSONOperators
}

func (e *MongoExecutor) PaginationStrategy() PaginationStrategy { return PaginateSkipLimit }

func (e *MongoExecutor) ValidateQuery(sql string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))
	if !strings.HasPrefix(trimmed, "SELECT ") {
		return qerr.Unsupportedf("MongoDB executor only supports basic SELECT queries")
	}
	if strings.Contains(trimmed, " JOIN ") {
		return qerr.Unsupportedf("MongoDB does not support SQL joins; use $lookup instead")
	}
	return nil
}

func (e *MongoExecutor) ExecuteQuery(ctx context.Context, sqlText, databaseName string, connectionID int64) (Result, error) {
	e.logger.Debug("executing query",
		zap.String("db_type", "mongodb"),
		zap.Int64("connection_id", connectionID),
		zap.String("sql", sqlText))
	e.logger.Warn("MongoDB SQL support is limited; prefer native operations")

	client, err := e.clients.MongoClient(connectionID)
	if err != nil {
		return Result{}, err
	}
	if databaseName == "" {
		return Result{}, qerr.Semanticf("MongoDB requires a database name")
	}

	collName, filter, limit, err := parseMongoSelect(sqlText)
	if err != nil {
		return Result{}, err
	}

	coll := client.Database(databaseName).Collection(collName)
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return Result{}, qerr.Executionf(sqlText, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return Result{}, qerr.Executionf(sqlText, err)
	}

	headers := []string{"_id"}
	if len(docs) > 0 {
		headers = headers[:0]
		for k := range docs[0] {
			headers = append(headers, k)
		}
		sort.Strings(headers)
	}

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		row := make([]string, len(headers))
		for i, h := range headers {
			v, ok := doc[h]
			if !ok || v == nil {
				row[i] = nullText
				continue
			}
			row[i] = fmt.Sprintf("%v", v)
		}
		rows = append(rows, row)
	}

	e.logger.Debug("query returned",
		zap.String("db_type", "mongodb"),
		zap.Int("rows", len(rows)))
	return Result{Headers: headers, Rows: rows}, nil
}

// parseMongoSelect extracts the collection, an optional single-equality
// filter and an optional limit from a basic SELECT.
func parseMongoSelect(sqlText string) (string, bson.M, int64, error) {
	upper := strings.ToUpper(sqlText)

	fromPos := strings.Index(upper, " FROM ")
	if fromPos < 0 {
		return "", nil, 0, qerr.Unsupportedf("missing FROM clause")
	}
	afterFrom := strings.TrimSpace(sqlText[fromPos+len(" FROM "):])
	fields := strings.Fields(afterFrom)
	if len(fields) == 0 {
		return "", nil, 0, qerr.Unsupportedf("missing collection name")
	}
	collection := strings.Trim(fields[0], "`\";")

	filter := bson.M{}
	if wherePos := strings.Index(upper, " WHERE "); wherePos >= 0 {
		clause := sqlText[wherePos+len(" WHERE "):]
		if limitPos := strings.Index(strings.ToUpper(clause), " LIMIT "); limitPos >= 0 {
			clause = clause[:limitPos]
		}
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) == 2 {
			field := strings.Trim(strings.TrimSpace(parts[0]), "`\"")
			value := strings.Trim(strings.TrimSpace(parts[1]), "'\";")
			filter[field] = value
		}
	}

	var limit int64
	if limitPos := strings.Index(upper, " LIMIT "); limitPos >= 0 {
		limitStr := strings.TrimSpace(sqlText[limitPos+len(" LIMIT "):])
		if next := strings.Fields(limitStr); len(next) > 0 {
			if n, err := strconv.ParseInt(strings.TrimSuffix(next[0], ";"), 10, 64); err == nil {
				limit = n
			}
		}
	}

	return collection, filter, limit, nil
}
