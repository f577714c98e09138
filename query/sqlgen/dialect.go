// Package sqlgen emits dialect-correct SQL from logical plans.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/logical"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

// Dialect provides database-specific SQL generation logic.
type Dialect interface {
	// Type returns the database type this dialect emits for.
	Type() query.DatabaseType

	// QuoteIdent quotes a table or column name.
	QuoteIdent(ident string) string

	// QuoteString quotes a string literal.
	QuoteString(s string) string

	// BooleanLiteral renders a boolean literal.
	BooleanLiteral(v bool) string

	// NullLiteral renders the NULL literal.
	NullLiteral() string

	// LimitClause renders the trailing limit clause, leading space included.
	// An empty return means the emitter must express the limit another way.
	LimitClause(limit, offset uint64) string

	// JoinKeyword renders the join keyword for a kind.
	JoinKeyword(kind logical.JoinKind) string

	SupportsWindowFunctions() bool
	SupportsCTE() bool
	SupportsFullJoin() bool

	// EmitCast renders a cast of an already-rendered expression.
	EmitCast(expr, targetType string) string

	// EmitILike renders a case-insensitive LIKE, falling back to LOWER()
	// comparison when the database has no native form.
	EmitILike(expr, pattern string, negated bool) string

	// EmitRegexMatch renders a regular-expression match.
	EmitRegexMatch(expr, pattern string) (string, error)

	// EmitArray renders an array literal from rendered elements.
	EmitArray(elements []string) (string, error)
}

// ForType returns the dialect for a database type.
func ForType(dbType query.DatabaseType) (Dialect, error) {
	switch dbType {
	case query.MySQL:
		return mysqlDialect{}, nil
	case query.PostgreSQL:
		return postgresDialect{}, nil
	case query.SQLite:
		return sqliteDialect{}, nil
	case query.MsSQL:
		return mssqlDialect{}, nil
	case query.MongoDB:
		return mongoDialect{}, nil
	case query.Redis:
		return redisDialect{}, nil
	}
	return nil, qerr.Unsupportedf("no SQL dialect for database type %q", dbType)
}

// base carries the defaults most dialects share.
type base struct{}

func (base) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (base) BooleanLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (base) NullLiteral() string { return "NULL" }

func (base) LimitClause(limit, offset uint64) string {
	if offset > 0 {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

func (base) JoinKeyword(kind logical.JoinKind) string {
	switch kind {
	case logical.JoinLeft:
		return "LEFT JOIN"
	case logical.JoinRight:
		return "RIGHT JOIN"
	case logical.JoinFull:
		return "FULL JOIN"
	default:
		return "INNER JOIN"
	}
}

func (base) SupportsWindowFunctions() bool { return true }
func (base) SupportsCTE() bool             { return true }
func (base) SupportsFullJoin() bool        { return true }

func (base) EmitCast(expr, targetType string) string {
	return fmt.Sprintf("CAST(%s AS %s)", expr, targetType)
}

func (base) EmitILike(expr, pattern string, negated bool) string {
	op := "LIKE"
	if negated {
		op = "NOT LIKE"
	}
	return fmt.Sprintf("LOWER(%s) %s LOWER(%s)", expr, op, pattern)
}

func (base) EmitRegexMatch(expr, pattern string) (string, error) {
	return "", qerr.Unsupportedf("regex matching is not supported by this database")
}

func (base) EmitArray(elements []string) (string, error) {
	return "", qerr.Unsupportedf("array literals are not supported by this database")
}

func backtickQuote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func doubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

type mysqlDialect struct{ base }

func (mysqlDialect) Type() query.DatabaseType   { return query.MySQL }
func (mysqlDialect) QuoteIdent(s string) string { return backtickQuote(s) }
func (mysqlDialect) SupportsFullJoin() bool     { return false }

func (mysqlDialect) EmitRegexMatch(expr, pattern string) (string, error) {
	return fmt.Sprintf("%s REGEXP %s", expr, pattern), nil
}

type postgresDialect struct{ base }

func (postgresDialect) Type() query.DatabaseType   { return query.PostgreSQL }
func (postgresDialect) QuoteIdent(s string) string { return doubleQuote(s) }

func (postgresDialect) EmitILike(expr, pattern string, negated bool) string {
	if negated {
		return fmt.Sprintf("%s NOT ILIKE %s", expr, pattern)
	}
	return fmt.Sprintf("%s ILIKE %s", expr, pattern)
}

func (postgresDialect) EmitRegexMatch(expr, pattern string) (string, error) {
	return fmt.Sprintf("%s ~ %s", expr, pattern), nil
}

func (postgresDialect) EmitArray(elements []string) (string, error) {
	return fmt.Sprintf("ARRAY[%s]", strings.Join(elements, ", ")), nil
}

type sqliteDialect struct{ base }

func (sqliteDialect) Type() query.DatabaseType   { return query.SQLite }
func (sqliteDialect) QuoteIdent(s string) string { return backtickQuote(s) }
func (sqliteDialect) SupportsFullJoin() bool     { return false }

type mssqlDialect struct{ base }

func (mssqlDialect) Type() query.DatabaseType { return query.MsSQL }

func (mssqlDialect) QuoteIdent(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

// LimitClause returns "" for offset-free limits; the emitter injects
// SELECT TOP instead.
func (mssqlDialect) LimitClause(limit, offset uint64) string {
	if offset > 0 {
		return fmt.Sprintf(" OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, limit)
	}
	return ""
}

func (mssqlDialect) BooleanLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

type mongoDialect struct{ base }

func (mongoDialect) Type() query.DatabaseType   { return query.MongoDB }
func (mongoDialect) QuoteIdent(s string) string { return doubleQuote(s) }
func (mongoDialect) SupportsWindowFunctions() bool { return false }
func (mongoDialect) SupportsFullJoin() bool        { return false }

type redisDialect struct{ base }

func (redisDialect) Type() query.DatabaseType      { return query.Redis }
func (redisDialect) QuoteIdent(s string) string    { return doubleQuote(s) }
func (redisDialect) SupportsWindowFunctions() bool { return false }
func (redisDialect) SupportsCTE() bool             { return false }
func (redisDialect) SupportsFullJoin() bool        { return false }
