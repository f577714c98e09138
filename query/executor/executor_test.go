package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/satishbabariya/sqlbridge/query"
	"github.com/satishbabariya/sqlbridge/query/qerr"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return DefaultRegistry(NewPools(), zap.NewNop())
}

func TestDefaultRegistryCoversAllTypes(t *testing.T) {
	r := testRegistry(t)
	for _, dbType := range query.AllDatabaseTypes() {
		e, err := r.Get(dbType)
		require.NoError(t, err, dbType)
		assert.Equal(t, dbType, e.DatabaseType())
	}
	assert.Len(t, r.Types(), len(query.AllDatabaseTypes()))
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(query.MySQL)
	assert.ErrorIs(t, err, qerr.ErrUnsupported)
}

func TestSQLValidateQueryRejectsDrop(t *testing.T) {
	r := testRegistry(t)
	for _, dbType := range []query.DatabaseType{query.MySQL, query.PostgreSQL, query.SQLite, query.MsSQL} {
		e, err := r.Get(dbType)
		require.NoError(t, err)

		assert.NoError(t, e.ValidateQuery("SELECT * FROM users"), dbType)
		assert.NoError(t, e.ValidateQuery("  select id from t limit 5"), dbType)

		err = e.ValidateQuery("DROP TABLE users")
		require.Error(t, err, dbType)
		assert.ErrorIs(t, err, qerr.ErrSemantic)
	}
}

func TestMongoValidateQuery(t *testing.T) {
	e := NewMongoExecutor(NewPools(), zap.NewNop())

	assert.NoError(t, e.ValidateQuery("SELECT * FROM users"))
	assert.ErrorIs(t, e.ValidateQuery("UPDATE users SET name = 'x'"), qerr.ErrUnsupported)
	assert.ErrorIs(t, e.ValidateQuery("SELECT * FROM users JOIN orders ON 1 = 1"), qerr.ErrUnsupported)
}

func TestRedisValidateQuery(t *testing.T) {
	e := NewRedisExecutor(NewPools(), zap.NewNop())

	assert.NoError(t, e.ValidateQuery("SELECT * FROM KEYS"))
	assert.NoError(t, e.ValidateQuery("KEYS *"))
	assert.ErrorIs(t, e.ValidateQuery("SELECT * FROM users"), qerr.ErrUnsupported)
	assert.ErrorIs(t, e.ValidateQuery("INSERT INTO x VALUES (1)"), qerr.ErrUnsupported)
}

func TestFeatureMatrix(t *testing.T) {
	r := testRegistry(t)

	get := func(dbType query.DatabaseType) Executor {
		e, err := r.Get(dbType)
		require.NoError(t, err)
		return e
	}

	my := get(query.MySQL)
	assert.True(t, my.SupportsFeature(FeatureWindowFunctions))
	assert.True(t, my.SupportsFeature(FeatureCTE))
	assert.False(t, my.SupportsFeature(FeatureFullOuterJoin))
	assert.True(t, my.SupportsFeature(FeatureJSONOperators))

	pg := get(query.PostgreSQL)
	assert.True(t, pg.SupportsFeature(FeatureFullOuterJoin))
	assert.True(t, pg.SupportsFeature(FeatureJSONOperators))

	lite := get(query.SQLite)
	assert.True(t, lite.SupportsFeature(FeatureWindowFunctions))
	assert.False(t, lite.SupportsFeature(FeatureFullOuterJoin))
	assert.False(t, lite.SupportsFeature(FeatureJSONOperators))

	mongo := get(query.MongoDB)
	assert.False(t, mongo.SupportsFeature(FeatureWindowFunctions))
	assert.False(t, mongo.SupportsFeature(FeatureCTE))
	assert.True(t, mongo.SupportsFeature(FeatureJSONOperators))

	rd := get(query.Redis)
	assert.False(t, rd.SupportsFeature(FeatureWindowFunctions))
	assert.False(t, rd.SupportsFeature(FeatureCTE))
	assert.False(t, rd.SupportsFeature(FeatureJSONOperators))
}

func TestPaginationStrategies(t *testing.T) {
	r := testRegistry(t)

	cases := map[query.DatabaseType]PaginationStrategy{
		query.MySQL:      PaginateLimitOffset,
		query.PostgreSQL: PaginateLimitOffset,
		query.SQLite:     PaginateLimitOffset,
		query.MsSQL:      PaginateTopOffset,
		query.MongoDB:    PaginateSkipLimit,
		query.Redis:      PaginateLimitOffset,
	}
	for dbType, want := range cases {
		e, err := r.Get(dbType)
		require.NoError(t, err)
		assert.Equal(t, want, e.PaginationStrategy(), dbType)
	}
}

func TestParseMongoSelect(t *testing.T) {
	coll, filter, limit, err := parseMongoSelect("SELECT * FROM users WHERE name = 'john' LIMIT 10")
	require.NoError(t, err)
	assert.Equal(t, "users", coll)
	assert.Equal(t, "john", filter["name"])
	assert.Equal(t, int64(10), limit)

	coll, filter, limit, err = parseMongoSelect("SELECT * FROM orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", coll)
	assert.Empty(t, filter)
	assert.Equal(t, int64(0), limit)

	_, _, _, err = parseMongoSelect("SELECT 1")
	assert.ErrorIs(t, err, qerr.ErrUnsupported)
}

func TestParseKeysPattern(t *testing.T) {
	pattern, err := parseKeysPattern("KEYS user:*")
	require.NoError(t, err)
	assert.Equal(t, "user:*", pattern)

	pattern, err = parseKeysPattern("KEYS")
	require.NoError(t, err)
	assert.Equal(t, "*", pattern)

	pattern, err = parseKeysPattern("SELECT * FROM KEYS WHERE pattern = 'sess:*'")
	require.NoError(t, err)
	assert.Equal(t, "sess:*", pattern)

	pattern, err = parseKeysPattern("SELECT * FROM KEYS")
	require.NoError(t, err)
	assert.Equal(t, "*", pattern)
}

func TestPoolsLookup(t *testing.T) {
	p := NewPools()

	_, err := p.Pool(1)
	assert.ErrorIs(t, err, qerr.ErrSemantic)
	_, err = p.MongoClient(1)
	assert.ErrorIs(t, err, qerr.ErrSemantic)
	_, err = p.RedisClient(1)
	assert.ErrorIs(t, err, qerr.ErrSemantic)

	p.RegisterSQL(1, nil)
	db, err := p.Pool(1)
	require.NoError(t, err)
	assert.Nil(t, db)

	p.Remove(1)
	_, err = p.Pool(1)
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "text", formatValue([]byte("text")))
	assert.Equal(t, "text", formatValue("text"))
	assert.Equal(t, "42", formatValue(int64(42)))
	assert.Equal(t, "3.5", formatValue(3.5))
	assert.Equal(t, "1", formatValue(true))
	assert.Equal(t, "0", formatValue(false))

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-01T12:00:00Z", formatValue(ts))
}
