package executor

import (
	"database/sql"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/satishbabariya/sqlbridge/query/qerr"
)

// PoolProvider looks up database/sql pools by connection id.
type PoolProvider interface {
	Pool(connectionID int64) (*sql.DB, error)
}

// MongoProvider looks up MongoDB clients by connection id.
type MongoProvider interface {
	MongoClient(connectionID int64) (*mongo.Client, error)
}

// RedisProvider looks up Redis clients by connection id.
type RedisProvider interface {
	RedisClient(connectionID int64) (*redis.Client, error)
}

// Pools is the in-process connection registry. It implements all three
// provider interfaces and is safe for concurrent use.
type Pools struct {
	mu    sync.RWMutex
	sqls  map[int64]*sql.DB
	mongo map[int64]*mongo.Client
	redis map[int64]*redis.Client
}

// NewPools creates an empty connection registry.
func NewPools() *Pools {
	return &Pools{
		sqls:  make(map[int64]*sql.DB),
		mongo: make(map[int64]*mongo.Client),
		redis: make(map[int64]*redis.Client),
	}
}

// RegisterSQL stores a database/sql pool under a connection id.
func (p *Pools) RegisterSQL(connectionID int64, db *sql.DB) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sqls[connectionID] = db
}

// RegisterMongo stores a MongoDB client under a connection id.
func (p *Pools) RegisterMongo(connectionID int64, client *mongo.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mongo[connectionID] = client
}

// RegisterRedis stores a Redis client under a connection id.
func (p *Pools) RegisterRedis(connectionID int64, client *redis.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.redis[connectionID] = client
}

// Remove drops every client registered under a connection id. The caller
// owns closing them.
func (p *Pools) Remove(connectionID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sqls, connectionID)
	delete(p.mongo, connectionID)
	delete(p.redis, connectionID)
}

// Pool returns the database/sql pool for a connection id.
func (p *Pools) Pool(connectionID int64) (*sql.DB, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, ok := p.sqls[connectionID]
	if !ok {
		return nil, qerr.Semanticf("no SQL pool registered for connection %d", connectionID)
	}
	return db, nil
}

// MongoClient returns the MongoDB client for a connection id.
func (p *Pools) MongoClient(connectionID int64) (*mongo.Client, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.mongo[connectionID]
	if !ok {
		return nil, qerr.Semanticf("no MongoDB client registered for connection %d", connectionID)
	}
	return client, nil
}

// RedisClient returns the Redis client for a connection id.
func (p *Pools) RedisClient(connectionID int64) (*redis.Client, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.redis[connectionID]
	if !ok {
		return nil, qerr.Semanticf("no Redis client registered for connection %d", connectionID)
	}
	return client, nil
}
