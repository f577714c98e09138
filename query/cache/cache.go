// Package cache provides compiled plan caching functionality.
package cache

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/satishbabariya/sqlbridge/query/logical"
	"github.com/satishbabariya/sqlbridge/query/rewrite"
)

// Entry represents a cached compilation result
type Entry struct {
	Plan    logical.Plan
	SQL     string
	Headers []string
}

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// PlanCache is an LRU cache for compiled plans. All methods are safe for
// concurrent use.
type PlanCache struct {
	mu      sync.Mutex
	data    map[string]*cacheNode
	maxSize int
	head    *cacheNode
	tail    *cacheNode
	stats   Stats
}

// cacheNode represents a node in the doubly-linked list for LRU
type cacheNode struct {
	key   string
	entry Entry
	prev  *cacheNode
	next  *cacheNode
}

// DefaultMaxSize bounds the cache when the caller passes a non-positive size.
const DefaultMaxSize = 256

// New creates a new plan cache holding at most maxSize entries.
func New(maxSize int) *PlanCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &PlanCache{
		data:    make(map[string]*cacheNode),
		maxSize: maxSize,
		stats:   Stats{MaxSize: maxSize},
	}
}

// Get retrieves an entry from the cache
func (c *PlanCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		return Entry{}, false
	}

	c.moveToFront(node)
	c.stats.Hits++
	return node.entry, true
}

// Put stores an entry in the cache, evicting the least recently used entry
// when full.
func (c *PlanCache) Put(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, exists := c.data[key]; exists {
		node.entry = entry
		c.moveToFront(node)
		return
	}

	if len(c.data) >= c.maxSize {
		c.evictLRU()
		c.stats.Evictions++
	}

	node := &cacheNode{key: key, entry: entry}
	c.addToFront(node)
	c.data[key] = node
	c.stats.Size = len(c.data)
}

// Clear removes all entries from the cache
func (c *PlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*cacheNode)
	c.head = nil
	c.tail = nil
	c.stats = Stats{MaxSize: c.maxSize}
}

// GetStats returns cache statistics
func (c *PlanCache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.data)
	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

// addToFront adds a node to the front of the list
func (c *PlanCache) addToFront(node *cacheNode) {
	if c.head == nil {
		c.head = node
		c.tail = node
		return
	}

	node.next = c.head
	c.head.prev = node
	c.head = node
}

// moveToFront moves a node to the front of the list
func (c *PlanCache) moveToFront(node *cacheNode) {
	if node == c.head {
		return
	}

	c.removeNode(node)
	c.addToFront(node)
}

// removeNode removes a node from the list
func (c *PlanCache) removeNode(node *cacheNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}

	delete(c.data, node.key)
	node.prev = nil
	node.next = nil
}

// evictLRU evicts the least recently used node
func (c *PlanCache) evictLRU() {
	if c.tail == nil {
		return
	}
	c.removeNode(c.tail)
	c.stats.Size = len(c.data)
}

// Key builds the semantic cache key: the plan's structural fingerprint plus
// everything else that shapes the emitted SQL.
func Key(structuralHash uint64, dbType string, pagination *rewrite.Pagination, autoLimit bool) string {
	return fmt.Sprintf("plan:%s:%016x:%s:al=%t", strings.ToLower(dbType), structuralHash,
		paginationTag(pagination), autoLimit)
}

// RawKey builds the fast-path key over the normalized query text, letting a
// repeat of the same string skip parsing entirely.
func RawKey(raw, dbType string, pagination *rewrite.Pagination, autoLimit bool) string {
	return fmt.Sprintf("raw:%s:%016x:%s:al=%t", strings.ToLower(dbType),
		xxhash.Sum64String(NormalizeRaw(raw)), paginationTag(pagination), autoLimit)
}

func paginationTag(p *rewrite.Pagination) string {
	if p == nil {
		return "p=none"
	}
	return fmt.Sprintf("p=%d x%d", p.Page, p.PageSize)
}

// NormalizeRaw lowercases the query, unifies the identifier quoting styles
// and collapses whitespace runs, so trivially reformatted queries share a raw
// key. It does not touch string literal contents beyond case.
func NormalizeRaw(raw string) string {
	lowered := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(lowered))
	space := false
	for i := 0; i < len(lowered); i++ {
		c := lowered[i]
		switch c {
		case ' ', '\t', '\n', '\r':
			space = true
			continue
		case '`', '[', ']':
			c = '"'
		}
		if space {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
