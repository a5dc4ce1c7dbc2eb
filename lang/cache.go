package lang

import (
	"context"
	"log/slog"
	"strconv"

	lru "github.com/hashicorp/golang-lru"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"

	"github.com/ardnew/lunar/lang/ast"
	"github.com/ardnew/lunar/lang/parser"
	"github.com/ardnew/lunar/log"
)

// DefaultCacheSize is the number of chunks held by the default parse cache.
const DefaultCacheSize = 256

// defaultCache is shared by every parse that does not name its own cache.
var defaultCache = mustCache(DefaultCacheSize)

// Cache is a bounded, concurrency-safe cache of parsed chunks keyed by a
// hash of their source. Concurrent parses of the same source are collapsed
// into one.
//
// Cached trees are shared; the evaluator never mutates them apart from
// per-node lookup caches, which are tagged with the owning arena.
type Cache struct {
	chunks *lru.Cache
	group  singleflight.Group
	logger log.Logger
}

// NewCache returns a cache holding at most size chunks.
func NewCache(size int, logger log.Logger) (*Cache, error) {
	chunks, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &Cache{chunks: chunks, logger: logger}, nil
}

func mustCache(size int) *Cache {
	c, err := NewCache(size, log.Logger{})
	if err != nil {
		panic(err)
	}

	return c
}

// Parse returns the chunk parsed from src, parsing it only on a miss.
// Parse errors are not cached.
func (c *Cache) Parse(
	ctx context.Context,
	src []byte,
	opts ...parser.Option,
) (*ast.Block, error) {
	key := strconv.FormatUint(xxh3.Hash(src), 36)

	if v, ok := c.chunks.Get(key); ok {
		c.logger.TraceContext(ctx, "cache hit", slog.String("key", key))

		return v.(*ast.Block), nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		chunk, err := parser.Parse(ctx, src, opts...)
		if err != nil {
			return nil, err
		}

		c.chunks.Add(key, chunk)

		return chunk, nil
	})

	c.logger.TraceContext(ctx, "cache miss",
		slog.String("key", key),
		slog.Bool("shared", shared),
		slog.Int("size", c.chunks.Len()))

	if err != nil {
		return nil, err
	}

	return v.(*ast.Block), nil
}

// Len returns the number of cached chunks.
func (c *Cache) Len() int { return c.chunks.Len() }

// Purge removes every cached chunk.
func (c *Cache) Purge() { c.chunks.Purge() }

// ClearCache removes all chunks from the default cache.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() { defaultCache.Purge() }
