package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"
)

// Cache memoizes parse results by source content and effective options.
// It is safe for concurrent use. Cached scripts are shared and must not be
// modified by callers.
type Cache struct {
	entries sync.Map // uint64 -> *cacheEntry
	hits    atomic.Int64
	misses  atomic.Int64
}

type cacheEntry struct {
	once   sync.Once
	script *Script
	err    error
}

// NewCache returns an empty cache.
func NewCache() *Cache { return new(Cache) }

// hashOptions encodes the options that affect the parse result using gob
// and hashes them with xxh3.
func hashOptions(cfg config) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	_ = enc.Encode(cfg.table.Fingerprint())
	_ = enc.Encode(cfg.maxDepth)

	return xxh3.Hash(buf.Bytes())
}

// ParseString parses source with opts, or returns the result of an earlier
// identical parse. Errors are cached too.
func (c *Cache) ParseString(ctx context.Context, source string, opts ...Option) (*Script, error) {
	cfg := makeConfig(opts...)

	sourceHash := xxh3.HashString(source)
	optsHash := hashOptions(cfg)
	key := sourceHash ^ optsHash

	value, loaded := c.entries.LoadOrStore(key, new(cacheEntry))

	entry, ok := value.(*cacheEntry)
	if !ok {
		return nil, ErrReadInput.With(slog.String("issue", "invalid cache entry"))
	}

	if loaded {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}

	cfg.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", loaded),
	)

	entry.once.Do(func() {
		entry.script, entry.err = ParseString(ctx, source, opts...)
	})

	// A cancelled parse says nothing about the source.
	if entry.err != nil && ctx.Err() != nil && errors.Is(entry.err, ctx.Err()) {
		c.entries.CompareAndDelete(key, entry)
	}

	return entry.script, entry.err
}

// ParseReader reads r through a read-ahead buffer and parses it with
// [Cache.ParseString].
func (c *Cache) ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Script, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	return c.ParseString(ctx, string(data), opts...)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(_, _ any) bool {
		n++

		return true
	})

	return n
}

// Stats returns the number of lookups that hit and missed the cache.
func (c *Cache) Stats() (hits, misses int64) { return c.hits.Load(), c.misses.Load() }

// Clear removes all cached entries.
func (c *Cache) Clear() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)

		return true
	})
}
