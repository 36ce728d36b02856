// Query result caching, grounded on the teacher's internal/cache.QueryCache
// (cache-aside Get/Set/Delete/DeletePattern over go-redis, json-encoded
// values, background fire-and-forget Set). Cached entries are derived
// query results only — pick and A* path lookups — never a second terrain
// persistence format.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when a key is absent.
var ErrCacheMiss = errors.New("query cache: miss")

// PickResult is the cached outcome of a pick query.
type PickResult struct {
	FaceID     int32 `json:"faceId"`
	ProvinceID int32 `json:"provinceId"`
	Found      bool  `json:"found"`
}

// PathResult is the cached outcome of an A* path query.
type PathResult struct {
	Faces []int32 `json:"faces"`
	Cost  float64 `json:"cost"`
}

// QueryCache caches Pick and A* results per world, keyed so that bumping a
// world's terrainVersion naturally invalidates every key computed under the
// old version (the key embeds the version); DeleteWorld additionally sweeps
// any still-live keys for a world, for callers that want an immediate purge
// rather than waiting out the TTL.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQueryCache wraps an existing redis client. ttl <= 0 defaults to 5m,
// long enough to matter for a demo workload without pinning stale results
// indefinitely when a purge is missed.
func NewQueryCache(client *redis.Client, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{client: client, ttl: ttl}
}

func pickKey(worldID uuid.UUID, version int64, cellX, cellY int) string {
	return fmt.Sprintf("pick:%s:%d:%d:%d", worldID, version, cellX, cellY)
}

func pathKey(worldID uuid.UUID, version int64, from, to int32) string {
	return fmt.Sprintf("path:%s:%d:%d:%d", worldID, version, from, to)
}

// GetPick returns a cached pick result, or ErrCacheMiss.
func (c *QueryCache) GetPick(ctx context.Context, worldID uuid.UUID, version int64, cellX, cellY int) (PickResult, error) {
	var out PickResult
	if err := c.get(ctx, pickKey(worldID, version, cellX, cellY), &out); err != nil {
		return PickResult{}, err
	}
	return out, nil
}

// SetPick caches a pick result.
func (c *QueryCache) SetPick(ctx context.Context, worldID uuid.UUID, version int64, cellX, cellY int, result PickResult) error {
	return c.set(ctx, pickKey(worldID, version, cellX, cellY), result)
}

// GetPath returns a cached path result, or ErrCacheMiss.
func (c *QueryCache) GetPath(ctx context.Context, worldID uuid.UUID, version int64, from, to int32) (PathResult, error) {
	var out PathResult
	if err := c.get(ctx, pathKey(worldID, version, from, to), &out); err != nil {
		return PathResult{}, err
	}
	return out, nil
}

// SetPath caches a path result.
func (c *QueryCache) SetPath(ctx context.Context, worldID uuid.UUID, version int64, from, to int32, result PathResult) error {
	return c.set(ctx, pathKey(worldID, version, from, to), result)
}

// DeleteWorld purges every cached entry for worldID regardless of version,
// for callers that want an immediate purge instead of waiting for keys
// computed under a stale version to expire on their own.
func (c *QueryCache) DeleteWorld(ctx context.Context, worldID uuid.UUID) error {
	for _, pattern := range []string{fmt.Sprintf("pick:%s:*", worldID), fmt.Sprintf("path:%s:*", worldID)} {
		if err := c.deletePattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

func (c *QueryCache) get(ctx context.Context, key string, target interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, target)
}

func (c *QueryCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *QueryCache) deletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
