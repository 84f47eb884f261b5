package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
)

const (
	defaultInfoCacheTTL        = 10 * time.Minute
	defaultInfoCacheMaxEntries = 500
	redisInfoPrefix            = "ytdl:info:"
)

type cachedInfo struct {
	info      domain.VideoInfo
	expiresAt time.Time
}

// MemoryInfoCache is a bounded TTL map of /info payloads.
type MemoryInfoCache struct {
	mu         sync.Mutex
	entries    map[string]cachedInfo
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewMemoryInfoCache(ttl time.Duration, maxEntries int) *MemoryInfoCache {
	if ttl <= 0 {
		ttl = defaultInfoCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultInfoCacheMaxEntries
	}
	return &MemoryInfoCache{
		entries:    make(map[string]cachedInfo),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *MemoryInfoCache) Get(_ context.Context, key string) (domain.VideoInfo, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return domain.VideoInfo{}, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return domain.VideoInfo{}, false, nil
	}
	return entry.info, true, nil
}

func (c *MemoryInfoCache) Set(_ context.Context, key string, info domain.VideoInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = cachedInfo{info: info, expiresAt: now.Add(c.ttl)}
	return nil
}

// evictLocked drops expired entries, or the one closest to expiry when none
// have expired yet.
func (c *MemoryInfoCache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			continue
		}
		if oldestKey == "" || entry.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt = key, entry.expiresAt
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryInfoCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisInfoCache stores /info payloads in Redis as JSON so several replicas
// share lookups.
type RedisInfoCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisInfoCache(client *redis.Client, ttl time.Duration) *RedisInfoCache {
	if ttl <= 0 {
		ttl = defaultInfoCacheTTL
	}
	return &RedisInfoCache{client: client, ttl: ttl}
}

func (r *RedisInfoCache) Get(ctx context.Context, key string) (domain.VideoInfo, bool, error) {
	data, err := r.client.Get(ctx, redisInfoPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.VideoInfo{}, false, nil
		}
		return domain.VideoInfo{}, false, err
	}
	var info domain.VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return domain.VideoInfo{}, false, err
	}
	return info, true, nil
}

func (r *RedisInfoCache) Set(ctx context.Context, key string, info domain.VideoInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisInfoPrefix+key, data, r.ttl).Err()
}
