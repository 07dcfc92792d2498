package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helpinghands/volunteer-dashboard/pkg/querycache"
)

var _ querycache.Store = (*CacheStore)(nil)

// CacheStore backs the query cache with Redis so that several instances
// share results and invalidations.
// Key format: qcache:entry:<query>[:<key>] and qcache:tag:<tag>.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a CacheStore wrapping the given Redis client.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

func (s *CacheStore) Get(ctx context.Context, key string) (*querycache.Entry, error) {
	raw, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, querycache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var e querycache.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return &e, nil
}

func (s *CacheStore) Set(ctx context.Context, key string, e *querycache.Entry, ttl time.Duration) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.entryKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *CacheStore) TagVersions(ctx context.Context, tags []string) (map[string]int64, error) {
	out := make(map[string]int64, len(tags))
	if len(tags) == 0 {
		return out, nil
	}

	keys := make([]string, len(tags))
	for i, t := range tags {
		keys[i] = s.tagKey(t)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache tag versions: %w", err)
	}

	for i, v := range vals {
		out[tags[i]] = 0
		str, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cache tag %s: %w", tags[i], err)
		}
		out[tags[i]] = n
	}
	return out, nil
}

func (s *CacheStore) BumpTags(ctx context.Context, tags []string) error {
	pipe := s.client.TxPipeline()
	for _, t := range tags {
		pipe.Incr(ctx, s.tagKey(t))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache bump tags: %w", err)
	}
	return nil
}

func (s *CacheStore) entryKey(key string) string {
	return "qcache:entry:" + key
}

func (s *CacheStore) tagKey(tag string) string {
	return "qcache:tag:" + tag
}
