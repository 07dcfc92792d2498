// Package querycache is a process-wide cache for aggregate read queries.
//
// Every cached query has its own TTL and a set of invalidation tags.
// Writers never touch cached entries directly: they bump the version of
// the tags covering the data they changed, and any entry stored under an
// older tag version reads as a miss. The cache never invalidates itself on
// writes it is not told about.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrMiss is returned by Store.Get and QueryCache.Get when there is no
	// usable entry.
	ErrMiss = errors.New("querycache: miss")
	// ErrInvalidTTL is returned for a Query whose TTL is not positive.
	ErrInvalidTTL = errors.New("querycache: ttl must be positive")
)

// Query identifies a cached read.
type Query struct {
	Name string
	TTL  time.Duration
	Tags []string
}

// Entry is a stored query result together with the tag versions that were
// current when the result was computed.
type Entry struct {
	Payload []byte           `json:"payload"`
	Tags    map[string]int64 `json:"tags"`
}

// Store is the backing key/value store. Get returns ErrMiss for
// absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error
	TagVersions(ctx context.Context, tags []string) (map[string]int64, error)
	BumpTags(ctx context.Context, tags []string) error
}

// Observer receives lookup and invalidation events, typically to feed
// metrics.
type Observer interface {
	ObserveLookup(query, result string)
	ObserveInvalidation(tag string)
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string, string) {}
func (nopObserver) ObserveInvalidation(string)   {}

// QueryCache is constructed once at process start and shared by all
// requests.
type QueryCache struct {
	store    Store
	group    singleflight.Group
	observer Observer
	log      zerolog.Logger
}

// New returns a QueryCache over store. observer may be nil.
func New(store Store, observer Observer, log zerolog.Logger) *QueryCache {
	if observer == nil {
		observer = nopObserver{}
	}
	return &QueryCache{store: store, observer: observer, log: log}
}

func storeKey(q Query, key string) string {
	if key == "" {
		return q.Name
	}
	return q.Name + ":" + key
}

// Get returns the cached payload for q/key, or ErrMiss when
// the entry is absent, expired or stale by tag.
func (c *QueryCache) Get(ctx context.Context, q Query, key string) ([]byte, error) {
	e, err := c.store.Get(ctx, storeKey(q, key))
	if err != nil {
		return nil, err
	}

	current, err := c.store.TagVersions(ctx, q.Tags)
	if err != nil {
		return nil, fmt.Errorf("tag versions: %w", err)
	}
	for tag, v := range current {
		if e.Tags[tag] != v {
			return nil, ErrMiss
		}
	}
	return e.Payload, nil
}

// Set stores payload for q/key stamped with the current tag versions.
func (c *QueryCache) Set(ctx context.Context, q Query, key string, payload []byte) error {
	if q.TTL <= 0 {
		return fmt.Errorf("%s: %w", q.Name, ErrInvalidTTL)
	}
	versions, err := c.store.TagVersions(ctx, q.Tags)
	if err != nil {
		return fmt.Errorf("tag versions: %w", err)
	}
	return c.set(ctx, q, key, payload, versions)
}

func (c *QueryCache) set(ctx context.Context, q Query, key string, payload []byte, versions map[string]int64) error {
	return c.store.Set(ctx, storeKey(q, key), &Entry{Payload: payload, Tags: versions}, q.TTL)
}

// InvalidateTags marks every entry stored under any of tags as stale.
func (c *QueryCache) InvalidateTags(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	if err := c.store.BumpTags(ctx, tags); err != nil {
		return fmt.Errorf("invalidate %v: %w", tags, err)
	}
	for _, t := range tags {
		c.observer.ObserveInvalidation(t)
	}
	c.log.Debug().Strs("tags", tags).Msg("query cache invalidated")
	return nil
}

// Fetch returns the cached result of q/key, computing it with load on a
// miss. Concurrent misses for the same key and tag versions share one load,
// so a read issued after an invalidation never joins a load that started
// before it. The load runs detached from the caller's cancellation so that
// an aborted request does not fail the other callers waiting on it; the
// aborted caller itself returns immediately. Load errors are returned and
// never cached. Every caller decodes its own copy of the result.
func Fetch[T any](ctx context.Context, c *QueryCache, q Query, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if q.TTL <= 0 {
		return zero, fmt.Errorf("%s: %w", q.Name, ErrInvalidTTL)
	}

	payload, err := c.Get(ctx, q, key)
	switch {
	case err == nil:
		var out T
		if err := json.Unmarshal(payload, &out); err == nil {
			c.observer.ObserveLookup(q.Name, "hit")
			return out, nil
		}
		c.log.Warn().Str("query", q.Name).Msg("undecodable cache entry, reloading")
	case errors.Is(err, ErrMiss):
	default:
		// A broken store degrades to uncached reads.
		c.log.Warn().Err(err).Str("query", q.Name).Msg("query cache read failed")
	}
	c.observer.ObserveLookup(q.Name, "miss")

	// Versions are read before loading: an invalidation that lands while
	// the load runs leaves this result stale.
	versions, verr := c.store.TagVersions(ctx, q.Tags)
	flight := storeKey(q, key) + "@" + encodeVersions(q.Tags, versions, verr)

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (interface{}, error) {
		v, err := load(detached)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", q.Name, err)
		}
		if verr == nil && c.current(detached, q.Tags, versions) {
			if err := c.set(detached, q, key, raw, versions); err != nil {
				c.log.Warn().Err(err).Str("query", q.Name).Msg("query cache write failed")
			}
		}
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		var out T
		if err := json.Unmarshal(res.Val.([]byte), &out); err != nil {
			return zero, fmt.Errorf("decode %s: %w", q.Name, err)
		}
		return out, nil
	}
}

// current reports whether versions still match the store, so a load that
// overlapped an invalidation does not overwrite a fresher entry.
func (c *QueryCache) current(ctx context.Context, tags []string, versions map[string]int64) bool {
	now, err := c.store.TagVersions(ctx, tags)
	if err != nil {
		return false
	}
	for _, t := range tags {
		if now[t] != versions[t] {
			return false
		}
	}
	return true
}

// encodeVersions renders versions in q.Tags order, e.g. "stats=3,trends=1".
func encodeVersions(tags []string, versions map[string]int64, err error) string {
	if err != nil {
		return "unversioned"
	}
	var b strings.Builder
	for i, t := range tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t)
		b.WriteByte('=')
		b.WriteString(strconv.FormatInt(versions[t], 10))
	}
	return b.String()
}
