package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	Volunteers int64   `json:"volunteers"`
	Hours      float64 `json:"hours"`
}

type trend struct {
	Month time.Time `json:"month"`
	Hours float64   `json:"hours"`
}

const (
	tagStats      = "stats"
	tagTrends     = "trends"
	tagCategories = "categories"
	tagRoles      = "roles"
)

var (
	statsQuery      = Query{Name: "dashboard_stats", TTL: 60 * time.Second, Tags: []string{tagStats}}
	trendsQuery     = Query{Name: "monthly_trends", TTL: 60 * time.Second, Tags: []string{tagStats, tagTrends}}
	categoriesQuery = Query{Name: "active_categories", TTL: 300 * time.Second, Tags: []string{tagCategories}}
	rolesQuery      = Query{Name: "role_definitions", TTL: 300 * time.Second, Tags: []string{tagRoles}}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingObserver struct {
	mu      sync.Mutex
	lookups map[string]int
	bumps   map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{lookups: map[string]int{}, bumps: map[string]int{}}
}

func (o *recordingObserver) ObserveLookup(query, result string) {
	o.mu.Lock()
	o.lookups[query+"/"+result]++
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveInvalidation(tag string) {
	o.mu.Lock()
	o.bumps[tag]++
	o.mu.Unlock()
}

func newTestCache(t *testing.T) (*QueryCache, *fakeClock, *recordingObserver) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store, err := NewMemoryStore(16, clock.Now)
	require.NoError(t, err)
	obs := newRecordingObserver()
	return New(store, obs, zerolog.Nop()), clock, obs
}

type statsLoader struct {
	calls atomic.Int32
}

func (l *statsLoader) load(context.Context) (stats, error) {
	n := l.calls.Add(1)
	return stats{Volunteers: int64(n)}, nil
}

func TestFetch_HitWithinTTL(t *testing.T) {
	qc, clock, obs := newTestCache(t)
	loader := &statsLoader{}
	ctx := context.Background()

	first, err := Fetch(ctx, qc, statsQuery, "", loader.load)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	second, err := Fetch(ctx, qc, statsQuery, "", loader.load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, 1, obs.lookups["dashboard_stats/hit"])
	assert.Equal(t, 1, obs.lookups["dashboard_stats/miss"])
}

func TestFetch_ReloadsAfterTTL(t *testing.T) {
	qc, clock, _ := newTestCache(t)
	loader := &statsLoader{}
	ctx := context.Background()

	_, err := Fetch(ctx, qc, statsQuery, "", loader.load)
	require.NoError(t, err)

	clock.Advance(60 * time.Second)
	got, err := Fetch(ctx, qc, statsQuery, "", loader.load)
	require.NoError(t, err)

	assert.Equal(t, int64(2), got.Volunteers)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestFetch_ReloadsAfterTagInvalidation(t *testing.T) {
	qc, clock, obs := newTestCache(t)
	loader := &statsLoader{}
	ctx := context.Background()

	_, err := Fetch(ctx, qc, statsQuery, "", loader.load)
	require.NoError(t, err)

	clock.Advance(time.Second)
	require.NoError(t, qc.InvalidateTags(ctx, tagStats))

	got, err := Fetch(ctx, qc, statsQuery, "", loader.load)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Volunteers)
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, 1, obs.bumps[tagStats])
}

func TestInvalidateTags_LeavesUnrelatedQueriesCached(t *testing.T) {
	qc, _, _ := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	load := func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"admin", "volunteer"}, nil
	}

	_, err := Fetch(ctx, qc, rolesQuery, "", load)
	require.NoError(t, err)
	require.NoError(t, qc.InvalidateTags(ctx, tagStats, tagTrends))
	_, err = Fetch(ctx, qc, rolesQuery, "", load)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestInvalidateTags_AnySharedTagExpiresEntry(t *testing.T) {
	qc, _, _ := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	load := func(context.Context) ([]trend, error) {
		calls.Add(1)
		return []trend{{Month: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Hours: 12}}, nil
	}

	_, err := Fetch(ctx, qc, trendsQuery, "2026-03", load)
	require.NoError(t, err)
	require.NoError(t, qc.InvalidateTags(ctx, tagTrends))
	_, err = Fetch(ctx, qc, trendsQuery, "2026-03", load)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_KeysAreIndependent(t *testing.T) {
	qc, _, _ := newTestCache(t)
	ctx := context.Background()

	load := func(hours float64) func(context.Context) ([]trend, error) {
		return func(context.Context) ([]trend, error) {
			return []trend{{Hours: hours}}, nil
		}
	}

	feb, err := Fetch(ctx, qc, trendsQuery, "2026-02", load(4))
	require.NoError(t, err)
	mar, err := Fetch(ctx, qc, trendsQuery, "2026-03", load(9))
	require.NoError(t, err)

	assert.Equal(t, 4.0, feb[0].Hours)
	assert.Equal(t, 9.0, mar[0].Hours)
}

func TestFetch_LoaderErrorIsNotCached(t *testing.T) {
	qc, _, _ := newTestCache(t)
	ctx := context.Background()

	boom := errors.New("db down")
	var calls atomic.Int32
	load := func(context.Context) (stats, error) {
		if calls.Add(1) == 1 {
			return stats{}, boom
		}
		return stats{Volunteers: 7}, nil
	}

	_, err := Fetch(ctx, qc, statsQuery, "", load)
	require.ErrorIs(t, err, boom)

	got, err := Fetch(ctx, qc, statsQuery, "", load)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Volunteers)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_ConcurrentMissesShareOneLoad(t *testing.T) {
	qc, _, _ := newTestCache(t)
	ctx := context.Background()

	release := make(chan struct{})
	var calls atomic.Int32
	load := func(context.Context) (stats, error) {
		calls.Add(1)
		<-release
		return stats{Volunteers: 3}, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]stats, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(ctx, qc, statsQuery, "", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Let the goroutines pile up on the in-flight load.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
	for _, r := range results {
		assert.Equal(t, int64(3), r.Volunteers)
	}
}

func TestFetch_InvalidationDuringLoadIssuesNewQuery(t *testing.T) {
	qc, _, _ := newTestCache(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	load := func(context.Context) (stats, error) {
		n := calls.Add(1)
		if n == 1 {
			close(started)
			<-release
		}
		return stats{Volunteers: int64(n)}, nil
	}

	firstDone := make(chan stats, 1)
	go func() {
		v, err := Fetch(ctx, qc, statsQuery, "", load)
		assert.NoError(t, err)
		firstDone <- v
	}()
	<-started

	require.NoError(t, qc.InvalidateTags(ctx, tagStats))
	got, err := Fetch(ctx, qc, statsQuery, "", load)
	require.NoError(t, err)
	close(release)

	assert.Equal(t, int64(2), got.Volunteers)
	assert.Equal(t, int64(1), (<-firstDone).Volunteers)
	assert.Equal(t, int32(2), calls.Load())

	// The pre-invalidation result was stamped with old versions.
	again, err := Fetch(ctx, qc, statsQuery, "", load)
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.Volunteers)
}

func TestFetch_SharedLoadReturnsIndependentCopies(t *testing.T) {
	qc, _, _ := newTestCache(t)
	ctx := context.Background()

	release := make(chan struct{})
	load := func(context.Context) ([]trend, error) {
		<-release
		return []trend{{Hours: 5}}, nil
	}

	const n = 4
	var wg sync.WaitGroup
	results := make([][]trend, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(ctx, qc, trendsQuery, "2026-03", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	results[0][0].Hours = 99
	for _, r := range results[1:] {
		require.Len(t, r, 1)
		assert.Equal(t, 5.0, r[0].Hours)
	}
}

func TestQueryCache_RejectsNonPositiveTTL(t *testing.T) {
	qc, _, _ := newTestCache(t)
	ctx := context.Background()
	forever := Query{Name: "forever", Tags: []string{tagStats}}

	var calls atomic.Int32
	_, err := Fetch(ctx, qc, forever, "", func(context.Context) (stats, error) {
		calls.Add(1)
		return stats{}, nil
	})
	assert.ErrorIs(t, err, ErrInvalidTTL)
	assert.Zero(t, calls.Load())

	assert.ErrorIs(t, qc.Set(ctx, forever, "", []byte(`{}`)), ErrInvalidTTL)
}

func TestFetch_CancelledCallerReturnsPromptly(t *testing.T) {
	qc, _, _ := newTestCache(t)

	release := make(chan struct{})
	defer close(release)
	load := func(context.Context) (stats, error) {
		<-release
		return stats{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch(ctx, qc, statsQuery, "", load)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryCache_GetSet(t *testing.T) {
	qc, _, _ := newTestCache(t)
	ctx := context.Background()

	_, err := qc.Get(ctx, categoriesQuery, "")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, qc.Set(ctx, categoriesQuery, "", []byte(`["food"]`)))
	got, err := qc.Get(ctx, categoriesQuery, "")
	require.NoError(t, err)
	assert.JSONEq(t, `["food"]`, string(got))

	require.NoError(t, qc.InvalidateTags(ctx, tagCategories))
	_, err = qc.Get(ctx, categoriesQuery, "")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_Bounded(t *testing.T) {
	store, err := NewMemoryStore(2, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Set(ctx, k, &Entry{Payload: []byte(k)}, time.Minute))
	}
	assert.Equal(t, 2, store.Len())

	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestContext(t *testing.T) {
	qc, _, _ := newTestCache(t)
	assert.Nil(t, FromContext(context.Background()))
	assert.Same(t, qc, FromContext(NewContext(context.Background(), qc)))
}
