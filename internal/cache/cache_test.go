package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"painel/internal/models"
)

type fakeFetcher struct {
	calls    atomic.Int32
	deputies []models.Deputy
	err      error
	delay    time.Duration
}

func (f *fakeFetcher) FetchDeputies(ctx context.Context) ([]models.Deputy, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.deputies, nil
}

type fakeArchive struct {
	saved  []*models.DeputySnapshot
	latest *models.DeputySnapshot
}

func (a *fakeArchive) SaveSnapshot(_ context.Context, snap *models.DeputySnapshot) error {
	a.saved = append(a.saved, snap)
	return nil
}

func (a *fakeArchive) LatestSnapshot(_ context.Context) (*models.DeputySnapshot, error) {
	if a.latest == nil {
		return nil, errors.New("snapshot not found")
	}
	return a.latest, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func sampleDeputies() []models.Deputy {
	return []models.Deputy{
		{ID: 1, Nome: "Ana", SiglaPartido: "PT", SiglaUF: "SP"},
		{ID: 2, Nome: "Bruno", SiglaPartido: "PL", SiglaUF: "RJ"},
	}
}

func TestGet_FreshnessRules(t *testing.T) {
	fetcher := &fakeFetcher{deputies: sampleDeputies()}
	clk := &clock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	c := New(fetcher, NewMemoryStore(), WithClock(clk.now))
	ctx := context.Background()
	ttl := 60 * time.Minute

	res := c.Get(ctx, ttl, false)
	assert.Equal(t, models.SourceAPI, res.Source)
	assert.Len(t, res.Deputies, 2)
	assert.Equal(t, clk.t, res.FetchedAt)

	clk.advance(30 * time.Minute)
	res = c.Get(ctx, ttl, false)
	assert.Equal(t, models.SourceCache, res.Source)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	res = c.Get(ctx, ttl, true)
	assert.Equal(t, models.SourceAPI, res.Source)
	assert.Equal(t, int32(2), fetcher.calls.Load())

	clk.advance(61 * time.Minute)
	res = c.Get(ctx, ttl, false)
	assert.Equal(t, models.SourceAPI, res.Source)
	assert.Equal(t, int32(3), fetcher.calls.Load())
}

func TestGet_ShorterTTLRefreshesSooner(t *testing.T) {
	fetcher := &fakeFetcher{deputies: sampleDeputies()}
	clk := &clock{t: time.Now()}
	c := New(fetcher, NewMemoryStore(), WithClock(clk.now))
	ctx := context.Background()

	c.Get(ctx, time.Hour, false)
	clk.advance(10 * time.Minute)

	assert.Equal(t, models.SourceCache, c.Get(ctx, time.Hour, false).Source)
	assert.Equal(t, models.SourceAPI, c.Get(ctx, 5*time.Minute, false).Source)
}

func TestGet_FailureServesStaleSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{deputies: sampleDeputies()}
	c := New(fetcher, NewMemoryStore())
	ctx := context.Background()

	require.Equal(t, models.SourceAPI, c.Get(ctx, time.Hour, false).Source)

	fetcher.err = errors.New("connection refused")
	res := c.Get(ctx, time.Hour, true)

	assert.Equal(t, models.SourceCacheStale, res.Source)
	assert.Len(t, res.Deputies, 2)
	assert.EqualError(t, res.Err, "connection refused")
	assert.EqualError(t, c.LastError(), "connection refused")
}

func TestGet_FailureWithoutSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("timeout")}
	c := New(fetcher, NewMemoryStore())

	res := c.Get(context.Background(), time.Hour, false)

	assert.Equal(t, models.SourceError, res.Source)
	assert.Empty(t, res.Deputies)
	assert.True(t, res.FetchedAt.IsZero())
	assert.Error(t, res.Err)
}

func TestGet_EmptySnapshotAlwaysRefreshes(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := New(fetcher, NewMemoryStore())
	ctx := context.Background()

	c.Get(ctx, time.Hour, false)
	c.Get(ctx, time.Hour, false)

	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestClear(t *testing.T) {
	fetcher := &fakeFetcher{deputies: sampleDeputies()}
	c := New(fetcher, NewMemoryStore())
	ctx := context.Background()

	c.Get(ctx, time.Hour, false)
	require.True(t, c.HasData(ctx))

	require.NoError(t, c.Clear(ctx))
	assert.False(t, c.HasData(ctx))
	assert.NoError(t, c.LastError())

	assert.Equal(t, models.SourceAPI, c.Get(ctx, time.Hour, false).Source)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestGet_ArchiveFallbackOnColdStart(t *testing.T) {
	archived := &models.DeputySnapshot{
		Deputies:  sampleDeputies(),
		FetchedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	archive := &fakeArchive{latest: archived}
	fetcher := &fakeFetcher{err: errors.New("api down")}
	c := New(fetcher, NewMemoryStore(), WithArchive(archive))

	res := c.Get(context.Background(), time.Hour, false)

	assert.Equal(t, models.SourceCacheStale, res.Source)
	assert.Equal(t, archived.FetchedAt, res.FetchedAt)
	assert.Len(t, res.Deputies, 2)
}

func TestGet_ArchivesSuccessfulFetch(t *testing.T) {
	archive := &fakeArchive{}
	c := New(&fakeFetcher{deputies: sampleDeputies()}, NewMemoryStore(), WithArchive(archive))

	c.Get(context.Background(), time.Hour, false)

	require.Len(t, archive.saved, 1)
	assert.Len(t, archive.saved[0].Deputies, 2)
}

func TestGet_ConcurrentCallersShareOneFetch(t *testing.T) {
	fetcher := &fakeFetcher{deputies: sampleDeputies(), delay: 100 * time.Millisecond}
	c := New(fetcher, NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := c.Get(context.Background(), time.Hour, false)
			assert.True(t, res.HasData())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
}
