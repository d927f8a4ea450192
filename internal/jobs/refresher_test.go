package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"painel/internal/models"
)

type fakeDeputies struct {
	calls  atomic.Int32
	forced atomic.Bool
	result models.DeputyResult
}

func (f *fakeDeputies) Get(_ context.Context, _ time.Duration, force bool) models.DeputyResult {
	f.calls.Add(1)
	if force {
		f.forced.Store(true)
	}
	return f.result
}

type fakeReports struct {
	calls atomic.Int32
	err   error
}

func (f *fakeReports) Reload(context.Context) (*models.ReportSet, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReportSet{}, nil
}

type fakePruner struct {
	keep int
	err  error
}

func (f *fakePruner) PruneSnapshots(_ context.Context, keep int) (int64, error) {
	f.keep = keep
	return 3, f.err
}

func TestRefresher_RunOnce(t *testing.T) {
	deputies := &fakeDeputies{result: models.DeputyResult{Source: models.SourceAPI, Deputies: []models.Deputy{{ID: 1}}}}
	reports := &fakeReports{}
	pruner := &fakePruner{}

	r := NewRefresher(deputies, reports, pruner, time.Minute, time.Hour, 10)
	r.RunOnce(context.Background())

	assert.Equal(t, int32(1), deputies.calls.Load())
	assert.False(t, deputies.forced.Load(), "background refresh must respect the TTL")
	assert.Equal(t, int32(1), reports.calls.Load())
	assert.Equal(t, 10, pruner.keep)
}

func TestRefresher_FailuresDoNotStopTheRun(t *testing.T) {
	deputies := &fakeDeputies{result: models.DeputyResult{Source: models.SourceError, Err: errors.New("timeout")}}
	reports := &fakeReports{err: errors.New("bucket unreachable")}
	pruner := &fakePruner{err: errors.New("pool closed")}

	r := NewRefresher(deputies, reports, pruner, time.Minute, time.Hour, 10)
	r.RunOnce(context.Background())

	assert.Equal(t, int32(1), deputies.calls.Load())
	assert.Equal(t, int32(1), reports.calls.Load())
	assert.Equal(t, 10, pruner.keep)
}

func TestRefresher_OptionalParts(t *testing.T) {
	deputies := &fakeDeputies{result: models.DeputyResult{Source: models.SourceCache}}

	r := NewRefresher(deputies, nil, nil, time.Minute, time.Hour, 0)
	r.RunOnce(context.Background())

	assert.Equal(t, int32(1), deputies.calls.Load())
}

func TestRefresher_StartStopsOnCancel(t *testing.T) {
	deputies := &fakeDeputies{result: models.DeputyResult{Source: models.SourceCache}}
	r := NewRefresher(deputies, nil, nil, 10*time.Millisecond, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return deputies.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after cancel")
	}
}

type fakeAlerter struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeAlerter) RefreshFailed(source string, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "failed:"+source)
}

func (f *fakeAlerter) RefreshRecovered(source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "recovered:"+source)
}

func TestRefresher_AlertsOnTransitions(t *testing.T) {
	deputies := &fakeDeputies{result: models.DeputyResult{Source: models.SourceCacheStale, Err: errors.New("timeout")}}
	alerter := &fakeAlerter{}
	r := NewRefresher(deputies, nil, nil, time.Minute, time.Hour, 0).WithAlerts(alerter)

	r.RunOnce(context.Background())
	r.RunOnce(context.Background())
	assert.Equal(t, []string{"failed:" + AlertDeputies}, alerter.events, "repeated failures alert once")

	deputies.result = models.DeputyResult{Source: models.SourceAPI}
	r.RunOnce(context.Background())
	r.RunOnce(context.Background())
	assert.Equal(t, []string{"failed:" + AlertDeputies, "recovered:" + AlertDeputies}, alerter.events)
}

func TestRefresher_ReportAlerts(t *testing.T) {
	deputies := &fakeDeputies{result: models.DeputyResult{Source: models.SourceCache}}
	reports := &fakeReports{err: errors.New("bucket unreachable")}
	alerter := &fakeAlerter{}
	r := NewRefresher(deputies, reports, nil, time.Minute, time.Hour, 0).WithAlerts(alerter)

	r.RunOnce(context.Background())
	reports.err = nil
	r.RunOnce(context.Background())

	assert.Equal(t, []string{"failed:" + AlertReports, "recovered:" + AlertReports}, alerter.events)
}
