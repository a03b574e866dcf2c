package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leetboard/leetboard/internal/domain/analytics"
	"github.com/leetboard/leetboard/internal/domain/notifications"
	"github.com/leetboard/leetboard/internal/domain/snapshots"
	"github.com/leetboard/leetboard/internal/domain/streaks"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func (f *fakeStore) All(context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, f.err
}

func (f *fakeStore) set(k, v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[k] = v
}

type fakeSnapshots struct{ calls atomic.Int32 }

func (f *fakeSnapshots) RunTick(context.Context) (*snapshots.TickResult, error) {
	f.calls.Add(1)
	return &snapshots.TickResult{WeekStart: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), Count: 2}, nil
}

type fakeFetch struct{}

func (fakeFetch) Tick(context.Context) (*streaks.TickResult, error) { return &streaks.TickResult{}, nil }

func TestScheduler_StartAndReload(t *testing.T) {
	store := &fakeStore{values: map[string]string{KeySnapshotTime: "01:15"}}
	s := New(defaults(), time.UTC, store, &fakeSnapshots{}, fakeFetch{})

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	if err := s.Start(context.Background()); err == nil {
		t.Error("Scheduler.Start() twice should fail")
	}

	settings, specs := s.Active()
	if settings.SnapshotTime != "01:15" || specs.Snapshot != "0 15 1 * * 1" {
		t.Errorf("Scheduler.Active() got = %+v / %+v", settings, specs)
	}

	store.set(KeyFetchTickInterval, "5")
	store.set(KeySnapshotDay, "friday")
	require.NoError(t, s.Reload(context.Background()))

	_, specs = s.Active()
	if specs.Fetch != "@every 5m" || specs.Snapshot != "0 15 1 * * 5" {
		t.Errorf("Scheduler.Reload() specs = %+v", specs)
	}
}

func TestScheduler_SettingsStoreFailureUsesFile(t *testing.T) {
	s := New(defaults(), nil, &fakeStore{err: errors.New("no such table")}, &fakeSnapshots{}, fakeFetch{})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	settings, _ := s.Active()
	if settings != defaults() {
		t.Errorf("Scheduler.Active() got = %+v, want file settings", settings)
	}
}

func TestScheduler_RunSnapshotNow(t *testing.T) {
	runner := &fakeSnapshots{}
	s := New(defaults(), time.UTC, nil, runner, fakeFetch{})

	res, err := s.RunSnapshotNow(context.Background())
	require.NoError(t, err)
	if res.Count != 2 || runner.calls.Load() != 1 {
		t.Errorf("Scheduler.RunSnapshotNow() got = %+v, calls = %d", res, runner.calls.Load())
	}
}

func TestScheduler_JobsAreSerialized(t *testing.T) {
	s := New(defaults(), time.UTC, nil, &fakeSnapshots{}, fakeFetch{})

	var running, peak atomic.Int32
	job := func(context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.run("test", job)
		}()
	}
	wg.Wait()

	if peak.Load() != 1 {
		t.Errorf("concurrent jobs got = %d, want 1", peak.Load())
	}
}

type fakeTeams []string

func (f fakeTeams) Teams(context.Context) ([]string, error) { return f, nil }

type fakeWoW map[string][]analytics.WeekOverWeek

func (f fakeWoW) WeekOverWeek(_ context.Context, team string, _ int) ([]analytics.WeekOverWeek, error) {
	if team == "broken" {
		return nil, errors.New("database is locked")
	}
	return f[team], nil
}

type fakeEmitter struct{ events []notifications.Event }

func (f *fakeEmitter) Emit(_ context.Context, ev notifications.Event) (*models.Notification, error) {
	f.events = append(f.events, ev)
	return &models.Notification{}, nil
}

func TestDigest_Run(t *testing.T) {
	prevRank := 2
	wow := fakeWoW{
		"a": {
			{Week: "2025-01-13", Member: "alice", Name: "Alice", Previous: 10, Current: 25, Delta: 15, Rank: 1, PreviousRank: &prevRank, RankDelta: 1},
			{Week: "2025-01-13", Member: "dave", Name: "dave", Current: 3, Delta: 3, Rank: 2},
		},
	}
	emitter := &fakeEmitter{}
	d := NewDigest(fakeTeams{"a", "broken", "empty"}, wow, emitter)

	sent, err := d.Run(context.Background())
	require.NoError(t, err)
	if sent != 1 || len(emitter.events) != 1 {
		t.Fatalf("Digest.Run() got = %d, events %d, want 1", sent, len(emitter.events))
	}

	ev := emitter.events[0]
	if ev.Kind != notifications.KindDailyDigest || ev.Recipient != "a" {
		t.Errorf("Digest.Run() event = %+v", ev)
	}
	wantBody := "1. Alice 25 (+15, up 1)\n2. dave 3 (+3, new)"
	if ev.Body != wantBody {
		t.Errorf("Digest.Run() body got = %q, want %q", ev.Body, wantBody)
	}
	if ev.Title != "Week of 2025-01-13: 18 solved so far" || ev.Metadata["leader"] != "alice" {
		t.Errorf("Digest.Run() title = %q, metadata = %v", ev.Title, ev.Metadata)
	}
}
