package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/orchestrator"
)

func TestIsDueDailyWindow(t *testing.T) {
	pref := model.SchedulingPreferences{UserID: "u1", Type: model.ScheduleDaily, Hour: 9, Minute: 0}

	cases := []struct {
		clock string
		want  bool
	}{
		{"09:00", true},
		{"09:07", true},
		{"09:14", true},
		{"09:15", false},
		{"09:30", false},
		{"08:59", false},
	}
	for _, c := range cases {
		parsed, err := time.Parse("15:04", c.clock)
		if err != nil {
			t.Fatalf("parse %s: %v", c.clock, err)
		}
		now := time.Date(2026, 7, 29, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
		if got := IsDue(pref, now); got != c.want {
			t.Errorf("IsDue at %s = %v, want %v", c.clock, got, c.want)
		}
	}
}

func TestIsDueWeeklyRequiresMatchingWeekday(t *testing.T) {
	pref := model.SchedulingPreferences{UserID: "u1", Type: model.ScheduleWeekly, Hour: 9, Minute: 0, Day: time.Monday}

	monday := time.Date(2026, 7, 27, 9, 5, 0, 0, time.UTC) // a Monday
	if monday.Weekday() != time.Monday {
		t.Fatalf("test fixture not a Monday: %v", monday.Weekday())
	}
	if !IsDue(pref, monday) {
		t.Error("expected trigger on matching weekday")
	}

	tuesday := monday.AddDate(0, 0, 1)
	if IsDue(pref, tuesday) {
		t.Error("expected no trigger on non-matching weekday even at the matching clock time")
	}
}

type fakeSchedStore struct {
	mu      sync.Mutex
	prefs   []model.SchedulingPreferences
	claimed map[string]bool
	claims  int32
}

func (f *fakeSchedStore) AllScheduling(ctx context.Context) ([]model.SchedulingPreferences, error) {
	return f.prefs, nil
}

func (f *fakeSchedStore) ClaimScheduleWindow(ctx context.Context, userID, windowStart string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "@" + windowStart
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	atomic.AddInt32(&f.claims, 1)
	return true, nil
}

type countingRunner struct {
	runs int32
	done chan struct{}
}

func (r *countingRunner) RunUpdate(ctx context.Context, userID, presenterName, language, voiceID string) orchestrator.Result {
	atomic.AddInt32(&r.runs, 1)
	if r.done != nil {
		r.done <- struct{}{}
	}
	return orchestrator.Result{UserID: userID}
}

// TestSchedulerIdempotencyAcrossTwoTicks is the scheduler seed test from §8:
// two consecutive ticks at T=09:05 and T=09:20 for a daily/09:00 user must
// enqueue the orchestrator exactly once.
func TestSchedulerIdempotencyAcrossTwoTicks(t *testing.T) {
	store := &fakeSchedStore{
		prefs:   []model.SchedulingPreferences{{UserID: "u1", Type: model.ScheduleDaily, Hour: 9, Minute: 0}},
		claimed: map[string]bool{},
	}
	runner := &countingRunner{done: make(chan struct{}, 2)}
	s := New(store, runner, nil)

	firstTick := time.Date(2026, 7, 29, 9, 5, 0, 0, time.UTC)
	secondTick := time.Date(2026, 7, 29, 9, 20, 0, 0, time.UTC)

	s.Tick(context.Background(), firstTick)
	select {
	case <-runner.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first tick's run")
	}

	s.Tick(context.Background(), secondTick)
	select {
	case <-runner.done:
		t.Fatal("second tick should not trigger another run within the same window")
	case <-time.After(100 * time.Millisecond):
	}

	if got := atomic.LoadInt32(&runner.runs); got != 1 {
		t.Errorf("runs = %d, want exactly 1", got)
	}
	if got := atomic.LoadInt32(&store.claims); got != 1 {
		t.Errorf("doc-store claims = %d, want exactly 1", got)
	}
}

// TestSchedulerRestartFallsBackToStoreClaim simulates a fresh Scheduler
// instance (as after a process restart) re-ticking the same window: the
// in-process seen-set is empty, so the store's ClaimScheduleWindow must be
// the one to reject the duplicate.
func TestSchedulerRestartFallsBackToStoreClaim(t *testing.T) {
	store := &fakeSchedStore{
		prefs:   []model.SchedulingPreferences{{UserID: "u1", Type: model.ScheduleDaily, Hour: 9, Minute: 0}},
		claimed: map[string]bool{},
	}
	now := time.Date(2026, 7, 29, 9, 5, 0, 0, time.UTC)

	runner1 := &countingRunner{done: make(chan struct{}, 1)}
	s1 := New(store, runner1, nil)
	s1.Tick(context.Background(), now)
	<-runner1.done

	runner2 := &countingRunner{done: make(chan struct{}, 1)}
	s2 := New(store, runner2, nil)
	s2.Tick(context.Background(), now)

	select {
	case <-runner2.done:
		t.Fatal("a fresh scheduler instance should not re-run a window already claimed in the store")
	case <-time.After(100 * time.Millisecond):
	}
}
