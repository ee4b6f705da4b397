// Package scheduler is the Scheduler from §4.9: a 15-minute tick that scans
// every SchedulingPreferences document, computes which users are due, and
// fans each triggered user out to a bounded worker pool running one
// orchestrator update. Grounded on mcpserver.TaskManager's maxTasks/running
// counter and cancels map (internal/mcpserver/tasks.go), generalized from
// "one podcast generation job" to "one scheduled user tick."
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/observability"
	"github.com/brightfeed/newsbrief/internal/orchestrator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("newsbrief-scheduler")

const (
	// TickInterval mirrors the cron-equivalent */15 * * * * from §6.
	TickInterval = 15 * time.Minute

	defaultPresenterName = "Alex"
	defaultLanguage      = "en"
	defaultVoiceID       = "Joanna"

	defaultMaxWorkers = 10
)

// Store is the slice of store.Adapter the scheduler needs.
type Store interface {
	AllScheduling(ctx context.Context) ([]model.SchedulingPreferences, error)
	ClaimScheduleWindow(ctx context.Context, userID, windowStart string) (bool, error)
}

// Runner is the slice of orchestrator.Orchestrator the scheduler drives.
type Runner interface {
	RunUpdate(ctx context.Context, userID, presenterName, language, voiceID string) orchestrator.Result
}

// Scheduler owns the worker pool and the in-process half of the idempotency
// key; the store-backed half (ClaimScheduleWindow) is the source of truth
// that survives a process restart between ticks.
type Scheduler struct {
	store      Store
	runner     Runner
	log        *slog.Logger
	maxWorkers int
	now        func() time.Time

	mu     sync.Mutex
	seen   map[string]time.Time // in-process fast path, keyed by idempotency key
	sem    chan struct{}
}

func New(store Store, runner Runner, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		store:      store,
		runner:     runner,
		log:        log,
		maxWorkers: defaultMaxWorkers,
		now:        time.Now,
		seen:       make(map[string]time.Time),
		sem:        make(chan struct{}, defaultMaxWorkers),
	}
}

// WindowStart floors a wall-clock time down to the current 15-minute
// boundary, forming the window-start half of the idempotency key.
func WindowStart(t time.Time) time.Time {
	t = t.UTC()
	minute := (t.Minute() / 15) * 15
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, time.UTC)
}

func idempotencyKey(userID string, windowStart time.Time) string {
	return userID + ":" + windowStart.Format(time.RFC3339)
}

// IsDue implements §4.9's trigger logic (also exercised directly by the
// boundary-behavior tests in §8): daily triggers if 0 ≤ T−Ttgt < 15m;
// weekly additionally requires today's weekday to match.
func IsDue(pref model.SchedulingPreferences, now time.Time) bool {
	target := time.Date(now.Year(), now.Month(), now.Day(), pref.Hour, pref.Minute, 0, 0, now.Location())
	delta := now.Sub(target)
	if delta < 0 || delta >= TickInterval {
		return false
	}
	if pref.Type == model.ScheduleWeekly && now.Weekday() != pref.Day {
		return false
	}
	return true
}

// Tick scans every scheduling document and fans out one orchestrator run per
// due, not-yet-claimed user. It does not block on the submitted runs — a
// subsequent tick may call Tick again immediately (§5's "non-reentrant tick
// must still enqueue newly eligible users without blocking").
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	ctx, span := tracer.Start(ctx, "scheduler.tick")
	defer span.End()

	windowStart := WindowStart(now)

	prefs, err := s.store.AllScheduling(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list scheduling preferences failed")
		s.log.ErrorContext(ctx, "scheduler: list scheduling preferences failed", "error", err)
		return
	}

	s.sweepSeen(now)

	for _, pref := range prefs {
		if !IsDue(pref, now) {
			continue
		}
		key := idempotencyKey(pref.UserID, windowStart)

		s.mu.Lock()
		if _, ok := s.seen[key]; ok {
			s.mu.Unlock()
			continue
		}
		s.seen[key] = now
		s.mu.Unlock()

		s.submit(ctx, pref.UserID, windowStart.Format(time.RFC3339))
	}
}

// submit claims the doc-store half of the idempotency key and, if this
// process won the claim, runs the orchestrator update on a pooled goroutine.
func (s *Scheduler) submit(ctx context.Context, userID, windowStart string) {
	go func() {
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-s.sem }()

		claimed, err := s.store.ClaimScheduleWindow(ctx, userID, windowStart)
		if err != nil {
			s.log.ErrorContext(ctx, "scheduler: claim window failed", "user_id", userID, "error", err)
			return
		}
		if !claimed {
			s.log.InfoContext(ctx, "scheduler: window already claimed, skipping", "user_id", userID)
			return
		}

		runCtx, cancel := context.WithTimeout(detach(ctx), 15*time.Minute)
		defer cancel()

		runCtx, span := tracer.Start(runCtx, "scheduler.run_user")
		span.SetAttributes(attribute.String("user_id", userID))
		defer span.End()

		result := s.runner.RunUpdate(runCtx, userID, defaultPresenterName, defaultLanguage, defaultVoiceID)
		if !result.Fetch.Success || !result.Report.Success || !result.Podcast.Success {
			span.SetStatus(codes.Error, "orchestrator run had a fatal step failure")
		}
		s.log.InfoContext(ctx, "scheduler: orchestrator run complete",
			"user_id", userID,
			"fetch_ok", result.Fetch.Success,
			"report_ok", result.Report.Success,
			"podcast_ok", result.Podcast.Success,
			"notify_sent", result.NotifySent,
		)
	}()
}

// sweepSeen drops in-process idempotency entries older than two windows, so
// the map does not grow unbounded across a long-running process.
func (s *Scheduler) sweepSeen(now time.Time) {
	cutoff := now.Add(-2 * TickInterval)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, seenAt := range s.seen {
		if seenAt.Before(cutoff) {
			delete(s.seen, k)
		}
	}
}

// detach decouples the worker's lifetime from the context.Context that
// triggered Tick while keeping its trace span linked, mirroring
// mcpserver.TaskManager's baseCtx/taskCtx split
// (observability.DetachTraceContextFrom).
func detach(parent context.Context) context.Context {
	return observability.DetachTraceContext(parent)
}
