// Package orchestrator is the Pipeline Orchestrator from §4.8: chains
// fetcher → report builder → script composer → synthesizer → notifier for
// one user, persisting intermediate artifacts. Grounded on mcpserver's
// job-lifecycle pattern (internal/mcpserver/server.go's stage-by-stage
// progress updates), adapted from a single long-running MCP job into a
// four-step structured result per §4.8/§7 ("the orchestrator stops at the
// first fatal step and returns a per-step status map; it does not raise").
package orchestrator

import (
	"context"
	"time"

	"github.com/brightfeed/newsbrief/internal/fetch"
	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/notify"
	"github.com/brightfeed/newsbrief/internal/podcast"
	"github.com/brightfeed/newsbrief/internal/prefs"
	"github.com/brightfeed/newsbrief/internal/report"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("newsbrief-orchestrator")

// Store is the slice of store.Adapter the orchestrator needs, declared here
// so tests can substitute a fake.
type Store interface {
	PutArticlesBundle(ctx context.Context, bundle model.UserArticlesBundle) error
	PutReportBundle(ctx context.Context, bundle model.UserReportBundle) error
	PutPodcastRun(ctx context.Context, artifact model.PodcastArtifact) error
	GetDevice(ctx context.Context, userID string) (*model.DeviceBinding, bool, error)
	InvalidateDevice(ctx context.Context, userID string) error
}

// StepResult records one step's outcome for the structured result returned
// to the caller, per §4.8 and §7's propagation policy.
type StepResult struct {
	Success bool
	Error   string
}

// Result is run_update's structured return value, including the data every
// step produced that's useful to a caller (article counts, report counts,
// audio URL), per §4.8.
type Result struct {
	UserID       string
	Fetch        StepResult
	Report       StepResult
	Podcast      StepResult
	Notify       StepResult
	ArticleCount int
	ReportCount  int
	AudioURL     string
	NotifySent   bool
}

type Orchestrator struct {
	prefsStore  *prefs.Store
	store       Store
	fetcher     *fetch.Fetcher
	reportBuilder *report.Builder
	composer    *podcast.Composer
	synthesizer *podcast.Synthesizer
	notifier    *notify.Notifier
	now         func() time.Time
}

func New(
	prefsStore *prefs.Store,
	store Store,
	fetcher *fetch.Fetcher,
	reportBuilder *report.Builder,
	composer *podcast.Composer,
	synthesizer *podcast.Synthesizer,
	notifier *notify.Notifier,
) *Orchestrator {
	return &Orchestrator{
		prefsStore:    prefsStore,
		store:         store,
		fetcher:       fetcher,
		reportBuilder: reportBuilder,
		composer:      composer,
		synthesizer:   synthesizer,
		notifier:      notifier,
		now:           time.Now,
	}
}

// RunUpdate implements §4.8's four ordered steps. Steps 1-3 are fatal on
// failure; step 4 (push) is non-fatal and always recorded.
func (o *Orchestrator) RunUpdate(ctx context.Context, userID, presenterName, language, voiceID string) Result {
	ctx, span := tracer.Start(ctx, "orchestrator.RunUpdate")
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("language", language))
	defer span.End()

	result := Result{UserID: userID}

	userPrefs, err := o.prefsStore.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load preferences failed")
		result.Fetch = StepResult{Success: false, Error: err.Error()}
		return result
	}

	// Step 1: refresh articles.
	bundle := o.fetcher.Refresh(ctx, userID, userPrefs.Preferences, language, "us")
	if err := o.store.PutArticlesBundle(ctx, *bundle); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist articles bundle failed")
		result.Fetch = StepResult{Success: false, Error: err.Error()}
		return result
	}
	result.Fetch = StepResult{Success: true}
	result.ArticleCount = bundle.Summary.TotalArticles

	// Step 2: complete user report.
	reportBundle := o.reportBuilder.CompleteUserReport(ctx, bundle, language)
	if err := o.store.PutReportBundle(ctx, reportBundle); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist report bundle failed")
		result.Report = StepResult{Success: false, Error: err.Error()}
		return result
	}
	result.Report = StepResult{Success: true}
	result.ReportCount = len(reportBundle.Reports)

	// Step 3: compose script, then synthesize audio.
	now := o.now()
	artifact, err := o.composer.Compose(ctx, bundle, presenterName, language, voiceID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compose script failed")
		result.Podcast = StepResult{Success: false, Error: err.Error()}
		return result
	}
	// Persist the script-only artifact first so a later synth failure still
	// leaves a retrievable script, per §7's "script is retained" rule.
	if err := o.store.PutPodcastRun(ctx, artifact); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist script artifact failed")
		result.Podcast = StepResult{Success: false, Error: err.Error()}
		return result
	}

	synthesized, err := o.synthesizer.Synthesize(ctx, artifact, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesize audio failed")
		result.Podcast = StepResult{Success: false, Error: err.Error()}
		return result
	}
	if err := o.store.PutPodcastRun(ctx, synthesized); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist synthesized artifact failed")
		result.Podcast = StepResult{Success: false, Error: err.Error()}
		return result
	}
	result.Podcast = StepResult{Success: true}
	result.AudioURL = synthesized.AudioURL

	// Step 4: push, non-fatal.
	device, found, err := o.store.GetDevice(ctx, userID)
	if err != nil || !found || device.FCMToken == "" {
		result.Notify = StepResult{Success: false, Error: "no device token registered"}
		return result
	}
	notifyResult := o.notifier.Send(ctx, device.FCMToken)
	if notifyResult.Skipped {
		result.Notify = StepResult{Success: false, Error: notifyResult.SkippedReason}
		if notifyResult.InvalidateToken {
			_ = o.store.InvalidateDevice(ctx, userID)
		}
		return result
	}
	result.Notify = StepResult{Success: true}
	result.NotifySent = true
	return result
}
