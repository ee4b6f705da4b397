package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightfeed/newsbrief/internal/errs"
	"github.com/brightfeed/newsbrief/internal/model"
)

// Key conventions for the single table, mirroring the persisted-layout
// collections named in the external interface: preferences/{user_id},
// scheduling_preferences/{user_id}, articles/{user_id}, aifeed/{user_id},
// audio_connections/{auto_id}, user_audio_connections/{user_id},
// audio/{user_id}, users/{user_id}.
func userPK(userID string) string { return "USER#" + userID }

const (
	skPrefs        = "PREFS"
	skScheduling   = "SCHED"
	skArticles     = "ARTICLES"
	skReport       = "AIFEED"
	skPodcastLatest = "AUDIO#LATEST"
	skDevice       = "USERS"
	skUsagePrefix  = "USAGE#"
	skPodcastPrefix = "AUDIO_CONN#"
)

const gsi1PodcastsByUser = "GSI1"

type prefsItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	model.UserPreferences
}

// GetPreferences returns the raw stored preferences document, which may be
// any format_version — migration is internal/prefs's job, not the store's.
func (a *Adapter) GetPreferences(ctx context.Context, userID string) (map[string]types.AttributeValue, bool, error) {
	result, err := a.client.GetItem(ctx, getItemInput(a.tableName, userPK(userID), skPrefs))
	if err != nil {
		return nil, false, errs.New(errs.ProviderTransient, "get preferences", err)
	}
	if result.Item == nil {
		return nil, false, nil
	}
	return result.Item, true, nil
}

func (a *Adapter) PutPreferences(ctx context.Context, prefs model.UserPreferences) error {
	item := prefsItem{PK: userPK(prefs.UserID), SK: skPrefs, UserPreferences: prefs}
	return a.Set(ctx, item)
}

type schedulingItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	model.SchedulingPreferences
}

func (a *Adapter) GetScheduling(ctx context.Context, userID string) (*model.SchedulingPreferences, bool, error) {
	var item schedulingItem
	ok, err := a.Get(ctx, userPK(userID), skScheduling, &item)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &item.SchedulingPreferences, true, nil
}

func (a *Adapter) PutScheduling(ctx context.Context, prefs model.SchedulingPreferences) error {
	item := schedulingItem{PK: userPK(prefs.UserID), SK: skScheduling, SchedulingPreferences: prefs}
	return a.Set(ctx, item)
}

// AllScheduling scans every scheduling-preferences document — the operation
// the scheduler tick uses every 15 minutes.
func (a *Adapter) AllScheduling(ctx context.Context) ([]model.SchedulingPreferences, error) {
	raw, err := a.ScanCollection(ctx, skScheduling, nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.SchedulingPreferences, 0, len(raw))
	for _, av := range raw {
		var item schedulingItem
		if err := unmarshalItem(av, &item); err != nil {
			continue
		}
		out = append(out, item.SchedulingPreferences)
	}
	return out, nil
}

type articlesItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	model.UserArticlesBundle
}

func (a *Adapter) GetArticlesBundle(ctx context.Context, userID string) (*model.UserArticlesBundle, bool, error) {
	var item articlesItem
	ok, err := a.Get(ctx, userPK(userID), skArticles, &item)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &item.UserArticlesBundle, true, nil
}

func (a *Adapter) PutArticlesBundle(ctx context.Context, bundle model.UserArticlesBundle) error {
	item := articlesItem{PK: userPK(bundle.UserID), SK: skArticles, UserArticlesBundle: bundle}
	return a.Set(ctx, item)
}

type reportItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	model.UserReportBundle
}

func (a *Adapter) GetReportBundle(ctx context.Context, userID string) (*model.UserReportBundle, bool, error) {
	var item reportItem
	ok, err := a.Get(ctx, userPK(userID), skReport, &item)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &item.UserReportBundle, true, nil
}

func (a *Adapter) PutReportBundle(ctx context.Context, bundle model.UserReportBundle) error {
	item := reportItem{PK: userPK(bundle.UserID), SK: skReport, UserReportBundle: bundle}
	return a.Set(ctx, item)
}

type podcastItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK string `dynamodbav:"GSI1SK,omitempty"`
	model.PodcastArtifact
}

// PutPodcastRun appends a new run record and updates the latest-pointer
// document, mirroring mcpserver.Store's METADATA item plus GSI1 listing but
// splitting "append new" from "overwrite latest" per the data model's
// append-only + latest-pointer rule.
func (a *Adapter) PutPodcastRun(ctx context.Context, artifact model.PodcastArtifact) error {
	now := artifact.CreatedAt.UTC().Format(time.RFC3339)
	run := podcastItem{
		PK:              userPK(artifact.UserID),
		SK:              skPodcastPrefix + artifact.RunID,
		GSI1PK:          userPK(artifact.UserID) + "#PODCASTS",
		GSI1SK:          now + "#" + artifact.RunID,
		PodcastArtifact: artifact,
	}
	if err := a.Set(ctx, run); err != nil {
		return err
	}
	latest := podcastItem{PK: userPK(artifact.UserID), SK: skPodcastLatest, PodcastArtifact: artifact}
	return a.Set(ctx, latest)
}

func (a *Adapter) GetLatestPodcast(ctx context.Context, userID string) (*model.PodcastArtifact, bool, error) {
	var item podcastItem
	ok, err := a.Get(ctx, userPK(userID), skPodcastLatest, &item)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &item.PodcastArtifact, true, nil
}

// IncrementPlayCount adapts the teacher's play-counter tool into a store
// operation on the latest-pointer document.
func (a *Adapter) IncrementPlayCount(ctx context.Context, userID string) error {
	latest, ok, err := a.GetLatestPodcast(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.New(errs.NotFound, "no podcast for user", nil)
	}
	latest.PlayCount++
	item := podcastItem{PK: userPK(userID), SK: skPodcastLatest, PodcastArtifact: *latest}
	return a.Set(ctx, item)
}

type deviceItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	model.DeviceBinding
}

func (a *Adapter) GetDevice(ctx context.Context, userID string) (*model.DeviceBinding, bool, error) {
	var item deviceItem
	ok, err := a.Get(ctx, userPK(userID), skDevice, &item)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &item.DeviceBinding, true, nil
}

func (a *Adapter) PutDevice(ctx context.Context, binding model.DeviceBinding) error {
	item := deviceItem{PK: userPK(binding.UserID), SK: skDevice, DeviceBinding: binding}
	return a.Set(ctx, item)
}

// InvalidateDevice clears the stored token on PushUnknownToken/Unauthorized.
func (a *Adapter) InvalidateDevice(ctx context.Context, userID string) error {
	return a.PutDevice(ctx, model.DeviceBinding{UserID: userID, FCMToken: ""})
}

type usageItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	model.UsageRecord
}

func (a *Adapter) PutUsage(ctx context.Context, rec model.UsageRecord) error {
	item := usageItem{PK: userPK(rec.UserID), SK: fmt.Sprintf("%s%s", skUsagePrefix, rec.RunID), UsageRecord: rec}
	return a.Set(ctx, item)
}

const skScheduleClaimPrefix = "SCHEDCLAIM#"

type scheduleClaimItem struct {
	PK        string    `dynamodbav:"PK"`
	SK        string    `dynamodbav:"SK"`
	ClaimedAt time.Time `dynamodbav:"claimed_at"`
}

// ClaimScheduleWindow is the doc-store-backed half of the scheduler's
// idempotency key ({user_id}:{window_start}): it succeeds (true) the first
// time a given (userID, windowStart) pair is claimed and fails (false) on
// every subsequent attempt, surviving a process restart between ticks.
func (a *Adapter) ClaimScheduleWindow(ctx context.Context, userID, windowStart string) (bool, error) {
	item := scheduleClaimItem{
		PK:        userPK(userID),
		SK:        skScheduleClaimPrefix + windowStart,
		ClaimedAt: time.Now().UTC(),
	}
	err := a.SetIfAbsent(ctx, item)
	if err == nil {
		return true, nil
	}
	if isConditionalCheckFailed(err) {
		return false, nil
	}
	return false, errs.New(errs.ProviderTransient, "claim schedule window", err)
}
