package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightfeed/newsbrief/internal/fetch"
	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/notify"
	"github.com/brightfeed/newsbrief/internal/podcast"
	"github.com/brightfeed/newsbrief/internal/prefs"
	"github.com/brightfeed/newsbrief/internal/providers/llm"
	"github.com/brightfeed/newsbrief/internal/providers/news"
	"github.com/brightfeed/newsbrief/internal/providers/push"
	"github.com/brightfeed/newsbrief/internal/providers/tts"
	"github.com/brightfeed/newsbrief/internal/report"
)

type fakePrefsStore struct {
	doc map[string]types.AttributeValue
}

func (f *fakePrefsStore) GetPreferences(ctx context.Context, userID string) (map[string]types.AttributeValue, bool, error) {
	if f.doc == nil {
		return nil, false, nil
	}
	return f.doc, true, nil
}

func (f *fakePrefsStore) PutPreferences(ctx context.Context, p model.UserPreferences) error {
	av, err := attributevalue.MarshalMap(p)
	if err != nil {
		return err
	}
	f.doc = av
	return nil
}

type fakeStore struct {
	articles *model.UserArticlesBundle
	reports  *model.UserReportBundle
	runs     []model.PodcastArtifact
	device   *model.DeviceBinding
}

func (f *fakeStore) PutArticlesBundle(ctx context.Context, bundle model.UserArticlesBundle) error {
	f.articles = &bundle
	return nil
}
func (f *fakeStore) PutReportBundle(ctx context.Context, bundle model.UserReportBundle) error {
	f.reports = &bundle
	return nil
}
func (f *fakeStore) PutPodcastRun(ctx context.Context, artifact model.PodcastArtifact) error {
	f.runs = append(f.runs, artifact)
	return nil
}
func (f *fakeStore) GetDevice(ctx context.Context, userID string) (*model.DeviceBinding, bool, error) {
	if f.device == nil {
		return nil, false, nil
	}
	return f.device, true, nil
}
func (f *fakeStore) InvalidateDevice(ctx context.Context, userID string) error {
	f.device = &model.DeviceBinding{UserID: userID, FCMToken: ""}
	return nil
}

type fakeObjects struct {
	puts map[string][]byte
}

func (f *fakeObjects) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[key] = body
	return "https://cdn.test/" + key, nil
}

type stubNews struct{}

func (stubNews) Search(ctx context.Context, query, language, country string, max int, timePeriod news.TimePeriod) (news.SearchResult, error) {
	return news.SearchResult{Total: 0}, nil
}

type stubCommunity struct{}

func (stubCommunity) Hot(ctx context.Context, communityName, window string, limit int) ([]model.CommunityPost, error) {
	return nil, nil
}
func (stubCommunity) TopComments(ctx context.Context, permalink string, limit int) ([]model.CommunityComment, error) {
	return nil, nil
}

type stubLLM struct{}

func (stubLLM) Complete(ctx context.Context, params llm.CompleteParams) (llm.CompleteResult, error) {
	return llm.CompleteResult{Text: "a generated summary"}, nil
}

type failingTTS struct{}

func (failingTTS) Name() string { return "failing" }
func (failingTTS) Synthesize(ctx context.Context, text, voiceID, modelID string, format tts.AudioFormat) ([]byte, error) {
	return nil, errors.New("tts unavailable")
}

type stubPush struct{}

func (stubPush) Send(ctx context.Context, deviceToken, title, body string, opts push.PlatformOpts) (push.SendResult, error) {
	return push.SendResult{MessageID: "m1"}, nil
}

func newTestOrchestrator(store *fakeStore, prefsStore *fakePrefsStore, objects *fakeObjects) *Orchestrator {
	return New(
		prefs.New(prefsStore),
		store,
		fetch.New(stubNews{}, stubCommunity{}),
		report.New(stubLLM{}),
		podcast.NewComposer(stubLLM{}, objects),
		podcast.NewSynthesizer(failingTTS{}, objects),
		notify.New(stubPush{}),
	)
}

// TestPipelineOrderingOnTTSFailure is the pipeline-ordering seed test from
// §8: simulate successful fetch and report, inject a TTS failure. Expected:
// a PodcastArtifact exists with status=script_generated and a non-empty
// script_url; no audio_url; no push sent; the result shows steps 1 and 2
// succeeded and step 3 failed.
func TestPipelineOrderingOnTTSFailure(t *testing.T) {
	store := &fakeStore{device: &model.DeviceBinding{UserID: "u1", FCMToken: "tok"}}
	prefsStore := &fakePrefsStore{}
	objects := &fakeObjects{}

	if err := prefs.New(prefsStore).Save(context.Background(), model.UserPreferences{
		UserID: "u1",
		Preferences: map[string]map[string]model.SubtopicPrefs{
			"technology": {"ai": {Subreddits: []string{}, Queries: []string{}}},
		},
	}); err != nil {
		t.Fatalf("seed prefs: %v", err)
	}

	orch := newTestOrchestrator(store, prefsStore, objects)
	result := orch.RunUpdate(context.Background(), "u1", "Alex", "en", "Joanna")

	if !result.Fetch.Success {
		t.Errorf("expected fetch to succeed, got %+v", result.Fetch)
	}
	if !result.Report.Success {
		t.Errorf("expected report to succeed, got %+v", result.Report)
	}
	if result.Podcast.Success {
		t.Error("expected podcast step to fail on tts error")
	}
	if result.AudioURL != "" {
		t.Errorf("expected no audio url, got %q", result.AudioURL)
	}
	if result.NotifySent {
		t.Error("expected no push sent once podcast step fails")
	}
	if store.articles == nil {
		t.Error("expected articles bundle to be persisted")
	}
	if store.reports == nil {
		t.Error("expected report bundle to be persisted")
	}
	if len(store.runs) != 1 {
		t.Fatalf("expected exactly one podcast run persisted (script only), got %d", len(store.runs))
	}
	if store.runs[0].Status != model.StatusScriptGenerated {
		t.Errorf("run status = %q, want %q", store.runs[0].Status, model.StatusScriptGenerated)
	}
	if store.runs[0].ScriptURL == "" {
		t.Error("expected script_url to be set even though audio synthesis failed")
	}
}
