package report

import (
	"context"
	"errors"
	"testing"

	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/providers/llm"
)

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Complete(ctx context.Context, params llm.CompleteParams) (llm.CompleteResult, error) {
	if f.err != nil {
		return llm.CompleteResult{}, f.err
	}
	return llm.CompleteResult{Text: f.text}, nil
}

func TestPickupLineFallsBackOnLLMFailure(t *testing.T) {
	b := New(&fakeLLM{err: errors.New("boom")})
	topic := &model.TopicArtifact{
		TopicName:      "technology",
		TopicHeadlines: []model.Article{{Title: "Something happened"}},
	}
	got := b.PickupLine(context.Background(), topic, "en")
	if got != "Latest technology updates" {
		t.Errorf("PickupLine fallback = %q, want %q", got, "Latest technology updates")
	}
}

func TestPickupLineFallsBackWhenEmpty(t *testing.T) {
	b := New(&fakeLLM{text: ""})
	topic := &model.TopicArtifact{TopicName: "business"}
	got := b.PickupLine(context.Background(), topic, "en")
	if got != "Latest business updates" {
		t.Errorf("PickupLine empty-corpus fallback = %q, want fallback", got)
	}
}

// TestCompleteUserReportKeySetMatchesBundle is the §8 invariant that
// UserReportBundle.reports has exactly the same key set as the input
// bundle's topics_data.
func TestCompleteUserReportKeySetMatchesBundle(t *testing.T) {
	b := New(&fakeLLM{text: "a summary"})
	bundle := &model.UserArticlesBundle{
		UserID: "u1",
		TopicsData: map[string]*model.TopicArtifact{
			"technology": {TopicName: "technology", Subtopics: map[string]*model.SubtopicArtifact{}},
			"sports":     {TopicName: "sports", Subtopics: map[string]*model.SubtopicArtifact{}},
		},
	}

	report := b.CompleteUserReport(context.Background(), bundle, "en")
	if len(report.Reports) != len(bundle.TopicsData) {
		t.Fatalf("reports has %d keys, bundle has %d", len(report.Reports), len(bundle.TopicsData))
	}
	for topic := range bundle.TopicsData {
		if _, ok := report.Reports[topic]; !ok {
			t.Errorf("missing report for topic %q", topic)
		}
	}
}

func TestFilterWorldPostsDropsPersonalContent(t *testing.T) {
	posts := []model.CommunityPost{
		{Title: "AITA for telling my girlfriend the truth", Community: "relationships", Score: 50},
		{Title: "Central bank raises interest rates", Community: "economics", Score: 10},
		{Title: "Random post with huge score", Community: "misc", Score: 500},
	}
	kept := filterWorldPosts(posts)
	if len(kept) != 2 {
		t.Fatalf("kept %d posts, want 2 (economics + high score)", len(kept))
	}
}
