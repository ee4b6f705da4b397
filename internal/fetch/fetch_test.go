package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/brightfeed/newsbrief/internal/errs"
	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/providers/news"
)

type fakeNews struct {
	calls     int
	quotaAt   int
	responses map[string]news.SearchResult
}

func (f *fakeNews) Search(ctx context.Context, query, language, country string, max int, timePeriod news.TimePeriod) (news.SearchResult, error) {
	f.calls++
	if f.quotaAt > 0 && f.calls == f.quotaAt {
		return news.SearchResult{}, errs.New(errs.ProviderQuota, "quota exceeded", nil)
	}
	if r, ok := f.responses[query]; ok {
		return r, nil
	}
	return news.SearchResult{Total: 0}, nil
}

type fakeCommunity struct {
	posts []model.CommunityPost
}

func (f *fakeCommunity) Hot(ctx context.Context, communityName, window string, limit int) ([]model.CommunityPost, error) {
	return f.posts, nil
}

func (f *fakeCommunity) TopComments(ctx context.Context, permalink string, limit int) ([]model.CommunityComment, error) {
	return nil, nil
}

func noSleep(time.Duration) {}

// TestQuotaShortCircuit is the quota short-circuit seed test from §8: a news
// client returning ProviderQuota on the 2nd call yields empty lists for the
// remaining queries and sets warnings.quota_exceeded.
func TestQuotaShortCircuit(t *testing.T) {
	fn := &fakeNews{quotaAt: 2}
	fc := &fakeCommunity{}
	f := New(fn, fc)
	f.sleep = noSleep

	artifact, quotaExceeded := f.FetchSubtopic(context.Background(), "widgets", model.SubtopicPrefs{
		Subreddits: []string{"x"},
		Queries:    []string{"q1", "q2", "q3"},
	}, "en", "us")

	if !quotaExceeded {
		t.Fatal("expected quota exceeded")
	}
	for _, q := range []string{"q1", "q2", "q3"} {
		if len(artifact.Queries[q]) != 0 {
			t.Errorf("query %q = %v, want empty", q, artifact.Queries[q])
		}
	}
}

// TestCommunityFilterKeepsOnlyRecentPosts is the community-filter seed test
// from §8: posts older than 24h are dropped, order of the kept posts is
// preserved, and at most 2 are kept.
func TestCommunityFilterKeepsOnlyRecentPosts(t *testing.T) {
	now := time.Now()
	posts := []model.CommunityPost{
		{Title: "one", CreatedAt: now.Add(-1 * time.Hour)},
		{Title: "two", CreatedAt: now.Add(-23 * time.Hour)},
		{Title: "three", CreatedAt: now.Add(-25 * time.Hour)},
		{Title: "four", CreatedAt: now.Add(-47 * time.Hour)},
	}
	fn := &fakeNews{}
	fc := &fakeCommunity{posts: posts}
	f := New(fn, fc)
	f.sleep = noSleep

	artifact, _ := f.FetchSubtopic(context.Background(), "widgets", model.SubtopicPrefs{
		Subreddits: []string{"r/widgets"},
		Queries:    []string{},
	}, "en", "us")

	kept := artifact.Communities["r/widgets"]
	if len(kept) != 2 {
		t.Fatalf("kept = %d posts, want 2", len(kept))
	}
	if kept[0].Title != "one" || kept[1].Title != "two" {
		t.Errorf("kept order = %v, want [one, two]", kept)
	}
}

func TestFetchTopicAccumulatesSubtopicQuotaWarning(t *testing.T) {
	fn := &fakeNews{quotaAt: 2}
	fc := &fakeCommunity{}
	f := New(fn, fc)
	f.sleep = noSleep

	topic := f.FetchTopic(context.Background(), "technology", map[string]model.SubtopicPrefs{
		"ai": {Subreddits: nil, Queries: []string{"q1"}},
	}, "en", "us")

	if !topic.Warnings.QuotaExceeded {
		t.Error("expected topic-level quota warning to propagate from subtopic")
	}
}
