// Package fetch is the Content Fetcher from §4.3: given a user's nested
// preferences, fetches for every (topic, subtopic) the triple {subtopic
// articles, per-query articles, per-community posts}, honoring per-call
// delay and short-circuiting on quota exhaustion. Grounded on the teacher's
// sequential, spaced external-call discipline in internal/ingest (one
// fetch-then-sleep loop per source) generalized from single-source fetching
// to the two-provider (news, community) interleave this spec requires.
package fetch

import (
	"context"
	"time"

	"github.com/brightfeed/newsbrief/internal/errs"
	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/providers/community"
	"github.com/brightfeed/newsbrief/internal/providers/news"
	"github.com/brightfeed/newsbrief/internal/providers/quota"
)

// Per-call spacing from §4.3/§5. A Fetcher MAY replace these with a token
// bucket as long as the observable call rate does not exceed this spacing.
const (
	querySpacing    = 1 * time.Second
	subtopicSpacing = 2 * time.Second
	topicSpacing    = 2 * time.Second
)

const postWindow = 24 * time.Hour

type NewsClient interface {
	Search(ctx context.Context, query, language, country string, max int, timePeriod news.TimePeriod) (news.SearchResult, error)
}

type CommunityClient interface {
	Hot(ctx context.Context, communityName, window string, limit int) ([]model.CommunityPost, error)
	TopComments(ctx context.Context, permalink string, limit int) ([]model.CommunityComment, error)
}

type Fetcher struct {
	news            NewsClient
	community       CommunityClient
	sleep           func(time.Duration)
	withComments    bool
	commentsPerPost int

	// Quota records the news provider's last-known quota state for the
	// health diagnostics endpoint. Nil is safe (no tracking).
	Quota *quota.Tracker
}

func New(newsClient NewsClient, communityClient CommunityClient) *Fetcher {
	return &Fetcher{
		news:            newsClient,
		community:       communityClient,
		sleep:           time.Sleep,
		withComments:    false,
		commentsPerPost: 5,
	}
}

// WithComments enables top-comment expansion per kept community post, per
// §4.3 step 4 ("if caller requests comments").
func (f *Fetcher) WithComments(perPost int) *Fetcher {
	f.withComments = true
	f.commentsPerPost = perPost
	return f
}

// FetchSubtopic implements §4.3's per-(subtopic, {subreddits, queries})
// algorithm. The returned bool reports whether quota was exhausted during
// this subtopic's news calls, which the topic-level caller folds into
// TopicArtifact.Warnings.
func (f *Fetcher) FetchSubtopic(ctx context.Context, subtopicName string, prefs model.SubtopicPrefs, language, country string) (*model.SubtopicArtifact, bool) {
	artifact := &model.SubtopicArtifact{
		SubtopicName: subtopicName,
		Queries:      map[string][]model.Article{},
		Communities:  map[string][]model.CommunityPost{},
	}

	quotaExceeded := false

	// Step 1: subtopic-name search bounded to last 24h.
	result, err := f.news.Search(ctx, subtopicName, language, country, 2, news.PeriodDay)
	if err != nil {
		if errs.Is(err, errs.ProviderQuota) {
			quotaExceeded = true
		}
	} else {
		artifact.ArticlesForSubtopic = topN(result.Articles, 2)
	}
	f.Quota.Mark("news", quotaExceeded)

	// Step 2: each query in order, spaced, short-circuiting on quota/rate-limit.
	for i, query := range prefs.Queries {
		if quotaExceeded {
			artifact.Queries[query] = []model.Article{}
			continue
		}
		if i > 0 {
			f.sleep(querySpacing)
		}
		result, err := f.news.Search(ctx, query, language, country, 2, news.PeriodDay)
		if err != nil {
			if errs.Is(err, errs.ProviderQuota) || errs.Is(err, errs.ProviderRateLimit) {
				quotaExceeded = true
				f.Quota.Mark("news", true)
				artifact.Queries[query] = []model.Article{}
				continue
			}
			artifact.Queries[query] = []model.Article{}
			continue
		}
		artifact.Queries[query] = topN(result.Articles, 2)
	}
	if quotaExceeded {
		for _, query := range prefs.Queries {
			if _, ok := artifact.Queries[query]; !ok {
				artifact.Queries[query] = []model.Article{}
			}
		}
	}

	// Step 3+4: communities, filtered to last 24h, optionally with comments.
	cutoff := time.Now().Add(-postWindow)
	for _, communityName := range prefs.Subreddits {
		posts, err := f.community.Hot(ctx, communityName, "day", 2)
		if err != nil {
			artifact.Communities[communityName] = []model.CommunityPost{}
			continue
		}
		kept := make([]model.CommunityPost, 0, 2)
		for _, p := range posts {
			if p.CreatedAt.Before(cutoff) {
				continue
			}
			kept = append(kept, p)
			if len(kept) >= 2 {
				break
			}
		}
		if f.withComments {
			for i := range kept {
				comments, err := f.community.TopComments(ctx, kept[i].Permalink, f.commentsPerPost)
				if err == nil {
					kept[i].Comments = comments
				}
			}
		}
		artifact.Communities[communityName] = kept
	}

	return artifact, quotaExceeded
}

func topN(articles []model.Article, n int) []model.Article {
	if len(articles) <= n {
		return articles
	}
	return articles[:n]
}
