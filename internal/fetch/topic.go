package fetch

import (
	"context"
	"time"

	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/providers/news"
)

// FetchTopic implements §4.3's topic-level algorithm: iterate subtopics
// sequentially with a 2-second spacing, accumulating into a TopicArtifact.
// Subtopic-level quota exhaustion does not abort the topic.
func (f *Fetcher) FetchTopic(ctx context.Context, topicName string, subtopics map[string]model.SubtopicPrefs, language, country string) *model.TopicArtifact {
	artifact := &model.TopicArtifact{
		TopicName: topicName,
		Subtopics: map[string]*model.SubtopicArtifact{},
	}

	headlines, err := f.news.Search(ctx, topicName, language, country, 6, news.PeriodDay)
	if err == nil {
		artifact.TopicHeadlines = headlines.Articles
	}

	i := 0
	for subtopicName, prefs := range subtopics {
		if i > 0 {
			f.sleep(subtopicSpacing)
		}
		i++

		sub, quotaExceeded := f.FetchSubtopic(ctx, subtopicName, prefs, language, country)
		artifact.Subtopics[subtopicName] = sub
		if quotaExceeded {
			artifact.Warnings.QuotaExceeded = true
		}
	}

	artifact.Summary.TotalArticles = countArticles(artifact)
	return artifact
}

func countArticles(artifact *model.TopicArtifact) int {
	total := len(artifact.TopicHeadlines)
	for _, sub := range artifact.Subtopics {
		total += len(sub.ArticlesForSubtopic)
		for _, articles := range sub.Queries {
			total += len(articles)
		}
	}
	return total
}

// Refresh implements §4.3's per-user algorithm: iterate all topics
// sequentially with a 2-second spacing, building a UserArticlesBundle.
func (f *Fetcher) Refresh(ctx context.Context, userID string, preferences map[string]map[string]model.SubtopicPrefs, language, country string) *model.UserArticlesBundle {
	bundle := &model.UserArticlesBundle{
		UserID:           userID,
		RefreshTimestamp: time.Now().UTC(),
		TopicsData:       map[string]*model.TopicArtifact{},
	}

	i := 0
	for topicName, subtopics := range preferences {
		if i > 0 {
			f.sleep(topicSpacing)
		}
		i++

		topicArtifact := f.FetchTopic(ctx, topicName, subtopics, language, country)
		bundle.TopicsData[topicName] = topicArtifact
		bundle.Summary.TotalArticles += topicArtifact.Summary.TotalArticles
	}
	bundle.Summary.Language = language
	bundle.Summary.Country = country

	return bundle
}
