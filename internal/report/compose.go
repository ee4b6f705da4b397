package report

import (
	"context"
	"fmt"

	"github.com/brightfeed/newsbrief/internal/model"
)

// fallbackSubtopicSummary and fallbackCommunitySummary are the human-readable
// strings substituted when a sub-call fails, per §4.4's "failure of one
// sub-call produces a human-readable fallback string for that slot but does
// not fail the whole report."
func fallbackSubtopicSummary(name string) string {
	return fmt.Sprintf("Unable to generate a summary for %s right now.", name)
}

func fallbackCommunitySummary() string {
	return "No community discussion summary is available right now."
}

// CompleteTopicReport implements §4.4's complete-topic-report: pickup_line +
// topic_summary + per-subtopic {subtopic_summary, community_summary}. Each
// sub-call is independent; a failure degrades to a fallback string rather
// than failing the whole report.
func (b *Builder) CompleteTopicReport(ctx context.Context, topic *model.TopicArtifact, language string) model.TopicReport {
	stats := model.GenerationStats{}

	pickupLine := b.PickupLine(ctx, topic, language)
	stats.Attempted++
	stats.Succeeded++ // PickupLine always returns a usable string (LLM text or fallback).

	stats.Attempted++
	topicSummary, err := b.TopicSummary(ctx, topic, language)
	if err != nil {
		topicSummary = fallbackSubtopicSummary(topic.TopicName)
		stats.Fallbacks++
	} else {
		stats.Succeeded++
	}

	subtopicReports := map[string]model.SubtopicReport{}
	for name, sub := range topic.Subtopics {
		stats.Attempted++
		subSummary, err := b.SubtopicSummary(ctx, sub, language)
		if err != nil {
			subSummary = fallbackSubtopicSummary(name)
			stats.Fallbacks++
		} else {
			stats.Succeeded++
		}

		stats.Attempted++
		allPosts := flattenCommunityPosts(sub)
		communitySummary := fallbackCommunitySummary()
		if len(allPosts) > 0 {
			pulse, _, err := b.CommunityPulse(ctx, allPosts, language)
			if err != nil {
				stats.Fallbacks++
			} else if pulse != "" {
				communitySummary = pulse
				stats.Succeeded++
			} else {
				stats.Succeeded++
			}
		} else {
			stats.Succeeded++
		}

		subtopicReports[name] = model.SubtopicReport{
			SubtopicSummary:  subSummary,
			CommunitySummary: communitySummary,
		}
	}

	return model.TopicReport{
		PickupLine:      pickupLine,
		TopicSummary:    topicSummary,
		Subtopics:       subtopicReports,
		GenerationStats: stats,
	}
}

func flattenCommunityPosts(sub *model.SubtopicArtifact) []model.CommunityPost {
	var all []model.CommunityPost
	for _, posts := range sub.Communities {
		all = append(all, posts...)
	}
	return all
}

// CompleteUserReport implements §4.4's complete-user-report: iterate topics
// from the persisted UserArticlesBundle, aggregate per-topic reports into a
// UserReportBundle with the same key set as the input bundle, per §8's
// invariant.
func (b *Builder) CompleteUserReport(ctx context.Context, bundle *model.UserArticlesBundle, language string) model.UserReportBundle {
	reports := map[string]model.TopicReport{}
	aggregate := model.GenerationStats{}

	for topicName, topic := range bundle.TopicsData {
		topicReport := b.CompleteTopicReport(ctx, topic, language)
		reports[topicName] = topicReport
		aggregate.Attempted += topicReport.GenerationStats.Attempted
		aggregate.Succeeded += topicReport.GenerationStats.Succeeded
		aggregate.Fallbacks += topicReport.GenerationStats.Fallbacks
	}

	return model.UserReportBundle{
		UserID:           bundle.UserID,
		Reports:          reports,
		GenerationStats:  aggregate,
		RefreshTimestamp: bundle.RefreshTimestamp,
		Language:         language,
	}
}
