// Package report is the Report Builder from §4.4: reduces a fetched
// TopicArtifact into layered LLM-generated summaries (pickup line, topic
// summary, per-subtopic community pulse). Grounded on script.ClaudeGenerator's
// single-call-per-section pattern (internal/script/claude.go), split into one
// function per report section instead of one monolithic prompt, since each
// sub-call here fails independently per §4.4.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/providers/llm"
)

const (
	maxHeadlinesForPickup = 6
	maxKeywordsForPickup  = 5
	selftextTruncateLen   = 280
)

type Builder struct {
	llm llm.Client
}

func New(client llm.Client) *Builder {
	return &Builder{llm: client}
}

// PickupLine implements §4.4's pickup-line sub-call: up to 6 headlines and up
// to 5 trending keywords, low temperature, small max tokens, with a fixed
// fallback string on LLM failure.
func (b *Builder) PickupLine(ctx context.Context, topic *model.TopicArtifact, language string) string {
	p := promptsFor(language)
	fallback := fmt.Sprintf(p.fallbackUpdates, topic.TopicName)

	headlines := topN(titles(topic.TopicHeadlines), maxHeadlinesForPickup)
	keywords := topN(trendingKeywords(topic), maxKeywordsForPickup)
	if len(headlines) == 0 && len(keywords) == 0 {
		return fallback
	}

	userTurn := fmt.Sprintf("Headlines:\n%s\n\nTrending keywords:\n%s", strings.Join(headlines, "\n"), strings.Join(keywords, ", "))
	result, err := b.llm.Complete(ctx, llm.CompleteParams{
		System:      p.pickupLineSystem,
		Messages:    []llm.Message{{Role: "user", Text: userTurn}},
		MaxTokens:   50,
		Temperature: 0.3,
	})
	if err != nil || strings.TrimSpace(result.Text) == "" {
		return fallback
	}
	return strings.TrimSpace(result.Text)
}

// TopicSummary implements §4.4's topic-summary sub-call: flattens the
// artifact into a labeled corpus and asks for a ≤100-word Markdown-lite
// summary with dynamically named sections.
func (b *Builder) TopicSummary(ctx context.Context, topic *model.TopicArtifact, language string) (string, error) {
	p := promptsFor(language)
	corpus := flattenTopicCorpus(topic)
	result, err := b.llm.Complete(ctx, llm.CompleteParams{
		System:      p.topicSummarySystem,
		Messages:    []llm.Message{{Role: "user", Text: corpus}},
		MaxTokens:   150,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

// SubtopicSummary applies the same algorithm as TopicSummary to one
// subtopic's own articles union all of its query articles, per §4.4.
func (b *Builder) SubtopicSummary(ctx context.Context, sub *model.SubtopicArtifact, language string) (string, error) {
	p := promptsFor(language)
	corpus := flattenSubtopicCorpus(sub)
	result, err := b.llm.Complete(ctx, llm.CompleteParams{
		System:      p.topicSummarySystem,
		Messages:    []llm.Message{{Role: "user", Text: corpus}},
		MaxTokens:   150,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

// CommunityPulse implements §4.4's "Reddit world summary": filters posts to
// world/news-shaped content, discards personal comments, and asks the LLM
// for a ≤150-word brief plus a fixed-vocabulary key_topics extraction.
func (b *Builder) CommunityPulse(ctx context.Context, posts []model.CommunityPost, language string) (summary string, keyTopics []string, err error) {
	p := promptsFor(language)
	kept := filterWorldPosts(posts)
	if len(kept) == 0 {
		return "", nil, nil
	}

	corpus := flattenCommunityCorpus(kept)
	result, err := b.llm.Complete(ctx, llm.CompleteParams{
		System:      p.communityPulseSystem,
		Messages:    []llm.Message{{Role: "user", Text: corpus}},
		MaxTokens:   200,
		Temperature: 0.4,
	})
	if err != nil {
		return "", nil, err
	}

	text := strings.TrimSpace(result.Text)
	return text, extractHotTopics(corpus), nil
}

func filterWorldPosts(posts []model.CommunityPost) []model.CommunityPost {
	kept := make([]model.CommunityPost, 0, len(posts))
	for _, post := range posts {
		if isPersonal(post.Title) || isPersonal(post.Selftext) {
			continue
		}
		if worldCommunities[strings.ToLower(post.Community)] ||
			containsAny(post.Title+" "+post.Selftext, worldEventKeywords) ||
			post.Score > personalScoreThreshold {
			filtered := post
			filtered.Comments = filterPersonalComments(post.Comments)
			kept = append(kept, filtered)
		}
	}
	return kept
}

func filterPersonalComments(comments []model.CommunityComment) []model.CommunityComment {
	kept := make([]model.CommunityComment, 0, len(comments))
	for _, c := range comments {
		if isPersonal(c.Body) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func isPersonal(text string) bool {
	return containsAny(text, personalKeywords)
}

func containsAny(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func extractHotTopics(corpus string) []string {
	lower := strings.ToLower(corpus)
	var found []string
	for _, name := range hotTopicNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			found = append(found, name)
		}
	}
	return found
}

func titles(articles []model.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}

func trendingKeywords(topic *model.TopicArtifact) []string {
	counts := map[string]int{}
	for query := range topic.Subtopics {
		counts[query]++
	}
	for _, sub := range topic.Subtopics {
		for query := range sub.Queries {
			counts[query]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return counts[keys[i]] > counts[keys[j]] })
	return keys
}

func topN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func flattenTopicCorpus(topic *model.TopicArtifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n\nHeadlines:\n", topic.TopicName)
	for _, a := range topic.TopicHeadlines {
		fmt.Fprintf(&b, "- %s (%s)\n", a.Title, a.SourceName)
	}
	for name, sub := range topic.Subtopics {
		fmt.Fprintf(&b, "\nSubtopic %s:\n", name)
		b.WriteString(flattenSubtopicCorpus(sub))
		for community, posts := range sub.Communities {
			fmt.Fprintf(&b, "\nCommunity %s:\n", community)
			for _, p := range posts {
				fmt.Fprintf(&b, "- [score %d] %s: %s\n", p.Score, p.Title, truncate(p.Selftext, selftextTruncateLen))
			}
		}
	}
	return b.String()
}

func flattenSubtopicCorpus(sub *model.SubtopicArtifact) string {
	var b strings.Builder
	for _, a := range sub.ArticlesForSubtopic {
		fmt.Fprintf(&b, "- %s (%s)\n", a.Title, a.SourceName)
	}
	for query, articles := range sub.Queries {
		fmt.Fprintf(&b, "Query %q:\n", query)
		for _, a := range articles {
			fmt.Fprintf(&b, "- %s (%s)\n", a.Title, a.SourceName)
		}
	}
	return b.String()
}

func flattenCommunityCorpus(posts []model.CommunityPost) string {
	var b strings.Builder
	for _, p := range posts {
		fmt.Fprintf(&b, "- [%s, score %d] %s: %s\n", p.Community, p.Score, p.Title, truncate(p.Selftext, selftextTruncateLen))
		for _, c := range p.Comments {
			fmt.Fprintf(&b, "  > [score %d] %s\n", c.Score, truncate(c.Body, selftextTruncateLen))
		}
	}
	return b.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
