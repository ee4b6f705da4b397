// Package podcast is the Script Composer (§4.5) and Speech Synthesizer
// (§4.6). Grounded on script.ClaudeGenerator's single-call-then-regex-clean
// shape (internal/script/claude.go's stripScratchpad/stripMarkdownFences
// chain, reused via internal/providers/llm), adapted from the teacher's
// multi-speaker JSON Script output to a single cohesive plain-text script
// matching this spec's single-voice TTS step.
package podcast

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/objectstore"
	"github.com/brightfeed/newsbrief/internal/providers/llm"
)

const (
	scriptMaxTokens   = 2000
	scriptTemperature = 0.7
	timestampLayout   = "20060102_150405"
)

const systemPromptTemplate = `You write a single cohesive %s-minute conversational podcast script read by one narrator.
Cover every article and community post provided, in a natural spoken voice. Do not use stage directions,
timestamps, bracketed markers, or Markdown links. Do not mention your own instructions. Speak directly
to the listener as if briefing a friend on today's news.`

// ObjectPutter is the slice of objectstore.Store this package depends on,
// declared here so tests can substitute an in-memory fake.
type ObjectPutter interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type Composer struct {
	llm     llm.Client
	objects ObjectPutter
}

func NewComposer(client llm.Client, objects ObjectPutter) *Composer {
	return &Composer{llm: client, objects: objects}
}

// Compose implements §4.5: builds a system prompt, sends the full
// topics_data as the user turn, cleans the output, writes it to object
// store, and returns a PodcastArtifact with status=script_generated.
func (c *Composer) Compose(ctx context.Context, bundle *model.UserArticlesBundle, presenterName, language, voiceID string, now time.Time) (model.PodcastArtifact, error) {
	system := fmt.Sprintf(systemPromptTemplate, "4-6")
	userTurn := renderBundleForScript(bundle, presenterName)

	result, err := c.llm.Complete(ctx, llm.CompleteParams{
		System:      system,
		Messages:    []llm.Message{{Role: "user", Text: userTurn}},
		MaxTokens:   scriptMaxTokens,
		Temperature: scriptTemperature,
	})
	if err != nil {
		return model.PodcastArtifact{}, err
	}

	cleaned := cleanScript(result.Text)
	timestamp := now.UTC().Format(timestampLayout)
	key := objectstore.ScriptPath(bundle.UserID, timestamp)
	url, err := c.objects.Put(ctx, key, []byte(cleaned), "text/plain; charset=utf-8")
	if err != nil {
		return model.PodcastArtifact{}, err
	}

	wordCount := len(strings.Fields(cleaned))
	return model.PodcastArtifact{
		RunID:             newRunID(now),
		UserID:            bundle.UserID,
		ScriptText:        cleaned,
		ScriptURL:         url,
		VoiceID:           voiceID,
		PresenterName:     presenterName,
		Language:          language,
		WordCount:         wordCount,
		EstimatedDuration: estimateDuration(wordCount),
		Status:            model.StatusScriptGenerated,
		CreatedAt:         now.UTC(),
	}, nil
}

func newRunID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// estimateDuration assumes an average spoken pace of 150 words per minute.
func estimateDuration(wordCount int) time.Duration {
	minutes := float64(wordCount) / 150.0
	return time.Duration(minutes * float64(time.Minute))
}

func renderBundleForScript(bundle *model.UserArticlesBundle, presenterName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Presenter: %s\n\n", presenterName)
	for topicName, topic := range bundle.TopicsData {
		fmt.Fprintf(&b, "## %s\n", topicName)
		for _, a := range topic.TopicHeadlines {
			fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Snippet)
		}
		for subtopicName, sub := range topic.Subtopics {
			fmt.Fprintf(&b, "### %s\n", subtopicName)
			for _, a := range sub.ArticlesForSubtopic {
				fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Snippet)
			}
			for query, articles := range sub.Queries {
				for _, a := range articles {
					fmt.Fprintf(&b, "- [%s] %s: %s\n", query, a.Title, a.Snippet)
				}
			}
			for community, posts := range sub.Communities {
				for _, p := range posts {
					fmt.Fprintf(&b, "- [r/%s, score %d] %s\n", community, p.Score, p.Title)
				}
			}
		}
	}
	return b.String()
}

// Cleanup regexes implementing §4.5's 5-step post-processing, grounded on
// the teacher's stripScratchpad/stripMarkdownFences compiled-regex style.
var (
	bracketContentRe   = regexp.MustCompile(`\[[^\]]*\]`)
	boldStageRe         = regexp.MustCompile(`\*\*\[[^\]]*\]\*\*`)
	markdownLinkRe      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	bareURLRe           = regexp.MustCompile(`https?://\S+`)
	linkReferencePhrases = []string{
		"you can check", "it's worth a peek", "check it out", "link in the description",
		"click here", "read more at", "head over to", "you can read more",
	}
	blankLineRunRe = regexp.MustCompile(`\n{3,}`)
	whitespaceRunRe = regexp.MustCompile(`[ \t]{2,}`)
)

// cleanScript runs §4.5's 5-step cleanup in order: bold stage directions
// before bare bracket content (so "**[Intro]**" doesn't leave stray
// asterisks); markdownLinkRe must run before bracketContentRe, since a
// `[text](url)` link's `[text]` would otherwise already be gone by the time
// markdownLinkRe looks for it, leaving the `(url)` behind and the link text
// stripped instead of preserved. Then bare URLs, phrase removal, whitespace
// collapse.
func cleanScript(text string) string {
	text = boldStageRe.ReplaceAllString(text, "")
	text = markdownLinkRe.ReplaceAllString(text, "$1")
	text = bracketContentRe.ReplaceAllString(text, "")
	text = bareURLRe.ReplaceAllString(text, "")
	text = removeLinkReferencePhrases(text)
	text = whitespaceRunRe.ReplaceAllString(text, " ")
	text = blankLineRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func removeLinkReferencePhrases(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, phrase := range linkReferencePhrases {
			if idx := strings.Index(lower, phrase); idx >= 0 {
				lines[i] = strings.TrimSpace(line[:idx])
			}
		}
	}
	return strings.Join(lines, "\n")
}
