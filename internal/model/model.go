// Package model holds the data shapes shared across the pipeline: fetched
// content, preference documents, and persisted artifacts. Nothing in this
// package talks to a store or provider; it is pure data plus the small
// validation rules that apply regardless of storage backend.
package model

import "time"

// DetailLevel is a user's preferred report depth.
type DetailLevel string

const (
	DetailLight    DetailLevel = "Light"
	DetailMedium   DetailLevel = "Medium"
	DetailDetailed DetailLevel = "Detailed"
)

// SubtopicPrefs is the leaf of the preferences tree: every subtopic carries
// both arrays, possibly empty, never nil after validation.
type SubtopicPrefs struct {
	Subreddits []string `json:"subreddits" dynamodbav:"subreddits"`
	Queries    []string `json:"queries" dynamodbav:"queries"`
}

// UserPreferences is the current (v3.0) nested preference document.
type UserPreferences struct {
	UserID           string                             `json:"user_id" dynamodbav:"user_id"`
	Preferences      map[string]map[string]SubtopicPrefs `json:"preferences" dynamodbav:"preferences"`
	DetailLevel      DetailLevel                         `json:"detail_level" dynamodbav:"detail_level"`
	Language         string                              `json:"language" dynamodbav:"language"`
	FormatVersion    string                              `json:"format_version" dynamodbav:"format_version"`
	UpdatedAt        time.Time                           `json:"updated_at" dynamodbav:"updated_at"`
	SpecificSubjects []string                             `json:"specific_subjects,omitempty" dynamodbav:"specific_subjects,omitempty"`
}

// SchedulingKind is the cadence of a user's scheduled refresh.
type SchedulingKind string

const (
	ScheduleDaily  SchedulingKind = "daily"
	ScheduleWeekly SchedulingKind = "weekly"
)

// SchedulingPreferences controls when the scheduler triggers a user's run.
type SchedulingPreferences struct {
	UserID string         `json:"user_id" dynamodbav:"user_id"`
	Type   SchedulingKind `json:"type" dynamodbav:"type"`
	Hour   int            `json:"hour" dynamodbav:"hour"`
	Minute int            `json:"minute" dynamodbav:"minute"`
	Day    time.Weekday   `json:"day,omitempty" dynamodbav:"day,omitempty"`
}

// Article is one fetched news item, normalized from whatever shape the news
// provider returns.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	SourceName  string    `json:"source_name"`
	PublishedAt time.Time `json:"published_at"`
	Snippet     string    `json:"snippet,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Content     string    `json:"content,omitempty"`
}

// CommunityComment is one comment attached to a CommunityPost.
type CommunityComment struct {
	Body          string    `json:"body"`
	Author        string    `json:"author"`
	Score         int       `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
	RepliesCount  int       `json:"replies_count"`
	IsSubmitter   bool      `json:"is_submitter"`
	Distinguished string    `json:"distinguished,omitempty"`
	Stickied      bool      `json:"stickied"`
}

// CommunityPost is one fetched forum post.
type CommunityPost struct {
	Title       string             `json:"title"`
	Score       int                `json:"score"`
	Permalink   string             `json:"permalink"`
	Community   string             `json:"community"`
	CreatedAt   time.Time          `json:"created_at"`
	NumComments int                `json:"num_comments"`
	Author      string             `json:"author"`
	Selftext    string             `json:"selftext"`
	Comments    []CommunityComment `json:"comments,omitempty"`
}

// SubtopicArtifact is the output of fetching one (topic, subtopic) pair.
type SubtopicArtifact struct {
	SubtopicName           string               `json:"subtopic_name"`
	ArticlesForSubtopic    []Article            `json:"articles_for_subtopic_name"`
	Queries                map[string][]Article `json:"queries"`
	Communities            map[string][]CommunityPost `json:"communities"`
}

// TopicWarnings flags degraded-but-not-fatal conditions for a topic.
type TopicWarnings struct {
	QuotaExceeded bool `json:"quota_exceeded,omitempty"`
}

// TopicSummaryCounts is the count breakdown invariant checked in §8.
type TopicSummaryCounts struct {
	TotalArticles int `json:"total_articles"`
}

// TopicArtifact is the output of fetching one topic (all its subtopics).
type TopicArtifact struct {
	TopicName      string                       `json:"topic_name"`
	TopicHeadlines []Article                    `json:"topic_headlines"`
	Subtopics      map[string]*SubtopicArtifact `json:"subtopics"`
	Summary        TopicSummaryCounts           `json:"summary"`
	Warnings       TopicWarnings                `json:"warnings"`
}

// BundleSummary is the aggregate count/metadata block on a user bundle.
type BundleSummary struct {
	TotalArticles int    `json:"total_articles"`
	Language      string `json:"language"`
	Country       string `json:"country"`
}

// UserArticlesBundle is the per-user persisted fetch result, overwritten on
// each refresh.
type UserArticlesBundle struct {
	UserID          string                    `json:"user_id" dynamodbav:"user_id"`
	RefreshTimestamp time.Time                `json:"refresh_timestamp" dynamodbav:"refresh_timestamp"`
	TopicsData      map[string]*TopicArtifact `json:"topics_data" dynamodbav:"topics_data"`
	Summary         BundleSummary             `json:"summary" dynamodbav:"summary"`
}

// SubtopicReport is the pair of LLM-generated summaries for one subtopic.
type SubtopicReport struct {
	SubtopicSummary  string `json:"subtopic_summary"`
	CommunitySummary string `json:"community_summary"`
}

// GenerationStats records sub-call successes for observability and tests.
type GenerationStats struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Fallbacks int `json:"fallbacks"`
}

// TopicReport is the complete layered report for one topic.
type TopicReport struct {
	PickupLine      string                    `json:"pickup_line"`
	TopicSummary    string                    `json:"topic_summary"`
	Subtopics       map[string]SubtopicReport `json:"subtopics"`
	GenerationStats GenerationStats           `json:"generation_stats"`
}

// UserReportBundle is the per-user persisted report result, overwritten on
// each refresh.
type UserReportBundle struct {
	UserID           string                 `json:"user_id" dynamodbav:"user_id"`
	Reports          map[string]TopicReport `json:"reports" dynamodbav:"reports"`
	GenerationStats  GenerationStats        `json:"generation_stats" dynamodbav:"generation_stats"`
	RefreshTimestamp time.Time              `json:"refresh_timestamp" dynamodbav:"refresh_timestamp"`
	Language         string                 `json:"language" dynamodbav:"language"`
}

// PodcastStatus tracks how far podcast generation has progressed.
type PodcastStatus string

const (
	StatusScriptGenerated  PodcastStatus = "script_generated"
	StatusCompletePodcast  PodcastStatus = "complete_podcast_generated"
)

// PodcastArtifact is one run's generated script/audio record. New documents
// are appended per run; a separate latest-pointer document tracks the most
// recent one per user.
type PodcastArtifact struct {
	RunID             string        `json:"run_id" dynamodbav:"run_id"`
	UserID            string        `json:"user_id" dynamodbav:"user_id"`
	ScriptText        string        `json:"script_text" dynamodbav:"script_text"`
	ScriptURL         string        `json:"script_url" dynamodbav:"script_url"`
	AudioURL          string        `json:"audio_url,omitempty" dynamodbav:"audio_url,omitempty"`
	AudioFilename     string        `json:"audio_filename,omitempty" dynamodbav:"audio_filename,omitempty"`
	VoiceID           string        `json:"voice_id" dynamodbav:"voice_id"`
	PresenterName     string        `json:"presenter_name" dynamodbav:"presenter_name"`
	Language          string        `json:"language" dynamodbav:"language"`
	WordCount         int           `json:"word_count" dynamodbav:"word_count"`
	EstimatedDuration time.Duration `json:"estimated_duration" dynamodbav:"estimated_duration"`
	Status            PodcastStatus `json:"status" dynamodbav:"status"`
	CreatedAt         time.Time     `json:"created_at" dynamodbav:"created_at"`
	AudioGeneratedAt  *time.Time    `json:"audio_generated_at,omitempty" dynamodbav:"audio_generated_at,omitempty"`
	PlayCount         int           `json:"play_count" dynamodbav:"play_count"`
}

// DeviceBinding maps a user to their current push token.
type DeviceBinding struct {
	UserID   string `json:"user_id" dynamodbav:"user_id"`
	FCMToken string `json:"fcm_token" dynamodbav:"fcm_token"`
}

// UsageRecord captures per-run cost accounting, a natural byproduct of the
// orchestrator's step bookkeeping (not excluded by any non-goal).
type UsageRecord struct {
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	RunID          string    `json:"run_id" dynamodbav:"run_id"`
	LLMInputChars  int       `json:"llm_input_chars" dynamodbav:"llm_input_chars"`
	LLMOutputChars int       `json:"llm_output_chars" dynamodbav:"llm_output_chars"`
	TTSChars       int       `json:"tts_chars" dynamodbav:"tts_chars"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd" dynamodbav:"estimated_cost_usd"`
	RecordedAt     time.Time `json:"recorded_at" dynamodbav:"recorded_at"`
}
