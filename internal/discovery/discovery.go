// Package discovery is the Conversational Preference-Discovery Service from
// §4.10: a short, news-forbidding onboarding chat turn plus a concurrent
// entity extractor that unions newly named subjects into
// UserPreferences.specific_subjects. Grounded on script.Reviewer's two-call
// shape (internal/script/review.go's heuristic-then-LLM-call split),
// generalized here to "conversation reply call" + "stricter extraction
// call" running concurrently rather than sequentially.
package discovery

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/brightfeed/newsbrief/internal/prefs"
	"github.com/brightfeed/newsbrief/internal/providers/llm"
)

const (
	conversationMaxTokens = 150
	conversationTemp      = 0.6
	extractorMaxTokens    = 300
	extractorTemp         = 0.0
)

// Turn is one message in the conversation history sent by the caller.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

// Request is the "answer" endpoint's input shape from §6.
type Request struct {
	UserID             string
	ConversationHistory []Turn
	UserMessage        string
	Language           string
}

// Response is the "answer" endpoint's output shape from §6.
type Response struct {
	AIMessage          string
	ConversationEnding bool
	ReadyForNews       bool
	ExtractedEntities  []string
	Usage              llm.Usage
}

type Service struct {
	llm    llm.Client
	prefs  *prefs.Store
}

func New(client llm.Client, prefsStore *prefs.Store) *Service {
	return &Service{llm: client, prefs: prefsStore}
}

// Converse implements the "answer" endpoint and, inline in the same call, §4.10's
// concurrent entity extractor: the conversation reply and the entity
// extraction run as two concurrent LLM calls; both complete before Converse
// returns, so a subsequent get_user_preferences sees the updated
// specific_subjects ("this runs inline (synchronous) in the same request").
func (s *Service) Converse(ctx context.Context, req Request) (Response, error) {
	p := promptsFor(req.Language)

	var (
		wg           sync.WaitGroup
		reply        llm.CompleteResult
		replyErr     error
		entities     []string
		extractErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		reply, replyErr = s.llm.Complete(ctx, llm.CompleteParams{
			System:      p.conversationSystem,
			Messages:    renderHistory(req.ConversationHistory, req.UserMessage),
			MaxTokens:   conversationMaxTokens,
			Temperature: conversationTemp,
		})
	}()
	go func() {
		defer wg.Done()
		entities, extractErr = s.extractEntities(ctx, p, req.UserMessage)
	}()
	wg.Wait()

	if replyErr != nil {
		return Response{}, replyErr
	}

	if extractErr == nil && len(entities) > 0 && s.prefs != nil {
		if _, err := s.prefs.UpdateSpecificSubjects(ctx, req.UserID, entities); err != nil {
			extractErr = err
		}
	}

	message := strings.TrimSpace(reply.Text)
	lower := strings.ToLower(message)
	return Response{
		AIMessage:          message,
		ConversationEnding: containsAny(lower, p.endingPhrases),
		ReadyForNews:       containsAny(lower, p.readyPhrases),
		ExtractedEntities:  entities,
		Usage:              reply.Usage,
	}, nil
}

// AnalyzeSpecificSubjects implements the update_specific_subjects endpoint's
// action=analyze: extract entities from the latest turn and persist them,
// without generating a conversational reply.
func (s *Service) AnalyzeSpecificSubjects(ctx context.Context, userID string, history []Turn, userMessage, language string) ([]string, error) {
	p := promptsFor(language)
	entities, err := s.extractEntities(ctx, p, userMessage)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return s.currentSubjects(ctx, userID)
	}
	return s.prefs.UpdateSpecificSubjects(ctx, userID, entities)
}

// GetSpecificSubjects implements action=get.
func (s *Service) GetSpecificSubjects(ctx context.Context, userID string) ([]string, error) {
	return s.currentSubjects(ctx, userID)
}

func (s *Service) currentSubjects(ctx context.Context, userID string) ([]string, error) {
	p, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.SpecificSubjects, nil
}

func (s *Service) extractEntities(ctx context.Context, p languagePrompts, userMessage string) ([]string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, nil
	}
	result, err := s.llm.Complete(ctx, llm.CompleteParams{
		System:      p.extractorSystem,
		Messages:    []llm.Message{{Role: "user", Text: userMessage}},
		MaxTokens:   extractorMaxTokens,
		Temperature: extractorTemp,
	})
	if err != nil {
		return nil, err
	}

	cleaned := llm.CleanCompletion(result.Text)
	var entities []string
	if err := json.Unmarshal([]byte(cleaned), &entities); err != nil {
		return nil, nil
	}
	return entities, nil
}

func renderHistory(history []Turn, latest string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Text: turn.Text})
	}
	messages = append(messages, llm.Message{Role: "user", Text: latest})
	return messages
}

func containsAny(haystack string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}
