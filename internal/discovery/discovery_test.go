package discovery

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightfeed/newsbrief/internal/model"
	"github.com/brightfeed/newsbrief/internal/prefs"
	"github.com/brightfeed/newsbrief/internal/providers/llm"
)

type fakeDocStore struct {
	doc map[string]types.AttributeValue
}

func (f *fakeDocStore) GetPreferences(ctx context.Context, userID string) (map[string]types.AttributeValue, bool, error) {
	if f.doc == nil {
		return nil, false, nil
	}
	return f.doc, true, nil
}

func (f *fakeDocStore) PutPreferences(ctx context.Context, p model.UserPreferences) error {
	av, err := attributevalue.MarshalMap(p)
	if err != nil {
		return err
	}
	f.doc = av
	return nil
}

// scriptedLLM returns canned replies keyed by the request's temperature, so
// the conversation call and the extractor call (which runs at extractorTemp)
// can be distinguished in one fake.
type scriptedLLM struct {
	conversationReply string
	extractorJSON     string
}

func (s scriptedLLM) Complete(ctx context.Context, params llm.CompleteParams) (llm.CompleteResult, error) {
	if params.Temperature == extractorTemp {
		return llm.CompleteResult{Text: s.extractorJSON}, nil
	}
	return llm.CompleteResult{Text: s.conversationReply}, nil
}

func TestConverseDerivesEndingAndReadyFlags(t *testing.T) {
	store := &fakeDocStore{}
	fake := scriptedLLM{
		conversationReply: "Great, I think I have enough to get started on your feed!",
		extractorJSON:     `["Nvidia", "Lionel Messi"]`,
	}
	svc := New(fake, prefs.New(store))

	resp, err := svc.Converse(context.Background(), Request{
		UserID:      "u1",
		UserMessage: "I really like Nvidia and Lionel Messi",
		Language:    "en",
	})
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if !resp.ConversationEnding {
		t.Error("expected conversation_ending=true")
	}
	if !resp.ReadyForNews {
		t.Error("expected ready_for_news=true")
	}
	if len(resp.ExtractedEntities) != 2 {
		t.Fatalf("expected 2 extracted entities, got %v", resp.ExtractedEntities)
	}

	saved, err := prefs.New(store).Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get after converse: %v", err)
	}
	if len(saved.SpecificSubjects) != 2 {
		t.Errorf("expected specific_subjects to be persisted, got %v", saved.SpecificSubjects)
	}
}

func TestConverseUnknownLanguageFallsBackToEnglish(t *testing.T) {
	store := &fakeDocStore{}
	fake := scriptedLLM{conversationReply: "Tell me more about your interests.", extractorJSON: `[]`}
	svc := New(fake, prefs.New(store))

	resp, err := svc.Converse(context.Background(), Request{
		UserID:      "u1",
		UserMessage: "hi",
		Language:    "xx",
	})
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if resp.ConversationEnding {
		t.Error("expected conversation_ending=false for a mid-conversation reply")
	}
}

func TestAnalyzeSpecificSubjectsFallsBackToCurrentOnNoNewEntities(t *testing.T) {
	store := &fakeDocStore{}
	p := prefs.New(store)
	if _, err := p.UpdateSpecificSubjects(context.Background(), "u1", []string{"Tesla"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := New(scriptedLLM{extractorJSON: `[]`}, p)
	subjects, err := svc.AnalyzeSpecificSubjects(context.Background(), "u1", nil, "just chatting", "en")
	if err != nil {
		t.Fatalf("AnalyzeSpecificSubjects: %v", err)
	}
	if len(subjects) != 1 || subjects[0] != "Tesla" {
		t.Errorf("expected existing subjects preserved, got %v", subjects)
	}
}
