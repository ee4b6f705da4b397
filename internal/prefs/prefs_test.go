package prefs

import (
	"context"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightfeed/newsbrief/internal/model"
)

type fakeStore struct {
	doc map[string]types.AttributeValue
}

func (f *fakeStore) GetPreferences(ctx context.Context, userID string) (map[string]types.AttributeValue, bool, error) {
	if f.doc == nil {
		return nil, false, nil
	}
	return f.doc, true, nil
}

func (f *fakeStore) PutPreferences(ctx context.Context, prefs model.UserPreferences) error {
	av, err := attributevalue.MarshalMap(prefs)
	if err != nil {
		return err
	}
	f.doc = av
	return nil
}

// TestMigrationIdempotence is the preference-migration seed test from §8:
// a legacy v2.0 document with locale topic labels and bare subtopics
// migrates to the canonical v3.0 shape, and a second Get is byte-equal.
func TestMigrationIdempotence(t *testing.T) {
	legacy := map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: "u1"},
		"topics": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: "Technologie"},
			&types.AttributeValueMemberS{Value: "Business"},
		}},
		"subtopics": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"AI": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"subreddits": &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: "MachineLearning"}}},
				"queries":    &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: "AI news"}}},
			}},
			"Finance": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"subreddits": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
				"queries":    &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: "markets"}}},
			}},
		}},
		"format_version": &types.AttributeValueMemberS{Value: "2.0"},
	}

	fake := &fakeStore{doc: legacy}
	s := New(fake)

	first, err := s.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if first.FormatVersion != CurrentFormatVersion {
		t.Fatalf("format_version = %q, want %q", first.FormatVersion, CurrentFormatVersion)
	}
	if _, ok := first.Preferences[TopicTechnology]["AI"]; !ok {
		t.Fatal("expected AI under technology")
	}
	if _, ok := first.Preferences[TopicBusiness]["Finance"]; !ok {
		t.Fatal("expected Finance under business")
	}

	second, err := s.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	firstAV, _ := attributevalue.MarshalMap(first)
	secondAV, _ := attributevalue.MarshalMap(second)
	delete(firstAV, "updated_at")
	delete(secondAV, "updated_at")
	if !reflect.DeepEqual(firstAV, secondAV) {
		t.Fatalf("migration not idempotent: first = %v, second = %v", firstAV, secondAV)
	}
}

func TestSaveRejectsMissingArrays(t *testing.T) {
	fake := &fakeStore{}
	s := New(fake)
	err := s.Save(context.Background(), model.UserPreferences{
		UserID: "u1",
		Preferences: map[string]map[string]model.SubtopicPrefs{
			"technology": {"AI": {}},
		},
	})
	if err == nil {
		t.Fatal("expected InvalidInput error for missing subreddits/queries arrays")
	}
}

func TestUpdateSpecificSubjectsUnionsAndPersists(t *testing.T) {
	fake := &fakeStore{}
	s := New(fake)
	if err := s.Save(context.Background(), model.UserPreferences{
		UserID:      "u1",
		Preferences: map[string]map[string]model.SubtopicPrefs{},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	merged, err := s.UpdateSpecificSubjects(context.Background(), "u1", []string{"OpenAI", "Anthropic"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("merged = %v, want 2 entries", merged)
	}

	merged2, err := s.UpdateSpecificSubjects(context.Background(), "u1", []string{"Anthropic", "Google"})
	if err != nil {
		t.Fatalf("update 2: %v", err)
	}
	if len(merged2) != 3 {
		t.Fatalf("merged2 = %v, want 3 entries (union, no dupes)", merged2)
	}
}
