// Package prefs is the Preference Store from §4.1: reads/writes user
// preference documents and performs on-read migration from legacy flat
// formats to the current nested format. Migration logic lives here only, per
// the design note that "migration logic lives in one place" — the store
// adapter itself is deliberately format-version-agnostic.
package prefs

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightfeed/newsbrief/internal/errs"
	"github.com/brightfeed/newsbrief/internal/model"
)

const CurrentFormatVersion = "3.0"

// docStore is the slice of *store.Adapter this package depends on, declared
// here so tests can substitute a fake without touching DynamoDB.
type docStore interface {
	GetPreferences(ctx context.Context, userID string) (map[string]types.AttributeValue, bool, error)
	PutPreferences(ctx context.Context, prefs model.UserPreferences) error
}

type Store struct {
	adapter docStore
}

func New(adapter docStore) *Store {
	return &Store{adapter: adapter}
}

// Save validates the nested topic→subtopic→{subreddits, queries} shape and
// writes with format_version="3.0" and a fresh updated_at, per §4.1.
func (s *Store) Save(ctx context.Context, prefs model.UserPreferences) error {
	if err := validate(prefs); err != nil {
		return err
	}
	prefs.FormatVersion = CurrentFormatVersion
	prefs.UpdatedAt = time.Now().UTC()
	return s.adapter.PutPreferences(ctx, prefs)
}

func validate(prefs model.UserPreferences) error {
	if prefs.UserID == "" {
		return errs.New(errs.InvalidInput, "user_id is required", nil)
	}
	for topic, subtopics := range prefs.Preferences {
		if topic == "" {
			return errs.New(errs.InvalidInput, "topic key must not be empty", nil)
		}
		for subtopic, leaf := range subtopics {
			if subtopic == "" {
				return errs.New(errs.InvalidInput, "subtopic key must not be empty", nil)
			}
			if leaf.Subreddits == nil || leaf.Queries == nil {
				return errs.New(errs.InvalidInput, "subtopic leaf must have both subreddits and queries arrays", nil)
			}
		}
	}
	return nil
}

// Get returns the current v3.0 document for a user, migrating a legacy v1/v2
// document on read and persisting the migrated form back (idempotently), per
// §4.1. Returns an empty v3.0 skeleton if no document exists, matching the
// HTTP surface's "empty skeleton if none" contract.
func (s *Store) Get(ctx context.Context, userID string) (model.UserPreferences, error) {
	raw, found, err := s.adapter.GetPreferences(ctx, userID)
	if err != nil {
		return model.UserPreferences{}, err
	}
	if !found {
		return emptySkeleton(userID), nil
	}

	version := stringAttr(raw, "format_version")
	if version == CurrentFormatVersion {
		var current model.UserPreferences
		if err := attributevalue.UnmarshalMap(raw, &current); err != nil {
			return model.UserPreferences{}, errs.New(errs.ProviderTransient, "unmarshal preferences", err)
		}
		return current, nil
	}

	migrated, err := migrate(raw, userID)
	if err != nil {
		return model.UserPreferences{}, err
	}
	// Persist-back is idempotent: migrating an already-v3.0 shape is a no-op
	// above, so a second Get on the persisted form returns byte-equal data.
	if err := s.adapter.PutPreferences(ctx, migrated); err != nil {
		return model.UserPreferences{}, err
	}
	return migrated, nil
}

func emptySkeleton(userID string) model.UserPreferences {
	return model.UserPreferences{
		UserID:        userID,
		Preferences:   map[string]map[string]model.SubtopicPrefs{},
		DetailLevel:   model.DetailMedium,
		Language:      "en",
		FormatVersion: CurrentFormatVersion,
		UpdatedAt:     time.Now().UTC(),
	}
}

// legacyDoc mirrors the flat v1/v2 shape: topics: [str], subtopics: {name:
// {subreddits?, queries?}}.
type legacyDoc struct {
	UserID           string                         `dynamodbav:"user_id"`
	Topics           []string                       `dynamodbav:"topics"`
	Subtopics        map[string]legacySubtopic      `dynamodbav:"subtopics"`
	DetailLevel      string                         `dynamodbav:"detail_level"`
	Language         string                         `dynamodbav:"language"`
	SpecificSubjects []string                       `dynamodbav:"specific_subjects"`
}

type legacySubtopic struct {
	Subreddits []string `dynamodbav:"subreddits"`
	Queries    []string `dynamodbav:"queries"`
}

// migrate implements §4.1's on-read migration: (a) map locale topic labels
// to canonical slugs, (b) place each subtopic under its inferred parent
// topic, (c) fill missing {subreddits, queries} from the catalog or default
// to {[], [subtopic_name]}, (d) return the migrated v3.0 document.
func migrate(raw map[string]types.AttributeValue, userID string) (model.UserPreferences, error) {
	var legacy legacyDoc
	if err := attributevalue.UnmarshalMap(raw, &legacy); err != nil {
		return model.UserPreferences{}, errs.New(errs.ProviderTransient, "unmarshal legacy preferences", err)
	}

	canonicalTopics := make(map[string]bool, len(legacy.Topics))
	for _, t := range legacy.Topics {
		canonicalTopics[CanonicalTopic(t)] = true
	}

	preferences := map[string]map[string]model.SubtopicPrefs{}
	for subtopicName, leaf := range legacy.Subtopics {
		parent := ParentTopic(subtopicName)
		if !canonicalTopics[parent] && parent != TopicGeneral {
			parent = TopicGeneral
		}
		if _, ok := preferences[parent]; !ok {
			preferences[parent] = map[string]model.SubtopicPrefs{}
		}
		preferences[parent][subtopicName] = fillSubtopic(subtopicName, leaf)
	}
	// Every declared legacy topic must appear even if it picked up no
	// subtopics, so the migrated document's topic set is a superset.
	for topic := range canonicalTopics {
		if _, ok := preferences[topic]; !ok {
			preferences[topic] = map[string]model.SubtopicPrefs{}
		}
	}

	detailLevel := model.DetailLevel(legacy.DetailLevel)
	if detailLevel == "" {
		detailLevel = model.DetailMedium
	}
	language := legacy.Language
	if language == "" {
		language = "en"
	}

	return model.UserPreferences{
		UserID:           userID,
		Preferences:      preferences,
		DetailLevel:      detailLevel,
		Language:         language,
		FormatVersion:    CurrentFormatVersion,
		UpdatedAt:        time.Now().UTC(),
		SpecificSubjects: legacy.SpecificSubjects,
	}, nil
}

func fillSubtopic(name string, leaf legacySubtopic) model.SubtopicPrefs {
	if leaf.Subreddits != nil && leaf.Queries != nil {
		return model.SubtopicPrefs{Subreddits: leaf.Subreddits, Queries: leaf.Queries}
	}
	if def, ok := CatalogDefault(name); ok {
		out := def
		if leaf.Subreddits != nil {
			out.Subreddits = leaf.Subreddits
		}
		if leaf.Queries != nil {
			out.Queries = leaf.Queries
		}
		return out
	}
	subreddits := leaf.Subreddits
	if subreddits == nil {
		subreddits = []string{}
	}
	queries := leaf.Queries
	if queries == nil {
		queries = []string{name}
	}
	return model.SubtopicPrefs{Subreddits: subreddits, Queries: queries}
}

func stringAttr(raw map[string]types.AttributeValue, key string) string {
	if av, ok := raw[key]; ok {
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			return s.Value
		}
	}
	return ""
}

// UpdateSpecificSubjects implements the read-union-write merge from §4.1 and
// §5 ("a transactional merge is REQUIRED if the platform supports it,
// otherwise a read-modify-write"). Caps the result at MaxSpecificSubjects,
// keeping the most recently added entries, per §9's open question.
func (s *Store) UpdateSpecificSubjects(ctx context.Context, userID string, newEntities []string) ([]string, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(current.SpecificSubjects))
	merged := make([]string, 0, len(current.SpecificSubjects)+len(newEntities))
	for _, e := range current.SpecificSubjects {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		merged = append(merged, e)
	}
	for _, e := range newEntities {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		merged = append(merged, e)
	}
	if len(merged) > MaxSpecificSubjects {
		merged = merged[len(merged)-MaxSpecificSubjects:]
	}

	current.SpecificSubjects = merged
	current.UpdatedAt = time.Now().UTC()
	if err := s.adapter.PutPreferences(ctx, current); err != nil {
		return nil, err
	}
	return merged, nil
}
