package prefs

import "github.com/brightfeed/newsbrief/internal/model"

// Canonical topic slugs per §4.1.
const (
	TopicTechnology     = "technology"
	TopicBusiness       = "business"
	TopicSports         = "sports"
	TopicScience        = "science"
	TopicHealth         = "health"
	TopicEntertainment  = "entertainment"
	TopicWorld          = "world"
	TopicGeneral        = "general"
)

// localeTopicTable maps locale-specific labels (as stored by legacy v1/v2
// clients) to a canonical topic slug. Generalized from script/format.go's
// single-language prompt-table pattern into a compile-time lookup table per
// §9 ("ad-hoc string tables become compile-time tables with a single lookup
// API").
var localeTopicTable = map[string]string{
	"technology":    TopicTechnology,
	"tech":          TopicTechnology,
	"technologie":   TopicTechnology,
	"tecnologia":    TopicTechnology,
	"business":      TopicBusiness,
	"économie":      TopicBusiness,
	"economia":      TopicBusiness,
	"finanzas":      TopicBusiness,
	"sports":        TopicSports,
	"sport":         TopicSports,
	"deportes":      TopicSports,
	"science":       TopicScience,
	"ciencia":       TopicScience,
	"sciences":      TopicScience,
	"health":        TopicHealth,
	"santé":         TopicHealth,
	"salud":         TopicHealth,
	"entertainment": TopicEntertainment,
	"divertissement": TopicEntertainment,
	"entretenimiento": TopicEntertainment,
	"world":         TopicWorld,
	"monde":         TopicWorld,
	"mundo":         TopicWorld,
	"general":       TopicGeneral,
	"général":       TopicGeneral,
}

// CanonicalTopic maps a legacy locale-specific topic label to its canonical
// slug, defaulting to TopicGeneral when unrecognized.
func CanonicalTopic(label string) string {
	if slug, ok := localeTopicTable[normalizeKey(label)]; ok {
		return slug
	}
	return TopicGeneral
}

// subtopicParentTable infers a canonical parent topic for a bare legacy
// subtopic name, per §4.1(b). Subtopics not present here fall under general.
var subtopicParentTable = map[string]string{
	"ai":          TopicTechnology,
	"artificial intelligence": TopicTechnology,
	"gadgets":     TopicTechnology,
	"startups":    TopicTechnology,
	"programming": TopicTechnology,
	"finance":     TopicBusiness,
	"markets":     TopicBusiness,
	"economy":     TopicBusiness,
	"crypto":      TopicBusiness,
	"football":    TopicSports,
	"basketball":  TopicSports,
	"soccer":      TopicSports,
	"tennis":      TopicSports,
	"space":       TopicScience,
	"physics":     TopicScience,
	"biology":     TopicScience,
	"climate":     TopicScience,
	"fitness":     TopicHealth,
	"nutrition":   TopicHealth,
	"mental health": TopicHealth,
	"movies":      TopicEntertainment,
	"music":       TopicEntertainment,
	"gaming":      TopicEntertainment,
	"television":  TopicEntertainment,
	"politics":    TopicWorld,
	"geopolitics": TopicWorld,
}

// ParentTopic infers the canonical parent topic for a legacy subtopic name.
func ParentTopic(subtopicName string) string {
	if parent, ok := subtopicParentTable[normalizeKey(subtopicName)]; ok {
		return parent
	}
	return TopicGeneral
}

// subtopicCatalog supplies default {subreddits, queries} for well-known
// subtopic names when a legacy document's subtopic lacks one or both, per
// §4.1(c). Names not present fall back to {[], [subtopic_name]}.
var subtopicCatalog = map[string]model.SubtopicPrefs{
	"ai":          {Subreddits: []string{"artificial", "MachineLearning"}, Queries: []string{"artificial intelligence"}},
	"gadgets":     {Subreddits: []string{"gadgets"}, Queries: []string{"new gadgets"}},
	"startups":    {Subreddits: []string{"startups"}, Queries: []string{"startup funding"}},
	"finance":     {Subreddits: []string{"finance"}, Queries: []string{"financial markets"}},
	"markets":     {Subreddits: []string{"investing"}, Queries: []string{"stock market"}},
	"crypto":      {Subreddits: []string{"CryptoCurrency"}, Queries: []string{"cryptocurrency"}},
	"football":    {Subreddits: []string{"nfl"}, Queries: []string{"football"}},
	"basketball":  {Subreddits: []string{"nba"}, Queries: []string{"basketball"}},
	"soccer":      {Subreddits: []string{"soccer"}, Queries: []string{"soccer"}},
	"space":       {Subreddits: []string{"space"}, Queries: []string{"space exploration"}},
	"climate":     {Subreddits: []string{"climate"}, Queries: []string{"climate change"}},
	"fitness":     {Subreddits: []string{"fitness"}, Queries: []string{"fitness"}},
	"movies":      {Subreddits: []string{"movies"}, Queries: []string{"movies"}},
	"music":       {Subreddits: []string{"Music"}, Queries: []string{"music news"}},
	"gaming":      {Subreddits: []string{"gaming"}, Queries: []string{"video games"}},
	"politics":    {Subreddits: []string{"worldnews"}, Queries: []string{"politics"}},
}

// CatalogDefault returns the catalog entry for a subtopic name, if any.
func CatalogDefault(subtopicName string) (model.SubtopicPrefs, bool) {
	v, ok := subtopicCatalog[normalizeKey(subtopicName)]
	return v, ok
}

func normalizeKey(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		out = append(out, r)
	}
	return string(out)
}

// MaxSpecificSubjects bounds the monotonically-growing specific_subjects set
// per §9's open question; most-recent entries are kept on overflow.
const MaxSpecificSubjects = 200
