package prefs

import "testing"

func TestCanonicalTopicLocaleLabels(t *testing.T) {
	cases := map[string]string{
		"Technologie": TopicTechnology,
		"Business":    TopicBusiness,
		"déportes":    TopicGeneral,
		"Deportes":    TopicSports,
	}
	for label, want := range cases {
		if got := CanonicalTopic(label); got != want {
			t.Errorf("CanonicalTopic(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestParentTopicUnknownFallsBackToGeneral(t *testing.T) {
	if got := ParentTopic("underwater basket weaving"); got != TopicGeneral {
		t.Errorf("ParentTopic(unknown) = %q, want %q", got, TopicGeneral)
	}
	if got := ParentTopic("AI"); got != TopicTechnology {
		t.Errorf("ParentTopic(AI) = %q, want %q", got, TopicTechnology)
	}
}

func TestCatalogDefaultFillsBothArrays(t *testing.T) {
	def, ok := CatalogDefault("Finance")
	if !ok {
		t.Fatal("expected catalog entry for finance")
	}
	if len(def.Subreddits) == 0 || len(def.Queries) == 0 {
		t.Error("catalog default must supply both arrays")
	}
}
