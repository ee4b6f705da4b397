package podcast

import (
	"strings"
	"testing"
)

// TestCleanScriptRemovesMarkersAndLinks is the script-cleanup seed test from
// §8: stage directions, bracket content, markdown links, bare URLs, and
// link-reference phrases are all stripped.
func TestCleanScriptRemovesMarkersAndLinks(t *testing.T) {
	input := "**[Intro]** Welcome! [here](https://x.y) Check it out https://a.b. **[Outro]**"
	got := cleanScript(input)

	lower := strings.ToLower(got)
	for _, forbidden := range []string{"[", "](", "http", "check it out"} {
		if strings.Contains(lower, forbidden) {
			t.Errorf("cleaned script still contains %q: %q", forbidden, got)
		}
	}
}

func TestCleanScriptCollapsesBlankLines(t *testing.T) {
	input := "Line one.\n\n\n\n\nLine two."
	got := cleanScript(input)
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("expected at most one blank line, got %q", got)
	}
}
