package llm

import (
	"regexp"
	"strings"
)

// StripScratchpad, StripMarkdownFences, and ExtractJSON are the shared
// LLM-output cleanup helpers, generalized from script.parseScript's
// stripScratchpad/stripMarkdownFences/extractJSON chain so every caller that
// parses structured JSON back out of a chat completion (report builder,
// preference-discovery entity extractor) uses the same pipeline.
var scratchpadRe = regexp.MustCompile(`(?s)<scratchpad>.*?</scratchpad>`)

func StripScratchpad(text string) string {
	return scratchpadRe.ReplaceAllString(text, "")
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

func StripMarkdownFences(text string) string {
	if matches := fenceRe.FindStringSubmatch(text); len(matches) > 1 {
		return matches[1]
	}
	return text
}

// ExtractJSON finds the first JSON object or array substring. It tries an
// object ({...}) first, then an array ([...]), since the entity extractor in
// §4.10 returns a bare JSON array.
func ExtractJSON(text string) string {
	if obj := extractBetween(text, '{', '}'); obj != "" {
		return obj
	}
	if arr := extractBetween(text, '[', ']'); arr != "" {
		return arr
	}
	return text
}

func extractBetween(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return ""
}

func Truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// CleanCompletion runs the full strip chain and trims whitespace, the
// sequence every JSON-returning prompt's response goes through before
// json.Unmarshal.
func CleanCompletion(text string) string {
	text = StripScratchpad(text)
	text = StripMarkdownFences(text)
	text = ExtractJSON(text)
	return strings.TrimSpace(text)
}
