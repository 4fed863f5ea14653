// Package textutil cleans raw transcript text before chunking and trims
// chunk text into display excerpts.
package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// cueMarker matches non-speech caption annotations such as [Music],
// [Applause], or [inaudible 00:12:34].
var cueMarker = regexp.MustCompile(`\[[^\[\]]{1,40}\]`)

// fillerTokens are standalone hesitation sounds auto-captions transcribe
// literally. Matching is case-insensitive after punctuation stripping.
var fillerTokens = map[string]struct{}{
	"uh":  {},
	"um":  {},
	"uhm": {},
	"hmm": {},
}

// CleanTranscript strips caption artifacts from raw transcript text. HTML
// entities are decoded, bracketed cue markers and standalone filler tokens
// removed, immediately repeated words collapsed, and all whitespace reduced
// to single spaces.
func CleanTranscript(raw string) string {
	text := html.UnescapeString(raw)
	text = cueMarker.ReplaceAllString(text, " ")

	words := strings.Fields(text)
	cleaned := make([]string, 0, len(words))
	prevKey := ""
	for _, word := range words {
		key := comparisonKey(word)
		if key != "" {
			if _, filler := fillerTokens[key]; filler {
				continue
			}
			// Auto-captions stutter the same word across cue
			// boundaries; keep the first occurrence only.
			if key == prevKey {
				continue
			}
		}
		cleaned = append(cleaned, word)
		prevKey = key
	}
	return strings.Join(cleaned, " ")
}

// comparisonKey lowercases a word and drops surrounding punctuation so
// "The" and "the," compare equal for stutter detection.
func comparisonKey(word string) string {
	trimmed := strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.ToLower(trimmed)
}

// CollapseWhitespace rewrites any run of whitespace, including newlines,
// as a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WordCount reports the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Excerpt shortens s to at most maxChars characters for display. Long text
// is cut at the last word boundary before the limit and suffixed with an
// ellipsis; the cut never splits a rune.
func Excerpt(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}

	cut := maxChars
	for i := maxChars; i > 0; i-- {
		if unicode.IsSpace(runes[i-1]) {
			cut = i - 1
			break
		}
	}
	if cut == 0 {
		cut = maxChars
	}
	return strings.TrimRight(string(runes[:cut]), " \t\n") + "..."
}
