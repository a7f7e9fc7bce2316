// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textutil provides the text normalization and lexical scoring
// primitives shared by the ingestion and retrieval stages.
// Implements: prd011-processing (R1); docs/ARCHITECTURE § Text Processing.
package textutil

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tokenRe      = regexp.MustCompile(`[a-z0-9]{3,}`)
)

// Clean collapses all whitespace runs to single spaces, trims the ends, and
// strips NUL bytes. Every piece of text entering the pipeline passes through
// here first.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return strings.ReplaceAll(text, "\x00", "")
}

// Sentences splits cleaned text into sentences. A sentence boundary is a
// terminator (. ! ?) followed by whitespace; the terminator stays with the
// preceding sentence. Empty fragments are dropped.
func Sentences(text string) []string {
	normalized := Clean(text)
	if normalized == "" {
		return nil
	}
	var out []string
	runes := []rune(normalized)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			if i+1 < len(runes) && runes[i+1] == ' ' {
				if s := Clean(string(runes[start : i+1])); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		if s := Clean(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sentenceCap bounds any sentence surfaced as a structured field.
const sentenceCap = 450

// KeywordSentence returns the first sentence containing any of the keywords
// (case-insensitive substring match), truncated to 450 characters. When no
// sentence matches it falls back to the first sentence; when the text has no
// sentences it returns "".
func KeywordSentence(text string, keywords []string) string {
	sentences := Sentences(text)
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return truncate(sentence, sentenceCap)
			}
		}
	}
	if len(sentences) > 0 {
		return truncate(sentences[0], sentenceCap)
	}
	return ""
}

// TokenSet lowercases the text and returns the set of alphanumeric tokens of
// at least three characters.
func TokenSet(text string) map[string]struct{} {
	tokens := tokenRe.FindAllString(strings.ToLower(Clean(text)), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// OverlapScore is the fraction of query tokens that also occur in the
// candidate text. Either side tokenizing to nothing scores 0.
func OverlapScore(query, candidate string) float64 {
	qTokens := TokenSet(query)
	if len(qTokens) == 0 {
		return 0
	}
	cTokens := TokenSet(candidate)
	if len(cTokens) == 0 {
		return 0
	}
	shared := 0
	for t := range qTokens {
		if _, ok := cTokens[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(qTokens))
}

// Truncate caps s at max bytes. Callers pass cleaned ASCII-dominant text, so
// a byte cap matches the intent.
func Truncate(s string, max int) string {
	return truncate(s, max)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
