// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk slices paper text into overlapping word windows, optionally
// grouped by detected section headings.
// Implements: prd011-processing (R2, R3); docs/ARCHITECTURE § Text Processing.
package chunk

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// Text splits cleaned text into windows of sizeWords words advancing by
// sizeWords-overlapWords (floored at one). Text at or under one window is
// returned whole. A trailing window shorter than minWords is dropped.
func Text(text string, sizeWords, overlapWords, minWords int) []string {
	text = textutil.Clean(text)
	if text == "" {
		return nil
	}
	words := strings.Split(text, " ")
	if len(words) <= sizeWords {
		return []string{text}
	}

	var chunks []string
	step := sizeWords - overlapWords
	if step < 1 {
		step = 1
	}
	for start := 0; start < len(words); start += step {
		end := start + sizeWords
		if end > len(words) {
			end = len(words)
		}
		if end-start < minWords {
			break
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if start+sizeWords >= len(words) {
			break
		}
	}
	return chunks
}

// Section is a labeled span of a paper's text.
type Section struct {
	Label string
	Text  string
}

type headingPattern struct {
	re    *regexp.Regexp
	label string
}

var headingPatterns = []headingPattern{
	{regexp.MustCompile(`(?i)\babstract\b`), "abstract"},
	{regexp.MustCompile(`(?i)\bintroduction\b`), "introduction"},
	{regexp.MustCompile(`(?i)\bbackground\b`), "background"},
	{regexp.MustCompile(`(?i)\brelated work\b`), "related_work"},
	{regexp.MustCompile(`(?i)\bmethods?\b`), "methods"},
	{regexp.MustCompile(`(?i)\bmaterials and methods\b`), "methods"},
	{regexp.MustCompile(`(?i)\bexperimental setup\b`), "methods"},
	{regexp.MustCompile(`(?i)\bdatasets?\b`), "dataset"},
	{regexp.MustCompile(`(?i)\bresults?\b`), "results"},
	{regexp.MustCompile(`(?i)\banalysis\b`), "analysis"},
	{regexp.MustCompile(`(?i)\bdiscussion\b`), "discussion"},
	{regexp.MustCompile(`(?i)\blimitations?\b`), "limitations"},
	{regexp.MustCompile(`(?i)\bfuture work\b`), "future_work"},
	{regexp.MustCompile(`(?i)\bconclusions?\b`), "conclusion"},
}

type marker struct {
	pos   int
	label string
}

// SplitSections labels spans of the text by the section headings it finds.
// The document always opens with a "body" span; each heading occurrence after
// position zero starts a new span labeled by that heading. When two headings
// claim the same position the earlier pattern in the list wins.
func SplitSections(text string) []Section {
	clean := textutil.Clean(text)
	if clean == "" {
		return nil
	}

	markers := []marker{{0, "body"}}
	for _, hp := range headingPatterns {
		for _, loc := range hp.re.FindAllStringIndex(clean, -1) {
			if loc[0] > 0 {
				markers = append(markers, marker{loc[0], hp.label})
			}
		}
	}
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].pos < markers[j].pos })

	seen := make(map[int]bool)
	dedup := markers[:0]
	for _, m := range markers {
		if seen[m.pos] {
			continue
		}
		seen[m.pos] = true
		dedup = append(dedup, m)
	}

	var sections []Section
	for i, m := range dedup {
		end := len(clean)
		if i+1 < len(dedup) {
			end = dedup[i+1].pos
		}
		segment := textutil.Clean(clean[m.pos:end])
		if segment == "" {
			continue
		}
		sections = append(sections, Section{Label: m.label, Text: segment})
	}
	if len(sections) == 0 {
		return []Section{{Label: "body", Text: clean}}
	}
	return sections
}

// WithSections runs the window chunker within each detected section and tags
// every chunk with its section label and index.
func WithSections(text string, sizeWords, overlapWords, minWords int) []types.Chunk {
	sections := SplitSections(text)
	var out []types.Chunk
	for sectionIdx, section := range sections {
		label := section.Label
		if label == "" {
			label = "body"
		}
		for _, piece := range Text(section.Text, sizeWords, overlapWords, minWords) {
			out = append(out, types.Chunk{
				Text:         piece,
				Section:      label,
				SectionIndex: sectionIdx,
			})
		}
	}
	return out
}
