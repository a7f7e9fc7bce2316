// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite numbers the papers behind retrieved chunks and formats
// reference lists in APA, MLA, or IEEE style. It also assembles the
// citation-tagged context block handed to synthesis.
// Implements: prd013-retrieval (R3, R4); docs/ARCHITECTURE § Retrieval.
package cite

import (
	"fmt"
	"strings"

	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// snippetChars caps the snippet carried per used chunk.
const snippetChars = 400

// PaperKey identifies the paper behind a chunk's metadata: ID first, then
// DOI, then title.
func PaperKey(meta types.ChunkMetadata) string {
	if id := textutil.Clean(meta.PaperID); id != "" {
		return "id:" + id
	}
	if doi := strings.ToLower(textutil.Clean(meta.DOI)); doi != "" {
		return "doi:" + doi
	}
	return "title:" + strings.ToLower(textutil.Clean(meta.Title))
}

// BuildReferences assigns citation numbers to distinct papers in match
// order and formats one reference line per paper. The returned map keys
// paper keys to citation numbers for context tagging.
func BuildReferences(matches []types.Match, style string) ([]types.Reference, map[string]int) {
	var references []types.Reference
	paperToCitation := make(map[string]int)

	for _, m := range matches {
		key := PaperKey(m.Metadata)
		if _, seen := paperToCitation[key]; seen {
			continue
		}
		number := len(references) + 1
		paperToCitation[key] = number
		references = append(references, types.Reference{
			CitationNumber: number,
			PaperID:        m.Metadata.PaperID,
			Title:          m.Metadata.Title,
			Year:           m.Metadata.Year,
			Venue:          m.Metadata.Venue,
			Source:         m.Metadata.Source,
			DOI:            m.Metadata.DOI,
			URL:            m.Metadata.URL,
			Formatted:      FormatReference(m.Metadata, number, style),
		})
	}
	return references, paperToCitation
}

// FormatReference renders one reference line in the requested style.
// Unknown styles format as APA.
func FormatReference(meta types.ChunkMetadata, citationNumber int, style string) string {
	style = strings.ToLower(strings.TrimSpace(style))
	authors := formatAuthorList(meta.Authors, style)
	title := textutil.Clean(meta.Title)
	if title == "" {
		title = "Untitled"
	}
	venue := textutil.Clean(meta.Venue)
	year := "n.d."
	if meta.Year != 0 {
		year = fmt.Sprintf("%d", meta.Year)
	}
	link := referenceLink(meta)

	switch style {
	case "ieee":
		line := fmt.Sprintf("[%d] %s, \"%s,\"", citationNumber, authors, title)
		if venue != "" {
			line += " " + venue + ","
		}
		line += " " + year + "."
		if link != "" {
			line += " " + link
		}
		return line
	case "mla":
		line := fmt.Sprintf("%s. \"%s.\"", authors, title)
		if venue != "" {
			line += " " + venue + ","
		}
		line += " " + year + "."
		if link != "" {
			line += " " + link
		}
		return line
	default:
		line := fmt.Sprintf("%s (%s). %s.", authors, year, title)
		if venue != "" {
			line += " " + venue + "."
		}
		if link != "" {
			line += " " + link
		}
		return line
	}
}

func referenceLink(meta types.ChunkMetadata) string {
	if doi := textutil.Clean(meta.DOI); doi != "" {
		return "https://doi.org/" + doi
	}
	return textutil.Clean(meta.URL)
}

// splitAuthors parses the comma-joined author string stored in metadata.
func splitAuthors(joined string) []string {
	var out []string
	for _, part := range strings.Split(joined, ",") {
		if name := textutil.Clean(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// nameTokens splits a full name into (family, given) parts, treating the
// final token as the family name.
func nameTokens(fullName string) (last, given string) {
	tokens := strings.Fields(textutil.Clean(fullName))
	if len(tokens) == 0 {
		return "", ""
	}
	if len(tokens) == 1 {
		return tokens[0], ""
	}
	return tokens[len(tokens)-1], strings.Join(tokens[:len(tokens)-1], " ")
}

func initialsOf(given string) string {
	var parts []string
	for _, g := range strings.Fields(given) {
		parts = append(parts, string([]rune(g)[0])+".")
	}
	return strings.Join(parts, " ")
}

func formatAuthorList(joined, style string) string {
	authors := splitAuthors(joined)
	if len(authors) == 0 {
		return "Unknown author"
	}

	switch style {
	case "mla":
		last, given := nameTokens(authors[0])
		first := last
		if given != "" {
			first = last + ", " + given
		}
		if len(authors) == 1 {
			return first
		}
		if len(authors) > 2 {
			return first + ", et al."
		}
		return first + ", and " + authors[1]

	case "ieee":
		var parts []string
		limit := len(authors)
		if limit > 6 {
			limit = 6
		}
		for _, fullName := range authors[:limit] {
			last, given := nameTokens(fullName)
			initials := initialsOf(given)
			switch {
			case initials != "" && last != "":
				parts = append(parts, initials+" "+last)
			case last != "":
				parts = append(parts, last)
			default:
				parts = append(parts, fullName)
			}
		}
		if len(authors) > 6 {
			parts = append(parts, "et al.")
		}
		if joined := strings.Join(parts, ", "); joined != "" {
			return joined
		}
		return "Unknown author"

	default: // apa
		var parts []string
		limit := len(authors)
		if limit > 7 {
			limit = 7
		}
		for _, fullName := range authors[:limit] {
			last, given := nameTokens(fullName)
			initials := initialsOf(given)
			switch {
			case last != "" && initials != "":
				parts = append(parts, last+", "+initials)
			case last != "":
				parts = append(parts, last)
			}
		}
		if len(parts) == 0 {
			return "Unknown author"
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return strings.Join(parts[:len(parts)-1], ", ") + ", & " + parts[len(parts)-1]
	}
}

// BuildContext renders retrieved chunks as citation-tagged blocks within
// the character budget. A chunk that would overflow the budget halts
// assembly; later, smaller chunks are not pulled forward past it. The
// returned UsedChunks mirror exactly what made it into the context.
func BuildContext(matches []types.Match, paperToCitation map[string]int, maxChars int) (string, []types.UsedChunk) {
	var parts []string
	var used []types.UsedChunk
	total := 0

	for idx, m := range matches {
		chunkText := textutil.Clean(m.Metadata.ChunkText)
		if chunkText == "" {
			continue
		}

		tag := "[?]"
		number, ok := paperToCitation[PaperKey(m.Metadata)]
		if ok {
			tag = fmt.Sprintf("[%d]", number)
		}
		title := textutil.Clean(m.Metadata.Title)
		if title == "" {
			title = "Untitled"
		}
		year := "n.d."
		if m.Metadata.Year != 0 {
			year = fmt.Sprintf("%d", m.Metadata.Year)
		}
		section := textutil.Clean(m.Metadata.Section)
		if section == "" {
			section = "body"
		}
		hybrid := m.RankScore()

		block := fmt.Sprintf(
			"Chunk %d | Citation %s | Title: %s | Year: %s | Section: %s | Score: %.4f | Hybrid: %.4f\n%s\n",
			idx+1, tag, title, year, section, m.Score, hybrid, chunkText,
		)
		if total+len(block) > maxChars {
			break
		}
		parts = append(parts, block)
		total += len(block)
		used = append(used, types.UsedChunk{
			Rank:           idx + 1,
			CitationNumber: number,
			PaperID:        m.Metadata.PaperID,
			Title:          title,
			Score:          m.Score,
			HybridScore:    hybrid,
			Section:        section,
			ChunkIndex:     m.Metadata.ChunkIndex,
			Snippet:        textutil.Truncate(chunkText, snippetChars),
		})
	}

	return strings.Join(parts, "\n"), used
}
