// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexBackend queries the OpenAlex API.
type OpenAlexBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	Authorships           []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	PublicationYear int    `json:"publication_year"`
	PublicationDate string `json:"publication_date"`
	CitedByCount    int    `json:"cited_by_count"`
	DOI             string `json:"doi"`
	OpenAccess      struct {
		OAURL string `json:"oa_url"`
	} `json:"open_access"`
	PrimaryLocation struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
}

// Search queries the OpenAlex API and returns normalized papers.
func (b *OpenAlexBackend) Search(ctx context.Context, query string, limit int, cfg types.DiscoveryConfig) ([]types.Paper, error) {
	if err := wait(ctx, b.Limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", limit)},
		"sort":     {"relevance_score:desc"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(cfg))

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var parsed openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	papers := make([]types.Paper, 0, len(parsed.Results))
	for _, work := range parsed.Results {
		var authors []string
		authorships := work.Authorships
		if len(authorships) > 8 {
			authorships = authorships[:8]
		}
		for _, a := range authorships {
			if name := textutil.Clean(a.Author.DisplayName); name != "" {
				authors = append(authors, name)
			}
		}

		id := work.ID
		if idx := strings.LastIndex(id, "/"); idx >= 0 {
			id = id[idx+1:]
		}

		papers = append(papers, types.Paper{
			PaperID:         textutil.Clean(id),
			Title:           textutil.Clean(work.Title),
			Abstract:        reconstructAbstract(work.AbstractInvertedIndex),
			Authors:         authors,
			Year:            work.PublicationYear,
			CitationCount:   work.CitedByCount,
			PublicationDate: textutil.Clean(work.PublicationDate),
			Venue:           textutil.Clean(work.PrimaryLocation.Source.DisplayName),
			URL:             textutil.Clean(work.ID),
			PDFURL:          textutil.Clean(work.OpenAccess.OAURL),
			DOI:             strings.TrimPrefix(textutil.Clean(work.DOI), "https://doi.org/"),
			Source:          "OpenAlex",
		})
	}
	return papers, nil
}

// reconstructAbstract rebuilds the abstract text from OpenAlex's inverted
// index: each token maps to the word positions where it occurs.
func reconstructAbstract(inverted map[string][]int) string {
	if len(inverted) == 0 {
		return ""
	}
	type placed struct {
		pos   int
		token string
	}
	var positions []placed
	for token, tokenPositions := range inverted {
		for _, pos := range tokenPositions {
			positions = append(positions, placed{pos, token})
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].pos < positions[j].pos })
	words := make([]string, len(positions))
	for i, p := range positions {
		words[i] = p.token
	}
	return textutil.Clean(strings.Join(words, " "))
}
