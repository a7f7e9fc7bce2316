// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// crossrefSearchBase is the Crossref Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var crossrefSearchBase = "https://api.crossref.org/works"

// crossrefSelect limits the response to the fields the pipeline uses.
const crossrefSelect = "DOI,title,author,issued,container-title,URL,is-referenced-by-count"

// CrossrefBackend queries the Crossref REST API. Crossref carries no
// abstracts or PDF links; its records mostly back-fill DOIs and citation
// counts during merge.
type CrossrefBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the backend identifier.
func (b *CrossrefBackend) Name() string { return "crossref" }

type crossrefResponse struct {
	Message struct {
		Items []struct {
			DOI    string   `json:"DOI"`
			Title  []string `json:"title"`
			Author []struct {
				Given  string `json:"given"`
				Family string `json:"family"`
			} `json:"author"`
			Issued struct {
				DateParts [][]int `json:"date-parts"`
			} `json:"issued"`
			ContainerTitle      []string `json:"container-title"`
			URL                 string   `json:"URL"`
			IsReferencedByCount int      `json:"is-referenced-by-count"`
		} `json:"items"`
	} `json:"message"`
}

// Search queries the Crossref API and returns normalized papers.
func (b *CrossrefBackend) Search(ctx context.Context, query string, limit int, cfg types.DiscoveryConfig) ([]types.Paper, error) {
	if err := wait(ctx, b.Limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"query.bibliographic": {query},
		"rows":                {fmt.Sprintf("%d", limit)},
		"sort":                {"relevance"},
		"order":               {"desc"},
		"select":              {crossrefSelect},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(cfg))

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var parsed crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	papers := make([]types.Paper, 0, len(parsed.Message.Items))
	for _, item := range parsed.Message.Items {
		var authors []string
		for _, a := range item.Author {
			name := textutil.Clean(textutil.Clean(a.Given) + " " + textutil.Clean(a.Family))
			if name != "" {
				authors = append(authors, name)
			}
		}

		year := 0
		if len(item.Issued.DateParts) > 0 && len(item.Issued.DateParts[0]) > 0 {
			year = item.Issued.DateParts[0][0]
		}

		doi := strings.ToLower(textutil.Clean(item.DOI))
		paperID := ""
		if doi != "" {
			paperID = strings.ReplaceAll(doi, "/", "_")
		}

		title := ""
		if len(item.Title) > 0 {
			title = textutil.Clean(item.Title[0])
		}
		venue := ""
		if len(item.ContainerTitle) > 0 {
			venue = textutil.Clean(item.ContainerTitle[0])
		}

		papers = append(papers, types.Paper{
			PaperID:       paperID,
			Title:         title,
			Authors:       authors,
			Year:          year,
			CitationCount: item.IsReferencedByCount,
			Venue:         venue,
			URL:           textutil.Clean(item.URL),
			DOI:           doi,
			Source:        "Crossref",
		})
	}
	return papers, nil
}
