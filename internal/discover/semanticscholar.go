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

// semanticScholarSearchBase is the Semantic Scholar Graph search endpoint.
// Declared as a var so tests can substitute an httptest server.
var semanticScholarSearchBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// semanticScholarFields lists the record fields requested per paper.
const semanticScholarFields = "paperId,title,abstract,authors,year,citationCount,publicationDate,venue,url,externalIds,openAccessPdf"

// SemanticScholarBackend queries the Semantic Scholar Graph API.
type SemanticScholarBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
	// APIKey raises the rate limit when set; anonymous access works too.
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

type semanticScholarResponse struct {
	Data []struct {
		PaperID  string `json:"paperId"`
		Title    string `json:"title"`
		Abstract string `json:"abstract"`
		Authors  []struct {
			Name string `json:"name"`
		} `json:"authors"`
		Year            int    `json:"year"`
		CitationCount   int    `json:"citationCount"`
		PublicationDate string `json:"publicationDate"`
		Venue           string `json:"venue"`
		URL             string `json:"url"`
		ExternalIDs     struct {
			DOI string `json:"DOI"`
		} `json:"externalIds"`
		OpenAccessPDF struct {
			URL string `json:"url"`
		} `json:"openAccessPdf"`
	} `json:"data"`
}

// Search queries the Semantic Scholar API and returns normalized papers.
func (b *SemanticScholarBackend) Search(ctx context.Context, query string, limit int, cfg types.DiscoveryConfig) ([]types.Paper, error) {
	if err := wait(ctx, b.Limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {semanticScholarFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticScholarSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent(cfg))
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var parsed semanticScholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	papers := make([]types.Paper, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		var authors []string
		for _, a := range item.Authors {
			if name := textutil.Clean(a.Name); name != "" {
				authors = append(authors, name)
			}
		}
		papers = append(papers, types.Paper{
			PaperID:         textutil.Clean(item.PaperID),
			Title:           textutil.Clean(item.Title),
			Abstract:        textutil.Clean(item.Abstract),
			Authors:         authors,
			Year:            item.Year,
			CitationCount:   item.CitationCount,
			PublicationDate: textutil.Clean(item.PublicationDate),
			Venue:           textutil.Clean(item.Venue),
			URL:             textutil.Clean(item.URL),
			PDFURL:          textutil.Clean(item.OpenAccessPDF.URL),
			DOI:             strings.ToLower(textutil.Clean(item.ExternalIDs.DOI)),
			Source:          "Semantic Scholar",
		})
	}
	return papers, nil
}
