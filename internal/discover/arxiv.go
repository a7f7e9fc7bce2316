// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv Atom API. arXiv reports no citation
// counts, so its records rank on text availability and recency.
type ArxivBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Title string `xml:"title,attr"`
		Type  string `xml:"type,attr"`
	} `xml:"link"`
	DOI string `xml:"doi"`
}

// Search queries the arXiv API and returns normalized papers.
func (b *ArxivBackend) Search(ctx context.Context, query string, limit int, cfg types.DiscoveryConfig) ([]types.Paper, error) {
	if err := wait(ctx, b.Limiter); err != nil {
		return nil, err
	}

	terms := strings.Join(strings.Fields(query), "+")
	if terms == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	reqURL := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, terms, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(cfg))

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		arxivID := entry.ID
		if idx := strings.LastIndex(arxivID, "/abs/"); idx >= 0 {
			arxivID = arxivID[idx+len("/abs/"):]
		}
		if arxivID == "" {
			continue
		}

		var authors []string
		for _, a := range entry.Authors {
			if name := textutil.Clean(a.Name); name != "" {
				authors = append(authors, name)
			}
		}

		var pdfURL string
		for _, link := range entry.Links {
			if link.Title == "pdf" || link.Type == "application/pdf" {
				pdfURL = link.Href
				break
			}
		}

		p := types.Paper{
			PaperID:  "arxiv_" + strings.ReplaceAll(arxivID, "/", "_"),
			Title:    textutil.Clean(entry.Title),
			Abstract: textutil.Clean(entry.Summary),
			Authors:  authors,
			URL:      textutil.Clean(entry.ID),
			PDFURL:   textutil.Clean(pdfURL),
			DOI:      strings.ToLower(textutil.Clean(entry.DOI)),
			Source:   "arXiv",
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			p.Year = t.Year()
			p.PublicationDate = t.Format("2006-01-02")
		}
		papers = append(papers, p)
	}
	return papers, nil
}
