// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext downloads open-access PDFs and extracts their plain text
// for chunking. Extraction is strictly best effort: a paper with a broken
// PDF still gets indexed from its abstract.
// Implements: prd011-processing (R5); docs/ARCHITECTURE § Text Processing.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// Extractor fetches and parses PDFs.
type Extractor struct {
	Client   *http.Client
	MaxPages int
	MaxChars int
	UA       string
}

// NewExtractor builds an extractor from the ingest and HTTP configuration.
func NewExtractor(client *http.Client, cfg types.IngestConfig, userAgent string) *Extractor {
	return &Extractor{
		Client:   client,
		MaxPages: cfg.MaxPDFPages,
		MaxChars: cfg.MaxPDFTextChars,
		UA:       userAgent,
	}
}

// Extract downloads the PDF at pdfURL and returns its text, cleaned per
// page and capped at MaxChars. It returns "" without error when the URL is
// empty or the response does not look like a PDF.
func (e *Extractor) Extract(ctx context.Context, pdfURL string) (string, error) {
	if pdfURL == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if e.UA != "" {
		req.Header.Set("User-Agent", e.UA)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PDF fetch returned HTTP %d", resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "pdf") && !strings.HasSuffix(strings.ToLower(pdfURL), ".pdf") {
		return "", nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading PDF body: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	return e.parse(data)
}

func (e *Extractor) parse(data []byte) (text string, err error) {
	// The parser panics on some malformed files; treat that as a parse
	// failure rather than taking down the run.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parsing PDF: %w", err)
	}

	maxPages := e.MaxPages
	if maxPages <= 0 {
		maxPages = 8
	}
	maxChars := e.MaxChars
	if maxChars <= 0 {
		maxChars = 120000
	}

	var parts []string
	total := 0
	for pageNum := 1; pageNum <= reader.NumPage() && pageNum <= maxPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		cleaned := textutil.Clean(pageText)
		if cleaned == "" {
			continue
		}
		parts = append(parts, cleaned)
		total += len(cleaned)
		if total >= maxChars {
			break
		}
	}

	joined := strings.Join(parts, "\n")
	if len(joined) > maxChars {
		joined = joined[:maxChars]
	}
	return joined, nil
}
