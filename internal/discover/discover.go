// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover queries academic APIs for papers matching a free-text
// query and returns unified, deduplicated records.
// Implements: prd010-ingestion (R1); docs/ARCHITECTURE § Discovery.
package discover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/literature-assistant/internal/budget"
	"github.com/pdiddy/literature-assistant/internal/paper"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// Backend searches a single academic API. Each backend (OpenAlex, Semantic
// Scholar, Crossref, arXiv) implements this interface per the Strategy
// pattern, so tests can point the endpoint vars at httptest servers.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int, cfg types.DiscoveryConfig) ([]types.Paper, error)
}

// Backends instantiates the configured sources in the order listed. Unknown
// source names are skipped. A shared rate limiter is applied when the config
// caps requests per second.
func Backends(cfg types.DiscoveryConfig) []Backend {
	client := &http.Client{Timeout: cfg.Timeout}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	var out []Backend
	for _, source := range cfg.Sources {
		switch strings.ToLower(strings.TrimSpace(source)) {
		case "openalex":
			out = append(out, &OpenAlexBackend{Client: client, Limiter: limiter, Email: cfg.OpenAlexEmail})
		case "semantic_scholar", "semanticscholar":
			out = append(out, &SemanticScholarBackend{Client: client, Limiter: limiter, APIKey: cfg.SemanticScholarAPIKey})
		case "crossref":
			out = append(out, &CrossrefBackend{Client: client, Limiter: limiter})
		case "arxiv":
			out = append(out, &ArxivBackend{Client: client, Limiter: limiter})
		}
	}
	return out
}

// Output holds discovery results and per-source failure details.
type Output struct {
	Papers       []types.Paper
	BudgetHit    bool
	SourceErrors []string
}

// Discover runs each backend in turn, isolating per-source failures, and
// merges the results. Sources are skipped once the budget is exhausted; the
// output still carries everything gathered before that point. Progress and
// warnings go to w.
func Discover(ctx context.Context, query string, limit int, backends []Backend, cfg types.DiscoveryConfig, b *budget.Budget, w io.Writer) Output {
	var out Output
	var gathered []types.Paper
	for _, backend := range backends {
		if b.Exceeded() {
			out.BudgetHit = true
			break
		}
		results, err := backend.Search(ctx, query, limit, cfg)
		if err != nil {
			msg := fmt.Sprintf("%s: %v", backend.Name(), err)
			out.SourceErrors = append(out.SourceErrors, msg)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", backend.Name(), err)
			continue
		}
		fmt.Fprintf(w, "source %s returned %d papers\n", backend.Name(), len(results))
		gathered = append(gathered, results...)
	}
	out.Papers = paper.Merge(gathered)
	return out
}

// wait blocks on the limiter when one is set. Backends call this before
// every outbound request.
func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// userAgent falls back to a default when the config leaves it empty.
func userAgent(cfg types.DiscoveryConfig) string {
	if cfg.UserAgent != "" {
		return cfg.UserAgent
	}
	return "literature-assistant/0.1"
}
