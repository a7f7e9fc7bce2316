// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest orchestrates the pipeline from paper discovery to indexed
// vectors: discover, merge, prioritize, extract text, chunk, embed, and
// upsert, all under a wall-clock budget with itemized accounting of what
// was skipped or failed and why.
// Implements: prd010-ingestion (R3-R6); docs/ARCHITECTURE § Ingestion.
package ingest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/literature-assistant/internal/budget"
	"github.com/pdiddy/literature-assistant/internal/chunk"
	"github.com/pdiddy/literature-assistant/internal/discover"
	"github.com/pdiddy/literature-assistant/internal/embed"
	"github.com/pdiddy/literature-assistant/internal/extract"
	"github.com/pdiddy/literature-assistant/internal/paper"
	"github.com/pdiddy/literature-assistant/internal/pdftext"
	"github.com/pdiddy/literature-assistant/internal/textutil"
	"github.com/pdiddy/literature-assistant/internal/vector"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

const (
	// upsertBatchSize caps vectors per store write.
	upsertBatchSize = 100

	// pdfMargin is the time reserved before attempting a PDF download.
	pdfMargin = 4 * time.Second

	// embedMargin is the time reserved before embedding and upserting.
	embedMargin = 3 * time.Second

	// maxAuthorsInMetadata caps the author list joined into chunk metadata.
	maxAuthorsInMetadata = 10

	// maxPDFCandidates is the largest batch for which wholesale PDF
	// extraction stays enabled in papers mode.
	maxPDFCandidates = 6
)

// Orchestrator wires the ingestion stages together. All dependencies are
// interfaces or substitutable components so tests can run the full flow
// without the network.
type Orchestrator struct {
	Backends []discover.Backend
	Embedder embed.Embedder
	Store    vector.Store
	PDF      *pdftext.Extractor
	Config   types.PipelineConfig

	// Clock overrides the budget clock. Nil means time.Now; tests
	// substitute a fake clock to drive budget exhaustion.
	Clock func() time.Time
}

func (o *Orchestrator) newBudget(seconds int) *budget.Budget {
	if o.Clock != nil {
		return budget.NewWithClock(seconds, o.Clock)
	}
	return budget.New(seconds)
}

// Run executes an ingestion request end to end and reports everything that
// happened. Partial progress is normal under tight budgets; the report
// accounts for every candidate as ingested, skipped, or failed.
func (o *Orchestrator) Run(ctx context.Context, s types.IngestSettings, w io.Writer) (types.IngestReport, error) {
	report := types.IngestReport{
		Namespace:              s.Namespace,
		RequestedPDFExtraction: s.ExtractPDFText,
		EmbeddingModel:         o.Embedder.Model(),
		VectorProvider:         o.Store.Name(),
	}
	report.TimeBudgetSeconds = s.TimeBudgetSeconds

	queryDriven := s.QueryMode

	// Discovery gets roughly half the budget, floored and capped so a
	// small budget still discovers something and a large one does not
	// starve ingestion.
	discoveryBudget := s.TimeBudgetSeconds / 2
	if discoveryBudget < 5 {
		discoveryBudget = 5
	}
	if discoveryBudget > 14 {
		discoveryBudget = 14
	}
	report.DiscoveryBudgetSeconds = discoveryBudget

	var discovered []types.Paper
	if queryDriven {
		out := discover.Discover(ctx, s.Query, s.Limit, o.Backends, o.Config.Discovery, o.newBudget(discoveryBudget), w)
		discovered = out.Papers
		report.DiscoveryBudgetHit = out.BudgetHit
		report.SourceErrors = out.SourceErrors
	}
	report.DiscoveredCount = len(discovered)

	candidates := paper.Merge(append(append([]types.Paper{}, s.Papers...), discovered...))
	if queryDriven {
		sort.SliceStable(candidates, func(i, j int) bool {
			return paper.PriorityLess(paper.Priority(candidates[j]), paper.Priority(candidates[i]))
		})
	}
	report.CandidateCount = len(candidates)

	if len(candidates) == 0 {
		report.Message = "No papers to ingest. Provide papers or a query."
		return report, nil
	}

	selectedCount := len(candidates)
	if selectedCount > s.MaxCandidates {
		selectedCount = s.MaxCandidates
	}
	if queryDriven && selectedCount > s.Limit {
		selectedCount = s.Limit
	}
	selected := candidates[:selectedCount]
	deferred := candidates[selectedCount:]
	report.SelectedCandidateCount = len(selected)
	report.TruncatedCandidates = len(deferred)

	o.planPDFExtraction(queryDriven, s, selected, &report)

	ingestSeconds := s.TimeBudgetSeconds - discoveryBudget
	if ingestSeconds < 6 {
		ingestSeconds = 6
	}
	o.ingestSelected(ctx, selected, s, o.newBudget(ingestSeconds), &report, w)

	// Candidates over the cap are reported as skipped so callers can
	// retry them in smaller batches.
	capSkips := make([]types.SkippedPaper, 0, len(deferred))
	for _, p := range deferred {
		capSkips = append(capSkips, types.SkippedPaper{
			PaperID: p.PaperID,
			Title:   p.Title,
			Reason: fmt.Sprintf("Deferred due to ingest candidate cap (%d/%d). Retry in smaller batches.",
				selectedCount, len(candidates)),
		})
	}
	report.SkippedPapers = append(capSkips, report.SkippedPapers...)

	fmt.Fprintf(w, "ingested %d papers (%d chunks), skipped %d, failed %d\n",
		report.IngestedPapers, report.IngestedChunks, len(report.SkippedPapers), len(report.FailedPapers))
	return report, nil
}

// planPDFExtraction decides which selected papers may fetch their PDF. In
// query mode only the top few PDF-bearing candidates qualify; in papers
// mode a large batch disables extraction wholesale.
func (o *Orchestrator) planPDFExtraction(queryDriven bool, s types.IngestSettings, selected []types.Paper, report *types.IngestReport) {
	report.EffectivePDFExtraction = s.ExtractPDFText

	if queryDriven && s.ExtractPDFText {
		report.QueryPDFPaperLimit = s.QueryPDFPaperLimit
		for i := range selected {
			selected[i].AllowPDFExtract = false
		}
		chosen := 0
		for i := range selected {
			if chosen >= s.QueryPDFPaperLimit {
				break
			}
			if selected[i].PDFURL != "" {
				selected[i].AllowPDFExtract = true
				chosen++
			}
		}
		report.QueryPDFExtractionSelected = chosen
		report.EffectivePDFExtraction = chosen > 0
		if chosen == 0 {
			report.PDFExtractionDisabledReason = "PDF extraction requested, but no eligible PDF URLs were selected in this query batch."
		} else if chosen < len(selected) {
			report.PDFExtractionDisabledReason = fmt.Sprintf(
				"PDF extraction limited to top %d query candidates to keep the run inside its time budget.", chosen)
		}
		return
	}

	if !s.ExtractPDFText {
		return
	}
	if len(selected) > maxPDFCandidates {
		report.EffectivePDFExtraction = false
		report.PDFExtractionDisabledReason = "PDF extraction was disabled because candidate volume is too high for synchronous ingestion."
		return
	}
	for i := range selected {
		selected[i].AllowPDFExtract = true
	}
}

// ingestSelected processes each selected paper under the budget: assemble
// text, chunk, embed, and upsert. Failures are isolated per paper.
func (o *Orchestrator) ingestSelected(ctx context.Context, selected []types.Paper, s types.IngestSettings, b *budget.Budget, report *types.IngestReport, w io.Writer) {
	for _, p := range selected {
		if b.Exceeded() {
			report.TimedOut = true
			report.SkippedPapers = append(report.SkippedPapers, types.SkippedPaper{
				PaperID: p.PaperID,
				Title:   p.Title,
				Reason:  "Deferred due to ingest time budget. Retry with a lower limit or without PDF extraction.",
			})
			continue
		}

		chunks, mergedText, skip := o.preparePaper(ctx, p, s, b, report, w)
		if skip != nil {
			report.SkippedPapers = append(report.SkippedPapers, *skip)
			continue
		}

		if b.ExceededWithin(embedMargin) {
			report.TimedOut = true
			report.SkippedPapers = append(report.SkippedPapers, types.SkippedPaper{
				PaperID: p.PaperID,
				Title:   p.Title,
				Reason:  "Deferred due to remaining ingest time budget before embedding.",
			})
			continue
		}

		if err := o.indexPaper(ctx, p, chunks, mergedText, s.Namespace); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", p.PaperID, err)
			report.FailedPapers = append(report.FailedPapers, types.FailedPaper{
				PaperID: p.PaperID,
				Title:   p.Title,
				Error:   err.Error(),
			})
			continue
		}

		fmt.Fprintf(w, "ingested %s (%d chunks)\n", p.PaperID, len(chunks))
		report.IngestedPapers++
		report.IngestedChunks += len(chunks)
	}
}

// preparePaper assembles a paper's text and chunks it. A nil SkippedPaper
// means the paper is ready for indexing.
func (o *Orchestrator) preparePaper(ctx context.Context, p types.Paper, s types.IngestSettings, b *budget.Budget, report *types.IngestReport, w io.Writer) ([]types.Chunk, string, *types.SkippedPaper) {
	var parts []string
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	if p.FullText != "" {
		parts = append(parts, p.FullText)
	}
	if p.Abstract != "" {
		parts = append(parts, p.Abstract)
	}

	if report.EffectivePDFExtraction && p.AllowPDFExtract && p.PDFURL != "" {
		if b.ExceededWithin(pdfMargin) {
			report.SkippedPapers = append(report.SkippedPapers, types.SkippedPaper{
				PaperID: p.PaperID,
				Title:   p.Title,
				Reason:  "Skipped PDF extraction due to remaining time budget.",
			})
		} else {
			pdfText, err := o.PDF.Extract(ctx, p.PDFURL)
			if err != nil {
				fmt.Fprintf(w, "pdf extraction failed %s: %v\n", p.PaperID, err)
			} else if pdfText != "" {
				parts = append(parts, pdfText)
			}
		}
	}

	mergedText := textutil.Clean(strings.Join(parts, "\n\n"))
	if mergedText == "" {
		mergedText = paper.MetadataFallback(p)
		if mergedText == "" {
			return nil, "", &types.SkippedPaper{
				PaperID: p.PaperID,
				Title:   p.Title,
				Reason:  "No abstract, full text, or PDF text available.",
			}
		}
	}

	chunks := chunk.WithSections(mergedText, s.ChunkSizeWords, s.ChunkOverlapWords, s.MinChunkWords)
	if len(chunks) == 0 {
		return nil, "", &types.SkippedPaper{
			PaperID: p.PaperID,
			Title:   p.Title,
			Reason:  "Text too short after chunking.",
		}
	}
	if limit := o.Config.Ingest.MaxChunksPerPaper; limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, mergedText, nil
}

// indexPaper embeds the chunks and writes them to the vector store.
func (o *Orchestrator) indexPaper(ctx context.Context, p types.Paper, chunks []types.Chunk, mergedText, namespace string) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := o.Embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	fields := extract.Fields(mergedText)

	authors := p.Authors
	if len(authors) > maxAuthorsInMetadata {
		authors = authors[:maxAuthorsInMetadata]
	}

	records := make([]types.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = types.VectorRecord{
			ID:     fmt.Sprintf("%s::chunk::%d", p.PaperID, i),
			Values: vectors[i],
			Metadata: types.ChunkMetadata{
				PaperID:          p.PaperID,
				Title:            p.Title,
				Authors:          strings.Join(authors, ", "),
				Year:             p.Year,
				CitationCount:    p.CitationCount,
				Venue:            p.Venue,
				DOI:              p.DOI,
				URL:              p.URL,
				PDFURL:           p.PDFURL,
				Source:           p.Source,
				ChunkIndex:       i,
				Section:          c.Section,
				SectionIndex:     c.SectionIndex,
				ChunkText:        textutil.Truncate(c.Text, types.MaxChunkTextChars),
				StructuredFields: fields,
			},
		}
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := o.Store.Upsert(ctx, namespace, records[start:end]); err != nil {
			return fmt.Errorf("upserting vectors: %w", err)
		}
	}
	return nil
}
