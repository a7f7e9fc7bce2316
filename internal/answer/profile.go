// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/literature-assistant/internal/cite"
	"github.com/pdiddy/literature-assistant/pkg/types"
)

// recurringLimitations are phrases whose repetition across papers signals a
// corpus-level evidence gap.
var recurringLimitations = []string{
	"small sample",
	"single center",
	"generalizability",
	"demographic",
	"short follow-up",
	"observational",
}

// PaperProfiles collapses ranked matches to one profile per paper, keeping
// the best-scoring chunk's structured fields. Output is ordered by score
// descending.
func PaperProfiles(matches []types.Match, paperToCitation map[string]int) []types.PaperProfile {
	byPaper := make(map[string]types.PaperProfile)
	for _, m := range matches {
		score := m.RankScore()
		key := cite.PaperKey(m.Metadata)
		if existing, ok := byPaper[key]; ok && existing.Score >= score {
			continue
		}
		byPaper[key] = types.PaperProfile{
			CitationNumber: paperToCitation[key],
			PaperID:        m.Metadata.PaperID,
			Title:          m.Metadata.Title,
			Year:           m.Metadata.Year,
			Source:         m.Metadata.Source,
			Methodology:    m.Metadata.Methodology,
			DatasetSize:    m.Metadata.DatasetSize,
			ModelType:      m.Metadata.ModelType,
			KeyFindings:    m.Metadata.KeyFindings,
			Limitations:    m.Metadata.LimitationsText,
			FutureWork:     m.Metadata.FutureWork,
			Score:          score,
		}
	}

	profiles := make([]types.PaperProfile, 0, len(byPaper))
	for _, p := range byPaper {
		profiles = append(profiles, p)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].Score > profiles[j].Score
	})
	return profiles
}

// HeuristicGaps derives research gaps from limitation and future-work
// statements without a language model. A phrase must recur in at least two
// papers to count; at most six gaps are returned.
func HeuristicGaps(profiles []types.PaperProfile) []string {
	var limitations, futureWork []string
	for _, p := range profiles {
		if p.Limitations != "" {
			limitations = append(limitations, p.Limitations)
		}
		if p.FutureWork != "" {
			futureWork = append(futureWork, p.FutureWork)
		}
	}

	var gaps []string
	for _, token := range recurringLimitations {
		count := 0
		for _, sentence := range limitations {
			if strings.Contains(strings.ToLower(sentence), token) {
				count++
			}
		}
		if count >= 2 {
			gaps = append(gaps, fmt.Sprintf(
				"Multiple studies report %q as a recurring limitation, suggesting under-covered evidence in that dimension.", token))
		}
	}
	if len(futureWork) > 0 {
		gaps = append(gaps, "Future-work statements across papers indicate unresolved questions that need controlled validation.")
	}
	if len(gaps) == 0 && len(limitations) > 0 {
		gaps = append(gaps, "The corpus repeatedly flags methodological constraints; targeted replication studies are needed.")
	}
	if len(gaps) > 6 {
		gaps = gaps[:6]
	}
	return gaps
}

// heuristicInsights builds the insights payload without a language model:
// a year-ordered timeline, methodology frequency clusters, and heuristic
// gaps.
func heuristicInsights(profiles []types.PaperProfile) types.InsightsPayload {
	byYear := append([]types.PaperProfile(nil), profiles...)
	sort.SliceStable(byYear, func(i, j int) bool { return byYear[i].Year < byYear[j].Year })

	var timeline []string
	for _, p := range byYear {
		if p.Year == 0 {
			continue
		}
		entry := fmt.Sprintf("%d: %s", p.Year, p.Title)
		if p.CitationNumber > 0 {
			entry = fmt.Sprintf("%s [%d]", entry, p.CitationNumber)
		}
		timeline = append(timeline, entry)
	}
	if len(timeline) > 8 {
		timeline = timeline[:8]
	}

	counts := make(map[string]int)
	var order []string
	for _, p := range profiles {
		label := strings.ToLower(p.Methodology)
		if label == "" {
			continue
		}
		if counts[label] == 0 {
			order = append(order, label)
		}
		counts[label]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 4 {
		order = order[:4]
	}
	var clusters []string
	for _, label := range order {
		clusters = append(clusters, fmt.Sprintf("%s appears in %d high-ranked papers.", label, counts[label]))
	}

	var methods []string
	for _, p := range profiles {
		if p.Methodology != "" {
			methods = append(methods, p.Methodology)
		}
	}
	if len(methods) > 6 {
		methods = methods[:6]
	}

	return types.InsightsPayload{
		AgreementClusters:         clusters,
		Contradictions:            []string{},
		MethodologicalDifferences: methods,
		TimelineEvolution:         timeline,
		ResearchGaps:              HeuristicGaps(profiles),
	}
}
