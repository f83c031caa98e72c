package worker

import (
	"math"
	"slices"

	"github.com/poiesic/retrievit/core"
)

const (
	// maxConfidence caps the confidence score; no answer set is ever
	// reported with full certainty.
	maxConfidence = 0.95

	// NoResultsConfidence is the fixed confidence assigned when retrieval
	// succeeded but produced no results.
	NoResultsConfidence = 0.2

	// NoResultsMessage is the explicit marker carried by an empty result.
	NoResultsMessage = "no information found"
)

// fuseResults deduplicates results by ID (keeping the higher-scored entry
// when a web/vector pair resolves to the same document), sorts descending
// by relevance score, and truncates to max.
func fuseResults(results []core.SearchResult, max int) []core.SearchResult {
	best := make(map[core.ID]core.SearchResult, len(results))
	order := make([]core.ID, 0, len(results))
	for _, r := range results {
		existing, seen := best[r.Id]
		if !seen {
			best[r.Id] = r
			order = append(order, r.Id)
			continue
		}
		if r.RelevanceScore > existing.RelevanceScore {
			best[r.Id] = r
		}
	}

	fused := make([]core.SearchResult, 0, len(order))
	for _, id := range order {
		fused = append(fused, best[id])
	}

	slices.SortStableFunc(fused, func(a, b core.SearchResult) int {
		if a.RelevanceScore > b.RelevanceScore {
			return -1
		}
		if a.RelevanceScore < b.RelevanceScore {
			return 1
		}
		return 0
	})

	if max > 0 && len(fused) > max {
		fused = fused[:max]
	}
	return fused
}

// ConfidenceScore derives a scalar summary of answer quality from the fused
// result set:
//
//	confidence = 0.5 + min(0.3, resultCount*0.05) + avgRelevance*0.2
//
// clamped to [0, 0.95]. An empty result set scores NoResultsConfidence.
func ConfidenceScore(results []core.SearchResult) float64 {
	if len(results) == 0 {
		return NoResultsConfidence
	}

	var sum float64
	for _, r := range results {
		sum += r.RelevanceScore
	}
	avg := sum / float64(len(results))

	confidence := 0.5 + math.Min(0.3, float64(len(results))*0.05) + avg*0.2
	return clamp(confidence, 0, maxConfidence)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
