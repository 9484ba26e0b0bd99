package benchmark

import (
	"math"

	"github.com/siherrmann/preserver/model"
)

// relevantSet collapses the judged ids into a set, duplicates count once.
func relevantSet(relevantIDs []string) map[string]bool {
	set := make(map[string]bool, len(relevantIDs))
	for _, id := range relevantIDs {
		set[id] = true
	}
	return set
}

// PrecisionAtK is the share of the first k ranks holding a relevant chunk.
// The divisor is the requested k, not the retrieved length, so a list
// shorter than k is scored as if the vacant ranks held irrelevant chunks.
func PrecisionAtK(retrieved []*model.SearchResult, relevantIDs []string, k int) float64 {
	if k <= 0 {
		return 0
	}

	relevant := relevantSet(relevantIDs)
	hits := 0
	for i, result := range retrieved {
		if i >= k {
			break
		}
		if relevant[result.ChunkID] {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// RecallAtK is the share of the relevant set found within the first k
// ranks. A query with no relevant ids scores 0.
func RecallAtK(retrieved []*model.SearchResult, relevantIDs []string, k int) float64 {
	relevant := relevantSet(relevantIDs)
	if k <= 0 || len(relevant) == 0 {
		return 0
	}

	hits := 0
	for i, result := range retrieved {
		if i >= k {
			break
		}
		if relevant[result.ChunkID] {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

// MRR is the reciprocal rank of the first relevant chunk anywhere in the
// retrieved list, 0 when none is relevant.
func MRR(retrieved []*model.SearchResult, relevantIDs []string) float64 {
	relevant := relevantSet(relevantIDs)
	for i, result := range retrieved {
		if relevant[result.ChunkID] {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// NDCGAtK is the discounted cumulative gain of the first k ranks with
// binary gains, normalized by the ideal ordering. The ideal packs
// min(len(relevant set), k) relevant chunks into the top ranks. Scores 0
// when the ideal gain is 0.
func NDCGAtK(retrieved []*model.SearchResult, relevantIDs []string, k int) float64 {
	if k <= 0 {
		return 0
	}

	relevant := relevantSet(relevantIDs)
	dcg := 0.0
	for i, result := range retrieved {
		if i >= k {
			break
		}
		if relevant[result.ChunkID] {
			dcg += 1 / math.Log2(float64(i)+2)
		}
	}

	ideal := len(relevant)
	if ideal > k {
		ideal = k
	}
	idcg := 0.0
	for i := 0; i < ideal; i++ {
		idcg += 1 / math.Log2(float64(i)+2)
	}

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}
