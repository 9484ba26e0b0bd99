package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
)

// Searcher is the narrow search capability the engine and the evaluator
// build on: embed a query and return the nResults nearest chunks, best
// first.
type Searcher interface {
	Search(ctx context.Context, query string, nResults int) ([]*model.SearchResult, error)
}

// Engine layers filtered and consolidated retrieval on top of a Searcher.
// Post-filters overfetch from the searcher and cut the result list back to
// the requested size, so filtered queries do not come back near empty.
type Engine struct {
	searcher Searcher
	log      *slog.Logger
}

// NewEngine creates a retrieval engine on top of the given searcher
func NewEngine(searcher Searcher, logger *slog.Logger) (*Engine, error) {
	if searcher == nil {
		return nil, helper.NewError("create retrieval engine", fmt.Errorf("searcher must not be nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		searcher: searcher,
		log:      logger,
	}, nil
}

// Retrieve returns the nResults most similar chunks for the query
func (e *Engine) Retrieve(ctx context.Context, query string, nResults int) ([]*model.SearchResult, error) {
	results, err := e.searcher.Search(ctx, query, nResults)
	if err != nil {
		return nil, err
	}

	e.log.Debug("Retrieved chunks", "query", query, "count", len(results))
	return results, nil
}

// RetrieveWithThreshold returns the most similar chunks whose similarity
// score reaches the threshold
func (e *Engine) RetrieveWithThreshold(ctx context.Context, query string, nResults int, threshold float64) ([]*model.SearchResult, error) {
	results, err := e.searcher.Search(ctx, query, nResults)
	if err != nil {
		return nil, err
	}

	filtered := []*model.SearchResult{}
	for _, result := range results {
		if result.SimilarityScore >= threshold {
			filtered = append(filtered, result)
		}
	}

	e.log.Debug("Retrieved chunks above threshold", "query", query, "threshold", threshold, "count", len(filtered))
	return filtered, nil
}

// RetrieveBySource returns the most similar chunks from one source file.
// It overfetches twice the requested size before filtering.
func (e *Engine) RetrieveBySource(ctx context.Context, query string, nResults int, sourceFile string) ([]*model.SearchResult, error) {
	results, err := e.searcher.Search(ctx, query, nResults*2)
	if err != nil {
		return nil, err
	}

	filtered := []*model.SearchResult{}
	for _, result := range results {
		if result.Metadata != nil && result.Metadata["source_file"] == sourceFile {
			filtered = append(filtered, result)
			if len(filtered) == nResults {
				break
			}
		}
	}

	e.log.Debug("Retrieved chunks by source", "query", query, "source", sourceFile, "count", len(filtered))
	return filtered, nil
}

// RetrieveWithMetadata returns the most similar chunks whose metadata
// matches every entry of the filter. It overfetches three times the
// requested size before filtering.
func (e *Engine) RetrieveWithMetadata(ctx context.Context, query string, nResults int, filter model.Metadata) ([]*model.SearchResult, error) {
	results, err := e.searcher.Search(ctx, query, nResults*3)
	if err != nil {
		return nil, err
	}

	filtered := []*model.SearchResult{}
	for _, result := range results {
		if matchesMetadata(result.Metadata, filter) {
			filtered = append(filtered, result)
			if len(filtered) == nResults {
				break
			}
		}
	}

	e.log.Debug("Retrieved chunks with metadata filter", "query", query, "filter", filter, "count", len(filtered))
	return filtered, nil
}

// RetrieveConsolidated runs every query, merges the per-query results and
// deduplicates them by chunk id, keeping the highest similarity score seen
// for each chunk. The merged list is sorted by similarity, best first.
func (e *Engine) RetrieveConsolidated(ctx context.Context, queries []string, nResults int) ([]*model.SearchResult, error) {
	best := map[string]*model.SearchResult{}
	order := []string{}

	for _, query := range queries {
		results, err := e.searcher.Search(ctx, query, nResults)
		if err != nil {
			return nil, err
		}

		for _, result := range results {
			seen, ok := best[result.ChunkID]
			if !ok {
				best[result.ChunkID] = result
				order = append(order, result.ChunkID)
				continue
			}
			if result.SimilarityScore > seen.SimilarityScore {
				best[result.ChunkID] = result
			}
		}
	}

	consolidated := make([]*model.SearchResult, 0, len(order))
	for _, chunkID := range order {
		consolidated = append(consolidated, best[chunkID])
	}
	sort.SliceStable(consolidated, func(i, j int) bool {
		return consolidated[i].SimilarityScore > consolidated[j].SimilarityScore
	})

	e.log.Debug("Consolidated retrieval", "queries", len(queries), "count", len(consolidated))
	return consolidated, nil
}

// matchesMetadata reports whether the metadata holds every filter entry
// with an equal value.
func matchesMetadata(metadata model.Metadata, filter model.Metadata) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
