package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/preserver/core/pipeline"
	"github.com/siherrmann/preserver/core/retrieval"
	"github.com/siherrmann/preserver/database"
	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
)

// PostgresStore adapts the pgvector-backed chunks handler to the Searcher
// capability. Queries are embedded with the pipeline embedder and resolved
// through the stored similarity functions.
type PostgresStore struct {
	chunks   database.ChunksDBHandlerFunctions
	embedder pipeline.EmbedFunc
	log      *slog.Logger
}

// NewPostgresStore creates a Searcher over the chunks database handler.
func NewPostgresStore(chunks database.ChunksDBHandlerFunctions, embedder pipeline.EmbedFunc, logger *slog.Logger) (*PostgresStore, error) {
	if chunks == nil {
		return nil, helper.NewError("create postgres store", fmt.Errorf("chunks handler must not be nil"))
	}
	if embedder == nil {
		return nil, helper.NewError("create postgres store", fmt.Errorf("embedder must not be nil"))
	}
	if logger == nil {
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
		}))
	}

	return &PostgresStore{
		chunks:   chunks,
		embedder: embedder,
		log:      logger,
	}, nil
}

// Search returns the nResults most similar chunks for the query, best first.
func (s *PostgresStore) Search(ctx context.Context, query string, nResults int) ([]*model.SearchResult, error) {
	if nResults <= 0 {
		return nil, helper.NewError("search", fmt.Errorf("nResults must be positive"))
	}

	embedding, err := s.embedder(query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	chunks, err := s.chunks.SelectChunksBySimilarity(embedding, nResults, 0)
	if err != nil {
		return nil, helper.NewError("select chunks by similarity", err)
	}

	results := make([]*model.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		flattened := flattenChunkMetadata(chunk)
		metadata := make(model.Metadata, len(flattened))
		for key, value := range flattened {
			metadata[key] = value
		}

		results = append(results, &model.SearchResult{
			ChunkID:         chunk.ChunkID,
			Content:         chunk.Content,
			Metadata:        metadata,
			SimilarityScore: chunk.Similarity,
			Distance:        chunk.Distance,
		})
	}

	s.log.Debug("Searched chunks by similarity",
		slog.String("query", query),
		slog.Int("num_results", len(results)),
	)

	return results, nil
}

var _ retrieval.Searcher = (*PostgresStore)(nil)
