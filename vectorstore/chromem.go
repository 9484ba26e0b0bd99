// Package vectorstore provides the search backends for preserved-food
// literature chunks: an embedded chromem-go store and a pgvector-backed
// adapter over the database handlers. Both present the same Searcher
// capability to the retrieval engine.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"github.com/siherrmann/preserver/core/pipeline"
	"github.com/siherrmann/preserver/core/retrieval"
	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
)

// Chroma metadata values must stay small, long mention lists are cut.
const maxMentionsInMetadata = 3

// addBatchSize is the number of documents added to the collection per call.
const addBatchSize = 100

// ChromemConfig holds configuration for the embedded chromem-go store.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty keeps the
	// store in memory.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the collection name.
	// Default: "preserv_rag"
	Collection string
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "preserv_rag"
	}
}

// ChromemStore is an embedded vector store over chromem-go. It needs no
// external database service and optionally persists to disk.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   pipeline.EmbedFunc
	config     ChromemConfig
	log        *slog.Logger
}

// NewChromemStore creates a new ChromemStore with the given configuration.
// The embedder is used for documents added without an embedding and for
// every query.
func NewChromemStore(config ChromemConfig, embedder pipeline.EmbedFunc, logger *slog.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, helper.NewError("create chromem store", fmt.Errorf("embedder must not be nil"))
	}
	if logger == nil {
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
		}))
	}

	config.ApplyDefaults()

	var db *chromem.DB
	var err error
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, helper.NewError("create persistent chromem db", err)
		}
	}

	store := &ChromemStore{
		db:       db,
		embedder: embedder,
		config:   config,
		log:      logger,
	}

	store.collection, err = db.GetOrCreateCollection(config.Collection, nil, store.embeddingFunc())
	if err != nil {
		return nil, helper.NewError("create collection", err)
	}

	logger.Info("Initialized ChromemStore",
		slog.String("collection", config.Collection),
		slog.String("path", config.Path),
	)

	return store, nil
}

// embeddingFunc adapts the pipeline embedder to the chromem signature.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder(text)
	}
}

// AddChunks adds chunks to the collection in batches. Chunks that already
// carry an embedding keep it, the rest are embedded on insert.
func (s *ChromemStore) AddChunks(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, chromem.Document{
			ID:        chunk.ChunkID,
			Content:   chunk.Content,
			Metadata:  flattenChunkMetadata(chunk),
			Embedding: chunk.Embedding,
		})
	}

	for start := 0; start < len(docs); start += addBatchSize {
		end := start + addBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		err := s.collection.AddDocuments(ctx, docs[start:end], 1)
		if err != nil {
			return helper.NewError("add documents", err)
		}
	}

	s.log.Info("Added chunks to collection",
		slog.Int("num_chunks", len(chunks)),
		slog.String("collection", s.config.Collection),
	)

	return nil
}

// Search returns the nResults most similar chunks for the query, best
// first. nResults is capped at the collection size, an empty collection
// yields an empty result list.
func (s *ChromemStore) Search(ctx context.Context, query string, nResults int) ([]*model.SearchResult, error) {
	if nResults <= 0 {
		return nil, helper.NewError("search", fmt.Errorf("nResults must be positive"))
	}

	count := s.collection.Count()
	if count == 0 {
		return []*model.SearchResult{}, nil
	}
	if nResults > count {
		nResults = count
	}

	results, err := s.collection.Query(ctx, query, nResults, nil, nil)
	if err != nil {
		return nil, helper.NewError("query collection", err)
	}

	searchResults := make([]*model.SearchResult, 0, len(results))
	for _, result := range results {
		metadata := make(model.Metadata, len(result.Metadata))
		for key, value := range result.Metadata {
			metadata[key] = value
		}

		searchResults = append(searchResults, &model.SearchResult{
			ChunkID:         result.ID,
			Content:         result.Content,
			Metadata:        metadata,
			SimilarityScore: float64(result.Similarity),
			Distance:        1 - float64(result.Similarity),
		})
	}

	return searchResults, nil
}

// Count returns the number of stored chunks.
func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Reset drops and recreates the collection, removing all stored chunks.
func (s *ChromemStore) Reset() error {
	err := s.db.DeleteCollection(s.config.Collection)
	if err != nil {
		return helper.NewError("delete collection", err)
	}

	s.collection, err = s.db.GetOrCreateCollection(s.config.Collection, nil, s.embeddingFunc())
	if err != nil {
		return helper.NewError("recreate collection", err)
	}

	s.log.Info("Reset collection", slog.String("collection", s.config.Collection))

	return nil
}

// flattenChunkMetadata builds the string metadata stored next to every
// chunk. Values mirror what the pgvector adapter exposes so retrieval
// filters behave the same on both backends.
func flattenChunkMetadata(chunk *model.Chunk) map[string]string {
	metadata := make(map[string]string, len(chunk.Metadata)+4)
	for key, value := range chunk.Metadata {
		if s, ok := value.(string); ok {
			metadata[key] = s
		} else {
			metadata[key] = fmt.Sprintf("%v", value)
		}
	}

	metadata["source_file"] = chunk.SourceFile
	metadata["doc_title"] = chunk.DocTitle
	metadata["chunk_length"] = strconv.Itoa(chunk.Length)

	if chunk.Extracted != nil {
		if chunk.Extracted.Acidity != nil {
			metadata["has_ph"] = "true"
		}
		if chunk.Extracted.WaterActivity != nil {
			metadata["has_aw"] = "true"
		}
		if len(chunk.Extracted.Microorganisms) > 0 {
			metadata["microorganisms"] = strings.Join(capMentions(chunk.Extracted.Microorganisms), ",")
		}
		if len(chunk.Extracted.Conservants) > 0 {
			metadata["conservants"] = strings.Join(capMentions(chunk.Extracted.Conservants), ",")
		}
	}

	return metadata
}

func capMentions(mentions []string) []string {
	if len(mentions) <= maxMentionsInMetadata {
		return mentions
	}
	return mentions[:maxMentionsInMetadata]
}

var _ retrieval.Searcher = (*ChromemStore)(nil)
