package preserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/preserver/core/benchmark"
	"github.com/siherrmann/preserver/core/pipeline"
	"github.com/siherrmann/preserver/core/retrieval"
	"github.com/siherrmann/preserver/database"
	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
	loadSql "github.com/siherrmann/preserver/sql"
	"github.com/siherrmann/preserver/vectorstore"
)

// Preserver provides a unified interface to document ingestion, vector
// search and retrieval evaluation
type Preserver struct {
	DB        *helper.Database
	Chunks    *database.ChunksDBHandler
	Documents *database.DocumentsDBHandler
	Pipeline  *pipeline.Pipeline // Optional processing pipeline
	Engine    *retrieval.Engine  // Retrieval engine over the vector store
	// searcher is the vector store backing the engine and the benchmark
	// sessions, wired once a pipeline with an embedder is set.
	searcher retrieval.Searcher
	// Logging
	log *slog.Logger
}

// NewPreserver creates a new Preserver instance with all handlers initialized
func NewPreserver(config *helper.DatabaseConfiguration, embeddingDim int) (*Preserver, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("preserver", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents first, then chunks)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	return &Preserver{
		DB:        db,
		Chunks:    chunks,
		Documents: documents,
		log:       logger,
	}, nil
}

// Close closes the database connection
func (p *Preserver) Close() error {
	if p.DB != nil && p.DB.Instance != nil {
		return p.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the processing pipeline for document ingestion. A
// pipeline that carries an embedder also wires the retrieval engine over
// the pgvector store, without an embedder the engine stays unset.
func (p *Preserver) SetPipeline(pipe *pipeline.Pipeline) error {
	p.Pipeline = pipe
	if pipe == nil || pipe.Embedder == nil {
		return nil
	}

	store, err := vectorstore.NewPostgresStore(p.Chunks, pipe.Embedder, p.log)
	if err != nil {
		return helper.NewError("create vector store", err)
	}

	engine, err := retrieval.NewEngine(store, p.log)
	if err != nil {
		return helper.NewError("create retrieval engine", err)
	}

	p.searcher = store
	p.Engine = engine
	return nil
}

// UseDefaultPipeline sets up the default processing pipeline: text
// normalization, boundary segmentation with 500 character chunks and 50
// characters of overlap, domain fact extraction and the all-MiniLM-L6-v2
// embedder (384 dimensions)
func (p *Preserver) UseDefaultPipeline() error {
	segmenter, err := pipeline.NewBoundarySegmenter(model.DefaultSegmentConfig())
	if err != nil {
		return helper.NewError("create default segmenter", err)
	}

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	pipe, err := pipeline.NewPipeline(segmenter, pipeline.NewFactExtractor())
	if err != nil {
		return helper.NewError("create pipeline", err)
	}
	pipe.SetNormalizer(pipeline.NewTextNormalizer())
	pipe.SetEmbedder(embedder)

	return p.SetPipeline(pipe)
}

// ProcessAndInsertDocument processes a document by:
// 1. Inserting the document metadata (without content)
// 2. Processing the content into enriched chunks using the pipeline
// 3. Inserting all chunks with the document ID
// The document's Content field is used for processing but not stored in the
// database. Returns the number of chunks inserted and any error encountered.
func (p *Preserver) ProcessAndInsertDocument(doc *model.Document) (int, error) {
	if p.Pipeline == nil {
		return 0, helper.NewError("process document", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	if doc.Content == "" {
		return 0, helper.NewError("process document", fmt.Errorf("document content is empty"))
	}

	// Insert document metadata
	if err := p.Documents.InsertDocument(doc); err != nil {
		return 0, helper.NewError("insert document", err)
	}

	p.log.Info("Inserted document", slog.String("document_id", doc.RID.String()), slog.String("title", doc.Title))

	// Process content into chunks stamped with the document's provenance
	chunks, err := p.Pipeline.ProcessDocument(doc)
	if err != nil {
		return 0, helper.NewError("process chunks", err)
	}

	// Content is only needed for processing, not kept on the document
	doc.Content = ""

	p.log.Info("Processed document into chunks", slog.Int("num_chunks", len(chunks)), slog.String("document_id", doc.RID.String()))

	// Insert all chunks
	for i, chunk := range chunks {
		chunk.DocumentID = doc.ID
		if err := p.Chunks.InsertChunk(chunk); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert chunk %d", i), err)
		}
	}

	return len(chunks), nil
}

// ProcessAndInsertDocuments processes a batch of documents. Documents with
// empty content are skipped, not an error. Returns the total number of
// chunks inserted across all documents.
func (p *Preserver) ProcessAndInsertDocuments(docs []*model.Document) (int, error) {
	if p.Pipeline == nil {
		return 0, helper.NewError("process documents", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	total := 0
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}

		inserted, err := p.ProcessAndInsertDocument(doc)
		total += inserted
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// Search performs vector similarity search. A nil config uses the defaults
// (top 5, no filtering). Filters apply one at a time: a source file filter
// takes precedence over a metadata filter, which takes precedence over a
// similarity threshold.
func (p *Preserver) Search(ctx context.Context, query string, config *model.QueryConfig) ([]*model.SearchResult, error) {
	if p.Engine == nil {
		return nil, helper.NewError("search", fmt.Errorf("retrieval engine not initialized, set a pipeline with an embedder first"))
	}

	cfg := model.DefaultQueryConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.TopK <= 0 {
		cfg.TopK = model.DefaultQueryConfig().TopK
	}

	if cfg.SourceFile != "" {
		return p.Engine.RetrieveBySource(ctx, query, cfg.TopK, cfg.SourceFile)
	}
	if len(cfg.MetadataFilter) > 0 {
		return p.Engine.RetrieveWithMetadata(ctx, query, cfg.TopK, cfg.MetadataFilter)
	}
	if cfg.SimilarityThreshold > 0 {
		return p.Engine.RetrieveWithThreshold(ctx, query, cfg.TopK, cfg.SimilarityThreshold)
	}
	return p.Engine.Retrieve(ctx, query, cfg.TopK)
}

// SearchBySource performs vector similarity search limited to chunks from
// one source file
func (p *Preserver) SearchBySource(ctx context.Context, query string, nResults int, sourceFile string) ([]*model.SearchResult, error) {
	if p.Engine == nil {
		return nil, helper.NewError("search by source", fmt.Errorf("retrieval engine not initialized, set a pipeline with an embedder first"))
	}

	return p.Engine.RetrieveBySource(ctx, query, nResults, sourceFile)
}

// SearchWithMetadata performs vector similarity search limited to chunks
// whose metadata matches every filter entry
func (p *Preserver) SearchWithMetadata(ctx context.Context, query string, nResults int, filter model.Metadata) ([]*model.SearchResult, error) {
	if p.Engine == nil {
		return nil, helper.NewError("search with metadata", fmt.Errorf("retrieval engine not initialized, set a pipeline with an embedder first"))
	}

	return p.Engine.RetrieveWithMetadata(ctx, query, nResults, filter)
}

// SearchConsolidated runs every query and merges the results, deduplicated
// by chunk id keeping the highest similarity seen
func (p *Preserver) SearchConsolidated(ctx context.Context, queries []string, nResults int) ([]*model.SearchResult, error) {
	if p.Engine == nil {
		return nil, helper.NewError("consolidated search", fmt.Errorf("retrieval engine not initialized, set a pipeline with an embedder first"))
	}

	return p.Engine.RetrieveConsolidated(ctx, queries, nResults)
}

// NewBenchmarkSession creates a retrieval evaluation session over the
// vector store. Every evaluated query retrieves 2*k results and is scored
// at the fixed 5 and 10 rank cutoffs.
func (p *Preserver) NewBenchmarkSession(k int) (*benchmark.Session, error) {
	if p.searcher == nil {
		return nil, helper.NewError("create benchmark session", fmt.Errorf("vector store not initialized, set a pipeline with an embedder first"))
	}

	return benchmark.NewSession(p.searcher, k, p.log)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (p *Preserver) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return p.Chunks.ChangeIndexType(ctx, indexType, params)
}
