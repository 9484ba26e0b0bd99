package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
	loadSql "github.com/siherrmann/preserver/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunk(chunk *model.Chunk) error
	UpdateChunkEmbedding(chunk *model.Chunk) error
	DeleteChunk(id int) error
	SelectChunk(id int) (*model.Chunk, error)
	SelectChunkByChunkID(chunkID string) (*model.Chunk, error)
	SelectChunksByDocument(documentRID uuid.UUID) ([]*model.Chunk, error)
	SelectChunksBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.Chunk, error)
	SelectChunksBySimilarityBySource(embedding []float32, limit int, threshold float64, sourceFile string) ([]*model.Chunk, error)
	CountChunks() (int64, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// InsertChunk inserts a new chunk. The parent document must already exist,
// its rid is denormalized onto the chunk row.
func (h *ChunksDBHandler) InsertChunk(chunk *model.Chunk) error {
	var extractedParam interface{}
	if !chunk.Extracted.IsEmpty() {
		extractedParam = *chunk.Extracted
	}
	var embeddingParam interface{}
	if len(chunk.Embedding) > 0 {
		embeddingParam = pgvector.NewVector(chunk.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		chunk.DocumentID,
		chunk.ChunkID,
		chunk.Content,
		chunk.StartOffset,
		chunk.EndOffset,
		chunk.Length,
		chunk.SourceFile,
		chunk.SourcePath,
		chunk.DocTitle,
		chunk.DocAuthor,
		extractedParam,
		chunk.Metadata,
		embeddingParam,
	)

	var extracted model.ExtractedMetadata
	var embeddingRaw []byte
	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.DocumentRID,
		&chunk.ChunkID,
		&chunk.Content,
		&chunk.StartOffset,
		&chunk.EndOffset,
		&chunk.Length,
		&chunk.SourceFile,
		&chunk.SourcePath,
		&chunk.DocTitle,
		&chunk.DocAuthor,
		&extracted,
		&chunk.Metadata,
		&embeddingRaw,
		&chunk.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	if !extracted.IsEmpty() {
		chunk.Extracted = &extracted
	}
	if embeddingRaw != nil {
		embeddingVector := pgvector.Vector{}
		if err := embeddingVector.Scan(embeddingRaw); err != nil {
			return helper.NewError("parse embedding", err)
		}
		chunk.Embedding = embeddingVector.Slice()
	}

	return nil
}

// UpdateChunkEmbedding updates the embedding of a chunk
func (h *ChunksDBHandler) UpdateChunkEmbedding(chunk *model.Chunk) error {
	embeddingVector := pgvector.NewVector(chunk.Embedding)
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_chunk_embedding($1, $2)`,
		chunk.ID,
		embeddingVector,
	)

	var extracted model.ExtractedMetadata
	var embeddingRaw []byte
	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.DocumentRID,
		&chunk.ChunkID,
		&chunk.Content,
		&chunk.StartOffset,
		&chunk.EndOffset,
		&chunk.Length,
		&chunk.SourceFile,
		&chunk.SourcePath,
		&chunk.DocTitle,
		&chunk.DocAuthor,
		&extracted,
		&chunk.Metadata,
		&embeddingRaw,
		&chunk.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	if !extracted.IsEmpty() {
		chunk.Extracted = &extracted
	}
	if embeddingRaw != nil {
		returnedVector := pgvector.Vector{}
		if err := returnedVector.Scan(embeddingRaw); err != nil {
			return helper.NewError("parse embedding", err)
		}
		chunk.Embedding = returnedVector.Slice()
	}

	return nil
}

// DeleteChunk deletes a chunk by ID
func (h *ChunksDBHandler) DeleteChunk(id int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_chunk($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectChunk retrieves a chunk by ID
func (h *ChunksDBHandler) SelectChunk(id int) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
		id,
	)

	chunk := &model.Chunk{}
	var extracted model.ExtractedMetadata
	var embeddingRaw []byte
	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.DocumentRID,
		&chunk.ChunkID,
		&chunk.Content,
		&chunk.StartOffset,
		&chunk.EndOffset,
		&chunk.Length,
		&chunk.SourceFile,
		&chunk.SourcePath,
		&chunk.DocTitle,
		&chunk.DocAuthor,
		&extracted,
		&chunk.Metadata,
		&embeddingRaw,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	if !extracted.IsEmpty() {
		chunk.Extracted = &extracted
	}
	if embeddingRaw != nil {
		embeddingVector := pgvector.Vector{}
		if err := embeddingVector.Scan(embeddingRaw); err != nil {
			return nil, helper.NewError("parse embedding", err)
		}
		chunk.Embedding = embeddingVector.Slice()
	}

	return chunk, nil
}

// SelectChunkByChunkID retrieves a chunk by its textual chunk id
func (h *ChunksDBHandler) SelectChunkByChunkID(chunkID string) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk_by_chunk_id($1)`,
		chunkID,
	)

	chunk := &model.Chunk{}
	var extracted model.ExtractedMetadata
	var embeddingRaw []byte
	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.DocumentRID,
		&chunk.ChunkID,
		&chunk.Content,
		&chunk.StartOffset,
		&chunk.EndOffset,
		&chunk.Length,
		&chunk.SourceFile,
		&chunk.SourcePath,
		&chunk.DocTitle,
		&chunk.DocAuthor,
		&extracted,
		&chunk.Metadata,
		&embeddingRaw,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	if !extracted.IsEmpty() {
		chunk.Extracted = &extracted
	}
	if embeddingRaw != nil {
		embeddingVector := pgvector.Vector{}
		if err := embeddingVector.Scan(embeddingRaw); err != nil {
			return nil, helper.NewError("parse embedding", err)
		}
		chunk.Embedding = embeddingVector.Slice()
	}

	return chunk, nil
}

// SelectChunksByDocument retrieves all chunks for a document ordered by
// their position in the document
func (h *ChunksDBHandler) SelectChunksByDocument(documentRID uuid.UUID) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_document($1)`,
		documentRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}

		var extracted model.ExtractedMetadata
		var embeddingRaw []byte
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.DocumentRID,
			&chunk.ChunkID,
			&chunk.Content,
			&chunk.StartOffset,
			&chunk.EndOffset,
			&chunk.Length,
			&chunk.SourceFile,
			&chunk.SourcePath,
			&chunk.DocTitle,
			&chunk.DocAuthor,
			&extracted,
			&chunk.Metadata,
			&embeddingRaw,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		if !extracted.IsEmpty() {
			chunk.Extracted = &extracted
		}
		if embeddingRaw != nil {
			embeddingVector := pgvector.Vector{}
			if err := embeddingVector.Scan(embeddingRaw); err != nil {
				return nil, helper.NewError("parse embedding", err)
			}
			chunk.Embedding = embeddingVector.Slice()
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksBySimilarity performs vector similarity search over all
// chunks that have an embedding. Results come back best first with
// similarity and distance populated. A threshold of 0 keeps everything.
func (h *ChunksDBHandler) SelectChunksBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.Chunk, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3)`,
		embeddingVector,
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}

		var extracted model.ExtractedMetadata
		var embeddingRaw []byte
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.DocumentRID,
			&chunk.ChunkID,
			&chunk.Content,
			&chunk.StartOffset,
			&chunk.EndOffset,
			&chunk.Length,
			&chunk.SourceFile,
			&chunk.SourcePath,
			&chunk.DocTitle,
			&chunk.DocAuthor,
			&extracted,
			&chunk.Metadata,
			&embeddingRaw,
			&chunk.CreatedAt,
			&chunk.Similarity,
			&chunk.Distance,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		if !extracted.IsEmpty() {
			chunk.Extracted = &extracted
		}
		if embeddingRaw != nil {
			embeddingVector := pgvector.Vector{}
			if err := embeddingVector.Scan(embeddingRaw); err != nil {
				return nil, helper.NewError("parse embedding", err)
			}
			chunk.Embedding = embeddingVector.Slice()
		}

		results = append(results, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// SelectChunksBySimilarityBySource performs vector similarity search
// restricted to chunks from one source file
func (h *ChunksDBHandler) SelectChunksBySimilarityBySource(embedding []float32, limit int, threshold float64, sourceFile string) ([]*model.Chunk, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity_by_source($1, $2, $3, $4)`,
		embeddingVector,
		limit,
		threshold,
		sourceFile,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}

		var extracted model.ExtractedMetadata
		var embeddingRaw []byte
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.DocumentRID,
			&chunk.ChunkID,
			&chunk.Content,
			&chunk.StartOffset,
			&chunk.EndOffset,
			&chunk.Length,
			&chunk.SourceFile,
			&chunk.SourcePath,
			&chunk.DocTitle,
			&chunk.DocAuthor,
			&extracted,
			&chunk.Metadata,
			&embeddingRaw,
			&chunk.CreatedAt,
			&chunk.Similarity,
			&chunk.Distance,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		if !extracted.IsEmpty() {
			chunk.Extracted = &extracted
		}
		if embeddingRaw != nil {
			embeddingVector := pgvector.Vector{}
			if err := embeddingVector.Scan(embeddingRaw); err != nil {
				return nil, helper.NewError("parse embedding", err)
			}
			chunk.Embedding = embeddingVector.Slice()
		}

		results = append(results, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// CountChunks returns the number of stored chunks
func (h *ChunksDBHandler) CountChunks() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_chunks()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}
