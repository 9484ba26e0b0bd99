package model

import (
	"time"

	"github.com/google/uuid"
)

// Chunk represents a contiguous slice of a document's clean text, the unit
// of retrieval. Chunks are created once by the segmenter and never mutated
// afterwards except for the append-only Extracted enrichment and the
// provenance fields stamped by the pipeline.
type Chunk struct {
	ID          int       `json:"id"`
	DocumentID  int64     `json:"document_id"`
	DocumentRID uuid.UUID `json:"document_rid"`
	// ChunkID is unique within a document: {doc_stem}_chunk_{sequence}.
	ChunkID     string    `json:"chunk_id"`
	Content     string    `json:"content"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	Length      int       `json:"length"`
	// Provenance, stamped from the source document.
	SourceFile string `json:"source_file,omitempty"`
	SourcePath string `json:"source_path,omitempty"`
	DocTitle   string `json:"doc_title,omitempty"`
	DocAuthor  string `json:"doc_author,omitempty"`
	// Enrichment, attached after extraction.
	Extracted *ExtractedMetadata `json:"extracted,omitempty"`
	Embedding []float32          `json:"embedding,omitempty"`
	Metadata  Metadata           `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	// Results, populated on retrieval only.
	Similarity float64 `json:"similarity,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
}
