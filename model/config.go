package model

import (
	"errors"
	"fmt"
)

// ErrInvalidSegmentConfig marks segmentation parameters that would make the
// cursor loop stall or emit nothing sensible.
var ErrInvalidSegmentConfig = errors.New("invalid segment configuration")

// SegmentConfig holds the segmentation parameters.
type SegmentConfig struct {
	// ChunkSize is the tentative maximum chunk width in characters.
	ChunkSize int `json:"chunk_size"`
	// Overlap is the number of characters consecutive chunks share.
	Overlap int `json:"overlap"`
}

// DefaultSegmentConfig returns the corpus defaults (500 character chunks
// with 50 characters of overlap).
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		ChunkSize: 500,
		Overlap:   50,
	}
}

// Validate checks the progress precondition: the cursor only advances when
// chunk_size > overlap >= 0.
func (c SegmentConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidSegmentConfig, c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidSegmentConfig, c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidSegmentConfig, c.Overlap, c.ChunkSize)
	}
	return nil
}

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// Result filtering
	SourceFile     string   `json:"source_file,omitempty"`     // Keep only chunks from this source file
	MetadataFilter Metadata `json:"metadata_filter,omitempty"` // Keep only chunks whose metadata matches all entries
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                5,
		SimilarityThreshold: 0.0,
	}
}
