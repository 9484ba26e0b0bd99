package model

// SearchResult represents one ranked hit returned by a search capability.
// SimilarityScore is a same-direction ranking signal in [0,1], higher means
// more relevant.
type SearchResult struct {
	ChunkID         string   `json:"chunk_id"`
	Content         string   `json:"content"`
	Metadata        Metadata `json:"metadata,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`
	Distance        float64  `json:"distance,omitempty"`
}
