package model

// ChunkStats summarizes a segmented corpus.
type ChunkStats struct {
	TotalChunks       int            `json:"total_chunks"`
	UniqueDocuments   int            `json:"unique_documents"`
	AvgChunkLength    float64        `json:"avg_chunk_length"`
	MinChunkLength    int            `json:"min_chunk_length"`
	MaxChunkLength    int            `json:"max_chunk_length"`
	ChunksPerDocument map[string]int `json:"chunks_per_document"`
}

// ExtractionStats summarizes how many chunks carry each extracted fact.
type ExtractionStats struct {
	TotalChunks       int `json:"total_chunks"`
	WithAcidity       int `json:"with_ph"`
	WithWaterActivity int `json:"with_aw"`
	WithConcentration int `json:"with_concentration"`
	WithOrganisms     int `json:"with_microorganisms"`
	WithConservants   int `json:"with_conservants"`
	// CoveragePct is the share of the four core fields (acidity, water
	// activity, organisms, conservants) populated across all chunks.
	CoveragePct float64 `json:"metadata_coverage_pct"`
}
