package pipeline

import (
	"math"

	"github.com/siherrmann/preserver/model"
)

// ChunkStats summarizes a segmented corpus, counting chunks per source file
// and the chunk length distribution.
func ChunkStats(chunks []*model.Chunk) model.ChunkStats {
	stats := model.ChunkStats{
		TotalChunks:       len(chunks),
		ChunksPerDocument: map[string]int{},
	}
	if len(chunks) == 0 {
		return stats
	}

	totalLength := 0
	stats.MinChunkLength = chunks[0].Length
	stats.MaxChunkLength = chunks[0].Length
	for _, chunk := range chunks {
		stats.ChunksPerDocument[chunk.SourceFile]++
		totalLength += chunk.Length
		if chunk.Length < stats.MinChunkLength {
			stats.MinChunkLength = chunk.Length
		}
		if chunk.Length > stats.MaxChunkLength {
			stats.MaxChunkLength = chunk.Length
		}
	}

	stats.UniqueDocuments = len(stats.ChunksPerDocument)
	stats.AvgChunkLength = roundTwo(float64(totalLength) / float64(len(chunks)))
	return stats
}

// ExtractionStats counts how many chunks carry each extracted fact. The
// coverage percentage spans acidity, water activity, organism and conservant
// mentions across all chunks.
func ExtractionStats(chunks []*model.Chunk) model.ExtractionStats {
	stats := model.ExtractionStats{
		TotalChunks: len(chunks),
	}
	if len(chunks) == 0 {
		return stats
	}

	for _, chunk := range chunks {
		if chunk.Extracted == nil {
			continue
		}
		if chunk.Extracted.Acidity != nil {
			stats.WithAcidity++
		}
		if chunk.Extracted.WaterActivity != nil {
			stats.WithWaterActivity++
		}
		if chunk.Extracted.Concentration != nil {
			stats.WithConcentration++
		}
		if len(chunk.Extracted.Microorganisms) > 0 {
			stats.WithOrganisms++
		}
		if len(chunk.Extracted.Conservants) > 0 {
			stats.WithConservants++
		}
	}

	populated := stats.WithAcidity + stats.WithWaterActivity + stats.WithOrganisms + stats.WithConservants
	stats.CoveragePct = roundTwo(float64(populated) / float64(len(chunks)*4) * 100)
	return stats
}

func roundTwo(value float64) float64 {
	return math.Round(value*100) / 100
}
