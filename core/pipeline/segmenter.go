package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
)

// NewBoundarySegmenter creates a segmenter that cuts text into chunks of at
// most config.ChunkSize bytes, preferring to cut after the last sentence end
// inside the window, then after the last line break, falling back to a hard
// cut. Consecutive chunks overlap by config.Overlap bytes. Offsets on the
// emitted chunks are byte offsets into the segmented text, ranges cover the
// whole text without gaps.
func NewBoundarySegmenter(config model.SegmentConfig) (SegmentFunc, error) {
	err := config.Validate()
	if err != nil {
		return nil, helper.NewError("create boundary segmenter", err)
	}

	return func(text string, idPrefix string) []*model.Chunk {
		chunks := []*model.Chunk{}

		start := 0
		count := 0
		for start < len(text) {
			end := start + config.ChunkSize
			if end > len(text) {
				end = len(text)
			}

			if end < len(text) {
				window := text[start:end]
				if p := strings.LastIndexByte(window, '.'); p > 0 {
					end = start + p + 1
				} else if p := strings.LastIndexByte(window, '\n'); p > 0 {
					end = start + p + 1
				}
			}

			content := strings.TrimSpace(text[start:end])
			if content != "" {
				chunks = append(chunks, &model.Chunk{
					ChunkID:     fmt.Sprintf("%s_chunk_%d", idPrefix, count),
					Content:     content,
					StartOffset: start,
					EndOffset:   end,
					Length:      len(content),
				})
				count++
			}

			if end >= len(text) {
				break
			}

			// The cursor must advance even when a boundary cut lands inside
			// the overlap, otherwise the loop stalls.
			next := end - config.Overlap
			if next <= start {
				next = end
			}
			start = next
		}

		return chunks
	}, nil
}
