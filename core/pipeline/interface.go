package pipeline

import (
	"fmt"

	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
)

// NormalizeFunc is a pure function that cleans raw text before segmentation
type NormalizeFunc func(text string) string

// SegmentFunc is a function that splits clean text into overlapping chunks.
// The idPrefix is combined with a running sequence number into chunk ids of
// the form {idPrefix}_chunk_{n}.
type SegmentFunc func(text string, idPrefix string) []*model.Chunk

// ExtractFunc recognizes structured domain facts (acidity, water activity,
// concentrations, organism and conservant mentions) in a chunk's text
type ExtractFunc func(text string) *model.ExtractedMetadata

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// Pipeline combines normalization, segmentation, fact extraction and
// embedding into one document processing chain. Segmenter and Extractor are
// required, Normalizer and Embedder are optional.
type Pipeline struct {
	Normalizer NormalizeFunc
	Segmenter  SegmentFunc
	Extractor  ExtractFunc
	Embedder   EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(segmenter SegmentFunc, extractor ExtractFunc) (*Pipeline, error) {
	if segmenter == nil {
		return nil, helper.NewError("create pipeline", fmt.Errorf("segmenter must not be nil"))
	}
	if extractor == nil {
		return nil, helper.NewError("create pipeline", fmt.Errorf("extractor must not be nil"))
	}
	return &Pipeline{
		Segmenter: segmenter,
		Extractor: extractor,
	}, nil
}

// SetNormalizer sets the text normalization function
func (p *Pipeline) SetNormalizer(normalizer NormalizeFunc) {
	p.Normalizer = normalizer
}

// SetEmbedder sets the embedding function
func (p *Pipeline) SetEmbedder(embedder EmbedFunc) {
	p.Embedder = embedder
}

// Process runs text through the pipeline, returning annotated chunks.
// The text is normalized when a normalizer is set, segmented, every chunk is
// enriched with extracted facts and embedded when an embedder is set.
func (p *Pipeline) Process(text string, idPrefix string) ([]*model.Chunk, error) {
	if p.Normalizer != nil {
		text = p.Normalizer(text)
	}

	chunks := p.Segmenter(text, idPrefix)

	for _, chunk := range chunks {
		chunk.Extracted = p.Extractor(chunk.Content)

		if p.Embedder != nil {
			embedding, err := p.Embedder(chunk.Content)
			if err != nil {
				return nil, helper.NewError(fmt.Sprintf("embed chunk %s", chunk.ChunkID), err)
			}
			chunk.Embedding = embedding
		}
	}

	return chunks, nil
}

// ProcessDocument processes a document's content and stamps every resulting
// chunk with the document's provenance. The chunk id prefix is the source
// filename with its extension stripped.
func (p *Pipeline) ProcessDocument(doc *model.Document) ([]*model.Chunk, error) {
	chunks, err := p.Process(doc.Content, doc.Stem())
	if err != nil {
		return nil, err
	}

	for _, chunk := range chunks {
		chunk.SourceFile = doc.Source
		chunk.SourcePath = doc.Path
		chunk.DocTitle = doc.Title
		chunk.DocAuthor = doc.Author
	}

	return chunks, nil
}

// ProcessDocuments processes a batch of documents. A document with empty
// content yields zero chunks and is silently skipped, not an error.
func (p *Pipeline) ProcessDocuments(docs []*model.Document) ([]*model.Chunk, error) {
	var allChunks []*model.Chunk

	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}

		chunks, err := p.ProcessDocument(doc)
		if err != nil {
			return nil, err
		}
		allChunks = append(allChunks, chunks...)
	}

	return allChunks, nil
}
