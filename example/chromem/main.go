package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/preserver/core/pipeline"
	"github.com/siherrmann/preserver/core/retrieval"
	"github.com/siherrmann/preserver/model"
	"github.com/siherrmann/preserver/vectorstore"
)

// This example runs fully embedded: chunks live in a chromem-go collection
// on disk, no PostgreSQL instance is needed.
var corpus = []*model.Document{
	{
		Title:   "Sorbato de potasio",
		Source:  "sorbato.txt",
		Content: "El sorbato de potasio inhibe levaduras y mohos en conservas de frutas. La dosis habitual va de 500 a 1000 ppm y su eficacia mejora a pH menor de 5.5.",
	},
	{
		Title:   "Benzoato de sodio",
		Source:  "benzoato.txt",
		Content: "El benzoato de sodio se usa en bebidas ácidas contra levaduras como Zygosaccharomyces bailii. Requiere un pH por debajo de 4.5 para ser efectivo.",
	},
	{
		Title:   "Actividad de agua",
		Source:  "actividad_agua.txt",
		Content: "Una actividad de agua aw menor a 0.85 impide el desarrollo de Clostridium botulinum. El salado y el azucarado reducen la actividad de agua del alimento.",
	},
}

func main() {
	segmenter, err := pipeline.NewBoundarySegmenter(model.DefaultSegmentConfig())
	if err != nil {
		log.Fatalf("Failed to create segmenter: %v", err)
	}

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	pipe, err := pipeline.NewPipeline(segmenter, pipeline.NewFactExtractor())
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}
	pipe.SetNormalizer(pipeline.NewTextNormalizer())
	pipe.SetEmbedder(embedder)

	fmt.Println("Processing corpus...")
	chunks, err := pipe.ProcessDocuments(corpus)
	if err != nil {
		log.Fatalf("Failed to process corpus: %v", err)
	}
	fmt.Printf("Processed %d chunks\n", len(chunks))

	extraction := pipeline.ExtractionStats(chunks)
	fmt.Printf("Chunks with pH facts: %d, with aw facts: %d, with conservants: %d\n",
		extraction.WithAcidity, extraction.WithWaterActivity, extraction.WithConservants)

	// Persist the collection next to the binary, re-runs reuse it
	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: "./chromem-data"}, embedder, nil)
	if err != nil {
		log.Fatalf("Failed to create chromem store: %v", err)
	}

	ctx := context.Background()
	if err := store.AddChunks(ctx, chunks); err != nil {
		log.Fatalf("Failed to add chunks: %v", err)
	}
	fmt.Printf("Collection now holds %d chunks\n", store.Count())

	engine, err := retrieval.NewEngine(store, nil)
	if err != nil {
		log.Fatalf("Failed to create retrieval engine: %v", err)
	}

	query := "¿Qué conservante sirve contra los mohos?"
	fmt.Printf("\nQuerying: %s\n", query)

	results, err := engine.Retrieve(ctx, query, 3)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	for i, result := range results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", result.SimilarityScore)
		fmt.Printf("Chunk: %s\n", result.ChunkID)
		fmt.Printf("Content: %s\n", result.Content)
	}

	// The same engine filters work on the embedded store
	fmt.Println("\nQuerying chunks with water activity facts...")
	awResults, err := engine.RetrieveWithMetadata(ctx, "crecimiento microbiano", 3, model.Metadata{"has_aw": "true"})
	if err != nil {
		log.Fatalf("Failed to retrieve with metadata: %v", err)
	}

	for i, result := range awResults {
		fmt.Printf("[%d] Score: %.4f | Chunk: %s\n", i+1, result.SimilarityScore, result.ChunkID)
	}

	fmt.Println("\nChromem example completed successfully!")
}
