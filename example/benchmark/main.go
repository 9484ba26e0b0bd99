package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/siherrmann/preserver"
	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
	"github.com/testcontainers/testcontainers-go"
)

// A small judged corpus: every document is short enough to become exactly
// one chunk, so the relevant chunk ids are known up front.
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
	{
		Title:   "Tratamiento térmico",
		Source:  "termico.txt",
		Content: "La pasteurización a 85 grados elimina células vegetativas, mientras que la esterilización destruye también las esporas bacterianas.",
	},
}

var judgments = []model.QueryJudgment{
	{
		Query:       "¿Qué dosis de sorbato de potasio se usa en conservas?",
		RelevantIDs: []string{"sorbato_chunk_0"},
	},
	{
		Query:       "¿Qué conservante funciona en bebidas ácidas?",
		RelevantIDs: []string{"benzoato_chunk_0"},
	},
	{
		Query:       "¿Qué actividad de agua impide el crecimiento de Clostridium botulinum?",
		RelevantIDs: []string{"actividad_agua_chunk_0"},
	},
	{
		Query:       "¿Cómo se eliminan las esporas bacterianas?",
		RelevantIDs: []string{"termico_chunk_0"},
	},
}

func main() {
	// Load .env when present, otherwise a disposable container is started
	_ = godotenv.Load()

	dbConfig, teardown, err := databaseConfiguration()
	if err != nil {
		log.Fatalf("Failed to create database configuration: %v", err)
	}
	if teardown != nil {
		defer teardown(context.Background())
	}

	p, err := preserver.NewPreserver(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create preserver: %v", err)
	}
	defer p.Close()

	if err := p.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	fmt.Println("Ingesting judged corpus...")
	total, err := p.ProcessAndInsertDocuments(corpus)
	if err != nil {
		log.Fatalf("Failed to ingest corpus: %v", err)
	}
	fmt.Printf("Inserted %d chunks from %d documents\n", total, len(corpus))

	ctx := context.Background()

	// 1. Plain vector search
	fmt.Println("\n1. VECTOR SEARCH")
	fmt.Println(strings.Repeat("-", 20))
	config := model.DefaultQueryConfig()
	config.TopK = 3
	results, err := p.Search(ctx, "¿Qué pH necesita el benzoato de sodio?", &config)
	if err != nil {
		log.Printf("Search error: %v", err)
	} else {
		printResults(results)
	}

	// 2. Search within one source file
	fmt.Println("\n2. SEARCH BY SOURCE")
	fmt.Println(strings.Repeat("-", 20))
	results, err = p.SearchBySource(ctx, "dosis de conservante", 3, "sorbato.txt")
	if err != nil {
		log.Printf("Search by source error: %v", err)
	} else {
		printResults(results)
	}

	// 3. Keep only chunks with extracted water activity facts
	fmt.Println("\n3. SEARCH WITH METADATA FILTER")
	fmt.Println(strings.Repeat("-", 20))
	results, err = p.SearchWithMetadata(ctx, "límite de crecimiento microbiano", 3, model.Metadata{"has_aw": "true"})
	if err != nil {
		log.Printf("Search with metadata error: %v", err)
	} else {
		printResults(results)
	}

	// 4. Merge the results of several query formulations
	fmt.Println("\n4. CONSOLIDATED SEARCH")
	fmt.Println(strings.Repeat("-", 20))
	results, err = p.SearchConsolidated(ctx, []string{
		"conservantes para bebidas",
		"conservantes para frutas",
	}, 5)
	if err != nil {
		log.Printf("Consolidated search error: %v", err)
	} else {
		printResults(results)
	}

	// 5. Retrieval quality benchmark over the judged queries
	fmt.Println("\n5. RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("-", 20))
	session, err := p.NewBenchmarkSession(5)
	if err != nil {
		log.Fatalf("Failed to create benchmark session: %v", err)
	}

	aggregate, err := session.EvaluateAll(ctx, judgments)
	if err != nil {
		log.Fatalf("Failed to evaluate judgments: %v", err)
	}

	for _, record := range session.Records() {
		fmt.Printf("\nQuery: %s\n", record.Query)
		fmt.Printf("  P@5: %.4f  R@5: %.4f  MRR: %.4f  NDCG@5: %.4f\n",
			record.PrecisionAt5, record.RecallAt5, record.MRR, record.NDCGAt5)
	}

	fmt.Println("\nAggregate over all queries:")
	fmt.Printf("  Queries:  %d\n", aggregate.TotalQueries)
	fmt.Printf("  Avg P@5:  %.4f\n", aggregate.AvgPrecisionAt5)
	fmt.Printf("  Avg R@5:  %.4f\n", aggregate.AvgRecallAt5)
	fmt.Printf("  Avg MRR:  %.4f\n", aggregate.AvgMRR)
	fmt.Printf("  Avg NDCG@5: %.4f\n", aggregate.AvgNDCGAt5)
	fmt.Printf("  Avg similarity: %.4f\n", aggregate.AvgSimilarity)

	fmt.Println("\nBenchmark example completed successfully!")
}

func printResults(results []*model.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	for i, result := range results {
		fmt.Printf("[%d] Score: %.4f | Chunk: %s | Source: %v\n",
			i+1, result.SimilarityScore, result.ChunkID, result.Metadata["source_file"])
	}
}

// databaseConfiguration reads the connection settings from the environment
// and starts a disposable container when none are set.
func databaseConfiguration() (*helper.DatabaseConfiguration, func(ctx context.Context, opts ...testcontainers.TerminateOption) error, error) {
	if os.Getenv("DB_HOST") != "" {
		config, err := helper.NewDatabaseConfiguration()
		return config, nil, err
	}

	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		return nil, nil, err
	}

	return &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}, teardown, nil
}
