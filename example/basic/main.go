package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/siherrmann/preserver"
	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
	"github.com/testcontainers/testcontainers-go"
)

const sampleContent = `La conservación de alimentos combina varios factores para frenar el deterioro microbiano.

El sorbato de potasio inhibe levaduras y mohos en conservas de frutas. Se dosifica normalmente
entre 500 y 1000 ppm, y su eficacia aumenta cuando el pH del producto baja de 5.5.

El benzoato de sodio actúa contra bacterias y levaduras en bebidas ácidas con pH menor a 4.5.
Microorganismos como Zygosaccharomyces bailii toleran concentraciones moderadas de conservantes,
por eso se combinan con tratamientos térmicos suaves.

La actividad de agua también limita el crecimiento microbiano. Por debajo de aw 0.85 la mayoría
de las bacterias patógenas, incluida Clostridium botulinum, no se desarrolla. El salado y el
azucarado reducen la actividad de agua sin necesidad de aditivos químicos.`

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

	// Set up the default pipeline (normalization + segmentation + fact
	// extraction + embeddings)
	if err := p.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Create document with content
	doc := &model.Document{
		Title:   "Conservación de alimentos por métodos combinados",
		Source:  "conservacion_basico.txt",
		Content: sampleContent,
		Metadata: model.Metadata{
			"language": "es",
			"topic":    "conservación de alimentos",
		},
	}

	// Process and insert document in one call
	fmt.Println("Ingesting document...")
	numChunks, err := p.ProcessAndInsertDocument(doc)
	if err != nil {
		log.Fatalf("Failed to process and insert document: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", doc.RID)
	fmt.Printf("Inserted %d chunks\n", numChunks)

	// Perform a simple vector search
	queryText := "¿Qué conservantes inhiben las levaduras?"

	fmt.Printf("\nQuerying: %s\n", queryText)

	config := model.DefaultQueryConfig()
	config.TopK = 5

	results, err := p.Search(context.Background(), queryText, &config)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	printResults(results)

	// Keep only chunks that carry extracted pH facts
	fmt.Println("\nQuerying chunks with pH facts...")
	phResults, err := p.SearchWithMetadata(context.Background(), "control de acidez", 3, model.Metadata{"has_ph": "true"})
	if err != nil {
		log.Fatalf("Failed to search with metadata: %v", err)
	}

	printResults(phResults)

	fmt.Println("\nBasic example completed successfully!")
}

func printResults(results []*model.SearchResult) {
	fmt.Printf("\nFound %d results:\n", len(results))
	for i, result := range results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", result.SimilarityScore)
		fmt.Printf("Chunk: %s\n", result.ChunkID)
		fmt.Printf("Source: %v\n", result.Metadata["source_file"])
		fmt.Printf("Content: %s\n", result.Content)
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
