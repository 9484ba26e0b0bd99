package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/siherrmann/preserver"
	"github.com/siherrmann/preserver/core/pipeline"
	"github.com/siherrmann/preserver/helper"
	"github.com/siherrmann/preserver/model"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// corpusDir holds the plain-text literature to ingest, one .txt per source.
const corpusDir = "./corpus"

// startPostgresContainer starts a PostgreSQL container with a bind-mounted
// data directory, so the ingested corpus survives between runs.
func startPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	dataDir := "./data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create data directory: %w", err)
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path for data directory: %w", err)
	}

	// When the database already exists, PostgreSQL doesn't re-initialize,
	// so the ready message only appears once instead of twice
	pgVersionFile := filepath.Join(absDataDir, "PG_VERSION")
	_, err = os.Stat(pgVersionFile)
	dbExists := err == nil

	waitOccurrences := 2
	if dbExists {
		waitOccurrences = 1
		fmt.Printf("Using existing persistent database in: %s\n", absDataDir)
	} else {
		fmt.Printf("Creating new persistent database in: %s\n", absDataDir)
	}

	options := []testcontainers.ContainerCustomizer{
		postgres.WithDatabase("database"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(waitOccurrences),
		),
		testcontainers.WithHostConfigModifier(func(hc *container.HostConfig) {
			hc.Mounts = append(hc.Mounts, mount.Mount{
				Type:   mount.TypeBind,
				Source: absDataDir,
				Target: "/var/lib/postgresql/data",
			})
		}),
	}

	pgContainer, err := postgres.Run(
		ctx,
		"pgvector/pgvector:pg17",
		options...,
	)
	if err != nil {
		return nil, "", fmt.Errorf("error starting postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("error getting connection string: %w", err)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("error parsing connection string: %v", err)
	}

	return pgContainer.Terminate, u.Port(), nil
}

func main() {
	teardown, dbPort, err := startPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	p, err := preserver.NewPreserver(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create preserver: %v", err)
	}
	defer p.Close()

	if err := p.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(corpusDir, "*.txt"))
	if err != nil {
		log.Fatalf("Failed to list corpus files: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("No .txt files found in %s, place the literature corpus there first", corpusDir)
	}

	// Check existing documents to avoid re-processing on persistent runs
	existingDocs, err := existingSources(p)
	if err != nil {
		log.Printf("Warning: could not check existing documents: %v", err)
		existingDocs = make(map[string]bool)
	}
	if len(existingDocs) > 0 {
		fmt.Printf("Found %d existing documents in database\n", len(existingDocs))
	}

	totalChunks := 0
	skipped := 0
	processed := 0
	for i, file := range files {
		source := filepath.Base(file)

		if existingDocs[source] {
			fmt.Printf("Skipping %s (%d/%d) - already processed\n", source, i+1, len(files))
			skipped++
			continue
		}

		doc, err := model.NewDocumentFromFile(file, model.Metadata{"corpus": "conservación"})
		if err != nil {
			log.Printf("Warning: failed to read %s: %v, skipping...", source, err)
			continue
		}

		fmt.Printf("Processing %s (%d/%d)...\n", source, i+1, len(files))
		numChunks, err := p.ProcessAndInsertDocument(doc)
		if err != nil {
			log.Printf("Warning: failed to process %s: %v, skipping...", source, err)
			continue
		}

		fmt.Printf("  Inserted %d chunks from %s\n", numChunks, doc.Title)
		totalChunks += numChunks
		processed++
	}

	fmt.Printf("\nCorpus status:\n")
	fmt.Printf("  - Processed: %d files (%d chunks)\n", processed, totalChunks)
	fmt.Printf("  - Skipped (already in DB): %d files\n", skipped)
	fmt.Printf("  - Total: %d files\n", len(files))

	printCorpusStats(p)

	// Sample domain queries against the ingested corpus
	queries := []string{
		"¿Qué pH inhibe el crecimiento de Clostridium botulinum?",
		"¿Qué dosis de sorbato de potasio se recomienda para conservas?",
		"¿Cómo reduce el salado la actividad de agua?",
	}

	ctx := context.Background()
	config := model.DefaultQueryConfig()
	config.TopK = 3

	for _, query := range queries {
		fmt.Printf("\nSearching: %q\n", query)
		fmt.Println(strings.Repeat("-", 20))

		results, err := p.Search(ctx, query, &config)
		if err != nil {
			log.Printf("Search error: %v", err)
			continue
		}

		for i, result := range results {
			content := result.Content
			if len(content) > 300 {
				content = content[:300] + "..."
			}
			fmt.Printf("\n[%d] Score: %.4f | Source: %v\n", i+1, result.SimilarityScore, result.Metadata["source_file"])
			fmt.Printf("    %s\n", strings.ReplaceAll(content, "\n", "\n    "))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 20))
	fmt.Println("Corpus example complete!")
}

// existingSources returns the source filenames already ingested, for quick
// lookup.
func existingSources(p *preserver.Preserver) (map[string]bool, error) {
	docs, err := p.Documents.SelectAllDocuments(nil, 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	existing := make(map[string]bool)
	for _, doc := range docs {
		existing[doc.Source] = true
	}

	return existing, nil
}

// printCorpusStats collects every stored chunk and prints segmentation and
// extraction summaries.
func printCorpusStats(p *preserver.Preserver) {
	docs, err := p.Documents.SelectAllDocuments(nil, 1000)
	if err != nil {
		log.Printf("Warning: could not load documents for stats: %v", err)
		return
	}

	var chunks []*model.Chunk
	for _, doc := range docs {
		docChunks, err := p.Chunks.SelectChunksByDocument(doc.RID)
		if err != nil {
			log.Printf("Warning: could not load chunks of %s: %v", doc.Source, err)
			continue
		}
		chunks = append(chunks, docChunks...)
	}

	stats := pipeline.ChunkStats(chunks)
	extraction := pipeline.ExtractionStats(chunks)

	fmt.Printf("\nSegmentation:\n")
	fmt.Printf("  - Chunks: %d across %d documents\n", stats.TotalChunks, stats.UniqueDocuments)
	fmt.Printf("  - Chunk length: avg %.1f (min %d, max %d)\n", stats.AvgChunkLength, stats.MinChunkLength, stats.MaxChunkLength)

	fmt.Printf("\nExtracted facts:\n")
	fmt.Printf("  - With pH: %d\n", extraction.WithAcidity)
	fmt.Printf("  - With water activity: %d\n", extraction.WithWaterActivity)
	fmt.Printf("  - With concentration: %d\n", extraction.WithConcentration)
	fmt.Printf("  - With microorganisms: %d\n", extraction.WithOrganisms)
	fmt.Printf("  - With conservants: %d\n", extraction.WithConservants)
	fmt.Printf("  - Coverage: %.2f%%\n", extraction.CoveragePct)
}
