package database

import (
	"testing"
	"time"

	"github.com/siherrmann/preserver/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksNewChunksDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewChunksDBHandler", func(t *testing.T) {
		// Create documents handler first to ensure documents table exists (needed for foreign key)
		_, err := NewDocumentsDBHandler(database, true)
		require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

		chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
		assert.NoError(t, err, "Expected NewChunksDBHandler to not return an error")
		require.NotNil(t, chunksDbHandler, "Expected NewChunksDBHandler to return a non-nil instance")
		require.NotNil(t, chunksDbHandler.db, "Expected NewChunksDBHandler to have a non-nil database instance")
		require.NotNil(t, chunksDbHandler.db.Instance, "Expected NewChunksDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewChunksDBHandler with nil database", func(t *testing.T) {
		_, err := NewChunksDBHandler(nil, 384, false)
		assert.Error(t, err, "Expected error when creating ChunksDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestChunksInsert(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err, "Expected NewChunksDBHandler to not return an error")

	// Create a document first
	doc := &model.Document{
		Title:    "Conservación por barreras combinadas",
		Author:   "García",
		Source:   "informe.txt",
		Metadata: map[string]interface{}{"language": "es"},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err, "Expected Insert document to not return an error")

	t.Run("Insert chunk without embedding", func(t *testing.T) {
		chunk := &model.Chunk{
			DocumentID:  doc.ID,
			ChunkID:     "informe_chunk_0",
			Content:     "El benzoato de sodio inhibe levaduras a pH 4.5.",
			StartOffset: 0,
			EndOffset:   48,
			Length:      48,
			SourceFile:  "informe.txt",
			SourcePath:  "/data/informe.txt",
			DocTitle:    doc.Title,
			DocAuthor:   doc.Author,
			Metadata:    map[string]interface{}{"type": "paragraph"},
		}

		err := chunksDbHandler.InsertChunk(chunk)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEmpty(t, chunk.ID, "Expected inserted chunk to have an ID")
		assert.Equal(t, doc.RID, chunk.DocumentRID, "Expected document RID to be denormalized onto the chunk")
		assert.Empty(t, chunk.Embedding, "Expected embedding to stay empty")
		assert.WithinDuration(t, chunk.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
	})

	t.Run("Insert chunk with embedding", func(t *testing.T) {
		// Create 384-dimension embedding
		embedding := make([]float32, 384)
		for i := range embedding {
			embedding[i] = float32(i) / 384.0
		}
		chunk := &model.Chunk{
			DocumentID:  doc.ID,
			ChunkID:     "informe_chunk_1",
			Content:     "La nisina es eficaz contra Listeria.",
			StartOffset: 48,
			EndOffset:   84,
			Length:      36,
			SourceFile:  "informe.txt",
			Embedding:   embedding,
			Metadata:    map[string]interface{}{"type": "paragraph"},
		}

		err := chunksDbHandler.InsertChunk(chunk)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEmpty(t, chunk.ID, "Expected inserted chunk to have an ID")
		assert.Equal(t, 384, len(chunk.Embedding), "Expected embedding to be preserved")
	})

	t.Run("Insert chunk with extracted facts", func(t *testing.T) {
		chunk := &model.Chunk{
			DocumentID: doc.ID,
			ChunkID:    "informe_chunk_2",
			Content:    "A pH 4.2 el sorbato controla Zygosaccharomyces bailii a 500 ppm.",
			Extracted: &model.ExtractedMetadata{
				Acidity:        model.NewScalarMeasurement(4.2),
				Concentration:  &model.Concentration{Value: 500, Unit: "ppm"},
				Microorganisms: []string{"zygosaccharomyces bailii"},
				Conservants:    []string{"sorbato"},
				HasNumericData: true,
			},
			Metadata: map[string]interface{}{},
		}

		err := chunksDbHandler.InsertChunk(chunk)
		assert.NoError(t, err, "Expected Insert to not return an error")
		require.NotNil(t, chunk.Extracted, "Expected extracted facts to survive the round trip")
		require.NotNil(t, chunk.Extracted.Acidity, "Expected acidity to survive the round trip")
		assert.Equal(t, 4.2, *chunk.Extracted.Acidity.Value, "Expected acidity value to match")
		require.NotNil(t, chunk.Extracted.Concentration, "Expected concentration to survive the round trip")
		assert.Equal(t, "ppm", chunk.Extracted.Concentration.Unit, "Expected concentration unit to match")
		assert.Equal(t, []string{"zygosaccharomyces bailii"}, chunk.Extracted.Microorganisms, "Expected microorganisms to match")
		assert.True(t, chunk.Extracted.HasNumericData, "Expected numeric data flag to survive the round trip")
	})

	t.Run("Insert chunk for missing document", func(t *testing.T) {
		chunk := &model.Chunk{
			DocumentID: 999999999,
			ChunkID:    "orphan_chunk_0",
			Content:    "Orphan chunk",
			Metadata:   map[string]interface{}{},
		}

		err := chunksDbHandler.InsertChunk(chunk)
		assert.Error(t, err, "Expected Insert to fail for a missing document")
		assert.Contains(t, err.Error(), "does not exist", "Expected specific error message for missing document")
	})

	// Cleanup
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestChunksGet(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err, "Expected NewChunksDBHandler to not return an error")

	// Create a document and chunk
	doc := &model.Document{
		Title:    "Actividad de aceites esenciales",
		Source:   "aceites.txt",
		Metadata: map[string]interface{}{},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	chunk := &model.Chunk{
		DocumentID:  doc.ID,
		ChunkID:     "aceites_chunk_0",
		Content:     "El carvacrol y el timol inhiben bacterias.",
		StartOffset: 0,
		EndOffset:   42,
		Length:      42,
		SourceFile:  "aceites.txt",
		Metadata:    map[string]interface{}{"section": "results"},
	}
	err = chunksDbHandler.InsertChunk(chunk)
	require.NoError(t, err)

	t.Run("Get chunk by ID", func(t *testing.T) {
		retrievedChunk, err := chunksDbHandler.SelectChunk(chunk.ID)
		assert.NoError(t, err, "Expected Get to not return an error")
		require.NotNil(t, retrievedChunk, "Expected Get to return a non-nil chunk")
		assert.Equal(t, chunk.ID, retrievedChunk.ID, "Expected chunk IDs to match")
		assert.Equal(t, chunk.ChunkID, retrievedChunk.ChunkID, "Expected chunk ids to match")
		assert.Equal(t, chunk.Content, retrievedChunk.Content, "Expected contents to match")
		assert.Equal(t, "results", retrievedChunk.Metadata["section"], "Expected metadata to match")
	})

	t.Run("Get chunk by chunk id", func(t *testing.T) {
		retrievedChunk, err := chunksDbHandler.SelectChunkByChunkID("aceites_chunk_0")
		assert.NoError(t, err, "Expected Get to not return an error")
		require.NotNil(t, retrievedChunk, "Expected Get to return a non-nil chunk")
		assert.Equal(t, chunk.ID, retrievedChunk.ID, "Expected chunk IDs to match")
	})

	t.Run("Get nonexistent chunk", func(t *testing.T) {
		_, err := chunksDbHandler.SelectChunk(999999999)
		assert.Error(t, err, "Expected Get to return an error for nonexistent chunk")
	})

	// Cleanup
	chunksDbHandler.DeleteChunk(chunk.ID)
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestChunksGetByDocument(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err)

	// Create a document
	doc := &model.Document{
		Title:    "Informe de conservantes",
		Source:   "conservantes.txt",
		Metadata: map[string]interface{}{},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	// Create chunks out of order to check ordering by start offset
	offsets := []int{100, 0, 50}
	chunks := make([]*model.Chunk, len(offsets))
	for i, offset := range offsets {
		chunks[i] = &model.Chunk{
			DocumentID:  doc.ID,
			ChunkID:     "conservantes_chunk_" + string(rune('0'+i)),
			Content:     "Contenido del fragmento",
			StartOffset: offset,
			EndOffset:   offset + 23,
			Length:      23,
			SourceFile:  "conservantes.txt",
			Metadata:    map[string]interface{}{},
		}
		err = chunksDbHandler.InsertChunk(chunks[i])
		require.NoError(t, err)
	}

	// Test SelectChunksByDocument
	retrievedChunks, err := chunksDbHandler.SelectChunksByDocument(doc.RID)
	assert.NoError(t, err, "Expected SelectChunksByDocument to not return an error")
	require.Len(t, retrievedChunks, len(offsets), "Expected to retrieve all inserted chunks")
	assert.Equal(t, 0, retrievedChunks[0].StartOffset, "Expected chunks ordered by start offset")
	assert.Equal(t, 50, retrievedChunks[1].StartOffset, "Expected chunks ordered by start offset")
	assert.Equal(t, 100, retrievedChunks[2].StartOffset, "Expected chunks ordered by start offset")

	// Cleanup
	for _, chunk := range chunks {
		chunksDbHandler.DeleteChunk(chunk.ID)
	}
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestChunksSearchBySimilarity(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err)

	// Create a document
	doc := &model.Document{
		Title:    "Estudio de sorbato",
		Source:   "sorbato.txt",
		Metadata: map[string]interface{}{},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	// Create chunks with 384-dimension embeddings
	embeddings := make([][]float32, 3)
	for i := range embeddings {
		embeddings[i] = make([]float32, 384)
		// Set one dimension to 1.0 to make them distinct
		embeddings[i][i] = 1.0
	}

	sourceFiles := []string{"sorbato.txt", "sorbato.txt", "otros.txt"}
	chunks := make([]*model.Chunk, len(embeddings))
	for i, emb := range embeddings {
		chunks[i] = &model.Chunk{
			DocumentID: doc.ID,
			ChunkID:    "sorbato_chunk_" + string(rune('0'+i)),
			Content:    "Contenido de prueba",
			SourceFile: sourceFiles[i],
			Embedding:  emb,
			Metadata:   map[string]interface{}{},
		}
		err = chunksDbHandler.InsertChunk(chunks[i])
		require.NoError(t, err)
	}

	// Chunk without embedding must never appear in similarity results
	unembedded := &model.Chunk{
		DocumentID: doc.ID,
		ChunkID:    "sorbato_chunk_x",
		Content:    "Sin embedding",
		SourceFile: "sorbato.txt",
		Metadata:   map[string]interface{}{},
	}
	err = chunksDbHandler.InsertChunk(unembedded)
	require.NoError(t, err)

	// Query close to the first embedding
	queryEmbedding := make([]float32, 384)
	queryEmbedding[0] = 0.9
	queryEmbedding[1] = 0.1

	t.Run("Search by similarity", func(t *testing.T) {
		results, err := chunksDbHandler.SelectChunksBySimilarity(queryEmbedding, 2, 0.0)
		assert.NoError(t, err, "Expected SearchBySimilarity to not return an error")
		require.NotEmpty(t, results, "Expected to find similar chunks")
		assert.LessOrEqual(t, len(results), 2, "Expected at most 2 results")
		assert.Equal(t, chunks[0].ID, results[0].ID, "Expected the closest chunk first")
		assert.Greater(t, results[0].Similarity, results[1].Similarity, "Expected results ordered by similarity")
		assert.InDelta(t, 1.0-results[0].Similarity, results[0].Distance, 1e-9, "Expected distance to complement similarity")
	})

	t.Run("Search by similarity with threshold", func(t *testing.T) {
		results, err := chunksDbHandler.SelectChunksBySimilarity(queryEmbedding, 10, 0.9)
		assert.NoError(t, err, "Expected SearchBySimilarity to not return an error")
		require.Len(t, results, 1, "Expected only the closest chunk above the threshold")
		assert.Equal(t, chunks[0].ID, results[0].ID, "Expected the closest chunk")
	})

	t.Run("Search by similarity by source", func(t *testing.T) {
		results, err := chunksDbHandler.SelectChunksBySimilarityBySource(queryEmbedding, 10, 0.0, "otros.txt")
		assert.NoError(t, err, "Expected SearchBySimilarityBySource to not return an error")
		require.Len(t, results, 1, "Expected only chunks from the requested source")
		assert.Equal(t, "otros.txt", results[0].SourceFile, "Expected matching source file")
	})

	// Cleanup
	for _, chunk := range chunks {
		chunksDbHandler.DeleteChunk(chunk.ID)
	}
	chunksDbHandler.DeleteChunk(unembedded.ID)
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestChunksUpdateEmbedding(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err)

	// Create a document and chunk without embedding
	doc := &model.Document{
		Title:    "Documento para actualizar",
		Source:   "actualizar.txt",
		Metadata: map[string]interface{}{},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	chunk := &model.Chunk{
		DocumentID: doc.ID,
		ChunkID:    "actualizar_chunk_0",
		Content:    "Fragmento sin embedding",
		Metadata:   map[string]interface{}{},
	}
	err = chunksDbHandler.InsertChunk(chunk)
	require.NoError(t, err)
	require.Empty(t, chunk.Embedding, "Expected chunk to start without embedding")

	// Update the embedding
	embedding := make([]float32, 384)
	embedding[5] = 1.0
	chunk.Embedding = embedding

	err = chunksDbHandler.UpdateChunkEmbedding(chunk)
	assert.NoError(t, err, "Expected UpdateChunkEmbedding to not return an error")
	assert.Equal(t, 384, len(chunk.Embedding), "Expected embedding to be set")

	// Verify via similarity search
	results, err := chunksDbHandler.SelectChunksBySimilarity(embedding, 1, 0.9)
	require.NoError(t, err)
	require.Len(t, results, 1, "Expected the updated chunk to be searchable")
	assert.Equal(t, chunk.ID, results[0].ID, "Expected the updated chunk")

	// Cleanup
	chunksDbHandler.DeleteChunk(chunk.ID)
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestChunksCount(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err)

	countBefore, err := chunksDbHandler.CountChunks()
	require.NoError(t, err)

	// Create a document and chunks
	doc := &model.Document{
		Title:    "Documento contado",
		Source:   "contado.txt",
		Metadata: map[string]interface{}{},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	chunkCount := 3
	chunks := make([]*model.Chunk, chunkCount)
	for i := 0; i < chunkCount; i++ {
		chunks[i] = &model.Chunk{
			DocumentID: doc.ID,
			ChunkID:    "contado_chunk_" + string(rune('0'+i)),
			Content:    "Contenido",
			Metadata:   map[string]interface{}{},
		}
		err = chunksDbHandler.InsertChunk(chunks[i])
		require.NoError(t, err)
	}

	countAfter, err := chunksDbHandler.CountChunks()
	assert.NoError(t, err, "Expected CountChunks to not return an error")
	assert.Equal(t, countBefore+int64(chunkCount), countAfter, "Expected count to grow by the inserted chunks")

	// Cleanup
	for _, chunk := range chunks {
		chunksDbHandler.DeleteChunk(chunk.ID)
	}
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestChunksDelete(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err)

	// Create a document and chunk
	doc := &model.Document{
		Title:    "Documento temporal",
		Source:   "temporal.txt",
		Metadata: map[string]interface{}{},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	chunk := &model.Chunk{
		DocumentID: doc.ID,
		ChunkID:    "temporal_chunk_0",
		Content:    "Fragmento temporal",
		Metadata:   map[string]interface{}{},
	}
	err = chunksDbHandler.InsertChunk(chunk)
	require.NoError(t, err)

	// Delete the chunk
	err = chunksDbHandler.DeleteChunk(chunk.ID)
	assert.NoError(t, err, "Expected DeleteChunk to not return an error")

	// Verify deletion
	_, err = chunksDbHandler.SelectChunk(chunk.ID)
	assert.Error(t, err, "Expected Get to return an error for deleted chunk")

	// Cleanup
	documentsDbHandler.DeleteDocument(doc.RID)
}

func TestChunksCascadeDelete(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err)

	// Create a document and chunk
	doc := &model.Document{
		Title:    "Documento en cascada",
		Source:   "cascada.txt",
		Metadata: map[string]interface{}{},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	chunk := &model.Chunk{
		DocumentID: doc.ID,
		ChunkID:    "cascada_chunk_0",
		Content:    "Fragmento en cascada",
		Metadata:   map[string]interface{}{},
	}
	err = chunksDbHandler.InsertChunk(chunk)
	require.NoError(t, err)

	// Deleting the document must delete its chunks
	err = documentsDbHandler.DeleteDocument(doc.RID)
	require.NoError(t, err)

	_, err = chunksDbHandler.SelectChunk(chunk.ID)
	assert.Error(t, err, "Expected chunk to be deleted with its document")
}
