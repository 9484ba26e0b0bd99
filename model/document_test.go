package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentFromFile(t *testing.T) {
	t.Run("Successfully reads file and creates document", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "citrus_preservation.txt")
		content := "Citrus juices keep a pH between 2.5 and 3.5."
		err := os.WriteFile(filePath, []byte(content), 0644)
		require.NoError(t, err)

		metadata := Metadata{"author": "Example Author"}
		doc, err := NewDocumentFromFile(filePath, metadata)

		require.NoError(t, err)
		assert.Equal(t, "citrus_preservation", doc.Title, "Title should be filename without extension")
		assert.Equal(t, "Example Author", doc.Author, "Author should be promoted from metadata")
		assert.Equal(t, "citrus_preservation.txt", doc.Source, "Source should be the base filename")
		assert.Equal(t, filePath, doc.Path, "Path should be the full file path")
		assert.Equal(t, content, doc.Content, "Content should match file content")
	})

	t.Run("Returns error for non-existent file", func(t *testing.T) {
		doc, err := NewDocumentFromFile("/non/existent/file.txt", nil)

		require.Error(t, err)
		assert.Nil(t, doc)
	})

	t.Run("Handles empty file", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "empty.txt")
		err := os.WriteFile(filePath, []byte(""), 0644)
		require.NoError(t, err)

		doc, err := NewDocumentFromFile(filePath, nil)

		require.NoError(t, err)
		assert.Equal(t, "empty", doc.Title)
		assert.Equal(t, "", doc.Content)
		assert.Equal(t, "", doc.Author, "Author should stay empty without metadata")
	})

	t.Run("Handles file without extension", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "README")
		content := "Readme content"
		err := os.WriteFile(filePath, []byte(content), 0644)
		require.NoError(t, err)

		doc, err := NewDocumentFromFile(filePath, nil)

		require.NoError(t, err)
		assert.Equal(t, "README", doc.Title, "Title should be full filename when no extension")
		assert.Equal(t, content, doc.Content)
	})

	t.Run("Handles file with multiple dots in name", func(t *testing.T) {
		tmpDir := t.TempDir()
		filePath := filepath.Join(tmpDir, "sorbate.dose.study.txt")
		err := os.WriteFile(filePath, []byte("Potassium sorbate at 500 ppm."), 0644)
		require.NoError(t, err)

		doc, err := NewDocumentFromFile(filePath, nil)

		require.NoError(t, err)
		assert.Equal(t, "sorbate.dose.study", doc.Title, "Title should remove only the last extension")
	})
}

func TestDocumentStem(t *testing.T) {
	t.Run("Stem strips the extension from source", func(t *testing.T) {
		doc := &Document{Source: "brine_tables.txt"}

		assert.Equal(t, "brine_tables", doc.Stem())
	})

	t.Run("Stem falls back to path when source is empty", func(t *testing.T) {
		doc := &Document{Path: "/corpus/oils/eugenol_activity.md"}

		assert.Equal(t, "eugenol_activity", doc.Stem())
	})

	t.Run("Stem keeps extensionless names whole", func(t *testing.T) {
		doc := &Document{Source: "NOTES"}

		assert.Equal(t, "NOTES", doc.Stem())
	})
}
