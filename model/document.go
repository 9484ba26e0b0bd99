package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Document represents a source document
type Document struct {
	ID        int64     `json:"id"`
	RID       uuid.UUID `json:"rid"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Source    string    `json:"source,omitempty"` // Base filename
	Path      string    `json:"path,omitempty"`   // Full path to the source file
	Content   string    `json:"content,omitempty" db:"-"` // Temporary field for processing, not stored in DB
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stem returns the source filename with its extension stripped, used as
// the id prefix for the document's chunks.
func (d *Document) Stem() string {
	source := d.Source
	if source == "" {
		source = filepath.Base(d.Path)
	}
	stem := source[:len(source)-len(filepath.Ext(source))]
	if stem == "" {
		stem = source
	}
	return stem
}

// NewDocumentFromFile reads a file and creates a Document with the file content.
// The title defaults to the filename without extension, source to the base
// filename and path to the full file path. An author key in metadata is
// promoted to the Author field.
func NewDocumentFromFile(filePath string, metadata Metadata) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	// Get filename without extension for default title
	filename := filepath.Base(filePath)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}

	author := ""
	if a, ok := metadata["author"].(string); ok {
		author = a
	}

	return &Document{
		Title:    title,
		Author:   author,
		Source:   filename,
		Path:     filePath,
		Content:  string(content),
		Metadata: metadata,
	}, nil
}
