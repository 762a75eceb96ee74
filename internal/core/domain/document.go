package domain

import (
	"strconv"
	"time"
)

// Document is a transcribed audio document.
// The core receives documents by value and never mutates them.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// DisplayName is the human-readable name shown in citations.
	DisplayName string

	// FullText is the complete transcript text before chunking.
	FullText string

	// Language is the transcript language tag (e.g. "en-US"), if known.
	Language string

	// CreatedAt is when the transcript was added to the document store.
	CreatedAt time.Time
}

// SourceName returns the name used to attribute passages of this document.
// Falls back to the ID when the document has no display name.
func (d Document) SourceName() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.ID
}

// Chunk is a bounded-size, sentence-aligned fragment of a document.
// Chunks are the unit of indexing and retrieval.
type Chunk struct {
	// ID is DocumentID and Ordinal joined by an underscore.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Ordinal is the zero-based position within the document.
	Ordinal int

	// Content is the chunk text.
	Content string
}

// ChunkID returns the identifier of the chunk at ordinal within documentID.
// Chunk IDs are globally unique as long as document IDs are.
func ChunkID(documentID string, ordinal int) string {
	return documentID + "_" + strconv.Itoa(ordinal)
}

// IndexDocument is the search-index representation of a chunk.
type IndexDocument struct {
	// ID is the chunk ID and the index key.
	ID string

	// Content is the chunk text.
	Content string

	// DocumentID is the owning document.
	DocumentID string

	// DisplayName is the owning document's display name.
	DisplayName string

	// IndexedAt is when the chunk was submitted to the index.
	IndexedAt time.Time
}
