package domain

import "time"

// Well-known document sources.
const (
	// SourceUpload marks documents uploaded through the HTTP API.
	SourceUpload = "pdf_upload"

	// SourceCLI marks documents ingested with the ingest command.
	SourceCLI = "cli"

	// SourceWatch marks documents picked up from a watched inbox directory.
	SourceWatch = "watch"
)

// Document represents an uploaded paper.
// It is immutable once stored; a re-upload creates a new Document.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the original filename.
	Title string

	// Source records how the document entered the system.
	Source string

	// Content is the full extracted text before chunking.
	Content string

	// Embedding is an optional whole-document vector.
	Embedding Embedding

	// Metadata describes the upload.
	Metadata DocumentMetadata

	// CreatedAt is when the document was stored.
	CreatedAt time.Time
}

// DocumentMetadata holds upload details for a document.
type DocumentMetadata struct {
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"fileSize"`
	UploadedAt time.Time `json:"uploadedAt"`
	ChunkCount int       `json:"chunkCount"`
}

// Chunk represents a retrievable window of a document's text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the zero-based sequence index within the document.
	Position int

	// Embedding is the vector representation used for retrieval.
	Embedding Embedding

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}
