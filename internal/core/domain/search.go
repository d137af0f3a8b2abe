package domain

import "fmt"

// Retrieval defaults.
const (
	// DefaultMatchThreshold is the minimum cosine similarity for a chunk to count as relevant.
	DefaultMatchThreshold = 0.78

	// DefaultMatchCount is the maximum number of chunks retrieved per question.
	DefaultMatchCount = 5

	// MaxMatchCount bounds caller-supplied counts.
	MaxMatchCount = 50

	// EvidencePreviewLength is the number of characters kept in evidence content.
	EvidencePreviewLength = 300
)

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// Threshold is the minimum similarity in [0,1].
	Threshold float64

	// Count is the maximum number of results.
	Count int
}

// Validate checks threshold and count bounds.
func (o SearchOptions) Validate() error {
	if o.Threshold < 0 || o.Threshold > 1 {
		return fmt.Errorf("%w: threshold %.2f outside [0,1]", ErrInvalidInput, o.Threshold)
	}
	if o.Count < 1 || o.Count > MaxMatchCount {
		return fmt.Errorf("%w: count %d outside [1,%d]", ErrInvalidInput, o.Count, MaxMatchCount)
	}
	return nil
}

// SearchResult is one ranked chunk returned by the document store.
type SearchResult struct {
	// Chunk is the matched chunk. Its Embedding is not populated.
	Chunk Chunk

	// DocumentTitle is the owning document's filename.
	DocumentTitle string

	// Similarity is the cosine similarity to the query.
	Similarity float64
}

// EvidenceItem is a retrieved chunk shown alongside an answer.
type EvidenceItem struct {
	ChunkID    string  `json:"chunkId"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Position   int     `json:"position"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// NewEvidence converts a search result into evidence,
// truncating the content to previewRunes characters.
func NewEvidence(r SearchResult, previewRunes int) EvidenceItem {
	return EvidenceItem{
		ChunkID:    r.Chunk.ID,
		DocumentID: r.Chunk.DocumentID,
		Title:      r.DocumentTitle,
		Position:   r.Chunk.Position,
		Content:    Preview(r.Chunk.Content, previewRunes),
		Similarity: r.Similarity,
	}
}

// Preview returns s cut to n characters with a trailing ellipsis when cut.
func Preview(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// AskOptions carries the optional overrides of a question.
// Nil pointers fall back to the configured defaults.
type AskOptions struct {
	SessionID string
	Threshold *float64
	Count     *int
}

// Answer is the result of a question.
type Answer struct {
	// SessionID is the chat session the exchange was logged to.
	SessionID string

	// Text is the generated or canned answer.
	Text string

	// Evidence lists the chunks the answer was grounded on, in ranked order.
	Evidence []EvidenceItem

	// Found is false when no chunk cleared the threshold.
	Found bool
}
