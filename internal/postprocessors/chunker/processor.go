// Package chunker provides a sentence-aware text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// DefaultChunkSize is the default soft limit of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap budget in characters.
const DefaultChunkOverlap = 200

// DefaultMinLength is the shortest chunk kept, in characters.
const DefaultMinLength = 50

// sentenceBoundary matches runs of sentence-ending punctuation.
var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// Processor splits document content into overlapping sentence windows.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	minLength int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap budget in characters.
// Every ten characters of budget carry one trailing word into the next chunk.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap < 0 {
			overlap = 0
		}
		p.overlap = overlap
	}
}

// WithMinLength sets the minimum chunk length in characters.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minLength = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		minLength: DefaultMinLength,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	parts := p.Split(doc.Content)
	if len(parts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for i, content := range parts {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    content,
			Position:   i,
		})
	}

	return chunks, nil
}

// Split segments text into ordered chunks.
// Sentences are packed greedily until the next one would push the buffer past
// the chunk size. Each new buffer starts with the trailing words of the last
// emitted chunk. Chunks shorter than the minimum length are dropped.
func (p *Processor) Split(text string) []string {
	var (
		chunks []string
		buf    strings.Builder
	)

	for _, sentence := range sentenceBoundary.Split(text, -1) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}

		current := strings.TrimSpace(buf.String())
		if current != "" && runeLen(buf.String())+runeLen(trimmed) > p.chunkSize {
			chunks = append(chunks, current)
			buf.Reset()
			buf.WriteString(p.seed(current))
		}

		buf.WriteString(trimmed)
		buf.WriteString(". ")
	}

	if rest := strings.TrimSpace(buf.String()); rest != "" {
		chunks = append(chunks, rest)
	}

	kept := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if runeLen(c) >= p.minLength {
			kept = append(kept, c)
		}
	}
	return kept
}

// seed returns the overlap carried from an emitted chunk into the next buffer.
func (p *Processor) seed(emitted string) string {
	n := p.overlap / 10
	if n == 0 {
		return ""
	}

	words := strings.Split(emitted, " ")
	if len(words) > n {
		words = words[len(words)-n:]
	}
	tail := strings.Join(words, " ")

	// Scripts without spaces yield a single huge "word".
	if r := []rune(tail); len(r) > p.overlap {
		tail = string(r[len(r)-p.overlap:])
	}
	return tail + " "
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
