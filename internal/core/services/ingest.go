package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Ingest defaults.
const (
	// DefaultEmbedConcurrency bounds in-flight embedding calls per document.
	DefaultEmbedConcurrency = 8

	// DocumentEmbeddingRunes is how much leading text feeds the whole-document embedding.
	DocumentEmbeddingRunes = 8000
)

// IngestService extracts, chunks, embeds and stores uploaded PDFs.
type IngestService struct {
	normaliser  driven.Normaliser
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	docStore    driven.DocumentStore
	concurrency int
	limiter     *rate.Limiter
	embedWhole  bool
	now         func() time.Time
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithEmbedConcurrency sets the maximum number of concurrent embedding calls.
func WithEmbedConcurrency(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithEmbedRateLimit throttles embedding calls to rps requests per second.
// A non-positive rps disables throttling.
func WithEmbedRateLimit(rps float64, burst int) IngestOption {
	return func(s *IngestService) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithDocumentEmbedding enables or disables the whole-document embedding.
func WithDocumentEmbedding(enabled bool) IngestOption {
	return func(s *IngestService) {
		s.embedWhole = enabled
	}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	normaliser driven.Normaliser,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	docStore driven.DocumentStore,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		normaliser:  normaliser,
		pipeline:    pipeline,
		embedder:    embedder,
		docStore:    docStore,
		concurrency: DefaultEmbedConcurrency,
		embedWhole:  true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stores a PDF as a document with embedded chunks.
// Every chunk is embedded before anything is written, and the document
// is stored with its chunks in a single atomic call.
func (s *IngestService) Ingest(ctx context.Context, raw *domain.RawDocument) (*driving.IngestResult, error) {
	logger.Section("Ingest")

	if raw == nil || len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: no file provided", domain.ErrInvalidInput)
	}
	if !raw.IsPDF() {
		return nil, domain.ErrUnsupportedType
	}
	logger.Debug("Ingest: %s (%d bytes)", raw.Filename, len(raw.Content))

	doc, err := s.normalise(ctx, raw)
	if err != nil {
		return nil, err
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: too little text to index", domain.ErrNoExtractableText)
	}
	logger.Debug("Ingest: %d chunks", len(chunks))

	if err := s.embed(ctx, doc, chunks); err != nil {
		return nil, err
	}

	doc.Metadata.ChunkCount = len(chunks)
	if err := s.docStore.CreateDocument(ctx, doc, chunks); err != nil {
		logger.Warn("Store document %s failed: %v", doc.ID, err)
		return nil, storageError("store document", err)
	}

	logger.Info("Stored %s as %s with %d chunks", doc.Title, doc.ID, len(chunks))
	return &driving.IngestResult{
		Document:   *doc,
		ChunkCount: len(chunks),
	}, nil
}

// normalise extracts the document text and fills in upload metadata.
func (s *IngestService) normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	result, err := s.normaliser.Normalise(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if domain.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrNoExtractableText, err)
	}

	doc := result.Document
	if strings.TrimSpace(doc.Content) == "" {
		return nil, domain.ErrNoExtractableText
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Title == "" {
		doc.Title = raw.Filename
	}
	doc.Source = raw.Source
	if doc.Source == "" {
		doc.Source = domain.SourceUpload
	}
	doc.Metadata = domain.DocumentMetadata{
		Filename:   raw.Filename,
		FileSize:   int64(len(raw.Content)),
		UploadedAt: s.now().UTC(),
	}
	logger.Debug("Extracted %d characters from %d pages", len([]rune(doc.Content)), result.PageCount)

	return &doc, nil
}

// embed fans the chunk texts out to the embedding service and joins the
// results by index. The first failure cancels the remaining calls.
func (s *IngestService) embed(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if s.embedder == nil {
		return fmt.Errorf("embed chunks: %w", domain.ErrEmbeddingUnavailable)
	}

	vectors := make([][]float32, len(chunks))
	var whole []float32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range chunks {
		g.Go(func() error {
			v, err := s.embedOne(gctx, chunks[i].Content)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			vectors[i] = v
			return nil
		})
	}
	if s.embedWhole {
		g.Go(func() error {
			v, err := s.embedOne(gctx, leading(doc.Content, DocumentEmbeddingRunes))
			if err != nil {
				return fmt.Errorf("document: %w", err)
			}
			whole = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Embedding failed: %v", err)
		return dependencyError(domain.ErrEmbeddingUnavailable, "embed chunks", err)
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if err := domain.Embedding(v).Validate(dim); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		chunks[i].Embedding = v
	}
	if whole != nil {
		if err := domain.CheckDimensions(whole, vectors[0]); err != nil {
			return fmt.Errorf("document embedding: %w", err)
		}
		doc.Embedding = whole
	}

	logger.Debug("Embedded %d chunks (%d dimensions)", len(chunks), dim)
	return nil
}

func (s *IngestService) embedOne(ctx context.Context, text string) ([]float32, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := domain.Embedding(v).Validate(0); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return v, nil
}

// leading returns at most n characters from the start of s.
func leading(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
