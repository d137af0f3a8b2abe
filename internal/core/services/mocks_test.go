package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/postprocessors"
	"github.com/custodia-labs/paperqa/internal/postprocessors/chunker"
)

// --- Mock implementations ---

// funcEmbedder implements driven.EmbeddingService with a pluggable function.
type funcEmbedder struct {
	fn       func(ctx context.Context, text string) ([]float32, error)
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *funcEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return m.fn(ctx, text)
}

func (m *funcEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *funcEmbedder) Dimensions() int              { return 0 }
func (m *funcEmbedder) ModelName() string            { return "func-embedder" }
func (m *funcEmbedder) Ping(_ context.Context) error { return nil }
func (m *funcEmbedder) Close() error                 { return nil }

// keywordEmbedder returns one dimension per keyword holding its occurrence
// count. Texts that share keywords point the same way.
func keywordEmbedder(keywords ...string) *funcEmbedder {
	return &funcEmbedder{fn: func(_ context.Context, text string) ([]float32, error) {
		v := make([]float32, len(keywords))
		for _, word := range strings.Fields(strings.ToLower(text)) {
			word = strings.Trim(word, ".,!?;:\"'()")
			for i, k := range keywords {
				if word == k {
					v[i]++
				}
			}
		}
		return v, nil
	}}
}

// constantEmbedder returns the same vector for every text.
func constantEmbedder(v ...float32) *funcEmbedder {
	return &funcEmbedder{fn: func(_ context.Context, _ string) ([]float32, error) {
		return v, nil
	}}
}

// mockLLM implements driven.LLMService and records the last call.
type mockLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}},
		driven.ChatOptions{MaxTokens: opts.MaxTokens, Temperature: opts.Temperature})
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.messages = messages
	m.opts = opts
	return m.reply, m.err
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// textNormaliser implements driven.Normaliser by treating the bytes as text.
type textNormaliser struct {
	err error
}

func (n *textNormaliser) SupportedMIMETypes() []string { return []string{domain.MIMETypePDF} }
func (n *textNormaliser) Priority() int                { return 1 }

func (n *textNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if n.err != nil {
		return nil, n.err
	}
	return &driven.NormaliseResult{
		Document:  domain.Document{Content: string(raw.Content)},
		PageCount: 1,
	}, nil
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// faultyDocStore wraps the memory store and fails selected calls.
type faultyDocStore struct {
	*memory.DocumentStore
	createErr  error
	nearestErr error
	listErr    error
}

func (s *faultyDocStore) CreateDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.DocumentStore.CreateDocument(ctx, doc, chunks)
}

func (s *faultyDocStore) NearestChunks(
	ctx context.Context, query []float32, threshold float64, k int,
) ([]domain.SearchResult, error) {
	if s.nearestErr != nil {
		return nil, s.nearestErr
	}
	return s.DocumentStore.NearestChunks(ctx, query, threshold, k)
}

func (s *faultyDocStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.DocumentStore.ListDocuments(ctx)
}

// --- Fixtures ---

// passage builds a multi-sentence text of at least n characters.
func passage(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		fmt.Fprintf(&b, "Sentence %02d covers retrieval and ranking of paper text. ", i)
	}
	return b.String()
}

// pdfUpload wraps text as an uploaded PDF.
func pdfUpload(name, text string) *domain.RawDocument {
	return &domain.RawDocument{
		Filename: name,
		MIMEType: domain.MIMETypePDF,
		Content:  []byte(text),
	}
}

// chunkerPipeline returns the default chunking pipeline.
func chunkerPipeline() driven.PostProcessorPipeline {
	return postprocessors.NewPipeline(chunker.New())
}

// seedChunks stores one document whose chunks carry the given vectors.
func seedChunks(ctx context.Context, store driven.DocumentStore, id string, vectors ...[]float32) error {
	doc := &domain.Document{ID: id, Title: id + ".pdf", Source: domain.SourceUpload, Content: "text of " + id}
	chunks := make([]domain.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = domain.Chunk{
			ID:        fmt.Sprintf("%s-c%d", id, i),
			Position:  i,
			Content:   fmt.Sprintf("chunk %d of %s", i, id),
			Embedding: v,
		}
	}
	return store.CreateDocument(ctx, doc, chunks)
}

func ptr[T any](v T) *T {
	return &v
}
