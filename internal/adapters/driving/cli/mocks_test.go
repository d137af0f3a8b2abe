package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

var testTime = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

type mockIngestService struct {
	raws []domain.RawDocument
	err  error
}

func (m *mockIngestService) Ingest(_ context.Context, raw *domain.RawDocument) (*driving.IngestResult, error) {
	m.raws = append(m.raws, *raw)
	if m.err != nil {
		return nil, m.err
	}
	return &driving.IngestResult{
		Document:   domain.Document{ID: "doc-1", Title: raw.Filename, Source: raw.Source},
		ChunkCount: 3,
	}, nil
}

type mockSearchService struct {
	results []domain.SearchResult
	opts    []domain.SearchOptions
	err     error
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.opts = append(m.opts, opts)
	return m.results, m.err
}

func (m *mockSearchService) Defaults() domain.SearchOptions {
	return domain.SearchOptions{Threshold: domain.DefaultMatchThreshold, Count: domain.DefaultMatchCount}
}

type mockAnswerService struct {
	questions []string
	opts      []domain.AskOptions
	answer    *domain.Answer
	err       error
}

func (m *mockAnswerService) Ask(_ context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	m.questions = append(m.questions, question)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

type mockChatService struct {
	sessions []domain.ChatSession
	messages []domain.ChatMessage
	created  []string
	deleted  []string
	limits   []int
}

func (m *mockChatService) CreateSession(_ context.Context, id, title, userID string) (*domain.ChatSession, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return nil, domain.ErrAlreadyExists
		}
	}
	if id == "" {
		id = "session-new"
	}
	if title == "" {
		title = domain.DefaultSessionTitle
	}
	m.created = append(m.created, id)
	return &domain.ChatSession{ID: id, Title: title, UserID: userID}, nil
}

func (m *mockChatService) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockChatService) History(ctx context.Context, id string, limit int) (*domain.ChatSession, []domain.ChatMessage, error) {
	m.limits = append(m.limits, limit)
	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s, m.messages, nil
}

func (m *mockChatService) ListSessions(context.Context) ([]domain.ChatSession, error) {
	return m.sessions, nil
}

func (m *mockChatService) DeleteSession(ctx context.Context, id string) error {
	if _, err := m.GetSession(ctx, id); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockDocumentService struct {
	documents []domain.Document
	chunks    []domain.Chunk
	deleted   []string
}

func (m *mockDocumentService) List(context.Context) ([]domain.Document, error) {
	return m.documents, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return m.chunks, nil
}

func (m *mockDocumentService) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// testServices holds the mocks injected by setupTestServices.
type testServices struct {
	ingest   *mockIngestService
	search   *mockSearchService
	answer   *mockAnswerService
	chat     *mockChatService
	document *mockDocumentService
}

// setupTestServices injects mock services and an isolated home directory.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		ingest: &mockIngestService{},
		search: &mockSearchService{},
		answer: &mockAnswerService{answer: &domain.Answer{
			SessionID: "session-1",
			Text:      "Attention weighs tokens by relevance.",
			Found:     true,
			Evidence: []domain.EvidenceItem{
				{ChunkID: "c1", DocumentID: "doc-1", Title: "attention.pdf", Position: 2, Similarity: 0.91},
			},
		}},
		chat: &mockChatService{
			sessions: []domain.ChatSession{{ID: "s1", Title: "Transformers", CreatedAt: testTime, UpdatedAt: testTime}},
		},
		document: &mockDocumentService{
			documents: []domain.Document{{
				ID:        "doc-1",
				Title:     "attention.pdf",
				Source:    domain.SourceUpload,
				Content:   "Attention is all you need.",
				CreatedAt: testTime,
				Metadata:  domain.DocumentMetadata{Filename: "attention.pdf", FileSize: 2048, ChunkCount: 12},
			}},
		},
	}

	homeDir = t.TempDir()
	services = &Services{
		Ingest:   ts.ingest,
		Search:   ts.search,
		Answer:   ts.answer,
		Chat:     ts.chat,
		Document: ts.document,
	}
	built = false

	t.Cleanup(func() {
		homeDir = ""
		services = nil
		built = false
	})
	return ts
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
