package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Answer generation defaults.
const (
	DefaultAnswerMaxTokens   = 4096
	DefaultAnswerTemperature = 0.3

	// sessionTitleLength bounds titles derived from the first question.
	sessionTitleLength = 100
)

// EmptyCompletionAnswer replaces a blank LLM completion.
const EmptyCompletionAnswer = "답변을 생성할 수 없습니다."

// AnswerService answers questions from retrieved chunks.
type AnswerService struct {
	search      driving.SearchService
	llm         driven.LLMService
	prompts     driven.PromptStore
	chats       driven.ChatStore
	maxTokens   int
	temperature float64
}

// AnswerOption configures the answer service.
type AnswerOption func(*AnswerService)

// WithChatStore logs every exchange to the given store.
func WithChatStore(store driven.ChatStore) AnswerOption {
	return func(s *AnswerService) {
		s.chats = store
	}
}

// WithPromptStore overrides the built-in prompt templates.
func WithPromptStore(store driven.PromptStore) AnswerOption {
	return func(s *AnswerService) {
		s.prompts = store
	}
}

// WithGeneration sets the completion length and sampling temperature.
func WithGeneration(maxTokens int, temperature float64) AnswerOption {
	return func(s *AnswerService) {
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
		if temperature >= 0 {
			s.temperature = temperature
		}
	}
}

// NewAnswerService creates a new answer service.
func NewAnswerService(search driving.SearchService, llm driven.LLMService, opts ...AnswerOption) *AnswerService {
	s := &AnswerService{
		search:      search,
		llm:         llm,
		maxTokens:   DefaultAnswerMaxTokens,
		temperature: DefaultAnswerTemperature,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask retrieves the chunks most similar to the question and asks the LLM
// to answer from them. When no chunk clears the threshold the canned
// no-result reply is returned with Found set to false.
func (s *AnswerService) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	logger.Section("Answer")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	searchOpts := s.search.Defaults()
	if opts.Threshold != nil {
		searchOpts.Threshold = *opts.Threshold
	}
	if opts.Count != nil {
		searchOpts.Count = *opts.Count
	}
	if err := searchOpts.Validate(); err != nil {
		return nil, err
	}

	sessionID := strings.TrimSpace(opts.SessionID)
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	if err := s.logQuestion(ctx, sessionID, question); err != nil {
		return nil, err
	}

	results, err := s.search.Search(ctx, question, searchOpts)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		logger.Info("No chunk above threshold %.2f", searchOpts.Threshold)
		text := s.prompt(driven.PromptNoResult)
		if err := s.logAnswer(ctx, sessionID, text, nil); err != nil {
			return nil, err
		}
		return &domain.Answer{
			SessionID: sessionID,
			Text:      text,
			Evidence:  []domain.EvidenceItem{},
			Found:     false,
		}, nil
	}

	logger.Debug("Generating answer from %d chunks", len(results))
	text, err := s.generate(ctx, question, results)
	if err != nil {
		return nil, err
	}

	evidence := make([]domain.EvidenceItem, len(results))
	for i, r := range results {
		evidence[i] = domain.NewEvidence(r, domain.EvidencePreviewLength)
	}

	if err := s.logAnswer(ctx, sessionID, text, evidence); err != nil {
		return nil, err
	}

	return &domain.Answer{
		SessionID: sessionID,
		Text:      text,
		Evidence:  evidence,
		Found:     true,
	}, nil
}

// generate builds the prompt and calls the LLM.
func (s *AnswerService) generate(ctx context.Context, question string, results []domain.SearchResult) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("generate answer: %w", domain.ErrLLMUnavailable)
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: s.prompt(driven.PromptAnswerSystem)},
		{Role: driven.RoleUser, Content: BuildUserPrompt(s.prompt(driven.PromptAnswerUser), question, results)},
	}

	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		return "", dependencyError(domain.ErrLLMUnavailable, "generate answer", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return EmptyCompletionAnswer, nil
	}
	return reply, nil
}

// prompt loads a template, falling back to the built-in default.
func (s *AnswerService) prompt(name string) string {
	if s.prompts != nil {
		if p, err := s.prompts.Load(name); err == nil && strings.TrimSpace(p) != "" {
			return p
		}
		logger.Warn("Prompt %q unavailable, using built-in default", name)
	}
	return driven.DefaultPrompts()[name]
}

func (s *AnswerService) logQuestion(ctx context.Context, sessionID, question string) error {
	if s.chats == nil {
		return nil
	}

	session := &domain.ChatSession{
		ID:    sessionID,
		Title: domain.TitleFromQuestion(question, sessionTitleLength),
	}
	if err := s.chats.EnsureSession(ctx, session); err != nil {
		return storageError("ensure session", err)
	}

	msg := domain.NewUserMessage(sessionID, question)
	if err := s.chats.AppendMessage(ctx, &msg); err != nil {
		return storageError("log question", err)
	}
	return nil
}

func (s *AnswerService) logAnswer(ctx context.Context, sessionID, text string, evidence []domain.EvidenceItem) error {
	if s.chats == nil {
		return nil
	}

	msg := domain.NewAssistantMessage(sessionID, text, evidence)
	if err := s.chats.AppendMessage(ctx, &msg); err != nil {
		return storageError("log answer", err)
	}
	return nil
}

// BuildUserPrompt fills the user template with the question and the
// retrieved chunks, numbered from 1 in ranked order.
func BuildUserPrompt(template, question string, results []domain.SearchResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[%d] %s", i+1, r.Chunk.Content)
	}
	return fmt.Sprintf(template, question, strings.Join(blocks, "\n\n"))
}

// NewSessionID returns a fresh chat session identifier.
func NewSessionID() string {
	return domain.SessionIDPrefix + uuid.New().String()
}
