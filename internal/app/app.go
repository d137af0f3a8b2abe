// Package app builds paperqa's core services from a resolved configuration.
// It is the composition root shared by every command.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/paperqa/internal/config"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/services"
	"github.com/custodia-labs/paperqa/internal/logger"
	"github.com/custodia-labs/paperqa/internal/normalisers/pdf"
	"github.com/custodia-labs/paperqa/internal/postprocessors"
)

// App holds the services of one paperqa process.
type App struct {
	Config config.Config

	Ingest   *services.IngestService
	Search   *services.SearchService
	Answer   *services.AnswerService
	Chat     *services.ChatService
	Document *services.DocumentService

	// Embedding and LLM are nil when their provider is not configured.
	Embedding driven.EmbeddingService
	LLM       driven.LLMService

	closers []func() error
}

// Build validates cfg and constructs the stores, AI clients and services.
// Missing API keys do not fail the build; the operations that need the
// provider return ErrEmbeddingUnavailable or ErrLLMUnavailable instead.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{Config: cfg}

	docStore, chatStore, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	a.Embedding, err = ai.CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}
	if a.Embedding != nil {
		a.closers = append(a.closers, a.Embedding.Close)
	} else {
		logger.Warn("embedding provider %s is not configured; ingest and search are unavailable", cfg.Embedding.Provider)
	}

	a.LLM, err = ai.CreateLLMService(&cfg.LLM)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("creating LLM service: %w", err)
	}
	if a.LLM != nil {
		a.closers = append(a.closers, a.LLM.Close)
	} else {
		logger.Warn("LLM provider %s is not configured; answers are unavailable", cfg.LLM.Provider)
	}

	pipeline, err := postprocessors.DefaultPipeline(cfg.Pipeline)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(cfg.Home, "prompts"))
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	a.Ingest = services.NewIngestService(pdf.New(), pipeline, a.Embedding, docStore,
		services.WithEmbedConcurrency(cfg.Ingest.Concurrency),
		services.WithEmbedRateLimit(cfg.Ingest.RateLimit, cfg.Ingest.Burst),
		services.WithDocumentEmbedding(cfg.Ingest.DocumentEmbedding),
	)
	a.Search = services.NewSearchService(docStore, a.Embedding, cfg.Search)
	a.Answer = services.NewAnswerService(a.Search, a.LLM,
		services.WithChatStore(chatStore),
		services.WithPromptStore(prompts),
		services.WithGeneration(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
	)
	a.Chat = services.NewChatService(chatStore)
	a.Document = services.NewDocumentService(docStore)

	logger.Debug("built services: storage=%s embedding=%s/%s llm=%s/%s",
		cfg.Storage, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.LLM.Provider, cfg.LLM.Model)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (driven.DocumentStore, driven.ChatStore, error) {
	switch a.Config.Storage {
	case domain.StorageMemory:
		docs := memory.NewDocumentStore()
		a.closers = append(a.closers, docs.Close)
		return docs, memory.NewChatStore(), nil

	case domain.StoragePostgres:
		store, err := postgres.NewStore(ctx, a.Config.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store.DocumentStore(), store.ChatStore(), nil

	default:
		store, err := sqlite.NewStore(a.Config.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Debug("sqlite database at %s", store.Path())
		a.closers = append(a.closers, store.Close)
		return store.DocumentStore(), store.ChatStore(), nil
	}
}

// Close releases the stores and AI clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
