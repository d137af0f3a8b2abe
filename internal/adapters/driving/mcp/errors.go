// Package mcp provides an MCP (Model Context Protocol) server adapter for paperqa.
// It lets AI assistants ask questions against the ingested papers and browse them.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/logger"
)

var (
	// ErrMissingAnswerService is returned when the answer service is not provided.
	ErrMissingAnswerService = errors.New("mcp: answer service is required")

	// ErrMissingSearchService is returned when the search service is not provided.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrInternal replaces failures whose detail stays in the server log.
	ErrInternal = errors.New("internal error")
)

// dependencyErrors are the categories a client may learn about.
var dependencyErrors = []error{
	domain.ErrEmbeddingUnavailable,
	domain.ErrLLMUnavailable,
	domain.ErrStorageUnavailable,
}

// clientError returns err as the client should see it. Validation, lookup
// and cancellation errors keep their message. Anything else is logged and
// reduced to its category.
func clientError(op string, err error) error {
	if domain.IsValidation(err) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrAlreadyExists) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Error("mcp %s: %v", op, err)
	for _, category := range dependencyErrors {
		if errors.Is(err, category) {
			return fmt.Errorf("%s: %w", op, category)
		}
	}
	return fmt.Errorf("%s: %w", op, ErrInternal)
}
