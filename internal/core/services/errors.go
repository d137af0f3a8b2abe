package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// passThrough lists errors that keep their identity when a store returns them.
var passThrough = []error{
	domain.ErrNotFound,
	domain.ErrAlreadyExists,
	domain.ErrInvalidInput,
	domain.ErrDimensionMismatch,
	context.Canceled,
	context.DeadlineExceeded,
}

func isPassThrough(err error) bool {
	for _, target := range passThrough {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// storageError wraps a store failure with ErrStorageUnavailable unless it
// is a lookup, validation, dimension or cancellation error.
func storageError(op string, err error) error {
	if isPassThrough(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

// dependencyError wraps an AI service failure with the given sentinel.
func dependencyError(sentinel error, op string, err error) error {
	if isPassThrough(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel, err)
}
