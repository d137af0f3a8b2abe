package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyQuestion indicates a question or query was blank.
	ErrEmptyQuestion = fmt.Errorf("%w: question is required", ErrInvalidInput)

	// ErrUnsupportedType indicates an upload that is not a PDF.
	ErrUnsupportedType = fmt.Errorf("%w: only PDF files are supported", ErrInvalidInput)

	// ErrNoExtractableText indicates the PDF yielded no usable text.
	ErrNoExtractableText = fmt.Errorf("%w: could not extract text from PDF", ErrInvalidInput)

	// ErrUploadTooLarge indicates the upload exceeds the configured size limit.
	ErrUploadTooLarge = fmt.Errorf("%w: file too large", ErrInvalidInput)

	// ErrDimensionMismatch indicates two embeddings of different length were compared.
	// This is a configuration or data corruption bug and is never filtered silently.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrLLMUnavailable indicates the text generation call failed or is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding call failed or is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStorageUnavailable indicates a storage read or write failed.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IsValidation reports whether err is a caller input error.
// Validation errors are reported to the caller verbatim and never retried.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
