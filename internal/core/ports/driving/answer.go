package driving

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// AnswerService answers questions from the stored documents.
type AnswerService interface {
	// Ask retrieves relevant chunks and generates an answer grounded on them.
	// When nothing relevant is found, the answer says so and Found is false.
	Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error)
}
