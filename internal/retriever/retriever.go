package retriever

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// Candidate is a stored vector with an opaque reference.
type Candidate struct {
	// ID identifies the candidate to the caller (e.g., a chunk ID).
	ID string

	// Vector is the candidate embedding.
	Vector []float32
}

// Match is a ranked candidate.
type Match struct {
	// ID is the candidate's ID.
	ID string

	// Index is the candidate's position in the input slice.
	Index int

	// Score is the cosine similarity to the query.
	Score float64
}

// Cosine returns the cosine similarity of a and b.
// A zero-length or zero-norm vector scores 0.
func Cosine(a, b []float32) (float64, error) {
	ea, eb := domain.Embedding(a), domain.Embedding(b)
	dot, err := ea.Dot(eb)
	if err != nil {
		return 0, err
	}

	normA, normB := ea.Norm(), eb.Norm()
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (normA * normB), nil
}

// Rank scores every candidate against query and returns at most k matches
// whose score is at least threshold, most similar first. A NaN score never
// passes the threshold.
//
// Candidates with equal scores keep their input order. A candidate whose
// dimensionality differs from the query aborts ranking with
// domain.ErrDimensionMismatch. No candidate above the threshold yields an
// empty, non-nil slice.
func Rank(query []float32, candidates []Candidate, threshold float64, k int) ([]Match, error) {
	matches := make([]Match, 0, len(candidates))
	if k <= 0 {
		return matches, nil
	}

	for i, c := range candidates {
		score, err := Cosine(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
		// NaN compares false, so it never passes.
		if !(score >= threshold) {
			continue
		}
		matches = append(matches, Match{ID: c.ID, Index: i, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
