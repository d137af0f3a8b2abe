package domain

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Embedding is a fixed-dimension vector representing the meaning of a text span.
type Embedding []float32

// Dimensions returns the vector length.
func (e Embedding) Dimensions() int {
	return len(e)
}

// Norm returns the Euclidean length of the vector.
func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of e and other.
// Returns ErrDimensionMismatch if the vectors differ in length.
func (e Embedding) Dot(other Embedding) (float64, error) {
	if err := CheckDimensions(e, other); err != nil {
		return 0, err
	}
	var sum float64
	for i := range e {
		sum += float64(e[i]) * float64(other[i])
	}
	return sum, nil
}

// Validate checks the vector is non-empty, finite and, when dim > 0, of length dim.
func (e Embedding) Validate(dim int) error {
	if len(e) == 0 {
		return fmt.Errorf("%w: empty embedding", ErrInvalidInput)
	}
	if dim > 0 && len(e) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(e), dim)
	}
	for i, v := range e {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}

// MarshalBinary encodes the vector as little-endian float32 values.
func (e Embedding) MarshalBinary() ([]byte, error) {
	buf := make([]byte, len(e)*4)
	for i, v := range e {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf, nil
}

// UnmarshalEmbedding decodes a vector written by MarshalBinary.
// A nil or empty input yields a nil Embedding.
func UnmarshalEmbedding(data []byte) (Embedding, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: embedding blob length %d is not a multiple of 4", ErrInvalidInput, len(data))
	}
	e := make(Embedding, len(data)/4)
	for i := range e {
		e[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return e, nil
}

// CheckDimensions returns ErrDimensionMismatch when a and b differ in length.
func CheckDimensions(a, b Embedding) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	return nil
}
