// Package domain defines the core business entities for paperqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded paper with its extracted text
//   - Chunk: An embedded, retrievable window of a document
//   - Embedding: A fixed-dimension vector and its binary encoding
//   - ChatSession / ChatMessage: The append-only question log
//   - EvidenceItem: A retrieved chunk shown alongside an answer
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
