// Package sqlite provides a SQLite-based implementation of the document
// and chat store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file backs both stores:
//
//   - DocumentStore: documents, chunks and their embeddings
//   - ChatStore: chat sessions and the message log
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Similarity Search
//
// Embeddings are stored as little-endian float32 blobs. NearestChunks loads
// every chunk vector and ranks them with the retriever package, which is
// adequate for a personal paper library.
//
// # Data Location
//
// By default, the database is stored at ~/.paperqa/data/paperqa.db
package sqlite
