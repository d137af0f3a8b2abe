// Package retriever ranks stored chunk embeddings against a query embedding.
//
// Ranking is pure and synchronous: cosine similarity, a stable descending
// sort, a similarity floor and a result cap. Stores without a native vector
// operator (SQLite, memory) load candidates and rank them here.
package retriever
