// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Document and chunk persistence plus similarity search
//   - EmbeddingService: Generates vector embeddings for chunks and questions
//   - LLMService: Generates answers from retrieved context
//   - Normaliser: Extracts text from uploaded files
//   - PostProcessor: Splits documents into chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ChatStore: Without it, questions are answered but not logged.
//   - PromptStore: Without it, built-in prompt templates are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
