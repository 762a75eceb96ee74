// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The answer pipeline is built from small parts that are wired together
// by ChatService:
//
//   - IndexManager: single-flight creation of the search index
//   - BatchIndexer: chunking and batched upload of one document
//   - Retriever: semantic passage retrieval
//   - Synthesizer: grounded, cited answer generation
//   - ExtractCitations: bracketed source references in answers
//
// Services are pure Go with no CGO.
package services
