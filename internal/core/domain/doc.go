// Package domain defines the core business entities for Scribe.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A transcribed audio document
//   - Chunk: A sentence-aligned retrievable unit within a document
//   - IndexDescriptor: The search index schema and semantic configuration
//   - RetrievedPassage: A ranked passage returned for a question
//   - Message: One turn of a chat session's history
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
