// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SearchBackend: Semantic search service holding the transcript index
//   - LLMService: Completion backend used to synthesise answers
//   - DocumentStore: Read access to transcribed documents
//   - Chunker: Splits document text into retrievable units
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PromptStore: User-editable prompt templates. Without it, built-in prompts are used.
//   - Normaliser: Turns transcript files into documents. Only used by import.
//   - LLMConfigValidator: Connectivity check used by the settings commands.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
