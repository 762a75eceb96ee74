// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.scribe.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with SCRIBE_* overrides
//   - PromptStore: user-editable prompt templates
package file
