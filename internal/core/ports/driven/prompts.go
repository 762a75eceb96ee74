package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswerSystem is the system instruction for answer synthesis.
	// Every LanguagePlaceholder in the template is replaced by the answer
	// language; the rest of the text is used verbatim.
	PromptAnswerSystem = "answer_system"

	// PromptNoResults is returned verbatim when retrieval finds nothing.
	// This prompt has no placeholders.
	PromptNoResults = "no_results"
)

// LanguagePlaceholder marks where the answer language goes in PromptAnswerSystem.
const LanguagePlaceholder = "{{language}}"

// DefaultAnswerSystemPrompt is the built-in answer synthesis instruction.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultAnswerSystemPrompt = `You are Scribe, an assistant that answers questions about transcribed audio recordings.

Answer in {{language}}.
Use only the information in the sources provided with the question. Each source passage starts with its source name in square brackets.
Cite sources using the bracketed source name form, for example [weekly_sync]. Place the citation right after the statement it supports.
If the sources do not contain the answer, say that you could not find it. Do not invent facts.`

// DefaultNoResultsAnswer is the built-in reply when retrieval finds nothing.
const DefaultNoResultsAnswer = "I couldn't find any relevant information in the selected documents to answer that question."
