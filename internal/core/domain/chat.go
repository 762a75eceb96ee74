package domain

import (
	"strings"
	"time"
)

// Role identifies the author of a chat message.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RetrievedPassage is one ranked passage returned by the retriever.
type RetrievedPassage struct {
	// Content is the passage text.
	Content string

	// SourceName is the attribution shown in citations (the document display name).
	SourceName string

	// DocumentID is the owning document.
	DocumentID string

	// Score is the backend relevance score.
	Score float64

	// Captions holds extractive highlights, when the backend provides them.
	Captions []string
}

// Message is one entry of a chat session's history.
// Messages are never mutated once appended.
type Message struct {
	Role    Role
	Content string

	// Citations are the bracketed source references found in Content, in order.
	Citations []string

	// SourcePassages are the passages the answer was grounded in.
	SourcePassages []RetrievedPassage

	CreatedAt time.Time
}

// Clone returns a copy of m that shares no slices with it.
func (m Message) Clone() Message {
	c := m
	if m.Citations != nil {
		c.Citations = append([]string(nil), m.Citations...)
	}
	if m.SourcePassages != nil {
		c.SourcePassages = make([]RetrievedPassage, len(m.SourcePassages))
		for i, p := range m.SourcePassages {
			if p.Captions != nil {
				p.Captions = append([]string(nil), p.Captions...)
			}
			c.SourcePassages[i] = p
		}
	}
	return c
}

// Sources resolves the message's citations against its source passages.
func (m Message) Sources() []Citation {
	return ResolveCitations(m.Citations, m.SourcePassages)
}

// Citation maps one citation label to the passages it refers to.
type Citation struct {
	Label    string
	Passages []RetrievedPassage
}

// Found reports whether the label matched any passage.
func (c Citation) Found() bool {
	return len(c.Passages) > 0
}

// ResolveCitations maps each distinct citation to the passages whose source
// name matches it, in first-appearance order. Matching ignores case and
// surrounding whitespace. Citations with no matching passage are kept with
// no passages.
func ResolveCitations(citations []string, passages []RetrievedPassage) []Citation {
	seen := make(map[string]bool, len(citations))
	resolved := make([]Citation, 0, len(citations))

	for _, label := range citations {
		key := normaliseLabel(label)
		if seen[key] {
			continue
		}
		seen[key] = true

		c := Citation{Label: label}
		for _, p := range passages {
			if normaliseLabel(p.SourceName) == key {
				c.Passages = append(c.Passages, p)
			}
		}
		resolved = append(resolved, c)
	}
	return resolved
}

func normaliseLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// JobState is the state of a per-document indexing job.
type JobState string

// Indexing job states.
const (
	JobPending  JobState = "pending"
	JobIndexing JobState = "indexing"
	JobIndexed  JobState = "indexed"
	JobFailed   JobState = "failed"
)

// IndexingJob tracks one document through a session's indexing phase.
type IndexingJob struct {
	DocumentID  string
	DisplayName string
	State       JobState

	// Chunks is the number of chunks produced for the document.
	Chunks int

	// Reason is set when State is JobFailed.
	Reason string
}

// Done reports whether the job has finished, successfully or not.
func (j IndexingJob) Done() bool {
	return j.State == JobIndexed || j.State == JobFailed
}

// SessionState is the state of a chat session.
type SessionState string

// Chat session states.
const (
	SessionIdle     SessionState = "idle"
	SessionIndexing SessionState = "indexing"
	SessionReady    SessionState = "ready"
	SessionQuerying SessionState = "querying"
	SessionClosed   SessionState = "closed"
)

// String returns the string representation.
func (s SessionState) String() string {
	return string(s)
}

// ProgressFunc receives a completion fraction in [0, 1].
type ProgressFunc func(fraction float64)
