// Package chunker provides a sentence-aligned text chunker.
package chunker

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// DefaultMaxSize is the default maximum number of characters per chunk.
const DefaultMaxSize = 1000

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits document text into chunks along sentence boundaries.
type Processor struct {
	maxSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxSize sets the maximum chunk size in characters.
func WithMaxSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.maxSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxSize: DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "sentence-chunker"
}

// MaxSize returns the configured maximum chunk size.
func (p *Processor) MaxSize() int {
	return p.maxSize
}

// Chunk splits the document's full text into chunks with stable ordinals.
func (p *Processor) Chunk(_ context.Context, doc domain.Document) ([]domain.Chunk, error) {
	contents := Split(doc.FullText, p.maxSize)
	if len(contents) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Ordinal:    i,
			Content:    content,
		}
	}
	return chunks, nil
}

// Split packs the sentences of text greedily into chunks of at most maxSize
// characters. Sentences inside a chunk are joined by a single space.
//
// A sentence longer than maxSize is emitted verbatim as its own chunk; it is
// never truncated or split. Empty or whitespace-only text yields no chunks.
// A maxSize of zero or less selects DefaultMaxSize.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	var chunks []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen == 0 {
			return
		}
		chunks = append(chunks, buf.String())
		buf.Reset()
		bufLen = 0
	}

	for _, sentence := range Sentences(text) {
		n := utf8.RuneCountInString(sentence)
		if bufLen > 0 && bufLen+1+n > maxSize {
			flush()
		}
		if bufLen > 0 {
			buf.WriteByte(' ')
			bufLen++
		}
		buf.WriteString(sentence)
		bufLen += n
	}
	flush()

	return chunks
}

// Sentences segments text into trimmed, non-empty sentences.
// A sentence ends at '.', '!' or '?' followed by whitespace. Text without
// terminal punctuation is a single sentence.
func Sentences(text string) []string {
	var sentences []string
	start := 0

	emit := func(end int) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i, r := range text {
		if !isTerminal(r) {
			continue
		}
		next, _ := utf8.DecodeRuneInString(text[i+1:])
		if next != utf8.RuneError && unicode.IsSpace(next) {
			emit(i + 1)
		}
	}
	emit(len(text))

	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
