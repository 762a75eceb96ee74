// Package memory provides an in-process search backend.
//
// Documents are ranked by lexical overlap between the question and the
// searchable fields (Ochiai coefficient over word sets). It needs no
// network access and backs tests and the "memory" search provider.
package memory

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.SearchBackend = (*Backend)(nil)

var (
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

type index struct {
	descriptor domain.IndexDescriptor
	docs       map[string]domain.IndexDocument
}

// Backend is an in-memory driven.SearchBackend.
type Backend struct {
	mu      sync.RWMutex
	indexes map[string]*index
	creates int
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		indexes: make(map[string]*index),
	}
}

// IndexExists reports whether the named index has been created.
func (b *Backend) IndexExists(_ context.Context, name string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.indexes[name]
	return ok, nil
}

// CreateIndex creates an empty index.
func (b *Backend) CreateIndex(_ context.Context, desc domain.IndexDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("%w: index name is required", domain.ErrInvalidInput)
	}
	if desc.KeyField() == "" {
		return fmt.Errorf("%w: index %s has no key field", domain.ErrInvalidInput, desc.Name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates++
	if _, ok := b.indexes[desc.Name]; ok {
		return fmt.Errorf("index %s: %w", desc.Name, domain.ErrAlreadyExists)
	}
	b.indexes[desc.Name] = &index{
		descriptor: desc,
		docs:       make(map[string]domain.IndexDocument),
	}
	return nil
}

// CreateCalls returns how many create requests were received.
func (b *Backend) CreateCalls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.creates
}

// UploadDocuments merges documents into the index by key. Documents
// without a key are rejected individually.
func (b *Backend) UploadDocuments(
	_ context.Context, name string, docs []domain.IndexDocument,
) (*driven.UploadResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx, ok := b.indexes[name]
	if !ok {
		return nil, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
	}

	result := &driven.UploadResult{}
	for _, d := range docs {
		if d.ID == "" {
			result.Failures = append(result.Failures, driven.UploadFailure{
				Status:  http.StatusBadRequest,
				Message: "document key is missing",
			})
			continue
		}
		idx.docs[d.ID] = d
		result.Succeeded++
	}
	return result, nil
}

// Count returns the number of documents in the named index.
func (b *Backend) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if idx, ok := b.indexes[name]; ok {
		return len(idx.docs)
	}
	return 0
}

// Query ranks the index documents against q.Text. Documents sharing no
// words with the question are not returned.
func (b *Backend) Query(_ context.Context, name string, q driven.SearchQuery) (*driven.SearchResponse, error) {
	b.mu.RLock()
	idx, ok := b.indexes[name]
	if !ok {
		b.mu.RUnlock()
		return nil, &domain.SearchError{
			Status: http.StatusNotFound,
			Detail: fmt.Sprintf("The index '%s' was not found.", name),
		}
	}
	docs := make([]domain.IndexDocument, 0, len(idx.docs))
	for _, d := range idx.docs {
		docs = append(docs, d)
	}
	b.mu.RUnlock()

	question := wordSet(q.Text)
	allowed := make(map[string]bool, len(q.DocumentIDs))
	for _, id := range q.DocumentIDs {
		allowed[id] = true
	}

	var hits []driven.SearchHit
	for _, d := range docs {
		if len(allowed) > 0 && !allowed[d.DocumentID] {
			continue
		}
		score := ochiai(question, wordSet(searchable(d, q.SearchFields)))
		if score <= 0 {
			continue
		}
		hit := driven.SearchHit{
			ID:          d.ID,
			Content:     d.Content,
			DocumentID:  d.DocumentID,
			DisplayName: d.DisplayName,
			Score:       score,
		}
		if q.Captions {
			if caption := bestSentence(question, d.Content); caption != "" {
				hit.Captions = []string{caption}
			}
		}
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if q.Top > 0 && len(hits) > q.Top {
		hits = hits[:q.Top]
	}
	if hits == nil {
		hits = []driven.SearchHit{}
	}
	return &driven.SearchResponse{Hits: hits}, nil
}

// Close releases resources.
func (b *Backend) Close() error {
	return nil
}

func searchable(d domain.IndexDocument, fields []string) string {
	if len(fields) == 0 {
		return d.Content
	}
	var parts []string
	for _, f := range fields {
		switch f {
		case domain.FieldContent:
			parts = append(parts, d.Content)
		case domain.FieldDisplayName:
			parts = append(parts, d.DisplayName)
		}
	}
	return strings.Join(parts, " ")
}

func wordSet(s string) map[string]struct{} {
	words := wordPattern.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ochiai returns |A∩B| / sqrt(|A||B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	return float64(shared) / math.Sqrt(float64(len(a))*float64(len(b)))
}

func bestSentence(question map[string]struct{}, content string) string {
	best, bestScore := "", 0.0
	for _, s := range sentencePattern.FindAllString(content, -1) {
		s = strings.TrimSpace(s)
		if score := ochiai(question, wordSet(s)); score > bestScore {
			best, bestScore = s, score
		}
	}
	return best
}
