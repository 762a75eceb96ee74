package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockSearchBackend implements driven.SearchBackend for testing.
type mockSearchBackend struct {
	mu sync.Mutex

	exists    bool
	existsErr []error // consumed one per IndexExists call
	createErr error
	// createGate, when set, blocks CreateIndex until closed.
	createGate chan struct{}

	uploadFn func(docs []domain.IndexDocument) (*driven.UploadResult, error)
	uploads  [][]domain.IndexDocument

	hits     []driven.SearchHit
	queryErr error
	queries  []driven.SearchQuery

	existsCalls atomic.Int32
	createCalls atomic.Int32
}

func (m *mockSearchBackend) IndexExists(_ context.Context, _ string) (bool, error) {
	m.existsCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.existsErr) > 0 {
		err := m.existsErr[0]
		m.existsErr = m.existsErr[1:]
		if err != nil {
			return false, err
		}
	}
	return m.exists, nil
}

func (m *mockSearchBackend) CreateIndex(_ context.Context, _ domain.IndexDescriptor) error {
	m.createCalls.Add(1)
	if m.createGate != nil {
		<-m.createGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.exists = true
	return nil
}

func (m *mockSearchBackend) UploadDocuments(
	_ context.Context, _ string, docs []domain.IndexDocument,
) (*driven.UploadResult, error) {
	m.mu.Lock()
	batch := make([]domain.IndexDocument, len(docs))
	copy(batch, docs)
	m.uploads = append(m.uploads, batch)
	fn := m.uploadFn
	m.mu.Unlock()

	if fn != nil {
		return fn(docs)
	}
	return &driven.UploadResult{Succeeded: len(docs)}, nil
}

func (m *mockSearchBackend) Query(_ context.Context, _ string, q driven.SearchQuery) (*driven.SearchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return &driven.SearchResponse{Hits: m.hits}, nil
}

func (m *mockSearchBackend) Close() error {
	return nil
}

func (m *mockSearchBackend) uploadBatches() [][]domain.IndexDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	// block, when set, holds Chat until closed.
	block chan struct{}
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.messages = messages
	m.opts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-model"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

func (m *mockLLMService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// mockLLMValidator implements driven.LLMConfigValidator for testing.
type mockLLMValidator struct {
	err    error
	called bool
}

func (m *mockLLMValidator) ValidateLLM(_ *domain.LLMSettings) error {
	m.called = true
	return m.err
}

// mockNormaliser implements driven.Normaliser for testing.
type mockNormaliser struct {
	exts []string
	doc  *domain.Document
	err  error
}

func (m *mockNormaliser) SupportedExtensions() []string {
	return m.exts
}

func (m *mockNormaliser) Normalise(_ context.Context, _ string, _ []byte) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	doc := *m.doc
	return &doc, nil
}

// newTestManager returns an IndexManager with no delays.
func newTestManager(backend driven.SearchBackend, opts ...IndexManagerOption) *IndexManager {
	opts = append([]IndexManagerOption{WithRetryDelay(0), WithSettleDelay(0)}, opts...)
	return NewIndexManager(backend, domain.NewIndexDescriptor("transcripts", ""), opts...)
}
