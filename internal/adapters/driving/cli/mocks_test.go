package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

// mockDocumentService implements driving.DocumentService.
type mockDocumentService struct {
	mu        sync.Mutex
	documents []domain.Document
	err       error
	imported  []string
	deleted   []string
}

func (m *mockDocumentService) Import(_ context.Context, filename string, data []byte, displayName string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.imported = append(m.imported, filename)
	name := displayName
	if name == "" {
		name = filename
	}
	doc := domain.Document{
		ID:          fmt.Sprintf("doc-%d", len(m.documents)+1),
		DisplayName: name,
		FullText:    string(data),
	}
	m.documents = append(m.documents, doc)
	return &doc, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, documentID string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == documentID {
			doc := m.documents[i]
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := m.Get(ctx, documentID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockDocumentService) SupportedExtensions() []string {
	return []string{".srt", ".txt", ".vtt"}
}

func (m *mockDocumentService) importedFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.imported...)
}

// mockIndexService implements driving.IndexService.
type mockIndexService struct {
	ensureErr error
	jobs      []domain.IndexingJob
	err       error
	ensured   bool
	indexed   []string
}

func (m *mockIndexService) EnsureReady(_ context.Context) error {
	m.ensured = true
	return m.ensureErr
}

func (m *mockIndexService) IndexDocuments(
	_ context.Context, documentIDs []string, progress domain.ProgressFunc,
) ([]domain.IndexingJob, error) {
	m.indexed = documentIDs
	if progress != nil {
		progress(0.5)
		progress(1)
	}
	return m.jobs, m.err
}

// mockChatService implements driving.ChatService.
type mockChatService struct {
	session  *mockSession
	startErr error

	gotDocumentIDs []string
}

func (m *mockChatService) NewSession(documentIDs []string) (driving.ChatSession, error) {
	m.gotDocumentIDs = documentIDs
	return m.session, nil
}

func (m *mockChatService) StartSession(
	_ context.Context, documentIDs []string, progress domain.ProgressFunc,
) (driving.ChatSession, error) {
	m.gotDocumentIDs = documentIDs
	if progress != nil {
		progress(1)
	}
	if m.session == nil {
		return nil, m.startErr
	}
	return m.session, m.startErr
}

// mockSession implements driving.ChatSession. Answers are returned in order;
// when they run out the last one repeats.
type mockSession struct {
	answers []*domain.Message
	errs    []error
	jobs    []domain.IndexingJob

	asked   []string
	history []domain.Message
	closed  bool
}

func (m *mockSession) ID() string                 { return "session-1" }
func (m *mockSession) State() domain.SessionState { return domain.SessionReady }

func (m *mockSession) Start(_ context.Context, _ domain.ProgressFunc) error {
	return nil
}

func (m *mockSession) Ask(_ context.Context, question string) (*domain.Message, error) {
	i := len(m.asked)
	m.asked = append(m.asked, question)
	m.history = append(m.history, domain.Message{Role: domain.RoleUser, Content: question})

	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if len(m.answers) == 0 {
		return &domain.Message{Role: domain.RoleAssistant, Content: "I don't know."}, nil
	}
	msg := m.answers[min(i, len(m.answers)-1)]
	m.history = append(m.history, *msg)
	return msg, nil
}

func (m *mockSession) History() []domain.Message  { return m.history }
func (m *mockSession) Jobs() []domain.IndexingJob { return m.jobs }
func (m *mockSession) Close()                     { m.closed = true }

// mockRetrievalService implements driving.RetrievalService.
type mockRetrievalService struct {
	passages []domain.RetrievedPassage
	err      error
}

func (m *mockRetrievalService) Retrieve(ctx context.Context, question string) ([]domain.RetrievedPassage, error) {
	return m.RetrieveFrom(ctx, question, nil)
}

func (m *mockRetrievalService) RetrieveFrom(_ context.Context, _ string, _ []string) ([]domain.RetrievedPassage, error) {
	return m.passages, m.err
}

// mockSettingsService implements driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	values      map[string]string
	setErr      error
	validateErr error
	llmErr      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		values:   make(map[string]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"search.endpoint", "search.api_key", "llm.provider"}
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.llmErr
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	documents *mockDocumentService
	index     *mockIndexService
	chat      *mockChatService
	session   *mockSession
	retrieval *mockRetrievalService
	settings  *mockSettingsService
}

func testDocuments() []domain.Document {
	return []domain.Document{
		{
			ID:          "doc-1",
			DisplayName: "Weekly sync",
			FullText:    "Alice: the launch moves to May. Bob: agreed.",
			Language:    "en-US",
			CreatedAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:          "doc-2",
			DisplayName: "Board call",
			FullText:    "Carol: budget approved.",
			CreatedAt:   time.Date(2024, 3, 2, 15, 30, 0, 0, time.UTC),
		},
	}
}

// setupTestServices installs mock services and resets command flags.
// The returned func restores the previous state.
func setupTestServices() (*testServices, func()) {
	session := &mockSession{}
	ts := &testServices{
		documents: &mockDocumentService{documents: testDocuments()},
		index:     &mockIndexService{},
		chat:      &mockChatService{session: session},
		session:   session,
		retrieval: &mockRetrievalService{},
		settings:  newMockSettingsService(),
	}

	oldBootstrap := bootstrap
	bootstrap = nil
	resetFlags()
	SetServices(&Services{
		Document:  ts.documents,
		Index:     ts.index,
		Chat:      ts.chat,
		Retrieval: ts.retrieval,
		Settings:  ts.settings,
	})

	return ts, func() {
		SetServices(nil)
		bootstrap = oldBootstrap
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

func resetFlags() {
	importName = ""
	watchDir = ""
	showFull = false
	askDocIDs = nil
	askJSON = false
	chatDocIDs = nil
	tuiDocIDs = nil
}
