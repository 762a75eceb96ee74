package mcp

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	session  *mockSession
	startErr error

	gotDocumentIDs []string
}

func (m *mockChatService) NewSession(documentIDs []string) (driving.ChatSession, error) {
	m.gotDocumentIDs = documentIDs
	if m.session == nil {
		return nil, m.startErr
	}
	return m.session, nil
}

func (m *mockChatService) StartSession(
	_ context.Context, documentIDs []string, _ domain.ProgressFunc,
) (driving.ChatSession, error) {
	m.gotDocumentIDs = documentIDs
	if m.session == nil {
		return nil, m.startErr
	}
	return m.session, m.startErr
}

// mockSession is a mock implementation of driving.ChatSession.
type mockSession struct {
	answer *domain.Message
	err    error
	jobs   []domain.IndexingJob

	asked  []string
	closed bool
}

func (m *mockSession) ID() string                 { return "session-1" }
func (m *mockSession) State() domain.SessionState { return domain.SessionReady }

func (m *mockSession) Start(_ context.Context, _ domain.ProgressFunc) error {
	return nil
}

func (m *mockSession) Ask(_ context.Context, question string) (*domain.Message, error) {
	m.asked = append(m.asked, question)
	return m.answer, m.err
}

func (m *mockSession) History() []domain.Message  { return nil }
func (m *mockSession) Jobs() []domain.IndexingJob { return m.jobs }
func (m *mockSession) Close()                     { m.closed = true }

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	passages []domain.RetrievedPassage
	err      error

	gotDocumentIDs []string
}

func (m *mockRetrievalService) Retrieve(ctx context.Context, question string) ([]domain.RetrievedPassage, error) {
	return m.RetrieveFrom(ctx, question, nil)
}

func (m *mockRetrievalService) RetrieveFrom(
	_ context.Context, _ string, documentIDs []string,
) ([]domain.RetrievedPassage, error) {
	m.gotDocumentIDs = documentIDs
	return m.passages, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	err       error
}

func (m *mockDocumentService) Import(_ context.Context, _ string, _ []byte, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) SupportedExtensions() []string {
	return []string{".srt", ".txt", ".vtt"}
}

func validPorts() *Ports {
	return &Ports{
		Chat:      &mockChatService{session: &mockSession{}},
		Retrieval: &mockRetrievalService{},
	}
}
