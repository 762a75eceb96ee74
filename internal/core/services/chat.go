package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Ensure ChatService and chatSession implement the interfaces.
var (
	_ driving.ChatService = (*ChatService)(nil)
	_ driving.ChatSession = (*chatSession)(nil)
)

// ChatService creates chat sessions. Every session shares the same
// IndexManager, so index initialisation happens once per process.
type ChatService struct {
	docStore    driven.DocumentStore
	manager     *IndexManager
	indexer     *BatchIndexer
	retriever   *Retriever
	synthesizer *Synthesizer
	now         func() time.Time
}

// NewChatService creates a new chat service.
func NewChatService(
	docStore driven.DocumentStore,
	manager *IndexManager,
	indexer *BatchIndexer,
	retriever *Retriever,
	synthesizer *Synthesizer,
) *ChatService {
	return &ChatService{
		docStore:    docStore,
		manager:     manager,
		indexer:     indexer,
		retriever:   retriever,
		synthesizer: synthesizer,
		now:         time.Now,
	}
}

// NewSession creates an idle session over the given documents.
// Blank IDs are rejected and duplicates are dropped.
func (s *ChatService) NewSession(documentIDs []string) (driving.ChatSession, error) {
	return s.newSession(documentIDs)
}

// StartSession creates a session and indexes its documents before returning.
// The session is returned even when index initialisation fails; in that case
// every job is failed and the error is returned alongside.
func (s *ChatService) StartSession(
	ctx context.Context, documentIDs []string, progress domain.ProgressFunc,
) (driving.ChatSession, error) {
	session, err := s.newSession(documentIDs)
	if err != nil {
		return nil, err
	}
	return session, session.Start(ctx, progress)
}

func (s *ChatService) newSession(documentIDs []string) (*chatSession, error) {
	ids := make([]string, 0, len(documentIDs))
	seen := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: blank document id", domain.ErrInvalidInput)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return &chatSession{
		id:          uuid.NewString(),
		service:     s,
		documentIDs: ids,
		state:       domain.SessionIdle,
		jobs:        pendingJobs(ids),
	}, nil
}

// chatSession is one conversation over a fixed document selection.
// A single mutex guards state, history and jobs; backend calls run
// without it held.
type chatSession struct {
	id          string
	service     *ChatService
	documentIDs []string

	mu      sync.Mutex
	state   domain.SessionState
	history []domain.Message
	jobs    []domain.IndexingJob
}

func (c *chatSession) ID() string {
	return c.id
}

func (c *chatSession) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start moves Idle to Indexing, indexes every selected document in order
// and ends in Ready. Calling Start on a Ready session is a no-op.
func (c *chatSession) Start(ctx context.Context, progress domain.ProgressFunc) error {
	c.mu.Lock()
	switch c.state {
	case domain.SessionClosed:
		c.mu.Unlock()
		return domain.ErrSessionClosed
	case domain.SessionReady:
		c.mu.Unlock()
		return nil
	case domain.SessionIndexing, domain.SessionQuerying:
		c.mu.Unlock()
		return domain.ErrSessionBusy
	}
	c.state = domain.SessionIndexing
	c.mu.Unlock()

	logger.Section("Chat Session")
	logger.Debug("Session %s: %d document(s)", c.id, len(c.documentIDs))

	if len(c.documentIDs) == 0 {
		c.becomeReady()
		report(progress, 1)
		return nil
	}

	if err := c.service.manager.EnsureReady(ctx); err != nil {
		logger.Warn("Session %s: index unavailable: %v", c.id, err)
		c.mu.Lock()
		failJobs(c.jobs, err)
		c.mu.Unlock()
		c.becomeReady()
		return err
	}

	indexSequentially(ctx, c.service.docStore, c.service.indexer, c.documentIDs, progress,
		func(i int, job domain.IndexingJob) {
			c.mu.Lock()
			c.jobs[i] = job
			c.mu.Unlock()
		})

	c.becomeReady()
	return nil
}

// Ask answers question from the indexed documents. The user message stays
// in the history even when answering fails; the assistant message is only
// appended on success.
func (c *chatSession) Ask(ctx context.Context, question string) (*domain.Message, error) {
	c.mu.Lock()
	switch c.state {
	case domain.SessionClosed:
		c.mu.Unlock()
		return nil, domain.ErrSessionClosed
	case domain.SessionIdle:
		c.mu.Unlock()
		return nil, domain.ErrSessionNotReady
	case domain.SessionIndexing, domain.SessionQuerying:
		c.mu.Unlock()
		return nil, domain.ErrSessionBusy
	}

	question = strings.TrimSpace(question)
	if question == "" {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	prior := make([]domain.Message, len(c.history))
	copy(prior, c.history)
	c.history = append(c.history, domain.Message{
		Role:      domain.RoleUser,
		Content:   question,
		CreatedAt: c.service.now(),
	})
	c.state = domain.SessionQuerying
	c.mu.Unlock()

	answer, passages, err := c.answer(ctx, question, prior)
	if err != nil {
		logger.Warn("Session %s: question failed: %v", c.id, err)
		c.becomeReady()
		return nil, err
	}

	msg := domain.Message{
		Role:           domain.RoleAssistant,
		Content:        answer,
		Citations:      ExtractCitations(answer),
		SourcePassages: passages,
		CreatedAt:      c.service.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == domain.SessionClosed {
		return nil, domain.ErrSessionClosed
	}
	c.history = append(c.history, msg)
	c.state = domain.SessionReady

	reply := msg.Clone()
	return &reply, nil
}

func (c *chatSession) answer(
	ctx context.Context, question string, prior []domain.Message,
) (string, []domain.RetrievedPassage, error) {
	passages, err := c.service.retriever.RetrieveFrom(ctx, question, c.documentIDs)
	if err != nil {
		return "", nil, err
	}
	answer, err := c.service.synthesizer.Synthesize(ctx, question, prior, passages)
	if err != nil {
		return "", nil, err
	}
	return answer, passages, nil
}

func (c *chatSession) History() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := make([]domain.Message, len(c.history))
	for i, m := range c.history {
		history[i] = m.Clone()
	}
	return history
}

func (c *chatSession) Jobs() []domain.IndexingJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	jobs := make([]domain.IndexingJob, len(c.jobs))
	copy(jobs, c.jobs)
	return jobs
}

func (c *chatSession) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = domain.SessionClosed
	c.history = nil
	logger.Debug("Session %s closed", c.id)
}

// becomeReady moves the session to Ready unless it was closed meanwhile.
func (c *chatSession) becomeReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.SessionClosed {
		c.state = domain.SessionReady
	}
}
