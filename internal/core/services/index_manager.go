package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Index initialisation defaults.
const (
	DefaultInitAttempts = 3
	DefaultRetryDelay   = 2 * time.Second
	DefaultSettleDelay  = 2 * time.Second
)

const initFlightKey = "ensure-ready"

// IndexManager guarantees the search index exists before any indexing or
// retrieval. One IndexManager is shared by every session in the process.
//
// Concurrent EnsureReady calls attach to a single in-flight attempt. Once
// the index is known to exist, EnsureReady returns without a backend call.
type IndexManager struct {
	backend    driven.SearchBackend
	descriptor domain.IndexDescriptor

	maxAttempts int
	retryDelay  time.Duration
	settleDelay time.Duration

	mu     sync.RWMutex
	ready  bool
	flight singleflight.Group
}

// IndexManagerOption configures an IndexManager.
type IndexManagerOption func(*IndexManager)

// WithMaxAttempts sets how many initialisation attempts EnsureReady makes.
func WithMaxAttempts(n int) IndexManagerOption {
	return func(m *IndexManager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the pause between failed attempts.
func WithRetryDelay(d time.Duration) IndexManagerOption {
	return func(m *IndexManager) {
		if d >= 0 {
			m.retryDelay = d
		}
	}
}

// WithSettleDelay sets the wait after creating the index, giving the
// backend time to make it queryable.
func WithSettleDelay(d time.Duration) IndexManagerOption {
	return func(m *IndexManager) {
		if d >= 0 {
			m.settleDelay = d
		}
	}
}

// NewIndexManager creates a manager for the index described by descriptor.
func NewIndexManager(
	backend driven.SearchBackend,
	descriptor domain.IndexDescriptor,
	opts ...IndexManagerOption,
) *IndexManager {
	m := &IndexManager{
		backend:     backend,
		descriptor:  descriptor,
		maxAttempts: DefaultInitAttempts,
		retryDelay:  DefaultRetryDelay,
		settleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IndexName returns the name of the managed index.
func (m *IndexManager) IndexName() string {
	return m.descriptor.Name
}

// Descriptor returns the managed index schema.
func (m *IndexManager) Descriptor() domain.IndexDescriptor {
	return m.descriptor
}

// Ready reports whether the index has been confirmed to exist.
func (m *IndexManager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// EnsureReady makes sure the index exists, creating it if needed.
//
// A caller whose ctx ends stops waiting and gets ctx.Err(); the shared
// attempt keeps running for the other waiters. After the retry budget is
// spent the error is a *domain.InitializationError and the next call starts
// a fresh attempt.
func (m *IndexManager) EnsureReady(ctx context.Context) error {
	if m.Ready() {
		return nil
	}

	// The shared attempt outlives any single caller.
	attemptCtx := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(initFlightKey, func() (any, error) {
		if m.Ready() {
			return nil, nil
		}
		if err := m.initialise(attemptCtx); err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.ready = true
		m.mu.Unlock()
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *IndexManager) initialise(ctx context.Context) error {
	logger.Section("Index Initialisation")
	logger.Debug("Index: %s", m.descriptor.Name)

	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		lastErr = m.attempt(ctx)
		if lastErr == nil {
			logger.Info("Index %s ready after %d attempt(s)", m.descriptor.Name, attempt)
			return nil
		}
		logger.Warn("Index initialisation attempt %d/%d failed: %v", attempt, m.maxAttempts, lastErr)

		if attempt < m.maxAttempts {
			if err := sleep(ctx, m.retryDelay); err != nil {
				return &domain.InitializationError{Attempts: attempt, Err: err}
			}
		}
	}

	return &domain.InitializationError{Attempts: m.maxAttempts, Err: lastErr}
}

func (m *IndexManager) attempt(ctx context.Context) error {
	exists, err := m.backend.IndexExists(ctx, m.descriptor.Name)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		logger.Debug("Index %s already exists", m.descriptor.Name)
		return nil
	}

	logger.Debug("Creating index %s", m.descriptor.Name)
	err = m.backend.CreateIndex(ctx, m.descriptor)
	if errors.Is(err, domain.ErrAlreadyExists) {
		logger.Debug("Index %s was created concurrently", m.descriptor.Name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	logger.Debug("Waiting %s for index to settle", m.settleDelay)
	return sleep(ctx, m.settleDelay)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
