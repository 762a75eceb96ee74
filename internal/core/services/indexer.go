package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// MaxBatchSize is the largest number of index documents sent in one upload.
const MaxBatchSize = 1000

// BatchIndexer uploads a document's chunks to the search index.
type BatchIndexer struct {
	backend   driven.SearchBackend
	manager   *IndexManager
	chunker   driven.Chunker
	batchSize int
	now       func() time.Time
}

// BatchIndexerOption configures a BatchIndexer.
type BatchIndexerOption func(*BatchIndexer)

// WithBatchSize sets the upload batch size, capped at MaxBatchSize.
func WithBatchSize(n int) BatchIndexerOption {
	return func(b *BatchIndexer) {
		if n > 0 && n <= MaxBatchSize {
			b.batchSize = n
		}
	}
}

// WithClock sets the time source used for the indexing timestamp.
func WithClock(now func() time.Time) BatchIndexerOption {
	return func(b *BatchIndexer) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBatchIndexer creates an indexer writing to the index owned by manager.
func NewBatchIndexer(
	backend driven.SearchBackend,
	manager *IndexManager,
	chunker driven.Chunker,
	opts ...BatchIndexerOption,
) *BatchIndexer {
	b := &BatchIndexer{
		backend:   backend,
		manager:   manager,
		chunker:   chunker,
		batchSize: MaxBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Index chunks doc and uploads the chunks. It returns the number of chunks
// produced, even when the upload fails part way.
func (b *BatchIndexer) Index(ctx context.Context, doc domain.Document, progress domain.ProgressFunc) (int, error) {
	chunks, err := b.chunker.Chunk(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}
	logger.Debug("Document %s: %d chunk(s) from %s", doc.ID, len(chunks), b.chunker.Name())

	return len(chunks), b.IndexDocument(ctx, doc.ID, doc.SourceName(), chunks, progress)
}

// IndexDocument uploads chunks in sequential batches, reporting progress
// after each accepted batch.
//
// The first failing batch stops the document with a *domain.IndexingError.
// A batch in which the backend rejects any item counts as failed. Batches
// accepted before the failure stay in the index.
func (b *BatchIndexer) IndexDocument(
	ctx context.Context,
	documentID, displayName string,
	chunks []domain.Chunk,
	progress domain.ProgressFunc,
) error {
	if err := b.manager.EnsureReady(ctx); err != nil {
		return err
	}

	if len(chunks) == 0 {
		report(progress, 1)
		return nil
	}

	indexedAt := b.now().UTC()
	docs := make([]domain.IndexDocument, len(chunks))
	for i, c := range chunks {
		docs[i] = domain.IndexDocument{
			ID:          c.ID,
			Content:     c.Content,
			DocumentID:  documentID,
			DisplayName: displayName,
			IndexedAt:   indexedAt,
		}
	}

	batches := (len(docs) + b.batchSize - 1) / b.batchSize
	index := b.manager.IndexName()

	for batch := 0; batch < batches; batch++ {
		start := batch * b.batchSize
		end := min(start+b.batchSize, len(docs))

		logger.Debug("Uploading batch %d/%d of %s (%d documents)", batch+1, batches, documentID, end-start)
		result, err := b.backend.UploadDocuments(ctx, index, docs[start:end])
		if err != nil {
			return &domain.IndexingError{DocumentID: documentID, Batch: batch, Err: err}
		}
		if !result.OK() {
			return &domain.IndexingError{DocumentID: documentID, Batch: batch, Err: rejected(result)}
		}

		report(progress, float64(batch+1)/float64(batches))
	}

	return nil
}

func rejected(result *driven.UploadResult) error {
	if result == nil {
		return errors.New("no upload result")
	}
	first := result.Failures[0]
	return fmt.Errorf("%d document(s) rejected, first %s: %s (status %d)",
		len(result.Failures), first.Key, first.Message, first.Status)
}

func report(progress domain.ProgressFunc, fraction float64) {
	if progress != nil {
		progress(fraction)
	}
}
