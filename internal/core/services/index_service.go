package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService indexes stored documents outside of a chat session.
type IndexService struct {
	docStore driven.DocumentStore
	manager  *IndexManager
	indexer  *BatchIndexer
}

// NewIndexService creates a new index service.
func NewIndexService(docStore driven.DocumentStore, manager *IndexManager, indexer *BatchIndexer) *IndexService {
	return &IndexService{
		docStore: docStore,
		manager:  manager,
		indexer:  indexer,
	}
}

// EnsureReady creates the index if needed.
func (s *IndexService) EnsureReady(ctx context.Context) error {
	return s.manager.EnsureReady(ctx)
}

// IndexDocuments indexes documents one after another. Only an index
// initialisation failure is returned; it marks every job failed.
func (s *IndexService) IndexDocuments(
	ctx context.Context, documentIDs []string, progress domain.ProgressFunc,
) ([]domain.IndexingJob, error) {
	jobs := pendingJobs(documentIDs)
	if len(jobs) == 0 {
		report(progress, 1)
		return jobs, nil
	}

	if err := s.manager.EnsureReady(ctx); err != nil {
		failJobs(jobs, err)
		return jobs, err
	}

	indexSequentially(ctx, s.docStore, s.indexer, documentIDs, progress, func(i int, job domain.IndexingJob) {
		jobs[i] = job
	})
	return jobs, nil
}

func pendingJobs(documentIDs []string) []domain.IndexingJob {
	jobs := make([]domain.IndexingJob, len(documentIDs))
	for i, id := range documentIDs {
		jobs[i] = domain.IndexingJob{DocumentID: id, State: domain.JobPending}
	}
	return jobs
}

func failJobs(jobs []domain.IndexingJob, err error) {
	for i := range jobs {
		jobs[i].State = domain.JobFailed
		jobs[i].Reason = err.Error()
	}
}

// indexSequentially loads and indexes each document in order. A failure
// marks that job failed and moves on to the next document. update receives
// every job transition; progress is reported monotonically.
func indexSequentially(
	ctx context.Context,
	store driven.DocumentStore,
	indexer *BatchIndexer,
	documentIDs []string,
	progress domain.ProgressFunc,
	update func(i int, job domain.IndexingJob),
) {
	logger.Section("Indexing")
	logger.Debug("Documents: %d", len(documentIDs))

	total := float64(len(documentIDs))
	reporter := newProgressReporter(progress)

	for i, id := range documentIDs {
		job := domain.IndexingJob{DocumentID: id, State: domain.JobIndexing}
		update(i, job)

		doc, err := store.GetDocument(ctx, id)
		if err != nil {
			job.State = domain.JobFailed
			job.Reason = fmt.Sprintf("load document: %v", err)
			logger.Warn("Document %s: %s", id, job.Reason)
			update(i, job)
			reporter.report(float64(i+1) / total)
			continue
		}

		job.DisplayName = doc.SourceName()
		update(i, job)

		n, err := indexer.Index(ctx, *doc, func(f float64) {
			reporter.report((float64(i) + f) / total)
		})
		job.Chunks = n
		if err != nil {
			job.State = domain.JobFailed
			job.Reason = err.Error()
			logger.Warn("Document %s: %v", id, err)
		} else {
			job.State = domain.JobIndexed
			logger.Debug("Document %s: indexed %d chunk(s)", id, n)
		}
		update(i, job)
		reporter.report(float64(i+1) / total)
	}
}

// progressReporter forwards only increasing fractions.
type progressReporter struct {
	fn   domain.ProgressFunc
	last float64
}

func newProgressReporter(fn domain.ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

func (r *progressReporter) report(fraction float64) {
	fraction = min(fraction, 1)
	if r.fn == nil || fraction <= r.last {
		return
	}
	r.last = fraction
	r.fn(fraction)
}
