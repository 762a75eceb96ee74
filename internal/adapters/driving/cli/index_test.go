package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

func TestIndexEnsureCmd(t *testing.T) {
	t.Run("reports success", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "index", "ensure")

		require.NoError(t, err)
		assert.True(t, ts.index.ensured)
		assert.Contains(t, out, "Preparing search index... OK")
	})

	t.Run("returns initialisation error", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.index.ensureErr = &domain.InitializationError{Attempts: 3, Err: errors.New("503")}

		out, err := execute(t, "index", "ensure")

		var initErr *domain.InitializationError
		require.ErrorAs(t, err, &initErr)
		assert.Equal(t, 3, initErr.Attempts)
		assert.Contains(t, out, "FAILED")
	})
}

func TestIndexAddCmd(t *testing.T) {
	t.Run("summarises jobs", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.index.jobs = []domain.IndexingJob{
			{DocumentID: "doc-1", DisplayName: "Weekly sync", State: domain.JobIndexed, Chunks: 4},
			{DocumentID: "doc-2", DisplayName: "Board call", State: domain.JobIndexed, Chunks: 2},
		}

		out, err := execute(t, "index", "add", "doc-1", "doc-2")

		require.NoError(t, err)
		assert.Equal(t, []string{"doc-1", "doc-2"}, ts.index.indexed)
		assert.Contains(t, out, "✓ Weekly sync (4 passages)")
		assert.Contains(t, out, "Indexed 2 of 2 transcripts (6 passages).")
	})

	t.Run("partial failure returns error after summary", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.index.jobs = []domain.IndexingJob{
			{DocumentID: "doc-1", DisplayName: "Weekly sync", State: domain.JobIndexed, Chunks: 4},
			{DocumentID: "missing", State: domain.JobFailed, Reason: "not found"},
		}

		out, err := execute(t, "index", "add", "doc-1", "missing")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 transcript(s) failed")
		assert.Contains(t, out, "✗ missing: not found")
		assert.Contains(t, out, "Indexed 1 of 2 transcripts (4 passages).")
	})

	t.Run("requires at least one id", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute(t, "index", "add")
		assert.Error(t, err)
	})
}

func TestProgressPrinter_IgnoresRegressions(t *testing.T) {
	p := newProgressPrinter(nil)

	p.Update(0.4)
	p.Update(0.2)
	assert.InDelta(t, 0.4, p.last, 1e-9)

	p.Update(1)
	assert.InDelta(t, 1.0, p.last, 1e-9)
	p.Done()
}
