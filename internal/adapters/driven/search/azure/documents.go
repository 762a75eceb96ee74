package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

const actionMergeOrUpload = "mergeOrUpload"

// indexAction is one document in an indexing batch.
type indexAction struct {
	Action      string `json:"@search.action"`
	ID          string `json:"id"`
	Content     string `json:"content"`
	DocumentID  string `json:"documentId"`
	DisplayName string `json:"displayName"`
	Timestamp   string `json:"timestamp"`
}

type indexBatch struct {
	Value []indexAction `json:"value"`
}

// indexingResult is the per-document outcome of a batch.
type indexingResult struct {
	Key          string  `json:"key"`
	Status       bool    `json:"status"`
	ErrorMessage *string `json:"errorMessage"`
	StatusCode   int     `json:"statusCode"`
}

type indexBatchResponse struct {
	Value []indexingResult `json:"value"`
}

// UploadDocuments merges one batch into the index. A 207 response
// reports per-document failures in the result.
func (c *Client) UploadDocuments(
	ctx context.Context, index string, docs []domain.IndexDocument,
) (*driven.UploadResult, error) {
	batch := indexBatch{Value: make([]indexAction, len(docs))}
	for i, d := range docs {
		batch.Value[i] = indexAction{
			Action:      actionMergeOrUpload,
			ID:          d.ID,
			Content:     d.Content,
			DocumentID:  d.DocumentID,
			DisplayName: d.DisplayName,
			Timestamp:   d.IndexedAt.UTC().Format(time.RFC3339),
		}
	}

	resp, err := c.do(ctx, http.MethodPost, indexPath(index)+"/docs/index", batch, nil)
	if err != nil {
		return nil, fmt.Errorf("upload documents: %w", err)
	}
	if resp.status != http.StatusOK && resp.status != http.StatusMultiStatus {
		return nil, statusError("upload documents", resp)
	}

	var body indexBatchResponse
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, fmt.Errorf("upload documents: decode response: %w", err)
	}
	if len(body.Value) != len(docs) {
		return nil, fmt.Errorf("upload documents: %d results for %d documents", len(body.Value), len(docs))
	}

	result := &driven.UploadResult{}
	for _, r := range body.Value {
		if r.Status {
			result.Succeeded++
			continue
		}
		msg := http.StatusText(r.StatusCode)
		if r.ErrorMessage != nil && *r.ErrorMessage != "" {
			msg = *r.ErrorMessage
		}
		result.Failures = append(result.Failures, driven.UploadFailure{
			Key:     r.Key,
			Status:  r.StatusCode,
			Message: msg,
		})
	}
	return result, nil
}
