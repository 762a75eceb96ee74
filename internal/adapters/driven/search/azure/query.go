package azure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// searchRequest is the body of a docs/search call.
type searchRequest struct {
	Search                string `json:"search"`
	SearchFields          string `json:"searchFields,omitempty"`
	Select                string `json:"select,omitempty"`
	QueryType             string `json:"queryType,omitempty"`
	SemanticConfiguration string `json:"semanticConfiguration,omitempty"`
	Captions              string `json:"captions,omitempty"`
	Answers               string `json:"answers,omitempty"`
	QueryLanguage         string `json:"queryLanguage,omitempty"`
	Filter                string `json:"filter,omitempty"`
	Top                   int    `json:"top,omitempty"`
}

type searchResponse struct {
	Answers []struct {
		Text string `json:"text"`
	} `json:"@search.answers"`
	Value []searchResult `json:"value"`
}

type searchResult struct {
	Score         float64 `json:"@search.score"`
	RerankerScore float64 `json:"@search.rerankerScore"`
	Captions      []struct {
		Text       string `json:"text"`
		Highlights string `json:"highlights"`
	} `json:"@search.captions"`
	ID          *string `json:"id"`
	Content     string  `json:"content"`
	DocumentID  string  `json:"documentId"`
	DisplayName string  `json:"displayName"`
}

const extractive = "extractive"

// Query runs a search. Failures are *domain.SearchError carrying the
// service status and error.message.
func (c *Client) Query(ctx context.Context, index string, q driven.SearchQuery) (*driven.SearchResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, indexPath(index)+"/docs/search", toSearchRequest(q), nil)
	if err != nil {
		return nil, &domain.SearchError{Err: err}
	}
	if resp.status != http.StatusOK {
		return nil, &domain.SearchError{Status: resp.status, Detail: errorDetail(resp)}
	}

	var body searchResponse
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, &domain.SearchError{Detail: "malformed response", Err: err}
	}

	out := &driven.SearchResponse{Hits: make([]driven.SearchHit, 0, len(body.Value))}
	for _, r := range body.Value {
		if r.ID == nil {
			return nil, &domain.SearchError{Detail: "malformed response", Err: errors.New("hit without id")}
		}
		hit := driven.SearchHit{
			ID:            *r.ID,
			Content:       r.Content,
			DocumentID:    r.DocumentID,
			DisplayName:   r.DisplayName,
			Score:         r.Score,
			RerankerScore: r.RerankerScore,
		}
		for _, caption := range r.Captions {
			if caption.Text != "" {
				hit.Captions = append(hit.Captions, caption.Text)
			}
		}
		out.Hits = append(out.Hits, hit)
	}
	for _, a := range body.Answers {
		if a.Text != "" {
			out.Answers = append(out.Answers, a.Text)
		}
	}
	return out, nil
}

func toSearchRequest(q driven.SearchQuery) searchRequest {
	req := searchRequest{
		Search:       q.Text,
		SearchFields: strings.Join(q.SearchFields, ","),
		Select:       strings.Join(q.Select, ","),
		Top:          q.Top,
		Filter:       documentFilter(q.DocumentIDs),
	}
	if q.Type == driven.QueryTypeSemantic {
		req.QueryType = string(driven.QueryTypeSemantic)
		req.SemanticConfiguration = q.SemanticConfiguration
		req.QueryLanguage = q.Language
		if q.Captions {
			req.Captions = extractive
		}
		if q.Answers {
			req.Answers = extractive
		}
	}
	return req
}

// documentFilter builds an OData filter restricting hits to ids.
func documentFilter(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = strings.ReplaceAll(id, "'", "''")
	}
	return "search.in(" + domain.FieldDocumentID + ", '" + strings.Join(escaped, "|") + "', '|')"
}
