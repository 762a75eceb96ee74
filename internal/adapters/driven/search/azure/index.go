package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// indexDefinition is the wire form of an index.
type indexDefinition struct {
	Name     string              `json:"name"`
	Fields   []fieldDefinition   `json:"fields"`
	Semantic *semanticDefinition `json:"semantic,omitempty"`
}

type fieldDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Key         bool   `json:"key,omitempty"`
	Searchable  bool   `json:"searchable"`
	Filterable  bool   `json:"filterable"`
	Sortable    bool   `json:"sortable"`
	Facetable   bool   `json:"facetable"`
	Retrievable bool   `json:"retrievable"`
	Analyzer    string `json:"analyzer,omitempty"`
}

type semanticDefinition struct {
	Configurations []semanticConfiguration `json:"configurations"`
}

type semanticConfiguration struct {
	Name              string            `json:"name"`
	PrioritizedFields prioritizedFields `json:"prioritizedFields"`
}

type prioritizedFields struct {
	TitleField               *fieldName  `json:"titleField,omitempty"`
	PrioritizedContentFields []fieldName `json:"prioritizedContentFields"`
}

type fieldName struct {
	FieldName string `json:"fieldName"`
}

// IndexExists reports whether the named index exists. 404 means absent.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, indexPath(name), nil, nil)
	if err != nil {
		return false, fmt.Errorf("get index: %w", err)
	}

	switch {
	case resp.status == http.StatusNotFound:
		return false, nil
	case resp.status != http.StatusOK:
		return false, statusError("get index", resp)
	}

	var def indexDefinition
	if err := json.Unmarshal(resp.body, &def); err != nil {
		return false, fmt.Errorf("get index: decode response: %w", err)
	}
	if def.Name != "" && def.Name != name {
		return false, fmt.Errorf("get index: response names index %q, want %q", def.Name, name)
	}
	return true, nil
}

// CreateIndex creates the index. It never overwrites an existing index:
// if one appears between the existence check and this call, the error
// wraps domain.ErrAlreadyExists.
func (c *Client) CreateIndex(ctx context.Context, desc domain.IndexDescriptor) error {
	header := http.Header{"If-None-Match": []string{"*"}}
	resp, err := c.do(ctx, http.MethodPut, indexPath(desc.Name), toIndexDefinition(desc), header)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	switch resp.status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusPreconditionFailed, http.StatusConflict:
		return fmt.Errorf("create index %s: %w", desc.Name, domain.ErrAlreadyExists)
	default:
		return statusError("create index", resp)
	}
}

func toIndexDefinition(desc domain.IndexDescriptor) indexDefinition {
	def := indexDefinition{Name: desc.Name}
	for _, f := range desc.Fields {
		def.Fields = append(def.Fields, fieldDefinition{
			Name:        f.Name,
			Type:        string(f.Type),
			Key:         f.Key,
			Searchable:  f.Searchable,
			Filterable:  f.Filterable,
			Sortable:    f.Sortable,
			Facetable:   f.Facetable,
			Retrievable: f.Retrievable,
			Analyzer:    f.Analyzer,
		})
	}

	if desc.Semantic.Name != "" {
		cfg := semanticConfiguration{Name: desc.Semantic.Name}
		if desc.Semantic.TitleField != "" {
			cfg.PrioritizedFields.TitleField = &fieldName{FieldName: desc.Semantic.TitleField}
		}
		for _, f := range desc.Semantic.ContentFields {
			cfg.PrioritizedFields.PrioritizedContentFields = append(
				cfg.PrioritizedFields.PrioritizedContentFields, fieldName{FieldName: f})
		}
		def.Semantic = &semanticDefinition{Configurations: []semanticConfiguration{cfg}}
	}
	return def
}
