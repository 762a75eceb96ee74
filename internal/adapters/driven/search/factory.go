// Package search creates the configured search backend.
package search

import (
	"fmt"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/search/azure"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/search/memory"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// NewBackend returns the backend selected by settings.Provider.
// Missing endpoint or credentials are reported as *domain.ConfigurationError.
func NewBackend(settings domain.SearchSettings) (driven.SearchBackend, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.SearchProviderMemory:
		return memory.New(), nil
	case domain.SearchProviderAzure:
		client, err := azure.NewClient(azure.Config{
			Endpoint:          settings.Endpoint,
			APIKey:            settings.APIKey,
			APIVersion:        settings.APIVersion,
			RequestsPerSecond: settings.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: search provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}
