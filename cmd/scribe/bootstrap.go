package main

import (
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/search"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/services"
	"github.com/custodia-labs/scribe-cli/internal/logger"
	"github.com/custodia-labs/scribe-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/scribe-cli/internal/normalisers/transcript"
	"github.com/custodia-labs/scribe-cli/internal/postprocessors/chunker"
)

// bootstrap wires the adapters into services. Document and settings
// services are always returned; when the search or LLM configuration is
// incomplete the remaining services are left nil and SetupErr says why.
func bootstrap(configDir string) (*cli.Services, func(), error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	store, err := sqlite.NewStore(filepath.Join(configDir, "data"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening document store: %w", err)
	}
	docStore := store.DocumentStore()

	var closers []func() error
	closers = append(closers, store.Close)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("shutdown: %v", err)
			}
		}
	}

	svc := &cli.Services{
		Document: services.NewDocumentService(docStore, transcript.New(), markdown.New()),
		Settings: settingsService,
	}

	settings, err := settingsService.Get()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("reading settings: %w", err)
	}

	backend, err := search.NewBackend(settings.Search)
	if err != nil {
		logger.Debug("search backend unavailable: %v", err)
		svc.SetupErr = err
		return svc, cleanup, nil
	}
	closers = append(closers, backend.Close)

	manager := services.NewIndexManager(backend,
		domain.NewIndexDescriptor(settings.Search.IndexName, settings.Search.Analyzer))
	indexer := services.NewBatchIndexer(backend, manager,
		chunker.New(chunker.WithMaxSize(settings.Chunking.MaxSize)))
	retriever := services.NewRetriever(backend, manager, settings.Search.Top, settings.Search.QueryLanguage)

	svc.Index = services.NewIndexService(docStore, manager, indexer)
	svc.Retrieval = retriever

	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		logger.Debug("completion backend unavailable: %v", err)
		svc.SetupErr = err
		return svc, cleanup, nil
	}
	closers = append(closers, llm.Close)

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("opening prompt store: %w", err)
	}

	synthesizer := services.NewSynthesizer(llm,
		services.WithPromptStore(prompts),
		services.WithLanguage(settings.Chat.Language),
		services.WithSampling(settings.LLM.Temperature, settings.LLM.MaxTokens),
	)
	svc.Chat = services.NewChatService(docStore, manager, indexer, retriever, synthesizer)

	logger.Debug("services ready: search=%s llm=%s/%s", settings.Search.Provider, settings.LLM.Provider, settings.LLM.Model)
	return svc, cleanup, nil
}
