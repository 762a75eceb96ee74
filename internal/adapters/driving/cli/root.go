// Package cli implements the scribe command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// version is set by Execute from the build-time version string.
var version = "dev"

// annotationNoServices marks commands that run without bootstrapping services.
const annotationNoServices = "scribe.no-services"

// Services holds the driving ports the commands run against.
// Any port may be nil when bootstrap could not build it; SetupErr then
// records the reason so commands that need the port can report it.
type Services struct {
	Document  driving.DocumentService
	Index     driving.IndexService
	Chat      driving.ChatService
	Retrieval driving.RetrievalService
	Settings  driving.SettingsService

	// SetupErr is the configuration problem that left ports unset, if any.
	SetupErr error
}

// Bootstrap builds the services from the configuration directory.
// The returned func releases resources and may be nil.
type Bootstrap func(configDir string) (*Services, func(), error)

var (
	documentService  driving.DocumentService
	indexService     driving.IndexService
	chatService      driving.ChatService
	retrievalService driving.RetrievalService
	settingsService  driving.SettingsService
	setupErr         error

	bootstrap Bootstrap
	teardown  func()

	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Chat with your transcripts",
	Long: `Scribe indexes transcribed audio into a search service and answers
questions about it with a language model, citing the transcripts it used.

Import transcripts with 'scribe document import', then ask questions with
'scribe ask', 'scribe chat' or the terminal UI ('scribe tui').`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.scribe)")
}

// SetServices installs the services used by every command.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	documentService = s.Document
	indexService = s.Index
	chatService = s.Chat
	retrievalService = s.Retrieval
	settingsService = s.Settings
	setupErr = s.SetupErr
}

// Execute runs the root command. boot is invoked once, before the first
// command that needs services.
func Execute(ctx context.Context, v string, boot Bootstrap) error {
	if v != "" {
		version = v
	}
	bootstrap = boot
	defer func() {
		if teardown != nil {
			teardown()
			teardown = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	logger.Debug("bootstrapping services (config dir %q)", configDir)
	services, release, err := bootstrap(configDir)
	if err != nil {
		return fmt.Errorf("starting scribe: %w", err)
	}
	bootstrap = nil
	teardown = release
	SetServices(services)
	if setupErr != nil {
		logger.Debug("services partially configured: %v", setupErr)
	}
	return nil
}

// unavailable explains why a service is missing.
func unavailable(name string) error {
	if setupErr != nil {
		return fmt.Errorf("%s service unavailable: %w", name, setupErr)
	}
	return errors.New(name + " service not configured")
}

func requireDocuments() (driving.DocumentService, error) {
	if documentService == nil {
		return nil, unavailable("document")
	}
	return documentService, nil
}

func requireIndex() (driving.IndexService, error) {
	if indexService == nil {
		return nil, unavailable("index")
	}
	return indexService, nil
}

func requireChat() (driving.ChatService, error) {
	if chatService == nil {
		return nil, unavailable("chat")
	}
	return chatService, nil
}

func requireRetrieval() (driving.RetrievalService, error) {
	if retrievalService == nil {
		return nil, unavailable("retrieval")
	}
	return retrievalService, nil
}

func requireSettings() (driving.SettingsService, error) {
	if settingsService == nil {
		return nil, unavailable("settings")
	}
	return settingsService, nil
}
