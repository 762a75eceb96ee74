package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the search service, the LLM provider, and chat options.

Settings are stored in config.toml in the configuration directory. Any value
can also be supplied through a SCRIBE_* environment variable, e.g.
SCRIBE_SEARCH_API_KEY.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by key.

Examples:
  scribe settings set search.endpoint https://my-service.search.windows.net
  scribe settings set llm.provider ollama
  scribe settings set search.top 8

Run 'scribe settings keys' to list the recognised keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Set a secret without echoing it",
	Long: `Prompt for a secret value such as an API key and store it under key.
Input is hidden when reading from a terminal.

Examples:
  scribe settings set-key search.api_key
  scribe settings set-key llm.api_key`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSetKey,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the LLM provider interactively",
	Args:  cobra.NoArgs,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Provider: %s\n", settings.Search.Provider.Description())
	cmd.Printf("  Index: %s\n", settings.Search.IndexName)
	if settings.Search.Provider == domain.SearchProviderAzure {
		cmd.Printf("  Endpoint: %s\n", valueOrUnset(settings.Search.Endpoint))
		cmd.Printf("  API Key: %s\n", secret(settings.Search.APIKey))
		cmd.Printf("  API Version: %s\n", settings.Search.APIVersion)
		cmd.Printf("  Analyzer: %s\n", settings.Search.Analyzer)
		cmd.Printf("  Query Language: %s\n", settings.Search.QueryLanguage)
	}
	cmd.Printf("  Passages per question: %d\n", settings.Search.Top)
	cmd.Printf("  Status: %s\n", configured(settings.Search.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" || settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", valueOrUnset(settings.LLM.BaseURL))
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", secret(settings.LLM.APIKey))
	}
	cmd.Printf("  Temperature: %s\n", strconv.FormatFloat(settings.LLM.Temperature, 'f', -1, 64))
	cmd.Printf("  Max Tokens: %d\n", settings.LLM.MaxTokens)
	cmd.Printf("  Status: %s\n", configured(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Chat]")
	cmd.Printf("  Answer Language: %s\n", settings.Chat.Language)
	cmd.Printf("  Chunk Size: %d characters\n", settings.Chunking.MaxSize)
	cmd.Println()

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'scribe settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if isSecretKey(key) {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	key := args[0]
	cmd.Printf("Enter value for %s: ", key)
	value := readPassword(cmd.InOrStdin())
	cmd.Println()
	if value == "" {
		return errors.New("no value entered")
	}

	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %s\n", key, maskAPIKey(value))
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	for _, key := range svc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	updates := [][2]string{
		{"llm.provider", provider.String()},
		{"llm.model", model},
	}

	if provider.IsLocal() {
		cmd.Print("Enter base URL [http://localhost:11434]: ")
		if baseURL := readLine(reader); baseURL != "" {
			updates = append(updates, [2]string{"llm.base_url", baseURL})
		}
	}
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey := readSecret(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
		updates = append(updates, [2]string{"llm.api_key", apiKey})
	}

	for _, kv := range updates {
		if err := svc.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to configure LLM provider: %w", err)
		}
	}

	cmd.Print("Validating configuration... ")
	if err := svc.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", provider.Description(), model)
	return nil
}

// Helper functions.

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f any) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// readSecret reads from the terminal without echo, or from buffered
// when in is not a terminal.
func readSecret(in io.Reader, buffered *bufio.Reader) string {
	if isTerminal(in) {
		return readPassword(in)
	}
	return readPassword(buffered)
}

// readPassword reads a line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if isTerminal(in) {
		f := in.(*os.File) //nolint:forcetypeassert // checked by isTerminal
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader, ok := in.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(in)
	}
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key")
}

func secret(value string) string {
	if value == "" {
		return "(not set)"
	}
	return maskAPIKey(value)
}

func valueOrUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
