package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal interface for Scribe.

Pick transcripts from the list, press Enter to index them, then ask
questions. Answers list the transcripts they cite.

Controls:
  ↑/k, ↓/j  - Navigate transcripts
  Space     - Toggle selection
  Enter     - Start chat / Send question
  PgUp/PgDn - Scroll the conversation
  Esc       - Back to the transcript list
  ?         - Toggle help
  q         - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

var tuiDocIDs []string

func init() {
	tuiCmd.Flags().StringArrayVarP(&tuiDocIDs, "doc", "d", nil, "Open a chat over this transcript (repeatable)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI crashed: %v", r)
		}
	}()

	chat, err := requireChat()
	if err != nil {
		return err
	}
	documents, err := requireDocuments()
	if err != nil {
		return err
	}

	ports := tui.NewPorts(chat, documents)
	ports.Settings = settingsService

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context()).WithSelection(tuiDocIDs)

	// Log lines would corrupt the alternate screen.
	if !logger.IsVerbose() {
		logger.SetOutput(io.Discard)
		defer logger.SetOutput(os.Stderr)
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
