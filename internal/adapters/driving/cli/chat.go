package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your transcripts in the terminal",
	Long: `Start a line-oriented chat session over the selected transcripts.

Each line you enter is a question; answers cite the transcripts they used.
Type /quit or press Ctrl+D to end the session. History is kept only for the
lifetime of the session.

Examples:
  scribe chat --doc 3f2a... --doc 9c41...
  scribe chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var chatDocIDs []string

func init() {
	chatCmd.Flags().StringArrayVarP(&chatDocIDs, "doc", "d", nil, "Transcript to chat about (repeatable)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, err := requireChat()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	interactive := isTerminal(cmd.InOrStdin())

	if len(chatDocIDs) == 0 {
		cmd.Println("Searching all indexed transcripts.")
	} else {
		cmd.Printf("Indexing %d transcript(s)...\n", len(chatDocIDs))
	}

	bar := newProgressPrinter(cmd.OutOrStdout())
	session, err := svc.StartSession(ctx, chatDocIDs, bar.Update)
	bar.Done()
	if session != nil {
		defer session.Close()
	}
	if err != nil {
		return err
	}
	if len(chatDocIDs) > 0 {
		printJobs(cmd, session.Jobs())
	}
	if interactive {
		cmd.Println("Ask a question, or /quit to exit.")
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			cmd.Print("\n> ")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/history":
			printHistory(cmd, session.History())
			continue
		}

		msg, err := session.Ask(ctx, line)
		if err != nil {
			if errors.Is(err, ctx.Err()) {
				return nil
			}
			cmd.PrintErrf("Error: %v\n", err)
			continue
		}
		cmd.Println()
		printAnswer(cmd, msg)
	}
	if interactive {
		cmd.Println()
	}
	return scanner.Err()
}

func printHistory(cmd *cobra.Command, history []domain.Message) {
	if len(history) == 0 {
		cmd.Println("No questions asked yet.")
		return
	}
	for _, m := range history {
		label := "You"
		if m.Role == domain.RoleAssistant {
			label = "Scribe"
		}
		cmd.Printf("%s: %s\n", label, strings.TrimSpace(m.Content))
	}
}
