package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about your transcripts",
	Long: `Index the selected transcripts, answer one question, and exit.

Without --doc the question is answered from every transcript already in the
search index.

Examples:
  scribe ask "What did we decide about the launch date?" --doc 3f2a...
  scribe ask "Who owns the migration?" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var (
	askDocIDs []string
	askJSON   bool
)

func init() {
	askCmd.Flags().StringArrayVarP(&askDocIDs, "doc", "d", nil, "Transcript to search (repeatable)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

// askResult is the --json output of 'scribe ask'.
type askResult struct {
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Citations []citationResult  `json:"citations"`
	Jobs      []indexingJobJSON `json:"jobs,omitempty"`
}

type citationResult struct {
	Label    string        `json:"label"`
	Found    bool          `json:"found"`
	Passages []passageJSON `json:"passages,omitempty"`
}

type passageJSON struct {
	Source     string   `json:"source"`
	DocumentID string   `json:"document_id"`
	Score      float64  `json:"score"`
	Content    string   `json:"content"`
	Captions   []string `json:"captions,omitempty"`
}

type indexingJobJSON struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	State      string `json:"state"`
	Chunks     int    `json:"chunks"`
	Reason     string `json:"reason,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := requireChat()
	if err != nil {
		return err
	}
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	ctx := cmd.Context()

	var bar *progressPrinter
	if askJSON {
		bar = newProgressPrinter(nil)
	} else {
		bar = newProgressPrinter(cmd.ErrOrStderr())
	}

	session, err := svc.StartSession(ctx, askDocIDs, bar.Update)
	bar.Done()
	if session != nil {
		defer session.Close()
	}
	if err != nil {
		return err
	}
	if !askJSON {
		warnFailedJobs(cmd, session.Jobs())
	}

	msg, err := session.Ask(ctx, question)
	if err != nil {
		return err
	}

	if askJSON {
		return writeJSON(cmd, newAskResult(question, msg, session))
	}
	printAnswer(cmd, msg)
	return nil
}

func warnFailedJobs(cmd *cobra.Command, jobs []domain.IndexingJob) {
	for _, job := range jobs {
		if job.State == domain.JobFailed {
			cmd.PrintErrf("Warning: %s was not indexed: %s\n", jobName(job), job.Reason)
		}
	}
}

func jobName(job domain.IndexingJob) string {
	if job.DisplayName != "" {
		return job.DisplayName
	}
	return job.DocumentID
}

func newAskResult(question string, msg *domain.Message, session driving.ChatSession) askResult {
	result := askResult{
		Question:  question,
		Answer:    strings.TrimSpace(msg.Content),
		Citations: make([]citationResult, 0, len(msg.Citations)),
	}
	for _, c := range msg.Sources() {
		cr := citationResult{Label: c.Label, Found: c.Found()}
		for _, p := range c.Passages {
			cr.Passages = append(cr.Passages, passageJSON{
				Source:     p.SourceName,
				DocumentID: p.DocumentID,
				Score:      p.Score,
				Content:    p.Content,
				Captions:   p.Captions,
			})
		}
		result.Citations = append(result.Citations, cr)
	}
	for _, job := range session.Jobs() {
		result.Jobs = append(result.Jobs, indexingJobJSON{
			DocumentID: job.DocumentID,
			Name:       job.DisplayName,
			State:      string(job.State),
			Chunks:     job.Chunks,
			Reason:     job.Reason,
		})
	}
	return result
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
