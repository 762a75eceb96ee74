package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the search index",
	Long: `Create the search index and upload transcripts to it outside of a chat.

Chat sessions index their selected transcripts automatically; these commands
are useful to prepare the index ahead of time.`,
}

var indexEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the search index if it does not exist",
	Args:  cobra.NoArgs,
	RunE:  runIndexEnsure,
}

var indexAddCmd = &cobra.Command{
	Use:   "add [doc-id]...",
	Short: "Index transcripts",
	Long: `Chunk the given transcripts and upload them to the search index.
A failure on one transcript does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexAdd,
}

func init() {
	indexCmd.AddCommand(indexEnsureCmd)
	indexCmd.AddCommand(indexAddCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexEnsure(cmd *cobra.Command, _ []string) error {
	svc, err := requireIndex()
	if err != nil {
		return err
	}

	cmd.Print("Preparing search index... ")
	if err := svc.EnsureReady(cmd.Context()); err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Println("OK")
	return nil
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	svc, err := requireIndex()
	if err != nil {
		return err
	}

	bar := newProgressPrinter(cmd.OutOrStdout())
	jobs, err := svc.IndexDocuments(cmd.Context(), args, bar.Update)
	bar.Done()
	if err != nil {
		return err
	}

	failed := printJobs(cmd, jobs)
	if failed > 0 {
		return fmt.Errorf("%d of %d transcript(s) failed to index", failed, len(jobs))
	}
	return nil
}
