package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

// previewLength is the number of characters 'document show' prints
// unless --full is given.
const previewLength = 600

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage transcripts",
	Long:  `Import, list, view, or delete the transcripts available for chat.`,
}

var documentImportCmd = &cobra.Command{
	Use:   "import [path]...",
	Short: "Import transcript files",
	Long: `Normalise transcript files (.txt, .srt, .vtt, .md) and add them to the document store.

A directory argument imports every transcript beneath it; hidden files
and directories are skipped.

With --watch, scribe keeps running and imports transcripts as they appear in
the given directory.

Examples:
  scribe document import standup.vtt
  scribe document import ~/Recordings/transcripts
  scribe document import interview.srt --name "Customer interview"
  scribe document import --watch ~/Recordings/transcripts`,
	Args: cobra.ArbitraryArgs,
	RunE: runDocumentImport,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transcripts",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a transcript",
	Long: `Removes a transcript from the document store.

Passages already uploaded to the search index are left in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentDelete,
}

var (
	importName string
	watchDir   string
	showFull   bool
)

func init() {
	documentImportCmd.Flags().StringVarP(&importName, "name", "n", "", "Display name (single file only)")
	documentImportCmd.Flags().StringVarP(&watchDir, "watch", "w", "", "Directory to watch for new transcripts")
	documentShowCmd.Flags().BoolVar(&showFull, "full", false, "Print the whole transcript")

	documentCmd.AddCommand(documentImportCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentImport(cmd *cobra.Command, args []string) error {
	svc, err := requireDocuments()
	if err != nil {
		return err
	}
	if len(args) == 0 && watchDir == "" {
		return errors.New("nothing to import: pass at least one file or --watch")
	}

	paths, err := expandPaths(args, svc.SupportedExtensions())
	if err != nil {
		return err
	}
	if importName != "" && len(paths) != 1 {
		return errors.New("--name applies to a single file")
	}

	ctx := cmd.Context()
	failed := 0
	for _, path := range paths {
		if err := importFile(ctx, cmd, svc, path, importName); err != nil {
			cmd.PrintErrf("Failed to import %s: %v\n", path, err)
			failed++
		}
	}

	if watchDir != "" {
		w := filesystem.NewWatcher(filesystem.ResolvePath(watchDir), svc.SupportedExtensions(),
			func(ctx context.Context, path string) error {
				return importFile(ctx, cmd, svc, path, "")
			})
		w.MarkImported(paths...)
		cmd.Printf("Watching %s for new transcripts (%s). Press Ctrl+C to stop.\n",
			watchDir, strings.Join(svc.SupportedExtensions(), ", "))
		if err := w.Run(ctx); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to import", failed, len(paths))
	}
	return nil
}

// expandPaths resolves file:// URIs and replaces each directory with the
// transcripts found beneath it.
func expandPaths(args, extensions []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		path := filesystem.ResolvePath(arg)
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			paths = append(paths, path)
			continue
		}
		found, err := filesystem.Scan(path, extensions)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no transcripts found in %s", path)
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func importFile(ctx context.Context, cmd *cobra.Command, svc driving.DocumentService, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	doc, err := svc.Import(ctx, filepath.Base(path), data, name)
	if err != nil {
		return err
	}
	cmd.Printf("Imported %s\n", path)
	cmd.Printf("  ID:   %s\n", doc.ID)
	cmd.Printf("  Name: %s\n", doc.DisplayName)
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	svc, err := requireDocuments()
	if err != nil {
		return err
	}

	docs, err := svc.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No transcripts yet. Import one with 'scribe document import <file>'.")
		return nil
	}

	cmd.Println("Transcripts:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Name:    %s\n", docs[i].SourceName())
		cmd.Printf("    Created: %s\n", formatTime(docs[i].CreatedAt))
		cmd.Println()
	}
	cmd.Printf("Total: %d transcripts\n", len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	svc, err := requireDocuments()
	if err != nil {
		return err
	}

	doc, err := svc.Get(cmd.Context(), args[0])
	if err != nil {
		return documentError("get", args[0], err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Name:     %s\n", doc.SourceName())
	if doc.Language != "" {
		cmd.Printf("  Language: %s\n", doc.Language)
	}
	cmd.Printf("  Created:  %s\n", formatTime(doc.CreatedAt))
	cmd.Printf("  Length:   %d characters\n\n", len([]rune(doc.FullText)))

	text := doc.FullText
	if !showFull {
		text = preview(text, previewLength)
	}
	cmd.Println(text)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	svc, err := requireDocuments()
	if err != nil {
		return err
	}

	if err := svc.Delete(cmd.Context(), args[0]); err != nil {
		return documentError("delete", args[0], err)
	}
	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}

func documentError(op, id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("document not found: %s", id)
	}
	return fmt.Errorf("failed to %s document: %w", op, err)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// preview cuts s to at most n runes, marking the cut.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "\n... (use --full to see the whole transcript)"
}
