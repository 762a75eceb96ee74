package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// excerptWidth bounds the passage excerpt printed under each citation.
const excerptWidth = 100

// progressPrinter redraws a progress bar in place on a terminal and
// stays silent otherwise.
type progressPrinter struct {
	out  io.Writer
	bar  progress.Model
	tty  bool
	last float64
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{
		out: out,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		tty: isTerminal(out),
	}
}

// Update draws fraction. Values below the last drawn one are ignored.
func (p *progressPrinter) Update(fraction float64) {
	if fraction < p.last {
		return
	}
	p.last = fraction
	if p.tty {
		fmt.Fprintf(p.out, "\r%s", p.bar.ViewAs(fraction))
	}
}

// Done ends the progress line.
func (p *progressPrinter) Done() {
	if p.tty && p.last > 0 {
		fmt.Fprintln(p.out)
	}
}

// printJobs summarises indexing jobs and returns how many failed.
func printJobs(cmd *cobra.Command, jobs []domain.IndexingJob) int {
	failed := 0
	chunks := 0
	for _, job := range jobs {
		name := job.DisplayName
		if name == "" {
			name = job.DocumentID
		}
		switch job.State {
		case domain.JobIndexed:
			chunks += job.Chunks
			cmd.Printf("  ✓ %s (%d passages)\n", name, job.Chunks)
		case domain.JobFailed:
			failed++
			cmd.Printf("  ✗ %s: %s\n", name, job.Reason)
		default:
			cmd.Printf("  - %s: %s\n", name, job.State)
		}
	}
	if len(jobs) > 0 {
		cmd.Printf("Indexed %d of %d transcripts (%d passages).\n", len(jobs)-failed, len(jobs), chunks)
	}
	return failed
}

// printAnswer prints an assistant message followed by its sources.
func printAnswer(cmd *cobra.Command, msg *domain.Message) {
	cmd.Println(strings.TrimSpace(msg.Content))

	sources := msg.Sources()
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, c := range sources {
		if !c.Found() {
			cmd.Printf("  [%s] (source not found)\n", c.Label)
			continue
		}
		cmd.Printf("  [%s]\n", c.Label)
		cmd.Printf("    %s\n", list.Excerpt(c.Passages[0], excerptWidth))
	}
}
