package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/mikey/spam-scanner/internal/core"
)

// ConsolePresenter prints one line per terminal update
type ConsolePresenter struct {
	out     io.Writer
	verbose bool
}

// NewConsolePresenter creates a console presenter. With verbose set, LOADING
// updates are printed too.
func NewConsolePresenter(out io.Writer, verbose bool) *ConsolePresenter {
	return &ConsolePresenter{out: out, verbose: verbose}
}

// Present prints update
func (p *ConsolePresenter) Present(update core.ScanUpdate) {
	task := update.Task
	switch {
	case update.Err != nil:
		fmt.Fprintf(p.out, "[%s] %s %s: %v\n", task.State, task.ID, task.SourceRef, update.Err)
	case update.Result != nil:
		fmt.Fprintf(p.out, "[%s] %s %s: %.1f%% %s (%s)\n",
			task.State, task.ID, task.SourceRef,
			update.Result.Confidence*100,
			update.Result.Reason,
			strings.Join(update.Result.InfluentialTerms, ", "))
	case p.verbose:
		fmt.Fprintf(p.out, "[%s] %s %s\n", task.State, task.ID, task.SourceRef)
	}
}

// PrintResult writes a classification summary for a single message
func PrintResult(out io.Writer, result core.ClassificationResult) {
	verdict := "SAFE"
	if result.IsSpam {
		verdict = "SPAM"
	}
	fmt.Fprintf(out, "\n=== Results ===\n")
	fmt.Fprintf(out, "Verdict: %s\n", verdict)
	fmt.Fprintf(out, "Confidence: %.4f\n", result.Confidence)
	fmt.Fprintf(out, "Reason: %s\n", result.Reason)
	if len(result.InfluentialTerms) > 0 {
		fmt.Fprintf(out, "Influential terms: %s\n", strings.Join(result.InfluentialTerms, ", "))
	}
}
