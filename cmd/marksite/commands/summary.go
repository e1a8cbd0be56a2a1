package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/marksite/internal/report"
)

// styles for terminal summaries, rendered for the color profile of the writer.
type styles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Indent  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Success: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Indent:  r.NewStyle().PaddingLeft(2),
	}
}

// printSummary writes the outcome of rep. Problems are listed in full when
// verbose, otherwise only counted.
func printSummary(w io.Writer, rep *report.BuildReport, verbose bool) {
	if rep == nil {
		return
	}
	s := newStyles(w)

	var headline string
	switch rep.Outcome {
	case report.OutcomeFailed:
		headline = s.Error.Render("✗ Build failed")
	case report.OutcomeWarning:
		headline = s.Warning.Render(fmt.Sprintf("! Built %d documents with problems", rep.Rendered))
	default:
		headline = s.Success.Render(fmt.Sprintf("✓ Built %d documents", rep.Rendered))
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", headline,
		s.Muted.Render(fmt.Sprintf("in %s (%s, build %s)", rep.Duration().Round(time.Millisecond), rep.Kind, shortID(rep.ID))))

	counts := fmt.Sprintf("documents %d · excluded %d · written %d", rep.Documents, rep.Excluded, rep.Written)
	if rep.Pruned > 0 {
		counts += fmt.Sprintf(" · pruned %d", rep.Pruned)
	}
	_, _ = fmt.Fprintln(w, s.Indent.Render(s.Muted.Render(counts)))

	if rep.Problems.Empty() {
		return
	}
	_, _ = fmt.Fprintln(w, s.Indent.Render(s.Warning.Render(fmt.Sprintf("%d problems", rep.Problems.Count()))))
	if !verbose {
		_, _ = fmt.Fprintln(w, s.Indent.Render(s.Muted.Render("run with --verbose to list them")))
		return
	}
	for _, line := range strings.Split(rep.Problems.Summary(), "\n") {
		_, _ = fmt.Fprintln(w, s.Indent.Render(line))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
