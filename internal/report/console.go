package report

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/loadscope/loadscope/pkg/diagnostic"
	"github.com/loadscope/loadscope/pkg/types"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiCyan   = "\033[36m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
)

// ConsolePrinter renders the summary table to a terminal. Color is used only
// when the writer really is a terminal; piped output stays plain.
type ConsolePrinter struct {
	w     io.Writer
	color bool
}

func NewConsolePrinter(w io.Writer) *ConsolePrinter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &ConsolePrinter{w: w, color: color}
}

func (p *ConsolePrinter) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

// Print writes the per-scenario table and the overall interpretation.
func (p *ConsolePrinter) Print(summaries []types.ScenarioSummary, interp *diagnostic.Interpretation) {
	if len(summaries) == 0 {
		fmt.Fprintln(p.w, "no scenario produced valid data")
		return
	}

	fmt.Fprintf(p.w, "%-28s %7s %5s %10s %10s %10s %11s %9s\n",
		"Scenario", "Users", "Reps", "Avg (ms)", "P95 (ms)", "Max (ms)", "Req/s", "Success")
	for _, s := range summaries {
		success := fmt.Sprintf("%.1f%%", s.SuccessRatePercent)
		switch {
		case s.SuccessRatePercent >= 99:
			success = p.paint(ansiGreen, success)
		case s.SuccessRatePercent >= 95:
			success = p.paint(ansiYellow, success)
		default:
			success = p.paint(ansiRed, success)
		}
		fmt.Fprintf(p.w, "%-28s %7d %5d %10.1f %10.1f %10.1f %11.1f %9s\n",
			s.Scenario.DisplayName(), s.Scenario.Users, s.ValidRepetitions,
			s.AvgResponseMs, s.P95ResponseMs, s.MaxResponseMs, s.RequestsPerSec, success)
	}

	fmt.Fprintf(p.w, "\n%s %s\n", p.paint(ansiBold+ansiCyan, "Grade "+interp.Grade+":"), interp.Summary)
	for _, c := range interp.Concerns {
		fmt.Fprintf(p.w, "  %s %s\n", p.paint(ansiYellow, "concern:"), c)
	}
}
