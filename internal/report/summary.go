package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loadscope/loadscope/pkg/diagnostic"
	"github.com/loadscope/loadscope/pkg/types"
)

const SummaryFile = "executive_summary.txt"

// WriteSummary renders the executive summary text report into outputDir.
func WriteSummary(outputDir string, summaries []types.ScenarioSummary, interp *diagnostic.Interpretation) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	text := BuildSummary(summaries, interp)
	path := filepath.Join(outputDir, SummaryFile)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// BuildSummary produces the executive summary text. summaries must be
// ordered lightest scenario first.
func BuildSummary(summaries []types.ScenarioSummary, interp *diagnostic.Interpretation) string {
	var b strings.Builder

	b.WriteString("EXECUTIVE SUMMARY - PERFORMANCE TEST\n")
	b.WriteString("====================================\n\n")

	if len(summaries) == 0 {
		b.WriteString("No scenario produced valid data.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Overall grade: %s\n%s\n\n", interp.Grade, interp.Summary)

	b.WriteString("SCENARIOS\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "- %s: %d users, %d valid repetitions\n",
			s.Scenario.DisplayName(), s.Scenario.Users, s.ValidRepetitions)
		fmt.Fprintf(&b, "    avg %.1fms | p95 %.1fms | %.1f req/s | %.1f%% success | %d requests (%d failures)\n",
			s.AvgResponseMs, s.P95ResponseMs, s.RequestsPerSec,
			s.SuccessRatePercent, s.TotalRequests, s.TotalFailures)
	}
	b.WriteString("\n")

	if len(summaries) >= 2 {
		base := summaries[0]
		peak := summaries[len(summaries)-1]
		b.WriteString("SCALING\n")
		if base.RequestsPerSec > 0 {
			fmt.Fprintf(&b, "- Throughput %d -> %d users: %+.1f%%\n",
				base.Scenario.Users, peak.Scenario.Users,
				(peak.RequestsPerSec/base.RequestsPerSec-1)*100)
		}
		if base.AvgResponseMs > 0 {
			fmt.Fprintf(&b, "- Avg response time %d -> %d users: %+.1f%%\n",
				base.Scenario.Users, peak.Scenario.Users,
				(peak.AvgResponseMs/base.AvgResponseMs-1)*100)
		}
		fmt.Fprintf(&b, "- Success rate %d -> %d users: %+.2f p.p.\n",
			base.Scenario.Users, peak.Scenario.Users,
			peak.SuccessRatePercent-base.SuccessRatePercent)
		b.WriteString("\n")
	}

	b.WriteString("RATINGS\n")
	fmt.Fprintf(&b, "- Latency: %s\n", interp.LatencyRating)
	fmt.Fprintf(&b, "- Reliability: %s\n", interp.ReliabilityRating)
	fmt.Fprintf(&b, "- Scalability: %s\n", interp.ScalabilityRating)
	b.WriteString("\n")

	if len(interp.Concerns) > 0 {
		b.WriteString("CONCERNS\n")
		for _, c := range interp.Concerns {
			fmt.Fprintf(&b, "- %s\n", strings.ReplaceAll(c, "_", " "))
		}
		b.WriteString("\n")
	}

	b.WriteString("RECOMMENDATIONS\n")
	for _, r := range interp.Recommendations {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	return b.String()
}
