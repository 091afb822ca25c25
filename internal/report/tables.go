// Package report renders an analysis run into its deliverables: CSV tables,
// PNG charts, the executive summary text, and the console view.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/loadscope/loadscope/pkg/types"
)

const (
	ConsolidatedCSV = "consolidated.csv"
	DetailedCSV     = "detailed.csv"
	ComparativeCSV  = "comparative.csv"
)

// WriteTables writes the consolidated, detailed, and comparative CSV tables
// into outputDir. summaries must already be ordered (lightest scenario
// first); callers use diagnostic.ByUsers.
func WriteTables(outputDir string, summaries []types.ScenarioSummary) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeConsolidated(filepath.Join(outputDir, ConsolidatedCSV), summaries); err != nil {
		return err
	}
	if err := writeDetailed(filepath.Join(outputDir, DetailedCSV), summaries); err != nil {
		return err
	}
	return writeComparative(filepath.Join(outputDir, ComparativeCSV), summaries)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeConsolidated(path string, summaries []types.ScenarioSummary) error {
	records := [][]string{{
		"Scenario", "Users", "Valid Repetitions", "Warmup Discarded (s)", "Duration (s)",
		"Avg Time (ms)", "Median Time (ms)", "Max Time (ms)", "Min Time (ms)",
		"P95 (ms)", "P99 (ms)", "Avg Throughput (req/s)", "Avg Success Rate (%)",
		"Total Requests", "Total Failures",
	}}
	for _, s := range summaries {
		records = append(records, []string{
			s.Scenario.DisplayName(),
			strconv.Itoa(s.Scenario.Users),
			strconv.Itoa(s.ValidRepetitions),
			strconv.Itoa(s.Scenario.WarmupSeconds),
			strconv.Itoa(s.Scenario.DurationSeconds),
			f2(s.AvgResponseMs),
			f2(s.MedianResponseMs),
			f2(s.MaxResponseMs),
			f2(s.MinResponseMs),
			f2(s.P95ResponseMs),
			f2(s.P99ResponseMs),
			f2(s.RequestsPerSec),
			f2(s.SuccessRatePercent),
			strconv.FormatInt(s.TotalRequests, 10),
			strconv.FormatInt(s.TotalFailures, 10),
		})
	}
	return writeCSV(path, records)
}

func writeDetailed(path string, summaries []types.ScenarioSummary) error {
	records := [][]string{{
		"Scenario", "Repetition", "Users",
		"Avg Time (ms)", "Median Time (ms)", "Max Time (ms)",
		"P95 (ms)", "P99 (ms)", "Throughput (req/s)", "Success Rate (%)",
		"Total Requests", "Total Failures",
	}}
	for _, s := range summaries {
		for i, rep := range s.Repetitions {
			records = append(records, []string{
				s.Scenario.DisplayName(),
				strconv.Itoa(i + 1),
				strconv.Itoa(s.Scenario.Users),
				f2(rep.AvgResponseMs),
				f2(rep.MedianResponseMs),
				f2(rep.MaxResponseMs),
				f2(rep.P95ResponseMs),
				f2(rep.P99ResponseMs),
				f2(rep.RequestsPerSec),
				f2(rep.SuccessRatePercent),
				strconv.FormatInt(rep.TotalRequests, 10),
				strconv.FormatInt(rep.TotalFailures, 10),
			})
		}
	}
	return writeCSV(path, records)
}

// writeComparative emits one row per heavier scenario, comparing it against
// the lightest one.
func writeComparative(path string, summaries []types.ScenarioSummary) error {
	records := [][]string{{
		"Comparison", "Avg Time Delta (ms)", "Avg Time Delta (%)",
		"Throughput Delta (req/s)", "Throughput Delta (%)", "Success Rate Delta (p.p.)",
	}}
	if len(summaries) >= 2 {
		base := summaries[0]
		for _, s := range summaries[1:] {
			timeDelta := s.AvgResponseMs - base.AvgResponseMs
			tputDelta := s.RequestsPerSec - base.RequestsPerSec
			records = append(records, []string{
				fmt.Sprintf("%s -> %s", base.Scenario.DisplayName(), s.Scenario.DisplayName()),
				fmt.Sprintf("%+.1f", timeDelta),
				pctDelta(timeDelta, base.AvgResponseMs),
				fmt.Sprintf("%+.1f", tputDelta),
				pctDelta(tputDelta, base.RequestsPerSec),
				fmt.Sprintf("%+.2f", s.SuccessRatePercent-base.SuccessRatePercent),
			})
		}
	}
	return writeCSV(path, records)
}

func pctDelta(delta, base float64) string {
	if base == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f", delta/base*100)
}

func f2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
