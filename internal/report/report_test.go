package report_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loadscope/loadscope/internal/report"
	"github.com/loadscope/loadscope/pkg/diagnostic"
	"github.com/loadscope/loadscope/pkg/types"
)

func testSummaries() []types.ScenarioSummary {
	return []types.ScenarioSummary{
		{
			Scenario:         types.Scenario{Name: "ScenarioA", Label: "Scenario A (50 users)", Users: 50, DurationSeconds: 600, WarmupSeconds: 60},
			ValidRepetitions: 2,
			Repetitions: []types.RepetitionSummary{
				{Scenario: "ScenarioA", AvgResponseMs: 100, MedianResponseMs: 80, MaxResponseMs: 600, P95ResponseMs: 220, P99ResponseMs: 300, RequestsPerSec: 50, SuccessRatePercent: 100, TotalRequests: 27000},
				{Scenario: "ScenarioA", AvgResponseMs: 120, MedianResponseMs: 96, MaxResponseMs: 700, P95ResponseMs: 260, P99ResponseMs: 340, RequestsPerSec: 46, SuccessRatePercent: 99, TotalRequests: 24840, TotalFailures: 248},
			},
			AvgResponseMs:      110,
			MedianResponseMs:   88,
			MinResponseMs:      4,
			MaxResponseMs:      700,
			P95ResponseMs:      240,
			P99ResponseMs:      320,
			RequestsPerSec:     48,
			SuccessRatePercent: 99.5,
			TotalRequests:      51840,
			TotalFailures:      248,
		},
		{
			Scenario:         types.Scenario{Name: "ScenarioC", Label: "Scenario C (200 users)", Users: 200, DurationSeconds: 300, WarmupSeconds: 30},
			ValidRepetitions: 1,
			Repetitions: []types.RepetitionSummary{
				{Scenario: "ScenarioC", AvgResponseMs: 180, MedianResponseMs: 150, MaxResponseMs: 1500, P95ResponseMs: 400, P99ResponseMs: 800, RequestsPerSec: 160, SuccessRatePercent: 98, TotalRequests: 43200, TotalFailures: 864},
			},
			AvgResponseMs:      180,
			MedianResponseMs:   150,
			MinResponseMs:      3,
			MaxResponseMs:      1500,
			P95ResponseMs:      400,
			P99ResponseMs:      800,
			RequestsPerSec:     160,
			SuccessRatePercent: 98,
			TotalRequests:      43200,
			TotalFailures:      864,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestWriteTables(t *testing.T) {
	dir := t.TempDir()
	summaries := testSummaries()

	if err := report.WriteTables(dir, summaries); err != nil {
		t.Fatalf("WriteTables() error = %v", err)
	}

	consolidated := readCSV(t, filepath.Join(dir, report.ConsolidatedCSV))
	if len(consolidated) != 3 {
		t.Fatalf("consolidated rows = %d, want header + 2", len(consolidated))
	}
	if consolidated[1][0] != "Scenario A (50 users)" {
		t.Errorf("consolidated[1][0] = %q", consolidated[1][0])
	}
	if consolidated[1][5] != "110.00" {
		t.Errorf("consolidated avg = %q, want 110.00", consolidated[1][5])
	}
	if consolidated[2][13] != "43200" {
		t.Errorf("consolidated total requests = %q, want 43200", consolidated[2][13])
	}

	detailed := readCSV(t, filepath.Join(dir, report.DetailedCSV))
	// Header plus one row per repetition: 2 for A, 1 for C.
	if len(detailed) != 4 {
		t.Fatalf("detailed rows = %d, want 4", len(detailed))
	}
	if detailed[1][1] != "1" || detailed[2][1] != "2" {
		t.Errorf("repetition numbering = %q, %q", detailed[1][1], detailed[2][1])
	}

	comparative := readCSV(t, filepath.Join(dir, report.ComparativeCSV))
	if len(comparative) != 2 {
		t.Fatalf("comparative rows = %d, want header + 1", len(comparative))
	}
	if !strings.Contains(comparative[1][0], "->") {
		t.Errorf("comparison label = %q, want an A -> C pair", comparative[1][0])
	}
	if comparative[1][1] != "+70.0" {
		t.Errorf("avg time delta = %q, want +70.0", comparative[1][1])
	}
}

func TestWriteTablesSingleScenario(t *testing.T) {
	dir := t.TempDir()

	if err := report.WriteTables(dir, testSummaries()[:1]); err != nil {
		t.Fatalf("WriteTables() error = %v", err)
	}
	// No comparison possible: header only.
	comparative := readCSV(t, filepath.Join(dir, report.ComparativeCSV))
	if len(comparative) != 1 {
		t.Errorf("comparative rows = %d, want header only", len(comparative))
	}
}

func TestBuildSummary(t *testing.T) {
	summaries := testSummaries()
	interp := diagnostic.Interpret(summaries)

	text := report.BuildSummary(summaries, interp)

	for _, want := range []string{
		"EXECUTIVE SUMMARY",
		"Overall grade: " + interp.Grade,
		"Scenario A (50 users)",
		"Scenario C (200 users)",
		"SCALING",
		"Throughput 50 -> 200 users",
		"RATINGS",
		"RECOMMENDATIONS",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	text := report.BuildSummary(nil, diagnostic.Interpret(nil))
	if !strings.Contains(text, "No scenario produced valid data") {
		t.Errorf("empty summary = %q", text)
	}
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	summaries := testSummaries()

	if err := report.WriteSummary(dir, summaries, diagnostic.Interpret(summaries)); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, report.SummaryFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "EXECUTIVE SUMMARY") {
		t.Error("summary file missing header")
	}
}

func TestConsolePrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	summaries := testSummaries()

	report.NewConsolePrinter(&buf).Print(summaries, diagnostic.Interpret(summaries))

	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Error("non-terminal output contains ANSI escapes")
	}
	for _, want := range []string{"Scenario A (50 users)", "Grade", "99.5%", "98.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteCharts(t *testing.T) {
	dir := t.TempDir()

	if err := report.WriteCharts(dir, testSummaries()); err != nil {
		t.Fatalf("WriteCharts() error = %v", err)
	}
	for _, name := range []string{
		"01_response_time.png",
		"02_throughput.png",
		"03_success_rate.png",
		"04_scalability.png",
		"05_latency_comparison.png",
	} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing chart %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("chart %s is empty", name)
		}
	}
}
