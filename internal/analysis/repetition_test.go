package analysis_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/loadscope/loadscope/internal/analysis"
	perrors "github.com/loadscope/loadscope/pkg/errors"
	"github.com/loadscope/loadscope/pkg/types"
)

func row(ts int64, opts ...func(*types.SampleRow)) types.SampleRow {
	r := types.SampleRow{
		Timestamp:    ts,
		Name:         types.AggregatedName,
		RequestCount: 1000,
		FailureCount: 10,
		MedianMs:     100,
		AverageMs:    120,
		MinMs:        5,
		MaxMs:        900,
		RequestsPerS: 50,
	}
	p95, p99 := 300.0, 450.0
	r.P95Ms = &p95
	r.P99Ms = &p99
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func scenario(warmup int) types.Scenario {
	return types.Scenario{
		Name:            "ScenarioA",
		Users:           50,
		DurationSeconds: 600,
		WarmupSeconds:   warmup,
	}
}

func TestLoadRepetitionWarmupCutoff(t *testing.T) {
	rows := []types.SampleRow{
		row(0, func(r *types.SampleRow) { r.RequestsPerS = 10 }),
		row(30, func(r *types.SampleRow) { r.RequestsPerS = 20 }),
		row(59, func(r *types.SampleRow) { r.RequestsPerS = 30 }),
		row(60, func(r *types.SampleRow) { r.RequestsPerS = 40 }),
		row(90, func(r *types.SampleRow) { r.RequestsPerS = 60; r.AverageMs = 150 }),
	}

	got, err := analysis.LoadRepetition(rows, scenario(60))
	if err != nil {
		t.Fatalf("LoadRepetition() error = %v", err)
	}

	// Cutoff is first timestamp + warmup and the boundary is retained, so
	// only the rows at 60 and 90 survive.
	if got.SteadySeconds != 2 {
		t.Errorf("SteadySeconds = %d, want 2", got.SteadySeconds)
	}
	if got.AvgResponseMs != 150 {
		t.Errorf("AvgResponseMs = %v, want 150 (last retained row)", got.AvgResponseMs)
	}
	if got.RequestsPerSec != 50 {
		t.Errorf("RequestsPerSec = %v, want 50 (mean of 40 and 60)", got.RequestsPerSec)
	}
}

func TestLoadRepetitionErrors(t *testing.T) {
	tests := []struct {
		name     string
		rows     []types.SampleRow
		warmup   int
		wantCode string
	}{
		{
			name:     "no rows",
			rows:     nil,
			warmup:   60,
			wantCode: perrors.ErrCodeNoAggregatedRows,
		},
		{
			name:     "warmup consumes everything",
			rows:     []types.SampleRow{row(0), row(10), row(20)},
			warmup:   30,
			wantCode: perrors.ErrCodeNoSteadyState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analysis.LoadRepetition(tt.rows, scenario(tt.warmup))
			if err == nil {
				t.Fatal("LoadRepetition() error = nil, want error")
			}
			if !perrors.HasCode(err, tt.wantCode) {
				t.Errorf("LoadRepetition() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestLoadRepetitionOrderInvariance(t *testing.T) {
	ordered := []types.SampleRow{
		row(0, func(r *types.SampleRow) { r.RequestsPerS = 10 }),
		row(60, func(r *types.SampleRow) { r.RequestsPerS = 40 }),
		row(90, func(r *types.SampleRow) { r.RequestsPerS = 60 }),
	}
	shuffled := []types.SampleRow{ordered[2], ordered[0], ordered[1]}

	a, err := analysis.LoadRepetition(ordered, scenario(60))
	if err != nil {
		t.Fatalf("LoadRepetition(ordered) error = %v", err)
	}
	b, err := analysis.LoadRepetition(shuffled, scenario(60))
	if err != nil {
		t.Fatalf("LoadRepetition(shuffled) error = %v", err)
	}
	if a != b {
		t.Errorf("summary differs with input order:\nordered  = %+v\nshuffled = %+v", a, b)
	}

	// The caller's slice must not be reordered.
	if shuffled[0].Timestamp != 90 {
		t.Errorf("input slice was mutated, first timestamp = %d", shuffled[0].Timestamp)
	}
}

func TestLoadRepetitionPercentileFallback(t *testing.T) {
	rows := []types.SampleRow{
		row(60, func(r *types.SampleRow) {
			r.P95Ms = nil
			r.P99Ms = nil
			r.AverageMs = 123
		}),
	}

	got, err := analysis.LoadRepetition(rows, scenario(0))
	if err != nil {
		t.Fatalf("LoadRepetition() error = %v", err)
	}
	if got.P95ResponseMs != 123 {
		t.Errorf("P95ResponseMs = %v, want average fallback 123", got.P95ResponseMs)
	}
	if got.P99ResponseMs != 123 {
		t.Errorf("P99ResponseMs = %v, want average fallback 123", got.P99ResponseMs)
	}
}

func TestLoadRepetitionSuccessRate(t *testing.T) {
	tests := []struct {
		name     string
		requests int64
		failures int64
		want     float64
	}{
		{name: "all ok", requests: 1000, failures: 0, want: 100},
		{name: "some failures", requests: 1000, failures: 25, want: 97.5},
		{name: "zero requests is a sentinel", requests: 0, failures: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []types.SampleRow{
				row(0, func(r *types.SampleRow) {
					r.RequestCount = tt.requests
					r.FailureCount = tt.failures
				}),
			}
			got, err := analysis.LoadRepetition(rows, scenario(0))
			if err != nil {
				t.Fatalf("LoadRepetition() error = %v", err)
			}
			if got.SuccessRatePercent != tt.want {
				t.Errorf("SuccessRatePercent = %v, want %v", got.SuccessRatePercent, tt.want)
			}
			if got.TotalRequests != tt.requests {
				t.Errorf("TotalRequests = %d, want %d", got.TotalRequests, tt.requests)
			}
		})
	}
}

func TestLoadRepetitionFile(t *testing.T) {
	dir := t.TempDir()

	csvData := "Timestamp,User Count,Name,Requests/s,Failures/s,50%,95%,99%," +
		"Total Request Count,Total Failure Count,Total Median Response Time," +
		"Total Average Response Time,Total Min Response Time,Total Max Response Time\n" +
		"100,50,Aggregated,40.00,0.50,100,300,450,1000,10,100,120,5,900\n" +
		"100,50,/api/vet/vets,10.00,0.00,90,200,300,250,0,90,95,5,400\n" +
		"160,50,Aggregated,60.00,0.50,110,320,480,4000,20,110,150,5,950\n"

	path := filepath.Join(dir, "results_stats_history.csv")
	if err := os.WriteFile(path, []byte(csvData), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := analysis.LoadRepetitionFile(path, scenario(60))
	if err != nil {
		t.Fatalf("LoadRepetitionFile() error = %v", err)
	}
	if got.Source != path {
		t.Errorf("Source = %q, want %q", got.Source, path)
	}
	// Only the Aggregated row at 160 survives warmup exclusion; the
	// per-endpoint row is never counted.
	if got.SteadySeconds != 1 {
		t.Errorf("SteadySeconds = %d, want 1", got.SteadySeconds)
	}
	if got.AvgResponseMs != 150 {
		t.Errorf("AvgResponseMs = %v, want 150", got.AvgResponseMs)
	}
	if got.RequestsPerSec != 60 {
		t.Errorf("RequestsPerSec = %v, want 60", got.RequestsPerSec)
	}
	if got.TotalRequests != 4000 {
		t.Errorf("TotalRequests = %d, want 4000", got.TotalRequests)
	}
}

func TestLoadRepetitionFileErrors(t *testing.T) {
	dir := t.TempDir()

	header := "Timestamp,User Count,Name,Requests/s,Failures/s,50%,95%,99%," +
		"Total Request Count,Total Failure Count,Total Median Response Time," +
		"Total Average Response Time,Total Min Response Time,Total Max Response Time\n"

	tests := []struct {
		name     string
		content  string
		missing  bool
		wantCode string
	}{
		{
			name:     "missing file",
			missing:  true,
			wantCode: perrors.ErrCodeReadError,
		},
		{
			name:     "endpoint rows only",
			content:  header + "100,50,/api/vet/vets,10.00,0.00,90,200,300,250,0,90,95,5,400\n",
			wantCode: perrors.ErrCodeNoAggregatedRows,
		},
		{
			name:     "all rows inside warmup",
			content:  header + "100,50,Aggregated,40.00,0.50,100,300,450,1000,10,100,120,5,900\n",
			wantCode: perrors.ErrCodeNoSteadyState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".csv")
			if !tt.missing {
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			_, err := analysis.LoadRepetitionFile(path, scenario(60))
			if err == nil {
				t.Fatal("LoadRepetitionFile() error = nil, want error")
			}
			if !perrors.HasCode(err, tt.wantCode) {
				t.Errorf("LoadRepetitionFile() error = %v, want code %s", err, tt.wantCode)
			}
			var aerr *perrors.AnalysisError
			if !errors.As(err, &aerr) || aerr.Path != path {
				t.Errorf("error does not carry path %q: %v", path, err)
			}
		})
	}
}
