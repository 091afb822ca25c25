package types

// AggregatedName marks the whole-system row in a stats history file, as
// opposed to the per-endpoint breakdown rows.
const AggregatedName = "Aggregated"

// SampleRow is one aggregate snapshot from a repetition's stats history:
// cumulative counters plus current-window latency and throughput figures.
// Percentile columns are optional in the source data (too few samples in the
// window leaves them blank), so they decode to nil rather than zero.
type SampleRow struct {
	Timestamp    int64   `json:"timestamp"`
	UserCount    int     `json:"user_count"`
	Name         string  `json:"name"`
	RequestCount int64   `json:"request_count"`
	FailureCount int64   `json:"failure_count"`
	MedianMs     float64 `json:"median_ms"`
	AverageMs    float64 `json:"average_ms"`
	MinMs        float64 `json:"min_ms"`
	MaxMs        float64 `json:"max_ms"`
	RequestsPerS float64 `json:"requests_per_s"`
	FailuresPerS float64 `json:"failures_per_s"`

	P50Ms *float64 `json:"p50_ms,omitempty"`
	P95Ms *float64 `json:"p95_ms,omitempty"`
	P99Ms *float64 `json:"p99_ms,omitempty"`
}
