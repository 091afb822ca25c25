package types

// RepetitionSummary is the steady-state point estimate for one repetition of
// a scenario, derived after the warmup window has been discarded. All
// latency figures are milliseconds.
type RepetitionSummary struct {
	Scenario string `json:"scenario"`
	Source   string `json:"source,omitempty"`

	AvgResponseMs    float64 `json:"avg_response_ms"`
	MedianResponseMs float64 `json:"median_response_ms"`
	MinResponseMs    float64 `json:"min_response_ms"`
	MaxResponseMs    float64 `json:"max_response_ms"`
	P95ResponseMs    float64 `json:"p95_response_ms"`
	P99ResponseMs    float64 `json:"p99_response_ms"`

	RequestsPerSec     float64 `json:"requests_per_sec"`
	SuccessRatePercent float64 `json:"success_rate_percent"`
	TotalRequests      int64   `json:"total_requests"`
	TotalFailures      int64   `json:"total_failures"`

	// SteadySeconds counts the retained snapshots, i.e. seconds of data
	// left after warmup exclusion.
	SteadySeconds int `json:"steady_seconds"`
}

// ScenarioSummary reduces the valid repetitions of one scenario into a single
// comparable record. Central-tendency fields are means across repetitions,
// worst/best-case latency are max-of-maxes and min-of-mins, totals are sums.
// Built once per analysis run and never mutated afterwards.
type ScenarioSummary struct {
	Scenario         Scenario            `json:"scenario"`
	ValidRepetitions int                 `json:"valid_repetitions"`
	Repetitions      []RepetitionSummary `json:"repetitions"`

	AvgResponseMs    float64 `json:"avg_response_ms"`
	MedianResponseMs float64 `json:"median_response_ms"`
	MinResponseMs    float64 `json:"min_response_ms"`
	MaxResponseMs    float64 `json:"max_response_ms"`
	P95ResponseMs    float64 `json:"p95_response_ms"`
	P99ResponseMs    float64 `json:"p99_response_ms"`

	RequestsPerSec     float64 `json:"requests_per_sec"`
	SuccessRatePercent float64 `json:"success_rate_percent"`
	TotalRequests      int64   `json:"total_requests"`
	TotalFailures      int64   `json:"total_failures"`
}
