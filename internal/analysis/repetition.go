// Package analysis turns raw per-repetition stats history files into
// per-scenario steady-state summaries: discard each repetition's warmup
// window, take the last retained snapshot as the point estimate, average
// throughput over the retained window, then reduce across repetitions.
package analysis

import (
	"sort"

	"github.com/loadscope/loadscope/internal/statshistory"
	perrors "github.com/loadscope/loadscope/pkg/errors"
	"github.com/loadscope/loadscope/pkg/types"
)

// LoadRepetition derives the steady-state summary of one repetition.
//
// The series is sorted by timestamp if the source did not guarantee it
// (stable, so equal timestamps keep input order). The warmup cutoff is
// inclusive: a snapshot exactly at start+warmup is retained.
//
// Point-estimate fields come from the last retained snapshot — the one
// closest to run completion. Throughput is the mean requests/s over all
// retained snapshots, which smooths the per-window noise a single read
// would carry.
func LoadRepetition(rows []types.SampleRow, sc types.Scenario) (types.RepetitionSummary, error) {
	if len(rows) == 0 {
		return types.RepetitionSummary{}, perrors.ErrNoAggregatedRows("")
	}

	if !sorted(rows) {
		dup := make([]types.SampleRow, len(rows))
		copy(dup, rows)
		sort.SliceStable(dup, func(i, j int) bool {
			return dup[i].Timestamp < dup[j].Timestamp
		})
		rows = dup
	}

	cutoff := rows[0].Timestamp + int64(sc.WarmupSeconds)
	first := len(rows)
	for i, row := range rows {
		if row.Timestamp >= cutoff {
			first = i
			break
		}
	}
	retained := rows[first:]
	if len(retained) == 0 {
		return types.RepetitionSummary{}, perrors.ErrNoSteadyState("")
	}

	last := retained[len(retained)-1]

	var throughputSum float64
	for _, row := range retained {
		throughputSum += row.RequestsPerS
	}

	summary := types.RepetitionSummary{
		Scenario:         sc.Name,
		AvgResponseMs:    last.AverageMs,
		MedianResponseMs: last.MedianMs,
		MinResponseMs:    last.MinMs,
		MaxResponseMs:    last.MaxMs,
		P95ResponseMs:    percentileOrAvg(last.P95Ms, last.AverageMs),
		P99ResponseMs:    percentileOrAvg(last.P99Ms, last.AverageMs),
		RequestsPerSec:   throughputSum / float64(len(retained)),
		TotalRequests:    last.RequestCount,
		TotalFailures:    last.FailureCount,
		SteadySeconds:    len(retained),
	}
	summary.SuccessRatePercent = successRate(last.RequestCount, last.FailureCount)
	return summary, nil
}

// LoadRepetitionFile reads one repetition file and summarizes it. Outcomes
// map onto the diagnostic contract: unreadable or malformed input is a read
// error, a file without Aggregated rows and a file fully consumed by warmup
// exclusion keep their own codes.
func LoadRepetitionFile(path string, sc types.Scenario) (types.RepetitionSummary, error) {
	rows, err := statshistory.ReadFile(path)
	if err != nil {
		return types.RepetitionSummary{}, perrors.ErrRead(path, err)
	}
	summary, err := LoadRepetition(rows, sc)
	if err != nil {
		switch {
		case perrors.HasCode(err, perrors.ErrCodeNoAggregatedRows):
			return types.RepetitionSummary{}, perrors.ErrNoAggregatedRows(path)
		case perrors.HasCode(err, perrors.ErrCodeNoSteadyState):
			return types.RepetitionSummary{}, perrors.ErrNoSteadyState(path)
		default:
			return types.RepetitionSummary{}, err
		}
	}
	summary.Source = path
	return summary, nil
}

func sorted(rows []types.SampleRow) bool {
	for i := 1; i < len(rows); i++ {
		if rows[i].Timestamp < rows[i-1].Timestamp {
			return false
		}
	}
	return true
}

// percentileOrAvg substitutes the average response time when a percentile
// column was absent. This understates tail latency, but downstream
// comparisons rely on the field never being empty.
func percentileOrAvg(p *float64, avg float64) float64 {
	if p == nil {
		return avg
	}
	return *p
}

// successRate is 0 when no requests were counted. That zero is a sentinel,
// not a measured rate; TotalRequests distinguishes the two.
func successRate(requests, failures int64) float64 {
	if requests <= 0 {
		return 0
	}
	return float64(requests-failures) / float64(requests) * 100
}
