package analysis

import (
	perrors "github.com/loadscope/loadscope/pkg/errors"
	"github.com/loadscope/loadscope/pkg/types"
)

// SummarizeScenario reduces the valid repetition summaries of one scenario
// into a single record. Reduction is deliberately mixed per field:
//
//	avg/median/p95/p99 response time  mean across repetitions
//	max response time                 max across repetitions
//	min response time                 min across repetitions
//	throughput                        mean across repetitions
//	success rate                      mean across repetitions (unweighted)
//	total requests/failures           sum across repetitions
//
// Success rate is intentionally not weighted by request volume: each
// repetition counts equally.
func SummarizeScenario(sc types.Scenario, reps []types.RepetitionSummary) (types.ScenarioSummary, error) {
	if len(reps) == 0 {
		return types.ScenarioSummary{}, perrors.ErrNoValidRepetitions(sc.Name)
	}

	summary := types.ScenarioSummary{
		Scenario:         sc,
		ValidRepetitions: len(reps),
		Repetitions:      append([]types.RepetitionSummary(nil), reps...),
		MinResponseMs:    reps[0].MinResponseMs,
		MaxResponseMs:    reps[0].MaxResponseMs,
	}

	for _, rep := range reps {
		summary.AvgResponseMs += rep.AvgResponseMs
		summary.MedianResponseMs += rep.MedianResponseMs
		summary.P95ResponseMs += rep.P95ResponseMs
		summary.P99ResponseMs += rep.P99ResponseMs
		summary.RequestsPerSec += rep.RequestsPerSec
		summary.SuccessRatePercent += rep.SuccessRatePercent
		summary.TotalRequests += rep.TotalRequests
		summary.TotalFailures += rep.TotalFailures

		if rep.MaxResponseMs > summary.MaxResponseMs {
			summary.MaxResponseMs = rep.MaxResponseMs
		}
		if rep.MinResponseMs < summary.MinResponseMs {
			summary.MinResponseMs = rep.MinResponseMs
		}
	}

	n := float64(len(reps))
	summary.AvgResponseMs /= n
	summary.MedianResponseMs /= n
	summary.P95ResponseMs /= n
	summary.P99ResponseMs /= n
	summary.RequestsPerSec /= n
	summary.SuccessRatePercent /= n

	return summary, nil
}
