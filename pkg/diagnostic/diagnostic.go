// Package diagnostic interprets scenario summaries into human/agent-readable
// grades, ratings, and findings for the executive report.
package diagnostic

import (
	"fmt"
	"sort"

	"github.com/loadscope/loadscope/pkg/types"
)

// Interpretation holds the semantic reading of one analysis run.
type Interpretation struct {
	Grade             string   `json:"grade"`
	Summary           string   `json:"summary"`
	LatencyRating     string   `json:"latency_rating"`
	ReliabilityRating string   `json:"reliability_rating"`
	ScalabilityRating string   `json:"scalability_rating"`
	Concerns          []string `json:"concerns"`
	Recommendations   []string `json:"recommendations"`
}

// Interpret reads a set of scenario summaries. Scalability is judged by
// comparing the lightest and heaviest scenarios by user count; with a single
// scenario it stays "unknown".
func Interpret(summaries []types.ScenarioSummary) *Interpretation {
	interp := &Interpretation{
		Concerns:        []string{},
		Recommendations: []string{},
	}
	if len(summaries) == 0 {
		interp.Grade = "F"
		interp.Summary = "No scenario data to interpret"
		interp.LatencyRating = "unknown"
		interp.ReliabilityRating = "unknown"
		interp.ScalabilityRating = "unknown"
		return interp
	}

	ordered := ByUsers(summaries)
	base := ordered[0]
	peak := ordered[len(ordered)-1]

	interp.LatencyRating = rateLatency(peak.AvgResponseMs)
	interp.ReliabilityRating = rateReliability(worstSuccessRate(ordered))
	interp.ScalabilityRating = rateScalability(base, peak)

	interp.Concerns = concerns(base, peak, ordered)
	interp.Recommendations = recommendations(interp)

	interp.Grade = computeGrade(interp.LatencyRating, interp.ReliabilityRating, interp.ScalabilityRating)
	interp.Summary = buildSummary(interp.Grade, peak)

	return interp
}

// ByUsers returns the summaries sorted ascending by target user count,
// ties broken by scenario name for determinism.
func ByUsers(summaries []types.ScenarioSummary) []types.ScenarioSummary {
	ordered := append([]types.ScenarioSummary(nil), summaries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Scenario.Users != ordered[j].Scenario.Users {
			return ordered[i].Scenario.Users < ordered[j].Scenario.Users
		}
		return ordered[i].Scenario.Name < ordered[j].Scenario.Name
	})
	return ordered
}

func rateLatency(avgMs float64) string {
	switch {
	case avgMs <= 0:
		return "unknown"
	case avgMs <= 100:
		return "excellent"
	case avgMs <= 300:
		return "good"
	case avgMs <= 800:
		return "fair"
	default:
		return "poor"
	}
}

func rateReliability(successRate float64) string {
	switch {
	case successRate <= 0:
		return "unknown"
	case successRate >= 99.5:
		return "excellent"
	case successRate >= 99:
		return "good"
	case successRate >= 95:
		return "fair"
	default:
		return "poor"
	}
}

// rateScalability compares measured throughput growth against ideal linear
// growth between the lightest and heaviest scenarios.
func rateScalability(base, peak types.ScenarioSummary) string {
	if base.Scenario.Users <= 0 || peak.Scenario.Users <= base.Scenario.Users {
		return "unknown"
	}
	if base.RequestsPerSec <= 0 {
		return "unknown"
	}
	ideal := float64(peak.Scenario.Users) / float64(base.Scenario.Users)
	actual := peak.RequestsPerSec / base.RequestsPerSec
	efficiency := actual / ideal
	switch {
	case efficiency >= 0.9:
		return "excellent"
	case efficiency >= 0.7:
		return "good"
	case efficiency >= 0.4:
		return "fair"
	default:
		return "poor"
	}
}

func worstSuccessRate(ordered []types.ScenarioSummary) float64 {
	worst := ordered[0].SuccessRatePercent
	for _, s := range ordered[1:] {
		if s.SuccessRatePercent < worst {
			worst = s.SuccessRatePercent
		}
	}
	return worst
}

func concerns(base, peak types.ScenarioSummary, ordered []types.ScenarioSummary) []string {
	c := []string{}

	if base.AvgResponseMs > 0 && peak.AvgResponseMs > base.AvgResponseMs*2 {
		c = append(c, "latency_grows_with_load")
	}
	if peak.AvgResponseMs > 800 {
		c = append(c, "high_latency_under_load")
	}
	if base.SuccessRatePercent-peak.SuccessRatePercent > 5 {
		c = append(c, "reliability_drops_under_load")
	}
	for _, s := range ordered {
		if s.SuccessRatePercent < 90 && s.TotalRequests > 0 {
			c = append(c, "high_failure_rate")
			break
		}
	}
	if peak.P99ResponseMs > 0 && peak.AvgResponseMs > 0 && peak.P99ResponseMs > peak.AvgResponseMs*5 {
		c = append(c, "heavy_tail_latency")
	}

	return c
}

func recommendations(interp *Interpretation) []string {
	r := []string{}
	if interp.LatencyRating == "fair" || interp.LatencyRating == "poor" {
		r = append(r, "profile slow endpoints and consider caching frequent reads")
		r = append(r, "review database connection pool sizing")
	}
	if interp.ReliabilityRating == "fair" || interp.ReliabilityRating == "poor" {
		r = append(r, "investigate failure causes before scaling further")
		r = append(r, "add circuit breakers around downstream dependencies")
	}
	if interp.ScalabilityRating == "fair" || interp.ScalabilityRating == "poor" {
		r = append(r, "check CPU/memory limits of the application containers")
	}
	if len(r) == 0 {
		r = append(r, "headroom available; consider testing beyond the current peak load")
	}
	return r
}

var ratingScore = map[string]int{
	"excellent": 4,
	"good":      3,
	"fair":      2,
	"poor":      0,
	"unknown":   2, // neutral default
}

func computeGrade(latency, reliability, scalability string) string {
	score := ratingScore[latency] + ratingScore[reliability] + ratingScore[scalability]
	// Max score = 12 (4+4+4)
	switch {
	case score >= 11:
		return "A"
	case score >= 9:
		return "B"
	case score >= 6:
		return "C"
	case score >= 3:
		return "D"
	default:
		return "F"
	}
}

func buildSummary(grade string, peak types.ScenarioSummary) string {
	gradeDesc := map[string]string{
		"A": "Excellent",
		"B": "Good",
		"C": "Fair",
		"D": "Poor",
		"F": "Very poor",
	}

	return fmt.Sprintf("%s performance at peak load (%d users): %.0fms avg, %.1f req/s, %.1f%% success",
		gradeDesc[grade],
		peak.Scenario.Users,
		peak.AvgResponseMs,
		peak.RequestsPerSec,
		peak.SuccessRatePercent)
}
