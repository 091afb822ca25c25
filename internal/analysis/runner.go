package analysis

import (
	"path/filepath"
	"sort"

	"github.com/loadscope/loadscope/internal/logging"
	perrors "github.com/loadscope/loadscope/pkg/errors"
	"github.com/loadscope/loadscope/pkg/types"
)

// RepetitionPattern matches one repetition's stats history file below a
// scenario directory, e.g. results/ScenarioA/rep3/results_stats_history.csv.
const RepetitionPattern = "rep*/results_stats_history.csv"

// Runner drives one analysis pass: discover repetition files per scenario,
// summarize each, reduce to scenario summaries. Sequential and
// deterministic — repetitions are processed in sorted path order so the
// diagnostic stream is reproducible run to run.
type Runner struct {
	resultsDir string
	scenarios  []types.Scenario
	log        *logging.Logger
}

func NewRunner(resultsDir string, scenarios []types.Scenario, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.GetLogger()
	}
	return &Runner{
		resultsDir: resultsDir,
		scenarios:  scenarios,
		log:        log,
	}
}

// Run returns the scenario-name → summary mapping. Scenarios without any
// valid repetition are omitted, never fatal; an entirely empty result is an
// error so a run that found nothing cannot masquerade as a clean report.
func (r *Runner) Run() (map[string]types.ScenarioSummary, error) {
	result := make(map[string]types.ScenarioSummary, len(r.scenarios))

	for _, sc := range r.scenarios {
		summary, ok := r.runScenario(sc)
		if ok {
			result[sc.Name] = summary
		}
	}

	if len(result) == 0 {
		return nil, perrors.ErrNoResults()
	}
	return result, nil
}

func (r *Runner) runScenario(sc types.Scenario) (types.ScenarioSummary, bool) {
	pattern := filepath.Join(r.resultsDir, sc.Name, RepetitionPattern)
	files, err := filepath.Glob(pattern)
	if err != nil {
		r.log.Warn("scenario skipped: bad file pattern",
			logging.Field{Key: "scenario", Value: sc.Name},
			logging.Field{Key: "pattern", Value: pattern},
			logging.Field{Key: "error", Value: err})
		return types.ScenarioSummary{}, false
	}
	sort.Strings(files)

	if len(files) == 0 {
		r.log.Warn("scenario skipped: no repetition files",
			logging.Field{Key: "scenario", Value: sc.Name},
			logging.Field{Key: "pattern", Value: pattern})
		return types.ScenarioSummary{}, false
	}

	r.log.Info("processing scenario",
		logging.Field{Key: "scenario", Value: sc.Name},
		logging.Field{Key: "files", Value: len(files)},
		logging.Field{Key: "warmup_seconds", Value: sc.WarmupSeconds})

	valid := make([]types.RepetitionSummary, 0, len(files))
	for _, path := range files {
		rep, err := LoadRepetitionFile(path, sc)
		if err != nil {
			r.logRepetitionFailure(path, err)
			continue
		}
		r.log.Info("loaded",
			logging.Field{Key: "file", Value: path},
			logging.Field{Key: "requests", Value: rep.TotalRequests},
			logging.Field{Key: "success_rate", Value: rep.SuccessRatePercent},
			logging.Field{Key: "avg_ms", Value: rep.AvgResponseMs})
		valid = append(valid, rep)
	}

	summary, err := SummarizeScenario(sc, valid)
	if err != nil {
		r.log.Warn("scenario skipped: no valid repetitions",
			logging.Field{Key: "scenario", Value: sc.Name})
		return types.ScenarioSummary{}, false
	}

	r.log.Info("scenario summarized",
		logging.Field{Key: "scenario", Value: sc.Name},
		logging.Field{Key: "valid_repetitions", Value: summary.ValidRepetitions},
		logging.Field{Key: "avg_ms", Value: summary.AvgResponseMs},
		logging.Field{Key: "requests_per_sec", Value: summary.RequestsPerSec})
	return summary, true
}

// One line per processed file, with a distinct message per outcome.
// Operators grep these to find out why a repetition went missing.
func (r *Runner) logRepetitionFailure(path string, err error) {
	switch {
	case perrors.HasCode(err, perrors.ErrCodeNoAggregatedRows):
		r.log.Warn("no aggregated rows",
			logging.Field{Key: "file", Value: path})
	case perrors.HasCode(err, perrors.ErrCodeNoSteadyState):
		r.log.Warn("no data after warmup",
			logging.Field{Key: "file", Value: path})
	default:
		r.log.Warn("read error",
			logging.Field{Key: "file", Value: path},
			logging.Field{Key: "error", Value: err})
	}
}
