package main

import (
	"flag"
	"os"

	"github.com/loadscope/loadscope/internal/analysis"
	"github.com/loadscope/loadscope/internal/config"
	"github.com/loadscope/loadscope/internal/logging"
	"github.com/loadscope/loadscope/internal/report"
	"github.com/loadscope/loadscope/internal/results"
	"github.com/loadscope/loadscope/pkg/diagnostic"
	"github.com/loadscope/loadscope/pkg/types"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	resultsDir := flag.String("results", "", "results directory, overrides config")
	outDir := flag.String("out", "", "output directory for tables and reports, overrides config")
	dbPath := flag.String("db", "", "sqlite database for run history, overrides config; empty disables")
	charts := flag.Bool("charts", true, "render PNG charts")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := logging.LevelInfo
	if *verbose {
		level = logging.LevelDebug
	}
	logging.Init(level)
	log := logging.NewLogger("analyze")

	cfg := config.DefaultConfig()
	path := *configPath
	optional := false
	if path == "" {
		path = "loadscope.yaml"
		optional = true
	}
	if err := cfg.LoadFile(path, optional); err != nil {
		log.Error("config error", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		log.Error("config error", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	if *resultsDir != "" {
		cfg.ResultsDir = *resultsDir
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Error("config error", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	runner := analysis.NewRunner(cfg.ResultsDir, cfg.Scenarios, log)
	summaries, err := runner.Run()
	if err != nil {
		log.Error("analysis failed", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	flat := make([]types.ScenarioSummary, 0, len(summaries))
	for _, s := range summaries {
		flat = append(flat, s)
	}
	ordered := diagnostic.ByUsers(flat)
	interp := diagnostic.Interpret(ordered)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("cannot create output directory", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	if err := report.WriteTables(cfg.OutputDir, ordered); err != nil {
		log.Error("writing tables failed", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	if *charts {
		if err := report.WriteCharts(cfg.OutputDir, ordered); err != nil {
			log.Warn("writing charts failed", logging.Field{Key: "error", Value: err})
		}
	}
	if err := report.WriteSummary(cfg.OutputDir, ordered, interp); err != nil {
		log.Error("writing summary failed", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	report.NewConsolePrinter(os.Stdout).Print(ordered, interp)

	if cfg.DBPath != "" {
		store, err := results.New(cfg.DBPath, cfg.MaxStoredRuns)
		if err != nil {
			log.Warn("run history unavailable", logging.Field{Key: "error", Value: err})
		} else {
			defer store.Close()
			id, err := store.SaveRun(cfg.ResultsDir, summaries)
			if err != nil {
				log.Warn("could not store run", logging.Field{Key: "error", Value: err})
			} else {
				log.Info("run stored", logging.Field{Key: "run_id", Value: id})
			}
		}
	}

	log.Info("analysis complete",
		logging.Field{Key: "scenarios", Value: len(ordered)},
		logging.Field{Key: "output", Value: cfg.OutputDir})
}
