package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/loadscope/loadscope/internal/config"
	"github.com/loadscope/loadscope/internal/loadgen"
	"github.com/loadscope/loadscope/internal/logging"
	"github.com/loadscope/loadscope/internal/statshistory"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	scenarioName := flag.String("scenario", "", "scenario name to run (required)")
	repetition := flag.Int("rep", 1, "repetition number, used for the output directory")
	target := flag.String("target", "", "target base URL, overrides config")
	outDir := flag.String("out", "", "results directory, overrides config")
	liveAddr := flag.String("live-addr", "", "optional address for the live stats websocket (e.g. :8089)")
	seed := flag.Int64("seed", 0, "random seed, 0 means time-based")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := logging.LevelInfo
	if *verbose {
		level = logging.LevelDebug
	}
	logging.Init(level)
	log := logging.NewLogger("loadgen")

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
	if *target != "" {
		cfg.TargetBaseURL = *target
	}
	if *outDir != "" {
		cfg.ResultsDir = *outDir
	}
	if err := cfg.Validate(); err != nil {
		log.Error("config error", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	if *scenarioName == "" {
		fmt.Fprintln(os.Stderr, "loadgen: -scenario is required")
		flag.Usage()
		os.Exit(2)
	}
	sc, ok := cfg.Scenario(*scenarioName)
	if !ok {
		log.Error("unknown scenario", logging.Field{Key: "scenario", Value: *scenarioName})
		os.Exit(1)
	}
	if *repetition < 1 {
		log.Error("invalid repetition", logging.Field{Key: "rep", Value: *repetition})
		os.Exit(1)
	}

	repDir := filepath.Join(cfg.ResultsDir, sc.Name, fmt.Sprintf("rep%d", *repetition))
	if err := os.MkdirAll(repDir, 0o755); err != nil {
		log.Error("cannot create output directory", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	outPath := filepath.Join(repDir, "results_stats_history.csv")
	out, err := os.Create(outPath)
	if err != nil {
		log.Error("cannot create output file", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}
	defer out.Close()

	var live *loadgen.LiveServer
	var liveSrv *http.Server
	if *liveAddr != "" {
		live = loadgen.NewLiveServer()
		mux := http.NewServeMux()
		mux.HandleFunc("/stats", live.HandleStats)
		liveSrv = &http.Server{Addr: *liveAddr, Handler: mux}
		go func() {
			if err := liveSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("live stats server error", logging.Field{Key: "error", Value: err})
			}
		}()
		log.Info("live stats available",
			logging.Field{Key: "addr", Value: *liveAddr},
			logging.Field{Key: "path", Value: "/stats"})
	}

	gen, err := loadgen.NewGenerator(loadgen.Options{
		Scenario:       sc,
		Target:         cfg.TargetBaseURL,
		WaitMin:        time.Duration(cfg.WaitMinMillis) * time.Millisecond,
		WaitMax:        time.Duration(cfg.WaitMaxMillis) * time.Millisecond,
		StatsInterval:  time.Duration(cfg.StatsIntervalSeconds) * time.Second,
		RequestTimeout: cfg.RequestTimeout,
		Writer:         statshistory.NewWriter(out),
		Live:           live,
		Log:            log,
		Seed:           *seed,
	})
	if err != nil {
		log.Error("generator error", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	runID := uuid.New().String()
	log.Info("starting run",
		logging.Field{Key: "run_id", Value: runID},
		logging.Field{Key: "scenario", Value: sc.Name},
		logging.Field{Key: "users", Value: sc.Users},
		logging.Field{Key: "duration_s", Value: sc.DurationSeconds},
		logging.Field{Key: "rep", Value: *repetition},
		logging.Field{Key: "target", Value: cfg.TargetBaseURL},
		logging.Field{Key: "out", Value: outPath})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := gen.Run(ctx)

	if liveSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		liveSrv.Shutdown(shutdownCtx)
		cancel()
		live.Close()
	}

	if runErr != nil {
		log.Error("run failed", logging.Field{Key: "error", Value: runErr})
		os.Exit(1)
	}
	log.Info("run complete",
		logging.Field{Key: "run_id", Value: runID},
		logging.Field{Key: "out", Value: outPath})
}
