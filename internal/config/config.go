// Package config holds the harness configuration: the target application,
// the scenario matrix, and the input/output locations. Scenario definitions
// are explicit values handed to the aggregator and the load generator —
// nothing here is consulted implicitly from package level.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loadscope/loadscope/pkg/types"
)

type Config struct {
	// TargetBaseURL is the web application under test.
	TargetBaseURL string `yaml:"target_base_url"`

	ResultsDir string `yaml:"results_dir"`
	OutputDir  string `yaml:"output_dir"`
	DBPath     string `yaml:"db_path"`

	// StatsInterval is the snapshot cadence of the load generator.
	StatsIntervalSeconds int `yaml:"stats_interval_seconds"`

	// WaitMinMillis/WaitMaxMillis bound the per-user think time between
	// requests.
	WaitMinMillis int `yaml:"wait_min_millis"`
	WaitMaxMillis int `yaml:"wait_max_millis"`

	RequestTimeout time.Duration `yaml:"request_timeout"`

	MaxStoredRuns int `yaml:"max_stored_runs"`

	Scenarios []types.Scenario `yaml:"scenarios"`
}

func DefaultConfig() *Config {
	return &Config{
		TargetBaseURL:        "http://localhost:8080",
		ResultsDir:           "results",
		OutputDir:            "analysis",
		DBPath:               "loadscope.db",
		StatsIntervalSeconds: 1,
		WaitMinMillis:        1000,
		WaitMaxMillis:        3000,
		RequestTimeout:       10 * time.Second,
		MaxStoredRuns:        200,
		Scenarios: []types.Scenario{
			{Name: "ScenarioA", Label: "Scenario A (50 users)", Users: 50, DurationSeconds: 600, WarmupSeconds: 60, Repetitions: 3},
			{Name: "ScenarioB", Label: "Scenario B (100 users)", Users: 100, DurationSeconds: 600, WarmupSeconds: 60, Repetitions: 3},
			{Name: "ScenarioC", Label: "Scenario C (200 users)", Users: 200, DurationSeconds: 300, WarmupSeconds: 30, Repetitions: 3},
		},
	}
}

// LoadFile overlays the YAML file at path onto c. A missing file is not an
// error when optional is true, so the defaults still apply.
func (c *Config) LoadFile(path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("LOADSCOPE_TARGET"); v != "" {
		c.TargetBaseURL = v
	}
	if v := os.Getenv("LOADSCOPE_RESULTS_DIR"); v != "" {
		c.ResultsDir = v
	}
	if v := os.Getenv("LOADSCOPE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("LOADSCOPE_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("LOADSCOPE_STATS_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LOADSCOPE_STATS_INTERVAL %q: %w", v, err)
		}
		c.StatsIntervalSeconds = n
	}
	if v := os.Getenv("LOADSCOPE_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LOADSCOPE_REQUEST_TIMEOUT %q: %w", v, err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("LOADSCOPE_MAX_STORED_RUNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LOADSCOPE_MAX_STORED_RUNS %q: %w", v, err)
		}
		c.MaxStoredRuns = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.TargetBaseURL == "" {
		return fmt.Errorf("target base URL cannot be empty")
	}
	if c.ResultsDir == "" {
		return fmt.Errorf("results directory cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.StatsIntervalSeconds <= 0 {
		return fmt.Errorf("stats interval must be > 0")
	}
	if c.WaitMinMillis < 0 || c.WaitMaxMillis < c.WaitMinMillis {
		return fmt.Errorf("wait bounds invalid: min=%d max=%d", c.WaitMinMillis, c.WaitMaxMillis)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be > 0")
	}
	if c.MaxStoredRuns <= 0 {
		return fmt.Errorf("max stored runs must be > 0")
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario must be defined")
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for _, sc := range c.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("scenario name cannot be empty")
		}
		if seen[sc.Name] {
			return fmt.Errorf("duplicate scenario name: %s", sc.Name)
		}
		seen[sc.Name] = true
		if sc.Users <= 0 {
			return fmt.Errorf("scenario %s: users must be > 0", sc.Name)
		}
		if sc.DurationSeconds <= 0 {
			return fmt.Errorf("scenario %s: duration must be > 0", sc.Name)
		}
		if sc.WarmupSeconds < 0 {
			return fmt.Errorf("scenario %s: warmup cannot be negative", sc.Name)
		}
		if sc.WarmupSeconds >= sc.DurationSeconds {
			return fmt.Errorf("scenario %s: warmup (%ds) must be shorter than duration (%ds)",
				sc.Name, sc.WarmupSeconds, sc.DurationSeconds)
		}
		if sc.Repetitions <= 0 {
			return fmt.Errorf("scenario %s: repetitions must be > 0", sc.Name)
		}
	}
	return nil
}

// Scenario looks up a scenario definition by name.
func (c *Config) Scenario(name string) (types.Scenario, bool) {
	for _, sc := range c.Scenarios {
		if sc.Name == name {
			return sc, true
		}
	}
	return types.Scenario{}, false
}
