// Package results persists analysis runs so successive harness invocations
// can be compared over time.
package results

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/loadscope/loadscope/internal/logging"
	"github.com/loadscope/loadscope/pkg/types"
)

// Run is one stored analysis pass.
type Run struct {
	ID         string                           `json:"id"`
	ResultsDir string                           `json:"results_dir"`
	CreatedAt  time.Time                        `json:"created_at"`
	Summaries  map[string]types.ScenarioSummary `json:"summaries,omitempty"`
}

type Store struct {
	db      *sql.DB
	maxRuns int
}

func New(dbPath string, maxRuns int) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(3)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// modernc.org/sqlite requires explicit PRAGMAs (not query-string params)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	// Needed for the ON DELETE CASCADE on scenario_summaries.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, maxRuns: maxRuns}, nil
}

func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		logging.Warn("results store: close failed", logging.Field{Key: "error", Value: err})
	}
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		results_dir TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS scenario_summaries (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		scenario TEXT NOT NULL,
		users INTEGER NOT NULL,
		valid_repetitions INTEGER NOT NULL,
		avg_response_ms REAL NOT NULL,
		median_response_ms REAL NOT NULL,
		min_response_ms REAL NOT NULL,
		max_response_ms REAL NOT NULL,
		p95_response_ms REAL NOT NULL,
		p99_response_ms REAL NOT NULL,
		requests_per_sec REAL NOT NULL,
		success_rate_percent REAL NOT NULL,
		total_requests INTEGER NOT NULL,
		total_failures INTEGER NOT NULL,
		detail TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (run_id, scenario)
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`)
	return err
}

// SaveRun stores one analysis pass and trims history to the configured
// maximum, keeping the newest runs.
func (s *Store) SaveRun(resultsDir string, summaries map[string]types.ScenarioSummary) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, results_dir, created_at) VALUES (?, ?, ?)`,
		id, resultsDir, now,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for name, sum := range summaries {
		detail, err := json.Marshal(sum)
		if err != nil {
			return "", fmt.Errorf("encode summary %s: %w", name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO scenario_summaries (run_id, scenario, users, valid_repetitions,
				avg_response_ms, median_response_ms, min_response_ms, max_response_ms,
				p95_response_ms, p99_response_ms, requests_per_sec, success_rate_percent,
				total_requests, total_failures, detail)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, name, sum.Scenario.Users, sum.ValidRepetitions,
			sum.AvgResponseMs, sum.MedianResponseMs, sum.MinResponseMs, sum.MaxResponseMs,
			sum.P95ResponseMs, sum.P99ResponseMs, sum.RequestsPerSec, sum.SuccessRatePercent,
			sum.TotalRequests, sum.TotalFailures, string(detail),
		); err != nil {
			return "", fmt.Errorf("insert summary %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	s.trim()
	return id, nil
}

// GetRun returns one stored run with its summaries, or nil when absent.
func (s *Store) GetRun(id string) (*Run, error) {
	var run Run
	err := s.db.QueryRow(
		`SELECT id, results_dir, created_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.ResultsDir, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT scenario, detail FROM scenario_summaries WHERE run_id = ? ORDER BY users`, id)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	run.Summaries = make(map[string]types.ScenarioSummary)
	for rows.Next() {
		var name, detail string
		if err := rows.Scan(&name, &detail); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		var sum types.ScenarioSummary
		if err := json.Unmarshal([]byte(detail), &sum); err != nil {
			return nil, fmt.Errorf("decode summary %s: %w", name, err)
		}
		run.Summaries[name] = sum
	}
	return &run, rows.Err()
}

// ListRuns returns the newest runs first, without summaries.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, results_dir, created_at FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ResultsDir, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// trim keeps the newest maxRuns runs. Cascade removes their summaries.
func (s *Store) trim() {
	if s.maxRuns <= 0 {
		return
	}
	res, err := s.db.Exec(
		`DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC LIMIT ?
		)`, s.maxRuns)
	if err != nil {
		logging.Warn("run history trim failed", logging.Field{Key: "error", Value: err})
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logging.Info("run history trimmed",
			logging.Field{Key: "removed", Value: n},
			logging.Field{Key: "max", Value: s.maxRuns})
	}
}
