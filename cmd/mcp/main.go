// Command mcp exposes the analysis pipeline as an MCP (Model Context
// Protocol) server over stdio transport. Agents can spawn this process and
// ask for scenario summaries without parsing CSVs themselves.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/loadscope/loadscope/internal/analysis"
	"github.com/loadscope/loadscope/internal/config"
	"github.com/loadscope/loadscope/internal/logging"
	"github.com/loadscope/loadscope/internal/results"
	"github.com/loadscope/loadscope/pkg/diagnostic"
	"github.com/loadscope/loadscope/pkg/types"
)

const version = "1.0.0"

func main() {
	logging.Init(logging.LevelWarn) // stdout belongs to the protocol

	s := server.NewMCPServer(
		"loadscope",
		version,
		server.WithToolCapabilities(true),
	)

	analyzeTool := mcp.NewTool("analyze_results",
		mcp.WithDescription("Run the steady-state analysis over a results directory. Returns per-scenario summaries (latency percentiles, throughput, success rate) plus an overall interpretation with grade and concerns."),
		mcp.WithString("results_dir",
			mcp.Description("Directory holding <scenario>/rep<N>/results_stats_history.csv files (default: results)"),
		),
	)
	s.AddTool(analyzeTool, handleAnalyzeResults)

	summaryTool := mcp.NewTool("scenario_summary",
		mcp.WithDescription("Analyze a single scenario and return its consolidated summary together with the per-repetition breakdown."),
		mcp.WithString("results_dir",
			mcp.Description("Directory holding the scenario results (default: results)"),
		),
		mcp.WithString("scenario",
			mcp.Required(),
			mcp.Description("Scenario name, e.g. ScenarioA"),
		),
	)
	s.AddTool(summaryTool, handleScenarioSummary)

	listTool := mcp.NewTool("list_runs",
		mcp.WithDescription("List stored analysis runs from the run-history database, newest first."),
		mcp.WithString("db_path",
			mcp.Description("Path to the sqlite run-history database (default: loadscope.db)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return, 1-100 (default: 10)"),
		),
	)
	s.AddTool(listTool, handleListRuns)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "loadscope mcp: error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(resultsDir string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFile("loadscope.yaml", true); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if resultsDir != "" {
		cfg.ResultsDir = resultsDir
	}
	return cfg, nil
}

type analyzePayload struct {
	Scenarios      []types.ScenarioSummary    `json:"scenarios"`
	Interpretation *diagnostic.Interpretation `json:"interpretation"`
}

func handleAnalyzeResults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := loadConfig(req.GetString("results_dir", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Config error: %v", err)), nil
	}

	runner := analysis.NewRunner(cfg.ResultsDir, cfg.Scenarios, logging.NewLogger("mcp"))
	summaries, err := runner.Run()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Analysis failed: %v", err)), nil
	}

	flat := make([]types.ScenarioSummary, 0, len(summaries))
	for _, s := range summaries {
		flat = append(flat, s)
	}
	ordered := diagnostic.ByUsers(flat)

	return jsonResult(analyzePayload{
		Scenarios:      ordered,
		Interpretation: diagnostic.Interpret(ordered),
	})
}

func handleScenarioSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("scenario")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg, err := loadConfig(req.GetString("results_dir", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Config error: %v", err)), nil
	}

	sc, ok := cfg.Scenario(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Unknown scenario %q", name)), nil
	}

	runner := analysis.NewRunner(cfg.ResultsDir, []types.Scenario{sc}, logging.NewLogger("mcp"))
	summaries, err := runner.Run()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Analysis failed: %v", err)), nil
	}
	summary, ok := summaries[sc.Name]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No results for scenario %q", name)), nil
	}
	return jsonResult(summary)
}

func handleListRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dbPath := req.GetString("db_path", "loadscope.db")
	limit := req.GetInt("limit", 10)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	store, err := results.New(dbPath, 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot open run history: %v", err)), nil
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Listing runs failed: %v", err)), nil
	}
	return jsonResult(runs)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("JSON encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
