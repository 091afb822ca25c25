package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/loadscope/loadscope/pkg/types"
)

var (
	colorBlue   = color.RGBA{52, 152, 219, 255}
	colorRed    = color.RGBA{231, 76, 60, 255}
	colorOrange = color.RGBA{243, 156, 18, 255}
	colorGray   = color.RGBA{149, 165, 166, 255}
)

// WriteCharts renders the PNG charts into outputDir. summaries must be
// ordered lightest scenario first. Chart rendering failures are returned but
// callers treat them as non-fatal: a missing PNG must not block the tables.
func WriteCharts(outputDir string, summaries []types.ScenarioSummary) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if len(summaries) == 0 {
		return nil
	}

	charts := []struct {
		name   string
		render func(string, []types.ScenarioSummary) error
	}{
		{"01_response_time.png", responseTimeChart},
		{"02_throughput.png", throughputChart},
		{"03_success_rate.png", successRateChart},
		{"04_scalability.png", scalabilityChart},
		{"05_latency_comparison.png", latencyComparisonChart},
	}
	for _, c := range charts {
		if err := c.render(filepath.Join(outputDir, c.name), summaries); err != nil {
			return fmt.Errorf("render %s: %w", c.name, err)
		}
	}
	return nil
}

func barChart(path, title, yLabel string, values plotter.Values, labels []string, fill color.Color) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.Y.Min = 0

	bar, err := plotter.NewBarChart(values, vg.Points(45))
	if err != nil {
		return err
	}
	bar.Color = fill
	bar.LineStyle.Width = 0
	p.Add(bar)

	// Fixed x range keeps single-bar charts from filling the whole width.
	p.X.Min = -0.5
	p.X.Max = float64(len(values)) - 0.5
	ticks := make([]plot.Tick, len(labels))
	for i, label := range labels {
		ticks[i] = plot.Tick{Value: float64(i), Label: label}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func scenarioLabels(summaries []types.ScenarioSummary) []string {
	labels := make([]string, len(summaries))
	for i, s := range summaries {
		labels[i] = fmt.Sprintf("%d users", s.Scenario.Users)
	}
	return labels
}

func responseTimeChart(path string, summaries []types.ScenarioSummary) error {
	values := make(plotter.Values, len(summaries))
	for i, s := range summaries {
		values[i] = s.AvgResponseMs
	}
	return barChart(path, "Average Response Time by Scenario", "Time (ms)",
		values, scenarioLabels(summaries), colorBlue)
}

func throughputChart(path string, summaries []types.ScenarioSummary) error {
	values := make(plotter.Values, len(summaries))
	for i, s := range summaries {
		values[i] = s.RequestsPerSec
	}
	return barChart(path, "Throughput by Scenario", "Requests/s",
		values, scenarioLabels(summaries), colorOrange)
}

func successRateChart(path string, summaries []types.ScenarioSummary) error {
	values := make(plotter.Values, len(summaries))
	for i, s := range summaries {
		values[i] = s.SuccessRatePercent
	}
	return barChart(path, "Success Rate by Scenario", "Success Rate (%)",
		values, scenarioLabels(summaries), colorRed)
}

// scalabilityChart plots measured throughput against the ideal linear
// projection from the lightest scenario.
func scalabilityChart(path string, summaries []types.ScenarioSummary) error {
	p := plot.New()
	p.Title.Text = "Scalability: Users vs Throughput"
	p.X.Label.Text = "Concurrent Users"
	p.Y.Label.Text = "Requests/s"
	p.Y.Min = 0

	measured := make(plotter.XYs, len(summaries))
	ideal := make(plotter.XYs, len(summaries))
	base := summaries[0]
	for i, s := range summaries {
		measured[i].X = float64(s.Scenario.Users)
		measured[i].Y = s.RequestsPerSec
		ideal[i].X = float64(s.Scenario.Users)
		if base.Scenario.Users > 0 {
			ideal[i].Y = base.RequestsPerSec * float64(s.Scenario.Users) / float64(base.Scenario.Users)
		}
	}

	measuredLine, points, err := plotter.NewLinePoints(measured)
	if err != nil {
		return err
	}
	measuredLine.Color = colorBlue
	measuredLine.Width = vg.Points(2)
	points.Color = colorBlue

	idealLine, err := plotter.NewLine(ideal)
	if err != nil {
		return err
	}
	idealLine.Color = colorGray
	idealLine.Width = vg.Points(2)
	idealLine.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}

	p.Add(measuredLine, points, idealLine)
	p.Legend.Add("measured", measuredLine)
	p.Legend.Add("ideal linear", idealLine)
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

// latencyComparisonChart draws grouped bars: median, average, and p95 per
// scenario.
func latencyComparisonChart(path string, summaries []types.ScenarioSummary) error {
	p := plot.New()
	p.Title.Text = "Latency Comparison (P50 / Avg / P95)"
	p.Y.Label.Text = "Time (ms)"
	p.Y.Min = 0

	medians := make(plotter.Values, len(summaries))
	averages := make(plotter.Values, len(summaries))
	p95s := make(plotter.Values, len(summaries))
	for i, s := range summaries {
		medians[i] = s.MedianResponseMs
		averages[i] = s.AvgResponseMs
		p95s[i] = s.P95ResponseMs
	}

	width := vg.Points(22)

	medianBars, err := plotter.NewBarChart(medians, width)
	if err != nil {
		return err
	}
	medianBars.Color = colorBlue
	medianBars.LineStyle.Width = 0
	medianBars.Offset = -width

	avgBars, err := plotter.NewBarChart(averages, width)
	if err != nil {
		return err
	}
	avgBars.Color = colorRed
	avgBars.LineStyle.Width = 0

	p95Bars, err := plotter.NewBarChart(p95s, width)
	if err != nil {
		return err
	}
	p95Bars.Color = colorOrange
	p95Bars.LineStyle.Width = 0
	p95Bars.Offset = width

	p.Add(medianBars, avgBars, p95Bars)
	p.Legend.Add("P50 (median)", medianBars)
	p.Legend.Add("average", avgBars)
	p.Legend.Add("P95", p95Bars)
	p.Legend.Top = true

	p.X.Min = -0.5
	p.X.Max = float64(len(summaries)) - 0.5
	labels := scenarioLabels(summaries)
	ticks := make([]plot.Tick, len(labels))
	for i, label := range labels {
		ticks[i] = plot.Tick{Value: float64(i), Label: label}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}
