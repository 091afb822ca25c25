// Package statshistory reads and writes the stats history CSV shape produced
// by the load generator: one row per metric source per snapshot, with the
// "Aggregated" row summarizing all endpoints combined.
package statshistory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/loadscope/loadscope/pkg/types"
)

// Column names of the stats history shape. Extra columns are tolerated and
// the order is taken from the header, not assumed.
const (
	colTimestamp    = "Timestamp"
	colUserCount    = "User Count"
	colName         = "Name"
	colRequestsPerS = "Requests/s"
	colFailuresPerS = "Failures/s"
	colP50          = "50%"
	colP95          = "95%"
	colP99          = "99%"
	colRequestCount = "Total Request Count"
	colFailureCount = "Total Failure Count"
	colMedian       = "Total Median Response Time"
	colAverage      = "Total Average Response Time"
	colMin          = "Total Min Response Time"
	colMax          = "Total Max Response Time"
)

var requiredColumns = []string{
	colTimestamp,
	colName,
	colRequestsPerS,
	colRequestCount,
	colFailureCount,
	colMedian,
	colAverage,
	colMin,
	colMax,
}

// ParseReader decodes a stats history stream and returns only the Aggregated
// rows, in input order. Percentile cells that are blank or N/A decode to nil.
func ParseReader(r io.Reader) ([]types.SampleRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows []types.SampleRow
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if cell(record, cols, colName) != types.AggregatedName {
			continue
		}

		row, err := decodeRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile opens, parses, and closes one repetition file.
func ReadFile(path string) ([]types.SampleRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseReader(f)
}

func decodeRow(record []string, cols map[string]int) (types.SampleRow, error) {
	var row types.SampleRow
	var err error

	row.Name = cell(record, cols, colName)
	if row.Timestamp, err = parseInt(cell(record, cols, colTimestamp)); err != nil {
		return row, fmt.Errorf("column %q: %w", colTimestamp, err)
	}
	if row.RequestCount, err = parseInt(cell(record, cols, colRequestCount)); err != nil {
		return row, fmt.Errorf("column %q: %w", colRequestCount, err)
	}
	if row.FailureCount, err = parseInt(cell(record, cols, colFailureCount)); err != nil {
		return row, fmt.Errorf("column %q: %w", colFailureCount, err)
	}
	if row.MedianMs, err = parseFloat(cell(record, cols, colMedian)); err != nil {
		return row, fmt.Errorf("column %q: %w", colMedian, err)
	}
	if row.AverageMs, err = parseFloat(cell(record, cols, colAverage)); err != nil {
		return row, fmt.Errorf("column %q: %w", colAverage, err)
	}
	if row.MinMs, err = parseFloat(cell(record, cols, colMin)); err != nil {
		return row, fmt.Errorf("column %q: %w", colMin, err)
	}
	if row.MaxMs, err = parseFloat(cell(record, cols, colMax)); err != nil {
		return row, fmt.Errorf("column %q: %w", colMax, err)
	}
	if row.RequestsPerS, err = parseFloat(cell(record, cols, colRequestsPerS)); err != nil {
		return row, fmt.Errorf("column %q: %w", colRequestsPerS, err)
	}

	// Optional columns.
	if v := cell(record, cols, colUserCount); v != "" {
		n, err := parseInt(v)
		if err != nil {
			return row, fmt.Errorf("column %q: %w", colUserCount, err)
		}
		row.UserCount = int(n)
	}
	if v := cell(record, cols, colFailuresPerS); v != "" {
		if row.FailuresPerS, err = parseFloat(v); err != nil {
			return row, fmt.Errorf("column %q: %w", colFailuresPerS, err)
		}
	}
	row.P50Ms = parseOptionalFloat(cell(record, cols, colP50))
	row.P95Ms = parseOptionalFloat(cell(record, cols, colP95))
	row.P99Ms = parseOptionalFloat(cell(record, cols, colP99))

	return row, nil
}

func cell(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty numeric cell")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// Some writers emit counters with a fractional part.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty numeric cell")
	}
	return strconv.ParseFloat(s, 64)
}

// parseOptionalFloat treats blank and N/A cells as absent, not zero. A cell
// that is present but unparseable is also treated as absent: percentile
// columns are advisory and the aggregator has a documented fallback.
func parseOptionalFloat(s string) *float64 {
	if s == "" || strings.EqualFold(s, "N/A") {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
