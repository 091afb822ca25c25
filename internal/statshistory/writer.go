package statshistory

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/loadscope/loadscope/pkg/types"
)

var writerHeader = []string{
	colTimestamp,
	colUserCount,
	colName,
	colRequestsPerS,
	colFailuresPerS,
	colP50,
	colP95,
	colP99,
	colRequestCount,
	colFailureCount,
	colMedian,
	colAverage,
	colMin,
	colMax,
}

// Writer emits stats history rows in the same shape the reader accepts, so
// load generator output round-trips through the analyzer.
type Writer struct {
	cw          *csv.Writer
	wroteHeader bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

func (w *Writer) WriteRow(row types.SampleRow) error {
	if !w.wroteHeader {
		if err := w.cw.Write(writerHeader); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	record := []string{
		strconv.FormatInt(row.Timestamp, 10),
		strconv.Itoa(row.UserCount),
		row.Name,
		formatFloat(row.RequestsPerS),
		formatFloat(row.FailuresPerS),
		formatOptional(row.P50Ms),
		formatOptional(row.P95Ms),
		formatOptional(row.P99Ms),
		strconv.FormatInt(row.RequestCount, 10),
		strconv.FormatInt(row.FailureCount, 10),
		formatFloat(row.MedianMs),
		formatFloat(row.AverageMs),
		formatFloat(row.MinMs),
		formatFloat(row.MaxMs),
	}
	return w.cw.Write(record)
}

// Flush writes buffered rows through. Call before closing the file.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatOptional(f *float64) string {
	if f == nil {
		return "N/A"
	}
	return formatFloat(*f)
}
