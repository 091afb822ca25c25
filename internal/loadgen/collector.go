package loadgen

import (
	"sort"
	"sync"
	"time"

	"github.com/loadscope/loadscope/pkg/types"
)

// Collector accumulates request outcomes and produces one stats history row
// per snapshot. Cumulative fields (counts, average, median, min, max) cover
// the whole run; percentile and throughput columns cover the window since
// the previous snapshot, which is what the steady-state analysis expects.
type Collector struct {
	mu sync.Mutex

	requests int64
	failures int64
	sumMs    float64
	minMs    float64
	maxMs    float64
	allMs    []float64

	windowMs       []float64
	windowRequests int64
	windowFailures int64

	lastSnapshot time.Time
	now          func() time.Time
}

func NewCollector() *Collector {
	return newCollectorAt(time.Now)
}

func newCollectorAt(now func() time.Time) *Collector {
	return &Collector{
		minMs:        -1,
		maxMs:        -1,
		lastSnapshot: now(),
		now:          now,
	}
}

// Record adds one completed request. failed covers transport errors and
// unexpected status codes alike.
func (c *Collector) Record(d time.Duration, failed bool) {
	ms := float64(d) / float64(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests++
	c.windowRequests++
	if failed {
		c.failures++
		c.windowFailures++
	}

	c.sumMs += ms
	c.allMs = append(c.allMs, ms)
	c.windowMs = append(c.windowMs, ms)
	if c.minMs < 0 || ms < c.minMs {
		c.minMs = ms
	}
	if c.maxMs < 0 || ms > c.maxMs {
		c.maxMs = ms
	}
}

// Snapshot emits the current row and starts a new window.
func (c *Collector) Snapshot(userCount int) types.SampleRow {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	elapsed := now.Sub(c.lastSnapshot).Seconds()
	if elapsed <= 0 {
		elapsed = 1
	}

	row := types.SampleRow{
		Timestamp:    now.Unix(),
		UserCount:    userCount,
		Name:         types.AggregatedName,
		RequestCount: c.requests,
		FailureCount: c.failures,
		RequestsPerS: float64(c.windowRequests) / elapsed,
		FailuresPerS: float64(c.windowFailures) / elapsed,
	}
	if c.requests > 0 {
		row.AverageMs = c.sumMs / float64(c.requests)
		row.MedianMs = percentile(c.allMs, 50)
		row.MinMs = c.minMs
		row.MaxMs = c.maxMs
	}
	if len(c.windowMs) > 0 {
		row.P50Ms = ptr(percentile(c.windowMs, 50))
		row.P95Ms = ptr(percentile(c.windowMs, 95))
		row.P99Ms = ptr(percentile(c.windowMs, 99))
	}

	c.windowMs = c.windowMs[:0]
	c.windowRequests = 0
	c.windowFailures = 0
	c.lastSnapshot = now

	return row
}

// percentile uses the same nearest-rank index the window calculators in the
// rest of the toolchain use; p is 0-100.
func percentile(samples []float64, p int) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ptr(f float64) *float64 { return &f }
