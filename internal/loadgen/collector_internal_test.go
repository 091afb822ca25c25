package loadgen

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/loadscope/loadscope/pkg/types"
)

func TestCollectorSnapshot(t *testing.T) {
	base := time.Unix(1000, 0)
	current := base
	c := newCollectorAt(func() time.Time { return current })

	c.Record(100*time.Millisecond, false)
	c.Record(200*time.Millisecond, false)
	c.Record(300*time.Millisecond, true)
	c.Record(400*time.Millisecond, false)

	current = base.Add(2 * time.Second)
	row := c.Snapshot(50)

	if row.Name != types.AggregatedName {
		t.Errorf("Name = %q, want %q", row.Name, types.AggregatedName)
	}
	if row.Timestamp != 1002 {
		t.Errorf("Timestamp = %d, want 1002", row.Timestamp)
	}
	if row.UserCount != 50 {
		t.Errorf("UserCount = %d, want 50", row.UserCount)
	}
	if row.RequestCount != 4 || row.FailureCount != 1 {
		t.Errorf("counts = %d/%d, want 4/1", row.RequestCount, row.FailureCount)
	}
	if row.RequestsPerS != 2 {
		t.Errorf("RequestsPerS = %v, want 2 (4 requests over 2s)", row.RequestsPerS)
	}
	if row.FailuresPerS != 0.5 {
		t.Errorf("FailuresPerS = %v, want 0.5", row.FailuresPerS)
	}
	if row.AverageMs != 250 {
		t.Errorf("AverageMs = %v, want 250", row.AverageMs)
	}
	if row.MinMs != 100 || row.MaxMs != 400 {
		t.Errorf("min/max = %v/%v, want 100/400", row.MinMs, row.MaxMs)
	}
	if row.P95Ms == nil || *row.P95Ms != 400 {
		t.Errorf("P95Ms = %v, want 400", row.P95Ms)
	}
}

func TestCollectorWindowResets(t *testing.T) {
	base := time.Unix(1000, 0)
	current := base
	c := newCollectorAt(func() time.Time { return current })

	c.Record(100*time.Millisecond, false)
	current = base.Add(time.Second)
	c.Snapshot(10)

	// The new window starts empty while cumulative counters carry over.
	current = base.Add(2 * time.Second)
	row := c.Snapshot(10)

	if row.RequestsPerS != 0 {
		t.Errorf("RequestsPerS = %v, want 0 in an idle window", row.RequestsPerS)
	}
	if row.P95Ms != nil {
		t.Errorf("P95Ms = %v, want nil in an idle window", row.P95Ms)
	}
	if row.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want cumulative 1", row.RequestCount)
	}
	if row.AverageMs != 100 {
		t.Errorf("AverageMs = %v, want cumulative 100", row.AverageMs)
	}
}

func TestCollectorEmptySnapshot(t *testing.T) {
	c := NewCollector()
	row := c.Snapshot(5)

	if row.RequestCount != 0 || row.AverageMs != 0 {
		t.Errorf("empty snapshot = %+v, want zero metrics", row)
	}
	if row.P50Ms != nil {
		t.Errorf("P50Ms = %v, want nil", row.P50Ms)
	}
}

func TestPercentileNearestRank(t *testing.T) {
	samples := []float64{50, 10, 40, 30, 20}

	tests := []struct {
		p    int
		want float64
	}{
		{p: 0, want: 10},
		{p: 50, want: 30},
		{p: 95, want: 50},
		{p: 99, want: 50},
		{p: 100, want: 50},
	}
	for _, tt := range tests {
		if got := percentile(samples, tt.p); got != tt.want {
			t.Errorf("percentile(%d) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(empty) = %v, want 0", got)
	}
}

func TestPickerDistribution(t *testing.T) {
	mix := []Task{
		{Name: "heavy", Weight: 80, Do: func(context.Context, *Client) error { return nil }},
		{Name: "light", Weight: 20, Do: func(context.Context, *Client) error { return nil }},
	}
	p, err := newPicker(mix)
	if err != nil {
		t.Fatalf("newPicker() error = %v", err)
	}

	r := rand.New(rand.NewSource(42))
	counts := map[string]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		counts[p.pick(r).Name]++
	}

	heavy := float64(counts["heavy"]) / n
	if heavy < 0.77 || heavy > 0.83 {
		t.Errorf("heavy share = %.3f, want ~0.80", heavy)
	}
	if counts["heavy"]+counts["light"] != n {
		t.Errorf("picker returned an unknown task: %v", counts)
	}
}

func TestPickerRejectsBadWeights(t *testing.T) {
	if _, err := newPicker(nil); err == nil {
		t.Error("newPicker(nil) error = nil, want error")
	}
	bad := []Task{{Name: "zero", Weight: 0}}
	if _, err := newPicker(bad); err == nil {
		t.Error("newPicker(zero weight) error = nil, want error")
	}
}
