package loadgen

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/loadscope/loadscope/internal/logging"
	"github.com/loadscope/loadscope/internal/statshistory"
	"github.com/loadscope/loadscope/pkg/types"
)

// Options configures one repetition run.
type Options struct {
	Scenario types.Scenario
	Target   string
	Mix      []Task

	// WaitMin/WaitMax bound the per-user think time between requests.
	WaitMin time.Duration
	WaitMax time.Duration

	StatsInterval  time.Duration
	RequestTimeout time.Duration

	Writer *statshistory.Writer
	Live   *LiveServer
	Log    *logging.Logger

	// Seed makes a run reproducible; 0 picks a time-based seed.
	Seed int64
}

type Generator struct {
	opts      Options
	client    *Client
	picker    *picker
	collector *Collector
}

func NewGenerator(opts Options) (*Generator, error) {
	if opts.Scenario.Users <= 0 {
		return nil, fmt.Errorf("scenario %s: users must be > 0", opts.Scenario.Name)
	}
	if opts.Target == "" {
		return nil, fmt.Errorf("target base URL cannot be empty")
	}
	if opts.Writer == nil {
		return nil, fmt.Errorf("stats writer cannot be nil")
	}
	if len(opts.Mix) == 0 {
		opts.Mix = DefaultMix()
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.WaitMax < opts.WaitMin {
		return nil, fmt.Errorf("wait bounds invalid: min=%s max=%s", opts.WaitMin, opts.WaitMax)
	}
	if opts.Log == nil {
		opts.Log = logging.GetLogger()
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	p, err := newPicker(opts.Mix)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: opts.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        opts.Scenario.Users,
			MaxIdleConnsPerHost: opts.Scenario.Users,
		},
	}

	return &Generator{
		opts:      opts,
		client:    NewClient(opts.Target, httpClient),
		picker:    p,
		collector: NewCollector(),
	}, nil
}

// Run drives the whole repetition: one goroutine per simulated user plus a
// snapshot ticker, bounded by the scenario duration. Blocks until done.
func (g *Generator) Run(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, g.opts.Scenario.Duration())
	defer cancel()

	g.opts.Log.Info("load generation started",
		logging.Field{Key: "scenario", Value: g.opts.Scenario.Name},
		logging.Field{Key: "users", Value: g.opts.Scenario.Users},
		logging.Field{Key: "duration", Value: g.opts.Scenario.Duration()},
		logging.Field{Key: "target", Value: g.opts.Target})

	var wg sync.WaitGroup
	wg.Add(g.opts.Scenario.Users)
	for i := 0; i < g.opts.Scenario.Users; i++ {
		go func(user int) {
			defer wg.Done()
			g.runUser(runCtx, user)
		}(i)
	}

	snapshotsDone := make(chan error, 1)
	go func() {
		snapshotsDone <- g.runSnapshots(runCtx)
	}()

	wg.Wait()
	cancel()
	if err := <-snapshotsDone; err != nil {
		return err
	}

	// Final row so the tail of the run is never lost to ticker timing.
	if err := g.writeSnapshot(); err != nil {
		return err
	}
	if err := g.opts.Writer.Flush(); err != nil {
		return fmt.Errorf("flush stats: %w", err)
	}

	g.opts.Log.Info("load generation finished",
		logging.Field{Key: "scenario", Value: g.opts.Scenario.Name})
	return nil
}

func (g *Generator) runUser(ctx context.Context, user int) {
	r := rand.New(rand.NewSource(g.opts.Seed + int64(user)))
	userCtx := withRand(ctx, r)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task := g.picker.pick(r)
		start := time.Now()
		err := task.Do(userCtx, g.client)
		elapsed := time.Since(start)

		// A request cut short by run completion is not a failure.
		if ctx.Err() != nil {
			return
		}
		g.collector.Record(elapsed, err != nil)
		if err != nil {
			g.opts.Log.Debug("request failed",
				logging.Field{Key: "task", Value: task.Name},
				logging.Field{Key: "error", Value: err})
		}

		wait := g.opts.WaitMin
		if span := g.opts.WaitMax - g.opts.WaitMin; span > 0 {
			wait += time.Duration(r.Int63n(int64(span)))
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
}

func (g *Generator) runSnapshots(ctx context.Context) error {
	ticker := time.NewTicker(g.opts.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := g.writeSnapshot(); err != nil {
				return err
			}
		}
	}
}

func (g *Generator) writeSnapshot() error {
	row := g.collector.Snapshot(g.opts.Scenario.Users)
	if err := g.opts.Writer.WriteRow(row); err != nil {
		return fmt.Errorf("write stats row: %w", err)
	}
	if g.opts.Live != nil {
		g.opts.Live.Broadcast(row)
	}
	return nil
}
