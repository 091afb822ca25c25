// Package loadgen drives a weighted mix of HTTP requests against the target
// application and records per-request outcomes into a stats collector. One
// Generator run produces one repetition's stats history file.
package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
)

// Task is one entry of the request mix. Weight is relative: a task with
// weight 40 in a mix totalling 100 receives ~40% of requests.
type Task struct {
	Name   string
	Weight int
	Do     func(ctx context.Context, c *Client) error
}

// Client issues requests against the target REST API and keeps the pool of
// known owner IDs, which create-owner responses feed back into.
type Client struct {
	base string
	http *http.Client

	mu       sync.Mutex
	ownerIDs []int
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	// Owner IDs 1-10 exist in the seeded database.
	ids := make([]int, 10)
	for i := range ids {
		ids[i] = i + 1
	}
	return &Client{base: baseURL, http: httpClient, ownerIDs: ids}
}

func (c *Client) randomOwnerID(r *rand.Rand) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ownerIDs[r.Intn(len(c.ownerIDs))]
}

func (c *Client) addOwnerID(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownerIDs = append(c.ownerIDs, id)
}

// OwnerIDCount reports the current size of the owner ID pool.
func (c *Client) OwnerIDCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ownerIDs)
}

func (c *Client) get(ctx context.Context, path string, wantStatus int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

type ownerPayload struct {
	ID        int    `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Telephone string `json:"telephone"`
}

func (c *Client) createOwner(ctx context.Context, r *rand.Rand) error {
	n := r.Intn(9000) + 1000
	payload := ownerPayload{
		FirstName: fmt.Sprintf("TestUser%d", n),
		LastName:  fmt.Sprintf("Lastname%d", n),
		Address:   fmt.Sprintf("%d Test St", r.Intn(900)+100),
		City:      fmt.Sprintf("TestCity%d", r.Intn(100)+1),
		Telephone: fmt.Sprintf("%d", 1000000000+r.Int63n(9000000000)),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/customer/owners", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("POST /api/customer/owners: unexpected status %d", resp.StatusCode)
	}

	var created ownerPayload
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && created.ID > 0 {
		c.addOwnerID(created.ID)
	}
	return nil
}

// DefaultMix is the standard request mix: mostly reads with a small write
// share, mirroring typical browsing traffic on the application under test.
func DefaultMix() []Task {
	return []Task{
		{
			Name:   "list_owners",
			Weight: 40,
			Do: func(ctx context.Context, c *Client) error {
				return c.get(ctx, "/api/customer/owners", http.StatusOK)
			},
		},
		{
			Name:   "get_owner",
			Weight: 30,
			Do: func(ctx context.Context, c *Client) error {
				id := c.randomOwnerID(randFromContext(ctx))
				return c.get(ctx, fmt.Sprintf("/api/customer/owners/%d", id), http.StatusOK)
			},
		},
		{
			Name:   "list_vets",
			Weight: 20,
			Do: func(ctx context.Context, c *Client) error {
				return c.get(ctx, "/api/vet/vets", http.StatusOK)
			},
		},
		{
			Name:   "create_owner",
			Weight: 10,
			Do: func(ctx context.Context, c *Client) error {
				return c.createOwner(ctx, randFromContext(ctx))
			},
		},
	}
}

// picker selects tasks proportionally to their weights.
type picker struct {
	tasks []Task
	total int
}

func newPicker(tasks []Task) (*picker, error) {
	total := 0
	for _, t := range tasks {
		if t.Weight <= 0 {
			return nil, fmt.Errorf("task %s: weight must be > 0", t.Name)
		}
		total += t.Weight
	}
	if total == 0 {
		return nil, fmt.Errorf("empty task mix")
	}
	return &picker{tasks: tasks, total: total}, nil
}

func (p *picker) pick(r *rand.Rand) Task {
	n := r.Intn(p.total)
	for _, t := range p.tasks {
		n -= t.Weight
		if n < 0 {
			return t
		}
	}
	return p.tasks[len(p.tasks)-1]
}

type randKey struct{}

// randFromContext returns the per-user rand source stored by the generator,
// so tasks stay deterministic under test without sharing a locked source.
func randFromContext(ctx context.Context) *rand.Rand {
	if r, ok := ctx.Value(randKey{}).(*rand.Rand); ok {
		return r
	}
	return rand.New(rand.NewSource(1))
}

func withRand(ctx context.Context, r *rand.Rand) context.Context {
	return context.WithValue(ctx, randKey{}, r)
}
