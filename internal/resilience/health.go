package resilience

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthCheckFunc represents a function that checks service health
type HealthCheckFunc func(ctx context.Context) error

// ServiceHealth is the last observed state of one dependency
type ServiceHealth struct {
	ServiceName string        `json:"service_name"`
	Healthy     bool          `json:"healthy"`
	Critical    bool          `json:"critical"`
	Latency     time.Duration `json:"latency_ns"`
	Message     string        `json:"message,omitempty"`
	CheckedAt   time.Time     `json:"checked_at"`
}

type registration struct {
	check    HealthCheckFunc
	critical bool
}

// HealthRegistry runs dependency checks for the health endpoint. A failing
// critical service (the database) makes the process unhealthy; a failing
// optional one (redis) only degrades it.
type HealthRegistry struct {
	timeout time.Duration

	mu       sync.RWMutex
	services map[string]registration
}

// NewHealthRegistry creates a registry whose checks each get timeout
func NewHealthRegistry(timeout time.Duration) *HealthRegistry {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthRegistry{timeout: timeout, services: make(map[string]registration)}
}

// Register adds or replaces a check
func (h *HealthRegistry) Register(name string, critical bool, check HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.services[name] = registration{check: check, critical: critical}
}

// Status summarises a check run
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Check runs every registered check concurrently
func (h *HealthRegistry) Check(ctx context.Context) (Status, []ServiceHealth) {
	h.mu.RLock()
	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
	}
	regs := make(map[string]registration, len(h.services))
	for k, v := range h.services {
		regs[k] = v
	}
	h.mu.RUnlock()
	sort.Strings(names)

	results := make([]ServiceHealth, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			reg := regs[name]
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			start := time.Now()
			err := reg.check(cctx)
			result := ServiceHealth{
				ServiceName: name,
				Healthy:     err == nil,
				Critical:    reg.critical,
				Latency:     time.Since(start),
				CheckedAt:   time.Now().UTC(),
			}
			if err != nil {
				result.Message = err.Error()
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	status := StatusOK
	for _, r := range results {
		if r.Healthy {
			continue
		}
		if r.Critical {
			return StatusDown, results
		}
		status = StatusDegraded
	}
	return status, results
}
