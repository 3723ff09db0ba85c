// Package health provides liveness and readiness probe endpoints. Registered
// checks run periodically in background goroutines; consecutive-failure
// thresholds prevent a single slow probe from flapping the service state.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// CheckFunc probes one component, returning nil when healthy.
type CheckFunc func(ctx context.Context) error

// Kind separates liveness checks (is the process functional) from readiness
// checks (can it take traffic).
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// failureThreshold is how many consecutive failures mark a check unhealthy.
const failureThreshold = 3

type check struct {
	name    string
	kind    Kind
	timeout time.Duration
	fn      CheckFunc

	mu       sync.Mutex
	failures int
	healthy  bool
	lastErr  error
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if err != nil {
		c.failures++
		if c.failures >= failureThreshold {
			c.healthy = false
		}
		return
	}
	c.failures = 0
	c.healthy = true
}

func (c *check) status() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy, c.lastErr
}

// Service tracks the health checks and readiness state of the process.
type Service struct {
	mu     sync.Mutex
	checks []*check
	ready  bool
	cancel context.CancelFunc
}

// New creates a Service. It starts not ready; call SetReady(true) once
// initialization completes.
func New() *Service {
	return &Service{}
}

// Add registers a check. Must be called before Start.
func (s *Service) Add(name string, kind Kind, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, &check{
		name:    name,
		kind:    kind,
		timeout: timeout,
		fn:      fn,
		healthy: true,
	})
}

// Start runs every registered check in its own goroutine at the given
// interval, beginning immediately.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	checks := append([]*check(nil), s.checks...)
	s.mu.Unlock()

	for _, c := range checks {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}()
	}
}

// Stop cancels all background check goroutines.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown to drain traffic.
func (s *Service) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady reports whether the service is marked ready and all readiness
// checks pass.
func (s *Service) IsReady() bool {
	ok, _ := s.snapshot(Readiness)
	return ok
}

// snapshot returns the aggregate state and per-check detail for one kind.
func (s *Service) snapshot(kind Kind) (bool, map[string]string) {
	s.mu.Lock()
	checks := append([]*check(nil), s.checks...)
	ready := s.ready
	s.mu.Unlock()

	ok := true
	if kind == Readiness && !ready {
		ok = false
	}

	detail := make(map[string]string)
	for _, c := range checks {
		if c.kind != kind {
			continue
		}
		healthy, err := c.status()
		switch {
		case healthy:
			detail[c.name] = "ok"
		case err != nil:
			detail[c.name] = err.Error()
			ok = false
		default:
			detail[c.name] = "unhealthy"
			ok = false
		}
	}
	return ok, detail
}

// LiveEndpoint serves the liveness probe.
func (s *Service) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	s.serve(w, Liveness)
}

// ReadyEndpoint serves the readiness probe.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	s.serve(w, Readiness)
}

func (s *Service) serve(w http.ResponseWriter, kind Kind) {
	ok, detail := s.snapshot(kind)

	status := "ok"
	code := http.StatusOK
	if !ok {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}{Status: status, Checks: detail})
}

// GoroutineCountCheck fails when the process exceeds max goroutines, a cheap
// leak detector for liveness probes.
func GoroutineCountCheck(max int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > max {
			return errors.Errorf("too many goroutines: %d > %d", n, max)
		}
		return nil
	}
}
