// Package health provides Kubernetes-style liveness and readiness probes.
// Registered checks run periodically in the background; the HTTP endpoints
// only read the latest recorded state, so probes stay fast even when a
// dependency is slow.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// check holds one registered check and its latest result.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	// lastErr is written by the runner goroutine and read by HTTP handlers.
	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	c.lastErr.Store(&err)
}

func (c *check) err() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New creates a Health instance. The service starts not-ready; call
// SetReady(true) once initialization finishes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check. Failing liveness means the
// process should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, &check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a readiness check. Failing readiness means the
// service should stop receiving traffic but keep running.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, &check{name: name, timeout: timeout, fn: fn})
}

// Start launches the background runner executing every check on the given
// interval. Each check also runs once immediately.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	h.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	checks := append(h.snapshot(h.liveness), h.snapshot(h.readiness)...)
	h.mu.Unlock()

	go func() {
		for _, c := range checks {
			c.run(runCtx)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				for _, c := range checks {
					c.run(runCtx)
				}
			}
		}
	}()
}

// Stop terminates the background runner.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the readiness gate. Readiness endpoints report not-ready
// whenever the gate is off, regardless of check results.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint is the HTTP handler for the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := h.snapshot(h.liveness)
	h.mu.RUnlock()

	writeStatus(w, checks, true)
}

// ReadyEndpoint is the HTTP handler for the readiness probe.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := h.snapshot(h.readiness)
	h.mu.RUnlock()

	writeStatus(w, checks, h.ready.Load())
}

func (h *Health) snapshot(checks []*check) []*check {
	out := make([]*check, len(checks))
	copy(out, checks)
	return out
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeStatus(w http.ResponseWriter, checks []*check, gate bool) {
	resp := statusResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
	healthy := gate

	for _, c := range checks {
		if err := c.err(); err != nil {
			healthy = false
			resp.Checks[c.name] = err.Error()
		} else {
			resp.Checks[c.name] = "ok"
		}
	}

	code := http.StatusOK
	if !healthy {
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
