// Package health provides a concurrent dependency-check framework. The
// session registers a Check per external service and runs them once at
// startup; a degraded dependency is reported but never blocks the session.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Status represents the health state of a component or the system overall.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check is a function that probes a single dependency and returns its status.
type Check func(ctx context.Context) ComponentHealth

// ComponentHealth holds the result of a single component check.
type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report is the aggregated result of all component checks.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Checker manages registered health checks and runs them concurrently.
type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
		logger: slog.Default().With("component", "health"),
	}
}

// Register adds a named health check.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes all registered checks concurrently and returns an aggregated
// Report. The overall status is the worst status among all components.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()
	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, check := range checks {
		wg.Add(1)
		go func(n string, ch Check) {
			defer wg.Done()
			start := time.Now()
			result := ch(ctx)
			result.Latency = time.Since(start).Round(time.Millisecond).String()
			mu.Lock()
			report.Components[n] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	for _, comp := range report.Components {
		switch comp.Status {
		case StatusDown:
			report.Status = StatusDown
		case StatusDegraded:
			if report.Status == StatusUp {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

// Log writes the report through the package logger, one line per component,
// at a level matching the overall status.
func (c *Checker) Log(report Report) {
	for name, comp := range report.Components {
		if comp.Status == StatusUp {
			c.logger.Debug("dependency check", "name", name, "status", comp.Status, "latency", comp.Latency)
			continue
		}
		c.logger.Warn("dependency check", "name", name, "status", comp.Status, "message", comp.Message, "latency", comp.Latency)
	}
	if report.Status != StatusUp {
		c.logger.Warn("running degraded", "status", report.Status)
	}
}

// Endpoint returns a Check that sends a HEAD request to url. Any response
// means the service is reachable; only transport errors count as down.
// Auth and routing errors surface later on the real calls.
func Endpoint(url string, client *http.Client) Check {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) ComponentHealth {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return ComponentHealth{Status: StatusDown, Message: err.Error()}
		}
		resp, err := client.Do(req)
		if err != nil {
			return ComponentHealth{Status: StatusDown, Message: err.Error()}
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return ComponentHealth{Status: StatusDegraded, Message: resp.Status}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// Handler returns an HTTP handler that runs the checks and writes the JSON
// report, for mounting on the metrics mux.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusUp {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
