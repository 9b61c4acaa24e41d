package health

import (
	"context"
	"runtime"
	"time"

	"rentline/internal/models"
)

const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Probe checks one dependency.
type Probe func(ctx context.Context) error

type component struct {
	name     string
	probe    Probe
	critical bool
}

// ComponentStatus is one dependency's result inside a report.
type ComponentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report is the aggregate health response.
type Report struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
	CheckedAt  time.Time                  `json:"checked_at"`
}

// Checker probes registered dependencies with a bounded timeout. A failing
// critical dependency degrades the report to error; a failing non-critical
// one only to warning.
type Checker struct {
	components []component
	timeout    time.Duration
	heapLimit  uint64
}

func NewChecker() *Checker {
	return &Checker{
		timeout:   5 * time.Second,
		heapLimit: models.LivenessHeapLimitBytes,
	}
}

// Register adds a dependency probe. Critical dependencies gate readiness.
func (c *Checker) Register(name string, critical bool, probe Probe) {
	c.components = append(c.components, component{name: name, probe: probe, critical: critical})
}

// Check probes every dependency and aggregates the worst outcome.
func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report := Report{
		Status:     StatusOK,
		Components: make(map[string]ComponentStatus, len(c.components)),
		CheckedAt:  time.Now(),
	}

	for _, comp := range c.components {
		if err := comp.probe(ctx); err != nil {
			report.Components[comp.name] = ComponentStatus{Status: StatusError, Error: err.Error()}
			if comp.critical {
				report.Status = StatusError
			} else if report.Status == StatusOK {
				report.Status = StatusWarning
			}
			continue
		}
		report.Components[comp.name] = ComponentStatus{Status: StatusOK}
	}

	return report
}

// Ready reports whether every critical dependency is reachable.
func (c *Checker) Ready(ctx context.Context) Report {
	report := c.Check(ctx)
	if report.Status == StatusWarning {
		// Non-critical failures do not block traffic.
		report.Status = StatusOK
	}
	return report
}

// LivenessReport is the memory self-check response.
type LivenessReport struct {
	Status        string `json:"status"`
	HeapBytes     uint64 `json:"heap_bytes"`
	HeapLimit     uint64 `json:"heap_limit"`
	NumGoroutines int    `json:"num_goroutines"`
}

// Alive reports whether the process heap is under the restart threshold.
// Crossing it signals a leak; the orchestrator should recycle the process.
func (c *Checker) Alive() LivenessReport {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	report := LivenessReport{
		Status:        StatusOK,
		HeapBytes:     stats.HeapAlloc,
		HeapLimit:     c.heapLimit,
		NumGoroutines: runtime.NumGoroutine(),
	}
	if stats.HeapAlloc > c.heapLimit {
		report.Status = StatusError
	}
	return report
}
