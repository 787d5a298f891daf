package observability

import (
	"context"
	"sync"
	"time"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult is the result of a health check.
type HealthCheckResult struct {
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthChecker is a function that performs a health check.
type HealthChecker func(ctx context.Context) HealthCheckResult

// HealthRegistry manages health checks for multiple components.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthRegistry creates a new health registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{
		checkers: make(map[string]HealthChecker),
	}
}

// Register adds a health checker for a component.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Check runs all health checks and returns per-component results.
func (r *HealthRegistry) Check(ctx context.Context) map[string]HealthCheckResult {
	r.mu.RLock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, checker := range r.checkers {
		checkers[name] = checker
	}
	r.mu.RUnlock()

	results := make(map[string]HealthCheckResult, len(checkers))
	for name, checker := range checkers {
		start := time.Now()
		result := checker(ctx)
		result.Duration = time.Since(start)
		result.Timestamp = time.Now().UTC()
		results[name] = result
	}
	return results
}

// Healthy reports whether every registered check is healthy.
func (r *HealthRegistry) Healthy(ctx context.Context) bool {
	for _, result := range r.Check(ctx) {
		if result.Status != HealthStatusHealthy {
			return false
		}
	}
	return true
}

// PingChecker builds a health checker from a ping-style function.
func PingChecker(ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{Status: HealthStatusUnhealthy, Message: err.Error()}
		}
		return HealthCheckResult{Status: HealthStatusHealthy}
	}
}
