package search

import "time"

// Collector receives per-operation metrics. Implementations can bridge
// into whatever metrics system the application runs.
type Collector interface {
	Operation(backend, operation string, duration time.Duration, err error)
}

// NoOpCollector implementation
type NoOpCollector struct{}

func (NoOpCollector) Operation(string, string, time.Duration, error) {}
