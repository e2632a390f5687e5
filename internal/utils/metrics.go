// internal/utils/metrics.go
package utils

import (
	"sync"
	"sync/atomic"
)

// MetricsCollector collects engine metrics
type MetricsCollector struct {
	counters map[string]*Counter
	gauges   map[string]*Gauge

	mu sync.RWMutex
}

// Counter metric - using atomic operations for thread-safe value updates
type Counter struct {
	name  string
	value int64
}

// Inc increments the counter by one
func (c *Counter) Inc() {
	atomic.AddInt64(&c.value, 1)
}

// Add increments the counter by delta
func (c *Counter) Add(delta int64) {
	atomic.AddInt64(&c.value, delta)
}

// Value returns the current counter value
func (c *Counter) Value() int64 {
	return atomic.LoadInt64(&c.value)
}

// Gauge metric - using atomic operations for thread-safe value updates
type Gauge struct {
	name  string
	value int64
}

// Set sets the gauge value
func (g *Gauge) Set(value int64) {
	atomic.StoreInt64(&g.value, value)
}

// Add adjusts the gauge by delta
func (g *Gauge) Add(delta int64) {
	atomic.AddInt64(&g.value, delta)
}

// Value returns the current gauge value
func (g *Gauge) Value() int64 {
	return atomic.LoadInt64(&g.value)
}

// Well-known metric names used across the play pipeline
const (
	MetricSessionsStarted  = "sessions_started"
	MetricSessionsFinished = "sessions_finished"
	MetricScenesVisited    = "scenes_visited"
	MetricMenusResolved    = "menus_resolved"
	MetricMessagesRendered = "messages_rendered"
	MetricErrorsHooked     = "errors_hooked"
	MetricSessionsActive   = "sessions_active"
)

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = &MetricsCollector{
			counters: make(map[string]*Counter),
			gauges:   make(map[string]*Gauge),
		}
	})
	return globalMetrics
}

// Counter returns (creating if needed) the named counter
func (m *MetricsCollector) Counter(name string) *Counter {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c
	}
	c = &Counter{name: name}
	m.counters[name] = c
	return c
}

// Gauge returns (creating if needed) the named gauge
func (m *MetricsCollector) Gauge(name string) *Gauge {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()
	if ok {
		return g
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.gauges[name]; ok {
		return g
	}
	g = &Gauge{name: name}
	m.gauges[name] = g
	return g
}

// Snapshot returns a copy of all current metric values
func (m *MetricsCollector) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]int64, len(m.counters)+len(m.gauges))
	for name, c := range m.counters {
		snapshot[name] = c.Value()
	}
	for name, g := range m.gauges {
		snapshot[name] = g.Value()
	}
	return snapshot
}
