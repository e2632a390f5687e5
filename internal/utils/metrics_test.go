// internal/utils/metrics_test.go
package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter(t *testing.T) {
	m := &MetricsCollector{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}

	c := m.Counter("plays")
	c.Inc()
	c.Add(4)
	assert.EqualValues(t, 5, c.Value())

	// 同名返回同一个计数器
	assert.Same(t, c, m.Counter("plays"))
}

func TestGauge(t *testing.T) {
	m := &MetricsCollector{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}

	g := m.Gauge("active")
	g.Set(3)
	g.Add(-1)
	assert.EqualValues(t, 2, g.Value())
}

func TestSnapshot(t *testing.T) {
	m := &MetricsCollector{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}

	m.Counter("a").Inc()
	m.Gauge("b").Set(7)

	snapshot := m.Snapshot()
	assert.EqualValues(t, 1, snapshot["a"])
	assert.EqualValues(t, 7, snapshot["b"])
}

func TestCounter_Concurrent(t *testing.T) {
	m := &MetricsCollector{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Counter("hits").Inc()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 800, m.Counter("hits").Value())
}
