package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for HTTP traffic and the
// resolution pipeline.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	attempts     int64
	approvals    int64
	escalations  int64
	cancelled    int64
	fallbacks    map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		fallbacks:    make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAttempt counts one retrieve/draft/review cycle.
func (m *Metrics) RecordAttempt() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
}

// RecordOutcome counts a terminal pipeline outcome.
func (m *Metrics) RecordOutcome(escalated, cancelled bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case cancelled:
		m.cancelled++
	case escalated:
		m.escalations++
	default:
		m.approvals++
	}
}

// RecordFallback counts a non-fatal provider fallback by pipeline step.
func (m *Metrics) RecordFallback(step string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[step]++
}

// PipelineStats is a point-in-time snapshot of pipeline counters.
type PipelineStats struct {
	Attempts    int64            `json:"attempts"`
	Approvals   int64            `json:"approvals"`
	Escalations int64            `json:"escalations"`
	Cancelled   int64            `json:"cancelled"`
	Fallbacks   map[string]int64 `json:"fallbacks"`
}

// PipelineSnapshot returns current pipeline counters.
func (m *Metrics) PipelineSnapshot() PipelineStats {
	if m == nil {
		return PipelineStats{Fallbacks: map[string]int64{}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fallbacks := make(map[string]int64, len(m.fallbacks))
	for step, count := range m.fallbacks {
		fallbacks[step] = count
	}
	return PipelineStats{
		Attempts:    m.attempts,
		Approvals:   m.approvals,
		Escalations: m.escalations,
		Cancelled:   m.cancelled,
		Fallbacks:   fallbacks,
	}
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
