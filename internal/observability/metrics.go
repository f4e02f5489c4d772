package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

type seriesKey struct {
	path   string
	method string
	label  string
}

type series struct {
	count   int64
	latency time.Duration
}

// Metrics keeps in-memory request and error counters. The devserver records
// routes; the client transport records endpoints. A nil *Metrics is a no-op.
type Metrics struct {
	mu       sync.Mutex
	requests map[seriesKey]*series
	errors   map[seriesKey]int64
}

// Sample is one counter in a Snapshot.
type Sample struct {
	Path         string  `json:"path"`
	Method       string  `json:"method"`
	Label        string  `json:"label"`
	Count        int64   `json:"count"`
	AvgLatencyMs float64 `json:"avg_latency_ms,omitempty"`
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Requests []Sample `json:"requests"`
	Errors   []Sample `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[seriesKey]*series),
		errors:   make(map[seriesKey]int64),
	}
}

// RecordRequest counts a completed request by status.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := seriesKey{path, method, statusLabel(status)}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.requests[key]
	if !ok {
		s = &series{}
		m.requests[key] = s
	}
	s.count++
	s.latency += duration
}

// RecordError counts a failure by error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[seriesKey{path, method, code}]++
}

// Requests returns the request count for path/method/status.
func (m *Metrics) Requests(path, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.requests[seriesKey{path, method, statusLabel(status)}]; ok {
		return s.count
	}
	return 0
}

// Errors returns the error count for path/method/code.
func (m *Metrics) Errors(path, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[seriesKey{path, method, code}]
}

// Snapshot copies every counter, sorted by path, method and label.
func (m *Metrics) Snapshot() Snapshot {
	out := Snapshot{Requests: []Sample{}, Errors: []Sample{}}
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.requests {
		sample := Sample{Path: k.path, Method: k.method, Label: k.label, Count: s.count}
		if s.count > 0 {
			sample.AvgLatencyMs = float64(s.latency.Microseconds()) / float64(s.count) / 1000
		}
		out.Requests = append(out.Requests, sample)
	}
	for k, n := range m.errors {
		out.Errors = append(out.Errors, Sample{Path: k.path, Method: k.method, Label: k.label, Count: n})
	}
	sortSamples(out.Requests)
	sortSamples(out.Errors)
	return out
}

func sortSamples(samples []Sample) {
	sort.Slice(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Label < b.Label
	})
}

func statusLabel(status int) string {
	return strconv.Itoa(status)
}
