package monitoring

import (
	"runtime"
	"sync"
	"time"
)

// PredictionMetrics counts served predictions. Safe for concurrent use.
type PredictionMetrics struct {
	mu sync.RWMutex

	startTime    time.Time
	requests     int64
	rain         int64
	dry          int64
	invalid      int64
	failures     int64
	cacheHits    int64
	totalLatency time.Duration
	maxLatency   time.Duration
	lastAt       time.Time
}

// Stats is a point-in-time copy of the counters plus process figures.
type Stats struct {
	Uptime        string      `json:"uptime"`
	Requests      int64       `json:"requests"`
	Rain          int64       `json:"rain"`
	Dry           int64       `json:"dry"`
	Invalid       int64       `json:"invalid"`
	Failures      int64       `json:"failures"`
	CacheHits     int64       `json:"cache_hits"`
	CacheHitRate  float64     `json:"cache_hit_rate"`
	AvgLatencyMS  float64     `json:"avg_latency_ms"`
	MaxLatencyMS  float64     `json:"max_latency_ms"`
	LastPredicted *time.Time  `json:"last_predicted,omitempty"`
	System        SystemStats `json:"system"`
}

type SystemStats struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	GCCount    uint32 `json:"gc_count"`
	NumCPU     int    `json:"num_cpu"`
}

func NewPredictionMetrics() *PredictionMetrics {
	return &PredictionMetrics{startTime: time.Now()}
}

// RecordPrediction counts one successful prediction.
func (m *PredictionMetrics) RecordPrediction(rain, cached bool, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	if rain {
		m.rain++
	} else {
		m.dry++
	}
	if cached {
		m.cacheHits++
	}
	m.totalLatency += latency
	if latency > m.maxLatency {
		m.maxLatency = latency
	}
	m.lastAt = time.Now()
}

// RecordInvalid counts a request rejected for out-of-range or malformed input.
func (m *PredictionMetrics) RecordInvalid() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.invalid++
}

func (m *PredictionMetrics) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.failures++
}

func (m *PredictionMetrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

func (m *PredictionMetrics) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		Uptime:       m.Uptime().Truncate(time.Second).String(),
		Requests:     m.requests,
		Rain:         m.rain,
		Dry:          m.dry,
		Invalid:      m.invalid,
		Failures:     m.failures,
		CacheHits:    m.cacheHits,
		MaxLatencyMS: float64(m.maxLatency) / float64(time.Millisecond),
		System:       systemStats(),
	}
	if served := m.rain + m.dry; served > 0 {
		s.CacheHitRate = float64(m.cacheHits) / float64(served)
		s.AvgLatencyMS = float64(m.totalLatency) / float64(served) / float64(time.Millisecond)
	}
	if !m.lastAt.IsZero() {
		last := m.lastAt
		s.LastPredicted = &last
	}
	return s
}

func systemStats() SystemStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return SystemStats{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.HeapSys,
		GCCount:    ms.NumGC,
		NumCPU:     runtime.NumCPU(),
	}
}
