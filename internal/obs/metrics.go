package obs

import (
	"sync/atomic"
	"time"

	"main/internal/model/enum"
)

const maxErrorKind = int(enum.ErrorKindCancelled)

// Metrics collects lightweight counters and latency stats for one
// import pipeline.
type Metrics struct {
	fetchAttempts   uint64
	fetchErrors     uint64
	symbolsImported uint64
	failureCounts   [maxErrorKind + 1]uint64
	recordsWritten  uint64
	recordsDropped  uint64

	fetchLatency LatencyStats
	writeLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	FetchAttempts   uint64
	FetchErrors     uint64
	SymbolsImported uint64
	FailureCounts   map[enum.ErrorKind]uint64
	RecordsWritten  uint64
	RecordsDropped  uint64
	FetchLatency    LatencySnapshot
	WriteLatency    LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveFetch records one provider fetch attempt and its latency.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.fetchAttempts, 1)
	if err != nil {
		atomic.AddUint64(&m.fetchErrors, 1)
		return
	}
	m.fetchLatency.Observe(d)
}

// IncSymbolImported records one symbol flushed to storage.
func (m *Metrics) IncSymbolImported() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.symbolsImported, 1)
}

// IncFailure increments the failure counter for one pipeline stage.
func (m *Metrics) IncFailure(kind enum.ErrorKind) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.failureCounts) {
		atomic.AddUint64(&m.failureCounts[idx], 1)
	}
}

// AddRecordsWritten adds to the persisted-row count.
func (m *Metrics) AddRecordsWritten(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.recordsWritten, uint64(n))
}

// AddRecordsDropped adds to the standardization drop count.
func (m *Metrics) AddRecordsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.recordsDropped, uint64(n))
}

// ObserveWrite measures one symbol's storage flush latency.
func (m *Metrics) ObserveWrite(d time.Duration) {
	if m == nil {
		return
	}
	m.writeLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	failureCounts := make(map[enum.ErrorKind]uint64)
	for i := range m.failureCounts {
		if v := atomic.LoadUint64(&m.failureCounts[i]); v > 0 {
			failureCounts[enum.ErrorKind(i)] = v
		}
	}
	return Snapshot{
		FetchAttempts:   atomic.LoadUint64(&m.fetchAttempts),
		FetchErrors:     atomic.LoadUint64(&m.fetchErrors),
		SymbolsImported: atomic.LoadUint64(&m.symbolsImported),
		FailureCounts:   failureCounts,
		RecordsWritten:  atomic.LoadUint64(&m.recordsWritten),
		RecordsDropped:  atomic.LoadUint64(&m.recordsDropped),
		FetchLatency:    m.fetchLatency.Snapshot(),
		WriteLatency:    m.writeLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
