package observability

import (
	"maps"
	"math"
	"slices"
	"sync"
	"time"
)

// OperationLatency summarises the recent samples of one operation.
type OperationLatency struct {
	Operation string  `json:"operation"`
	Samples   int     `json:"samples"`
	Failures  int     `json:"failures"`
	P50MS     float64 `json:"p50_ms"`
	P95MS     float64 `json:"p95_ms"`
	MaxMS     float64 `json:"max_ms"`
}

// LatencySnapshot is the body of /v1/perf/latency.
type LatencySnapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	WindowSize  int                `json:"window_size"`
	Operations  []OperationLatency `json:"operations"`
}

type opSamples struct {
	recent   []time.Duration // oldest first
	failures int
}

// latencyWindow keeps the last size durations of every operation.
type latencyWindow struct {
	mu   sync.Mutex
	size int
	ops  map[string]*opSamples
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = 256
	}
	return &latencyWindow{size: size, ops: make(map[string]*opSamples)}
}

func (w *latencyWindow) entry(op string) *opSamples {
	e, ok := w.ops[op]
	if !ok {
		e = &opSamples{}
		w.ops[op] = e
	}
	return e
}

func (w *latencyWindow) Observe(op string, d time.Duration) {
	if op == "" || d < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	e := w.entry(op)
	if len(e.recent) == w.size {
		e.recent = slices.Delete(e.recent, 0, 1)
	}
	e.recent = append(e.recent, d)
}

func (w *latencyWindow) Fail(op string) {
	if op == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entry(op).failures++
}

func (w *latencyWindow) Snapshot() LatencySnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := LatencySnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.size,
		Operations:  make([]OperationLatency, 0, len(w.ops)),
	}
	for _, op := range slices.Sorted(maps.Keys(w.ops)) {
		e := w.ops[op]
		sorted := slices.Clone(e.recent)
		slices.Sort(sorted)
		snap.Operations = append(snap.Operations, OperationLatency{
			Operation: op,
			Samples:   len(sorted),
			Failures:  e.failures,
			P50MS:     millis(percentile(sorted, 0.50)),
			P95MS:     millis(percentile(sorted, 0.95)),
			MaxMS:     millis(percentile(sorted, 1)),
		})
	}
	return snap
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	return sorted[max(rank, 0)]
}

func millis(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())/10) / 100
}
