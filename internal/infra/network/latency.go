package network

import (
	"sort"
	"sync"
	"time"
)

// RTTTracker keeps a sliding window of REST round-trip samples and exposes
// their median for rate-limit adaptation and metrics.
type RTTTracker struct {
	mu      sync.Mutex
	samples []float64 // milliseconds, ring buffer
	next    int
	filled  bool
}

func NewRTTTracker(window int) *RTTTracker {
	if window <= 0 {
		window = 64
	}
	return &RTTTracker{samples: make([]float64, window)}
}

func (t *RTTTracker) Observe(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples[t.next] = float64(d.Milliseconds())
	t.next++
	if t.next == len(t.samples) {
		t.next = 0
		t.filled = true
	}
}

// MedianMs returns the median of the current window, 0 when no samples yet.
func (t *RTTTracker) MedianMs() float64 {
	t.mu.Lock()
	n := len(t.samples)
	if !t.filled {
		n = t.next
	}
	if n == 0 {
		t.mu.Unlock()
		return 0
	}
	tmp := make([]float64, n)
	copy(tmp, t.samples[:n])
	t.mu.Unlock()
	sort.Float64s(tmp)
	if n%2 == 1 {
		return tmp[n/2]
	}
	return (tmp[n/2-1] + tmp[n/2]) / 2
}
