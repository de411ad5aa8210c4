package network

import (
	"context"
	"sync"
	"time"
)

// TokenBucket paces exchange requests. Burst and rate shrink when median
// RTT degrades past 2x the configured baseline.
type TokenBucket struct {
	mu            sync.Mutex
	capacity      int
	tokens        float64
	rate          float64 // tokens per second
	last          time.Time
	baselineRTTms float64
}

func NewTokenBucket(capacity int, rate float64, baselineRTTms float64) *TokenBucket {
	return &TokenBucket{capacity: capacity, tokens: float64(capacity), rate: rate, last: time.Now(), baselineRTTms: baselineRTTms}
}

func (b *TokenBucket) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx ends. It reports whether the
// caller had to wait at all.
func (b *TokenBucket) Wait(ctx context.Context) (waited bool, err error) {
	for {
		if b.Allow(time.Now()) {
			return waited, nil
		}
		waited = true
		select {
		case <-ctx.Done():
			return waited, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (b *TokenBucket) refill(now time.Time) {
	dt := now.Sub(b.last).Seconds()
	b.last = now
	b.tokens += b.rate * dt
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}
}

// AdjustForRTT halves burst and rate when the median RTT exceeds twice the
// baseline.
func (b *TokenBucket) AdjustForRTT(medianRTTms float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.baselineRTTms <= 0 {
		return
	}
	if medianRTTms/b.baselineRTTms > 2.0 {
		b.capacity = max(1, b.capacity/2)
		b.rate = b.rate * 0.5
		if b.tokens > float64(b.capacity) {
			b.tokens = float64(b.capacity)
		}
	}
}
