package health

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

var (
	ready    atomic.Bool
	lastScan atomic.Int64 // unix seconds of the last completed scan
)

// SetReady marks readiness state
func SetReady(v bool) { ready.Store(v) }

// Ready returns current readiness
func Ready() bool { return ready.Load() }

// MarkScan records a completed refresh cycle for the readiness probe.
func MarkScan() { lastScan.Store(time.Now().Unix()) }

// Healthz is a simple liveness probe
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz reflects application readiness state. Once the scanner has run, the
// body also carries the age of the last completed scan.
func Readyz(w http.ResponseWriter, r *http.Request) {
	if !Ready() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	if ts := lastScan.Load(); ts > 0 {
		fmt.Fprintf(w, "ready, last scan %ds ago", time.Now().Unix()-ts)
		return
	}
	_, _ = w.Write([]byte("ready"))
}
