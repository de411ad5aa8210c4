package rest

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"triarb/internal/config"
	"triarb/internal/pnl"
	"triarb/internal/scanner"
	"triarb/internal/store/postgres"
)

type fakeHistory struct{ recs []postgres.ScanRecord }

func (f *fakeHistory) ListRecent(ctx context.Context, limit int) ([]postgres.ScanRecord, error) {
	if limit < len(f.recs) {
		return f.recs[:limit], nil
	}
	return f.recs, nil
}

func newTestServer(t *testing.T, history History) *Server {
	t.Helper()
	sc := scanner.New(config.Load(), zerolog.Nop(), nil, nil, nil, nil, pnl.NewTracker())
	return New(sc, pnl.NewTracker(), history)
}

func TestGraphEndpointBeforeFirstScan(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/graph", nil))
	if rec.Code != 503 {
		t.Fatalf("expected 503 before first scan, got %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/stats", nil))
	if rec.Code != 200 {
		t.Fatalf("stats status %d", rec.Code)
	}
	var stats pnl.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("stats body not JSON: %v", err)
	}
}

func TestHistoryDisabledReturns404(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/history", nil))
	if rec.Code != 404 {
		t.Fatalf("expected 404 without persistence, got %d", rec.Code)
	}
}

func TestHistoryHonorsLimit(t *testing.T) {
	h := &fakeHistory{}
	for i := 0; i < 5; i++ {
		h.recs = append(h.recs, postgres.ScanRecord{
			Start: "USDT", Mid: "BTC", End: "ETH",
			Outcome: "filled", DetectedAt: time.Now(),
		})
	}
	srv := newTestServer(t, h)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/history?limit=2", nil))
	if rec.Code != 200 {
		t.Fatalf("history status %d", rec.Code)
	}
	var got []postgres.ScanRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("history body not JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit ignored: got %d records", len(got))
	}
}
