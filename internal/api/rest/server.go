package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"triarb/internal/pnl"
	"triarb/internal/scanner"
	"triarb/internal/store/postgres"
)

// History serves persisted scan records. Nil disables the endpoint.
type History interface {
	ListRecent(ctx context.Context, limit int) ([]postgres.ScanRecord, error)
}

// Server exposes the latest scan results over HTTP.
type Server struct {
	mux *http.ServeMux
}

func New(sc *scanner.Scanner, tracker *pnl.Tracker, history History) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/opportunities", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sc.LastReport())
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		if history == nil {
			http.Error(w, "persistence disabled", http.StatusNotFound)
			return
		}
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		recs, err := history.ListRecent(r.Context(), limit)
		if err != nil {
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, recs)
	})
	mux.HandleFunc("/graph", func(w http.ResponseWriter, r *http.Request) {
		g := sc.LastGraph()
		if g == nil {
			http.Error(w, "no graph published yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]int{"nodes": g.NodeCount(), "edges": g.EdgeCount()})
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, tracker.Snapshot())
	})
	return &Server{mux: mux}
}

func (s *Server) Handler() http.Handler { return s.mux }

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
