package scanner

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"triarb/internal/config"
	"triarb/internal/exchange/common"
	"triarb/internal/graph"
	"triarb/internal/infra/health"
	"triarb/internal/infra/metrics"
	"triarb/internal/pnl"
	"triarb/internal/slippage"
	"triarb/internal/store/postgres"
)

// Store receives one record per simulated candidate. Nil disables persistence.
type Store interface {
	Insert(ctx context.Context, rec postgres.ScanRecord) error
}

// Cache receives the published graph and the depth snapshots of each scan.
// Nil disables caching.
type Cache interface {
	SetGraph(ctx context.Context, g *graph.Graph) error
	SetDepth(ctx context.Context, symbol string, d common.Depth) error
}

// Candidate is one ranked cycle together with its liquidity-aware result.
type Candidate struct {
	Opportunity graph.Opportunity `json:"opportunity"`
	Outcome     slippage.Outcome  `json:"outcome"`
	FinalAmount float64           `json:"final_amount"`
	RealizedPct float64           `json:"realized_pct"`
}

// Report is the outcome of one refresh cycle.
type Report struct {
	At          time.Time   `json:"at"`
	Nodes       int         `json:"nodes"`
	Edges       int         `json:"edges"`
	CyclesFound int         `json:"cycles_found"`
	Candidates  []Candidate `json:"candidates"`
}

// Scanner drives the refresh loop: tickers → graph → cycle search → depth
// fetch → liquidity simulation.
type Scanner struct {
	cfg     config.Config
	logger  zerolog.Logger
	source  common.TickerSource
	books   common.DepthProvider
	store   Store
	cache   Cache
	tracker *pnl.Tracker

	mu        sync.RWMutex
	lastGraph *graph.Graph
	last      Report
}

func New(cfg config.Config, logger zerolog.Logger, source common.TickerSource, books common.DepthProvider, store Store, cache Cache, tracker *pnl.Tracker) *Scanner {
	return &Scanner{
		cfg:     cfg,
		logger:  logger,
		source:  source,
		books:   books,
		store:   store,
		cache:   cache,
		tracker: tracker,
	}
}

// Run scans once immediately, then on every interval tick until ctx ends.
func (s *Scanner) Run(ctx context.Context) error {
	s.ScanOnce(ctx)
	t := time.NewTicker(time.Duration(s.cfg.Scanner.IntervalSeconds) * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce performs one full refresh cycle. Failures inside a cycle are
// logged and absorbed; the loop never dies because of one bad scan.
func (s *Scanner) ScanOnce(ctx context.Context) {
	start := time.Now()

	tickers, err := s.source.Tickers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("ticker fetch failed; skipping scan")
		return
	}

	g := graph.Build(tickers, s.logger)
	metrics.GraphNodes.Set(float64(g.NodeCount()))
	metrics.GraphEdges.Set(float64(g.EdgeCount()))

	s.persistInputs(g, tickers)

	opps := g.FindAllCycles(s.cfg.Scanner.MinProfit)
	metrics.CyclesFoundTotal.Add(float64(len(opps)))

	top := opps
	if n := s.cfg.Scanner.TopN; n > 0 && len(top) > n {
		top = top[:n]
	}

	books := s.fetchBooks(ctx, g, top)
	candidates := s.simulate(ctx, g, top, books)

	report := Report{
		At:          start,
		Nodes:       g.NodeCount(),
		Edges:       g.EdgeCount(),
		CyclesFound: len(opps),
		Candidates:  candidates,
	}
	s.mu.Lock()
	s.lastGraph = g
	s.last = report
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.SetGraph(ctx, g); err != nil {
			metrics.CacheErrorsTotal.Inc()
			s.logger.Warn().Err(err).Msg("graph cache write failed")
		} else {
			metrics.CacheWritesTotal.Inc()
		}
	}

	health.MarkScan()

	elapsed := time.Since(start)
	metrics.ScanDurationMs.Observe(float64(elapsed.Milliseconds()))
	s.logger.Info().
		Int("nodes", g.NodeCount()).
		Int("edges", g.EdgeCount()).
		Int("cycles", len(opps)).
		Int("simulated", len(candidates)).
		Dur("elapsed", elapsed).
		Msg("scan complete")
}

// fetchBooks pulls the order books the candidate paths need, with bounded
// concurrency. A failed fetch leaves its symbol out of the map, which the
// simulator reports as a missing book for the affected paths.
func (s *Scanner) fetchBooks(ctx context.Context, g *graph.Graph, opps []graph.Opportunity) map[string]common.Depth {
	needed := make(map[string]struct{})
	for _, opp := range opps {
		path := opp.Path()
		for i := 0; i+1 < len(path); i++ {
			edge, ok := g.Edge(path[i], path[i+1])
			if !ok {
				continue
			}
			needed[slippage.Symbol(path[i], path[i+1], edge.Direction)] = struct{}{}
		}
	}

	var mu sync.Mutex
	books := make(map[string]common.Depth, len(needed))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(s.cfg.Scanner.BookConcurrency)
	for sym := range needed {
		sym := sym
		grp.Go(func() error {
			d, err := s.books.Depth(gctx, sym, s.cfg.Scanner.DepthLimit)
			if err != nil {
				metrics.BookFetchErrorsTotal.Inc()
				s.logger.Warn().Err(err).Str("symbol", sym).Msg("depth fetch failed")
				return nil
			}
			metrics.BookFetchesTotal.Inc()
			mu.Lock()
			books[sym] = d
			mu.Unlock()
			if s.cache != nil {
				if err := s.cache.SetDepth(gctx, sym, d); err != nil {
					metrics.CacheErrorsTotal.Inc()
				} else {
					metrics.CacheWritesTotal.Inc()
				}
			}
			return nil
		})
	}
	_ = grp.Wait()
	return books
}

func (s *Scanner) simulate(ctx context.Context, g *graph.Graph, opps []graph.Opportunity, books map[string]common.Depth) []Candidate {
	sim := slippage.New(g)
	best := 0.0
	out := make([]Candidate, 0, len(opps))
	for _, opp := range opps {
		metrics.CyclesSimulatedTotal.Inc()
		metrics.TheoreticalProfitPct.Observe(opp.ProfitPercent)
		s.tracker.RecordTheoretical(opp.ProfitPercent)

		res := sim.Simulate(opp.Path(), s.cfg.Scanner.StartAmount, books)
		metrics.SimOutcomeTotal.WithLabelValues(string(res.Outcome)).Inc()
		filled := res.Outcome == slippage.Filled
		if filled {
			metrics.SimulatedProfitPct.Observe(res.ProfitPercent)
			if res.ProfitPercent > best {
				best = res.ProfitPercent
			}
		}
		s.tracker.RecordSimulated(res.ProfitPercent, filled)

		s.logger.Debug().
			Str("start", opp.Start).Str("mid", opp.Mid).Str("end", opp.End).
			Float64("theoretical_pct", opp.ProfitPercent).
			Float64("realized_pct", res.ProfitPercent).
			Str("outcome", string(res.Outcome)).
			Msg("cycle simulated")

		if s.store != nil {
			rec := postgres.ScanRecord{
				Start:          opp.Start,
				Mid:            opp.Mid,
				End:            opp.End,
				TheoreticalPct: opp.ProfitPercent,
				SimulatedPct:   res.ProfitPercent,
				Outcome:        string(res.Outcome),
				StartAmount:    s.cfg.Scanner.StartAmount,
				DetectedAt:     time.Now(),
			}
			if err := s.store.Insert(ctx, rec); err != nil {
				metrics.StoreErrorsTotal.Inc()
				s.logger.Warn().Err(err).Msg("scan record insert failed")
			} else {
				metrics.StoreInsertsTotal.Inc()
			}
		}

		out = append(out, Candidate{
			Opportunity: opp,
			Outcome:     res.Outcome,
			FinalAmount: res.FinalAmount,
			RealizedPct: res.ProfitPercent,
		})
	}
	metrics.BestSimulatedPct.Set(best)
	return out
}

// persistInputs mirrors the scan inputs to disk when configured: the graph
// in its JSON persistence format and the valid tickers as a raw JSON dump.
func (s *Scanner) persistInputs(g *graph.Graph, tickers []common.Ticker) {
	if path := s.cfg.Scanner.GraphFile; path != "" {
		if err := g.Save(path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("graph save failed")
		}
	}
	if path := s.cfg.Scanner.RawTickersFile; path != "" {
		valid := make([]rawTicker, 0, len(tickers))
		for _, t := range tickers {
			if t.Valid() {
				valid = append(valid, newRawTicker(t))
			}
		}
		b, err := json.MarshalIndent(valid, "", "  ")
		if err == nil {
			err = os.WriteFile(path, b, 0o644)
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("raw tickers save failed")
		}
	}
}

// rawTicker is the on-disk shape of a saved ticker, field names matching the
// exchange payload so dumps can be replayed by the backtest harness.
type rawTicker struct {
	Symbol     string  `json:"symbol"`
	BidPrice   float64 `json:"bidPrice"`
	AskPrice   float64 `json:"askPrice"`
	LastPrice  float64 `json:"lastPrice"`
	Volume     float64 `json:"volume"`
	Count      int64   `json:"count"`
	BaseAsset  string  `json:"baseAsset"`
	QuoteAsset string  `json:"quoteAsset"`
}

func newRawTicker(t common.Ticker) rawTicker {
	return rawTicker{
		Symbol:     t.Symbol,
		BidPrice:   t.BidPrice,
		AskPrice:   t.AskPrice,
		LastPrice:  t.LastPrice,
		Volume:     t.Volume,
		Count:      t.Count,
		BaseAsset:  t.BaseAsset,
		QuoteAsset: t.QuoteAsset,
	}
}

// LastReport returns the most recent scan report.
func (s *Scanner) LastReport() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// LastGraph returns the most recently published graph, possibly nil.
func (s *Scanner) LastGraph() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastGraph
}
