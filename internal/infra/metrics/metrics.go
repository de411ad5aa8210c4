package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ScanDurationMs        = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "scan_duration_ms", Help: "Full refresh cycle duration", Buckets: prometheus.ExponentialBuckets(10, 2, 14)})
	TickersFetchedTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "tickers_fetched_total", Help: "Tickers received from the exchange"})
	TickersInvalidTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "tickers_invalid_total", Help: "Tickers dropped by the validity predicate"})
	DuplicateEdgesTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "graph_duplicate_edges_total", Help: "Edge inserts rejected because the pair already had one"})
	GraphNodes            = prometheus.NewGauge(prometheus.GaugeOpts{Name: "graph_nodes", Help: "Nodes in the last published graph"})
	GraphEdges            = prometheus.NewGauge(prometheus.GaugeOpts{Name: "graph_edges", Help: "Edges in the last published graph"})
	CyclesFoundTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "cycles_found_total", Help: "Profitable cycles above the configured threshold"})
	CyclesSimulatedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "cycles_simulated_total", Help: "Candidate cycles run through the liquidity simulator"})
	SimOutcomeTotal       = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sim_outcome_total", Help: "Simulation outcomes"}, []string{"outcome"})
	TheoreticalProfitPct  = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "theoretical_profit_pct", Help: "Compounded-rate profit of candidate cycles", Buckets: prometheus.LinearBuckets(-2, 0.25, 33)})
	SimulatedProfitPct    = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "simulated_profit_pct", Help: "Liquidity-aware profit of candidate cycles", Buckets: prometheus.LinearBuckets(-2, 0.25, 33)})
	BestSimulatedPct      = prometheus.NewGauge(prometheus.GaugeOpts{Name: "best_simulated_pct", Help: "Best simulated profit in the last scan"})
	BookFetchesTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "book_fetches_total", Help: "Order-book snapshots fetched"})
	BookFetchErrorsTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "book_fetch_errors_total", Help: "Order-book snapshot fetch failures"})
	APIErrorsTotal        = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "api_errors_total", Help: "Exchange API errors by endpoint"}, []string{"endpoint"})
	RESTRTTMedianMs       = prometheus.NewGauge(prometheus.GaugeOpts{Name: "rest_rtt_median_ms", Help: "Median REST round-trip time"})
	RateLimitWaitsTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "rate_limit_waits_total", Help: "Requests delayed by the token bucket"})
	StoreInsertsTotal     = prometheus.NewCounter(prometheus.CounterOpts{Name: "store_inserts_total", Help: "Opportunities persisted to Postgres"})
	StoreErrorsTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "store_errors_total", Help: "Postgres persistence failures"})
	CacheWritesTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "cache_writes_total", Help: "Snapshots written to Redis"})
	CacheErrorsTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "cache_errors_total", Help: "Redis cache failures"})
	CumulativeTheoretical = prometheus.NewGauge(prometheus.GaugeOpts{Name: "cumulative_theoretical_pct", Help: "Sum of theoretical profit over all scans"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		ScanDurationMs, TickersFetchedTotal, TickersInvalidTotal,
		DuplicateEdgesTotal, GraphNodes, GraphEdges,
		CyclesFoundTotal, CyclesSimulatedTotal, SimOutcomeTotal,
		TheoreticalProfitPct, SimulatedProfitPct, BestSimulatedPct,
		BookFetchesTotal, BookFetchErrorsTotal, APIErrorsTotal,
		RESTRTTMedianMs, RateLimitWaitsTotal,
		StoreInsertsTotal, StoreErrorsTotal, CacheWritesTotal, CacheErrorsTotal,
		CumulativeTheoretical,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
