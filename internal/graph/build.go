package graph

import (
	"errors"

	"github.com/rs/zerolog"

	"triarb/internal/exchange/common"
	"triarb/internal/infra/metrics"
)

// Build constructs a fresh graph from one batch of tickers. Invalid tickers
// are skipped silently, duplicate edges are kept first-seen and logged at
// warn level; neither aborts the batch. The returned graph is complete and
// must not be mutated afterwards.
func Build(tickers []common.Ticker, logger zerolog.Logger) *Graph {
	g := New()
	for _, t := range tickers {
		if !t.Valid() {
			metrics.TickersInvalidTotal.Inc()
			logger.Debug().Str("symbol", t.Symbol).Msg("skipping invalid ticker")
			continue
		}
		addEdge(g, t.BaseAsset, t.QuoteAsset, t.BidPrice, Forward, logger)
		if t.AskPrice != 0 {
			addEdge(g, t.QuoteAsset, t.BaseAsset, 1.0/t.AskPrice, Inverse, logger)
		}
	}
	return g
}

func addEdge(g *Graph, from, to string, rate float64, dir Direction, logger zerolog.Logger) {
	err := g.AddEdge(from, to, rate, dir)
	if err == nil {
		return
	}
	var dup *EdgeExistsError
	if errors.As(err, &dup) {
		metrics.DuplicateEdgesTotal.Inc()
		logger.Warn().
			Str("from", dup.From).
			Str("to", dup.To).
			Float64("existing_rate", dup.Existing.Rate).
			Float64("rejected_rate", dup.Rejected.Rate).
			Msg("duplicate edge rejected; keeping first-seen")
	}
}
