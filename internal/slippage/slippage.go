package slippage

import (
	"triarb/internal/exchange/common"
	"triarb/internal/graph"
)

// Outcome tags how a path simulation ended.
type Outcome string

const (
	// Filled means every hop consumed enough depth to convert the full amount.
	Filled Outcome = "filled"
	// MissingEdge means a hop's (from, to) pair has no edge in the graph.
	MissingEdge Outcome = "missing_edge"
	// MissingBook means the order book for a hop's symbol was not supplied.
	MissingBook Outcome = "missing_book"
	// NoLiquidity means a hop exhausted all levels before the amount filled.
	NoLiquidity Outcome = "no_liquidity"
)

// Result is the tagged outcome of a path simulation. ProfitPercent is only
// meaningful when Outcome is Filled; Hop indexes the failing leg otherwise.
type Result struct {
	Outcome       Outcome
	FinalAmount   float64
	ProfitPercent float64
	Hop           int
}

// Simulator walks order-book depth along a closed currency path. Edge
// directions come from the graph, never re-derived from the books.
type Simulator struct {
	g *graph.Graph
}

func New(g *graph.Graph) *Simulator { return &Simulator{g: g} }

// level is a book row normalized to the currency being spent: rate converts
// from→to, avail is how much of the from-currency this row can absorb.
type level struct {
	rate  float64
	avail float64
}

// Symbol resolves the trading-pair symbol a hop trades on: Forward edges
// trade {from}{to}, Inverse edges trade {to}{from}.
func Symbol(from, to string, dir graph.Direction) string {
	if dir == graph.Forward {
		return from + to
	}
	return to + from
}

// normalize maps raw levels to the spent currency. Forward hops sell the
// base into bids, so a bid (price, qty) already reads as (rate, avail).
// Inverse hops buy the base from asks spending the quote, so an ask
// (price, qty) becomes (1/price, qty*price).
func normalize(book common.Depth, dir graph.Direction) []level {
	if dir == graph.Forward {
		out := make([]level, len(book.Bids))
		for i, l := range book.Bids {
			out[i] = level{rate: l.Price, avail: l.Qty}
		}
		return out
	}
	out := make([]level, len(book.Asks))
	for i, l := range book.Asks {
		out[i] = level{rate: 1 / l.Price, avail: l.Qty * l.Price}
	}
	return out
}

// fill greedily consumes levels in the order given (best price first) until
// the amount is spent. ok is false when depth runs out first.
func fill(levels []level, amount float64) (out float64, ok bool) {
	remaining := amount
	for _, lvl := range levels {
		consume := min(remaining, lvl.avail)
		out += consume * lvl.rate
		remaining -= consume
		if remaining <= 0 {
			return out, true
		}
	}
	return out, false
}

// Simulate converts initialAmount along path using the supplied books,
// hop by hop; the output of one hop funds the next.
func (s *Simulator) Simulate(path []string, initialAmount float64, books map[string]common.Depth) Result {
	amount := initialAmount
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		edge, ok := s.g.Edge(from, to)
		if !ok {
			return Result{Outcome: MissingEdge, Hop: i}
		}
		book, ok := books[Symbol(from, to, edge.Direction)]
		if !ok {
			return Result{Outcome: MissingBook, Hop: i}
		}
		out, filled := fill(normalize(book, edge.Direction), amount)
		if !filled || out <= 0 {
			return Result{Outcome: NoLiquidity, Hop: i}
		}
		amount = out
	}
	return Result{
		Outcome:       Filled,
		FinalAmount:   amount,
		ProfitPercent: (amount/initialAmount - 1) * 100,
	}
}

// ComputePnL is the legacy decoding of Simulate: every degraded outcome
// collapses to 0.0, indistinguishable from no arbitrage.
func (s *Simulator) ComputePnL(path []string, initialAmount float64, books map[string]common.Depth) float64 {
	res := s.Simulate(path, initialAmount, books)
	if res.Outcome != Filled {
		return 0.0
	}
	return res.ProfitPercent
}
