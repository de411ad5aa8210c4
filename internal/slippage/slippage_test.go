package slippage

import (
	"math"
	"testing"

	"triarb/internal/exchange/common"
	"triarb/internal/graph"
)

func pairGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	if err := g.AddEdge("BTC", "USDT", 50000, graph.Forward); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("USDT", "BTC", 1.0/50000.0, graph.Inverse); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestSymbolResolution(t *testing.T) {
	if s := Symbol("BTC", "USDT", graph.Forward); s != "BTCUSDT" {
		t.Fatalf("forward symbol: got %s", s)
	}
	if s := Symbol("USDT", "BTC", graph.Inverse); s != "BTCUSDT" {
		t.Fatalf("inverse symbol: got %s", s)
	}
}

func TestSimulatePartialFillAccumulation(t *testing.T) {
	// 1000 USDT buys BTC off BTCUSDT asks: level one absorbs
	// 50000*0.01 = 500 USDT, the remaining 500 spill into level two.
	g := pairGraph(t)
	sim := New(g)
	books := map[string]common.Depth{
		"BTCUSDT": {
			Asks: []common.Level{{Price: 50000, Qty: 0.01}, {Price: 49900, Qty: 0.02}},
			Bids: []common.Level{{Price: 49900, Qty: 1.0}},
		},
	}
	res := sim.Simulate([]string{"USDT", "BTC", "USDT"}, 1000, books)
	if res.Outcome != Filled {
		t.Fatalf("expected filled, got %s at hop %d", res.Outcome, res.Hop)
	}
	wantBTC := 500*(1.0/50000.0) + 500*(1.0/49900.0)
	wantUSDT := wantBTC * 49900
	if math.Abs(res.FinalAmount-wantUSDT) > 1e-9 {
		t.Fatalf("final amount: want %v, got %v", wantUSDT, res.FinalAmount)
	}
	wantPct := (wantUSDT/1000 - 1) * 100
	if math.Abs(res.ProfitPercent-wantPct) > 1e-9 {
		t.Fatalf("profit: want %v, got %v", wantPct, res.ProfitPercent)
	}
}

func TestSimulateForwardConsumesBids(t *testing.T) {
	g := pairGraph(t)
	sim := New(g)
	books := map[string]common.Depth{
		"BTCUSDT": {
			Bids: []common.Level{{Price: 50000, Qty: 0.5}},
			Asks: []common.Level{{Price: 50010, Qty: 1.0}},
		},
	}
	res := sim.Simulate([]string{"BTC", "USDT", "BTC"}, 0.4, books)
	if res.Outcome != Filled {
		t.Fatalf("expected filled, got %s", res.Outcome)
	}
	// 0.4 BTC sells into the bid for 20000 USDT, which buys back
	// 20000/50010 BTC off the ask.
	want := 0.4 * 50000 * (1.0 / 50010.0)
	if math.Abs(res.FinalAmount-want) > 1e-12 {
		t.Fatalf("final amount: want %v, got %v", want, res.FinalAmount)
	}
	if res.ProfitPercent >= 0 {
		t.Fatalf("spread round trip must lose money, got %v%%", res.ProfitPercent)
	}
}

func TestSimulateInsufficientLiquidity(t *testing.T) {
	g := pairGraph(t)
	sim := New(g)
	// Total ask depth converts only 50000*0.01 = 500 USDT; 1000 cannot fill.
	books := map[string]common.Depth{
		"BTCUSDT": {
			Asks: []common.Level{{Price: 50000, Qty: 0.01}},
			Bids: []common.Level{{Price: 49900, Qty: 1.0}},
		},
	}
	res := sim.Simulate([]string{"USDT", "BTC", "USDT"}, 1000, books)
	if res.Outcome != NoLiquidity || res.Hop != 0 {
		t.Fatalf("expected no_liquidity at hop 0, got %s at %d", res.Outcome, res.Hop)
	}
	if pnl := sim.ComputePnL([]string{"USDT", "BTC", "USDT"}, 1000, books); pnl != 0.0 {
		t.Fatalf("legacy pnl must be exactly 0.0, got %v", pnl)
	}
}

func TestSimulateMissingBook(t *testing.T) {
	g := pairGraph(t)
	sim := New(g)
	res := sim.Simulate([]string{"USDT", "BTC", "USDT"}, 1000, map[string]common.Depth{})
	if res.Outcome != MissingBook {
		t.Fatalf("expected missing_book, got %s", res.Outcome)
	}
	if pnl := sim.ComputePnL([]string{"USDT", "BTC", "USDT"}, 1000, nil); pnl != 0.0 {
		t.Fatalf("legacy pnl must be exactly 0.0, got %v", pnl)
	}
}

func TestSimulateMissingEdge(t *testing.T) {
	g := pairGraph(t)
	sim := New(g)
	res := sim.Simulate([]string{"USDT", "ETH", "USDT"}, 1000, map[string]common.Depth{})
	if res.Outcome != MissingEdge || res.Hop != 0 {
		t.Fatalf("expected missing_edge at hop 0, got %s at %d", res.Outcome, res.Hop)
	}
}

func TestSimulateSecondHopFailureZeroesPath(t *testing.T) {
	g := pairGraph(t)
	sim := New(g)
	// First hop fills; the BTC->USDT bids are then too shallow.
	books := map[string]common.Depth{
		"BTCUSDT": {
			Asks: []common.Level{{Price: 50000, Qty: 1.0}},
			Bids: []common.Level{{Price: 49900, Qty: 0.001}},
		},
	}
	res := sim.Simulate([]string{"USDT", "BTC", "USDT"}, 1000, books)
	if res.Outcome != NoLiquidity || res.Hop != 1 {
		t.Fatalf("expected no_liquidity at hop 1, got %s at %d", res.Outcome, res.Hop)
	}
	if pnl := sim.ComputePnL([]string{"USDT", "BTC", "USDT"}, 1000, books); pnl != 0.0 {
		t.Fatalf("legacy pnl must be exactly 0.0, got %v", pnl)
	}
}

func TestShrinkingDepthNeverIncreasesOutput(t *testing.T) {
	g := pairGraph(t)
	sim := New(g)
	base := map[string]common.Depth{
		"BTCUSDT": {
			Asks: []common.Level{{Price: 49900, Qty: 0.01}, {Price: 50000, Qty: 0.03}},
			Bids: []common.Level{{Price: 49950, Qty: 0.02}, {Price: 49800, Qty: 1.0}},
		},
	}
	path := []string{"USDT", "BTC", "USDT"}
	ref := sim.Simulate(path, 1000, base)
	if ref.Outcome != Filled {
		t.Fatalf("reference run must fill, got %s", ref.Outcome)
	}

	shrink := func(levels []common.Level, idx int, factor float64) []common.Level {
		out := make([]common.Level, len(levels))
		copy(out, levels)
		out[idx].Qty *= factor
		return out
	}
	for _, tc := range []struct {
		name  string
		books map[string]common.Depth
	}{
		{"ask level 0 halved", map[string]common.Depth{"BTCUSDT": {
			Asks: shrink(base["BTCUSDT"].Asks, 0, 0.5),
			Bids: base["BTCUSDT"].Bids,
		}}},
		{"ask level 1 halved", map[string]common.Depth{"BTCUSDT": {
			Asks: shrink(base["BTCUSDT"].Asks, 1, 0.5),
			Bids: base["BTCUSDT"].Bids,
		}}},
		{"bid level 0 halved", map[string]common.Depth{"BTCUSDT": {
			Asks: base["BTCUSDT"].Asks,
			Bids: shrink(base["BTCUSDT"].Bids, 0, 0.5),
		}}},
	} {
		res := sim.Simulate(path, 1000, tc.books)
		if res.Outcome == Filled && res.FinalAmount > ref.FinalAmount+1e-12 {
			t.Fatalf("%s: output grew from %v to %v", tc.name, ref.FinalAmount, res.FinalAmount)
		}
	}
}
