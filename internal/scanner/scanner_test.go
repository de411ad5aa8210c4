package scanner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"triarb/internal/config"
	"triarb/internal/exchange/common"
	"triarb/internal/pnl"
	"triarb/internal/slippage"
	"triarb/internal/store/postgres"
)

type fakeSource struct {
	tickers []common.Ticker
	err     error
}

func (f *fakeSource) Tickers(ctx context.Context) ([]common.Ticker, error) {
	return f.tickers, f.err
}

type fakeBooks struct {
	depths map[string]common.Depth
}

func (f *fakeBooks) Depth(ctx context.Context, symbol string, limit int) (common.Depth, error) {
	d, ok := f.depths[symbol]
	if !ok {
		return common.Depth{}, fmt.Errorf("no book for %s", symbol)
	}
	return d, nil
}

type fakeStore struct {
	mu   sync.Mutex
	recs []postgres.ScanRecord
}

func (f *fakeStore) Insert(ctx context.Context, rec postgres.ScanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

func ticker(symbol, base, quote string, bid, ask float64) common.Ticker {
	return common.Ticker{
		Symbol: symbol, BaseAsset: base, QuoteAsset: quote,
		BidPrice: bid, AskPrice: ask,
		LastPrice: (bid + ask) / 2, Volume: 100, Count: 100,
	}
}

func deepBook(bid, ask float64) common.Depth {
	return common.Depth{
		Bids: []common.Level{{Price: bid, Qty: 1e9}},
		Asks: []common.Level{{Price: ask, Qty: 1e9}},
	}
}

func testConfig() config.Config {
	cfg := config.Load()
	cfg.Scanner.MinProfit = 1.0001
	cfg.Scanner.StartAmount = 1000
	cfg.Scanner.TopN = 3
	cfg.Scanner.DepthLimit = 10
	cfg.Scanner.BookConcurrency = 2
	return cfg
}

func TestScanOnceFindsAndSimulatesCycles(t *testing.T) {
	// ETHBTC bid is rich against ETHUSDT/BTCUSDT, opening
	// USDT -> ETH -> BTC -> USDT at roughly +0.13%.
	source := &fakeSource{tickers: []common.Ticker{
		ticker("BTCUSDT", "BTC", "USDT", 50000, 50010),
		ticker("ETHUSDT", "ETH", "USDT", 3000, 3001),
		ticker("ETHBTC", "ETH", "BTC", 0.0601, 0.0602),
	}}
	books := &fakeBooks{depths: map[string]common.Depth{
		"BTCUSDT": deepBook(50000, 50010),
		"ETHUSDT": deepBook(3000, 3001),
		"ETHBTC":  deepBook(0.0601, 0.0602),
	}}
	store := &fakeStore{}
	sc := New(testConfig(), zerolog.Nop(), source, books, store, nil, pnl.NewTracker())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sc.ScanOnce(ctx)

	report := sc.LastReport()
	if report.Nodes != 3 {
		t.Fatalf("expected 3 currencies, got %d", report.Nodes)
	}
	if report.Edges != 6 {
		t.Fatalf("expected 6 edges, got %d", report.Edges)
	}
	if report.CyclesFound < 1 {
		t.Fatal("expected at least one profitable cycle")
	}
	if len(report.Candidates) == 0 || len(report.Candidates) > 3 {
		t.Fatalf("candidate count out of range: %d", len(report.Candidates))
	}
	filled := 0
	for _, c := range report.Candidates {
		if c.Outcome == slippage.Filled {
			filled++
		}
	}
	if filled == 0 {
		t.Fatal("deep books must fill at least one candidate")
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.recs) != len(report.Candidates) {
		t.Fatalf("store got %d records for %d candidates", len(store.recs), len(report.Candidates))
	}
	if g := sc.LastGraph(); g == nil || g.NodeCount() != 3 {
		t.Fatal("published graph missing or wrong")
	}
}

func TestScanOnceMissingBooksDegradeToZero(t *testing.T) {
	source := &fakeSource{tickers: []common.Ticker{
		ticker("BTCUSDT", "BTC", "USDT", 50000, 50010),
		ticker("ETHUSDT", "ETH", "USDT", 3000, 3001),
		ticker("ETHBTC", "ETH", "BTC", 0.0601, 0.0602),
	}}
	books := &fakeBooks{depths: map[string]common.Depth{}} // every fetch fails
	sc := New(testConfig(), zerolog.Nop(), source, books, nil, nil, pnl.NewTracker())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sc.ScanOnce(ctx)

	report := sc.LastReport()
	if len(report.Candidates) == 0 {
		t.Fatal("candidates should still be reported")
	}
	for _, c := range report.Candidates {
		if c.Outcome != slippage.MissingBook {
			t.Fatalf("expected missing_book outcome, got %s", c.Outcome)
		}
		if c.RealizedPct != 0 {
			t.Fatalf("degraded candidate must report 0%%, got %v", c.RealizedPct)
		}
	}
}

func TestScanOnceTickerFailureKeepsLastReport(t *testing.T) {
	source := &fakeSource{tickers: []common.Ticker{
		ticker("BTCUSDT", "BTC", "USDT", 50000, 50010),
	}}
	books := &fakeBooks{depths: map[string]common.Depth{"BTCUSDT": deepBook(50000, 50010)}}
	sc := New(testConfig(), zerolog.Nop(), source, books, nil, nil, pnl.NewTracker())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sc.ScanOnce(ctx)
	first := sc.LastReport()

	source.err = fmt.Errorf("exchange down")
	sc.ScanOnce(ctx)
	if got := sc.LastReport(); !got.At.Equal(first.At) {
		t.Fatal("failed scan must not replace the last report")
	}
}
