package backtest

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"triarb/internal/exchange/common"
	"triarb/internal/graph"
)

// Replays a saved raw-tickers dump through graph construction and cycle
// search. Input is the JSON array written by the scanner's raw_tickers_file
// option. Env var: TRIARB_BACKTEST_TICKERS=/path/to/raw_tickers.json
func RunSavedTickers(minProfit float64, logger zerolog.Logger) error {
	path := os.Getenv("TRIARB_BACKTEST_TICKERS")
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	parsed := gjson.ParseBytes(b)
	if !parsed.IsArray() {
		return fmt.Errorf("backtest: %s is not a JSON array", path)
	}

	var tickers []common.Ticker
	parsed.ForEach(func(_, v gjson.Result) bool {
		tickers = append(tickers, common.Ticker{
			Symbol:     v.Get("symbol").String(),
			BidPrice:   v.Get("bidPrice").Float(),
			AskPrice:   v.Get("askPrice").Float(),
			LastPrice:  v.Get("lastPrice").Float(),
			Volume:     v.Get("volume").Float(),
			Count:      v.Get("count").Int(),
			BaseAsset:  v.Get("baseAsset").String(),
			QuoteAsset: v.Get("quoteAsset").String(),
		})
		return true
	})

	g := graph.Build(tickers, logger)
	opps := g.FindAllCycles(minProfit)
	show := opps
	if len(show) > 10 {
		show = show[:10]
	}
	for _, o := range show {
		fmt.Printf("%s -> %s -> %s -> %s: %.4f%%\n", o.Start, o.Mid, o.End, o.Start, o.ProfitPercent)
	}
	fmt.Printf("backtest tickers=%d nodes=%d edges=%d cycles=%d at %s\n",
		len(tickers), g.NodeCount(), g.EdgeCount(), len(opps), time.Now().Format(time.RFC3339))
	return nil
}
