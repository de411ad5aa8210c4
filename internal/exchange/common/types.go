package common

import "context"

// Ticker is a 24h spot ticker record joined with its pair metadata.
type Ticker struct {
	Symbol     string
	BidPrice   float64
	AskPrice   float64
	LastPrice  float64
	Volume     float64
	Count      int64
	BaseAsset  string
	QuoteAsset string
}

// Valid reports whether the ticker carries enough market activity to derive
// conversion rates from. Quotes with a zero price, volume or trade count are
// dropped before they can produce edges.
func (t Ticker) Valid() bool {
	return t.LastPrice != 0 &&
		t.BidPrice != 0 &&
		t.AskPrice != 0 &&
		t.Volume != 0 &&
		t.Count != 0
}

// Level is a single order-book price level.
type Level struct {
	Price float64
	Qty   float64
}

// Depth is an L2 snapshot for one trading pair. Bids are sorted descending
// by price, asks ascending; consumers trust this ordering and do not re-sort.
type Depth struct {
	Bids []Level
	Asks []Level
}

// TickerSource supplies one full batch of spot tickers per call.
type TickerSource interface {
	Tickers(ctx context.Context) ([]Ticker, error)
}

// DepthProvider fetches an order-book snapshot for a single symbol.
type DepthProvider interface {
	Depth(ctx context.Context, symbol string, limit int) (Depth, error)
}
