package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"

	"triarb/internal/config"
	"triarb/internal/exchange/common"
	"triarb/internal/infra/metrics"
	"triarb/internal/infra/network"
)

// Client is a public-endpoint REST client for Binance spot. All calls go
// through the shared token bucket and feed the RTT tracker.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	bucket  *network.TokenBucket
	rtt     *network.RTTTracker

	// symbol -> (base, quote), loaded once from exchangeInfo
	pairs map[string]pairInfo
}

type pairInfo struct {
	base  string
	quote string
}

func New(cfg config.Config) *Client {
	return &Client{
		http:    network.NewClient(time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second),
		baseURL: cfg.Exchange.BaseURL,
		bucket:  network.NewTokenBucket(cfg.Exchange.RateLimitBurst, cfg.Exchange.RateLimitRPS, cfg.Exchange.BaselineRTTMs),
		rtt:     network.NewRTTTracker(64),
	}
}

func (c *Client) get(ctx context.Context, path string, args map[string]string, endpoint string) ([]byte, error) {
	waited, err := c.bucket.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if waited {
		metrics.RateLimitWaitsTotal.Inc()
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	qa := req.URI().QueryArgs()
	for k, v := range args {
		qa.Set(k, v)
	}

	start := time.Now()
	err = c.http.Do(req, resp)
	c.rtt.Observe(time.Since(start))
	median := c.rtt.MedianMs()
	metrics.RESTRTTMedianMs.Set(median)
	c.bucket.AdjustForRTT(median)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(endpoint).Inc()
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.APIErrorsTotal.WithLabelValues(endpoint).Inc()
		return nil, fmt.Errorf("%s: status %d", endpoint, resp.StatusCode())
	}
	// Body is reused by fasthttp once the response is released.
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// loadPairs fills the symbol -> base/quote table from exchangeInfo.
func (c *Client) loadPairs(ctx context.Context) error {
	body, err := c.get(ctx, "/api/v3/exchangeInfo", nil, "exchangeInfo")
	if err != nil {
		return err
	}
	pairs := make(map[string]pairInfo)
	gjson.GetBytes(body, "symbols").ForEach(func(_, s gjson.Result) bool {
		pairs[s.Get("symbol").String()] = pairInfo{
			base:  s.Get("baseAsset").String(),
			quote: s.Get("quoteAsset").String(),
		}
		return true
	})
	if len(pairs) == 0 {
		return fmt.Errorf("exchangeInfo: empty symbols list")
	}
	c.pairs = pairs
	return nil
}

// Tickers fetches the full 24h ticker batch joined with pair metadata.
// Symbols absent from exchangeInfo and records that fail to parse are
// skipped; a batch is never aborted by a bad record.
func (c *Client) Tickers(ctx context.Context) ([]common.Ticker, error) {
	if c.pairs == nil {
		if err := c.loadPairs(ctx); err != nil {
			return nil, err
		}
	}
	body, err := c.get(ctx, "/api/v3/ticker/24hr", nil, "ticker24hr")
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("ticker24hr: unexpected response shape")
	}
	var out []common.Ticker
	parsed.ForEach(func(_, v gjson.Result) bool {
		t, ok := parseTicker(v, c.pairs)
		if ok {
			out = append(out, t)
		}
		return true
	})
	metrics.TickersFetchedTotal.Add(float64(len(out)))
	return out, nil
}

// parseTicker extracts one ticker record; ok is false when the symbol is
// unknown or a numeric field does not parse.
func parseTicker(v gjson.Result, pairs map[string]pairInfo) (common.Ticker, bool) {
	symbol := v.Get("symbol").String()
	info, known := pairs[symbol]
	if !known {
		return common.Ticker{}, false
	}
	fields := [4]string{"bidPrice", "askPrice", "lastPrice", "volume"}
	var nums [4]float64
	for i, f := range fields {
		raw := v.Get(f)
		if !raw.Exists() {
			return common.Ticker{}, false
		}
		n, err := strconv.ParseFloat(raw.String(), 64)
		if err != nil {
			return common.Ticker{}, false
		}
		nums[i] = n
	}
	return common.Ticker{
		Symbol:     symbol,
		BidPrice:   nums[0],
		AskPrice:   nums[1],
		LastPrice:  nums[2],
		Volume:     nums[3],
		Count:      v.Get("count").Int(),
		BaseAsset:  info.base,
		QuoteAsset: info.quote,
	}, true
}

// Depth fetches an order-book snapshot. Binance returns levels best-first,
// which is exactly the ordering the simulator trusts.
func (c *Client) Depth(ctx context.Context, symbol string, limit int) (common.Depth, error) {
	body, err := c.get(ctx, "/api/v3/depth", map[string]string{
		"symbol": symbol,
		"limit":  strconv.Itoa(limit),
	}, "depth")
	if err != nil {
		return common.Depth{}, err
	}
	return ParseDepth(body)
}

// ParseDepth decodes {"bids":[["p","q"],..],"asks":[..]} into a Depth.
func ParseDepth(body []byte) (common.Depth, error) {
	parse := func(rows gjson.Result) []common.Level {
		var out []common.Level
		rows.ForEach(func(_, row gjson.Result) bool {
			arr := row.Array()
			if len(arr) < 2 {
				return true
			}
			out = append(out, common.Level{Price: arr[0].Float(), Qty: arr[1].Float()})
			return true
		})
		return out
	}
	d := common.Depth{
		Bids: parse(gjson.GetBytes(body, "bids")),
		Asks: parse(gjson.GetBytes(body, "asks")),
	}
	if d.Bids == nil && d.Asks == nil {
		return common.Depth{}, fmt.Errorf("depth: no levels in response")
	}
	return d, nil
}
