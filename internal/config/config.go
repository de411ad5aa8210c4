package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string   `yaml:"addr"`
		Pprof               bool     `yaml:"pprof"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
		AdminAllowCIDRs     []string `yaml:"admin_allow_cidrs"`
	} `yaml:"server"`
	Scanner struct {
		IntervalSeconds int     `yaml:"interval_seconds"`
		MinProfit       float64 `yaml:"min_profit"`       // multiplier, 1.0001 = 0.01%
		StartAmount     float64 `yaml:"start_amount"`     // in the cycle's start currency
		TopN            int     `yaml:"top_n"`            // candidates simulated per scan
		DepthLimit      int     `yaml:"depth_limit"`      // order-book levels per symbol
		BookConcurrency int     `yaml:"book_concurrency"` // parallel depth fetches
		GraphFile       string  `yaml:"graph_file"`       // optional JSON snapshot of the graph
		RawTickersFile  string  `yaml:"raw_tickers_file"` // optional JSON dump of valid tickers
	} `yaml:"scanner"`
	Exchange struct {
		BaseURL        string  `yaml:"base_url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst"`
		BaselineRTTMs  float64 `yaml:"baseline_rtt_ms"`
	} `yaml:"exchange"`
	Storage struct {
		PostgresDSN string `yaml:"postgres_dsn"` // empty disables the opportunity store
		RedisAddr   string `yaml:"redis_addr"`   // empty disables the snapshot cache
		RedisDB     int    `yaml:"redis_db"`
		CacheTTLSec int    `yaml:"cache_ttl_seconds"`
	} `yaml:"storage"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":9090"
	c.Server.Pprof = false
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.AdminAllowCIDRs = []string{"127.0.0.0/8", "::1/128"}
	c.Scanner.IntervalSeconds = 60
	c.Scanner.MinProfit = 1.0001
	c.Scanner.StartAmount = 1000.0
	c.Scanner.TopN = 10
	c.Scanner.DepthLimit = 100
	c.Scanner.BookConcurrency = 4
	c.Scanner.GraphFile = ""
	c.Scanner.RawTickersFile = ""
	c.Exchange.BaseURL = "https://api.binance.com"
	c.Exchange.TimeoutSeconds = 10
	c.Exchange.RateLimitRPS = 10
	c.Exchange.RateLimitBurst = 20
	c.Exchange.BaselineRTTMs = 50
	c.Storage.PostgresDSN = ""
	c.Storage.RedisAddr = ""
	c.Storage.RedisDB = 0
	c.Storage.CacheTTLSec = 300
	return c
}

func Load() Config {
	c := defaultConfig()
	if path := os.Getenv("TRIARB_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	if v := os.Getenv("TRIARB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TRIARB_LOG_PRETTY"); v == "1" || v == "true" {
		c.Logging.Pretty = true
	}
	if v := os.Getenv("TRIARB_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TRIARB_PPROF"); v == "1" || v == "true" {
		c.Server.Pprof = true
	}
	if v := os.Getenv("TRIARB_ADMIN_ALLOW_CIDRS"); v != "" {
		c.Server.AdminAllowCIDRs = splitCSV(v)
	}
	if v := os.Getenv("TRIARB_SCAN_INTERVAL_SECONDS"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Scanner.IntervalSeconds = n
		}
	}
	if v := os.Getenv("TRIARB_MIN_PROFIT"); v != "" {
		var f float64
		_, _ = fmt.Sscan(v, &f)
		if f > 0 {
			c.Scanner.MinProfit = f
		}
	}
	if v := os.Getenv("TRIARB_START_AMOUNT"); v != "" {
		var f float64
		_, _ = fmt.Sscan(v, &f)
		if f > 0 {
			c.Scanner.StartAmount = f
		}
	}
	if v := os.Getenv("TRIARB_TOP_N"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Scanner.TopN = n
		}
	}
	if v := os.Getenv("TRIARB_GRAPH_FILE"); v != "" {
		c.Scanner.GraphFile = v
	}
	if v := os.Getenv("TRIARB_RAW_TICKERS_FILE"); v != "" {
		c.Scanner.RawTickersFile = v
	}
	if v := os.Getenv("TRIARB_BINANCE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("TRIARB_POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("TRIARB_REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	return c
}

func splitCSV(s string) []string {
	var out []string
	buf := []rune{}
	for _, r := range s {
		if r == ',' {
			if len(buf) > 0 {
				out = append(out, string(buf))
				buf = buf[:0]
			}
			continue
		}
		buf = append(buf, r)
	}
	if len(buf) > 0 {
		out = append(out, string(buf))
	}
	return out
}
