package network

import (
	"time"

	"github.com/valyala/fasthttp"
)

// NewClient builds the shared fasthttp client used for exchange REST calls.
func NewClient(timeout time.Duration) *fasthttp.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &fasthttp.Client{
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: 90 * time.Second,
		MaxConnsPerHost:     64,
	}
}
