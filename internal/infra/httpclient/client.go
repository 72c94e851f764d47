package httpclient

import (
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// New returns a timeout-bound client for outbound calls, mainly the Bot
// API and webhook receivers. Zero timeout falls back to 10s so a hung
// receiver can never stall a delivery.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
