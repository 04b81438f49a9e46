package clients

import (
	"net"
	"net/http"
	"time"
)

// DefaultTransport returns an HTTP transport with per-host connection caps.
// One query fans out into one request per ability and move, all against the
// same upstream host, so the per-host limits matter more than the global one.
func DefaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,

		MaxConnsPerHost:     100,
		MaxIdleConnsPerHost: 32,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
