// Package network provides the HTTP client shared by the release check and
// the relay health probe.
package network

import (
	"net/http"
	"time"
)

// Client is shared across the application so connections are reused.
var Client = &http.Client{
	Timeout:   10 * time.Second,
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 10
	t.MaxIdleConnsPerHost = 2
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 5 * time.Second
	return t
}
