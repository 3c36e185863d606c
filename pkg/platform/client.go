package platform

import (
	"net/http"
	"sync"
	"time"
)

const (
	// defaultHTTPTimeout is the default timeout for platform API requests.
	defaultHTTPTimeout = 10 * time.Second
)

// Client is the single long-lived HTTP client shared by all adapters. It is
// owned by the top-level orchestrator and injected at construction time; a
// shutdown closes it once, after which new calls are no longer issued and
// in-flight calls fail naturally.
type Client struct {
	*http.Client

	mu     sync.RWMutex
	closed bool
}

// NewClient creates the shared HTTP client with standard settings.
func NewClient() *Client {
	return &Client{
		Client: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}

// Close marks the client closed and drops idle connections. Safe to call
// more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.CloseIdleConnections()
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
