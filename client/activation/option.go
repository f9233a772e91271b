package activation

import (
	"context"
	"net/http"
	"time"
)

// Option represents a controller option.
type Option func(c *Controller)

// WithHTTPClient sets the HTTP client used for both contracts.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		c.httpClient = client
	}
}

// WithInterval sets the delay between consecutive poll calls.
func WithInterval(interval time.Duration) Option {
	return func(c *Controller) {
		c.interval = interval
	}
}

// WithMaxAttempts caps the number of poll calls; zero means unbounded.
func WithMaxAttempts(max int) Option {
	return func(c *Controller) {
		c.maxAttempts = max
	}
}

// WithListener registers a state transition listener.
func WithListener(listener Listener) Option {
	return func(c *Controller) {
		c.listener = listener
	}
}

// WithFinalizer registers a hook invoked once after the Complete
// transition, e.g. to reload client state from the backend.
func WithFinalizer(finalizer func(ctx context.Context) error) Option {
	return func(c *Controller) {
		c.finalizer = finalizer
	}
}
