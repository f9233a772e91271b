package transport

import "net/http"

// Option represents a round tripper option.
type Option func(r *RoundTripper)

// WithTransport overrides the underlying transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(r *RoundTripper) {
		r.transport = transport
	}
}
