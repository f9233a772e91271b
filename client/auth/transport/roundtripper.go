// Package transport provides an http.RoundTripper that attaches the
// device bearer token and transparently refreshes it after a 401,
// replaying the failed request once.
package transport

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// TokenSource supplies and renews the device token. Refresh is invoked
// after the backend rejected the current token; implementations must not
// route the refresh call back through this round tripper.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Refresh(ctx context.Context) (*oauth2.Token, error)
}

type RoundTripper struct {
	source    TokenSource
	transport http.RoundTripper
	mux       sync.Mutex
}

// New creates an authorizing round tripper backed by the token source.
func New(source TokenSource, options ...Option) *RoundTripper {
	ret := &RoundTripper{
		source:    source,
		transport: http.DefaultTransport,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	token, err := r.source.Token(ctx)
	if err != nil {
		return nil, err
	}

	attempt := clone(req)
	attempt.Header.Set("Authorization", "Bearer "+token.AccessToken)
	resp, err := r.transport.RoundTrip(attempt)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	// Close the prior body so we don't leak the connection.
	resp.Body.Close()

	// Serialize refreshes so concurrent 401s renew the token once.
	r.mux.Lock()
	token, err = r.source.Refresh(ctx)
	r.mux.Unlock()
	if err != nil {
		return nil, err
	}

	retry := clone(req)
	retry.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return r.transport.RoundTrip(retry)
}
