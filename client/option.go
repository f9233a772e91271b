package client

import "net/http"

// Option represents a client option.
type Option func(c *Client)

// WithStoreURL overrides the store API base URL.
func WithStoreURL(URL string) Option {
	return func(c *Client) {
		c.storeURL = URL
	}
}

// WithAuthURL overrides the activation host base URL.
func WithAuthURL(URL string) Option {
	return func(c *Client) {
		c.authURL = URL
	}
}

// WithHTTPClient sets the client used for unauthenticated calls; the
// authorized client wraps its transport with the 401-replay round tripper.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.plainClient = client
	}
}

// WithOnAuthChange registers a callback fired after every credential
// update, typically to save settings.
func WithOnAuthChange(callback OnAuthChange) Option {
	return func(c *Client) {
		c.onAuthChange = callback
	}
}
