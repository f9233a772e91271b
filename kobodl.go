package kobodl

import (
	"context"
	"time"

	"github.com/viant/kobodl/book"
	"github.com/viant/kobodl/client"
	"github.com/viant/kobodl/server"
	"github.com/viant/kobodl/settings"
)

// NewSettings opens the settings document at the given afs URL; an empty
// URL selects the default config location.
func NewSettings(ctx context.Context, URL string, options ...settings.Option) (*settings.Service, error) {
	return settings.New(ctx, URL, options...)
}

// NewClient creates a store client for the user.
func NewClient(user *settings.User, options ...client.Option) *client.Client {
	return client.New(user, options...)
}

// NewBooks creates the book service used to list and download libraries.
func NewBooks(options ...book.Option) *book.Service {
	return book.New(options...)
}

// NewServer creates the activation and library web server.
func NewServer(options ...server.Option) (*server.Server, error) {
	return server.New(options...)
}

// Login runs the full web activation for the user: it reports the
// activation URL and code through onChallenge, polls until the user
// completed the activation, then finishes device authentication.
func Login(ctx context.Context, user *settings.User, interval time.Duration, onChallenge func(activationURL, code string), options ...client.Option) error {
	return client.New(user, options...).Login(ctx, interval, onChallenge)
}
