package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type testSource struct {
	token     string
	refreshed int
}

func (s *testSource) Token(ctx context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: s.token}, nil
}

func (s *testSource) Refresh(ctx context.Context) (*oauth2.Token, error) {
	s.refreshed++
	s.token = "fresh"
	return &oauth2.Token{AccessToken: s.token}, nil
}

func TestRoundTripper_RefreshesOnceOn401(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		seen = append(seen, auth)
		if auth != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	source := &testSource{token: "stale"}
	client := &http.Client{Transport: New(source)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, source.refreshed)
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, seen)
}

func TestRoundTripper_PassesThroughOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	source := &testSource{token: "stale"}
	client := &http.Client{Transport: New(source)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 0, source.refreshed)
}
