// Package store caches device tokens in memory so concurrent API calls
// share one token and refresh at most once. Durable token state lives in
// the settings document; this cache only adds expiry awareness.
package store

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Store is a pluggable token cache keyed by device id. The in-memory
// default is fine for a single process; swap for a shared store when a
// fleet of workers shares devices.
type Store interface {
	AddToken(deviceId string, token *oauth2.Token) error
	LookupToken(deviceId string) (*oauth2.Token, bool)
	RemoveToken(deviceId string)
}

type memoryStore struct {
	mux    sync.RWMutex
	tokens map[string]*oauth2.Token
}

// NewMemoryStore creates an in-memory token store.
func NewMemoryStore() Store {
	return &memoryStore{tokens: map[string]*oauth2.Token{}}
}

func (m *memoryStore) AddToken(deviceId string, token *oauth2.Token) error {
	if token.Expiry.IsZero() {
		token.Expiry = tokenExpiry(token.AccessToken)
	}
	m.mux.Lock()
	defer m.mux.Unlock()
	m.tokens[deviceId] = token
	return nil
}

func (m *memoryStore) LookupToken(deviceId string) (*oauth2.Token, bool) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	if token, ok := m.tokens[deviceId]; ok {
		return token, true
	}
	return nil, false
}

func (m *memoryStore) RemoveToken(deviceId string) {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.tokens, deviceId)
}

// tokenExpiry probes the access token for a JWT exp claim without
// verifying the signature; the store only needs the expiry hint, the
// backend still authenticates every call. A non-JWT token yields the zero
// time, i.e. no proactive refresh.
func tokenExpiry(accessToken string) (expiry time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return expiry
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiry = exp.Time
	}
	return expiry
}
