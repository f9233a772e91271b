package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/kobodl/client/auth/store"
	"github.com/viant/kobodl/client/auth/transport"
	"github.com/viant/kobodl/schema"
	"github.com/viant/kobodl/settings"
)

const (
	defaultStoreURL = "https://storeapi.kobo.com"
	defaultAuthURL  = "https://auth.kobobooks.com"
)

// OnAuthChange is invoked whenever device authentication updated the user
// credentials, so the owner can persist them.
type OnAuthChange func(ctx context.Context, user *settings.User) error

// Client talks to the Kobo store API on behalf of one user/device.
type Client struct {
	storeURL string
	authURL  string
	user     *settings.User

	// httpClient replays 401s through the auth round tripper; plainClient
	// is used for unauthenticated calls and for the refresh itself.
	httpClient  *http.Client
	plainClient *http.Client

	fs           afs.Service
	tokens       store.Store
	onAuthChange OnAuthChange

	mux       sync.Mutex
	resources map[string]string
}

// New creates a store client for the user. The user record is mutated as
// authentication progresses.
func New(user *settings.User, options ...Option) *Client {
	ret := &Client{
		storeURL:    defaultStoreURL,
		authURL:     defaultAuthURL,
		user:        user,
		plainClient: &http.Client{},
		fs:          afs.New(),
		tokens:      store.NewMemoryStore(),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.httpClient == nil {
		base := http.DefaultTransport
		if ret.plainClient.Transport != nil {
			base = ret.plainClient.Transport
		}
		ret.httpClient = &http.Client{Transport: transport.New(ret, transport.WithTransport(base))}
	}
	return ret
}

// User returns the user record the client operates on.
func (c *Client) User() *settings.User {
	return c.user
}

// Resource returns a store API endpoint by its initialization name.
func (c *Client) Resource(name string) (string, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.resources == nil {
		return "", fmt.Errorf("initialization settings not loaded: %w", schema.ErrNotAuthenticated)
	}
	URL, ok := c.resources[name]
	if !ok {
		return "", fmt.Errorf("unknown initialization resource %q", name)
	}
	return URL, nil
}

// LoadInitializationSettings fetches the store API resource map; call it
// once authentication succeeded.
func (c *Client) LoadInitializationSettings(ctx context.Context) error {
	response := &schema.InitializationResponse{}
	if err := c.getJSON(ctx, c.storeURL+"/v1/initialization", nil, response); err != nil {
		return fmt.Errorf("failed to load initialization settings: %w", err)
	}
	c.mux.Lock()
	c.resources = response.Resources
	c.mux.Unlock()
	return nil
}

// newRequest builds a store request with the e-reader user agent.
func (c *Client) newRequest(ctx context.Context, method, URL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, URL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", schema.UserAgent)
	return req, nil
}

// getJSON issues an authorized GET and decodes the JSON response. Extra
// headers may be supplied; response headers are exposed via the returned
// callback when the caller passes a non-nil header sink.
func (c *Client) getJSON(ctx context.Context, URL string, header http.Header, result interface{}) error {
	_, err := c.getJSONWithHeader(ctx, URL, header, result)
	return err
}

func (c *Client) getJSONWithHeader(ctx context.Context, URL string, header http.Header, result interface{}) (http.Header, error) {
	req, err := c.newRequest(ctx, http.MethodGet, URL, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return resp.Header, fmt.Errorf("%v returned status %v: %s", URL, resp.StatusCode, data)
	}
	if result != nil {
		if err = json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.Header, fmt.Errorf("failed to decode %v response: %w", URL, err)
		}
	}
	return resp.Header, nil
}

func decodeJSON(reader io.Reader, result interface{}) error {
	return json.NewDecoder(reader).Decode(result)
}

// postJSON issues a JSON POST through the supplied http client.
func (c *Client) postJSON(ctx context.Context, httpClient *http.Client, URL string, payload, result interface{}, header http.Header) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, URL, strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%v returned status %v: %s", URL, resp.StatusCode, data)
	}
	if result != nil {
		if err = json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode %v response: %w", URL, err)
		}
	}
	return nil
}
