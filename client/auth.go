package client

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/kobodl/schema"
	"golang.org/x/oauth2"
)

// AuthenticateDevice performs device authentication, generating device
// credentials on first use. The initial anonymous authentication takes an
// empty userKey; once web activation returned one, pass it to bind the
// device to the account.
func (c *Client) AuthenticateDevice(ctx context.Context, userKey string) error {
	if c.user.DeviceId == "" {
		c.user.DeviceId = randomHexDigits(64)
		c.user.SerialNumber = strings.ReplaceAll(uuid.NewString(), "-", "")
		c.user.AccessToken = ""
		c.user.RefreshToken = ""
	}
	request := &schema.DeviceAuthRequest{
		AffiliateName: schema.Affiliate,
		AppVersion:    schema.ApplicationVersion,
		ClientKey:     base64.StdEncoding.EncodeToString([]byte(schema.DefaultPlatformId)),
		DeviceId:      c.user.DeviceId,
		PlatformId:    schema.DefaultPlatformId,
		SerialNumber:  c.user.SerialNumber,
		UserKey:       userKey,
	}
	response := &schema.AuthResponse{}
	if err := c.postJSON(ctx, c.plainClient, c.storeURL+"/v1/auth/device", request, response, nil); err != nil {
		return fmt.Errorf("device authentication failed: %w", err)
	}
	if response.TokenType != schema.TokenTypeBearer {
		return fmt.Errorf("device authentication returned unsupported token type %q", response.TokenType)
	}
	if userKey != "" {
		c.user.UserKey = response.UserKey
	}
	return c.applyTokens(ctx, response)
}

// RefreshAuth renews the access token using the stored refresh token. The
// refresh call deliberately bypasses the 401-replay transport.
func (c *Client) RefreshAuth(ctx context.Context) error {
	request := &schema.RefreshAuthRequest{
		AppVersion:   schema.ApplicationVersion,
		ClientKey:    base64.StdEncoding.EncodeToString([]byte(schema.DefaultPlatformId)),
		PlatformId:   schema.DefaultPlatformId,
		RefreshToken: c.user.RefreshToken,
	}
	header := map[string][]string{"Authorization": {"Bearer " + c.user.AccessToken}}
	response := &schema.AuthResponse{}
	if err := c.postJSON(ctx, c.plainClient, c.storeURL+"/v1/auth/refresh", request, response, header); err != nil {
		return fmt.Errorf("authentication refresh failed: %w", err)
	}
	if response.TokenType != schema.TokenTypeBearer {
		return fmt.Errorf("authentication refresh returned unsupported token type %q", response.TokenType)
	}
	return c.applyTokens(ctx, response)
}

func (c *Client) applyTokens(ctx context.Context, response *schema.AuthResponse) error {
	c.user.AccessToken = response.AccessToken
	c.user.RefreshToken = response.RefreshToken
	if !c.user.IsAuthenticated() {
		return fmt.Errorf("authentication settings are not set after authentication")
	}
	if err := c.tokens.AddToken(c.user.DeviceId, &oauth2.Token{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
		TokenType:    response.TokenType,
	}); err != nil {
		return err
	}
	if c.onAuthChange != nil {
		return c.onAuthChange(ctx, c.user)
	}
	return nil
}

// Token implements transport.TokenSource; it serves the cached token and
// refreshes proactively when the cached token expired.
func (c *Client) Token(ctx context.Context) (*oauth2.Token, error) {
	if cached, ok := c.tokens.LookupToken(c.user.DeviceId); ok {
		if cached.Valid() {
			return cached, nil
		}
		return c.Refresh(ctx)
	}
	if !c.user.IsAuthenticated() {
		return nil, schema.ErrNotAuthenticated
	}
	token := &oauth2.Token{AccessToken: c.user.AccessToken, RefreshToken: c.user.RefreshToken, TokenType: schema.TokenTypeBearer}
	if err := c.tokens.AddToken(c.user.DeviceId, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Refresh implements transport.TokenSource.
func (c *Client) Refresh(ctx context.Context) (*oauth2.Token, error) {
	if err := c.RefreshAuth(ctx); err != nil {
		c.tokens.RemoveToken(c.user.DeviceId)
		return nil, err
	}
	token, _ := c.tokens.LookupToken(c.user.DeviceId)
	return token, nil
}

func randomHexDigits(length int) string {
	data := make([]byte, (length+1)/2)
	_, _ = rand.Read(data)
	return hex.EncodeToString(data)[:length]
}
