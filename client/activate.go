package client

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/viant/kobodl/schema"
)

var (
	pollEndpointMatcher   = regexp.MustCompile(`data-poll-endpoint="([^"]+)"`)
	activationCodeMatcher = regexp.MustCompile(`qrcodegenerator/generate.+?%26code%3D(\d+)'`)
)

// ActivateOnWeb initiates the web-based activation used by the e-readers:
// it loads the activation page and extracts the poll endpoint together
// with the code the user has to enter on kobo.com/activate.
func (c *Client) ActivateOnWeb(ctx context.Context) (checkURL, activationCode string, err error) {
	if c.user.DeviceId == "" {
		c.user.DeviceId = randomHexDigits(64)
	}
	params := url.Values{}
	params.Set("pwspid", schema.DefaultPlatformId)
	params.Set("wsa", schema.Affiliate)
	params.Set("pwsdid", c.user.DeviceId)
	params.Set("pwsav", schema.ApplicationVersion)
	// the Android app sends the device model here but Nickel sends the platform id
	params.Set("pwsdm", schema.DefaultPlatformId)
	params.Set("pwspos", schema.DeviceOs)
	params.Set("pwspov", schema.DeviceOsVersion)

	req, err := c.newRequest(ctx, http.MethodGet, c.authURL+"/ActivateOnWeb?"+params.Encode(), nil)
	if err != nil {
		return "", "", err
	}
	resp, err := c.plainClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to initiate web activation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("web activation returned status %v", resp.StatusCode)
	}
	page, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}

	match := pollEndpointMatcher.FindSubmatch(page)
	if match == nil {
		return "", "", fmt.Errorf("can't find the activation poll endpoint in the response; the page format might have changed")
	}
	checkURL = c.authURL + html.UnescapeString(string(match[1]))

	match = activationCodeMatcher.FindSubmatch(page)
	if match == nil {
		return "", "", fmt.Errorf("can't find the activation code in the response; the page format might have changed")
	}
	activationCode = string(match[1])
	return checkURL, activationCode, nil
}

// CheckActivation polls the activation check endpoint once. The returned
// state reports Completed() once the user finished the web activation.
func (c *Client) CheckActivation(ctx context.Context, checkURL string) (*schema.ActivationPollState, error) {
	req, err := c.newRequest(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.plainClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to check activation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("activation check returned status %v", resp.StatusCode)
	}
	state := &schema.ActivationPollState{}
	if err = decodeJSON(resp.Body, state); err != nil {
		return nil, fmt.Errorf("failed to decode activation check response: %w", err)
	}
	return state, nil
}

// WaitForActivation polls the check endpoint at the given interval until
// the activation completes or the context is cancelled.
func (c *Client) WaitForActivation(ctx context.Context, checkURL string, interval time.Duration) (*schema.ActivationPollState, error) {
	for {
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		state, err := c.CheckActivation(ctx, checkURL)
		if err != nil {
			return nil, err
		}
		if state.Completed() {
			return state, nil
		}
	}
}

// Login runs the full activation for this client's user: initiation,
// waiting for the web activation, then device authentication with the
// returned user key and loading of the initialization settings.
func (c *Client) Login(ctx context.Context, interval time.Duration, onChallenge func(activationURL, code string)) error {
	checkURL, code, err := c.ActivateOnWeb(ctx)
	if err != nil {
		return err
	}
	if onChallenge != nil {
		onChallenge(schema.ActivationURL, code)
	}
	state, err := c.WaitForActivation(ctx, checkURL, interval)
	if err != nil {
		return err
	}
	c.user.Email = state.UserEmail
	c.user.UserId = state.UserId
	if err = c.AuthenticateDevice(ctx, state.UserKey); err != nil {
		return err
	}
	return c.LoadInitializationSettings(ctx)
}
