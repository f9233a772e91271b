package activation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/viant/kobodl/schema"
)

const defaultPollInterval = 5 * time.Second

var (
	// ErrEmptyIdentifier reports a Begin call without an account identifier.
	ErrEmptyIdentifier = errors.New("identifier was empty")
	// ErrAttemptsExhausted reports a poll loop that hit its attempt cap
	// before the activation completed.
	ErrAttemptsExhausted = errors.New("activation attempts exhausted")
)

// Controller is the activation state machine. A controller is not safe for
// concurrent Begin/Wait calls; it models a single sequential flow.
type Controller struct {
	beginURL    string
	checkURL    string
	httpClient  *http.Client
	interval    time.Duration
	maxAttempts int
	listener    Listener
	finalizer   func(ctx context.Context) error

	mux       sync.Mutex
	state     State
	challenge *schema.ActivationChallenge
}

// New creates a controller for the given begin-activation and
// check-activation endpoints.
func New(beginURL, checkURL string, options ...Option) *Controller {
	ret := &Controller{
		beginURL:   beginURL,
		checkURL:   checkURL,
		httpClient: http.DefaultClient,
		interval:   defaultPollInterval,
		state:      StateIdle,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// State returns the current state.
func (c *Controller) State() State {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.state
}

// Challenge returns the challenge issued by the last successful Begin.
func (c *Controller) Challenge() *schema.ActivationChallenge {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.challenge
}

// Reset returns a terminal controller to Idle so the flow can be retried
// without rebuilding it.
func (c *Controller) Reset() {
	c.mux.Lock()
	from := c.state
	c.state = StateIdle
	c.challenge = nil
	c.mux.Unlock()
	c.notify(from, StateIdle)
}

// Begin submits the identifier to the begin-activation contract and, on a
// well-formed response, transitions to AwaitingActivation. On any failure
// the controller enters Failed and the error is returned to be surfaced to
// the user.
func (c *Controller) Begin(ctx context.Context, identifier string) (*schema.ActivationChallenge, error) {
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}
	c.transition(StateSubmitting)

	form := url.Values{}
	form.Set("email", identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.beginURL, strings.NewReader(form.Encode()))
	if err != nil {
		c.transition(StateFailed)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.transition(StateFailed)
		return nil, fmt.Errorf("failed to begin activation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.transition(StateFailed)
		return nil, fmt.Errorf("begin activation returned status %v", resp.StatusCode)
	}
	challenge := &schema.ActivationChallenge{}
	if err = json.NewDecoder(resp.Body).Decode(challenge); err != nil {
		c.transition(StateFailed)
		return nil, fmt.Errorf("failed to decode activation challenge: %w", err)
	}
	c.mux.Lock()
	c.challenge = challenge
	c.mux.Unlock()
	c.transition(StateAwaitingActivation)
	return challenge, nil
}

// Wait runs the poll loop for the supplied challenge. The first check is
// issued immediately; subsequent checks are spaced by the poll interval.
// Calls are strictly sequential: a new check never starts before the
// previous outcome was observed. The loop ends with Complete on success,
// with Failed on a transport error, a decode error or an error status, on
// context cancellation, or once the attempt cap (when configured) is
// exhausted.
func (c *Controller) Wait(ctx context.Context, challenge *schema.ActivationChallenge) error {
	c.transition(StatePolling)
	for attempt := 0; ; attempt++ {
		if c.maxAttempts > 0 && attempt >= c.maxAttempts {
			c.transition(StateFailed)
			return ErrAttemptsExhausted
		}
		if attempt > 0 {
			select {
			case <-time.After(c.interval):
			case <-ctx.Done():
				c.transition(StateFailed)
				return ctx.Err()
			}
		}
		outcome, err := c.check(ctx, challenge)
		if err != nil {
			c.transition(StateFailed)
			return err
		}
		if outcome.Success {
			c.transition(StateComplete)
			if c.finalizer != nil {
				return c.finalizer(ctx)
			}
			return nil
		}
	}
}

// Activate is the full flow: Begin, hand the challenge to onChallenge for
// presentation, then Wait.
func (c *Controller) Activate(ctx context.Context, identifier string, onChallenge func(*schema.ActivationChallenge)) error {
	challenge, err := c.Begin(ctx, identifier)
	if err != nil {
		return err
	}
	if onChallenge != nil {
		onChallenge(challenge)
	}
	return c.Wait(ctx, challenge)
}

// check issues a single check-activation call. CheckURL and Email travel
// verbatim; the backend treats them as an opaque correlation pair.
func (c *Controller) check(ctx context.Context, challenge *schema.ActivationChallenge) (*schema.ActivationOutcome, error) {
	payload, err := json.Marshal(&schema.CheckActivationRequest{CheckURL: challenge.CheckURL, Email: challenge.Email})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.checkURL, strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to check activation: %w", err)
	}
	defer resp.Body.Close()
	outcome := &schema.ActivationOutcome{}
	decodeErr := json.NewDecoder(resp.Body).Decode(outcome)
	if resp.StatusCode != http.StatusOK {
		if outcome.Error != "" {
			return nil, fmt.Errorf("activation check failed: %v", outcome.Error)
		}
		return nil, fmt.Errorf("activation check returned status %v", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode activation outcome: %w", decodeErr)
	}
	return outcome, nil
}

func (c *Controller) transition(to State) {
	c.mux.Lock()
	from := c.state
	c.state = to
	c.mux.Unlock()
	c.notify(from, to)
}

func (c *Controller) notify(from, to State) {
	if c.listener != nil && from != to {
		c.listener(from, to)
	}
}
