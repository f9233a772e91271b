package activation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kobodl/schema"
)

type backend struct {
	mux          sync.Mutex
	beginCalls   int
	checkCalls   int
	inFlight     int
	maxInFlight  int
	checkTimes   []time.Time
	failAfter    int // check calls succeeding with success:false before success:true; -1 never succeeds
	transportErr bool
	lastCheck    schema.CheckActivationRequest
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		b.mux.Lock()
		b.beginCalls++
		b.mux.Unlock()
		require.NoError(t, r.ParseForm())
		challenge := &schema.ActivationChallenge{
			ActivationURL:  "https://kobo.example/activate",
			ActivationCode: "ABC123",
			CheckURL:       "xyz",
			Email:          r.PostFormValue("email"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(challenge)
	})
	mux.HandleFunc("/user/check-activation", func(w http.ResponseWriter, r *http.Request) {
		b.mux.Lock()
		b.inFlight++
		if b.inFlight > b.maxInFlight {
			b.maxInFlight = b.inFlight
		}
		b.checkCalls++
		call := b.checkCalls
		b.checkTimes = append(b.checkTimes, time.Now())
		b.mux.Unlock()
		defer func() {
			b.mux.Lock()
			b.inFlight--
			b.mux.Unlock()
		}()
		_ = json.NewDecoder(r.Body).Decode(&b.lastCheck)
		if b.transportErr {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		success := b.failAfter >= 0 && call > b.failAfter
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&schema.ActivationOutcome{Success: success})
	})
	return mux
}

func newTestController(srv *httptest.Server, options ...Option) *Controller {
	options = append([]Option{WithInterval(25 * time.Millisecond)}, options...)
	return New(srv.URL+"/user", srv.URL+"/user/check-activation", options...)
}

func TestController_BeginIssuesSingleCall(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	var transitions []string
	ctrl := newTestController(srv, WithListener(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}))

	challenge, err := ctrl.Begin(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, b.beginCalls)
	assert.Equal(t, "https://kobo.example/activate", challenge.ActivationURL)
	assert.Equal(t, "ABC123", challenge.ActivationCode)
	assert.Equal(t, "xyz", challenge.CheckURL)
	assert.Equal(t, "user@example.com", challenge.Email)
	assert.Equal(t, StateAwaitingActivation, ctrl.State())
	// the instructions view is revealed exactly once
	assert.Equal(t, []string{"idle->submitting", "submitting->awaitingActivation"}, transitions)
}

func TestController_BeginEmptyIdentifier(t *testing.T) {
	ctrl := New("http://localhost:0/user", "http://localhost:0/check")
	_, err := ctrl.Begin(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestController_BeginServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	ctrl := New(srv.URL, srv.URL)
	_, err := ctrl.Begin(context.Background(), "user@example.com")
	require.Error(t, err)
	assert.Equal(t, StateFailed, ctrl.State())
}

func TestController_FirstPollSuccessHasNoDelay(t *testing.T) {
	b := &backend{failAfter: 0}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()
	ctrl := newTestController(srv, WithInterval(time.Hour))

	challenge, err := ctrl.Begin(context.Background(), "user@example.com")
	require.NoError(t, err)
	started := time.Now()
	require.NoError(t, ctrl.Wait(context.Background(), challenge))
	assert.Equal(t, 1, b.checkCalls)
	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, StateComplete, ctrl.State())
}

func TestController_PollsUntilSuccessWithSpacing(t *testing.T) {
	b := &backend{failAfter: 2}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()
	ctrl := newTestController(srv)

	challenge, err := ctrl.Begin(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.NoError(t, ctrl.Wait(context.Background(), challenge))

	assert.Equal(t, 3, b.checkCalls)
	for i := 1; i < len(b.checkTimes); i++ {
		assert.GreaterOrEqual(t, b.checkTimes[i].Sub(b.checkTimes[i-1]), 25*time.Millisecond)
	}
	assert.Equal(t, 1, b.maxInFlight, "poll calls must never overlap")
	// correlation pair travels verbatim on every poll
	assert.Equal(t, "xyz", b.lastCheck.CheckURL)
	assert.Equal(t, "user@example.com", b.lastCheck.Email)
}

func TestController_TransportFailureStopsLoop(t *testing.T) {
	b := &backend{transportErr: true}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()
	ctrl := newTestController(srv)

	challenge, err := ctrl.Begin(context.Background(), "user@example.com")
	require.NoError(t, err)
	err = ctrl.Wait(context.Background(), challenge)
	require.Error(t, err)
	assert.Equal(t, StateFailed, ctrl.State())
	calls := b.checkCalls
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, calls, b.checkCalls, "no further calls after a transport failure")
}

func TestController_MaxAttempts(t *testing.T) {
	b := &backend{failAfter: -1}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()
	ctrl := newTestController(srv, WithMaxAttempts(3))

	challenge, err := ctrl.Begin(context.Background(), "user@example.com")
	require.NoError(t, err)
	err = ctrl.Wait(context.Background(), challenge)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 3, b.checkCalls)
	assert.Equal(t, StateFailed, ctrl.State())
}

func TestController_ContextCancellation(t *testing.T) {
	b := &backend{failAfter: -1}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()
	ctrl := newTestController(srv, WithInterval(time.Hour))

	challenge, err := ctrl.Begin(context.Background(), "user@example.com")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	err = ctrl.Wait(ctx, challenge)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, ctrl.State())
}

func TestController_FinalizerRunsOnce(t *testing.T) {
	b := &backend{failAfter: 1}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()
	finalized := 0
	ctrl := newTestController(srv, WithFinalizer(func(ctx context.Context) error {
		finalized++
		return nil
	}))
	require.NoError(t, ctrl.Activate(context.Background(), "user@example.com", nil))
	assert.Equal(t, 1, finalized)
	assert.Equal(t, StateComplete, ctrl.State())
}

func TestController_Reset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	ctrl := New(srv.URL, srv.URL)
	_, err := ctrl.Begin(context.Background(), "user@example.com")
	require.Error(t, err)
	require.Equal(t, StateFailed, ctrl.State())
	ctrl.Reset()
	assert.Equal(t, StateIdle, ctrl.State())
	assert.Nil(t, ctrl.Challenge())
}

// Scenario from the observed workflow: submit, two pending polls, then a
// completed activation.
func TestController_EndToEndScenario(t *testing.T) {
	b := &backend{failAfter: 2}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	var shown *schema.ActivationChallenge
	ctrl := newTestController(srv)
	err := ctrl.Activate(context.Background(), "user@example.com", func(challenge *schema.ActivationChallenge) {
		shown = challenge
	})
	require.NoError(t, err)
	require.NotNil(t, shown)
	assert.Equal(t, "https://kobo.example/activate", shown.ActivationURL)
	assert.Equal(t, "ABC123", shown.ActivationCode)
	assert.Equal(t, 1, b.beginCalls)
	assert.Equal(t, 3, b.checkCalls)
}
