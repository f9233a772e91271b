package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/mem"
	"github.com/viant/kobodl/client"
	"github.com/viant/kobodl/schema"
	"github.com/viant/kobodl/settings"
)

// fakeKobo imitates the Kobo hosts the activation handlers call out to.
type fakeKobo struct {
	mux       sync.Mutex
	server    *httptest.Server
	completed bool
	polls     int
}

func newFakeKobo(t *testing.T) *fakeKobo {
	t.Helper()
	ret := &fakeKobo{}
	router := http.NewServeMux()
	router.HandleFunc("/ActivateOnWeb", func(w http.ResponseWriter, r *http.Request) {
		page := `<div data-poll-endpoint="/activation/check?key=abc"></div>
<img src='https://auth.kobobooks.com/qrcodegenerator/generate?d=x%26code%3D654321'/>`
		_, _ = w.Write([]byte(page))
	})
	router.HandleFunc("/activation/check", func(w http.ResponseWriter, r *http.Request) {
		ret.mux.Lock()
		defer ret.mux.Unlock()
		ret.polls++
		state := &schema.ActivationPollState{Status: "Pending"}
		if ret.completed {
			state = &schema.ActivationPollState{
				Status:    schema.ActivationStatusComplete,
				UserEmail: "reader@example.com",
				UserId:    "user-id-1",
				UserKey:   "user-key-1",
			}
		}
		_ = json.NewEncoder(w).Encode(state)
	})
	router.HandleFunc("/v1/auth/device", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(&schema.AuthResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    schema.TokenTypeBearer,
			UserKey:      "user-key-1",
		})
	})
	router.HandleFunc("/v1/initialization", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(&schema.InitializationResponse{Resources: map[string]string{}})
	})
	ret.server = httptest.NewServer(router)
	t.Cleanup(ret.server.Close)
	return ret
}

var testCounter int

func newTestServer(t *testing.T, kobo *fakeKobo) (*Server, *settings.Service) {
	t.Helper()
	testCounter++
	service, err := settings.New(context.Background(), fmt.Sprintf("mem://localhost/settings-%d.json", testCounter))
	require.NoError(t, err)
	srv, err := New(
		WithSettings(service),
		WithOutputDir(t.TempDir()),
		WithClientOptions(
			client.WithStoreURL(kobo.server.URL),
			client.WithAuthURL(kobo.server.URL),
		),
	)
	require.NoError(t, err)
	return srv, service
}

func TestServer_IndexRedirect(t *testing.T) {
	srv, _ := newTestServer(t, newFakeKobo(t))
	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/user", recorder.Header().Get("Location"))
}

func TestServer_BeginActivation(t *testing.T) {
	kobo := newFakeKobo(t)
	srv, _ := newTestServer(t, kobo)

	request := httptest.NewRequest(http.MethodPost, "/user", strings.NewReader("email=reader@example.com"))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	challenge := &schema.ActivationChallenge{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), challenge))
	assert.Equal(t, "https://www.kobo.com/activate", challenge.ActivationURL)
	assert.Equal(t, "654321", challenge.ActivationCode)
	assert.Equal(t, kobo.server.URL+"/activation/check?key=abc", challenge.CheckURL)
	assert.Equal(t, "reader@example.com", challenge.Email)
}

func TestServer_BeginActivationMissingEmail(t *testing.T) {
	srv, _ := newTestServer(t, newFakeKobo(t))

	request := httptest.NewRequest(http.MethodPost, "/user", strings.NewReader(""))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, request)

	// the page is re-rendered with an inline error
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, recorder.Body.String(), "email is required")
}

func checkActivation(t *testing.T, srv *Server, payload string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/user/check-activation", strings.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, request)
	return recorder
}

func TestServer_CheckActivationMissingParameters(t *testing.T) {
	srv, _ := newTestServer(t, newFakeKobo(t))
	recorder := checkActivation(t, srv, `{"email":"reader@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	failure := map[string]string{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &failure))
	assert.NotEmpty(t, failure["error"])
}

func TestServer_CheckActivationPending(t *testing.T) {
	kobo := newFakeKobo(t)
	srv, service := newTestServer(t, kobo)

	payload := fmt.Sprintf(`{"check_url":%q,"email":"reader@example.com"}`, kobo.server.URL+"/activation/check?key=abc")
	recorder := checkActivation(t, srv, payload)

	require.Equal(t, http.StatusOK, recorder.Code)
	outcome := &schema.ActivationOutcome{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), outcome))
	assert.False(t, outcome.Success)
	assert.Zero(t, service.Users.Len())
}

func TestServer_CheckActivationCompletes(t *testing.T) {
	kobo := newFakeKobo(t)
	kobo.completed = true
	srv, service := newTestServer(t, kobo)

	payload := fmt.Sprintf(`{"check_url":%q,"email":"reader@example.com"}`, kobo.server.URL+"/activation/check?key=abc")
	recorder := checkActivation(t, srv, payload)

	require.Equal(t, http.StatusOK, recorder.Code)
	outcome := &schema.ActivationOutcome{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), outcome))
	assert.True(t, outcome.Success)

	user := service.Users.Lookup("reader@example.com")
	require.NotNil(t, user)
	assert.Equal(t, "user-id-1", user.UserId)
	assert.True(t, user.IsAuthenticated())

	// the user survives a settings reload
	require.NoError(t, service.Load(context.Background()))
	assert.NotNil(t, service.Users.Lookup("reader@example.com"))
}

func TestServer_ConcurrentActivationsAndRenders(t *testing.T) {
	kobo := newFakeKobo(t)
	kobo.completed = true
	srv, service := newTestServer(t, kobo)
	router := srv.Router()

	payload := fmt.Sprintf(`{"check_url":%q,"email":"reader@example.com"}`, kobo.server.URL+"/activation/check?key=abc")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			request := httptest.NewRequest(http.MethodPost, "/user/check-activation", strings.NewReader(payload))
			request.Header.Set("Content-Type", "application/json")
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, request)
			assert.Equal(t, http.StatusOK, recorder.Code)
		}()
		go func() {
			defer wg.Done()
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/user", nil))
			assert.Equal(t, http.StatusOK, recorder.Code)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, service.Users.Len())
}

func TestServer_CheckActivationBackendFailure(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	srv, _ := newTestServer(t, newFakeKobo(t))

	payload := fmt.Sprintf(`{"check_url":%q,"email":"reader@example.com"}`, failing.URL+"/check")
	recorder := checkActivation(t, srv, payload)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestServer_RemoveUser(t *testing.T) {
	srv, service := newTestServer(t, newFakeKobo(t))
	service.Users.Add(&settings.User{Email: "reader@example.com", UserId: "user-id-1"})

	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/user/user-id-1/remove", nil))
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Zero(t, service.Users.Len())

	recorder = httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/user/unknown/remove", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestServer_UsersPage(t *testing.T) {
	srv, service := newTestServer(t, newFakeKobo(t))
	service.Users.Add(&settings.User{Email: "reader@example.com", UserId: "user-id-1", DeviceId: "device-1"})

	recorder := httptest.NewRecorder()
	srv.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/user", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "reader@example.com")
	assert.Contains(t, recorder.Body.String(), "/user/user-id-1/book")
}
