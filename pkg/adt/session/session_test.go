package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

func newTestSession(t *testing.T, srv *httptest.Server) *HTTPSession {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	client, err := types.NewSapClient("100")
	require.NoError(t, err)
	return New(Config{
		Host:         u.Hostname(),
		Port:         port,
		Client:       client,
		User:         "DEVELOPER",
		Password:     "secret",
		PollInterval: 5 * time.Millisecond,
	})
}

func TestFetchCsrfTokenCapturesState(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fetch", r.Header.Get("x-csrf-token"))
		assert.Equal(t, "100", r.Header.Get("sap-client"))
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		w.Header().Set("x-csrf-token", "token-1")
		w.Header().Add("Set-Cookie", "SAP_SESSIONID=abc; path=/")
		w.Header().Add("Set-Cookie", "sap-usercontext=sap-client=100; path=/")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	require.NoError(t, s.FetchCsrfToken(context.Background()))
	assert.Equal(t, "token-1", s.csrfToken)
	assert.Equal(t, "SAP_SESSIONID=abc; sap-usercontext=sap-client=100", s.cookieHeader())
}

func TestFetchCsrfTokenMissingHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	err := s.FetchCsrfToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, aerr.KindCsrfToken, aerr.As(err).Kind)
}

func TestPostRetriesOnceOn403(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == CsrfFetchPath {
			w.Header().Set("x-csrf-token", "token-"+strconv.Itoa(int(calls.Load())))
			w.WriteHeader(http.StatusOK)
			return
		}
		n := calls.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		assert.NotEmpty(t, r.Header.Get("x-csrf-token"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	resp, err := s.Post(context.Background(), "/sap/bc/adt/activation", []byte("<x/>"), "application/xml", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestStatefulHeaderAndContextCapture(t *testing.T) {
	t.Parallel()

	var sawStateful atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-sap-adt-sessiontype") == "stateful" {
			sawStateful.Store(true)
		}
		w.Header().Set("sap-contextid", "ctx-42")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	s.SetStateful(true)
	require.True(t, s.IsStateful())
	_, err := s.Get(context.Background(), "/sap/bc/adt/discovery", nil)
	require.NoError(t, err)
	assert.True(t, sawStateful.Load())
	assert.Equal(t, "ctx-42", s.contextID)

	s.SetStateful(false)
	assert.False(t, s.IsStateful())
	assert.Empty(t, s.contextID)
}

func TestCallerHeadersOverrideBuiltins(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.sap.adt.repository.v1+xml", r.Header.Get("Accept"))
		assert.Equal(t, "de", r.Header.Get("Accept-Language"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	_, err := s.Get(context.Background(), "/sap/bc/adt/discovery", map[string]string{
		"Accept":          "application/vnd.sap.adt.repository.v1+xml",
		"Accept-Language": "de",
	})
	require.NoError(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	s.csrfToken = "tok"
	s.stateful = true
	s.contextID = "ctx"
	s.cookies = map[string]string{"SAP_SESSIONID": "abc"}

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, s.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	restored := newTestSession(t, srv)
	require.NoError(t, restored.Load(path))
	assert.Equal(t, "tok", restored.csrfToken)
	assert.True(t, restored.stateful)
	assert.Equal(t, "ctx", restored.contextID)
	assert.Equal(t, map[string]string{"SAP_SESSIONID": "abc"}, restored.cookies)
}

func TestPollUntilCompleteTransitions(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sap/bc/adt/activationruns/xyz", r.URL.Path)
		if polls.Add(1) < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<done/>"))
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	result, err := s.PollUntilComplete(context.Background(), srv.URL+"/sap/bc/adt/activationruns/xyz", time.Second)
	require.NoError(t, err)
	assert.Equal(t, PollCompleted, result.Status)
	assert.Equal(t, []byte("<done/>"), result.Body)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestPollUntilCompleteTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	result, err := s.PollUntilComplete(context.Background(), "/sap/bc/adt/activationruns/xyz", 30*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, aerr.KindTimeout, aerr.As(err).Kind)
	require.NotNil(t, result)
	assert.Equal(t, PollRunning, result.Status)
}

func TestPollUntilCompleteFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<error/>"))
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	result, err := s.PollUntilComplete(context.Background(), "/sap/bc/adt/activationruns/xyz", time.Second)
	require.NoError(t, err)
	assert.Equal(t, PollFailed, result.Status)
	assert.Equal(t, []byte("<error/>"), result.Body)
}
