// Package session implements the stateful HTTP session against the SAP
// ADT and BW REST surfaces. It layers CSRF token lifecycle, session cookie
// capture, stateful/stateless mode switching and redactive logging on top
// of a plain http.Client, and provides the 202+Location polling protocol
// used by all long-running operations.
package session

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/types"
	"github.com/erpl/erpl-adt/pkg/logger"
)

const (
	// CsrfFetchPath is the discovery endpoint used to obtain a CSRF token.
	CsrfFetchPath = "/sap/bc/adt/discovery"

	// statefulHeader marks a request as belonging to a stateful edit session.
	statefulHeader = "X-sap-adt-sessiontype"

	// contextIDHeader carries the server-side session context identifier.
	contextIDHeader = "sap-contextid"

	// maxLoggedBody caps error-response body logging at 2 KiB.
	maxLoggedBody = 2048
)

// redactedHeaders are never logged verbatim.
var redactedHeaders = map[string]bool{
	"cookie":        true,
	"authorization": true,
	"sap-contextid": true,
	"x-csrf-token":  true,
}

// Response is the uniform HTTP response surfaced to callers. Header lookup
// is case-insensitive via http.Header.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// PollStatus is the terminal state of an asynchronous operation.
type PollStatus string

// Poll statuses.
const (
	PollCompleted PollStatus = "completed"
	PollRunning   PollStatus = "running"
	PollFailed    PollStatus = "failed"
)

// PollResult is the outcome of polling a Location URL to completion.
type PollResult struct {
	Status  PollStatus
	Body    []byte
	Elapsed time.Duration
}

// Session is the contract every ADT/BW operation talks through. Concrete
// sessions perform network I/O; tests inject queue-backed fakes.
type Session interface {
	Get(ctx context.Context, path string, headers map[string]string) (*Response, error)
	Post(ctx context.Context, path string, body []byte, contentType string, headers map[string]string) (*Response, error)
	Put(ctx context.Context, path string, body []byte, contentType string, headers map[string]string) (*Response, error)
	Delete(ctx context.Context, path string, headers map[string]string) (*Response, error)

	FetchCsrfToken(ctx context.Context) error
	SetStateful(stateful bool)
	IsStateful() bool

	PollUntilComplete(ctx context.Context, location string, timeout time.Duration) (*PollResult, error)

	Save(path string) error
	Load(path string) error
}

// Config holds the connection parameters for an HTTP session.
type Config struct {
	Host     string
	Port     int
	UseHTTPS bool
	Insecure bool
	Client   types.SapClient
	User     string
	Password string
	Timeout  time.Duration
	// PollInterval is the cadence of the async poll loop. Defaults to one
	// second when zero.
	PollInterval time.Duration
}

// HTTPSession is the concrete Session. It is not safe for concurrent use:
// SAP stateful sessions are pinned to one CSRF token and cookie set, so
// callers serialize access (the MCP server guards it with a mutex).
type HTTPSession struct {
	cfg    Config
	client *http.Client

	csrfToken string
	stateful  bool
	contextID string
	cookies   map[string]string
}

var _ Session = (*HTTPSession)(nil)

// New creates an HTTP session from the given configuration. No network
// call happens until the first request.
func New(cfg Config) *HTTPSession {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	transport := &http.Transport{}
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 - explicit user opt-in
	}
	return &HTTPSession{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout, Transport: transport},
		cookies: map[string]string{},
	}
}

// BaseURL returns the scheme://host:port prefix of the session.
func (s *HTTPSession) BaseURL() string {
	scheme := "http"
	if s.cfg.UseHTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.cfg.Host, s.cfg.Port)
}

// Get issues a GET. A 403 response triggers one CSRF re-fetch and retry.
func (s *HTTPSession) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return s.doWithRetry(ctx, http.MethodGet, path, nil, "", headers)
}

// Post ensures a CSRF token is present, then issues a POST. A 403 response
// triggers one CSRF re-fetch and retry.
func (s *HTTPSession) Post(ctx context.Context, path string, body []byte, contentType string, headers map[string]string) (*Response, error) {
	if err := s.ensureCsrfToken(ctx); err != nil {
		return nil, err
	}
	return s.doWithRetry(ctx, http.MethodPost, path, body, contentType, headers)
}

// Put ensures a CSRF token is present, then issues a PUT with the same 403
// retry contract as Post.
func (s *HTTPSession) Put(ctx context.Context, path string, body []byte, contentType string, headers map[string]string) (*Response, error) {
	if err := s.ensureCsrfToken(ctx); err != nil {
		return nil, err
	}
	return s.doWithRetry(ctx, http.MethodPut, path, body, contentType, headers)
}

// Delete ensures a CSRF token is present, then issues a DELETE with the
// same 403 retry contract as Post.
func (s *HTTPSession) Delete(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	if err := s.ensureCsrfToken(ctx); err != nil {
		return nil, err
	}
	return s.doWithRetry(ctx, http.MethodDelete, path, nil, "", headers)
}

// FetchCsrfToken issues the token-fetch GET against the discovery endpoint
// and captures the token, cookies and context id from the response.
func (s *HTTPSession) FetchCsrfToken(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodGet, CsrfFetchPath, nil, "", map[string]string{
		"x-csrf-token": "fetch",
		"Accept":       "application/atomsvc+xml",
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return aerr.New(aerr.KindCsrfToken, "FetchCsrfToken",
			fmt.Sprintf("token fetch returned status %d", resp.StatusCode)).
			WithEndpoint(CsrfFetchPath).WithStatus(resp.StatusCode)
	}
	token := resp.Header.Get("x-csrf-token")
	if token == "" {
		return aerr.New(aerr.KindCsrfToken, "FetchCsrfToken", "response carries no x-csrf-token header").
			WithEndpoint(CsrfFetchPath).WithStatus(resp.StatusCode)
	}
	s.csrfToken = token
	return nil
}

// SetStateful switches the session mode. Disabling clears the captured
// context id so a later stateful phase starts fresh.
func (s *HTTPSession) SetStateful(stateful bool) {
	s.stateful = stateful
	if !stateful {
		s.contextID = ""
	}
}

// IsStateful reports the current session mode.
func (s *HTTPSession) IsStateful() bool {
	return s.stateful
}

func (s *HTTPSession) ensureCsrfToken(ctx context.Context) error {
	if s.csrfToken != "" {
		return nil
	}
	return s.FetchCsrfToken(ctx)
}

// doWithRetry runs the request once and, on a 403, refreshes the CSRF
// token and retries exactly once. A second 403 propagates to the caller.
func (s *HTTPSession) doWithRetry(ctx context.Context, method, path string, body []byte, contentType string, headers map[string]string) (*Response, error) {
	resp, err := s.do(ctx, method, path, body, contentType, headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusForbidden {
		logger.Debugf("%s %s returned 403, refreshing CSRF token and retrying", method, path)
		s.csrfToken = ""
		if err := s.FetchCsrfToken(ctx); err != nil {
			return nil, err
		}
		return s.do(ctx, method, path, body, contentType, headers)
	}
	return resp, nil
}

func (s *HTTPSession) do(ctx context.Context, method, path string, body []byte, contentType string, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL()+path, reader)
	if err != nil {
		return nil, aerr.Wrap(aerr.KindInternal, method, "building request", err).WithEndpoint(path)
	}
	req.SetBasicAuth(s.cfg.User, s.cfg.Password)
	req.Header.Set("sap-client", s.cfg.Client.String())
	req.Header.Set("Accept-Language", "en")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.csrfToken != "" {
		req.Header.Set("x-csrf-token", s.csrfToken)
	}
	if cookie := s.cookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if s.stateful {
		req.Header.Set(statefulHeader, "stateful")
	}
	// Caller headers override the built-ins on duplicate keys.
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Infof("%s %s", method, path)
	logHeaders("request", req.Header)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, aerr.Wrap(aerr.KindTimeout, method, "request timed out", err).WithEndpoint(path)
		}
		return nil, aerr.Wrap(aerr.KindConnection, method, "request failed", err).WithEndpoint(path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, aerr.Wrap(aerr.KindConnection, method, "reading response body", err).WithEndpoint(path)
	}

	logHeaders("response", resp.Header)
	if resp.StatusCode >= http.StatusBadRequest {
		logged := data
		if len(logged) > maxLoggedBody {
			logged = logged[:maxLoggedBody]
		}
		logger.Debugw("error response body", "status", resp.StatusCode, "body", string(logged))
	}

	s.capture(resp.Header)
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// capture stores every Set-Cookie value and, in stateful mode, the
// sap-contextid into the session state.
func (s *HTTPSession) capture(h http.Header) {
	for _, sc := range h.Values("Set-Cookie") {
		pair, _, _ := strings.Cut(sc, ";")
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		s.cookies[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	if s.stateful {
		if id := h.Get(contextIDHeader); id != "" {
			s.contextID = id
		}
	}
}

// cookieHeader renders the jar sorted by name so requests are
// deterministic and testable.
func (s *HTTPSession) cookieHeader() string {
	if len(s.cookies) == 0 {
		return ""
	}
	names := make([]string, 0, len(s.cookies))
	for name := range s.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+s.cookies[name])
	}
	return strings.Join(parts, "; ")
}

func logHeaders(direction string, h http.Header) {
	for name, values := range h {
		v := strings.Join(values, ", ")
		if redactedHeaders[strings.ToLower(name)] {
			v = "<redacted>"
		}
		logger.Debugw(direction+" header", "name", name, "value", v)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
