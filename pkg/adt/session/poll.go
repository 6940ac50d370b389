package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

// errStillRunning marks a 202 poll response so the backoff loop retries.
var errStillRunning = errors.New("operation still running")

// PollUntilComplete implements the 202+Location protocol: GET the location
// at a fixed cadence until the server answers something other than 202, or
// the wall-clock timeout expires. 200 is Completed, any other terminal
// status is Failed with the body kept for diagnostics. On timeout the
// result status is Running and the returned error has kind Timeout.
func (s *HTTPSession) PollUntilComplete(ctx context.Context, location string, timeout time.Duration) (*PollResult, error) {
	path := s.relativize(location)
	start := time.Now()

	operation := func() (*PollResult, error) {
		resp, err := s.Get(ctx, path, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		switch resp.StatusCode {
		case http.StatusOK:
			return &PollResult{Status: PollCompleted, Body: resp.Body}, nil
		case http.StatusAccepted:
			return nil, errStillRunning
		default:
			return &PollResult{Status: PollFailed, Body: resp.Body}, nil
		}
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.cfg.PollInterval)),
		backoff.WithMaxElapsedTime(timeout),
	)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, errStillRunning) || errors.Is(err, context.DeadlineExceeded) {
			return &PollResult{Status: PollRunning, Elapsed: elapsed},
				aerr.New(aerr.KindTimeout, "Poll",
					fmt.Sprintf("operation still running after %s", timeout)).
					WithEndpoint(path)
		}
		return nil, err
	}
	result.Elapsed = elapsed
	return result, nil
}

// relativize strips the session base URL (or any absolute prefix) off a
// Location header so it can be re-issued through the session.
func (s *HTTPSession) relativize(location string) string {
	if strings.HasPrefix(location, s.BaseURL()) {
		return strings.TrimPrefix(location, s.BaseURL())
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if u, err := url.Parse(location); err == nil {
			path := u.Path
			if u.RawQuery != "" {
				path += "?" + u.RawQuery
			}
			return path
		}
	}
	return location
}
