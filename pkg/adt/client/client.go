// Package client implements the high-level ADT operations on top of the
// session kernel: repository search, source round-tripping, the lock/edit
// protocol, abapGit workflows, activation, unit tests, quality checks,
// transports and DDIC reads.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/session"
)

// DefaultAsyncTimeout bounds the poll phase of long-running operations.
const DefaultAsyncTimeout = 5 * time.Minute

// Client exposes the ADT operations. All calls go through one Session and
// inherit its state; the client itself holds no mutable state besides the
// configured timeout.
type Client struct {
	sess         session.Session
	asyncTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithAsyncTimeout overrides the poll deadline for long-running operations.
func WithAsyncTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.asyncTimeout = d
		}
	}
}

// New creates a client over the given session.
func New(sess session.Session, opts ...Option) *Client {
	c := &Client{sess: sess, asyncTimeout: DefaultAsyncTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the underlying session, e.g. for persistence.
func (c *Client) Session() session.Session {
	return c.sess
}

// statusError translates a non-success response into a typed error:
// 401 is Authentication, 404 NotFound, 409/423 LockConflict, everything
// else takes the operation's own kind. The SAP short text is extracted
// from the body when present.
func statusError(operation, endpoint string, kind aerr.Kind, resp *session.Response) error {
	mapped := kind
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		mapped = aerr.KindAuthentication
	case http.StatusNotFound:
		mapped = aerr.KindNotFound
	case http.StatusConflict, http.StatusLocked:
		mapped = aerr.KindLockConflict
	}
	return aerr.New(mapped, operation, fmt.Sprintf("unexpected status %d", resp.StatusCode)).
		WithEndpoint(endpoint).
		WithStatus(resp.StatusCode).
		WithSAPError(codec.ExtractSAPError(resp.Body))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// completeAsync finishes the 202+Location protocol for an already-issued
// mutation. 200 and 201 are synchronous completions; a 202 without a
// Location header is Internal; polling failures and timeouts are mapped to
// the operation's kind and Timeout respectively.
func (c *Client) completeAsync(ctx context.Context, operation, endpoint string, kind aerr.Kind, resp *session.Response) ([]byte, error) {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return resp.Body, nil
	case http.StatusAccepted:
		location := resp.Header.Get("Location")
		if location == "" {
			return nil, aerr.New(aerr.KindInternal, operation, "202 response carries no Location header").
				WithEndpoint(endpoint).WithStatus(resp.StatusCode)
		}
		result, err := c.sess.PollUntilComplete(ctx, location, c.asyncTimeout)
		if err != nil {
			if e := aerr.As(err); e != nil && e.Kind == aerr.KindTimeout {
				e.Operation = operation
				return nil, e
			}
			return nil, err
		}
		if result.Status == session.PollFailed {
			return nil, aerr.New(kind, operation, "asynchronous operation failed").
				WithEndpoint(location).
				WithSAPError(codec.ExtractSAPError(result.Body))
		}
		return result.Body, nil
	default:
		return nil, statusError(operation, endpoint, kind, resp)
	}
}
