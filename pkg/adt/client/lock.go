package client

import (
	"context"
	"net/url"
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
	"github.com/erpl/erpl-adt/pkg/logger"
)

// Lock acquires a MODIFY lock on the object. The caller must have put the
// session into stateful mode first (LockGuard does this).
func (c *Client) Lock(ctx context.Context, uri types.ObjectUri) (*codec.LockInfo, error) {
	params := url.Values{}
	params.Set("_action", "LOCK")
	params.Set("accessMode", "MODIFY")
	endpoint := uri.String() + "?" + params.Encode()

	resp, err := c.sess.Post(ctx, endpoint, nil, "", map[string]string{"Accept": codec.LockAccept})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError("LockObject", uri.String(), aerr.KindLockConflict, resp)
	}
	return codec.ParseLockResponse(resp.Body, resp.Header)
}

// Unlock releases a previously acquired lock. 200 and 204 are accepted.
func (c *Client) Unlock(ctx context.Context, uri types.ObjectUri, handle types.LockHandle) error {
	params := url.Values{}
	params.Set("_action", "UNLOCK")
	params.Set("lockHandle", handle.String())
	endpoint := uri.String() + "?" + params.Encode()

	resp, err := c.sess.Post(ctx, endpoint, nil, "", nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return statusError("UnlockObject", uri.String(), aerr.KindLockConflict, resp)
	}
	return nil
}

// LockGuard owns one acquired lock. It is move-only by convention: exactly
// one Release must run on every terminating path, usually via defer.
// Release is idempotent, so an early explicit release plus the deferred
// one is safe.
type LockGuard struct {
	client   *Client
	uri      types.ObjectUri
	info     *codec.LockInfo
	released bool
}

// AcquireLock switches the session to stateful mode and locks the object.
// On lock failure the session is switched back before returning.
func (c *Client) AcquireLock(ctx context.Context, uri types.ObjectUri) (*LockGuard, error) {
	c.sess.SetStateful(true)
	info, err := c.Lock(ctx, uri)
	if err != nil {
		c.sess.SetStateful(false)
		return nil, err
	}
	return &LockGuard{client: c, uri: uri, info: info}, nil
}

// Info returns the lock response (handle, transport fields).
func (g *LockGuard) Info() *codec.LockInfo {
	return g.info
}

// Handle returns the lock handle.
func (g *LockGuard) Handle() types.LockHandle {
	return types.LockHandle(g.info.Handle)
}

// Release unlocks the object and switches the session back to stateless
// mode. Unlock failures are logged, not returned: cleanup must never mask
// the primary error of the surrounding operation.
func (g *LockGuard) Release(ctx context.Context) {
	if g == nil || g.released {
		return
	}
	g.released = true
	if err := g.client.Unlock(ctx, g.uri, g.Handle()); err != nil {
		logger.Warnf("releasing lock on %s failed: %v", g.uri, err)
	}
	g.client.sess.SetStateful(false)
}

// ObjectURIFromSource derives the object URI from a source URI by
// stripping the trailing /source/... segment.
func ObjectURIFromSource(sourceURI types.ObjectUri) (types.ObjectUri, error) {
	s := sourceURI.String()
	if idx := strings.Index(s, "/source/"); idx > 0 {
		return types.NewObjectUri(s[:idx])
	}
	return sourceURI, nil
}

// WriteSourceAutoLock performs the full edit dance for a source URI of the
// form .../source/main: derive the object URI, lock it, write, and release
// the lock on every exit path. It returns the object URI that was locked.
func (c *Client) WriteSourceAutoLock(ctx context.Context, sourceURI types.ObjectUri, source string, transport types.TransportId) (types.ObjectUri, error) {
	objectURI, err := ObjectURIFromSource(sourceURI)
	if err != nil {
		return "", err
	}
	guard, err := c.AcquireLock(ctx, objectURI)
	if err != nil {
		return "", err
	}
	defer guard.Release(ctx)

	if err := c.WriteSource(ctx, sourceURI, source, guard.Handle(), transport); err != nil {
		return "", err
	}
	return objectURI, nil
}

// DeleteObjectAutoLock locks an object, deletes it, and releases the lock
// if the delete did not already consume it. A delete that succeeds removes
// the lock with the object, so the trailing unlock is best-effort by
// design of LockGuard.
func (c *Client) DeleteObjectAutoLock(ctx context.Context, uri types.ObjectUri, transport types.TransportId) error {
	guard, err := c.AcquireLock(ctx, uri)
	if err != nil {
		return err
	}
	defer guard.Release(ctx)
	return c.DeleteObject(ctx, uri, guard.Handle(), transport)
}
