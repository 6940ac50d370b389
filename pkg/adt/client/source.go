package client

import (
	"context"
	"net/url"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

// ReadObject fetches the metadata document of a repository object.
func (c *Client) ReadObject(ctx context.Context, uri types.ObjectUri) (*codec.ObjectInfo, error) {
	resp, err := c.sess.Get(ctx, uri.String(), map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError("ReadObject", uri.String(), aerr.KindNotFound, resp)
	}
	return codec.ParseObjectInfo(resp.Body)
}

// ReadSource fetches the main source of an object. version may be
// "active", "inactive" or empty for the server default.
func (c *Client) ReadSource(ctx context.Context, uri types.ObjectUri, version string) (string, error) {
	endpoint := uri.String()
	if version != "" {
		params := url.Values{}
		params.Set("version", version)
		endpoint += "?" + params.Encode()
	}
	resp, err := c.sess.Get(ctx, endpoint, map[string]string{"Accept": "text/plain"})
	if err != nil {
		return "", err
	}
	if !isSuccess(resp.StatusCode) {
		return "", statusError("ReadSource", uri.String(), aerr.KindNotFound, resp)
	}
	return string(resp.Body), nil
}

// WriteSource PUTs new source for an object using an already-held lock.
// transport may be empty for local objects.
func (c *Client) WriteSource(ctx context.Context, uri types.ObjectUri, source string, handle types.LockHandle, transport types.TransportId) error {
	params := url.Values{}
	params.Set("lockHandle", handle.String())
	if transport != "" {
		params.Set("corrNr", transport.String())
	}
	endpoint := uri.String() + "?" + params.Encode()
	resp, err := c.sess.Put(ctx, endpoint, []byte(source), "text/plain; charset=utf-8", nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return statusError("WriteSource", uri.String(), aerr.KindInternal, resp)
	}
	return nil
}
