package client

import (
	"context"
	"net/url"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

// CreateObject creates a new repository object in the given package.
func (c *Client) CreateObject(ctx context.Context, objectType types.ObjectType, name string, pkg types.PackageName, description string, transport types.TransportId) error {
	endpoint, err := codec.CreateEndpoint(objectType)
	if err != nil {
		return err
	}
	body, err := codec.BuildObjectCreateXML(objectType, name, pkg, description)
	if err != nil {
		return err
	}
	if transport != "" {
		params := url.Values{}
		params.Set("corrNr", transport.String())
		endpoint += "?" + params.Encode()
	}
	resp, err := c.sess.Post(ctx, endpoint, []byte(body), "application/xml", nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return statusError("CreateObject", endpoint, aerr.KindInternal, resp)
	}
	return nil
}

// DeleteObject deletes a repository object using an already-held lock.
func (c *Client) DeleteObject(ctx context.Context, uri types.ObjectUri, handle types.LockHandle, transport types.TransportId) error {
	params := url.Values{}
	params.Set("lockHandle", handle.String())
	if transport != "" {
		params.Set("corrNr", transport.String())
	}
	endpoint := uri.String() + "?" + params.Encode()
	resp, err := c.sess.Delete(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return statusError("DeleteObject", uri.String(), aerr.KindInternal, resp)
	}
	return nil
}
