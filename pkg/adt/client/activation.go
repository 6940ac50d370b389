package client

import (
	"context"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

const (
	activationEndpoint      = "/sap/bc/adt/activation?method=activate"
	inactiveObjectsEndpoint = "/sap/bc/adt/activation/inactiveobjects"
)

// ListInactiveObjects fetches the objects still waiting for activation in
// the given package (all packages when empty).
func (c *Client) ListInactiveObjects(ctx context.Context) ([]codec.ObjectRef, error) {
	resp, err := c.sess.Get(ctx, inactiveObjectsEndpoint, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError("ListInactiveObjects", inactiveObjectsEndpoint, aerr.KindActivationError, resp)
	}
	return codec.ParseInactiveObjects(resp.Body)
}

// Activate runs a mass activation over the given object references. The
// endpoint may answer synchronously or via 202+Location.
func (c *Client) Activate(ctx context.Context, objects []codec.ObjectRef) (*codec.ActivationResult, error) {
	if len(objects) == 0 {
		return &codec.ActivationResult{}, nil
	}
	body := codec.BuildActivationXML(objects)
	resp, err := c.sess.Post(ctx, activationEndpoint, []byte(body), "application/xml", nil)
	if err != nil {
		return nil, err
	}
	data, err := c.completeAsync(ctx, "Activate", activationEndpoint, aerr.KindActivationError, resp)
	if err != nil {
		return nil, err
	}
	return codec.ParseActivationResult(data)
}

// ActivateObject activates a single object by URI.
func (c *Client) ActivateObject(ctx context.Context, uri types.ObjectUri, objectType types.ObjectType, name string) (*codec.ActivationResult, error) {
	return c.Activate(ctx, []codec.ObjectRef{{Type: objectType.String(), Name: name, URI: uri.String()}})
}

// ActivateInactive activates everything that is currently inactive.
// Returns nil result when nothing was pending.
func (c *Client) ActivateInactive(ctx context.Context) (*codec.ActivationResult, []codec.ObjectRef, error) {
	pending, err := c.ListInactiveObjects(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(pending) == 0 {
		return nil, nil, nil
	}
	result, err := c.Activate(ctx, pending)
	if err != nil {
		return nil, pending, err
	}
	return result, pending, nil
}
