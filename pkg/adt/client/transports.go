package client

import (
	"context"
	"net/url"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

const transportsEndpoint = "/sap/bc/adt/cts/transportrequests"

// ListTransports fetches the modifiable transport requests, optionally
// restricted to one user.
func (c *Client) ListTransports(ctx context.Context, user string) ([]codec.TransportInfo, error) {
	endpoint := transportsEndpoint
	if user != "" {
		params := url.Values{}
		params.Set("user", user)
		endpoint += "?" + params.Encode()
	}
	resp, err := c.sess.Get(ctx, endpoint, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError("ListTransports", transportsEndpoint, aerr.KindTransportError, resp)
	}
	return codec.ParseTransportList(resp.Body)
}

// CreateTransport creates a workbench transport request and returns its
// number.
func (c *Client) CreateTransport(ctx context.Context, description string, targetPackage types.PackageName) (types.TransportId, error) {
	if description == "" {
		return "", aerr.New(aerr.KindTransportError, "CreateTransport", "transport description must not be empty")
	}
	body := codec.BuildTransportCreateXML(description, targetPackage.String())
	resp, err := c.sess.Post(ctx, transportsEndpoint, []byte(body), "text/plain", nil)
	if err != nil {
		return "", err
	}
	if !isSuccess(resp.StatusCode) {
		return "", statusError("CreateTransport", transportsEndpoint, aerr.KindTransportError, resp)
	}
	number, err := codec.ParseCreatedTransport(resp.Body)
	if err != nil {
		return "", err
	}
	return types.NewTransportId(number)
}

// ReleaseTransport releases a transport request. The release job may
// complete synchronously or via 202+Location.
func (c *Client) ReleaseTransport(ctx context.Context, number types.TransportId) error {
	endpoint := transportsEndpoint + "/" + url.PathEscape(number.String()) + "/newreleasejobs"
	resp, err := c.sess.Post(ctx, endpoint, nil, "application/xml", nil)
	if err != nil {
		return err
	}
	_, err = c.completeAsync(ctx, "ReleaseTransport", endpoint, aerr.KindTransportError, resp)
	return err
}
