package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/session"
)

const searchEndpoint = "/sap/bc/adt/repository/informationsystem/search"

// Search runs a quick search over the repository information system. The
// query supports * and ? wildcards; an empty query is a validation error.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]codec.SearchResult, error) {
	if query == "" {
		return nil, aerr.New(aerr.KindInternal, "Search", "search query must not be empty")
	}
	if maxResults <= 0 {
		maxResults = 100
	}
	params := url.Values{}
	params.Set("operation", "quickSearch")
	params.Set("query", query)
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))

	endpoint := searchEndpoint + "?" + params.Encode()
	resp, err := c.sess.Get(ctx, endpoint, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError("Search", searchEndpoint, aerr.KindInternal, resp)
	}
	return codec.ParseSearchResults(resp.Body)
}

// Discover fetches the ADT discovery document and the capability flags
// derived from it.
func (c *Client) Discover(ctx context.Context) (*codec.DiscoveryInfo, error) {
	resp, err := c.sess.Get(ctx, session.CsrfFetchPath, map[string]string{"Accept": "application/atomsvc+xml"})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError("Discover", session.CsrfFetchPath, aerr.KindConnection, resp)
	}
	return codec.ParseDiscovery(resp.Body)
}
