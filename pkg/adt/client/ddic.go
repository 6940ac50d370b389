package client

import (
	"context"
	"net/url"
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

// ReadTable fetches the definition of a database table.
func (c *Client) ReadTable(ctx context.Context, tableName string) (string, error) {
	if tableName == "" {
		return "", aerr.New(aerr.KindInternal, "ReadTable", "table name must not be empty")
	}
	endpoint := "/sap/bc/adt/ddic/tables/" + url.PathEscape(strings.ToUpper(tableName)) + "/source/main"
	resp, err := c.sess.Get(ctx, endpoint, map[string]string{"Accept": "text/plain"})
	if err != nil {
		return "", err
	}
	if !isSuccess(resp.StatusCode) {
		return "", statusError("ReadTable", endpoint, aerr.KindNotFound, resp)
	}
	return string(resp.Body), nil
}

// ReadCDS fetches the DDL source of a CDS view.
func (c *Client) ReadCDS(ctx context.Context, cdsName string) (string, error) {
	if cdsName == "" {
		return "", aerr.New(aerr.KindInternal, "ReadCDS", "CDS name must not be empty")
	}
	endpoint := "/sap/bc/adt/ddic/ddl/sources/" + url.PathEscape(strings.ToUpper(cdsName)) + "/source/main"
	resp, err := c.sess.Get(ctx, endpoint, map[string]string{"Accept": "text/plain"})
	if err != nil {
		return "", err
	}
	if !isSuccess(resp.StatusCode) {
		return "", statusError("ReadCDS", endpoint, aerr.KindNotFound, resp)
	}
	return string(resp.Body), nil
}
