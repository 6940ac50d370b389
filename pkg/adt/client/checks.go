package client

import (
	"context"
	"net/url"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

const (
	testRunsEndpoint  = "/sap/bc/adt/abapunit/testruns"
	checkRunsEndpoint = "/sap/bc/adt/checkruns"
)

// RunUnitTests executes the unit tests of one object.
func (c *Client) RunUnitTests(ctx context.Context, uri types.ObjectUri) (*codec.TestRunResult, error) {
	body := codec.BuildTestRunXML(uri.String())
	resp, err := c.sess.Post(ctx, testRunsEndpoint, []byte(body),
		"application/vnd.sap.adt.abapunit.testruns.config.v4+xml",
		map[string]string{"Accept": "application/vnd.sap.adt.abapunit.testruns.result.v1+xml"})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError("RunUnitTests", testRunsEndpoint, aerr.KindTestFailure, resp)
	}
	return codec.ParseTestRunResult(resp.Body)
}

// RunATC runs the ABAP Test Cockpit checks for one object. variant may be
// empty for the system default check variant.
func (c *Client) RunATC(ctx context.Context, uri types.ObjectUri, variant types.CheckVariant) (*codec.CheckRunResult, error) {
	return c.runCheck(ctx, "RunATC", uri, "abapCheckRun", variant.String())
}

// CheckSyntax runs the syntax check reporter for one object.
func (c *Client) CheckSyntax(ctx context.Context, uri types.ObjectUri) (*codec.CheckRunResult, error) {
	return c.runCheck(ctx, "CheckSyntax", uri, "abapSyntaxCheck", "")
}

func (c *Client) runCheck(ctx context.Context, operation string, uri types.ObjectUri, reporter, variant string) (*codec.CheckRunResult, error) {
	params := url.Values{}
	params.Set("reporters", reporter)
	endpoint := checkRunsEndpoint + "?" + params.Encode()

	body := codec.BuildCheckRunXML(uri.String(), variant)
	resp, err := c.sess.Post(ctx, endpoint, []byte(body),
		"application/vnd.sap.adt.checkobjects+xml",
		map[string]string{"Accept": "application/vnd.sap.adt.checkmessages+xml"})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError(operation, checkRunsEndpoint, aerr.KindCheckError, resp)
	}
	return codec.ParseCheckRunResult(resp.Body)
}
