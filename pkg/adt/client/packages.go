package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

const nodeStructureEndpoint = "/sap/bc/adt/repository/nodestructure"

// PackageExists probes for a package by fetching its metadata.
func (c *Client) PackageExists(ctx context.Context, pkg types.PackageName) (bool, error) {
	endpoint := "/sap/bc/adt/packages/" + url.PathEscape(pkg.String())
	resp, err := c.sess.Get(ctx, endpoint, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return false, err
	}
	switch {
	case isSuccess(resp.StatusCode):
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, statusError("PackageExists", endpoint, aerr.KindPackageError, resp)
	}
}

// CreatePackage creates a development package under $TMP.
func (c *Client) CreatePackage(ctx context.Context, pkg types.PackageName, description string) error {
	body := codec.BuildPackageCreateXML(pkg, description, "")
	resp, err := c.sess.Post(ctx, "/sap/bc/adt/packages", []byte(body), "application/xml", nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return statusError("CreatePackage", "/sap/bc/adt/packages", aerr.KindPackageError, resp)
	}
	return nil
}

// EnsurePackage creates the package when it does not exist yet, and
// reports whether it had to be created.
func (c *Client) EnsurePackage(ctx context.Context, pkg types.PackageName, description string) (created bool, err error) {
	exists, err := c.PackageExists(ctx, pkg)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := c.CreatePackage(ctx, pkg, description); err != nil {
		return false, err
	}
	return true, nil
}

// ListPackage fetches the direct contents of a package via the
// nodestructure endpoint.
func (c *Client) ListPackage(ctx context.Context, pkg types.PackageName) (*codec.PackageContent, error) {
	params := url.Values{}
	params.Set("parent_type", "DEVC/K")
	params.Set("parent_name", pkg.String())
	params.Set("withShortDescriptions", "true")
	endpoint := nodeStructureEndpoint + "?" + params.Encode()

	resp, err := c.sess.Post(ctx, endpoint, nil, "application/x-www-form-urlencoded", nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError("ListPackage", nodeStructureEndpoint, aerr.KindPackageError, resp)
	}
	return codec.ParseNodeStructure(resp.Body, pkg.String())
}

// PackageTreeNode is one package in a recursive package walk.
type PackageTreeNode struct {
	Package  string                `json:"package"`
	Objects  []codec.PackageObject `json:"objects"`
	Children []*PackageTreeNode    `json:"children,omitempty"`
}

// PackageTree walks a package hierarchy to maxDepth levels. typeFilter,
// when non-empty, keeps only objects whose type matches one entry exactly
// or by category prefix (e.g. "CLAS" matches "CLAS/OC").
func (c *Client) PackageTree(ctx context.Context, root types.PackageName, typeFilter []string, maxDepth int) (*PackageTreeNode, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return c.packageSubtree(ctx, root, typeFilter, maxDepth)
}

func (c *Client) packageSubtree(ctx context.Context, pkg types.PackageName, typeFilter []string, depth int) (*PackageTreeNode, error) {
	content, err := c.ListPackage(ctx, pkg)
	if err != nil {
		return nil, err
	}
	node := &PackageTreeNode{Package: pkg.String(), Objects: filterObjects(content.Objects, typeFilter)}
	if depth <= 1 {
		return node, nil
	}
	for _, sub := range content.SubPackages {
		subName, err := types.NewPackageName(sub)
		if err != nil {
			continue
		}
		child, err := c.packageSubtree(ctx, subName, typeFilter, depth-1)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func filterObjects(objects []codec.PackageObject, typeFilter []string) []codec.PackageObject {
	if len(typeFilter) == 0 {
		return objects
	}
	var out []codec.PackageObject
	for _, obj := range objects {
		for _, filter := range typeFilter {
			if obj.Type == filter || matchesCategory(obj.Type, filter) {
				out = append(out, obj)
				break
			}
		}
	}
	return out
}

func matchesCategory(objType, filter string) bool {
	return len(objType) > len(filter) && objType[:len(filter)] == filter && objType[len(filter)] == '/'
}
