package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

// jsonText renders the result as one text content item carrying JSON.
func jsonText(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(`{"error":{"message":%q,"exit_code":99}}`, err.Error())), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError renders an operation failure as an error JSON payload.
func toolError(err error) (*mcp.CallToolResult, error) {
	payload := map[string]any{
		"error": map[string]any{
			"message":   err.Error(),
			"exit_code": aerr.ExitCode(err),
		},
	}
	if e := aerr.As(err); e != nil && e.SAPError != "" {
		payload["error"].(map[string]any)["sap_error"] = e.SAPError
	}
	data, merr := json.Marshal(payload)
	if merr != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultError(string(data)), nil
}

func missingParam(name string) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(`{"error":{"message":"parameter %s is required","exit_code":99}}`, name)), nil
}

func badArguments(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(`{"error":{"message":"invalid arguments: %s","exit_code":99}}`,
		strings.ReplaceAll(err.Error(), `"`, `'`))), nil
}

func (h *handler) search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Query string `json:"query"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	if args.Query == "" {
		return missingParam("query")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	results, err := h.backend.Search(ctx, args.Query, 50)
	if err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"query": args.Query, "results": results})
}

func (h *handler) readObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		URI string `json:"uri"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	uri, err := types.NewObjectUri(args.URI)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	info, err := h.backend.ReadObject(ctx, uri)
	if err != nil {
		return toolError(err)
	}
	return jsonText(info)
}

func (h *handler) readSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		URI     string `json:"uri"`
		Version string `json:"version,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	uri, err := types.NewObjectUri(args.URI)
	if err != nil {
		return toolError(err)
	}
	if args.Version == "" {
		args.Version = "active"
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	source, err := h.backend.ReadSource(ctx, uri, args.Version)
	if err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"uri": args.URI, "version": args.Version, "source": source})
}

func (h *handler) checkSyntax(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		URI string `json:"uri"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	uri, err := types.NewObjectUri(args.URI)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := h.backend.CheckSyntax(ctx, uri)
	if err != nil {
		return toolError(err)
	}
	return jsonText(result)
}

func (h *handler) runTests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		URI string `json:"uri"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	uri, err := types.NewObjectUri(args.URI)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := h.backend.RunUnitTests(ctx, uri)
	if err != nil {
		return toolError(err)
	}
	return jsonText(result)
}

func (h *handler) runATC(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		URI          string `json:"uri"`
		CheckVariant string `json:"check_variant,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	uri, err := types.NewObjectUri(args.URI)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	result, err := h.backend.RunATC(ctx, uri, types.CheckVariant(args.CheckVariant))
	if err != nil {
		return toolError(err)
	}
	return jsonText(result)
}

func (h *handler) listTransports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		User string `json:"user,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	transports, err := h.backend.ListTransports(ctx, args.User)
	if err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"transports": transports})
}

func (h *handler) readTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		TableName string `json:"table_name"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	if args.TableName == "" {
		return missingParam("table_name")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	definition, err := h.backend.ReadTable(ctx, args.TableName)
	if err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"table_name": args.TableName, "definition": definition})
}

func (h *handler) readCDS(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		CDSName string `json:"cds_name"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	if args.CDSName == "" {
		return missingParam("cds_name")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	source, err := h.backend.ReadCDS(ctx, args.CDSName)
	if err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"cds_name": args.CDSName, "source": source})
}

func (h *handler) listPackage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		PackageName string `json:"package_name"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	pkg, err := types.NewPackageName(args.PackageName)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	content, err := h.backend.ListPackage(ctx, pkg)
	if err != nil {
		return toolError(err)
	}
	return jsonText(content)
}

func (h *handler) packageTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		RootPackage string `json:"root_package"`
		TypeFilter  string `json:"type_filter,omitempty"`
		MaxDepth    int    `json:"max_depth,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	root, err := types.NewPackageName(args.RootPackage)
	if err != nil {
		return toolError(err)
	}
	var filter []string
	for _, t := range strings.Split(args.TypeFilter, ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter = append(filter, t)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	tree, err := h.backend.PackageTree(ctx, root, filter, args.MaxDepth)
	if err != nil {
		return toolError(err)
	}
	return jsonText(tree)
}

func (h *handler) packageExists(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		PackageName string `json:"package_name"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	pkg, err := types.NewPackageName(args.PackageName)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	exists, err := h.backend.PackageExists(ctx, pkg)
	if err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"package_name": pkg.String(), "exists": exists})
}

func (h *handler) discover(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	info, err := h.backend.Discover(ctx)
	if err != nil {
		return toolError(err)
	}
	return jsonText(info)
}

func (h *handler) lock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		URI string `json:"uri"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	uri, err := types.NewObjectUri(args.URI)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	// Locks only live in stateful sessions; the session stays stateful
	// until adt_unlock.
	h.backend.Session().SetStateful(true)
	info, err := h.backend.Lock(ctx, uri)
	if err != nil {
		h.backend.Session().SetStateful(false)
		return toolError(err)
	}
	return jsonText(info)
}

func (h *handler) unlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		URI        string `json:"uri"`
		LockHandle string `json:"lock_handle"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	uri, err := types.NewObjectUri(args.URI)
	if err != nil {
		return toolError(err)
	}
	handle, err := types.NewLockHandle(args.LockHandle)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.backend.Unlock(ctx, uri, handle); err != nil {
		return toolError(err)
	}
	h.backend.Session().SetStateful(false)
	return jsonText(map[string]any{"status": "unlocked", "uri": args.URI})
}

func (h *handler) writeSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		URI        string `json:"uri"`
		Source     string `json:"source"`
		LockHandle string `json:"lock_handle,omitempty"`
		Transport  string `json:"transport,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	uri, err := types.NewObjectUri(args.URI)
	if err != nil {
		return toolError(err)
	}
	if args.Source == "" {
		return missingParam("source")
	}
	transport := types.TransportId(args.Transport)

	h.mu.Lock()
	defer h.mu.Unlock()
	if args.LockHandle != "" {
		if err := h.backend.WriteSource(ctx, uri, args.Source, types.LockHandle(args.LockHandle), transport); err != nil {
			return toolError(err)
		}
		return jsonText(map[string]any{"status": "written", "uri": args.URI})
	}
	written, err := h.backend.WriteSourceAutoLock(ctx, uri, args.Source, transport)
	if err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"status": "written", "uri": written.String()})
}

func (h *handler) createObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		ObjectType  string `json:"object_type"`
		Name        string `json:"name"`
		PackageName string `json:"package_name"`
		Description string `json:"description,omitempty"`
		Transport   string `json:"transport,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	objectType, err := types.NewObjectType(args.ObjectType)
	if err != nil {
		return toolError(err)
	}
	if args.Name == "" {
		return missingParam("name")
	}
	pkg, err := types.NewPackageName(args.PackageName)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.backend.CreateObject(ctx, objectType, args.Name, pkg,
		args.Description, types.TransportId(args.Transport)); err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{
		"status": "created", "object_type": args.ObjectType,
		"name": args.Name, "package": args.PackageName,
	})
}

func (h *handler) deleteObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		URI        string `json:"uri"`
		LockHandle string `json:"lock_handle,omitempty"`
		Transport  string `json:"transport,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	uri, err := types.NewObjectUri(args.URI)
	if err != nil {
		return toolError(err)
	}
	transport := types.TransportId(args.Transport)

	h.mu.Lock()
	defer h.mu.Unlock()
	if args.LockHandle != "" {
		err = h.backend.DeleteObject(ctx, uri, types.LockHandle(args.LockHandle), transport)
	} else {
		err = h.backend.DeleteObjectAutoLock(ctx, uri, transport)
	}
	if err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"status": "deleted", "uri": args.URI})
}

func (h *handler) createTransport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Description   string `json:"description"`
		TargetPackage string `json:"target_package"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	if args.Description == "" {
		return missingParam("description")
	}
	pkg, err := types.NewPackageName(args.TargetPackage)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	number, err := h.backend.CreateTransport(ctx, args.Description, pkg)
	if err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"status": "created", "transport_number": number.String()})
}

func (h *handler) releaseTransport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		TransportNumber string `json:"transport_number"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return badArguments(err)
	}
	number, err := types.NewTransportId(args.TransportNumber)
	if err != nil {
		return toolError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.backend.ReleaseTransport(ctx, number); err != nil {
		return toolError(err)
	}
	return jsonText(map[string]any{"status": "released", "transport_number": number.String()})
}
