// Package mcpserver exposes the ADT client as an MCP tool server over
// stdio, so agentic clients can drive an ABAP system through JSON-RPC.
package mcpserver

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/erpl/erpl-adt/pkg/adt/client"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/session"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

// Backend is the slice of the ADT client the tool handlers drive.
// *client.Client satisfies it.
type Backend interface {
	Discover(ctx context.Context) (*codec.DiscoveryInfo, error)
	Search(ctx context.Context, query string, maxResults int) ([]codec.SearchResult, error)
	ReadObject(ctx context.Context, uri types.ObjectUri) (*codec.ObjectInfo, error)
	ReadSource(ctx context.Context, uri types.ObjectUri, version string) (string, error)
	CheckSyntax(ctx context.Context, uri types.ObjectUri) (*codec.CheckRunResult, error)
	RunUnitTests(ctx context.Context, uri types.ObjectUri) (*codec.TestRunResult, error)
	RunATC(ctx context.Context, uri types.ObjectUri, variant types.CheckVariant) (*codec.CheckRunResult, error)
	ListTransports(ctx context.Context, user string) ([]codec.TransportInfo, error)
	ReadTable(ctx context.Context, tableName string) (string, error)
	ReadCDS(ctx context.Context, cdsName string) (string, error)
	ListPackage(ctx context.Context, pkg types.PackageName) (*codec.PackageContent, error)
	PackageTree(ctx context.Context, root types.PackageName, typeFilter []string, maxDepth int) (*client.PackageTreeNode, error)
	PackageExists(ctx context.Context, pkg types.PackageName) (bool, error)
	Lock(ctx context.Context, uri types.ObjectUri) (*codec.LockInfo, error)
	Unlock(ctx context.Context, uri types.ObjectUri, handle types.LockHandle) error
	WriteSource(ctx context.Context, uri types.ObjectUri, source string, handle types.LockHandle, transport types.TransportId) error
	WriteSourceAutoLock(ctx context.Context, sourceURI types.ObjectUri, source string, transport types.TransportId) (types.ObjectUri, error)
	CreateObject(ctx context.Context, objectType types.ObjectType, name string, pkg types.PackageName, description string, transport types.TransportId) error
	DeleteObject(ctx context.Context, uri types.ObjectUri, handle types.LockHandle, transport types.TransportId) error
	DeleteObjectAutoLock(ctx context.Context, uri types.ObjectUri, transport types.TransportId) error
	CreateTransport(ctx context.Context, description string, targetPackage types.PackageName) (types.TransportId, error)
	ReleaseTransport(ctx context.Context, number types.TransportId) error
	Session() session.Session
}

// handler carries the backend behind a mutex: the SAP session mutates on
// every request, so tool calls are serialized.
type handler struct {
	mu      sync.Mutex
	backend Backend
}

// New builds the MCP server with all ADT tools registered.
func New(backend Backend, version string) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"erpl-adt",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	registerTools(mcpServer, &handler{backend: backend})
	return mcpServer
}

// ServeStdio runs the tool server over stdin/stdout until EOF.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func stringParam(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func registerTools(s *server.MCPServer, h *handler) {
	s.AddTool(mcp.Tool{
		Name:        "adt_search",
		Description: "Search the ABAP repository for objects by name pattern",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": stringParam("Search pattern, e.g. 'ZCL_*' or a full object name"),
			},
			Required: []string{"query"},
		},
	}, h.search)

	s.AddTool(mcp.Tool{
		Name:        "adt_read_object",
		Description: "Read the metadata of an ABAP object by its ADT URI",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri": stringParam("ADT object URI, e.g. /sap/bc/adt/oo/classes/zcl_demo"),
			},
			Required: []string{"uri"},
		},
	}, h.readObject)

	s.AddTool(mcp.Tool{
		Name:        "adt_read_source",
		Description: "Read the source code of an ABAP object",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri":     stringParam("ADT object URI"),
				"version": stringParam("Source version: 'active' (default) or 'inactive'"),
			},
			Required: []string{"uri"},
		},
	}, h.readSource)

	s.AddTool(mcp.Tool{
		Name:        "adt_check_syntax",
		Description: "Run the syntax check for an ABAP object",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri": stringParam("ADT object URI"),
			},
			Required: []string{"uri"},
		},
	}, h.checkSyntax)

	s.AddTool(mcp.Tool{
		Name:        "adt_run_tests",
		Description: "Run the ABAP Unit tests of an object and report results",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri": stringParam("ADT object URI"),
			},
			Required: []string{"uri"},
		},
	}, h.runTests)

	s.AddTool(mcp.Tool{
		Name:        "adt_run_atc",
		Description: "Run ABAP Test Cockpit checks for an object",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri":           stringParam("ADT object URI"),
				"check_variant": stringParam("ATC check variant; empty for the system default"),
			},
			Required: []string{"uri"},
		},
	}, h.runATC)

	s.AddTool(mcp.Tool{
		Name:        "adt_list_transports",
		Description: "List modifiable transport requests",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user": stringParam("Filter by owner; empty for the logged-in user"),
			},
		},
	}, h.listTransports)

	s.AddTool(mcp.Tool{
		Name:        "adt_read_table",
		Description: "Read the DDIC definition of a database table",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"table_name": stringParam("Table name, e.g. SFLIGHT"),
			},
			Required: []string{"table_name"},
		},
	}, h.readTable)

	s.AddTool(mcp.Tool{
		Name:        "adt_read_cds",
		Description: "Read the DDL source of a CDS view",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"cds_name": stringParam("CDS view name"),
			},
			Required: []string{"cds_name"},
		},
	}, h.readCDS)

	s.AddTool(mcp.Tool{
		Name:        "adt_list_package",
		Description: "List the objects contained in a package",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"package_name": stringParam("ABAP package name, e.g. ZDEMO"),
			},
			Required: []string{"package_name"},
		},
	}, h.listPackage)

	s.AddTool(mcp.Tool{
		Name:        "adt_package_tree",
		Description: "Walk a package hierarchy and return its object tree",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"root_package": stringParam("Root package name"),
				"type_filter":  stringParam("Comma-separated object types to keep, e.g. 'CLAS,INTF'"),
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum recursion depth (default 3)",
				},
			},
			Required: []string{"root_package"},
		},
	}, h.packageTree)

	s.AddTool(mcp.Tool{
		Name:        "adt_package_exists",
		Description: "Check whether a package exists",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"package_name": stringParam("ABAP package name"),
			},
			Required: []string{"package_name"},
		},
	}, h.packageExists)

	s.AddTool(mcp.Tool{
		Name:        "adt_discover",
		Description: "Fetch the ADT discovery document and verify connectivity",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, h.discover)

	s.AddTool(mcp.Tool{
		Name:        "adt_lock",
		Description: "Acquire a modify lock on an object and return the lock handle",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri": stringParam("ADT object URI"),
			},
			Required: []string{"uri"},
		},
	}, h.lock)

	s.AddTool(mcp.Tool{
		Name:        "adt_unlock",
		Description: "Release a previously acquired lock",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri":         stringParam("ADT object URI"),
				"lock_handle": stringParam("Lock handle returned by adt_lock"),
			},
			Required: []string{"uri", "lock_handle"},
		},
	}, h.unlock)

	s.AddTool(mcp.Tool{
		Name:        "adt_write_source",
		Description: "Write the source of an object; locks automatically when no handle is given",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri":         stringParam("ADT object URI"),
				"source":      stringParam("Full new source text"),
				"lock_handle": stringParam("Existing lock handle; empty to lock and unlock automatically"),
				"transport":   stringParam("Transport request number for transportable objects"),
			},
			Required: []string{"uri", "source"},
		},
	}, h.writeSource)

	s.AddTool(mcp.Tool{
		Name:        "adt_create_object",
		Description: "Create a new ABAP object in a package",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"object_type":  stringParam("ADT object type, e.g. CLAS/OC or PROG/P"),
				"name":         stringParam("Object name"),
				"package_name": stringParam("Target package"),
				"description":  stringParam("Short description"),
				"transport":    stringParam("Transport request number"),
			},
			Required: []string{"object_type", "name", "package_name"},
		},
	}, h.createObject)

	s.AddTool(mcp.Tool{
		Name:        "adt_delete_object",
		Description: "Delete an ABAP object; locks automatically when no handle is given",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"uri":         stringParam("ADT object URI"),
				"lock_handle": stringParam("Existing lock handle; empty to lock automatically"),
				"transport":   stringParam("Transport request number"),
			},
			Required: []string{"uri"},
		},
	}, h.deleteObject)

	s.AddTool(mcp.Tool{
		Name:        "adt_create_transport",
		Description: "Create a new workbench transport request",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"description":    stringParam("Transport description"),
				"target_package": stringParam("Package the transport is created for"),
			},
			Required: []string{"description", "target_package"},
		},
	}, h.createTransport)

	s.AddTool(mcp.Tool{
		Name:        "adt_release_transport",
		Description: "Release a transport request and its tasks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"transport_number": stringParam("Transport request number, e.g. DEVK900123"),
			},
			Required: []string{"transport_number"},
		},
	}, h.releaseTransport)
}
