package app

import (
	"github.com/spf13/cobra"

	"github.com/erpl/erpl-adt/pkg/logger"
	"github.com/erpl/erpl-adt/pkg/mcpserver"
	"github.com/erpl/erpl-adt/pkg/versions"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP tool server on stdin/stdout",
		Long: `Serve the ADT operations as MCP tools over stdio JSON-RPC. All
logging goes to stderr; stdout carries only the protocol.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			adtClient, err := newClient()
			if err != nil {
				return err
			}
			logger.Infof("starting MCP tool server (version %s)", versions.GetVersionInfo().Version)
			return mcpserver.ServeStdio(mcpserver.New(adtClient, versions.GetVersionInfo().Version))
		},
	}
}
