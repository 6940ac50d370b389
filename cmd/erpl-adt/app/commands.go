// Package app provides the erpl-adt command-line application.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/erpl/erpl-adt/pkg/logger"
	"github.com/erpl/erpl-adt/pkg/versions"
)

var (
	flagHost        string
	flagPort        int
	flagHTTPS       bool
	flagInsecure    bool
	flagClient      string
	flagUser        string
	flagPassword    string
	flagPasswordEnv string
	flagJSON        bool
	flagNoColor     bool
	flagVerbose     bool
	flagQuiet       bool
	flagTimeout     int
	flagSessionFile string
)

var rootCmd = &cobra.Command{
	Use:               "erpl-adt",
	DisableAutoGenTag: true,
	Short:             "SAP ABAP Development Tools and BW modeling client",
	Long: `erpl-adt talks to the SAP ADT REST services and the BW modeling
endpoints: repository search, source read/write with locking, ABAP Unit
and ATC runs, transports, DDIC reads, abapGit deployments, and BW
dataflow/lineage graphs.

The same operations are exposed as MCP tools via 'erpl-adt mcp'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Re-level the logger once verbose/quiet are known.
		logger.Initialize()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return fmt.Errorf("unknown command %q, see 'erpl-adt --help'", args[0])
	},
}

// NewRootCmd assembles the root command with all groups registered.
func NewRootCmd() *cobra.Command {
	info := versions.GetVersionInfo()
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s, %s)",
		info.Version, info.Commit, info.BuildDate, info.Platform)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagHost, "host", "", "SAP host name")
	pf.IntVar(&flagPort, "port", 0, "SAP HTTP(S) port")
	pf.BoolVar(&flagHTTPS, "https", false, "Use HTTPS")
	pf.BoolVar(&flagInsecure, "insecure", false, "Skip TLS certificate verification")
	pf.StringVar(&flagClient, "client", "", "SAP client, e.g. 100")
	pf.StringVar(&flagUser, "user", "", "SAP user")
	pf.StringVar(&flagPassword, "password", "", "SAP password (prefer --password-env)")
	pf.StringVar(&flagPasswordEnv, "password-env", "SAP_PASSWORD",
		"Environment variable holding the SAP password")
	pf.BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Warnings and errors only")
	pf.IntVar(&flagTimeout, "timeout", 0, "Async operation timeout in seconds")
	pf.StringVar(&flagSessionFile, "session-file", "", "Path for persistent session handoff")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("quiet", pf.Lookup("quiet"))

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newObjectCmd())
	rootCmd.AddCommand(newSourceCmd())
	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newTransportCmd())
	rootCmd.AddCommand(newDdicCmd())
	rootCmd.AddCommand(newPackageCmd())
	rootCmd.AddCommand(newDiscoverCmd())
	rootCmd.AddCommand(newBWCmd())
	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newPullCmd())
	rootCmd.AddCommand(newActivateCmd())

	return rootCmd
}
