package app

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source URI",
		Short: "Read and write ABAP source code",
		Example: `  erpl-adt source /sap/bc/adt/oo/classes/zcl_demo/source/main
  erpl-adt source read /sap/bc/adt/oo/classes/zcl_demo/source/main --version inactive
  erpl-adt source write /sap/bc/adt/oo/classes/zcl_demo/source/main --file zcl_demo.abap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourceRead(cmd, args[0], "active")
		},
	}

	var version string
	read := &cobra.Command{
		Use:   "read URI",
		Short: "Print the source of an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourceRead(cmd, args[0], version)
		},
	}
	read.Flags().StringVar(&version, "version", "active", "Source version: active or inactive")

	write := &cobra.Command{
		Use:   "write URI",
		Short: "Replace the source of an object (locks automatically without --handle)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSourceWrite,
	}
	write.Flags().String("file", "", "File with the new source; '-' for stdin")
	write.Flags().String("handle", "", "Existing lock handle")
	write.Flags().String("transport", "", "Transport request number")
	_ = write.MarkFlagRequired("file")

	cmd.AddCommand(read, write)
	return cmd
}

func runSourceRead(cmd *cobra.Command, rawURI, version string) error {
	uri, err := types.NewObjectUri(rawURI)
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	source, err := adtClient.ReadSource(cmd.Context(), uri, version)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"uri": uri.String(), "version": version, "source": source})
	}
	fmt.Print(source)
	if len(source) > 0 && source[len(source)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

func runSourceWrite(cmd *cobra.Command, args []string) error {
	uri, err := types.NewObjectUri(args[0])
	if err != nil {
		return err
	}
	source, err := readSourceArg(mustFlag(cmd, "file"))
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	handle := mustFlag(cmd, "handle")
	transport := types.TransportId(mustFlag(cmd, "transport"))
	written := uri
	if handle != "" {
		err = adtClient.WriteSource(cmd.Context(), uri, source, types.LockHandle(handle), transport)
	} else {
		written, err = adtClient.WriteSourceAutoLock(cmd.Context(), uri, source, transport)
	}
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"status": "written", "uri": written.String()})
	}
	fmt.Println(styled(okStyle, "Written ") + written.String())
	return nil
}

func readSourceArg(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", aerr.Wrap(aerr.KindInternal, "WriteSource", fmt.Sprintf("reading %s", path), err)
	}
	return string(data), nil
}
