package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check URI",
		Short: "Run syntax and quality checks",
		Example: `  erpl-adt check /sap/bc/adt/programs/programs/ztest
  erpl-adt check atc /sap/bc/adt/oo/classes/zcl_demo --variant Z_VARIANT`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyntaxCheck(cmd, args[0])
		},
	}

	syntax := &cobra.Command{
		Use:   "syntax URI",
		Short: "Run the syntax check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyntaxCheck(cmd, args[0])
		},
	}

	var variant string
	atc := &cobra.Command{
		Use:   "atc URI",
		Short: "Run ABAP Test Cockpit checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runATCCheck(cmd, args[0], variant)
		},
	}
	atc.Flags().StringVar(&variant, "variant", "", "ATC check variant; empty for the system default")

	cmd.AddCommand(syntax, atc)
	return cmd
}

func runSyntaxCheck(cmd *cobra.Command, rawURI string) error {
	uri, err := types.NewObjectUri(rawURI)
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	result, err := adtClient.CheckSyntax(cmd.Context(), uri)
	if err != nil {
		return err
	}
	return reportCheckResult(result, "CheckSyntax")
}

func runATCCheck(cmd *cobra.Command, rawURI, variant string) error {
	uri, err := types.NewObjectUri(rawURI)
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	result, err := adtClient.RunATC(cmd.Context(), uri, types.CheckVariant(variant))
	if err != nil {
		return err
	}
	return reportCheckResult(result, "RunATC")
}

// reportCheckResult renders the findings; error-priority findings make the
// command fail with the check exit code.
func reportCheckResult(result *codec.CheckRunResult, operation string) error {
	if flagJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else if len(result.Findings) == 0 {
		fmt.Println(styled(okStyle, "No findings."))
	} else {
		rows := make([][]string, 0, len(result.Findings))
		for _, f := range result.Findings {
			rows = append(rows, []string{
				strconv.Itoa(f.Priority), f.CheckID, f.Location, f.MessageText,
			})
		}
		if err := renderTable([]string{"Prio", "Check", "Location", "Message"}, rows); err != nil {
			return err
		}
		fmt.Printf("%d errors, %d warnings, %d infos\n",
			result.ErrorCount, result.WarnCount, result.InfoCount)
	}
	if result.HasErrors() {
		return aerr.New(aerr.KindCheckError, operation,
			fmt.Sprintf("%d error findings", result.ErrorCount))
	}
	return nil
}
