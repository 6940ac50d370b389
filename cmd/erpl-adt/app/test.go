package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test URI",
		Short: "Run ABAP Unit tests",
		Example: `  erpl-adt test /sap/bc/adt/oo/classes/zcl_demo
  erpl-adt test run /sap/bc/adt/oo/classes/zcl_demo --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnitTests(cmd, args[0])
		},
	}
	run := &cobra.Command{
		Use:   "run URI",
		Short: "Run the unit tests of one object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnitTests(cmd, args[0])
		},
	}
	cmd.AddCommand(run)
	return cmd
}

func runUnitTests(cmd *cobra.Command, rawURI string) error {
	uri, err := types.NewObjectUri(rawURI)
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	result, err := adtClient.RunUnitTests(cmd.Context(), uri)
	if err != nil {
		return err
	}
	if flagJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		renderTestResult(result)
	}
	if !result.Success() {
		return aerr.New(aerr.KindTestFailure, "RunUnitTests",
			fmt.Sprintf("%d of %d test methods failed", result.Failed, result.Total))
	}
	return nil
}

func renderTestResult(result *codec.TestRunResult) {
	for _, m := range result.Methods {
		status := styled(okStyle, "PASS")
		if len(m.Alerts) > 0 {
			status = styled(errorStyle, "FAIL")
		}
		fmt.Printf("%s  %s=>%s\n", status, m.Class, m.Method)
		for _, alert := range m.Alerts {
			fmt.Printf("      [%s] %s\n", alert.Severity, alert.Title)
			for _, d := range alert.Details {
				fmt.Printf("        %s\n", d)
			}
		}
	}
	summary := fmt.Sprintf("%d methods, %d failed", result.Total, result.Failed)
	if result.Failed == 0 {
		summary = styled(okStyle, summary)
	} else {
		summary = styled(errorStyle, summary)
	}
	fmt.Println(strings.Repeat("-", 40))
	fmt.Println(summary)
}
