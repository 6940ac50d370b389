package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDdicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddic NAME",
		Short: "Read DDIC definitions",
		Example: `  erpl-adt ddic SFLIGHT
  erpl-adt ddic table SFLIGHT
  erpl-adt ddic cds ZI_DEMO_VIEW`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDdicTable(cmd, args[0])
		},
	}

	table := &cobra.Command{
		Use:   "table NAME",
		Short: "Print a table definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDdicTable(cmd, args[0])
		},
	}

	cds := &cobra.Command{
		Use:   "cds NAME",
		Short: "Print a CDS view's DDL source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDdicCDS(cmd, args[0])
		},
	}

	cmd.AddCommand(table, cds)
	return cmd
}

func runDdicTable(cmd *cobra.Command, name string) error {
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	definition, err := adtClient.ReadTable(cmd.Context(), name)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"table_name": name, "definition": definition})
	}
	fmt.Println(definition)
	return nil
}

func runDdicCDS(cmd *cobra.Command, name string) error {
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	source, err := adtClient.ReadCDS(cmd.Context(), name)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"cds_name": name, "source": source})
	}
	fmt.Println(source)
	return nil
}
