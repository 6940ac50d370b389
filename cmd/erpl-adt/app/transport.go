package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erpl/erpl-adt/pkg/adt/types"
)

func newTransportCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "transport",
		Short: "Manage transport requests",
		Example: `  erpl-adt transport
  erpl-adt transport list --user DEVELOPER
  erpl-adt transport create --description "demo change" --package ZDEMO
  erpl-adt transport release DEVK900123`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTransportList(cmd, user)
		},
	}
	cmd.PersistentFlags().StringVar(&user, "user", "", "Filter by owner; empty for the logged-in user")

	list := &cobra.Command{
		Use:   "list",
		Short: "List modifiable transport requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTransportList(cmd, user)
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a workbench transport request",
		RunE:  runTransportCreate,
	}
	create.Flags().String("description", "", "Transport description")
	create.Flags().String("package", "", "Package the transport is created for")
	_ = create.MarkFlagRequired("description")
	_ = create.MarkFlagRequired("package")

	release := &cobra.Command{
		Use:   "release NUMBER",
		Short: "Release a transport request and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE:  runTransportRelease,
	}

	cmd.AddCommand(list, create, release)
	return cmd
}

func runTransportList(cmd *cobra.Command, user string) error {
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	transports, err := adtClient.ListTransports(cmd.Context(), user)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"transports": transports})
	}
	if len(transports) == 0 {
		fmt.Println("No modifiable transports.")
		return nil
	}
	rows := make([][]string, 0, len(transports))
	for _, t := range transports {
		rows = append(rows, []string{t.Number, t.Owner, t.Status, t.Target, t.Description})
	}
	return renderTable([]string{"Number", "Owner", "Status", "Target", "Description"}, rows)
}

func runTransportCreate(cmd *cobra.Command, _ []string) error {
	pkg, err := types.NewPackageName(mustFlag(cmd, "package"))
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	number, err := adtClient.CreateTransport(cmd.Context(), mustFlag(cmd, "description"), pkg)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"status": "created", "transport_number": number.String()})
	}
	fmt.Println(styled(okStyle, "Created ") + number.String())
	return nil
}

func runTransportRelease(cmd *cobra.Command, args []string) error {
	number, err := types.NewTransportId(args[0])
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	if err := adtClient.ReleaseTransport(cmd.Context(), number); err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"status": "released", "transport_number": number.String()})
	}
	fmt.Println(styled(okStyle, "Released ") + number.String())
	return nil
}
