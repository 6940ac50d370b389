package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erpl/erpl-adt/pkg/adt/client"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

func newPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package NAME",
		Short: "Inspect ABAP packages",
		Example: `  erpl-adt package ZDEMO
  erpl-adt package tree ZDEMO --max-depth 2 --type-filter CLAS,INTF
  erpl-adt package exists ZDEMO`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackageList(cmd, args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list NAME",
		Short: "List the objects in a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackageList(cmd, args[0])
		},
	}

	var typeFilter string
	var maxDepth int
	tree := &cobra.Command{
		Use:   "tree NAME",
		Short: "Walk a package hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackageTree(cmd, args[0], splitCSV(typeFilter), maxDepth)
		},
	}
	tree.Flags().StringVar(&typeFilter, "type-filter", "", "Comma-separated object types to keep")
	tree.Flags().IntVar(&maxDepth, "max-depth", 3, "Maximum recursion depth")

	exists := &cobra.Command{
		Use:   "exists NAME",
		Short: "Check whether a package exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackageExists(cmd, args[0])
		},
	}

	cmd.AddCommand(list, tree, exists)
	return cmd
}

func runPackageList(cmd *cobra.Command, name string) error {
	pkg, err := types.NewPackageName(name)
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	content, err := adtClient.ListPackage(cmd.Context(), pkg)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(content)
	}
	if len(content.SubPackages) > 0 {
		fmt.Println(styled(headingStyle, "Subpackages:") + " " + strings.Join(content.SubPackages, ", "))
	}
	if len(content.Objects) == 0 {
		fmt.Println("No objects.")
		return nil
	}
	rows := make([][]string, 0, len(content.Objects))
	for _, o := range content.Objects {
		rows = append(rows, []string{o.Type, o.Name, o.Description})
	}
	return renderTable([]string{"Type", "Name", "Description"}, rows)
}

func runPackageTree(cmd *cobra.Command, name string, typeFilter []string, maxDepth int) error {
	pkg, err := types.NewPackageName(name)
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	tree, err := adtClient.PackageTree(cmd.Context(), pkg, typeFilter, maxDepth)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(tree)
	}
	printPackageTree(tree, 0)
	return nil
}

func printPackageTree(node *client.PackageTreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Println(indent + styled(headingStyle, node.Package))
	for _, o := range node.Objects {
		fmt.Printf("%s  %-10s %s\n", indent, o.Type, o.Name)
	}
	for _, child := range node.Children {
		printPackageTree(child, depth+1)
	}
}

func runPackageExists(cmd *cobra.Command, name string) error {
	pkg, err := types.NewPackageName(name)
	if err != nil {
		return err
	}
	adtClient, err := newClient()
	if err != nil {
		return err
	}
	exists, err := adtClient.PackageExists(cmd.Context(), pkg)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(map[string]any{"package_name": pkg.String(), "exists": exists})
	}
	if exists {
		fmt.Printf("Package %s exists.\n", pkg)
	} else {
		fmt.Printf("Package %s does not exist.\n", pkg)
	}
	return nil
}
