package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Fetch the ADT discovery document and report capabilities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			adtClient, err := newClient()
			if err != nil {
				return err
			}
			info, err := adtClient.Discover(cmd.Context())
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(info)
			}
			yesNo := func(b bool) string {
				if b {
					return styled(okStyle, "yes")
				}
				return "no"
			}
			renderDetail([][2]string{
				{"abapGit", yesNo(info.SupportsAbapGit)},
				{"Packages", yesNo(info.SupportsPackages)},
				{"Activation", yesNo(info.SupportsActivation)},
			})
			fmt.Printf("%d service collections\n", len(info.Collections))
			return nil
		},
	}
}
