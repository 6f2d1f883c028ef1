package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shadergraph/pkg/buildinfo"
)

func (c *CLI) versionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build and project format versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return c.writeJSON(buildinfo.Get())
			}
			fmt.Fprintln(c.out, buildinfo.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
