package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shadergraph/pkg/export/dot"
	"github.com/matzehuels/shadergraph/pkg/project"
)

// exportCommand creates the export command group.
func (c *CLI) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a module for viewing outside the editor",
	}
	cmd.AddCommand(c.exportDotCommand())
	return cmd
}

func (c *CLI) exportDotCommand() *cobra.Command {
	var (
		module string
		output string
		svg    bool
		opts   dot.Options
	)

	cmd := &cobra.Command{
		Use:   "dot <file>",
		Short: "Write a module as Graphviz DOT or SVG",
		Long: `Write a module as Graphviz DOT or SVG.

DOT is printed to stdout unless --output is given. With --svg the diagram is
rendered in process and written to --output (default: <file>.svg).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := c.loadFile(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			coll := loaded.Collection
			if module != "" {
				if _, err := coll.Open(module); err != nil {
					return err
				}
			}
			src := dot.ToDOT(coll.Live(), opts)

			if !svg {
				if output == "" {
					_, err := fmt.Fprint(c.out, src)
					return err
				}
				if err := os.WriteFile(output, []byte(src), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				c.printSuccess("Exported %s", coll.Current())
				c.printFile(output)
				return nil
			}

			data, err := dot.RenderSVG(src)
			if err != nil {
				return err
			}
			if output == "" {
				base := strings.TrimSuffix(args[0], project.ExportSuffix)
				output = strings.TrimSuffix(base, ".json") + ".svg"
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			c.printSuccess("Rendered %s", coll.Current())
			c.printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "", "module to export (default: first module)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&svg, "svg", false, "render SVG instead of DOT")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include node ids and control values")
	return cmd
}
