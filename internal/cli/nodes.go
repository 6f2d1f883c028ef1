package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/nodes"
)

// nodesCommand creates the node catalog command group.
func (c *CLI) nodesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Browse the node type catalog",
	}

	cmd.AddCommand(c.nodesListCommand())
	cmd.AddCommand(c.nodesSearchCommand())
	cmd.AddCommand(c.nodesShowCommand())
	cmd.AddCommand(c.nodesModesCommand())

	return cmd
}

// nodeSummary is the JSON form of a definition in listings.
type nodeSummary struct {
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty"`
	Score       float64  `json:"score,omitempty"`
}

func summarize(d *nodes.Definition) nodeSummary {
	return nodeSummary{
		Type:        d.Type,
		Label:       d.Label,
		Category:    d.Category,
		Description: d.Description,
		Tags:        d.Tags,
		Deprecated:  d.Deprecated,
	}
}

func (c *CLI) nodesListCommand() *cobra.Command {
	var (
		category string
		all      bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the node types offered in the current mode",
		Long: `List the node types offered in the current mode (--mode or config).

With --category, only the types of that mode category are listed. With --all
the mode is ignored and every registered type is listed. An unknown mode
lists every registered type.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}

			var defs []*nodes.Definition
			switch {
			case all && category != "":
				defs = reg.ListByCategory(category)
			case all:
				defs = reg.All()
			case category != "":
				defs = reg.Nodes(c.cfg.Mode, category)
			default:
				defs = reg.NodesForMode(c.cfg.Mode)
			}

			if asJSON {
				out := make([]nodeSummary, len(defs))
				for i, d := range defs {
					out[i] = summarize(d)
				}
				return c.writeJSON(out)
			}
			if len(defs) == 0 {
				c.printWarning("No node types in mode %q, category %q", c.cfg.Mode, category)
				return nil
			}
			for _, d := range defs {
				c.printDefinitionLine(d)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "mode category (or definition category with --all)")
	cmd.Flags().BoolVar(&all, "all", false, "ignore the mode and list every registered type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func (c *CLI) printDefinitionLine(d *nodes.Definition) {
	line := StyleHighlight.Render(fmt.Sprintf("%-22s", d.Type)) + " " + d.Label
	if d.Deprecated {
		line += " " + StyleWarning.Render("(deprecated)")
	}
	fmt.Fprintln(c.out, line)
}

func (c *CLI) nodesSearchCommand() *cobra.Command {
	var (
		opts   = nodes.SearchOptions{Limit: nodes.DefaultSearchLimit}
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search node types by label and type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			results := reg.Search(args[0], opts)

			if asJSON {
				out := make([]nodeSummary, len(results))
				for i, r := range results {
					out[i] = summarize(r.Definition)
					out[i].Score = r.Score
				}
				return c.writeJSON(out)
			}
			if len(results) == 0 {
				c.printInfo("No node types match %q", args[0])
				return nil
			}
			for _, r := range results {
				c.printDefinitionLine(r.Definition)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "restrict to a definition category")
	cmd.Flags().BoolVar(&opts.Deep, "deep", false, "also match descriptions and tags")
	cmd.Flags().BoolVar(&opts.Fuzzy, "fuzzy", false, "rank labels containing the query's letters in order")
	cmd.Flags().BoolVar(&opts.IncludeDeprecated, "deprecated", false, "include deprecated types")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", opts.Limit, "maximum results (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func (c *CLI) nodesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <type>",
		Short: "Show the sockets and controls of a node type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			d, ok := reg.Get(args[0])
			if !ok {
				return errors.New(errors.ErrCodeUnknownType, "unknown node type %q", args[0])
			}
			c.printDefinition(d)
			return nil
		},
	}
}

func (c *CLI) printDefinition(d *nodes.Definition) {
	fmt.Fprintln(c.out, StyleTitle.Render(d.Label)+" "+StyleDim.Render(d.Type))
	if d.Description != "" {
		c.printDetail("%s", d.Description)
	}
	c.printKeyValue("category", d.Category)
	if len(d.Tags) > 0 {
		c.printKeyValue("tags", strings.Join(d.Tags, ", "))
	}
	var flags []string
	if d.Deprecated {
		flags = append(flags, "deprecated")
	}
	if d.Experimental {
		flags = append(flags, "experimental")
	}
	if len(flags) > 0 {
		c.printKeyValue("status", strings.Join(flags, ", "))
	}

	if len(d.Inputs) > 0 {
		c.printNewline()
		fmt.Fprintln(c.out, StyleTitle.Render("Inputs"))
		for _, in := range d.Inputs {
			var attrs []string
			if in.Required {
				attrs = append(attrs, "required")
			}
			if in.Variadic {
				attrs = append(attrs, "variadic")
			}
			c.printSocket(in.Key, in.Socket, attrs)
		}
	}
	if len(d.Outputs) > 0 {
		c.printNewline()
		fmt.Fprintln(c.out, StyleTitle.Render("Outputs"))
		for _, out := range d.Outputs {
			c.printSocket(out.Key, out.Socket, nil)
		}
	}
	if len(d.Controls) > 0 {
		c.printNewline()
		fmt.Fprintln(c.out, StyleTitle.Render("Controls"))
		for _, ctl := range d.Controls {
			line := fmt.Sprintf("  %-14s %-18s default %v", ctl.Key, ctl.Type, ctl.DefaultValue())
			if ctl.LinkedToInput != "" {
				line += StyleDim.Render(" (hidden while " + ctl.LinkedToInput + " is connected)")
			}
			fmt.Fprintln(c.out, line)
		}
	}
}

func (c *CLI) printSocket(key string, socket nodes.SocketType, attrs []string) {
	line := fmt.Sprintf("  %-14s %s", key, socket)
	if len(attrs) > 0 {
		line += StyleDim.Render(" " + strings.Join(attrs, ", "))
	}
	fmt.Fprintln(c.out, line)
}

func (c *CLI) nodesModesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List the registered modes and their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			modes := reg.Modes()
			if asJSON {
				return c.writeJSON(modes)
			}
			for _, m := range modes {
				marker := " "
				if m.Name == c.cfg.Mode {
					marker = styleIconSuccess.Render("*")
				}
				fmt.Fprintf(c.out, "%s %s %s\n", marker, StyleHighlight.Render(fmt.Sprintf("%-10s", m.Name)), m.Label)
				c.printDetail("%s", strings.Join(m.Categories, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
