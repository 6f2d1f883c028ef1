package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/graph"
	"github.com/matzehuels/shadergraph/pkg/modules"
	"github.com/matzehuels/shadergraph/pkg/nodes"
	"github.com/matzehuels/shadergraph/pkg/project"
)

// editCommand creates the project editing command group. Every subcommand
// loads the file, applies one change to a module and writes the file back.
func (c *CLI) editCommand() *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change a project file",
		Long: `Change a project file.

Each subcommand loads the project, opens a module (the first one, or --module),
applies one change with the editor's validation rules and saves the file in
the current format. A change the rules reject leaves the file untouched.`,
	}
	cmd.PersistentFlags().StringVarP(&module, "module", "m", "", "module to edit (default: first module)")

	cmd.AddCommand(c.editAddNodeCommand(&module))
	cmd.AddCommand(c.editRemoveNodeCommand(&module))
	cmd.AddCommand(c.editConnectCommand(&module))
	cmd.AddCommand(c.editDisconnectCommand(&module))
	cmd.AddCommand(c.editSetCommand(&module))
	cmd.AddCommand(c.editMoveCommand(&module))
	cmd.AddCommand(c.editAddModuleCommand())
	cmd.AddCommand(c.editRenameModuleCommand())
	cmd.AddCommand(c.editRemoveModuleCommand())

	return cmd
}

// editFn applies a change to the collection, whose live graph is the
// module being edited, and returns the message to print.
type editFn func(coll *modules.Collection, g *graph.Graph) (string, error)

// editFile runs fn on the project at path and saves the result in place.
func (c *CLI) editFile(cmd *cobra.Command, path, module string, fn editFn) error {
	loaded, err := c.loadFile(cmd.Context(), path, false)
	if err != nil {
		return err
	}
	coll := loaded.Collection
	if module != "" {
		if _, err := coll.Open(module); err != nil {
			return err
		}
	}

	msg, err := fn(coll, coll.Live())
	if err != nil {
		return err
	}

	prev := loaded.Document
	doc := project.Serialize(coll, prev.EditorSettings.Viewport, prev)
	if err := writeJSONFile(path, doc); err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Debug("saved", "path", path, "module", coll.Current())
	c.printSuccess("%s", msg)
	c.printFile(path)
	return nil
}

func (c *CLI) editAddNodeCommand(module *string) *cobra.Command {
	var (
		at   string
		sets []string
	)

	cmd := &cobra.Command{
		Use:   "add-node <file> <type>",
		Short: "Add a node with default control values",
		Example: `  shadergraph edit add-node scene.asmblr.json Sphere3D --set radius=1.5
  shadergraph edit add-node scene.asmblr.json Union --at 400,120`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := args[1]
			initial, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			var pos *graph.Position
			if at != "" {
				p, err := parsePosition(at)
				if err != nil {
					return err
				}
				pos = &p
			}
			return c.editFile(cmd, args[0], *module, func(coll *modules.Collection, g *graph.Graph) (string, error) {
				if pos == nil {
					p := graph.AutoPosition(g.Nodes())
					pos = &p
				}
				n, err := graph.NewFactory(coll.Resolver()).Create(typ, initial, pos)
				if err != nil {
					return "", err
				}
				if _, err := g.AddNode(*n); err != nil {
					return "", err
				}
				c.warnOutsideMode(typ)
				return fmt.Sprintf("Added %s %s to %s", typ, n.ID, coll.Current()), nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "canvas position x,y (default: next free grid cell)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "control value key=value (repeatable, value is JSON or a bare string)")
	return cmd
}

// warnOutsideMode warns when typ is not offered by the configured mode.
func (c *CLI) warnOutsideMode(typ string) {
	reg, err := c.registry()
	if err != nil || !reg.HasMode(c.cfg.Mode) {
		return
	}
	offered := slices.ContainsFunc(reg.Nodes(c.cfg.Mode, ""), func(d *nodes.Definition) bool { return d.Type == typ })
	if !offered {
		c.printWarning("%s is not offered in mode %s", typ, c.cfg.Mode)
	}
}

func (c *CLI) editRemoveNodeCommand(module *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-node <file> <node-id>",
		Short: "Remove a node and its connections",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[1]
			return c.editFile(cmd, args[0], *module, func(coll *modules.Collection, g *graph.Graph) (string, error) {
				dropped := len(g.Incoming(id)) + len(g.Outgoing(id))
				if err := g.RemoveNode(id); err != nil {
					return "", err
				}
				return fmt.Sprintf("Removed %s and %s", id, plural(dropped, "connection")), nil
			})
		},
	}
}

func (c *CLI) editConnectCommand(module *string) *cobra.Command {
	return &cobra.Command{
		Use:     "connect <file> <source>.<output> <target>.<input>",
		Short:   "Connect an output socket to an input socket",
		Example: `  shadergraph edit connect scene.asmblr.json sphere.expr union.expr`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, out, err := parseSocketRef(args[1])
			if err != nil {
				return err
			}
			dst, in, err := parseSocketRef(args[2])
			if err != nil {
				return err
			}
			return c.editFile(cmd, args[0], *module, func(coll *modules.Collection, g *graph.Graph) (string, error) {
				e, err := g.Connect(src, out, dst, in)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Connected %s.%s %s %s.%s (%s)", src, out, iconArrow, dst, in, e.ID), nil
			})
		},
	}
}

func (c *CLI) editDisconnectCommand(module *string) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <file> <edge-id>",
		Short: "Remove a connection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[1]
			return c.editFile(cmd, args[0], *module, func(coll *modules.Collection, g *graph.Graph) (string, error) {
				if !g.Disconnect(id) {
					return "", errors.New(errors.ErrCodeUnknownEdge, "connection %q not found", id)
				}
				return "Removed connection " + id, nil
			})
		},
	}
}

func (c *CLI) editSetCommand(module *string) *cobra.Command {
	return &cobra.Command{
		Use:     "set <file> <node-id> <key> <value>",
		Short:   "Set a control value",
		Example: `  shadergraph edit set scene.asmblr.json sphere radius 2.5`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, key, value := args[1], args[2], parseValue(args[3])
			return c.editFile(cmd, args[0], *module, func(coll *modules.Collection, g *graph.Graph) (string, error) {
				if err := g.SetData(id, key, value); err != nil {
					return "", err
				}
				if visible, err := g.ControlVisible(id, key); err == nil && !visible {
					c.printWarning("%s.%s is hidden while its linked input is connected", id, key)
				}
				return fmt.Sprintf("Set %s.%s = %v", id, key, value), nil
			})
		},
	}
}

func (c *CLI) editMoveCommand(module *string) *cobra.Command {
	return &cobra.Command{
		Use:   "move <file> <node-id> <x,y>",
		Short: "Move a node on the canvas",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[1]
			pos, err := parsePosition(args[2])
			if err != nil {
				return err
			}
			return c.editFile(cmd, args[0], *module, func(coll *modules.Collection, g *graph.Graph) (string, error) {
				if err := g.Move(id, pos); err != nil {
					return "", err
				}
				return fmt.Sprintf("Moved %s to %g,%g", id, pos.X, pos.Y), nil
			})
		},
	}
}

func (c *CLI) editAddModuleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-module <file> [name]",
		Short: "Add an empty module",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			return c.editFile(cmd, args[0], "", func(coll *modules.Collection, _ *graph.Graph) (string, error) {
				added, err := coll.Add(name, nil)
				if err != nil {
					return "", err
				}
				return "Added module " + added, nil
			})
		},
	}
}

func (c *CLI) editRenameModuleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename-module <file> <from> <to>",
		Short: "Rename a module",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := args[1], args[2]
			return c.editFile(cmd, args[0], "", func(coll *modules.Collection, _ *graph.Graph) (string, error) {
				if err := coll.Rename(from, to); err != nil {
					return "", err
				}
				return fmt.Sprintf("Renamed module %s to %s", from, to), nil
			})
		},
	}
}

func (c *CLI) editRemoveModuleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-module <file> <name>",
		Short: "Remove a module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[1]
			return c.editFile(cmd, args[0], "", func(coll *modules.Collection, _ *graph.Graph) (string, error) {
				if _, ok := coll.Get(name); ok && coll.Len() == 1 {
					return "", errors.New(errors.ErrCodeInvalidInput, "cannot remove the only module %q", name)
				}
				if err := coll.Remove(name); err != nil {
					return "", err
				}
				return "Removed module " + name, nil
			})
		},
	}
}

// parseSocketRef splits "node.socket". Node ids may contain dots; the
// socket key is everything after the last one.
func parseSocketRef(s string) (node, socket string, err error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return "", "", errors.New(errors.ErrCodeInvalidInput, "socket reference %q must be <node>.<socket>", s)
	}
	return s[:i], s[i+1:], nil
}

// parsePosition parses "x,y".
func parsePosition(s string) (graph.Position, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return graph.Position{}, errors.New(errors.ErrCodeInvalidInput, "position %q must be x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return graph.Position{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "position %q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return graph.Position{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "position %q", s)
	}
	return graph.Position{X: x, Y: y}, nil
}

// parseValue decodes a control value given on the command line. JSON
// literals ("1.5", "[0,1,0]", "true") are decoded; anything else is taken
// as a string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

// parseAssignments parses repeated key=value flags.
func parseAssignments(sets []string) (map[string]any, error) {
	out := make(map[string]any, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "--set %q must be key=value", s)
		}
		out[k] = parseValue(v)
	}
	return out, nil
}
