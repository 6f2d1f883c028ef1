package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/project"
)

// loadFile loads a project file with the CLI's options. legacy forces the
// migration pass.
func (c *CLI) loadFile(ctx context.Context, path string, legacy bool) (*project.Loaded, error) {
	opts, err := c.projectOptions()
	if err != nil {
		return nil, err
	}
	opts.Legacy = legacy
	return project.ImportFile(ctx, path, opts)
}

// errorText is the message printed for a failed command: the coded
// error's message plus its cause, without the code.
func errorText(err error) string {
	var e *errors.Error
	if errors.As(err, &e) && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return errors.UserMessage(err)
}

// reportStats renders the one-line summary of a load.
func (c *CLI) reportStats(l *project.Loaded) {
	s := l.Report.Stats
	parts := []string{
		plural(s.Modules, "module"),
		plural(s.Nodes, "node"),
		plural(s.Connections, "connection"),
	}
	if s.Isolated > 0 {
		parts = append(parts, fmt.Sprintf("%d isolated", s.Isolated))
	}
	if l.Migration != nil && l.Migration.Migrated {
		parts = append(parts, migrationTag(false))
	}
	if l.Repaired {
		parts = append(parts, "repaired")
	}
	c.printStats(parts...)
}

// fileReport is the JSON output of validate for one file.
type fileReport struct {
	File   string          `json:"file"`
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Report *project.Report `json:"report,omitempty"`
}

func (c *CLI) validateCommand() *cobra.Command {
	var (
		legacy bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check that project files load",
		Long: `Check that project files load.

Each file is read, migrated when it has the legacy shape, checked and
deserialized exactly as the editor would. Problems that block loading are
errors; content that loads with losses (connections to missing nodes, unknown
node types) is reported as warnings.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var reports []fileReport
			failed := 0
			for _, path := range args {
				r := fileReport{File: path}
				loaded, err := c.loadFile(ctx, path, legacy)
				if err != nil {
					failed++
					r.Error = errorText(err)
					reports = append(reports, r)
					if !asJSON {
						c.printError("%s: %s", path, r.Error)
					}
					continue
				}
				r.OK, r.Report = true, loaded.Report
				reports = append(reports, r)
				if asJSON {
					continue
				}
				c.printSuccess("%s", path)
				c.reportStats(loaded)
				for _, w := range loaded.Report.Warnings {
					c.printWarning("%s", w)
				}
			}

			if asJSON {
				if err := c.writeJSON(reports); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d projects failed to load", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&legacy, "legacy", false, "run the migration pass even if the file does not look legacy")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON reports")
	return cmd
}

// moduleSummary describes one module for inspect.
type moduleSummary struct {
	Name     string         `json:"name"`
	Nodes    int            `json:"nodes"`
	Edges    int            `json:"edges"`
	Types    map[string]int `json:"types"`
	Isolated []string       `json:"isolated,omitempty"`
	Unknown  []string       `json:"unknown,omitempty"`
}

func (c *CLI) inspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Describe a project and its modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := c.loadFile(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}

			coll := loaded.Collection
			var mods []moduleSummary
			for _, e := range coll.Snapshot() {
				s := e.Graph.Stats()
				mods = append(mods, moduleSummary{
					Name:     e.Name,
					Nodes:    s.Nodes,
					Edges:    s.Edges,
					Types:    s.Types,
					Isolated: s.Isolated,
					Unknown:  s.Unknown,
				})
			}

			doc := loaded.Document
			if asJSON {
				return c.writeJSON(map[string]any{
					"name":     doc.Name,
					"version":  doc.Version,
					"created":  doc.Created,
					"modified": doc.Modified,
					"current":  coll.Current(),
					"modules":  mods,
				})
			}

			title := doc.Name
			if title == "" {
				title = args[0]
			}
			fmt.Fprintln(c.out, StyleTitle.Render(title))
			if doc.Description != "" {
				c.printDetail("%s", doc.Description)
			}
			c.printKeyValue("version", doc.Version)
			c.printKeyValue("created", doc.Created)
			c.printKeyValue("modified", doc.Modified)
			c.printNewline()
			for _, m := range mods {
				name := m.Name
				if name == coll.Current() {
					name += " *"
				}
				fmt.Fprintln(c.out, StyleHighlight.Render(name))
				c.printStats(plural(m.Nodes, "node"), plural(m.Edges, "edge"), plural(len(m.Types), "type"))
				if len(m.Unknown) > 0 {
					c.printWarning("unknown node types on %s", strings.Join(m.Unknown, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// migratedName returns the default output path for a migrated file.
func migratedName(input string) string {
	base := strings.TrimSuffix(input, project.ExportSuffix)
	base = strings.TrimSuffix(base, ".json")
	return base + ".migrated" + project.ExportSuffix
}

func (c *CLI) migrateCommand() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "migrate <file>",
		Short: "Convert a legacy project file to the current format",
		Long: `Convert a legacy project file to the current format.

Legacy files (a bare moduleList without version or graph) are wrapped in the
current envelope; retired node types, control keys and input names are
renamed. Unknown fields are kept. Files already in the current format are left
alone unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			prog := newProgress(loggerFromContext(cmd.Context()))

			loaded, err := c.loadFile(cmd.Context(), input, force)
			if err != nil {
				return err
			}
			res := loaded.Migration
			if res == nil || !res.Migrated {
				c.printInfo("%s is already in the current format", input)
				return nil
			}

			if output == "" {
				output = migratedName(input)
			}
			if err := writeJSONFile(output, res.OrderedDocument()); err != nil {
				return err
			}
			prog.done("Migrated " + input)

			c.printSuccess("Migrated %s", input)
			c.printFile(output)
			c.printStats(
				plural(res.Stats.Modules, "module"),
				plural(res.Stats.Nodes, "node"),
				fmt.Sprintf("%d types renamed", res.Stats.TypesRenamed),
				fmt.Sprintf("%d controls renamed", res.Stats.ParamsRenamed),
				fmt.Sprintf("%d inputs remapped", res.Stats.InputsRemapped),
			)
			for _, w := range loaded.Report.Warnings {
				c.printWarning("%s", w)
			}
			c.printNewline()
			c.printNextStep("Inspect", appName+" inspect "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.migrated"+project.ExportSuffix+")")
	cmd.Flags().BoolVar(&force, "force", false, "run the migration pass on current-format files too")
	return cmd
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return f.Close()
}

func (c *CLI) queryCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "query <file> <jq-expression>",
		Short: "Run a jq expression over a project file",
		Example: `  shadergraph query scene.asmblr.json '.graph.moduleList | keys'
  shadergraph query scene.asmblr.json -r '.graph.moduleList[].nodes[].name' | sort | uniq -c`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			var doc any
			if err := json.Unmarshal(data, &doc); err != nil {
				return errors.Wrap(errors.ErrCodeMalformedProject, err, "decode %s", args[0])
			}

			results, err := project.Query(cmd.Context(), doc, args[1])
			if err != nil {
				return err
			}
			for _, v := range results {
				if s, ok := v.(string); ok && raw {
					fmt.Fprintln(c.out, s)
					continue
				}
				if err := c.writeJSON(v); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&raw, "raw-output", "r", false, "print strings without quotes")
	return cmd
}

func (c *CLI) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the project format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := project.Schema()
			if err != nil {
				return err
			}
			return c.writeJSON(s)
		},
	}
}
