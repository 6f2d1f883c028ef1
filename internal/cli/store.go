package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shadergraph/pkg/project"
	"github.com/matzehuels/shadergraph/pkg/store"
)

// storeCommand creates the project store command group.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Save and load projects in a store",
		Long: `Save and load projects in a store.

The store is chosen with --store, SHADERGRAPH_STORE or the config file:

  file:///path/to/dir       one JSON file per project (default: ~/.config/shadergraph/projects)
  badger:///path/to/dir     embedded BadgerDB
  redis://localhost:6379/0  Redis
  mongodb://localhost/db    MongoDB collection "projects"`,
	}

	cmd.AddCommand(c.storeSaveCommand())
	cmd.AddCommand(c.storeLoadCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, c.cfg.Store, store.Options{Logger: c.Logger})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// keyFor derives a store key from a project file name.
func keyFor(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, project.ExportSuffix)
	return strings.TrimSuffix(base, ".json")
}

func (c *CLI) storeSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <file> [key]",
		Short: "Save a project file to the store",
		Long: `Save a project file to the store.

The file is loaded first (legacy files are migrated) and saved in the current
format. The key defaults to the file name without its extension.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := keyFor(args[0])
			if len(args) == 2 {
				key = args[1]
			}

			loaded, err := c.loadFile(ctx, args[0], false)
			if err != nil {
				return err
			}
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			prev := loaded.Document
			doc := project.Serialize(loaded.Collection, prev.EditorSettings.Viewport, prev)
			if err := store.SaveDocument(ctx, s, key, doc); err != nil {
				return err
			}
			c.printSuccess("Saved %s as %s", args[0], StyleHighlight.Render(key))
			return nil
		},
	}
}

func (c *CLI) storeLoadCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "load <key>",
		Short: "Write a stored project to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			opts, err := c.projectOptions()
			if err != nil {
				return err
			}
			loaded, err := store.LoadProject(ctx, s, key, opts)
			if err != nil {
				return fmt.Errorf("load %s: %w", key, err)
			}

			if output == "" {
				output = key
			}
			written, err := project.ExportFile(ctx, loaded.Document, output)
			if err != nil {
				return err
			}
			c.printSuccess("Loaded %s", StyleHighlight.Render(key))
			c.printFile(written)
			c.reportStats(loaded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <key>"+project.ExportSuffix+")")
	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored projects, most recently modified first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.List(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []store.Entry{}
				}
				return c.writeJSON(entries)
			}
			if len(entries) == 0 {
				c.printInfo("No stored projects")
				return nil
			}
			for _, e := range entries {
				name := e.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(c.out, "%s %s %s\n",
					StyleHighlight.Render(fmt.Sprintf("%-24s", e.Key)),
					StyleValue.Render(fmt.Sprintf("%-28s", name)),
					StyleDim.Render(e.Modified))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a stored project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(ctx, args[0]); err != nil {
				return err
			}
			c.printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}
