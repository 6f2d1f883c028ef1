// Package cli implements the shadergraph command-line interface.
//
// The commands work on project files and stores:
//   - nodes: browse the node type catalog and its modes
//   - validate, inspect, migrate, query, schema: read project documents
//   - edit: change a project file (add nodes, connect sockets, set controls)
//   - store: save, load, list and delete projects in a store backend
//   - export: write a module as Graphviz DOT or SVG
//   - cache: manage the migration cache
//
// All commands support --verbose (-v) for debug logging; the logger travels
// through context.Context.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/shadergraph/pkg/buildinfo"
	"github.com/matzehuels/shadergraph/pkg/cache"
	"github.com/matzehuels/shadergraph/pkg/nodes"
	"github.com/matzehuels/shadergraph/pkg/nodes/catalog"
	"github.com/matzehuels/shadergraph/pkg/project"
)

// appName is the application name used for directories and display.
const appName = "shadergraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out   io.Writer
	cfg   Config
	flags rootFlags
	reg   *nodes.Registry
	cache cache.Cache
}

// rootFlags are the persistent flags that override the config file.
type rootFlags struct {
	config  string
	store   string
	mode    string
	catalog string
	repair  bool
	noCache bool
}

// New creates a CLI that logs to w at level and prints results to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
		cfg:    defaultConfig(),
	}
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) { c.out = w }

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "shadergraph inspects, migrates and edits node-graph projects",
		Long: `shadergraph works with the project files of the procedural geometry node editor.

It validates and migrates project documents, edits their graphs with the same
connection rules the editor enforces, and moves projects in and out of stores.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return c.setup(cmd) },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.cache != nil {
				return c.cache.Close()
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.config, "config", "", "config file (default: $XDG_CONFIG_HOME/shadergraph/config.toml)")
	pf.StringVar(&c.flags.store, "store", "", "project store URL: file:///dir, badger:///dir, redis://host/0, mongodb://host/db, memory://")
	pf.StringVar(&c.flags.mode, "mode", "", "node set mode (neo, sysl, geolipi)")
	pf.StringVar(&c.flags.catalog, "catalog", "", "additional node catalog TOML file")
	pf.BoolVar(&c.flags.repair, "repair", false, "repair malformed project JSON before loading")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "disable the migration cache")

	root.AddCommand(c.nodesCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.migrateCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.schemaCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration, applies flag overrides and attaches the
// logger to the command context.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(c.flags.config)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("store") {
		cfg.Store = c.flags.store
	}
	if f.Changed("mode") {
		cfg.Mode = c.flags.mode
	}
	if f.Changed("catalog") {
		cfg.Catalog = c.flags.catalog
	}
	if f.Changed("repair") {
		cfg.Repair = c.flags.repair
	}
	if f.Changed("no-cache") {
		cfg.Cache = !c.flags.noCache
	}
	c.cfg = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	installHooks(c.Logger)
	return nil
}

// registry returns the node catalog, loading it on first use.
func (c *CLI) registry() (*nodes.Registry, error) {
	if c.reg != nil {
		return c.reg, nil
	}
	reg, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	if c.cfg.Catalog != "" {
		if err := catalog.Load(c.cfg.Catalog, reg); err != nil {
			return nil, err
		}
		c.Logger.Debug("loaded catalog", "path", c.cfg.Catalog, "types", reg.Len())
	}
	if c.cfg.Mode != "" && !reg.HasMode(c.cfg.Mode) {
		c.Logger.Warn("unknown mode, offering every node type", "mode", c.cfg.Mode)
	}
	c.reg = reg
	return reg, nil
}

// migrationCache returns the cache for migrated documents: an LRU in front
// of the on-disk cache, or a null cache when caching is off.
func (c *CLI) migrationCache() cache.Cache {
	if c.cache != nil {
		return c.cache
	}
	c.cache = newCache(c.cfg.Cache, c.Logger)
	return c.cache
}

func newCache(enabled bool, logger *log.Logger) cache.Cache {
	if !enabled {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn("migration cache disabled", "err", err)
		return cache.NewNullCache()
	}
	front, err := cache.NewLRUCache(cache.DefaultLRUSize)
	if err != nil {
		return fc
	}
	return cache.Layered(front, fc)
}

// projectOptions returns the load options for project documents.
func (c *CLI) projectOptions() (project.Options, error) {
	reg, err := c.registry()
	if err != nil {
		return project.Options{}, err
	}
	return project.Options{
		Resolver: reg,
		Repair:   c.cfg.Repair,
		Cache:    c.migrationCache(),
		Logger:   c.Logger,
	}, nil
}
