// Package modules manages the named graphs of a project.
//
// A [Collection] maps module names to graphs and tracks which module is
// open in the editor. The open module is checked out: [Collection.Open]
// hands the editor a private working copy ([Collection.Live]) and
// [Collection.Sync] commits that copy back. While a module is open the
// working copy is authoritative; the stored copy is authoritative at rest.
// Callers must Sync before reading stored graphs for serialization, which
// [Collection.Snapshot] does for them.
package modules

import (
	"fmt"
	"slices"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/graph"
	"github.com/matzehuels/shadergraph/pkg/nodes"
)

// Entry is a named module graph.
type Entry struct {
	Name  string
	Graph *graph.Graph
}

// Collection is an ordered set of named module graphs with at most one
// module checked out. The zero value is not usable - use [New].
// A Collection is not safe for concurrent use.
type Collection struct {
	resolver nodes.Resolver
	modules  map[string]*graph.Graph
	order    []string

	current string
	live    *graph.Graph
}

// New creates an empty collection whose graphs resolve types through r.
func New(r nodes.Resolver) *Collection {
	return &Collection{resolver: r, modules: make(map[string]*graph.Graph)}
}

// Resolver returns the resolver new module graphs are created with.
func (c *Collection) Resolver() nodes.Resolver { return c.resolver }

// Len returns the number of modules.
func (c *Collection) Len() int { return len(c.order) }

// Names returns module names in insertion order.
func (c *Collection) Names() []string { return slices.Clone(c.order) }

// Current returns the name of the checked-out module, or "" if none.
func (c *Collection) Current() string { return c.current }

// Live returns the checked-out working graph, or nil if no module is open.
// Edits made to it reach the collection on the next [Collection.Sync].
func (c *Collection) Live() *graph.Graph { return c.live }

// Get returns the stored graph for name. While name is checked out the
// stored graph may lag behind [Collection.Live].
func (c *Collection) Get(name string) (*graph.Graph, bool) {
	g, ok := c.modules[name]
	return g, ok
}

// Add stores a module. An empty name is replaced by "module<N>", N being the
// current module count (bumped past any name already taken). A nil g adds an
// empty graph. Add returns the name used.
func (c *Collection) Add(name string, g *graph.Graph) (string, error) {
	if name == "" {
		name = c.autoName()
	}
	if err := errors.ValidateModuleName(name); err != nil {
		return "", err
	}
	if _, exists := c.modules[name]; exists {
		return "", errors.New(errors.ErrCodeDuplicateModule, "module %q already exists", name)
	}
	if g == nil {
		g = graph.New(c.resolver)
	}
	c.modules[name] = g
	c.order = append(c.order, name)
	return name, nil
}

func (c *Collection) autoName() string {
	for n := len(c.order); ; n++ {
		name := fmt.Sprintf("module%d", n)
		if _, taken := c.modules[name]; !taken {
			return name
		}
	}
}

// Rename moves module from to the name to, keeping its graph and position.
// If from is checked out, the checkout follows the rename.
func (c *Collection) Rename(from, to string) error {
	g, ok := c.modules[from]
	if !ok {
		return errors.New(errors.ErrCodeUnknownModule, "module %q not found", from)
	}
	if from == to {
		return nil
	}
	if err := errors.ValidateModuleName(to); err != nil {
		return err
	}
	if _, exists := c.modules[to]; exists {
		return errors.New(errors.ErrCodeDuplicateModule, "module %q already exists", to)
	}

	delete(c.modules, from)
	c.modules[to] = g
	c.order[slices.Index(c.order, from)] = to
	if c.current == from {
		c.current = to
	}
	return nil
}

// Remove deletes a module. Removing the checked-out module discards the
// working copy and leaves nothing open.
func (c *Collection) Remove(name string) error {
	if _, ok := c.modules[name]; !ok {
		return errors.New(errors.ErrCodeUnknownModule, "module %q not found", name)
	}
	delete(c.modules, name)
	c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == name })
	if c.current == name {
		c.current = ""
		c.live = nil
	}
	return nil
}

// Sync commits the working graph into the stored collection. It is a no-op
// when nothing is checked out.
func (c *Collection) Sync() {
	if c.current == "" || c.live == nil {
		return
	}
	c.modules[c.current] = c.live.Clone()
}

// Open commits the current working graph, then checks out name: the live
// graph becomes a fresh copy of the stored one and name becomes current.
func (c *Collection) Open(name string) (*graph.Graph, error) {
	g, ok := c.modules[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownModule, "module %q not found", name)
	}
	c.Sync()
	c.live = g.Clone()
	c.current = name
	return c.live, nil
}

// Import replaces the whole collection with entries, in order, and opens the
// first one. It fails with [errors.ErrCodeEmptyImport] when entries is
// empty. All entries are checked before anything changes, so a failed
// import leaves the collection as it was.
func (c *Collection) Import(entries []Entry) error {
	if len(entries) == 0 {
		return errors.New(errors.ErrCodeEmptyImport, "project contains no modules")
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if err := errors.ValidateModuleName(e.Name); err != nil {
			return err
		}
		if seen[e.Name] {
			return errors.New(errors.ErrCodeDuplicateModule, "module %q listed twice", e.Name)
		}
		seen[e.Name] = true
	}

	c.modules = make(map[string]*graph.Graph, len(entries))
	c.order = nil
	c.current = ""
	c.live = nil
	for _, e := range entries {
		g := e.Graph
		if g == nil {
			g = graph.New(c.resolver)
		}
		c.modules[e.Name] = g
		c.order = append(c.order, e.Name)
	}
	_, err := c.Open(entries[0].Name)
	return err
}

// Snapshot commits the working graph and returns copies of every stored
// module in order.
func (c *Collection) Snapshot() []Entry {
	c.Sync()
	out := make([]Entry, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, Entry{Name: name, Graph: c.modules[name].Clone()})
	}
	return out
}
