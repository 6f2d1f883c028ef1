package modules

import (
	"reflect"
	"testing"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/graph"
	"github.com/matzehuels/shadergraph/pkg/nodes"
)

func testRegistry() *nodes.Registry {
	r := nodes.NewRegistry()
	r.MustRegister(nodes.Definition{
		Type:    "Sphere3D",
		Outputs: []nodes.OutputSpec{{Key: "expr", Socket: nodes.SocketExpression}},
	})
	return r
}

func graphWith(r nodes.Resolver, ids ...string) *graph.Graph {
	g := graph.New(r)
	for _, id := range ids {
		g.AddNode(graph.Node{ID: id, Type: "Sphere3D"})
	}
	return g
}

func TestAddAutoNames(t *testing.T) {
	c := New(testRegistry())

	for i, want := range []string{"module0", "module1"} {
		name, err := c.Add("", nil)
		if err != nil {
			t.Fatal(err)
		}
		if name != want {
			t.Errorf("Add #%d name = %q, want %q", i, name, want)
		}
	}

	if _, err := c.Add("module1", nil); !errors.Is(err, errors.ErrCodeDuplicateModule) {
		t.Errorf("Add duplicate error = %v", err)
	}

	c.Rename("module0", "module2")
	name, _ := c.Add("", nil)
	if name != "module3" {
		t.Errorf("auto name after collision = %q, want module3", name)
	}

	g, _ := c.Get("module1")
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Error("default module graph is not empty")
	}
}

func TestRenameCurrent(t *testing.T) {
	r := testRegistry()
	c := New(r)
	c.Add("a", graphWith(r, "n1"))
	c.Add("b", nil)
	if _, err := c.Open("a"); err != nil {
		t.Fatal(err)
	}

	if err := c.Rename("a", "main"); err != nil {
		t.Fatal(err)
	}
	if c.Current() != "main" {
		t.Errorf("Current() = %q, want main", c.Current())
	}
	if got := c.Names(); !reflect.DeepEqual(got, []string{"main", "b"}) {
		t.Errorf("Names() = %v", got)
	}
	g, ok := c.Get("main")
	if !ok || g.NodeCount() != 1 {
		t.Error("renamed module lost its graph")
	}

	if err := c.Rename("missing", "x"); !errors.Is(err, errors.ErrCodeUnknownModule) {
		t.Errorf("Rename(missing) error = %v", err)
	}
	if err := c.Rename("main", "b"); !errors.Is(err, errors.ErrCodeDuplicateModule) {
		t.Errorf("Rename onto existing error = %v", err)
	}
}

func TestOpenSyncsPrevious(t *testing.T) {
	r := testRegistry()
	c := New(r)
	c.Add("a", nil)
	c.Add("b", nil)

	live, _ := c.Open("a")
	live.AddNode(graph.Node{ID: "edit", Type: "Sphere3D"})

	stored, _ := c.Get("a")
	if stored.NodeCount() != 0 {
		t.Error("edit reached stored graph before sync")
	}

	liveB, _ := c.Open("b")
	if liveB.NodeCount() != 0 {
		t.Error("opened module is not a fresh copy of b")
	}
	stored, _ = c.Get("a")
	if stored.NodeCount() != 1 {
		t.Error("Open did not commit the previous module")
	}
	if c.Current() != "b" {
		t.Errorf("Current() = %q, want b", c.Current())
	}

	if _, err := c.Open("nope"); !errors.Is(err, errors.ErrCodeUnknownModule) {
		t.Errorf("Open(nope) error = %v", err)
	}
	if c.Current() != "b" {
		t.Error("failed Open changed current module")
	}
}

func TestSnapshotCommits(t *testing.T) {
	r := testRegistry()
	c := New(r)
	c.Add("a", nil)
	live, _ := c.Open("a")
	live.AddNode(graph.Node{ID: "x", Type: "Sphere3D"})

	snap := c.Snapshot()
	if len(snap) != 1 || snap[0].Graph.NodeCount() != 1 {
		t.Fatalf("Snapshot() = %+v", snap)
	}

	snap[0].Graph.RemoveNode("x")
	if g, _ := c.Get("a"); g.NodeCount() != 1 {
		t.Error("snapshot aliases stored graph")
	}
}

func TestImport(t *testing.T) {
	r := testRegistry()
	c := New(r)
	c.Add("old", graphWith(r, "o1"))

	err := c.Import([]Entry{
		{Name: "first", Graph: graphWith(r, "f1", "f2")},
		{Name: "second"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Names(); !reflect.DeepEqual(got, []string{"first", "second"}) {
		t.Errorf("Names() = %v", got)
	}
	if c.Current() != "first" || c.Live().NodeCount() != 2 {
		t.Errorf("Import opened %q with %d nodes", c.Current(), c.Live().NodeCount())
	}
}

func TestImportEmptyKeepsState(t *testing.T) {
	r := testRegistry()
	c := New(r)
	c.Add("keep", graphWith(r, "k1"))
	c.Open("keep")

	if err := c.Import(nil); !errors.Is(err, errors.ErrCodeEmptyImport) {
		t.Fatalf("Import(nil) error = %v, want %s", err, errors.ErrCodeEmptyImport)
	}
	if err := c.Import([]Entry{{Name: "x"}, {Name: "x"}}); !errors.Is(err, errors.ErrCodeDuplicateModule) {
		t.Fatalf("Import(dup) error = %v", err)
	}

	if got := c.Names(); !reflect.DeepEqual(got, []string{"keep"}) {
		t.Errorf("Names() = %v, want [keep]", got)
	}
	if c.Current() != "keep" || c.Live() == nil || c.Live().NodeCount() != 1 {
		t.Error("failed import disturbed the open module")
	}
}

func TestRemove(t *testing.T) {
	c := New(testRegistry())
	c.Add("a", nil)
	c.Add("b", nil)
	c.Open("a")

	if err := c.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if c.Current() != "" || c.Live() != nil {
		t.Error("removing the open module left it checked out")
	}
	if err := c.Remove("a"); !errors.Is(err, errors.ErrCodeUnknownModule) {
		t.Errorf("Remove twice error = %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
