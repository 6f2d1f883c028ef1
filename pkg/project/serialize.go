package project

import (
	"time"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/graph"
	"github.com/matzehuels/shadergraph/pkg/modules"
	"github.com/matzehuels/shadergraph/pkg/nodes"
)

// now is replaced in tests.
var now = time.Now

func timestamp() string { return now().UTC().Format(time.RFC3339Nano) }

// Serialize converts a collection into a document. The working graph is
// committed first. When prev is the document the project was loaded from,
// its creation time, name, description, metadata and unknown top-level
// fields carry over; modified is always the current time.
func Serialize(c *modules.Collection, vp Viewport, prev *Document) *Document {
	stamp := timestamp()
	doc := &Document{
		Version:        Version,
		Created:        stamp,
		Modified:       stamp,
		EditorSettings: EditorSettings{Viewport: vp},
	}
	if prev != nil {
		if prev.Created != "" {
			doc.Created = prev.Created
		}
		doc.Name = prev.Name
		doc.Description = prev.Description
		doc.Metadata = prev.Metadata
		doc.Extra = prev.Extra
	}

	list := ModuleList{}
	for _, e := range c.Snapshot() {
		list = append(list, NamedModule{Name: e.Name, Module: encodeGraph(e.Graph)})
	}
	doc.Graph = &GraphSection{ModuleList: &list}
	return doc
}

func encodeGraph(g *graph.Graph) Module {
	m := Module{Nodes: []NodeRecord{}, Connections: []EdgeRecord{}}
	for _, n := range g.Nodes() {
		pos := n.Position
		data := n.Data
		if data == nil {
			data = map[string]any{}
		}
		m.Nodes = append(m.Nodes, NodeRecord{ID: n.ID, Name: n.Type, Position: &pos, Data: data, Extra: n.Extra})
	}
	for _, e := range g.Edges() {
		m.Connections = append(m.Connections, EdgeRecord(e))
	}
	return m
}

// Deserialize builds a collection from a document and opens its first
// module. It fails with [errors.ErrCodeMissingGraph] when the document has
// no module list and with [errors.ErrCodeEmptyImport] when the list is
// empty. Deserialize does not repair anything: legacy documents must go
// through pkg/migrate first. Connections whose endpoints are missing from
// their module are dropped; [Check] reports them.
func Deserialize(doc *Document, r nodes.Resolver) (*modules.Collection, error) {
	if doc.Graph == nil || doc.Graph.ModuleList == nil {
		return nil, errors.New(errors.ErrCodeMissingGraph, "document has no graph.moduleList")
	}

	entries := make([]modules.Entry, 0, len(*doc.Graph.ModuleList))
	for _, nm := range *doc.Graph.ModuleList {
		g, err := decodeGraph(nm.Module, r)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedProject, err, "module %s", nm.Name)
		}
		entries = append(entries, modules.Entry{Name: nm.Name, Graph: g})
	}

	c := modules.New(r)
	if err := c.Import(entries); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeGraph(m Module, r nodes.Resolver) (*graph.Graph, error) {
	g := graph.New(r)
	for _, rec := range m.Nodes {
		n := graph.Node{ID: rec.ID, Type: rec.TypeID(), Data: rec.Data, Extra: rec.Extra}
		if n.ID == "" {
			n.ID = graph.NewID()
		}
		switch {
		case rec.Position != nil:
			n.Position = *rec.Position
		default:
			n.Position = m.Positions[rec.ID]
		}
		if n.Data == nil {
			n.Data = map[string]any{}
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, rec := range m.Connections {
		if _, err := g.RestoreEdge(graph.Edge(rec)); err != nil {
			if errors.Is(err, errors.ErrCodeUnknownNode) {
				continue
			}
			return nil, err
		}
	}
	return g, nil
}
