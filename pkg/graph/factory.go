package graph

import (
	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/nodes"
)

// Auto-placement grid, in canvas units.
const (
	gridSize   = 250.0
	gridStartX = 100.0
	gridStartY = 100.0
	gridCells  = 10

	nodeWidth   = 180.0
	nodeHeight  = 80.0
	nodePadding = 50.0

	cloneOffset = 50.0
)

// Factory creates node instances from registered types. Nodes it returns are
// unattached; add them to a graph with [Graph.AddNode].
type Factory struct {
	resolver nodes.Resolver
	newID    IDFunc
}

// NewFactory creates a factory that resolves types through r and assigns
// UUIDs.
func NewFactory(r nodes.Resolver) *Factory {
	return &Factory{resolver: r, newID: NewID}
}

// SetIDFunc replaces the id generator.
func (f *Factory) SetIDFunc(fn IDFunc) {
	if fn != nil {
		f.newID = fn
	}
}

// Create instantiates a node of type typ. Every control of the type is
// seeded from initial when it holds a non-nil value for the key, and from the
// control's default otherwise. Keys in initial that name no control are kept
// as given. A nil pos places the node at the origin.
//
// Create fails with [errors.ErrCodeUnknownType] if typ is not registered.
func (f *Factory) Create(typ string, initial map[string]any, pos *Position) (*Node, error) {
	def, ok := f.resolver.Get(typ)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownType, "unknown node type %q", typ)
	}

	data := cloneData(initial)
	for _, c := range def.Controls {
		if v, ok := data[c.Key]; ok && v != nil {
			continue
		}
		data[c.Key] = cloneValue(c.DefaultValue())
	}

	n := &Node{ID: f.newID(), Type: typ, Data: data}
	if pos != nil {
		n.Position = *pos
	}
	return n, nil
}

// Clone duplicates a node's type and control values under a fresh id. A nil
// pos places the copy diagonally offset from the original.
func (f *Factory) Clone(n *Node, pos *Position) *Node {
	c := n.Clone()
	c.ID = f.newID()
	c.Extra = nil
	if pos != nil {
		c.Position = *pos
	} else {
		c.Position = Position{X: n.Position.X + cloneOffset, Y: n.Position.Y + cloneOffset}
	}
	return c
}

// AutoPosition returns the first free cell of a 10×10 placement grid, or a
// spot below the grid when every cell overlaps an existing node.
func AutoPosition(existing []*Node) Position {
	for row := range gridCells {
		for col := range gridCells {
			p := Position{X: gridStartX + float64(col)*gridSize, Y: gridStartY + float64(row)*gridSize}
			if !overlapsAny(p, existing) {
				return p
			}
		}
	}
	n := len(existing)
	return Position{
		X: gridStartX + float64(n%gridCells)*nodePadding,
		Y: gridStartY + gridCells*gridSize + float64(n/gridCells)*nodePadding,
	}
}

func overlapsAny(p Position, existing []*Node) bool {
	for _, n := range existing {
		if p.X < n.Position.X+nodeWidth+nodePadding &&
			p.X+nodeWidth+nodePadding > n.Position.X &&
			p.Y < n.Position.Y+nodeHeight+nodePadding &&
			p.Y+nodeHeight+nodePadding > n.Position.Y {
			return true
		}
	}
	return false
}
