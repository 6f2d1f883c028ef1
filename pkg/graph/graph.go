package graph

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/nodes"
)

// IDFunc generates identifiers for new nodes and edges.
type IDFunc func() string

// NewID returns a random UUID string. It is the default [IDFunc].
func NewID() string { return uuid.NewString() }

// Graph is the mutable node and edge set of one module.
//
// Every edge's endpoints refer to nodes in the graph; the mutating methods
// keep it that way. Validation failures never leave the graph partially
// modified.
//
// The zero value is not usable - use [New]. A Graph is not safe for
// concurrent use.
type Graph struct {
	resolver nodes.Resolver
	newID    IDFunc

	nodes []*Node
	index map[string]*Node
	edges []Edge
}

// New creates an empty graph that resolves node types through r.
func New(r nodes.Resolver) *Graph {
	return &Graph{
		resolver: r,
		newID:    NewID,
		index:    make(map[string]*Node),
	}
}

// SetIDFunc replaces the generator used for new edge ids.
func (g *Graph) SetIDFunc(fn IDFunc) {
	if fn != nil {
		g.newID = fn
	}
}

// Resolver returns the node type resolver the graph validates against.
func (g *Graph) Resolver() nodes.Resolver { return g.resolver }

// AddNode inserts n. The graph keeps its own copy. It fails with
// [errors.ErrCodeInvalidInput] when the id is empty or already used.
//
// AddNode does not require n.Type to be registered: a graph loaded from a
// file may contain types this build does not know. Such nodes cannot be
// connected until their type is available.
func (g *Graph) AddNode(n Node) (*Node, error) {
	if n.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node id must not be empty")
	}
	if _, exists := g.index[n.ID]; exists {
		return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate node id %q", n.ID)
	}
	node := n.Clone()
	g.nodes = append(g.nodes, node)
	g.index[node.ID] = node
	return node.Clone(), nil
}

// Node returns a copy of the node with the given id. Changes to the copy
// do not reach the graph; use [Graph.SetData] and [Graph.Move].
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Nodes returns copies of the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (Edge, bool) {
	i := slices.IndexFunc(g.edges, func(e Edge) bool { return e.ID == id })
	if i < 0 {
		return Edge{}, false
	}
	return g.edges[i], true
}

// RemoveNode deletes a node together with every edge that starts or ends
// at it. It fails with [errors.ErrCodeUnknownNode] if id is absent.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.index[id]; !ok {
		return errors.New(errors.ErrCodeUnknownNode, "node %q not found", id)
	}
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
		return e.Source == id || e.Target == id
	})
	g.nodes = slices.DeleteFunc(g.nodes, func(n *Node) bool { return n.ID == id })
	delete(g.index, id)
	return nil
}

// Connect links output sourceOutput of node source to input targetInput of
// node target. The checks run in a fixed order and the first failure is
// returned:
//
//  1. source == target: [errors.ErrCodeSelfConnection]
//  2. either node missing: [errors.ErrCodeUnknownNode]
//  3. either node's type unresolvable: [errors.ErrCodeUnknownType]
//  4. output or input key not declared by the type: [errors.ErrCodeUnknownSocket]
//  5. socket types not [nodes.Compatible]: [errors.ErrCodeSocketTypeMismatch]
//
// When the target input is not variadic, any edge already ending at it is
// replaced by the new one. Connecting the same sockets twice returns the
// existing edge.
func (g *Graph) Connect(source, sourceOutput, target, targetInput string) (Edge, error) {
	if source == target {
		return Edge{}, errors.New(errors.ErrCodeSelfConnection, "cannot connect node %q to itself", source)
	}

	src, ok := g.index[source]
	if !ok {
		return Edge{}, errors.New(errors.ErrCodeUnknownNode, "source node %q not found", source)
	}
	dst, ok := g.index[target]
	if !ok {
		return Edge{}, errors.New(errors.ErrCodeUnknownNode, "target node %q not found", target)
	}

	srcDef, err := g.definition(src)
	if err != nil {
		return Edge{}, err
	}
	dstDef, err := g.definition(dst)
	if err != nil {
		return Edge{}, err
	}

	out, ok := srcDef.Output(sourceOutput)
	if !ok {
		return Edge{}, errors.New(errors.ErrCodeUnknownSocket, "%s has no output %q", srcDef.Type, sourceOutput)
	}
	in, ok := dstDef.Input(targetInput)
	if !ok {
		return Edge{}, errors.New(errors.ErrCodeUnknownSocket, "%s has no input %q", dstDef.Type, targetInput)
	}

	if !nodes.Compatible(out.Socket, in.Socket) {
		return Edge{}, errors.New(errors.ErrCodeSocketTypeMismatch,
			"cannot connect %s.%s (%s) to %s.%s (%s)",
			srcDef.Type, sourceOutput, out.Socket, dstDef.Type, targetInput, in.Socket)
	}

	edge := Edge{
		Source:       source,
		SourceOutput: sourceOutput,
		Target:       target,
		TargetInput:  targetInput,
	}
	if i := slices.IndexFunc(g.edges, edge.sameEndpoints); i >= 0 {
		return g.edges[i], nil
	}

	if !in.Variadic {
		g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
			return e.Target == target && e.TargetInput == targetInput
		})
	}

	edge.ID = g.newID()
	g.edges = append(g.edges, edge)
	return edge, nil
}

// Disconnect removes the edge with the given id and reports whether it was
// present. Control values on the target are left as they are.
func (g *Graph) Disconnect(edgeID string) bool {
	n := len(g.edges)
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.ID == edgeID })
	return len(g.edges) != n
}

// RestoreEdge inserts an edge read from storage, keeping its id. Only the
// endpoints are checked ([errors.ErrCodeUnknownNode]); socket keys and
// types are trusted, since a stored graph may reference node types this
// build does not know. An empty id is replaced by a fresh one.
func (g *Graph) RestoreEdge(e Edge) (Edge, error) {
	if _, ok := g.index[e.Source]; !ok {
		return Edge{}, errors.New(errors.ErrCodeUnknownNode, "edge %q: source node %q not found", e.ID, e.Source)
	}
	if _, ok := g.index[e.Target]; !ok {
		return Edge{}, errors.New(errors.ErrCodeUnknownNode, "edge %q: target node %q not found", e.ID, e.Target)
	}
	if e.ID == "" {
		e.ID = g.newID()
	}
	g.edges = append(g.edges, e)
	return e, nil
}

// SetData sets a control value on a node.
func (g *Graph) SetData(nodeID, key string, value any) error {
	n, ok := g.index[nodeID]
	if !ok {
		return errors.New(errors.ErrCodeUnknownNode, "node %q not found", nodeID)
	}
	if n.Data == nil {
		n.Data = map[string]any{}
	}
	n.Data[key] = value
	return nil
}

// Move sets a node's canvas position.
func (g *Graph) Move(nodeID string, pos Position) error {
	n, ok := g.index[nodeID]
	if !ok {
		return errors.New(errors.ErrCodeUnknownNode, "node %q not found", nodeID)
	}
	n.Position = pos
	return nil
}

// Incoming returns the edges ending at nodeID.
func (g *Graph) Incoming(nodeID string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Target == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns the edges starting at nodeID.
func (g *Graph) Outgoing(nodeID string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// ConnectedInputs returns the set of input keys on nodeID that have at
// least one incoming edge.
func (g *Graph) ConnectedInputs(nodeID string) map[string]bool {
	out := make(map[string]bool)
	for _, e := range g.edges {
		if e.Target == nodeID {
			out[e.TargetInput] = true
		}
	}
	return out
}

// ControlVisible reports whether a node's control should be shown: a
// control linked to an input is hidden while that input is connected.
func (g *Graph) ControlVisible(nodeID, controlKey string) (bool, error) {
	n, ok := g.index[nodeID]
	if !ok {
		return false, errors.New(errors.ErrCodeUnknownNode, "node %q not found", nodeID)
	}
	def, err := g.definition(n)
	if err != nil {
		return false, err
	}
	c, ok := def.Control(controlKey)
	if !ok {
		return false, errors.New(errors.ErrCodeUnknownSocket, "%s has no control %q", def.Type, controlKey)
	}
	if c.LinkedToInput == "" {
		return true, nil
	}
	return !g.ConnectedInputs(nodeID)[c.LinkedToInput], nil
}

// VisibleControls returns the node's controls that are currently shown, in
// declaration order.
func (g *Graph) VisibleControls(nodeID string) ([]nodes.ControlSpec, error) {
	n, ok := g.index[nodeID]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownNode, "node %q not found", nodeID)
	}
	def, err := g.definition(n)
	if err != nil {
		return nil, err
	}
	connected := g.ConnectedInputs(nodeID)
	var out []nodes.ControlSpec
	for _, c := range def.Controls {
		if c.LinkedToInput == "" || !connected[c.LinkedToInput] {
			out = append(out, c)
		}
	}
	return out, nil
}

// Clone returns a deep copy of the graph sharing the same resolver.
func (g *Graph) Clone() *Graph {
	c := New(g.resolver)
	c.newID = g.newID
	for _, n := range g.nodes {
		node := n.Clone()
		c.nodes = append(c.nodes, node)
		c.index[node.ID] = node
	}
	c.edges = slices.Clone(g.edges)
	return c
}

// Stats summarizes a graph.
type Stats struct {
	Nodes     int
	Edges     int
	Types     map[string]int
	Isolated  []string
	Unknown   []string // node ids whose type does not resolve
	Variadics int      // edges ending on variadic inputs
}

// Stats computes node and edge counts, node type usage, isolated nodes
// (no edges at all) and nodes with unresolvable types.
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.nodes), Edges: len(g.edges), Types: make(map[string]int)}
	touched := make(map[string]bool, len(g.nodes))
	for _, e := range g.edges {
		touched[e.Source] = true
		touched[e.Target] = true
		if n, ok := g.index[e.Target]; ok {
			if def, ok := g.resolver.Get(n.Type); ok {
				if in, ok := def.Input(e.TargetInput); ok && in.Variadic {
					s.Variadics++
				}
			}
		}
	}
	for _, n := range g.nodes {
		s.Types[n.Type]++
		if !touched[n.ID] {
			s.Isolated = append(s.Isolated, n.ID)
		}
		if _, ok := g.resolver.Get(n.Type); !ok {
			s.Unknown = append(s.Unknown, n.ID)
		}
	}
	return s
}

func (g *Graph) definition(n *Node) (*nodes.Definition, error) {
	def, ok := g.resolver.Get(n.Type)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownType, "node %q has unknown type %q", n.ID, n.Type)
	}
	return def, nil
}
