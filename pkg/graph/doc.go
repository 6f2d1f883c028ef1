// Package graph implements the node graph of one module: node instances,
// the edges between their sockets, and the rules that keep the two
// consistent.
//
// # Nodes and the factory
//
// A [Node] is a generic instance: an id, a type id into a
// [nodes.Registry], a canvas position and a map of control values. Use a
// [Factory] to create nodes; it assigns a UUID and seeds every control from
// caller data or the control's default.
//
//	f := graph.NewFactory(reg)
//	rect, _ := f.Create("Rectangle2D", map[string]any{"size": []any{1.0, 1.0}}, nil)
//	g := graph.New(reg)
//	g.AddNode(*rect)
//
// # Connections
//
// [Graph.Connect] validates a proposed edge in a fixed order (self-loop,
// missing node, unknown type, unknown socket, incompatible sockets) and
// returns a coded error from pkg/errors for the first failure. A rejected
// connection never changes the graph.
//
// Inputs that are not variadic hold at most one edge. Connecting to an
// occupied single input replaces the existing edge; this is how a user
// rewires an input by dragging a new edge onto it. Variadic inputs
// accumulate edges.
//
// # Linked controls
//
// A control whose LinkedToInput names an input is hidden while that input
// is connected, since the upstream value replaces the literal. See
// [Graph.ControlVisible] and [Graph.VisibleControls]. Disconnecting leaves
// the control's last value in place.
//
// # Removal
//
// [Graph.RemoveNode] deletes the node and every edge touching it, so no
// edge ever points at a missing node.
package graph
