package graph

import (
	"maps"
	"slices"
)

// Position is a node's location on the editor canvas.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Node is a runtime instance of a node type. Data holds control values keyed
// by control key; keys that name no control are carried along untouched.
type Node struct {
	ID       string         `json:"id" bson:"id"`
	Type     string         `json:"type" bson:"type"`
	Position Position       `json:"position" bson:"position"`
	Data     map[string]any `json:"data" bson:"data"`
	// Extra holds stored fields this package does not interpret. They are
	// kept so a loaded node saves back with them.
	Extra map[string]any `json:"extra,omitempty" bson:"extra,omitempty"`
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Data = cloneData(n.Data)
	if n.Extra != nil {
		c.Extra = cloneData(n.Extra)
	}
	return &c
}

// Edge connects an output of one node to an input of another.
type Edge struct {
	ID           string `json:"id" bson:"id"`
	Source       string `json:"source" bson:"source"`
	SourceOutput string `json:"sourceOutput" bson:"sourceOutput"`
	Target       string `json:"target" bson:"target"`
	TargetInput  string `json:"targetInput" bson:"targetInput"`
}

// sameEndpoints reports whether two edges join the same sockets.
func (e Edge) sameEndpoints(o Edge) bool {
	return e.Source == o.Source && e.SourceOutput == o.SourceOutput &&
		e.Target == o.Target && e.TargetInput == o.TargetInput
}

// cloneData deep-copies a control value map. Slices and nested maps are
// copied; other values are immutable scalars.
func cloneData(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := slices.Clone(x)
		for i := range out {
			out[i] = cloneValue(out[i])
		}
		return out
	case []float64:
		return slices.Clone(x)
	case map[string]any:
		out := maps.Clone(x)
		for k := range out {
			out[k] = cloneValue(out[k])
		}
		return out
	}
	return v
}
