// Package nodes defines node types for the shader graph editor: their
// sockets, controls, and the registry that catalogs them.
//
// # Definitions
//
// A [Definition] is pure data. Every node instance in a graph refers to a
// definition by its type id; behavior that differs between node types
// (which sockets exist, which controls are shown, what a fresh node's
// values are) is read from the definition rather than implemented per type.
//
//	def := nodes.Definition{
//	    Type:     "Translate2D",
//	    Label:    "Translate 2D",
//	    Category: "transforms_2d",
//	    Inputs: []nodes.InputSpec{
//	        {Key: "expr", Socket: nodes.SocketExpression, Required: true},
//	        {Key: "offset", Socket: nodes.SocketVector},
//	    },
//	    Outputs:  []nodes.OutputSpec{{Key: "expr", Socket: nodes.SocketExpression}},
//	    Controls: []nodes.ControlSpec{{
//	        Key:           "offset",
//	        Type:          nodes.ParseControlType("Vector[2]"),
//	        LinkedToInput: "offset",
//	    }},
//	}
//
// # Sockets
//
// Sockets carry a [SocketType]. [Compatible] decides whether an output may
// feed an input: identical tags always connect, and expression, float and
// vector sockets interconnect because they share the algebraic expression
// channel. Boolean, string, material and state sockets only connect to
// their own kind.
//
// # Controls
//
// Controls edit literal values. Their [ControlType] is parsed from the type
// strings the compiler backend emits ("float", "Vector[3]", "Matrix[4,4]",
// `Enum["a"|"b"]`, "List[Vector[3]]") and supplies the zero value used when a
// control has no configured default. A control with LinkedToInput is hidden
// while that input is connected.
//
// # Registry and modes
//
// A [Registry] holds definitions keyed by type id, rejecting duplicates. It
// also indexes modes: named subsets of the catalog grouped into display
// categories. [Registry.Nodes] returns nothing for an unknown mode, and
// [Registry.NodesForMode] falls back to the full catalog in that case.
//
// The built-in catalog lives in the nodes/catalog subpackage.
package nodes
