// Package dot renders a module graph as a Graphviz diagram.
//
// It is a debugging view: each node is a box labelled with its type, and
// each connection is an arrow annotated with the output and input sockets
// it joins.
//
//	src := dot.ToDOT(g, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(src)
//
// Nodes whose type the graph's resolver does not know are drawn dashed and
// grey. Layout runs left to right, following the direction data flows.
//
// SVG rendering uses [github.com/goccy/go-graphviz] in process; the DOT text
// can also be fed to an external dot binary.
package dot
