package graph

import (
	stderrors "errors"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/nodes"
)

// Validate checks the structural invariants of the graph and returns every
// violation joined into one error, or nil:
//
//   - edge endpoints must be nodes of the graph
//   - edges must not be self-loops
//   - when both node types resolve, socket keys must exist and be compatible
//   - a non-variadic input holds at most one edge
//
// Graphs built through [Graph.Connect] always validate; graphs restored
// from storage may not.
func (g *Graph) Validate() error {
	var errs []error
	fanIn := make(map[[2]string]int)

	for _, e := range g.edges {
		src, okSrc := g.index[e.Source]
		dst, okDst := g.index[e.Target]
		if !okSrc || !okDst {
			errs = append(errs, errors.New(errors.ErrCodeUnknownNode, "edge %q has a dangling endpoint", e.ID))
			continue
		}
		if e.Source == e.Target {
			errs = append(errs, errors.New(errors.ErrCodeSelfConnection, "edge %q is a self-loop", e.ID))
			continue
		}

		srcDef, okSrc := g.resolver.Get(src.Type)
		dstDef, okDst := g.resolver.Get(dst.Type)
		if !okSrc || !okDst {
			continue
		}
		out, okOut := srcDef.Output(e.SourceOutput)
		in, okIn := dstDef.Input(e.TargetInput)
		if !okOut || !okIn {
			errs = append(errs, errors.New(errors.ErrCodeUnknownSocket, "edge %q references an undeclared socket", e.ID))
			continue
		}
		if !nodes.Compatible(out.Socket, in.Socket) {
			errs = append(errs, errors.New(errors.ErrCodeSocketTypeMismatch, "edge %q joins %s to %s", e.ID, out.Socket, in.Socket))
		}
		if !in.Variadic {
			key := [2]string{e.Target, e.TargetInput}
			if fanIn[key]++; fanIn[key] == 2 {
				errs = append(errs, errors.New(errors.ErrCodeInvalidInput, "input %s.%s has more than one edge", e.Target, e.TargetInput))
			}
		}
	}
	return stderrors.Join(errs...)
}
