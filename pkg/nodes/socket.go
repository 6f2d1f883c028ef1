package nodes

import (
	"strings"

	"github.com/matzehuels/shadergraph/pkg/errors"
)

// SocketType tags an input or output with the kind of value that flows
// through it. Two sockets can be connected only when [Compatible] reports
// true for their tags.
type SocketType string

const (
	// SocketExpression is the generic algebraic channel: any symbolic
	// expression (a shape, a transform result, an arithmetic term).
	SocketExpression SocketType = "expression"
	SocketFloat      SocketType = "float"
	SocketVector     SocketType = "vector"
	SocketBoolean    SocketType = "boolean"
	SocketString     SocketType = "string"
	SocketMaterial   SocketType = "material"
	SocketState      SocketType = "state"
)

// socketAliases maps the long-form names used by catalog files and older
// projects ("ExprSocket", "FloatSocket", ...) onto socket tags.
var socketAliases = map[string]SocketType{
	"exprsocket":     SocketExpression,
	"expr":           SocketExpression,
	"expression":     SocketExpression,
	"floatsocket":    SocketFloat,
	"float":          SocketFloat,
	"vectorsocket":   SocketVector,
	"vector":         SocketVector,
	"boolsocket":     SocketBoolean,
	"bool":           SocketBoolean,
	"boolean":        SocketBoolean,
	"stringsocket":   SocketString,
	"string":         SocketString,
	"materialsocket": SocketMaterial,
	"material":       SocketMaterial,
	"statesocket":    SocketState,
	"state":          SocketState,
}

// ParseSocketType resolves a socket name, accepting both the short tags and
// the "XxxSocket" spelling. Matching is case-insensitive.
func ParseSocketType(s string) (SocketType, error) {
	if t, ok := socketAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDefinition, "unknown socket type %q", s)
}

// Expression reports whether values on this socket travel on the algebraic
// expression channel. Scalars and vectors are expressions too: a float
// output can feed an expression input and vice versa.
func (s SocketType) Expression() bool {
	switch s {
	case SocketExpression, SocketFloat, SocketVector:
		return true
	}
	return false
}

// Compatible reports whether an output of type out may feed an input of
// type in: the tags match exactly, or both sit on the expression channel.
func Compatible(out, in SocketType) bool {
	if out == in {
		return true
	}
	return out.Expression() && in.Expression()
}
