package nodes

import (
	"fmt"
	"strconv"
	"strings"
)

// ControlKind is the variant tag of a [ControlType].
type ControlKind int

const (
	// ControlString is also the fallback for type strings that are not
	// recognized, so an unfamiliar backend type still yields an editable field.
	ControlString ControlKind = iota
	ControlFloat
	ControlInt
	ControlBoolean
	ControlVector
	ControlMatrix
	ControlEnum
	ControlList
)

var controlKindNames = [...]string{
	ControlString:  "string",
	ControlFloat:   "float",
	ControlInt:     "int",
	ControlBoolean: "boolean",
	ControlVector:  "vector",
	ControlMatrix:  "matrix",
	ControlEnum:    "enum",
	ControlList:    "list",
}

func (k ControlKind) String() string {
	if int(k) < len(controlKindNames) {
		return controlKindNames[k]
	}
	return fmt.Sprintf("ControlKind(%d)", int(k))
}

// ControlType describes the value edited by a control. It is a tagged union:
// Size is meaningful for vectors (N) and square matrices (N×N), Options for
// enums and Elem for lists.
type ControlType struct {
	Kind    ControlKind
	Size    int
	Options []string
	Elem    *ControlType
	// Raw is the type string the control was parsed from.
	Raw string
}

// ParseControlType parses a backend type string such as "float",
// "Vector[3]", "vec2", "Matrix[3,3]", `Enum["add"|"sub"]` or
// "List[Vector[3]]". Unrecognized strings parse as [ControlString].
func ParseControlType(s string) ControlType {
	raw := strings.TrimSpace(s)
	lower := strings.ToLower(raw)

	switch lower {
	case "float", "range", "uniform_float":
		return ControlType{Kind: ControlFloat, Raw: raw}
	case "int", "integer":
		return ControlType{Kind: ControlInt, Raw: raw}
	case "bool", "boolean", "checkbox":
		return ControlType{Kind: ControlBoolean, Raw: raw}
	case "str", "string", "text":
		return ControlType{Kind: ControlString, Raw: raw}
	case "select":
		return ControlType{Kind: ControlEnum, Raw: raw}
	case "color":
		return ControlType{Kind: ControlVector, Size: 3, Raw: raw}
	}

	for _, prefix := range []string{"vector", "vec", "uniform_vec"} {
		if n, err := strconv.Atoi(strings.TrimPrefix(lower, prefix)); err == nil && strings.HasPrefix(lower, prefix) && n > 0 {
			return ControlType{Kind: ControlVector, Size: n, Raw: raw}
		}
	}

	name, arg, ok := splitGeneric(raw)
	if !ok {
		return ControlType{Kind: ControlString, Raw: raw}
	}

	switch strings.ToLower(name) {
	case "vector", "vec":
		if n, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil && n > 0 {
			return ControlType{Kind: ControlVector, Size: n, Raw: raw}
		}
	case "matrix":
		dims := strings.Split(arg, ",")
		if len(dims) == 2 {
			r, err1 := strconv.Atoi(strings.TrimSpace(dims[0]))
			c, err2 := strconv.Atoi(strings.TrimSpace(dims[1]))
			if err1 == nil && err2 == nil && r == c && r > 0 {
				return ControlType{Kind: ControlMatrix, Size: r, Raw: raw}
			}
		}
	case "enum":
		var opts []string
		for _, o := range strings.Split(arg, "|") {
			if o = strings.Trim(strings.TrimSpace(o), `"'`); o != "" {
				opts = append(opts, o)
			}
		}
		return ControlType{Kind: ControlEnum, Options: opts, Raw: raw}
	case "list":
		elem := ParseControlType(arg)
		return ControlType{Kind: ControlList, Elem: &elem, Raw: raw}
	}
	return ControlType{Kind: ControlString, Raw: raw}
}

// splitGeneric splits "Name[arg]" into its name and bracketed argument.
func splitGeneric(s string) (name, arg string, ok bool) {
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	return s[:open], s[open+1 : len(s)-1], true
}

// String returns the canonical spelling of the type.
func (t ControlType) String() string {
	switch t.Kind {
	case ControlVector:
		return fmt.Sprintf("Vector[%d]", t.Size)
	case ControlMatrix:
		return fmt.Sprintf("Matrix[%d,%d]", t.Size, t.Size)
	case ControlEnum:
		quoted := make([]string, len(t.Options))
		for i, o := range t.Options {
			quoted[i] = strconv.Quote(o)
		}
		return "Enum[" + strings.Join(quoted, "|") + "]"
	case ControlList:
		if t.Elem == nil {
			return "List[]"
		}
		return "List[" + t.Elem.String() + "]"
	}
	return t.Kind.String()
}

// ZeroValue returns the value a control of this type holds when no default is
// configured. Numbers are float64 and sequences are []any so the values
// compare equal to their JSON-decoded form.
func (t ControlType) ZeroValue() any {
	switch t.Kind {
	case ControlFloat, ControlInt:
		return float64(0)
	case ControlBoolean:
		return false
	case ControlVector:
		v := make([]any, t.Size)
		for i := range v {
			v[i] = float64(0)
		}
		return v
	case ControlMatrix:
		m := make([]any, t.Size*t.Size)
		for i := range m {
			if i/t.Size == i%t.Size {
				m[i] = float64(1)
			} else {
				m[i] = float64(0)
			}
		}
		return m
	case ControlEnum:
		if len(t.Options) > 0 {
			return t.Options[0]
		}
		return ""
	case ControlList:
		return []any{}
	}
	return ""
}

// ControlConfig carries per-control presentation and default settings.
type ControlConfig struct {
	Default any
	Min     *float64
	Max     *float64
	Step    *float64
	Options []string
}

// ControlSpec declares an editable literal on a node type.
//
// When LinkedToInput names an input of the same type, the control is hidden
// while that input has an incoming edge: the edge supersedes the literal.
type ControlSpec struct {
	Key           string
	Type          ControlType
	Label         string
	Config        ControlConfig
	LinkedToInput string
}

// DefaultValue returns Config.Default, or the type's zero value when no
// default is configured.
func (c ControlSpec) DefaultValue() any {
	if c.Config.Default != nil {
		return c.Config.Default
	}
	return c.Type.ZeroValue()
}
