// Package catalog loads node definitions and modes from TOML into a
// [nodes.Registry].
//
// The built-in catalog is embedded in the binary and available through
// [Default]. Additional catalogs can be layered on top with [Parse] or
// [Load]; the file format is documented at the top of builtin.toml.
package catalog

import (
	_ "embed"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/nodes"
)

//go:embed builtin.toml
var builtin string

// File is the decoded form of a catalog file.
type File struct {
	Nodes []Node `toml:"node"`
	Modes []Mode `toml:"mode"`
}

// Node is one [[node]] table.
type Node struct {
	Type         string    `toml:"type"`
	Label        string    `toml:"label"`
	Category     string    `toml:"category"`
	Description  string    `toml:"description"`
	Tags         []string  `toml:"tags"`
	Deprecated   bool      `toml:"deprecated"`
	Experimental bool      `toml:"experimental"`
	Inputs       []Socket  `toml:"input"`
	Outputs      []Socket  `toml:"output"`
	Controls     []Control `toml:"control"`
}

// Socket is one [[node.input]] or [[node.output]] table. Required and
// Variadic are ignored on outputs.
type Socket struct {
	Key      string `toml:"key"`
	Label    string `toml:"label"`
	Socket   string `toml:"socket"`
	Required bool   `toml:"required"`
	Variadic bool   `toml:"variadic"`
}

// Control is one [[node.control]] table.
type Control struct {
	Key     string   `toml:"key"`
	Type    string   `toml:"type"`
	Label   string   `toml:"label"`
	Default any      `toml:"default"`
	Min     *float64 `toml:"min"`
	Max     *float64 `toml:"max"`
	Step    *float64 `toml:"step"`
	Options []string `toml:"options"`
	Linked  string   `toml:"linked"`
}

// Mode is one [[mode]] table.
type Mode struct {
	Name   string  `toml:"name"`
	Label  string  `toml:"label"`
	Groups []Group `toml:"group"`
}

// Group is a display group of a mode: every node whose category is listed,
// plus any explicitly named types.
type Group struct {
	Name       string   `toml:"name"`
	Categories []string `toml:"categories"`
	Types      []string `toml:"types"`
}

// Default returns a registry populated with the built-in catalog.
func Default() (*nodes.Registry, error) {
	r := nodes.NewRegistry()
	if err := Parse(strings.NewReader(builtin), r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "built-in catalog")
	}
	return r, nil
}

// MustDefault is like Default but panics on error.
func MustDefault() *nodes.Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Load reads a catalog file from disk into r.
func Load(path string, r *nodes.Registry) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "open catalog %s", path)
	}
	defer f.Close()
	return Parse(f, r)
}

// Parse decodes a catalog from rd and registers its nodes, then its modes,
// into r. Nodes already present in r are rejected as duplicates; modes may
// reference nodes registered earlier from another catalog.
func Parse(rd io.Reader, r *nodes.Registry) error {
	var file File
	if _, err := toml.NewDecoder(rd).Decode(&file); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "decode catalog")
	}

	defs := make([]nodes.Definition, 0, len(file.Nodes))
	for _, n := range file.Nodes {
		def, err := n.Definition()
		if err != nil {
			return err
		}
		if err := r.Register(def); err != nil {
			return err
		}
		defs = append(defs, def)
	}

	for _, m := range file.Modes {
		if err := r.RegisterMode(m.resolve(r, defs)); err != nil {
			return err
		}
	}
	return nil
}

// Definition converts the table into a node definition.
func (n Node) Definition() (nodes.Definition, error) {
	def := nodes.Definition{
		Type:         n.Type,
		Label:        n.Label,
		Category:     n.Category,
		Description:  n.Description,
		Tags:         n.Tags,
		Deprecated:   n.Deprecated,
		Experimental: n.Experimental,
	}
	if def.Label == "" {
		def.Label = n.Type
	}

	for _, in := range n.Inputs {
		st, err := nodes.ParseSocketType(in.Socket)
		if err != nil {
			return def, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: input %q", n.Type, in.Key)
		}
		def.Inputs = append(def.Inputs, nodes.InputSpec{
			Key:      in.Key,
			Label:    labelOr(in.Label, in.Key),
			Socket:   st,
			Required: in.Required,
			Variadic: in.Variadic,
		})
	}

	for _, out := range n.Outputs {
		st, err := nodes.ParseSocketType(out.Socket)
		if err != nil {
			return def, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: output %q", n.Type, out.Key)
		}
		def.Outputs = append(def.Outputs, nodes.OutputSpec{
			Key:    out.Key,
			Label:  labelOr(out.Label, out.Key),
			Socket: st,
		})
	}

	for _, c := range n.Controls {
		ct := nodes.ParseControlType(c.Type)
		opts := c.Options
		if len(opts) == 0 {
			opts = ct.Options
		}
		def.Controls = append(def.Controls, nodes.ControlSpec{
			Key:   c.Key,
			Type:  ct,
			Label: labelOr(c.Label, c.Key),
			Config: nodes.ControlConfig{
				Default: normalize(c.Default),
				Min:     c.Min,
				Max:     c.Max,
				Step:    c.Step,
				Options: opts,
			},
			LinkedToInput: c.Linked,
		})
	}

	return def, def.Validate()
}

// resolve expands a mode's groups into definitions. Types that are neither
// in this file nor already registered are skipped.
func (m Mode) resolve(r *nodes.Registry, defs []nodes.Definition) nodes.Mode {
	mode := nodes.Mode{Name: m.Name, Label: m.Label}
	for _, g := range m.Groups {
		mc := nodes.ModeCategory{Name: g.Name}
		for _, cat := range g.Categories {
			for _, d := range defs {
				if d.Category == cat {
					mc.Nodes = append(mc.Nodes, d)
				}
			}
		}
		for _, t := range g.Types {
			if d, ok := r.Get(t); ok {
				mc.Nodes = append(mc.Nodes, *d)
			}
		}
		mode.Categories = append(mode.Categories, mc)
	}
	return mode
}

// normalize converts TOML integers to float64 so control values compare
// equal to their JSON-decoded form.
func normalize(v any) any {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}

// labelOr returns label, or a title derived from key ("expr_0" -> "Expr 0").
func labelOr(label, key string) string {
	if label != "" {
		return label
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
