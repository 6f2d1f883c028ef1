package nodes

import (
	"github.com/matzehuels/shadergraph/pkg/errors"
)

// InputSpec declares an input socket. A variadic input accepts any number of
// incoming edges; every other input holds at most one.
type InputSpec struct {
	Key      string
	Label    string
	Socket   SocketType
	Required bool
	Variadic bool
}

// OutputSpec declares an output socket. Outputs fan out to any number of
// edges.
type OutputSpec struct {
	Key    string
	Label  string
	Socket SocketType
}

// Definition is the shape of a node type: its sockets and controls.
// Definitions are immutable once registered; callers must not modify a
// definition obtained from a [Registry].
type Definition struct {
	Type        string
	Label       string
	Category    string
	Description string
	Tags        []string

	Inputs   []InputSpec
	Outputs  []OutputSpec
	Controls []ControlSpec

	Deprecated   bool
	Experimental bool
}

// Input returns the input with the given key.
func (d *Definition) Input(key string) (InputSpec, bool) {
	for _, in := range d.Inputs {
		if in.Key == key {
			return in, true
		}
	}
	return InputSpec{}, false
}

// Output returns the output with the given key.
func (d *Definition) Output(key string) (OutputSpec, bool) {
	for _, out := range d.Outputs {
		if out.Key == key {
			return out, true
		}
	}
	return OutputSpec{}, false
}

// Control returns the control with the given key.
func (d *Definition) Control(key string) (ControlSpec, bool) {
	for _, c := range d.Controls {
		if c.Key == key {
			return c, true
		}
	}
	return ControlSpec{}, false
}

// LinkedControls returns the controls hidden by an edge on the given input.
func (d *Definition) LinkedControls(inputKey string) []ControlSpec {
	var out []ControlSpec
	for _, c := range d.Controls {
		if c.LinkedToInput == inputKey {
			out = append(out, c)
		}
	}
	return out
}

// Defaults returns a fresh map of every control's default value.
func (d *Definition) Defaults() map[string]any {
	m := make(map[string]any, len(d.Controls))
	for _, c := range d.Controls {
		m[c.Key] = c.DefaultValue()
	}
	return m
}

// Validate checks the definition for structural defects: a missing type id,
// duplicate input, output or control keys, unknown socket tags, and controls
// linked to inputs that do not exist. It returns an
// [errors.ErrCodeInvalidDefinition] error describing the first problem.
func (d *Definition) Validate() error {
	if d.Type == "" {
		return errors.New(errors.ErrCodeInvalidDefinition, "node definition has no type")
	}

	seen := make(map[string]bool, len(d.Inputs))
	for _, in := range d.Inputs {
		if in.Key == "" {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: input with empty key", d.Type)
		}
		if seen[in.Key] {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: duplicate input key %q", d.Type, in.Key)
		}
		if _, err := ParseSocketType(string(in.Socket)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: input %q", d.Type, in.Key)
		}
		seen[in.Key] = true
	}

	outs := make(map[string]bool, len(d.Outputs))
	for _, out := range d.Outputs {
		if out.Key == "" {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: output with empty key", d.Type)
		}
		if outs[out.Key] {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: duplicate output key %q", d.Type, out.Key)
		}
		if _, err := ParseSocketType(string(out.Socket)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s: output %q", d.Type, out.Key)
		}
		outs[out.Key] = true
	}

	ctrls := make(map[string]bool, len(d.Controls))
	for _, c := range d.Controls {
		if c.Key == "" {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: control with empty key", d.Type)
		}
		if ctrls[c.Key] {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: duplicate control key %q", d.Type, c.Key)
		}
		if c.LinkedToInput != "" && !seen[c.LinkedToInput] {
			return errors.New(errors.ErrCodeInvalidDefinition, "%s: control %q linked to unknown input %q", d.Type, c.Key, c.LinkedToInput)
		}
		ctrls[c.Key] = true
	}
	return nil
}
