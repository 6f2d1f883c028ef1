package nodes

import (
	"slices"

	"github.com/matzehuels/shadergraph/pkg/errors"
)

// Mode is a named, labelled subset of the catalog, grouped into display
// categories. Modes restrict which node types an editing context offers.
type Mode struct {
	Name       string
	Label      string
	Categories []ModeCategory
}

// ModeCategory is one display group of a mode.
type ModeCategory struct {
	Name  string
	Nodes []Definition
}

// ModeInfo describes a registered mode without its node lists.
type ModeInfo struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Categories []string `json:"categories"`
}

// RegisterMode registers a mode and every definition it references. A
// referenced definition whose type is already registered is skipped, so
// several modes may share definitions. Registering a mode name twice fails
// with [errors.ErrCodeInvalidDefinition].
//
// The mode is validated completely before anything is registered.
func (r *Registry) RegisterMode(m Mode) error {
	if m.Name == "" {
		return errors.New(errors.ErrCodeInvalidDefinition, "mode has no name")
	}
	if _, exists := r.modes[m.Name]; exists {
		return errors.New(errors.ErrCodeInvalidDefinition, "mode %q already registered", m.Name)
	}

	var pending []Definition
	for _, c := range m.Categories {
		for _, d := range c.Nodes {
			if r.Has(d.Type) || slices.ContainsFunc(pending, func(p Definition) bool { return p.Type == d.Type }) {
				continue
			}
			if err := d.Validate(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "mode %q", m.Name)
			}
			pending = append(pending, d)
		}
	}
	for _, d := range pending {
		if err := r.Register(d); err != nil {
			return err
		}
	}

	entry := &modeEntry{name: m.Name, label: m.Label}
	for _, c := range m.Categories {
		mc := modeCategory{name: c.Name}
		for _, d := range c.Nodes {
			mc.types = append(mc.types, d.Type)
		}
		entry.categories = append(entry.categories, mc)
	}
	r.modes[m.Name] = entry
	r.modeOrder = append(r.modeOrder, m.Name)
	return nil
}

// Modes lists the registered modes in registration order.
func (r *Registry) Modes() []ModeInfo {
	out := make([]ModeInfo, 0, len(r.modeOrder))
	for _, name := range r.modeOrder {
		e := r.modes[name]
		info := ModeInfo{Name: e.name, Label: e.label}
		for _, c := range e.categories {
			info.Categories = append(info.Categories, c.name)
		}
		out = append(out, info)
	}
	return out
}

// HasMode reports whether a mode with this name is registered.
func (r *Registry) HasMode(name string) bool {
	_, ok := r.modes[name]
	return ok
}

// Nodes returns the definitions a mode offers under category. An empty
// category yields the union over all of the mode's categories, in declared
// order and without duplicates. An unknown mode or category yields an empty
// slice; see [Registry.NodesForMode] for the fallback policy.
func (r *Registry) Nodes(mode, category string) []*Definition {
	e, ok := r.modes[mode]
	if !ok {
		return nil
	}
	var out []*Definition
	seen := make(map[string]bool)
	for _, c := range e.categories {
		if category != "" && c.name != category {
			continue
		}
		for _, t := range c.types {
			if seen[t] {
				continue
			}
			if d, ok := r.defs[t]; ok {
				seen[t] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// NodesForMode returns the node types an editor should offer in mode. When
// the mode is unknown or offers nothing, every registered definition is
// returned instead: an editor is never left without node types because of a
// mode configuration gap.
func (r *Registry) NodesForMode(mode string) []*Definition {
	if defs := r.Nodes(mode, ""); len(defs) > 0 {
		return defs
	}
	return r.All()
}
