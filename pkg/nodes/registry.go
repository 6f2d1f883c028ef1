package nodes

import (
	"slices"

	"github.com/matzehuels/shadergraph/pkg/errors"
)

// Resolver looks up node definitions by type id. [Registry] implements it;
// the graph model and factory depend only on this interface.
type Resolver interface {
	Get(typeID string) (*Definition, bool)
}

// Registry is the catalog of node definitions plus the mode index that
// partitions it. A registry is populated once at startup and read afterwards;
// it offers no removal.
//
// The zero value is not usable - use [NewRegistry].
// Registry is not safe for concurrent registration; concurrent reads after
// population are fine.
type Registry struct {
	defs  map[string]*Definition
	order []string

	modes     map[string]*modeEntry
	modeOrder []string
}

type modeEntry struct {
	name       string
	label      string
	categories []modeCategory
}

type modeCategory struct {
	name  string
	types []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:  make(map[string]*Definition),
		modes: make(map[string]*modeEntry),
	}
}

var _ Resolver = (*Registry)(nil)

// Register adds a definition. It fails with [errors.ErrCodeDuplicateType]
// when the type id is already present and with
// [errors.ErrCodeInvalidDefinition] when the definition does not validate.
// The registry keeps its own copy of def.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := r.defs[def.Type]; exists {
		return errors.New(errors.ErrCodeDuplicateType, "node type %q already registered", def.Type)
	}
	stored := cloneDefinition(def)
	r.defs[def.Type] = &stored
	r.order = append(r.order, def.Type)
	return nil
}

// MustRegister is like Register but panics on error. It is intended for
// built-in catalogs whose validity is covered by tests.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns the definition for typeID.
func (r *Registry) Get(typeID string) (*Definition, bool) {
	d, ok := r.defs[typeID]
	return d, ok
}

// Has reports whether typeID is registered.
func (r *Registry) Has(typeID string) bool {
	_, ok := r.defs[typeID]
	return ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int { return len(r.order) }

// All returns every definition in registration order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, len(r.order))
	for i, t := range r.order {
		out[i] = r.defs[t]
	}
	return out
}

// ListByCategory returns the definitions whose Category equals category,
// in registration order.
func (r *Registry) ListByCategory(category string) []*Definition {
	var out []*Definition
	for _, t := range r.order {
		if d := r.defs[t]; d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// Categories returns the distinct categories in first-registration order.
func (r *Registry) Categories() []string {
	var out []string
	for _, t := range r.order {
		if c := r.defs[t].Category; !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// Stats summarizes the registry contents.
type Stats struct {
	Total        int
	ByCategory   map[string]int
	Deprecated   int
	Experimental int
}

// Stats returns counts by category and flag.
func (r *Registry) Stats() Stats {
	s := Stats{Total: len(r.order), ByCategory: make(map[string]int)}
	for _, t := range r.order {
		d := r.defs[t]
		s.ByCategory[d.Category]++
		if d.Deprecated {
			s.Deprecated++
		}
		if d.Experimental {
			s.Experimental++
		}
	}
	return s
}

func cloneDefinition(d Definition) Definition {
	d.Tags = slices.Clone(d.Tags)
	d.Inputs = slices.Clone(d.Inputs)
	d.Outputs = slices.Clone(d.Outputs)
	d.Controls = slices.Clone(d.Controls)
	for i := range d.Controls {
		d.Controls[i].Config.Options = slices.Clone(d.Controls[i].Config.Options)
		d.Controls[i].Type.Options = slices.Clone(d.Controls[i].Type.Options)
	}
	return d
}
