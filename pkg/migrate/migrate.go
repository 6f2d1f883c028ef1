// Package migrate rewrites legacy project documents into the current schema.
//
// Documents are handled as generic JSON values (map[string]any), so fields
// that no rule covers pass through untouched. A legacy document keeps its
// modules under a top-level "moduleList" and has neither "version" nor
// "graph"; [Migrate] wraps it in the current envelope and applies the
// rename tables below. The pass is deterministic, and running it on its own
// output changes nothing.
//
// The detection heuristic in [IsLegacy] cannot tell a legacy file from a
// current-format file that lost its version and graph fields; such a file is
// treated as legacy.
package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/matzehuels/shadergraph/pkg/errors"
)

// Version is the schema version written into migrated envelopes.
const Version = "1.0.0"

const (
	envelopeName        = "migrated-project"
	envelopeDescription = "Converted from legacy format"
)

// TypeRenames maps retired node type ids to their replacements.
var TypeRenames = map[string]string{
	"Plane3D": "PlaneV23D",
}

// ParamRenames maps an original (pre-rename) node type to the control keys
// that changed name for it.
var ParamRenames = map[string]map[string]string{
	"Translate2D":   {"param": "offset"},
	"EulerRotate2D": {"param": "angle"},
	"Translate3D":   {"param": "offset"},
	"EulerRotate3D": {"param": "angles"},
}

// InputRemaps maps an original node type to the renumbering of its input
// slots. Legacy files numbered the operands of these nodes from one.
var InputRemaps = map[string]map[string]string{
	"Difference": {"expr1": "expr_0", "expr2": "expr_1"},
}

// Options control a migration run.
type Options struct {
	// Force migrates documents that IsLegacy does not flag.
	Force bool
	// Now stamps created/modified on synthesized envelopes.
	// Defaults to time.Now.
	Now func() time.Time
}

// Stats counts what a migration changed.
type Stats struct {
	Wrapped        bool `json:"wrapped"`
	Modules        int  `json:"modules"`
	Nodes          int  `json:"nodes"`
	TypesRenamed   int  `json:"types_renamed"`
	ParamsRenamed  int  `json:"params_renamed"`
	InputsRemapped int  `json:"inputs_remapped"`
}

// Changed reports whether the migration modified anything.
func (s Stats) Changed() bool {
	return s.Wrapped || s.TypesRenamed > 0 || s.ParamsRenamed > 0 || s.InputsRemapped > 0
}

// Result is a migrated document and what was done to it.
type Result struct {
	Document map[string]any
	Stats    Stats
	// Migrated is false when the document was left alone because it is not
	// legacy and Force was not set.
	Migrated bool
	// Order lists module names in source order. Migrate sets it when an
	// array moduleList was converted; callers that know the order of an
	// object moduleList may set it themselves. Document holds the modules
	// in a Go map, which has no order; see [Result.OrderedDocument].
	Order []string
}

// IsLegacy reports whether doc has the legacy shape: a moduleList and
// neither a version nor a graph. Empty values count as absent.
func IsLegacy(doc map[string]any) bool {
	return !present(doc["version"]) && !present(doc["graph"]) && present(doc["moduleList"])
}

func present(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	}
	return true
}

// Migrate returns a migrated copy of doc; doc itself is never modified.
//
// Steps, in order: an array moduleList becomes an object keyed by each
// module's "name" (or "module_<index>"); the list is wrapped in the current
// envelope; every node has its controls renamed by its original type, then
// its type renamed; edges into nodes whose original type has an input remap
// get their targetInput renumbered.
//
// Migrate only fails, with [errors.ErrCodeMalformedProject], when a
// moduleList is neither an array nor an object.
func Migrate(doc map[string]any, opts Options) (*Result, error) {
	out, _ := cloneValue(doc).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	res := &Result{Document: out}
	if !opts.Force && !IsLegacy(doc) {
		return res, nil
	}
	res.Migrated = true

	if list, ok := out["moduleList"]; ok && !present(out["graph"]) {
		obj, order, err := moduleObject(list)
		if err != nil {
			return nil, err
		}
		res.Order = order
		delete(out, "moduleList")
		wrap(out, obj, now(opts))
		res.Stats.Wrapped = true
	}

	g, _ := out["graph"].(map[string]any)
	if g == nil {
		return res, nil
	}
	switch list := g["moduleList"].(type) {
	case nil:
	case map[string]any:
		for _, m := range list {
			migrateModule(m, &res.Stats)
		}
	case []any:
		for _, m := range list {
			migrateModule(m, &res.Stats)
		}
	default:
		return nil, errors.New(errors.ErrCodeMalformedProject, "moduleList is %T, want array or object", list)
	}
	return res, nil
}

// OrderedDocument returns Document with graph.moduleList set to encode its
// modules in Order. Modules missing from Order follow in name order. When
// Order is empty Document is returned as is.
func (r *Result) OrderedDocument() map[string]any {
	g, _ := r.Document["graph"].(map[string]any)
	list, _ := g["moduleList"].(map[string]any)
	if list == nil || len(r.Order) == 0 {
		return r.Document
	}
	keys := make([]string, 0, len(list))
	for _, name := range r.Order {
		if _, ok := list[name]; ok && !slices.Contains(keys, name) {
			keys = append(keys, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(list)) {
		if !slices.Contains(keys, name) {
			keys = append(keys, name)
		}
	}
	out := maps.Clone(r.Document)
	section := maps.Clone(g)
	section["moduleList"] = orderedObject{keys: keys, values: list}
	out["graph"] = section
	return out
}

// orderedObject encodes values as a JSON object with members in keys order.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func now(opts Options) time.Time {
	if opts.Now != nil {
		return opts.Now()
	}
	return time.Now()
}

// moduleObject converts an array moduleList into its object form and
// returns the module names in array order. A name used twice keeps its
// first position and its last module.
func moduleObject(list any) (map[string]any, []string, error) {
	switch list := list.(type) {
	case map[string]any:
		return list, nil, nil
	case []any:
		obj := make(map[string]any, len(list))
		var order []string
		for i, m := range list {
			key := fmt.Sprintf("module_%d", i)
			if mm, ok := m.(map[string]any); ok {
				if name, ok := mm["name"].(string); ok && name != "" {
					key = name
				}
			}
			if _, seen := obj[key]; !seen {
				order = append(order, key)
			}
			obj[key] = m
		}
		return obj, order, nil
	}
	return nil, nil, errors.New(errors.ErrCodeMalformedProject, "moduleList is %T, want array or object", list)
}

// wrap fills in the current envelope around a module object. Envelope
// fields already on the document are kept.
func wrap(doc, modules map[string]any, at time.Time) {
	stamp := at.UTC().Format(time.RFC3339Nano)
	setDefault(doc, "version", Version)
	setDefault(doc, "created", stamp)
	setDefault(doc, "modified", stamp)
	setDefault(doc, "name", envelopeName)
	setDefault(doc, "description", envelopeDescription)
	doc["graph"] = map[string]any{"moduleList": modules}

	settings, _ := doc["editorSettings"].(map[string]any)
	if settings == nil {
		settings = map[string]any{}
		doc["editorSettings"] = settings
	}
	setDefault(settings, "viewport", map[string]any{"x": 0.0, "y": 0.0, "zoom": 1.0})
}

func setDefault(m map[string]any, key string, v any) {
	if !present(m[key]) {
		m[key] = v
	}
}

func migrateModule(m any, st *Stats) {
	mod, ok := m.(map[string]any)
	if !ok {
		return
	}
	st.Modules++
	nodes, ok := mod["nodes"].([]any)
	if !ok {
		return
	}

	remap := map[string]map[string]string{}
	for _, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			continue
		}
		typeKey := "name"
		if _, ok := node[typeKey].(string); !ok {
			typeKey = "type"
		}
		original, ok := node[typeKey].(string)
		if !ok {
			continue
		}
		st.Nodes++

		if renames, ok := ParamRenames[original]; ok {
			if data, ok := node["data"].(map[string]any); ok {
				for from, to := range renames {
					if v, defined := data[from]; defined {
						data[to] = v
						delete(data, from)
						st.ParamsRenamed++
					}
				}
			}
		}
		if renamed, ok := TypeRenames[original]; ok {
			node[typeKey] = renamed
			st.TypesRenamed++
		}
		if table, ok := InputRemaps[original]; ok {
			if id, ok := node["id"].(string); ok {
				remap[id] = table
			}
		}
	}

	if len(remap) == 0 {
		return
	}
	for _, key := range []string{"connections", "edges"} {
		edges, _ := mod[key].([]any)
		for _, e := range edges {
			edge, ok := e.(map[string]any)
			if !ok {
				continue
			}
			target, _ := edge["target"].(string)
			table, ok := remap[target]
			if !ok {
				continue
			}
			in, _ := edge["targetInput"].(string)
			if to, ok := table[in]; ok {
				edge["targetInput"] = to
				st.InputsRemapped++
			}
		}
	}
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = cloneValue(x)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = cloneValue(x)
		}
		return out
	}
	return v
}
