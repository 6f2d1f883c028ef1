package project

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/nodes"
)

// Report is the outcome of [Check]. Errors make a document unloadable;
// warnings describe content that loads with losses.
type Report struct {
	Errors   []string    `json:"errors"`
	Warnings []string    `json:"warnings"`
	Stats    ReportStats `json:"stats"`
}

// ReportStats summarizes a checked document.
type ReportStats struct {
	Modules     int      `json:"modules"`
	Nodes       int      `json:"nodes"`
	Connections int      `json:"connections"`
	NodeTypes   []string `json:"node_types"`
	Isolated    int      `json:"isolated"`
}

// OK reports whether the document has no errors.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Err returns nil for a clean report and otherwise a
// [errors.ErrCodeMalformedProject] error listing every problem.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return errors.New(errors.ErrCodeMalformedProject, "invalid project: %s", strings.Join(r.Errors, "; "))
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Check validates the structure of a current-format document held as
// generic JSON. Legacy documents should be migrated first. When res is not
// nil, nodes of unregistered types are reported as warnings.
func Check(doc map[string]any, res nodes.Resolver) *Report {
	r := &Report{}
	for _, key := range []string{"version", "created", "modified"} {
		if _, ok := doc[key].(string); !ok {
			r.errorf("%s must be a string", key)
		}
	}
	if v, ok := doc["version"].(string); ok && !Compatible(v) {
		r.errorf("version %s is not compatible with %s", v, Version)
	}

	g, ok := doc["graph"].(map[string]any)
	if !ok {
		r.errorf("graph must be an object")
		return r
	}

	types := map[string]bool{}
	switch list := g["moduleList"].(type) {
	case map[string]any:
		names := make([]string, 0, len(list))
		for name := range list {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			checkModule(r, name, list[name], res, types)
		}
	case []any:
		for i, m := range list {
			name := "module_" + strconv.Itoa(i)
			if mm, ok := m.(map[string]any); ok {
				if n, ok := mm["name"].(string); ok && n != "" {
					name = n
				}
			}
			checkModule(r, name, m, res, types)
		}
	case nil:
		r.errorf("graph.moduleList is missing")
	default:
		r.errorf("graph.moduleList must be an array or object")
	}

	for t := range types {
		r.Stats.NodeTypes = append(r.Stats.NodeTypes, t)
	}
	slices.Sort(r.Stats.NodeTypes)
	return r
}

var optionalEdgeField = map[string]bool{"id": true, "sourceOutput": true, "targetInput": true}

func checkModule(r *Report, name string, v any, res nodes.Resolver, types map[string]bool) {
	m, ok := v.(map[string]any)
	if !ok {
		r.errorf("module %s must be an object", name)
		return
	}
	r.Stats.Modules++

	nodeList, ok := m["nodes"].([]any)
	if !ok {
		r.errorf("module %s: nodes must be an array", name)
		return
	}
	ids := map[string]bool{}
	for i, n := range nodeList {
		node, ok := n.(map[string]any)
		if !ok {
			r.errorf("module %s: node %d must be an object", name, i)
			continue
		}
		id, ok := node["id"].(string)
		if !ok {
			r.errorf("module %s: node %d id must be a string", name, i)
			continue
		}
		if ids[id] {
			r.errorf("module %s: duplicate node id %s", name, id)
		}
		ids[id] = true
		r.Stats.Nodes++

		typ, _ := node["name"].(string)
		if typ == "" {
			typ, _ = node["type"].(string)
		}
		if typ == "" {
			r.errorf("module %s: node %s name must be a string", name, id)
		} else {
			types[typ] = true
			if res != nil {
				if _, known := res.Get(typ); !known {
					r.warnf("module %s: node %s has unknown type %s", name, id, typ)
				}
			}
		}
		if data, present := node["data"]; present && data != nil {
			if _, ok := data.(map[string]any); !ok {
				r.errorf("module %s: node %s data must be an object", name, id)
			}
		}
	}

	key := "connections"
	if _, ok := m[key]; !ok {
		key = "edges"
	}
	raw, present := m[key]
	if !present || raw == nil {
		r.Stats.Isolated += len(ids)
		return
	}
	conns, ok := raw.([]any)
	if !ok {
		r.errorf("module %s: %s must be an array", name, key)
		return
	}

	touched := map[string]bool{}
	for i, c := range conns {
		conn, ok := c.(map[string]any)
		if !ok {
			r.errorf("module %s: connection %d must be an object", name, i)
			continue
		}
		valid := true
		for _, f := range []string{"id", "source", "sourceOutput", "target", "targetInput"} {
			v, present := conn[f]
			if _, ok := v.(string); ok || (!present && optionalEdgeField[f]) {
				continue
			}
			r.errorf("module %s: connection %d %s must be a string", name, i, f)
			valid = false
		}
		if !valid {
			continue
		}
		r.Stats.Connections++
		src, dst := conn["source"].(string), conn["target"].(string)
		touched[src], touched[dst] = true, true
		if !ids[src] || !ids[dst] {
			r.warnf("module %s: connection %d references missing node (%s -> %s) and will be dropped", name, i, src, dst)
		}
	}
	for id := range ids {
		if !touched[id] {
			r.Stats.Isolated++
		}
	}
}

// Compatible reports whether a document written with version can be read:
// the major versions must match.
func Compatible(version string) bool {
	return major(version) == major(Version)
}

func major(v string) string {
	v = strings.TrimPrefix(v, "v")
	head, _, _ := strings.Cut(v, ".")
	return head
}
