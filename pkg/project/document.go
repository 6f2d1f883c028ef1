package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/graph"
	"github.com/matzehuels/shadergraph/pkg/migrate"
)

// Version is the schema version written by [Serialize].
const Version = migrate.Version

// ExportSuffix is appended to exported file names that lack it.
const ExportSuffix = ".asmblr.json"

// Viewport is the editor camera.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewport is the camera of a fresh project.
var DefaultViewport = Viewport{Zoom: 1}

// EditorSettings holds editor state saved with a project.
type EditorSettings struct {
	Viewport Viewport `json:"viewport"`
}

// Document is the on-disk project format. Top-level fields it does not
// know are kept in Extra and written back after the known ones.
type Document struct {
	Version        string         `json:"version"`
	Created        string         `json:"created"`
	Modified       string         `json:"modified"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Graph          *GraphSection  `json:"graph,omitempty"`
	EditorSettings EditorSettings `json:"editorSettings"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Extra          map[string]any `json:"-"`
}

var documentFields = []string{"version", "created", "modified", "name", "description", "graph", "editorSettings", "metadata"}

// MarshalJSON writes the known fields followed by Extra.
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	base, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	return appendExtra(base, d.Extra)
}

// UnmarshalJSON reads the known fields and collects the rest into Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, documentFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*d = Document(p)
	return nil
}

// GraphSection wraps the module list. A nil ModuleList means the document
// has no graph to load.
type GraphSection struct {
	ModuleList *ModuleList `json:"moduleList"`
}

// Modules returns the document's modules, or nil when it has none.
func (d *Document) Modules() ModuleList {
	if d.Graph == nil || d.Graph.ModuleList == nil {
		return nil
	}
	return *d.Graph.ModuleList
}

// NamedModule is one entry of a module list.
type NamedModule struct {
	Name   string
	Module Module
}

// ModuleList is an ordered list of modules. It encodes as a JSON object
// keyed by module name, in list order, and decodes from either that object
// form or a JSON array whose entries carry their own "name".
type ModuleList []NamedModule

// MarshalJSON writes the object form.
func (l ModuleList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		mod := m.Module
		mod.Name = ""
		val, err := json.Marshal(mod)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object or array form, keeping source order.
// Array entries without a name become "module_<index>".
func (l *ModuleList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New(errors.ErrCodeMalformedProject, "empty moduleList")
	}
	switch data[0] {
	case '[':
		var mods []Module
		if err := json.Unmarshal(data, &mods); err != nil {
			return err
		}
		out := make(ModuleList, 0, len(mods))
		for i, m := range mods {
			name := m.Name
			if name == "" {
				name = fmt.Sprintf("module_%d", i)
			}
			out = append(out, NamedModule{Name: name, Module: m})
		}
		*l = out
		return nil
	case '{':
		return l.decodeObject(data)
	}
	return errors.New(errors.ErrCodeMalformedProject, "moduleList must be an array or object")
}

// reorder sorts the list by position in names. Modules not in names keep
// their relative order after the listed ones.
func (l ModuleList) reorder(names []string) {
	if len(names) == 0 {
		return
	}
	rank := make(map[string]int, len(names))
	for i, n := range names {
		if _, ok := rank[n]; !ok {
			rank[n] = i
		}
	}
	pos := func(n string) int {
		if r, ok := rank[n]; ok {
			return r
		}
		return len(names)
	}
	slices.SortStableFunc(l, func(a, b NamedModule) int {
		return pos(a.Name) - pos(b.Name)
	})
}

func (l *ModuleList) decodeObject(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	out := ModuleList{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var m Module
		if err := dec.Decode(&m); err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
		out = append(out, NamedModule{Name: name, Module: m})
	}
	*l = out
	return nil
}

// Module is one module's graph as stored on disk.
type Module struct {
	// Name is only present in the array form of a module list.
	Name        string                    `json:"name,omitempty"`
	Nodes       []NodeRecord              `json:"nodes"`
	Connections []EdgeRecord              `json:"connections"`
	Positions   map[string]graph.Position `json:"positions,omitempty"`
}

// UnmarshalJSON accepts edges under either "connections" or "edges".
func (m *Module) UnmarshalJSON(data []byte) error {
	type plain Module
	var aux struct {
		plain
		Edges []EdgeRecord `json:"edges"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Module(aux.plain)
	if m.Connections == nil {
		m.Connections = aux.Edges
	}
	return nil
}

// NodeRecord is a stored node. The node type is written as "name"; "type"
// is accepted on read. Unknown fields round-trip through Extra.
type NodeRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Type     string          `json:"type,omitempty"`
	Position *graph.Position `json:"position,omitempty"`
	Data     map[string]any  `json:"data"`
	Extra    map[string]any  `json:"-"`
}

var nodeFields = []string{"id", "name", "type", "position", "data"}

// MarshalJSON writes the known fields followed by Extra.
func (n NodeRecord) MarshalJSON() ([]byte, error) {
	type plain NodeRecord
	base, err := json.Marshal(plain(n))
	if err != nil {
		return nil, err
	}
	return appendExtra(base, n.Extra)
}

// UnmarshalJSON reads the known fields and collects the rest into Extra.
func (n *NodeRecord) UnmarshalJSON(data []byte) error {
	type plain NodeRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, nodeFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*n = NodeRecord(p)
	return nil
}

// TypeID returns the node type, preferring "name".
func (n NodeRecord) TypeID() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Type
}

// EdgeRecord is a stored connection.
type EdgeRecord struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceOutput string `json:"sourceOutput"`
	Target       string `json:"target"`
	TargetInput  string `json:"targetInput"`
}

// unknownFields returns the members of the JSON object data whose keys do
// not match known. Matching ignores case, as encoding/json does.
func unknownFields(data []byte, known []string) (map[string]any, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra map[string]any
	for key, raw := range all {
		if slices.ContainsFunc(known, func(f string) bool { return strings.EqualFold(f, key) }) {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[key] = v
	}
	return extra, nil
}

// appendExtra splices extra into the encoded object base, in key order.
// Keys that base already has are skipped.
func appendExtra(base []byte, extra map[string]any) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	var have map[string]json.RawMessage
	if err := json.Unmarshal(base, &have); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	empty := len(have) == 0
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		if _, ok := have[k]; ok {
			continue
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(extra[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		if !empty {
			buf.WriteByte(',')
		}
		empty = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
