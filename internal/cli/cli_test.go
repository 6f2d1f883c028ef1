package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/observability"
	"github.com/matzehuels/shadergraph/pkg/project"
)

const sampleProject = `{
  "version": "1.0.0",
  "created": "2024-01-01T00:00:00Z",
  "modified": "2024-01-01T00:00:00Z",
  "name": "sample",
  "description": "",
  "graph": {"moduleList": {"main": {
    "nodes": [
      {"id": "s", "name": "Sphere3D", "position": {"x": 0, "y": 0}, "data": {"radius": 0.5}},
      {"id": "u", "name": "Union", "position": {"x": 300, "y": 0}, "data": {}}
    ],
    "connections": []
  }}},
  "editorSettings": {"viewport": {"x": 10, "y": 20, "zoom": 2}}
}`

const legacySample = `{"moduleList":[{"name":"m1","nodes":[
	{"id":"n1","name":"Difference","data":{}},
	{"id":"n2","name":"Plane3D","data":{}},
	{"id":"n3","name":"Plane3D","data":{}}],
	"connections":[
	{"id":"c1","source":"n2","sourceOutput":"expr","target":"n1","targetInput":"expr1"},
	{"id":"c2","source":"n3","sourceOutput":"expr","target":"n1","targetInput":"expr2"}]}]}`

// isolate points config, cache and env lookups at empty locations.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, k := range []string{envStore, envMode, envRepair, envCatalog} {
		t.Setenv(k, "")
	}
	t.Cleanup(observability.Reset)
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene"+project.ExportSuffix)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readProject(t *testing.T, path string) *project.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc project.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return &doc
}

func module(t *testing.T, doc *project.Document, name string) project.Module {
	t.Helper()
	for _, m := range doc.Modules() {
		if m.Name == name {
			return m.Module
		}
	}
	t.Fatalf("module %q not in %s", name, describeModules(doc))
	return project.Module{}
}

func describeModules(doc *project.Document) string {
	var names []string
	for _, m := range doc.Modules() {
		names = append(names, m.Name)
	}
	return strings.Join(names, ",")
}

func nodeTypes(m project.Module) []string {
	var out []string
	for _, n := range m.Nodes {
		out = append(out, n.TypeID())
	}
	return out
}

func TestNodesCommands(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "nodes", "list", "--json")
	if err != nil {
		t.Fatalf("nodes list: %v", err)
	}
	var listed []nodeSummary
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if !slices.ContainsFunc(listed, func(s nodeSummary) bool { return s.Type == "Sphere3D" }) {
		t.Errorf("nodes list missing Sphere3D")
	}

	out, err = runCLI(t, "nodes", "search", "sphere", "--json")
	if err != nil {
		t.Fatalf("nodes search: %v", err)
	}
	var found []nodeSummary
	json.Unmarshal([]byte(out), &found)
	if len(found) == 0 || found[0].Type != "Sphere3D" {
		t.Errorf("search sphere = %+v, want Sphere3D first", found)
	}

	out, err = runCLI(t, "nodes", "show", "Sphere3D")
	if err != nil {
		t.Fatalf("nodes show: %v", err)
	}
	for _, want := range []string{"Sphere 3D", "radius", "Outputs"} {
		if !strings.Contains(out, want) {
			t.Errorf("nodes show missing %q:\n%s", want, out)
		}
	}
	if _, err := runCLI(t, "nodes", "show", "Teapot"); !errors.Is(err, errors.ErrCodeUnknownType) {
		t.Errorf("nodes show Teapot error = %v, want UNKNOWN_TYPE", err)
	}

	out, err = runCLI(t, "nodes", "modes", "--json")
	if err != nil {
		t.Fatalf("nodes modes: %v", err)
	}
	for _, want := range []string{`"neo"`, `"sysl"`, `"geolipi"`} {
		if !strings.Contains(out, want) {
			t.Errorf("modes missing %s", want)
		}
	}
}

func TestEditWorkflow(t *testing.T) {
	isolate(t)
	path := writeProject(t, sampleProject)

	steps := [][]string{
		{"edit", "connect", path, "s.expr", "u.expr"},
		{"edit", "set", path, "s", "radius", "2"},
		{"edit", "add-node", path, "Box3D", "--at", "10,20"},
		{"edit", "add-module", path, "extra"},
		{"edit", "rename-module", path, "extra", "helpers"},
	}
	for _, args := range steps {
		if _, err := runCLI(t, args...); err != nil {
			t.Fatalf("%v: %v", args[1:2], err)
		}
	}

	doc := readProject(t, path)
	first := module(t, doc, "main")
	if got := nodeTypes(first); !slices.Equal(got, []string{"Sphere3D", "Union", "Box3D"}) {
		t.Errorf("node types = %v", got)
	}
	if len(first.Connections) != 1 || first.Connections[0].Source != "s" || first.Connections[0].Target != "u" {
		t.Errorf("connections = %+v, want s -> u", first.Connections)
	}
	if first.Nodes[0].Data["radius"] != 2.0 {
		t.Errorf("radius = %v, want 2", first.Nodes[0].Data["radius"])
	}
	if p := first.Nodes[2].Position; p == nil || p.X != 10 || p.Y != 20 {
		t.Errorf("Box3D position = %+v, want 10,20", p)
	}
	if names := describeModules(doc); names != "main,helpers" {
		t.Errorf("modules = %s, want main,helpers", names)
	}
	if doc.Created != "2024-01-01T00:00:00Z" || doc.Name != "sample" {
		t.Errorf("envelope not carried over: created %q name %q", doc.Created, doc.Name)
	}
	if doc.EditorSettings.Viewport != (project.Viewport{X: 10, Y: 20, Zoom: 2}) {
		t.Errorf("viewport = %+v", doc.EditorSettings.Viewport)
	}

	if _, err := runCLI(t, "edit", "remove-node", path, "s"); err != nil {
		t.Fatalf("remove-node: %v", err)
	}
	first = module(t, readProject(t, path), "main")
	if len(first.Nodes) != 2 || len(first.Connections) != 0 {
		t.Errorf("after remove-node: %d nodes, %d connections, want 2, 0", len(first.Nodes), len(first.Connections))
	}

	if _, err := runCLI(t, "edit", "-m", "helpers", "add-node", path, "Sphere3D"); err != nil {
		t.Fatalf("add-node in helpers: %v", err)
	}
	helpers := module(t, readProject(t, path), "helpers")
	if len(helpers.Nodes) != 1 || helpers.Nodes[0].Data["radius"] != 0.5 {
		t.Errorf("helpers nodes = %+v, want one Sphere3D with default radius", helpers.Nodes)
	}
}

func TestEditRejectedChangeLeavesFile(t *testing.T) {
	isolate(t)
	path := writeProject(t, sampleProject)
	before, _ := os.ReadFile(path)

	tests := []struct {
		args []string
		code errors.Code
	}{
		{[]string{"edit", "connect", path, "s.expr", "s.radius"}, errors.ErrCodeSelfConnection},
		{[]string{"edit", "connect", path, "s.expr", "x.expr"}, errors.ErrCodeUnknownNode},
		{[]string{"edit", "connect", path, "s.nope", "u.expr"}, errors.ErrCodeUnknownSocket},
		{[]string{"edit", "disconnect", path, "missing"}, errors.ErrCodeUnknownEdge},
		{[]string{"edit", "add-node", path, "Teapot"}, errors.ErrCodeUnknownType},
		{[]string{"edit", "-m", "nope", "add-node", path, "Sphere3D"}, errors.ErrCodeUnknownModule},
		{[]string{"edit", "add-module", path, "main"}, errors.ErrCodeDuplicateModule},
		{[]string{"edit", "remove-module", path, "main"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[1:2], " ")+" "+string(tt.code), func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
			after, _ := os.ReadFile(path)
			if !bytes.Equal(before, after) {
				t.Error("file changed after a rejected edit")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	good := writeProject(t, sampleProject)
	legacy := writeProject(t, legacySample)
	bad := writeProject(t, `{"version":"1.0.0","created":"x","modified":"x","graph":{"moduleList":{"m":{"nodes":"oops"}}}}`)

	out, err := runCLI(t, "validate", good, legacy)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	for _, want := range []string{"2 nodes", "migrated"} {
		if !strings.Contains(out, want) {
			t.Errorf("validate output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "validate", "--json", good, bad)
	if err == nil {
		t.Fatal("validate with a broken file should fail")
	}
	var reports []fileReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode reports: %v\n%s", err, out)
	}
	if len(reports) != 2 || !reports[0].OK || reports[1].OK || reports[1].Error == "" {
		t.Errorf("reports = %+v", reports)
	}
}

func TestMigrate(t *testing.T) {
	isolate(t)
	path := writeProject(t, legacySample)
	out := filepath.Join(t.TempDir(), "migrated.json")

	if _, err := runCLI(t, "migrate", path, "-o", out); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	doc := readProject(t, out)
	if doc.Version != project.Version {
		t.Errorf("version = %q, want %q", doc.Version, project.Version)
	}
	m := module(t, doc, "m1")
	if got := nodeTypes(m); !slices.Equal(got, []string{"Difference", "PlaneV23D", "PlaneV23D"}) {
		t.Errorf("types = %v", got)
	}
	for _, c := range m.Connections {
		if c.TargetInput != "expr_0" && c.TargetInput != "expr_1" {
			t.Errorf("connection %s targetInput = %q", c.ID, c.TargetInput)
		}
	}

	ordered := writeProject(t, `{"author":"kim","moduleList":[{"name":"zeta","nodes":[]},{"name":"alpha","nodes":[]}]}`)
	orderedOut := filepath.Join(t.TempDir(), "ordered.json")
	if _, err := runCLI(t, "migrate", ordered, "-o", orderedOut); err != nil {
		t.Fatalf("migrate ordered: %v", err)
	}
	if got := describeModules(readProject(t, orderedOut)); got != "zeta,alpha" {
		t.Errorf("migrated modules = %s, want zeta,alpha", got)
	}
	raw, err := os.ReadFile(orderedOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"author": "kim"`) {
		t.Errorf("migrated file dropped author:\n%s", raw)
	}

	current := writeProject(t, sampleProject)
	stdout, err := runCLI(t, "migrate", current)
	if err != nil {
		t.Fatalf("migrate current: %v", err)
	}
	if !strings.Contains(stdout, "already in the current format") {
		t.Errorf("migrate current output = %q", stdout)
	}
	if _, err := os.Stat(migratedName(current)); !os.IsNotExist(err) {
		t.Error("migrate wrote a file for a current-format project")
	}
}

func TestQueryAndSchema(t *testing.T) {
	isolate(t)
	path := writeProject(t, sampleProject)

	out, err := runCLI(t, "query", path, "-r", ".graph.moduleList.main.nodes[].name")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if out != "Sphere3D\nUnion\n" {
		t.Errorf("query output = %q", out)
	}
	if _, err := runCLI(t, "query", path, ".graph["); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad jq error = %v, want INVALID_INPUT", err)
	}

	out, err = runCLI(t, "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(out, `"title": "shadergraph project"`) {
		t.Errorf("schema output missing title:\n%.200s", out)
	}
}

func TestInspect(t *testing.T) {
	isolate(t)
	path := writeProject(t, sampleProject)

	out, err := runCLI(t, "inspect", "--json", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var got struct {
		Name    string          `json:"name"`
		Current string          `json:"current"`
		Modules []moduleSummary `json:"modules"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Name != "sample" || got.Current != "main" || len(got.Modules) != 1 {
		t.Fatalf("inspect = %+v", got)
	}
	if m := got.Modules[0]; m.Nodes != 2 || m.Edges != 0 || len(m.Isolated) != 2 {
		t.Errorf("module summary = %+v", m)
	}
}

func TestStoreCommands(t *testing.T) {
	isolate(t)
	path := writeProject(t, sampleProject)
	storeURL := "file://" + t.TempDir()

	if _, err := runCLI(t, "--store", storeURL, "store", "save", path); err != nil {
		t.Fatalf("store save: %v", err)
	}

	out, err := runCLI(t, "--store", storeURL, "store", "list", "--json")
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	if !strings.Contains(out, `"key": "scene"`) || !strings.Contains(out, `"name": "sample"`) {
		t.Errorf("store list = %s", out)
	}

	dest := filepath.Join(t.TempDir(), "copy")
	if _, err := runCLI(t, "--store", storeURL, "store", "load", "scene", "-o", dest); err != nil {
		t.Fatalf("store load: %v", err)
	}
	doc := readProject(t, dest+project.ExportSuffix)
	if got := nodeTypes(module(t, doc, "main")); !slices.Equal(got, []string{"Sphere3D", "Union"}) {
		t.Errorf("loaded types = %v", got)
	}

	if _, err := runCLI(t, "--store", storeURL, "store", "delete", "scene"); err != nil {
		t.Fatalf("store delete: %v", err)
	}
	if _, err := runCLI(t, "--store", storeURL, "store", "load", "scene"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("load after delete error = %v, want NOT_FOUND", err)
	}
}

func TestExportDot(t *testing.T) {
	isolate(t)
	path := writeProject(t, sampleProject)
	runCLI(t, "edit", "connect", path, "s.expr", "u.expr")

	out, err := runCLI(t, "export", "dot", path)
	if err != nil {
		t.Fatalf("export dot: %v", err)
	}
	if !strings.HasPrefix(out, "digraph G {") || !strings.Contains(out, `"s" -> "u"`) {
		t.Errorf("export dot output:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, `"schema_version": "`+project.Version+`"`) {
		t.Errorf("version output = %s", out)
	}
}

func TestParseSocketRef(t *testing.T) {
	tests := []struct {
		in, node, socket string
		ok               bool
	}{
		{"s.expr", "s", "expr", true},
		{"node.with.dots.expr_0", "node.with.dots", "expr_0", true},
		{"nodot", "", "", false},
		{".expr", "", "", false},
		{"s.", "", "", false},
	}
	for _, tt := range tests {
		node, socket, err := parseSocketRef(tt.in)
		if (err == nil) != tt.ok || node != tt.node || socket != tt.socket {
			t.Errorf("parseSocketRef(%q) = %q, %q, %v", tt.in, node, socket, err)
		}
	}
}

func TestParsePosition(t *testing.T) {
	p, err := parsePosition("12.5, -3")
	if err != nil || p.X != 12.5 || p.Y != -3 {
		t.Errorf("parsePosition = %+v, %v", p, err)
	}
	for _, bad := range []string{"", "1", "a,2", "1,b"} {
		if _, err := parsePosition(bad); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("parsePosition(%q) error = %v", bad, err)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"1.5", 1.5},
		{"true", true},
		{`"quoted"`, "quoted"},
		{"bare", "bare"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
	if v, ok := parseValue("[0,1,0]").([]any); !ok || len(v) != 3 {
		t.Errorf("parseValue(vector) = %#v", parseValue("[0,1,0]"))
	}

	sets, err := parseAssignments([]string{"radius=2", "name=ball"})
	if err != nil || sets["radius"] != 2.0 || sets["name"] != "ball" {
		t.Errorf("parseAssignments = %v, %v", sets, err)
	}
	if _, err := parseAssignments([]string{"novalue"}); err == nil {
		t.Error("parseAssignments without = should fail")
	}
}

func TestFileNames(t *testing.T) {
	tests := []struct {
		fn       func(string) string
		in, want string
	}{
		{keyFor, "/tmp/scene.asmblr.json", "scene"},
		{keyFor, "demo.json", "demo"},
		{migratedName, "old.json", "old.migrated.asmblr.json"},
		{migratedName, "old.asmblr.json", "old.migrated.asmblr.json"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
