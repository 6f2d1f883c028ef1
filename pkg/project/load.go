package project

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kaptinlin/jsonrepair"

	"github.com/matzehuels/shadergraph/pkg/cache"
	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/migrate"
	"github.com/matzehuels/shadergraph/pkg/modules"
	"github.com/matzehuels/shadergraph/pkg/nodes"
	"github.com/matzehuels/shadergraph/pkg/observability"
)

// Options configure [Load].
type Options struct {
	// Resolver resolves node types for the loaded graphs. Required.
	Resolver nodes.Resolver
	// Legacy forces the migration pass even when the document does not
	// look legacy.
	Legacy bool
	// Repair retries malformed JSON after running it through jsonrepair.
	Repair bool
	// Cache remembers migrated documents by input hash. Optional.
	Cache cache.Cache
	// Logger receives debug output. Optional.
	Logger *log.Logger
}

// Loaded is a successfully loaded project.
type Loaded struct {
	Document   *Document
	Collection *modules.Collection
	Report     *Report
	// Migration is set when the migration pass ran. Its Order holds the
	// module names in file order.
	Migration *migrate.Result
	// Repaired is true when the input was not valid JSON and was repaired.
	Repaired bool
}

// Load parses, migrates, checks and deserializes a project. Legacy input
// goes through pkg/migrate first. Any failure returns an error and no
// collection; callers keep their current project until Load succeeds.
func Load(ctx context.Context, data []byte, opts Options) (loaded *Loaded, err error) {
	start := time.Now()
	hooks := observability.Project()
	hooks.OnLoadStart(ctx, len(data))
	defer func() {
		n := 0
		if loaded != nil {
			n = loaded.Collection.Len()
		}
		hooks.OnLoadComplete(ctx, n, time.Since(start), err)
	}()

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	raw, src, repaired, err := parse(data, opts.Repair)
	if err != nil {
		return nil, err
	}
	if repaired {
		logger.Debug("repaired malformed project JSON")
	}
	out := &Loaded{Repaired: repaired}

	if opts.Legacy || migrate.IsLegacy(raw) {
		res, err := migrateCached(ctx, data, raw, opts)
		if err != nil {
			return nil, err
		}
		raw = res.Document
		out.Migration = res
		logger.Debug("migrated legacy project",
			"nodes", res.Stats.Nodes,
			"types_renamed", res.Stats.TypesRenamed,
			"params_renamed", res.Stats.ParamsRenamed,
			"inputs_remapped", res.Stats.InputsRemapped)
	}

	if g, _ := raw["graph"].(map[string]any); g == nil || g["moduleList"] == nil {
		return nil, errors.New(errors.ErrCodeMissingGraph, "document has no graph.moduleList")
	}
	out.Report = Check(raw, opts.Resolver)
	if err := out.Report.Err(); err != nil {
		return nil, err
	}
	for _, w := range out.Report.Warnings {
		logger.Warn(w)
	}

	doc, err := decodeDocument(raw, src, out.Migration)
	if err != nil {
		return nil, err
	}
	coll, err := Deserialize(doc, opts.Resolver)
	if err != nil {
		return nil, err
	}
	out.Document = doc
	out.Collection = coll
	return out, nil
}

// parse decodes a JSON object, repairing syntax errors when asked. It
// also returns the bytes that decoded: data itself, or the repaired text.
func parse(data []byte, repair bool) (map[string]any, []byte, bool, error) {
	var doc map[string]any
	err := json.Unmarshal(data, &doc)
	if err == nil {
		if doc == nil {
			return nil, nil, false, errors.New(errors.ErrCodeMalformedProject, "project must be a JSON object")
		}
		return doc, data, false, nil
	}
	var syntax *json.SyntaxError
	if !repair || !errors.As(err, &syntax) {
		return nil, nil, false, errors.Wrap(errors.ErrCodeMalformedProject, err, "decode project")
	}

	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return nil, nil, false, errors.Wrap(errors.ErrCodeMalformedProject, err, "decode project")
	}
	observability.Project().OnRepair(context.Background(), len(data), len(fixed))
	if err := json.Unmarshal([]byte(fixed), &doc); err != nil || doc == nil {
		return nil, nil, false, errors.New(errors.ErrCodeMalformedProject, "project is not a JSON object after repair")
	}
	return doc, []byte(fixed), true, nil
}

// migrateCached runs the migration pass, consulting opts.Cache by hash of
// the original input bytes.
func migrateCached(ctx context.Context, data []byte, raw map[string]any, opts Options) (*migrate.Result, error) {
	hooks := observability.Project()
	key := cache.Key("migrate", migrate.Version, cache.Hash(data))
	if opts.Cache != nil {
		if cached, ok, err := opts.Cache.Get(ctx, key); err == nil && ok {
			var res migrate.Result
			if json.Unmarshal(cached, &res) == nil && res.Document != nil {
				if res.Stats.Wrapped {
					restamp(res.Document, raw)
				}
				observability.Cache().OnCacheHit(ctx, "migrate")
				hooks.OnMigrate(ctx, res.Stats.Nodes, changes(res.Stats), true)
				return &res, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "migrate")
	}

	res, err := migrate.Migrate(raw, migrate.Options{Force: true, Now: now})
	if err != nil {
		return nil, err
	}
	hooks.OnMigrate(ctx, res.Stats.Nodes, changes(res.Stats), false)
	if opts.Cache != nil {
		if enc, err := json.Marshal(res); err == nil {
			if opts.Cache.Set(ctx, key, enc, 0) == nil {
				observability.Cache().OnCacheSet(ctx, "migrate", len(enc))
			}
		}
	}
	return res, nil
}

// restamp replaces the envelope times a cached migration synthesized with
// the current time. Times the input carried are left alone.
func restamp(doc, input map[string]any) {
	stamp := timestamp()
	for _, key := range []string{"created", "modified"} {
		switch v := input[key].(type) {
		case nil:
			doc[key] = stamp
		case string:
			if v == "" {
				doc[key] = stamp
			}
		}
	}
}

func changes(s migrate.Stats) int {
	return s.TypesRenamed + s.ParamsRenamed + s.InputsRemapped
}

// decodeDocument builds the typed document. Without a migration it decodes
// src directly so the module list keeps file order. A migrated document
// only exists as a map, so its modules are put back in the order of the
// input, which is also recorded in res.Order.
func decodeDocument(raw map[string]any, src []byte, res *migrate.Result) (*Document, error) {
	data := src
	if res != nil {
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode document")
		}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedProject, err, "decode document")
	}
	if res != nil && doc.Graph != nil && doc.Graph.ModuleList != nil {
		if res.Order == nil {
			res.Order = moduleOrder(src)
		}
		doc.Graph.ModuleList.reorder(res.Order)
	}
	return &doc, nil
}

// moduleOrder returns the module names of src in file order, looking at
// graph.moduleList first and the legacy top-level moduleList second. It
// returns nil when neither decodes.
func moduleOrder(src []byte) []string {
	var top struct {
		Graph *struct {
			ModuleList json.RawMessage `json:"moduleList"`
		} `json:"graph"`
		ModuleList json.RawMessage `json:"moduleList"`
	}
	if json.Unmarshal(src, &top) != nil {
		return nil
	}
	list := top.ModuleList
	if top.Graph != nil && len(top.Graph.ModuleList) > 0 {
		list = top.Graph.ModuleList
	}
	if len(list) == 0 {
		return nil
	}
	var ml ModuleList
	if ml.UnmarshalJSON(list) != nil {
		return nil
	}
	names := make([]string, len(ml))
	for i, m := range ml {
		names[i] = m.Name
	}
	return names
}

// Read loads a project from r. The whole input is read before parsing.
// Read does not close r.
func Read(ctx context.Context, r io.Reader, opts Options) (*Loaded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Load(ctx, data, opts)
}

// ImportFile loads the project file at path.
func ImportFile(ctx context.Context, path string, opts Options) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return Load(ctx, data, opts)
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns doc as indented JSON.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportName returns name with [ExportSuffix] appended if missing.
func ExportName(name string) string {
	if strings.HasSuffix(name, ExportSuffix) {
		return name
	}
	return strings.TrimSuffix(name, ".json") + ExportSuffix
}

// ExportFile writes doc to path, adding [ExportSuffix] when path lacks it,
// and returns the path written.
func ExportFile(ctx context.Context, doc *Document, path string) (written string, err error) {
	start := time.Now()
	defer func() {
		n := len(doc.Modules())
		observability.Project().OnSave(ctx, n, time.Since(start), err)
	}()

	path = ExportName(path)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := Write(f, doc); err != nil {
		return "", err
	}
	return path, f.Close()
}
