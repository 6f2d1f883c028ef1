package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	sgerrors "github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/graph"
	"github.com/matzehuels/shadergraph/pkg/modules"
	"github.com/matzehuels/shadergraph/pkg/nodes/catalog"
	"github.com/matzehuels/shadergraph/pkg/observability"
	"github.com/matzehuels/shadergraph/pkg/project"
)

func doc(name, modified string) []byte {
	return []byte(fmt.Sprintf(`{"version":"1.0.0","name":%q,"created":"2024-01-01T00:00:00Z","modified":%q}`, name, modified))
}

func newBadger(t *testing.T) Store {
	t.Helper()
	s, err := NewBadgerStore(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newFile(t *testing.T) Store {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory":       NewMemoryStore(),
		"file":         newFile(t),
		"badger":       newBadger(t),
		"instrumented": Instrument(NewMemoryStore(), "memory"),
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
			}
			if !sgerrors.Is(ErrNotFound, sgerrors.ErrCodeNotFound) {
				t.Errorf("ErrNotFound code = %v", sgerrors.GetCode(ErrNotFound))
			}

			first := doc("first", "2024-01-02T00:00:00Z")
			if err := s.Save(ctx, "a", first); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := s.Load(ctx, "a")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if string(got) != string(first) {
				t.Errorf("Load = %s, want %s", got, first)
			}

			replaced := doc("replaced", "2024-01-03T00:00:00Z")
			if err := s.Save(ctx, "a", replaced); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if got, _ := s.Load(ctx, "a"); string(got) != string(replaced) {
				t.Errorf("Load after overwrite = %s, want %s", got, replaced)
			}

			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load after Delete error = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, "a"); err != nil {
				t.Errorf("Delete(missing) = %v, want nil", err)
			}
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s.Save(ctx, "old", doc("Old", "2024-01-01T00:00:00Z"))
			s.Save(ctx, "new", doc("New", "2024-03-01T00:00:00Z"))
			s.Save(ctx, "mid", doc("Mid", "2024-02-01T00:00:00Z"))
			s.Save(ctx, "junk", []byte("not json"))

			entries, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var keys []string
			for _, e := range entries {
				keys = append(keys, e.Key)
			}
			want := []string{"new", "mid", "old", "junk"}
			if !slices.Equal(keys, want) {
				t.Errorf("List keys = %v, want %v", keys, want)
			}
			if entries[0].Name != "New" {
				t.Errorf("entries[0].Name = %q, want New", entries[0].Name)
			}
			if entries[3].Size != len("not json") {
				t.Errorf("junk size = %d, want %d", entries[3].Size, len("not json"))
			}
		})
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../etc", "a/b", "a\\b"} {
				if err := s.Save(ctx, key, []byte("{}")); !sgerrors.Is(err, sgerrors.ErrCodeInvalidInput) {
					t.Errorf("Save(%q) error = %v, want INVALID_INPUT", key, err)
				}
				if _, err := s.Load(ctx, key); !sgerrors.Is(err, sgerrors.ErrCodeInvalidInput) {
					t.Errorf("Load(%q) error = %v, want INVALID_INPUT", key, err)
				}
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Save(context.Background(), "scene", []byte("{}")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path := filepath.Join(dir, KeyPrefix+"scene.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %v, want 0600", perm)
	}

	// Unrelated files in the directory are not listed.
	os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0600)
	entries, _ := s.List(context.Background())
	if len(entries) != 1 || entries[0].Key != "scene" {
		t.Errorf("List = %+v, want only scene", entries)
	}
}

func TestEntryFor(t *testing.T) {
	e := entryFor("k", doc("Demo", "2024-05-01T00:00:00Z"))
	if e.Name != "Demo" || e.Modified != "2024-05-01T00:00:00Z" || e.Created != "2024-01-01T00:00:00Z" {
		t.Errorf("entryFor = %+v", e)
	}
	e = entryFor("k", []byte("[1,2]"))
	if e.Key != "k" || e.Name != "" || e.Size != 5 {
		t.Errorf("entryFor(array) = %+v", e)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		url  string
		want string
	}{
		{"memory://", "*store.MemoryStore"},
		{"file://" + dir, "*store.FileStore"},
		{dir, "*store.FileStore"},
		{"badger://?inmemory=true", "*store.BadgerStore"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			s, err := Open(ctx, tt.url, Options{})
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
			inner, ok := s.(*instrumented)
			if !ok {
				t.Fatalf("Open returned %T, want instrumented store", s)
			}
			if got := fmt.Sprintf("%T", inner.Store); got != tt.want {
				t.Errorf("backend = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := Open(ctx, "ftp://example.com", Options{}); !sgerrors.Is(err, sgerrors.ErrCodeUnsupported) {
		t.Errorf("Open(ftp) error = %v, want UNSUPPORTED", err)
	}
}

func TestOpenFileURLUsesPath(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), "file://"+dir, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fs := s.(*instrumented).Store.(*FileStore)
	if fs.Path() != dir {
		t.Errorf("Path = %q, want %q", fs.Path(), dir)
	}
}

func TestMongoDatabase(t *testing.T) {
	tests := []struct {
		uri, want string
	}{
		{"mongodb://localhost:27017", DefaultMongoDatabase},
		{"mongodb://localhost:27017/", DefaultMongoDatabase},
		{"mongodb://localhost:27017/editor", "editor"},
	}
	for _, tt := range tests {
		if got := mongoDatabase(tt.uri); got != tt.want {
			t.Errorf("mongoDatabase(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestRecordFor(t *testing.T) {
	data := doc("Demo", "2024-05-01T00:00:00Z")
	rec := recordFor("demo", data)
	if rec.ID != KeyPrefix+"demo" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Name != "Demo" || rec.Modified != "2024-05-01T00:00:00Z" {
		t.Errorf("record = %+v", rec)
	}
	if string(rec.Data) != string(data) {
		t.Errorf("Data not stored verbatim")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	orig := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = orig })
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errors.New("refused"))
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("transient failure: err = %v, calls = %d, want nil, 2", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(errors.New("down"))
	})
	if err == nil || calls != retryAttempts {
		t.Errorf("persistent failure: err = %v, calls = %d, want error, %d", err, calls, retryAttempts)
	}
	if !IsRetryable(err) {
		t.Errorf("last error should stay retryable: %v", err)
	}

	calls = 0
	fatal := errors.New("auth failed")
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) || calls != 1 {
		t.Errorf("fatal failure: err = %v, calls = %d, want fatal, 1", err, calls)
	}

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errors.New("refused"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type storeOp struct {
	backend, op, key string
	failed           bool
}

type recordingStoreHooks struct {
	mu  sync.Mutex
	ops []storeOp
}

func (h *recordingStoreHooks) OnStoreOp(_ context.Context, backend, op, key string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, storeOp{backend, op, key, err != nil})
}

func TestInstrument(t *testing.T) {
	hooks := &recordingStoreHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s := Instrument(NewMemoryStore(), "memory")
	s.Save(ctx, "a", []byte("{}"))
	s.Load(ctx, "b")
	s.List(ctx)
	s.Delete(ctx, "a")

	want := []storeOp{
		{"memory", "save", "a", false},
		{"memory", "load", "b", true},
		{"memory", "list", "", false},
		{"memory", "delete", "a", false},
	}
	if !slices.Equal(hooks.ops, want) {
		t.Errorf("ops = %+v, want %+v", hooks.ops, want)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	reg := catalog.MustDefault()
	g := graph.New(reg)
	if _, err := g.AddNode(graph.Node{ID: "s", Type: "Sphere3D", Data: map[string]any{"radius": 2.0}}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	c := modules.New(reg)
	if _, err := c.Add("main", g); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := c.Open("main"); err != nil {
		t.Fatalf("Open: %v", err)
	}

	ctx := context.Background()
	s := NewMemoryStore()
	if err := SaveDocument(ctx, s, "scene", project.Serialize(c, project.DefaultViewport, nil)); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	loaded, err := LoadProject(ctx, s, "scene", project.Options{Resolver: reg})
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if names := loaded.Collection.Names(); !slices.Equal(names, []string{"main"}) {
		t.Errorf("Names = %v, want [main]", names)
	}
	got, _ := loaded.Collection.Get("main")
	n, ok := got.Node("s")
	if !ok || n.Type != "Sphere3D" || n.Data["radius"] != 2.0 {
		t.Errorf("node s = %+v", n)
	}

	if _, err := LoadProject(ctx, s, "other", project.Options{Resolver: reg}); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadProject(missing) error = %v, want ErrNotFound", err)
	}
}
