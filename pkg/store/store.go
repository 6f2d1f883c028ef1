// Package store persists project documents by key.
//
// A [Store] holds encoded project documents and hands them back byte for
// byte; parsing and migration stay in pkg/project. Keys are short user
// names ("scene", "demo-2"); backends store them under [KeyPrefix].
//
// Backends:
//
//   - memory://            in-process map, for tests
//   - file:///path/to/dir  one JSON file per project
//   - badger:///path       embedded BadgerDB ("badger://?inmemory=true" for a throwaway store)
//   - redis://host:6379/0  Redis strings
//   - mongodb://host/db    MongoDB collection "projects"
//
// Use [Open] to pick a backend from a URL.
package store

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shadergraph/pkg/errors"
	"github.com/matzehuels/shadergraph/pkg/project"
)

// KeyPrefix namespaces project keys inside shared backends.
const KeyPrefix = "asmblr-project-"

// ErrNotFound is returned when a key holds no project. It carries
// [errors.ErrCodeNotFound].
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "project not found")

// Store persists encoded project documents. Implementations are safe for
// concurrent use.
type Store interface {
	// Save writes data under key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error
	// Load returns the bytes saved under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// List returns every stored project, most recently modified first.
	List(ctx context.Context) ([]Entry, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry describes a stored project without loading it.
type Entry struct {
	Key      string `json:"key"`
	Name     string `json:"name,omitempty"`
	Created  string `json:"created,omitempty"`
	Modified string `json:"modified,omitempty"`
	Size     int    `json:"size"`
}

// entryFor reads listing metadata from an encoded document. Documents that
// do not parse still get an entry.
func entryFor(key string, data []byte) Entry {
	e := Entry{Key: key, Size: len(data)}
	var meta struct {
		Name     string `json:"name"`
		Created  string `json:"created"`
		Modified string `json:"modified"`
	}
	if json.Unmarshal(data, &meta) == nil {
		e.Name, e.Created, e.Modified = meta.Name, meta.Created, meta.Modified
	}
	return e
}

// sortEntries orders entries by modification time, newest first. Entries
// without a parseable time sort last, by key.
func sortEntries(entries []Entry) {
	parse := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339Nano, s)
		return t
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := parse(b.Modified).Compare(parse(a.Modified)); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
}

// checkKey rejects keys that are empty, too long or path-like.
func checkKey(key string) error { return errors.ValidateStoreKey(key) }

func storageKey(key string) string { return KeyPrefix + key }

func userKey(stored string) (string, bool) { return strings.CutPrefix(stored, KeyPrefix) }

// SaveDocument encodes doc and saves it under key.
func SaveDocument(ctx context.Context, s Store, key string, doc *project.Document) error {
	data, err := project.Marshal(doc)
	if err != nil {
		return err
	}
	return s.Save(ctx, key, data)
}

// LoadProject loads key and runs it through [project.Load].
func LoadProject(ctx context.Context, s Store, key string, opts project.Options) (*project.Loaded, error) {
	data, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return project.Load(ctx, data, opts)
}

// Options configure [Open].
type Options struct {
	// Logger receives backend diagnostics (badger). Optional.
	Logger *log.Logger
}
