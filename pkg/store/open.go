package store

import (
	"context"
	"net/url"

	"github.com/matzehuels/shadergraph/pkg/errors"
)

// Open returns the store named by rawURL, wrapped with [Instrument]. A
// value without a scheme is treated as a file store directory.
func Open(ctx context.Context, rawURL string, opts Options) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse store url")
	}

	var s Store
	backend := u.Scheme
	switch u.Scheme {
	case "memory":
		s = NewMemoryStore()
	case "", "file":
		backend = "file"
		dir := rawURL
		if u.Scheme != "" {
			dir = u.Host + u.Path
		}
		s, err = NewFileStore(dir)
	case "badger":
		inMem := u.Query().Get("inmemory") == "true"
		s, err = NewBadgerStore(BadgerOptions{Dir: u.Host + u.Path, InMemory: inMem, Logger: opts.Logger})
	case "redis", "rediss":
		backend = "redis"
		s, err = NewRedisStore(ctx, rawURL)
	case "mongodb", "mongodb+srv":
		backend = "mongo"
		s, err = NewMongoStore(ctx, rawURL)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported store scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, backend), nil
}
