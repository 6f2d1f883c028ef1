package store

import (
	"context"
	"time"

	"github.com/matzehuels/shadergraph/pkg/observability"
)

// Instrument reports every call on s to the registered store hooks under
// the given backend name.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

type instrumented struct {
	Store
	backend string
}

func (i *instrumented) report(ctx context.Context, op, key string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, i.backend, op, key, time.Since(start), err)
}

func (i *instrumented) Save(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	err := i.Store.Save(ctx, key, data)
	i.report(ctx, "save", key, start, err)
	return err
}

func (i *instrumented) Load(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := i.Store.Load(ctx, key)
	i.report(ctx, "load", key, start, err)
	return data, err
}

func (i *instrumented) List(ctx context.Context) ([]Entry, error) {
	start := time.Now()
	entries, err := i.Store.List(ctx)
	i.report(ctx, "list", "", start, err)
	return entries, err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Store.Delete(ctx, key)
	i.report(ctx, "delete", key, start, err)
	return err
}
