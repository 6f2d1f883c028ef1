// Package observability lets an application observe library events
// (project loads, migrations, cache traffic, store operations) without the
// libraries depending on a logging or metrics stack.
//
// Hooks default to no-ops. The CLI installs hooks that log through
// charmbracelet/log at debug level.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetProjectHooks(&myProjectHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Project().OnLoadStart(ctx, len(data))
//	// ... parse, migrate, deserialize ...
//	observability.Project().OnLoadComplete(ctx, modules, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// ProjectHooks receives events from project loading and saving.
type ProjectHooks interface {
	OnLoadStart(ctx context.Context, size int)
	OnLoadComplete(ctx context.Context, modules int, duration time.Duration, err error)

	// OnMigrate fires after a legacy document was rewritten. cached is true
	// when the result came from the migration cache.
	OnMigrate(ctx context.Context, nodes, changes int, cached bool)

	// OnRepair fires when malformed JSON was repaired before parsing.
	OnRepair(ctx context.Context, before, after int)

	OnSave(ctx context.Context, modules int, duration time.Duration, err error)
}

// CacheHooks receives migration cache traffic. keyType names the cached
// artifact, e.g. "migrate".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// StoreHooks receives events from project store backends.
type StoreHooks interface {
	// OnStoreOp records one store call. op is "save", "load", "list" or
	// "delete"; backend is the URL scheme.
	OnStoreOp(ctx context.Context, backend, op, key string, duration time.Duration, err error)
}

// NoopProjectHooks is a no-op implementation of ProjectHooks.
type NoopProjectHooks struct{}

func (NoopProjectHooks) OnLoadStart(context.Context, int)                          {}
func (NoopProjectHooks) OnLoadComplete(context.Context, int, time.Duration, error) {}
func (NoopProjectHooks) OnMigrate(context.Context, int, int, bool)                 {}
func (NoopProjectHooks) OnRepair(context.Context, int, int)                        {}
func (NoopProjectHooks) OnSave(context.Context, int, time.Duration, error)         {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreOp(context.Context, string, string, string, time.Duration, error) {}

var (
	projectHooks ProjectHooks = NoopProjectHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	storeHooks   StoreHooks   = NoopStoreHooks{}
	hooksMu      sync.RWMutex
)

// SetProjectHooks registers custom project hooks. A nil h is ignored.
func SetProjectHooks(h ProjectHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		projectHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetStoreHooks registers custom store hooks. A nil h is ignored.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Project returns the registered project hooks.
func Project() ProjectHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return projectHooks
}

// Cache returns the current cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset installs the no-op hooks everywhere. Tests that set hooks should
// call it in t.Cleanup.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	projectHooks = NoopProjectHooks{}
	cacheHooks = NoopCacheHooks{}
	storeHooks = NoopStoreHooks{}
}
