package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shadergraph/pkg/observability"
)

// logHooks reports library events as debug log lines.
type logHooks struct {
	logger *log.Logger
}

func installHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetProjectHooks(h)
	observability.SetCacheHooks(h)
	observability.SetStoreHooks(h)
}

func (h logHooks) OnLoadStart(_ context.Context, size int) {
	h.logger.Debug("loading project", "bytes", size)
}

func (h logHooks) OnLoadComplete(_ context.Context, modules int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "err", err, "took", d.Round(time.Microsecond))
		return
	}
	h.logger.Debug("loaded project", "modules", modules, "took", d.Round(time.Microsecond))
}

func (h logHooks) OnMigrate(_ context.Context, nodes, changes int, cached bool) {
	h.logger.Debug("migrated legacy project", "nodes", nodes, "changes", changes, "cached", cached)
}

func (h logHooks) OnRepair(_ context.Context, before, after int) {
	h.logger.Warn("repaired malformed JSON", "bytes_before", before, "bytes_after", after)
}

func (h logHooks) OnSave(_ context.Context, modules int, d time.Duration, err error) {
	h.logger.Debug("saved project", "modules", modules, "took", d.Round(time.Microsecond), "err", err)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnStoreOp(_ context.Context, backend, op, key string, d time.Duration, err error) {
	h.logger.Debug("store", "backend", backend, "op", op, "key", key, "took", d.Round(time.Microsecond), "err", err)
}

var (
	_ observability.ProjectHooks = logHooks{}
	_ observability.CacheHooks   = logHooks{}
	_ observability.StoreHooks   = logHooks{}
)
