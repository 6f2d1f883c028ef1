package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	p.start = time.Now().Add(-1500 * time.Millisecond)
	p.done("Migrated scene")

	out := buf.String()
	if !strings.Contains(out, "Migrated scene (1.5") {
		t.Errorf("progress output = %q, want message with elapsed time", out)
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext(empty) should fall back to log.Default()")
	}
	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if got := loggerFromContext(withLogger(context.Background(), l)); got != l {
		t.Error("loggerFromContext did not return the attached logger")
	}
}

func TestLogHooks(t *testing.T) {
	ctx := context.Background()

	t.Run("silent at info level", func(t *testing.T) {
		var buf bytes.Buffer
		h := logHooks{logger: newLogger(&buf, log.InfoLevel)}
		h.OnLoadStart(ctx, 42)
		h.OnCacheHit(ctx, "migrate")
		h.OnStoreOp(ctx, "memory", "save", "scene", time.Millisecond, nil)
		if buf.Len() != 0 {
			t.Errorf("hooks logged at info level: %q", buf.String())
		}
	})

	t.Run("repair warns", func(t *testing.T) {
		var buf bytes.Buffer
		h := logHooks{logger: newLogger(&buf, log.InfoLevel)}
		h.OnRepair(ctx, 10, 12)
		if !strings.Contains(buf.String(), "repaired malformed JSON") {
			t.Errorf("OnRepair output = %q", buf.String())
		}
	})

	t.Run("debug", func(t *testing.T) {
		var buf bytes.Buffer
		h := logHooks{logger: newLogger(&buf, log.DebugLevel)}
		h.OnLoadComplete(ctx, 0, time.Millisecond, errors.New("boom"))
		h.OnMigrate(ctx, 3, 2, true)
		h.OnStoreOp(ctx, "badger", "load", "scene", time.Millisecond, nil)

		out := buf.String()
		for _, want := range []string{"load failed", "boom", "migrated legacy project", "backend=badger", "op=load"} {
			if !strings.Contains(out, want) {
				t.Errorf("hook output missing %q:\n%s", want, out)
			}
		}
	})
}
