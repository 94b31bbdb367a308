package addons

import (
	"context"
	"log/slog"

	"github.com/lumen-ui/lumen/pkg/lumen"
)

// DebugConfig configures the Debug plugin.
type DebugConfig struct {
	// LogGets enables logging of every read. Off by default: get volume
	// dwarfs everything else once effects are tracking.
	LogGets bool

	// Level is the log level for operation entries (default: Debug).
	Level slog.Level
}

// DebugOption configures the Debug plugin.
type DebugOption func(*DebugConfig)

// WithGets enables per-read logging.
func WithGets() DebugOption {
	return func(c *DebugConfig) {
		c.LogGets = true
	}
}

// WithLevel sets the log level for operation entries.
func WithLevel(level slog.Level) DebugOption {
	return func(c *DebugConfig) {
		c.Level = level
	}
}

// Debug returns a plugin that logs container operations through slog.
// A nil logger uses slog.Default.
func Debug(log *slog.Logger, opts ...DebugOption) lumen.Plugin {
	config := DebugConfig{Level: slog.LevelDebug}
	for _, opt := range opts {
		opt(&config)
	}
	if log == nil {
		log = slog.Default()
	}

	var name string

	p := lumen.Plugin{
		Name: "debug",
		OnInit: func(c *lumen.Container) {
			name = c.Name()
			log.Log(context.Background(), config.Level, "container created",
				"container", name, "keys", len(c.Keys()))
		},
		OnSet: func(key string, next, prev any) lumen.HookResult {
			log.Log(context.Background(), config.Level, "set",
				"container", name, "key", key, "next", next, "prev", prev)
			return lumen.Unchanged()
		},
		OnSubscribe: func(key string) {
			log.Log(context.Background(), config.Level, "subscribe", "container", name, "key", key)
		},
		OnNotify: func(key string, value any) {
			log.Log(context.Background(), config.Level, "notify",
				"container", name, "key", key, "value", value)
		},
	}

	if config.LogGets {
		p.OnGet = func(key string, value any) lumen.HookResult {
			log.Log(context.Background(), config.Level, "get", "container", name, "key", key)
			return lumen.Unchanged()
		}
	}

	return p
}
