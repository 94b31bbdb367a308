package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumen-ui/lumen/internal/config"
	"github.com/lumen-ui/lumen/pkg/addons"
	"github.com/lumen-ui/lumen/pkg/devtools"
	"github.com/lumen-ui/lumen/pkg/dom"
	"github.com/lumen-ui/lumen/pkg/lumen"
	"github.com/lumen-ui/lumen/pkg/repeat"
)

// task is the demo's list item.
type task struct {
	ID    int
	Title string
	Done  bool
}

func demoCmd() *cobra.Command {
	var (
		addr     string
		cfgPath  string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a sample reactive app with the devtools server",
		Long: `Runs an in-memory task list driven by the reactive core: a container
holds the tasks, a computed derives the open count, a keyed reconciler
mirrors the list into a DOM tree, and a ticker mutates state through the
main loop. The devtools server exposes snapshots and a live event stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return runDemo(cmd.Context(), cfg, interval)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "devtools listen address (overrides config)")
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to lumen.json")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "mutation interval")
	return cmd
}

func runDemo(parent context.Context, cfg *config.Config, interval time.Duration) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := devtools.NewRecorder(devtools.WithRingSize(cfg.Devtools.Ring))

	loop := lumen.NewLoop()
	state := lumen.New(map[string]any{
		"tasks": []any{
			task{ID: 1, Title: "wire the container"},
			task{ID: 2, Title: "mount the reconciler"},
		},
		"filter": "all",
	},
		lumen.WithName(cfg.Name),
		lumen.WithScheduler(loop),
		lumen.WithLogger(log),
		lumen.WithPlugins(addons.Debug(log), rec.Plugin()),
	)

	open, err := lumen.NewComputed(func() any {
		tasks, _ := state.Get("tasks").([]any)
		n := 0
		for _, item := range tasks {
			if t, ok := item.(task); ok && !t.Done {
				n++
			}
		}
		return n
	}, lumen.WithName(cfg.Name+".open"), lumen.WithScheduler(loop))
	if err != nil {
		return err
	}
	defer open.Dispose()

	doc := dom.NewDocument()
	list := doc.CreateElement("ul")
	doc.Body().AppendChild(list)

	rep, err := repeat.Mount(list, repeat.Config{
		Source: state,
		Field:  "tasks",
		Key: func(item any) string {
			return fmt.Sprintf("%d", item.(task).ID)
		},
		Render: func(item any, node *dom.Element, index int) {
			t := item.(task)
			mark := " "
			if t.Done {
				mark = "x"
			}
			node.SetText(fmt.Sprintf("%d. [%s] %s", index+1, mark, t.Title))
		},
		Logger: log,
	})
	if err != nil {
		return err
	}
	defer rep.Dispose()

	watchUnsub := lumen.Watch(open, lumen.ComputedKey, func(v any) {
		log.Info("open tasks changed", "open", v)
	})
	defer watchUnsub()

	go mutate(ctx, state, interval)
	go loop.Run(ctx)

	if !cfg.Devtools.Enabled {
		<-ctx.Done()
		return nil
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: devtools.NewServer(rec, log).Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("devtools listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// mutate drives the demo: appends, toggles and reorders tasks so devtools
// has something to show.
func mutate(ctx context.Context, state *lumen.Container, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	nextID := 3
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tasks, _ := state.Peek("tasks").([]any)
		out := append([]any(nil), tasks...)

		switch i % 3 {
		case 0:
			out = append(out, task{ID: nextID, Title: fmt.Sprintf("task %d", nextID)})
			nextID++
		case 1:
			if len(out) > 0 {
				t := out[len(out)-1].(task)
				t.Done = !t.Done
				out[len(out)-1] = t
			}
		case 2:
			if len(out) > 1 {
				out[0], out[len(out)-1] = out[len(out)-1], out[0]
			}
		}

		state.Set("tasks", out)
	}
}

func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
