// Package addons ships the observability plugins for lumen containers.
//
// Everything here is expressed purely as a lumen.Plugin, since the plugin
// chain is the only inspection surface the core exposes. Debug logs operations
// through slog, Prometheus counts them, and OpenTelemetry traces them; all
// three attach at container construction:
//
//	c := lumen.New(state, lumen.WithPlugins(
//	    addons.Debug(nil),
//	    addons.Prometheus(),
//	))
package addons
