package addons

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumen-ui/lumen/pkg/lumen"
)

// Default tracer name for lumen containers.
const defaultTracerName = "lumen"

// OTelConfig configures the OpenTelemetry plugin.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "lumen").
	TracerName string

	// IncludeValues records written values as span attributes. May contain
	// sensitive information - disabled by default.
	IncludeValues bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry plugin.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithValues enables recording written values on spans.
func WithValues() OTelOption {
	return func(c *OTelConfig) {
		c.IncludeValues = true
	}
}

// OpenTelemetry returns a plugin that emits a span per write and per
// flush-time notification.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it in
// your main() before creating containers:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) lumen.Plugin {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	var name string

	span := func(op, key string, value any) {
		attrs := []attribute.KeyValue{
			attribute.String("lumen.container", name),
			attribute.String("lumen.key", key),
		}
		if config.IncludeValues {
			attrs = append(attrs, attribute.String("lumen.value", stringValue(value)))
		}
		_, s := config.tracer.Start(
			context.Background(),
			"lumen."+op,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		s.End()
	}

	return lumen.Plugin{
		Name: "otel",
		OnInit: func(c *lumen.Container) {
			name = c.Name()
		},
		OnSet: func(key string, next, prev any) lumen.HookResult {
			span("set", key, next)
			return lumen.Unchanged()
		},
		OnNotify: func(key string, value any) {
			span("notify", key, value)
		},
	}
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
