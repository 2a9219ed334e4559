// Package obs centralizes the driver's observability surface: the
// OpenTelemetry tracer used for per-Run and per-dispatch spans, the
// Prometheus counters/histogram the outer loop updates, and a helper
// that logs a fatal error's structured Diagnostic at slog.LevelError
// before it crosses a package boundary.
package obs

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/cyberiada-go/cgml/cgmlerr"
)

var Tracer = otel.Tracer("github.com/cyberiada-go/cgml/driver")

var (
	EventsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cgml_events_dispatched_total",
		Help: "Total number of events dispatched by the HSM runtime across all runs.",
	})

	DeviceFaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cgml_device_faults_total",
		Help: "Total number of DeviceFault errors raised by component actions.",
	})

	DispatchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cgml_dispatch_seconds",
		Help:    "Wall-clock duration of a single Dispatch call.",
		Buckets: prometheus.DefBuckets,
	})
)

// StartSpan opens a span named name as a child of whatever span ctx carries;
// the driver uses it for both the per-Run span and the per-dispatch spans.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, name)
}

// LogFatal logs err at slog.LevelError with the fields carried in its
// Diagnostic, when it exposes one; otherwise it logs the bare error.
func LogFatal(ctx context.Context, msg string, err error) {
	if d, ok := err.(cgmlerr.AsDiagnostic); ok {
		diag := d.AsDiagnostic()
		slog.ErrorContext(ctx, msg,
			"code", diag.Code,
			"tag", diag.Tag,
			"position", diag.Position.String(),
			"error", diag.Message,
		)
		return
	}
	slog.ErrorContext(ctx, msg, "error", err)
}
