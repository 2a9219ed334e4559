package main

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/cyberiada-go/cgml/cgmlerr"
)

// initSentry wires up error reporting for the run, when a DSN is configured.
// Returns a no-op flush func when dsn is empty, so callers can always defer
// the returned func without a nil check.
func initSentry(dsn string) (flush func(), err error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
		return nil, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// reportDeviceFault sends a run-ending error to Sentry with the tags
// carried in its Diagnostic, when it exposes one.
func reportDeviceFault(err error) {
	if d, ok := err.(cgmlerr.AsDiagnostic); ok {
		diag := d.AsDiagnostic()
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("cgml.code", diag.Code)
			scope.SetTag("cgml.vertex", diag.Tag)
			scope.SetExtra("cgml.position", diag.Position.String())
			sentry.CaptureException(err)
		})
		return
	}
	sentry.CaptureException(err)
}
