// Package timer implements the Timer device: a periodic "tick" emitter
// paced by the injected Clock and rate-limited so a fast outer loop
// cannot flood the queue with more than one tick per configured interval
// (spec_full.md §4.7.1).
package timer

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/cyberiada-go/cgml/clock"
	"github.com/cyberiada-go/cgml/component"
	"github.com/cyberiada-go/cgml/value"
)

func init() {
	component.Register("Timer", New)
}

const defaultInterval = 100 * time.Millisecond

// Timer exposes attribute elapsed (time since construction or last Reset,
// measured via the injected Clock) and posts a called "tick" event once
// per interval from LoopActions.
type Timer struct {
	id       string
	clk      clock.Clock
	interval time.Duration
	started  time.Time
	limiter  *rate.Limiter
}

func New(id string, parameters map[string]string) (component.Device, error) {
	interval := defaultInterval
	if raw, ok := parameters["interval_ms"]; ok {
		v := value.FromLiteral(raw)
		if v.IsInt() && v.Int() > 0 {
			interval = time.Duration(v.Int()) * time.Millisecond
		}
	}
	t := &Timer{id: id, clk: clock.Real{}, interval: interval}
	t.limiter = rate.NewLimiter(rate.Every(interval), 1)
	t.started = t.clk.Now()
	return t, nil
}

func (t *Timer) ID() string { return t.id }

// InitFromOptions binds an injected Clock under options["clock"], letting
// tests and the driver supply a clock.Mock for deterministic ticks.
func (t *Timer) InitFromOptions(options map[string]any) error {
	if raw, ok := options["clock"]; ok {
		if c, ok := raw.(clock.Clock); ok {
			t.clk = c
			t.started = t.clk.Now()
		}
	}
	return nil
}

func (t *Timer) Attributes() map[string]component.AttrAccessor {
	return map[string]component.AttrAccessor{
		"elapsed": func() value.Value { return value.Int(int64(t.clk.Since(t.started))) },
	}
}

func (t *Timer) Methods() map[string]component.MethodInvoker {
	return map[string]component.MethodInvoker{
		"Reset": func(args []value.Value) error { t.started = t.clk.Now(); return nil },
	}
}

// LoopActions posts "tick" once per Clock-measured interval, throttled by
// the rate limiter so repeated fast polling collapses to one tick per period.
func (t *Timer) LoopActions(post func(event string, called bool)) {
	if t.limiter.AllowN(t.clk.Now(), 1) {
		post("tick", true)
	}
}
