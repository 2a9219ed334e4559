package driver

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cyberiada-go/cgml/cgmlerr"
	"github.com/cyberiada-go/cgml/clock"
	"github.com/cyberiada-go/cgml/component"
	"github.com/cyberiada-go/cgml/eventqueue"
	"github.com/cyberiada-go/cgml/obs"
)

// RunOptions configures one Run call.
type RunOptions struct {
	// Infinite keeps the loop alive after the queue drains, sleeping
	// IdleSleep and polling again, instead of returning (spec.md §4.8).
	Infinite bool

	// Timeout bounds the whole run's wall-clock budget; zero means no
	// bound beyond ctx's own deadline, if any.
	Timeout time.Duration

	// Clock abstracts wall-clock time so tests can drive the loop with a
	// clock.Mock instead of real sleeps.
	Clock clock.Clock

	// IdleSleep is how long an infinite-mode loop sleeps between polls
	// of an empty queue; defaults to 100ms.
	IdleSleep time.Duration

	// OnDispatch, when set, is called after every dispatch (including the
	// initial entry and system events) with the signal just processed and
	// the vertex the machine is in afterward. It lets a presentation shell
	// (cmd/cgmlctl's TUI) stream a live trace without polling Result.
	OnDispatch func(signal string, current string)
}

// Result is the outcome of one Run (spec.md §6.2 / spec_full.md §6.2).
type Result struct {
	TimedOut     bool
	Events       []string
	CalledEvents []string
	Components   map[string]component.Instance
}

// Run executes the outer loop of spec.md §4.8: dispatch the initial
// entry, post any caller-supplied external signals, then alternately
// drain system events, poll every Looper component, and dispatch the
// next queued event until the queue drains (or, in infinite mode, the
// context is cancelled or the wall-clock budget is exceeded).
//
// A DeviceFault or other handler error recorded on the QHsm stops the
// run and is returned alongside the partial Result assembled up to that
// point (spec.md §6's "driver still returns the assembled Result" rule).
func Run(ctx context.Context, rt *Runtime, preposted []string, opts RunOptions) (*Result, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	idleSleep := opts.IdleSleep
	if idleSleep <= 0 {
		idleSleep = 100 * time.Millisecond
	}

	ctx, span := obs.StartSpan(ctx, "driver.Run")
	defer span.End()

	var deadline time.Time
	if opts.Timeout > 0 {
		deadline = clk.Now().Add(opts.Timeout)
	}

	rt.Queue.Clear()
	dispatch(ctx, rt, eventqueue.SigEntry, opts.OnDispatch)
	if err := rt.Machine.Err(); err != nil {
		return rt.result(true), err
	}
	for _, ev := range preposted {
		rt.Queue.Post(ev, false)
	}

	timedOut := false
	for {
		if err := ctx.Err(); err != nil {
			timedOut = true
			break
		}
		if !deadline.IsZero() && !clk.Now().Before(deadline) {
			timedOut = true
			break
		}

		drainSystemEvents(ctx, rt, opts.OnDispatch)
		if err := rt.Machine.Err(); err != nil {
			return rt.result(true), err
		}

		rt.Components.LoopAll(rt.LoopOrder, rt.Queue.Post)

		ev, ok := rt.Queue.Next()
		if !ok {
			if !opts.Infinite {
				break
			}
			if err := clk.Sleep(ctx, idleSleep); err != nil {
				timedOut = true
				break
			}
			continue
		}
		if ev == eventqueue.SigBreak {
			break
		}

		dispatch(ctx, rt, ev, opts.OnDispatch)
		if err := rt.Machine.Err(); err != nil {
			return rt.result(true), err
		}
	}

	return rt.result(timedOut), nil
}

// drainSystemEvents dispatches every leading system event (other than
// "break", which the caller handles) so an in-flight entry/exit/transition
// chain completes before the next component poll (spec.md §4.8).
func drainSystemEvents(ctx context.Context, rt *Runtime, onDispatch func(signal, current string)) {
	for {
		ev, ok := rt.Queue.Peek()
		if !ok || ev == eventqueue.SigBreak || !eventqueue.IsSystemEvent(ev) {
			return
		}
		ev, _ = rt.Queue.Next()
		dispatch(ctx, rt, ev, onDispatch)
		if rt.Machine.Err() != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, rt *Runtime, signal string, onDispatch func(signal, current string)) {
	_, span := obs.StartSpan(ctx, "hsm.Dispatch")
	span.SetAttributes(attribute.String("cgml.signal", signal))
	defer span.End()

	start := time.Now()
	rt.Machine.Dispatch(signal)
	obs.DispatchSeconds.Observe(time.Since(start).Seconds())
	obs.EventsDispatched.Inc()

	if err := rt.Machine.Err(); err != nil {
		var fault *cgmlerr.DeviceFault
		if errors.As(err, &fault) {
			obs.DeviceFaults.Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if onDispatch != nil {
		current := ""
		if cur := rt.Machine.Current(); cur != nil {
			current = cur.ID()
		}
		onDispatch(signal, current)
	}
}

func (rt *Runtime) result(timedOut bool) *Result {
	comps := make(map[string]component.Instance, len(rt.Components))
	for id, dev := range rt.Components {
		comps[id] = component.Instance{ID: id, Type: rt.ComponentTypes[id], Device: dev}
	}
	return &Result{
		TimedOut:     timedOut,
		Events:       rt.Queue.Events(),
		CalledEvents: rt.Queue.CalledEvents(),
		Components:   comps,
	}
}
