// Package hsm implements the HSM Runtime (C5): a quantum hierarchical
// state machine dispatcher following classic UML semantics (spec.md §4.6).
// Handlers are tagged-variant structs (Composite, Initial, Choice, Final)
// rather than an inheritance hierarchy, matching the Value sum-type style
// used throughout this module.
package hsm

import (
	"fmt"

	"github.com/cyberiada-go/cgml/eventqueue"
	"github.com/cyberiada-go/cgml/lang"
)

// Status is the result of a handler's Execute call (spec.md §4.6.1).
type Status int

const (
	Handled Status = iota
	Unhandled
	Ignored
	Tran
	Super
)

func (s Status) String() string {
	switch s {
	case Handled:
		return "HANDLED"
	case Unhandled:
		return "UNHANDLED"
	case Ignored:
		return "IGNORED"
	case Tran:
		return "TRAN"
	case Super:
		return "SUPER"
	default:
		return "?"
	}
}

// MaxSuperDepth bounds both the SUPER-climbing loop in Dispatch and the
// target-chain walk in doTransition, guarding against a malformed or
// cyclic hierarchy (spec.md §4.6.3 step 3).
const MaxSuperDepth = 32

// Handler is the contract every runtime state (composite, initial, choice,
// final) implements (spec.md §4.6.1).
type Handler interface {
	ID() string
	Parent() Handler
	Execute(q *QHsm, signal string) Status
}

// Binder gives handler bodies access to the component attribute/method
// tables needed to evaluate guards and run actions.
type Binder interface {
	lang.AttrLookup
	lang.Invoker
}

// QHsm is one running state-machine instance: its current/effective state
// pointers, the pending transition target, and the shared event queue and
// component binder every handler body consults.
type QHsm struct {
	current   Handler
	effective Handler
	target    Handler

	Queue  *eventqueue.Queue
	Binder Binder

	err error
}

// New returns a QHsm with no current state; call SetTop before dispatching.
func New(queue *eventqueue.Queue, binder Binder) *QHsm {
	return &QHsm{Queue: queue, Binder: binder}
}

// SetTop installs top as both the current and effective state, per the
// builder's final step (spec.md §4.6.5 step 6).
func (q *QHsm) SetTop(top Handler) {
	q.current = top
	q.effective = top
}

// Current returns the presently active runtime state.
func (q *QHsm) Current() Handler { return q.current }

// Err returns the first error recorded by a handler via Fail, if any. The
// driver checks this after every dispatch and aborts the run on the first
// non-nil value (spec.md §6.3: guard/action failures abort, never fail
// silently).
func (q *QHsm) Err() error { return q.err }

// Fail records err (if none is already recorded) and returns Handled, a
// safe terminal status that lets the current dispatch wind down normally;
// the caller is expected to check Err() afterward and stop the run.
func (q *QHsm) Fail(err error) Status {
	if q.err == nil {
		q.err = err
	}
	return Handled
}

// TRAN requests a transition to target; a handler body returns its result.
func (q *QHsm) TRAN(target Handler) Status {
	q.target = target
	return Tran
}

// SUPER delegates the current signal to parent; a handler body returns its
// result so Dispatch's climbing loop can call parent.Execute next.
func (q *QHsm) SUPER(parent Handler) Status {
	q.effective = parent
	return Super
}

// Dispatch runs the three-step algorithm of spec.md §4.6.2.
func (q *QHsm) Dispatch(signal string) Status {
	if q.err != nil {
		return Handled
	}

	result := q.current.Execute(q, signal)
	depth := 0
	for result == Super {
		depth++
		if depth > MaxSuperDepth {
			return q.Fail(fmt.Errorf("hsm: SUPER chain exceeded depth %d dispatching %q", MaxSuperDepth, signal))
		}
		if q.effective == nil {
			return q.Fail(fmt.Errorf("hsm: SUPER climbed past top dispatching %q", signal))
		}
		result = q.effective.Execute(q, signal)
	}

	if result == Tran {
		q.doTransition()
	} else {
		q.effective = q.current
	}
	return result
}

// doTransition implements spec.md §4.6.3: exit up to the effective state,
// shortcut a self-transition, otherwise locate the LCA by walking the
// target's ancestor chain, then enter down from the LCA to the target.
func (q *QHsm) doTransition() {
	source := q.current
	effective := q.effective
	target := q.target

	for source != effective && source != nil {
		source.Execute(q, eventqueue.SigExit)
		source = source.Parent()
	}
	if source == nil {
		q.Fail(fmt.Errorf("hsm: exit walk reached nil before effective state"))
		q.target = nil
		return
	}

	if source == target {
		source.Execute(q, eventqueue.SigExit)
		target.Execute(q, eventqueue.SigEntry)
		q.current = target
		q.effective = target
		q.target = nil
		return
	}

	// chain records target's ancestor path, including a trailing nil entry
	// that stands for the implicit shared top beyond any explicit parent --
	// this lets a source that climbs past its own topmost ancestor (also
	// nil) still rendezvous with target's chain at that shared virtual root.
	chain := make([]Handler, 0, MaxSuperDepth+1)
	for cur := target; ; {
		chain = append(chain, cur)
		if cur == nil || len(chain) > MaxSuperDepth {
			break
		}
		cur = cur.Parent()
	}

	lca := indexOf(chain, source)
	for lca < 0 && source != nil {
		source.Execute(q, eventqueue.SigExit)
		source = source.Parent()
		lca = indexOf(chain, source)
	}
	if lca < 0 {
		q.Fail(fmt.Errorf("hsm: no common ancestor found transitioning to %q", target.ID()))
		q.target = nil
		return
	}

	for i := lca - 1; i >= 0; i-- {
		chain[i].Execute(q, eventqueue.SigEntry)
	}

	q.current = target
	q.effective = target
	q.target = nil
}

// indexOf finds h in chain by identity; h may be nil, matching the chain's
// trailing virtual-top sentinel (see doTransition).
func indexOf(chain []Handler, h Handler) int {
	for i, c := range chain {
		if c == h {
			return i
		}
	}
	return -1
}
