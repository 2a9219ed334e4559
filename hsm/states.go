package hsm

import (
	"strings"

	"github.com/cyberiada-go/cgml/cgmlerr"
	"github.com/cyberiada-go/cgml/eventqueue"
	"github.com/cyberiada-go/cgml/lang"
)

// ParsedSignal is one registered reaction to an event name within a
// composite state's actions_block (spec.md §4.6.5 step 4), or one of the
// internal event handlers (entry/exit) parsed the same way. Target is nil
// for a plain HANDLED reaction, or the resolved runtime state for a TRAN.
type ParsedSignal struct {
	Guard   string
	Actions []lang.ActionCall
	Target  Handler
}

func isElseGuard(g string) bool { return strings.TrimSpace(g) == "else" }

// selectAndRun implements spec.md §4.4.4: first passing guard wins, else
// falls back to an "else" entry, else reports Unhandled for the caller to
// delegate upward.
func selectAndRun(q *QHsm, signals []ParsedSignal) Status {
	var elseSig *ParsedSignal
	for i := range signals {
		s := &signals[i]
		if isElseGuard(s.Guard) {
			if elseSig == nil {
				elseSig = s
			}
			continue
		}
		ok, err := lang.EvalGuard(s.Guard, q.Binder)
		if err != nil {
			return q.Fail(err)
		}
		if ok {
			return runSignal(q, s)
		}
	}
	if elseSig != nil {
		return runSignal(q, elseSig)
	}
	return Unhandled
}

func runSignal(q *QHsm, s *ParsedSignal) Status {
	if err := lang.Execute(lang.EventBlock{Actions: s.Actions}, q.Binder, q.Binder); err != nil {
		return q.Fail(err)
	}
	if s.Target != nil {
		return q.TRAN(s.Target)
	}
	return Handled
}

// Composite is an ordinary state: it may hold registered signals for
// entry, exit, and any number of user event names, plus an optional
// initial child entered automatically.
type Composite struct {
	IDStr        string
	ParentH      Handler
	InitialChild Handler
	Signals      map[string][]ParsedSignal
}

func (c *Composite) ID() string     { return c.IDStr }
func (c *Composite) Parent() Handler { return c.ParentH }

func (c *Composite) Execute(q *QHsm, signal string) Status {
	switch signal {
	case eventqueue.SigEntry:
		if sig, ok := c.Signals[eventqueue.SigEntry]; ok {
			selectAndRun(q, sig)
		}
		if c.InitialChild != nil {
			q.Queue.Post(eventqueue.SigNoConditionTran, false)
		}
		return Handled
	case eventqueue.SigExit:
		if sig, ok := c.Signals[eventqueue.SigExit]; ok {
			selectAndRun(q, sig)
		}
		return Handled
	case eventqueue.SigNoConditionTran:
		if c.InitialChild != nil {
			return q.TRAN(c.InitialChild)
		}
		return Handled
	default:
		sig, ok := c.Signals[signal]
		if !ok {
			if c.ParentH != nil {
				return q.SUPER(c.ParentH)
			}
			return Ignored
		}
		st := selectAndRun(q, sig)
		if st == Unhandled {
			if c.ParentH != nil {
				return q.SUPER(c.ParentH)
			}
			return Ignored
		}
		return st
	}
}

// Initial is a pseudo-vertex marking the default entry point of its
// parent (or of the whole machine, when ParentH is nil).
type Initial struct {
	IDStr   string
	ParentH Handler
	Target  Handler
}

func (iv *Initial) ID() string      { return iv.IDStr }
func (iv *Initial) Parent() Handler { return iv.ParentH }

func (iv *Initial) Execute(q *QHsm, signal string) Status {
	switch signal {
	case eventqueue.SigEntry:
		q.Queue.Post(eventqueue.SigNoConditionTran, false)
		return Handled
	case eventqueue.SigNoConditionTran:
		if iv.Target == nil {
			return q.Fail(cgmlerr.NewNoInitialState("initial vertex " + iv.IDStr + " has no resolved outgoing transition"))
		}
		return q.TRAN(iv.Target)
	default:
		if iv.ParentH != nil {
			return q.SUPER(iv.ParentH)
		}
		return Ignored
	}
}

// ChoiceSignal is one guarded outgoing branch of a Choice vertex.
type ChoiceSignal struct {
	Guard   string
	Actions []lang.ActionCall
	Target  Handler
}

// Choice evaluates its branches on entry, exactly like a composite's
// multi-signal selection, but always transitions (spec.md §4.6.4).
type Choice struct {
	IDStr    string
	ParentH  Handler
	Branches []ChoiceSignal
}

func (c *Choice) ID() string      { return c.IDStr }
func (c *Choice) Parent() Handler { return c.ParentH }

func (c *Choice) Execute(q *QHsm, signal string) Status {
	switch signal {
	case eventqueue.SigEntry:
		q.Queue.Post(eventqueue.SigNoConditionTran, false)
		return Handled
	case eventqueue.SigNoConditionTran:
		var elseBr *ChoiceSignal
		for i := range c.Branches {
			b := &c.Branches[i]
			if isElseGuard(b.Guard) {
				if elseBr == nil {
					elseBr = b
				}
				continue
			}
			ok, err := lang.EvalGuard(b.Guard, q.Binder)
			if err != nil {
				return q.Fail(err)
			}
			if ok {
				return c.fire(q, b)
			}
		}
		if elseBr != nil {
			return c.fire(q, elseBr)
		}
		return q.Fail(cgmlerr.NewGuardEvaluationError(c.IDStr, signal, "no choice branch guard passed and no else branch is present", nil))
	default:
		if c.ParentH != nil {
			return q.SUPER(c.ParentH)
		}
		return Ignored
	}
}

func (c *Choice) fire(q *QHsm, b *ChoiceSignal) Status {
	if err := lang.Execute(lang.EventBlock{Actions: b.Actions}, q.Binder, q.Binder); err != nil {
		return q.Fail(err)
	}
	return q.TRAN(b.Target)
}

// Final marks a terminal state of its containing region; entering it posts
// the outer loop's break token (spec.md §4.6.4).
type Final struct {
	IDStr   string
	ParentH Handler
}

func (f *Final) ID() string      { return f.IDStr }
func (f *Final) Parent() Handler { return f.ParentH }

func (f *Final) Execute(q *QHsm, signal string) Status {
	switch signal {
	case eventqueue.SigEntry:
		q.Queue.Post(eventqueue.SigBreak, false)
		return Handled
	default:
		if f.ParentH != nil {
			return q.SUPER(f.ParentH)
		}
		return Ignored
	}
}
