// Package eventqueue implements the single-run event FIFO described in
// spec.md §4.5: an insertion-cursor queue where events posted while
// handling event E are processed immediately after E, before whatever was
// already queued past E, and a separate "called" trace of user-visible
// events for the check harness (C9).
package eventqueue

// System events are recognized by name and never appear in CalledEvents.
const (
	SigInit               = "Q_INIT_SIG"
	SigEntry              = "entry"
	SigExit               = "exit"
	SigNoConditionTran    = "noconditionTransition"
	SigBreak              = "break"
)

func IsSystemEvent(name string) bool {
	switch name {
	case SigInit, SigEntry, SigExit, SigNoConditionTran, SigBreak:
		return true
	default:
		return false
	}
}

// Queue is owned by one driver Run; it is not safe for concurrent use,
// matching the single-threaded cooperative contract (spec.md §5).
type Queue struct {
	events        []string
	calledEvents  []string
	currentIdx    int // read cursor: index of the next event to return from Next
	insertIdx     int // insertion cursor: where Post inserts relative to the in-flight event
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Post inserts event immediately after the insertion cursor -- i.e. right
// after whatever event is currently being dispatched -- so a chain of posts
// made while handling event E drain before any event queued behind E.
// If called, the event is also appended to the observable CalledEvents trace.
func (q *Queue) Post(event string, called bool) {
	at := q.insertIdx
	if at > len(q.events) {
		at = len(q.events)
	}
	q.events = append(q.events, "")
	copy(q.events[at+1:], q.events[at:])
	q.events[at] = event
	q.insertIdx = at + 1

	if called {
		q.calledEvents = append(q.calledEvents, event)
	}
}

// Next returns the event at the read cursor and advances it, or ("", false)
// if the queue is drained from that point.
func (q *Queue) Next() (string, bool) {
	if q.currentIdx >= len(q.events) {
		return "", false
	}
	ev := q.events[q.currentIdx]
	q.currentIdx++
	q.insertIdx = q.currentIdx
	return ev, true
}

// Peek returns the next event without consuming it.
func (q *Queue) Peek() (string, bool) {
	if q.currentIdx >= len(q.events) {
		return "", false
	}
	return q.events[q.currentIdx], true
}

// Clear resets the queue to empty.
func (q *Queue) Clear() {
	q.events = nil
	q.calledEvents = nil
	q.currentIdx = 0
	q.insertIdx = 0
}

// Events returns every event ever posted, in FIFO order (the "events" trace
// of the driver Result).
func (q *Queue) Events() []string {
	out := make([]string, len(q.events))
	copy(out, q.events)
	return out
}

// CalledEvents returns only the events marked called=true when posted.
func (q *Queue) CalledEvents() []string {
	out := make([]string, len(q.calledEvents))
	copy(out, q.calledEvents)
	return out
}

// Drained reports whether there is nothing left to read.
func (q *Queue) Drained() bool {
	return q.currentIdx >= len(q.events)
}
