// Package model defines the CGML Typed Model (C2): schema-accurate,
// immutable-after-construction containers for the state-machine graph
// described in spec.md §3. It holds no classification logic -- that is
// the semantic parser's job (package parser, C3).
package model

import "github.com/cyberiada-go/cgml/cgmlerr"

// Id identifies a node or edge by its CGML document id.
type Id = string

// Point and Rect hold the optional position/bounds data a node or edge may carry.
type Point struct{ X, Y float64 }
type Rect struct{ X, Y, Width, Height float64 }

// Meta holds the CGML_META formal note's key/value pairs. platform and
// standardVersion are required (invariant 5).
type Meta struct {
	ID       Id
	Values   map[string]string
	Pos      cgmlerr.Position
}

func (m *Meta) Platform() string        { return m.Values["platform"] }
func (m *Meta) StandardVersion() string { return m.Values["standardVersion"] }

// State is an ordinary composite state: it may contain nested substates
// reachable through a child Initial vertex.
type State struct {
	ID         Id
	Name       string
	ActionsBlock string
	ParentID   *Id
	Bounds     *Rect
	Color      string
	Pos        cgmlerr.Position
}

// Transition is an edge between two states or pseudo-vertices.
type Transition struct {
	ID            Id
	SourceID      Id
	TargetID      Id
	TriggerBlock  string
	Waypoints     []Point
	LabelPosition *Point
	Color         string
	Pos           cgmlerr.Position
}

// ComponentDecl is a user-declared device, originating from a formal note
// named CGML_COMPONENT.
type ComponentDecl struct {
	ID         Id
	Type       string
	Parameters map[string]string
	Pos        cgmlerr.Position
}

// InitialVertex: a pseudo-vertex marking the default entry point of its
// parent (or of the whole machine, when ParentID is nil).
type InitialVertex struct {
	ID       Id
	ParentID *Id
	Pos      cgmlerr.Position
}

// ChoiceVertex: a pseudo-vertex whose outgoing edges are guarded branches,
// evaluated on entry (builder resolves these into hsm.ChoiceSignal).
type ChoiceVertex struct {
	ID       Id
	ParentID *Id
	Pos      cgmlerr.Position
}

// FinalVertex marks a terminal state of its containing region.
type FinalVertex struct {
	ID       Id
	ParentID *Id
	Pos      cgmlerr.Position
}

// TerminateVertex ends the whole machine run (maps to the queue's "break").
type TerminateVertex struct {
	ID       Id
	ParentID *Id
	Pos      cgmlerr.Position
}

// ShallowHistoryVertex remembers the last active direct substate of its
// parent. The core parser recognizes and retains it; the runtime does not
// need to implement history resumption for the spec's scope.
type ShallowHistoryVertex struct {
	ID       Id
	ParentID *Id
	Pos      cgmlerr.Position
}

// UnknownVertex is a pseudo-vertex whose dVertex subtype the parser does not
// recognize. It is retained, inert, per spec.md §4.3 ambiguity policy;
// a transition targeting it fails the build with UnresolvedTarget.
type UnknownVertex struct {
	ID       Id
	ParentID *Id
	Subtype  string
	Pos      cgmlerr.Position
}

// Note is a retained informal note (formal notes are consumed into Meta or
// ComponentDecl and are not kept as Notes).
type Note struct {
	ID       Id
	ParentID *Id
	Text     string
	Pos      cgmlerr.Position
}

// StateMachine is the immutable, parsed CGML document.
type StateMachine struct {
	Platform        string
	StandardVersion string
	Meta            *Meta
	Name            string

	States       map[Id]*State
	Transitions  map[Id]*Transition
	Components   map[Id]*ComponentDecl
	Initials     map[Id]*InitialVertex
	Choices      map[Id]*ChoiceVertex
	Finals       map[Id]*FinalVertex
	Terminates   map[Id]*TerminateVertex
	History      map[Id]*ShallowHistoryVertex
	Unknowns     map[Id]*UnknownVertex
	Notes        map[Id]*Note

	// Diagnostics accumulates non-fatal notes recorded while parsing (e.g.
	// discarded initial vertices with != 1 outgoing edge, unknown vertex
	// subtypes). spec_full.md §4.3 resolves the "surface as warning"
	// open question in favor of always recording these.
	Diagnostics []cgmlerr.Diagnostic
}

// New returns an empty StateMachine with all maps initialized.
func New() *StateMachine {
	return &StateMachine{
		States:      map[Id]*State{},
		Transitions: map[Id]*Transition{},
		Components:  map[Id]*ComponentDecl{},
		Initials:    map[Id]*InitialVertex{},
		Choices:     map[Id]*ChoiceVertex{},
		Finals:      map[Id]*FinalVertex{},
		Terminates:  map[Id]*TerminateVertex{},
		History:     map[Id]*ShallowHistoryVertex{},
		Unknowns:    map[Id]*UnknownVertex{},
		Notes:       map[Id]*Note{},
	}
}

// VertexKind classifies any id present in the machine, for transition
// resolution (§4.6.5 step 5 / invariant 1).
type VertexKind int

const (
	VertexNone VertexKind = iota
	VertexState
	VertexInitial
	VertexChoice
	VertexFinal
	VertexTerminate
	VertexHistory
	VertexUnknown
)

// Classify reports what kind of vertex id refers to within sm.
func (sm *StateMachine) Classify(id Id) VertexKind {
	switch {
	case has(sm.States, id):
		return VertexState
	case has(sm.Initials, id):
		return VertexInitial
	case has(sm.Choices, id):
		return VertexChoice
	case has(sm.Finals, id):
		return VertexFinal
	case has(sm.Terminates, id):
		return VertexTerminate
	case has(sm.History, id):
		return VertexHistory
	case has(sm.Unknowns, id):
		return VertexUnknown
	default:
		return VertexNone
	}
}

func has[V any](m map[Id]V, id Id) bool {
	_, ok := m[id]
	return ok
}
