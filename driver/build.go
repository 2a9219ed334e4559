// Package driver implements the State-Machine Driver (C8): it turns a
// parsed model.StateMachine into a runnable hsm graph wired to a concrete
// set of components, then runs the outer event loop described in
// spec.md §4.8 (spec_full.md §4.8 expansion adds context cancellation,
// OpenTelemetry spans, and Prometheus counters).
package driver

import (
	"sort"
	"strings"

	"github.com/cyberiada-go/cgml/cgmlerr"
	"github.com/cyberiada-go/cgml/component"
	"github.com/cyberiada-go/cgml/eventqueue"
	"github.com/cyberiada-go/cgml/hsm"
	"github.com/cyberiada-go/cgml/lang"
	"github.com/cyberiada-go/cgml/model"
)

// Runtime is one built, runnable instance of a StateMachine: its wired
// component set and the hsm.QHsm driving it, sharing one event queue.
type Runtime struct {
	SM         *model.StateMachine
	Components component.Set
	// ComponentTypes records each component's declared type name,
	// alongside Components, for Result.Components (component.Instance).
	ComponentTypes map[string]string
	LoopOrder      []string
	Queue          *eventqueue.Queue
	Machine        *hsm.QHsm
}

// Build instantiates every declared component, parses every state's
// actions_block and every transition's trigger_block, wires the resulting
// hsm.Handler graph, and locates the top-level initial vertex
// (spec.md §4.6.5). params is handed verbatim to every component's
// InitFromOptions, mirroring the original's single shared
// global_sm_parameters map.
func Build(sm *model.StateMachine, params map[string]any) (*Runtime, error) {
	queue := eventqueue.New()

	comps, order, types, err := buildComponents(sm, queue, params)
	if err != nil {
		return nil, err
	}

	handlers, err := buildHandlers(sm)
	if err != nil {
		return nil, err
	}

	top, err := findTopInitial(sm, handlers)
	if err != nil {
		return nil, err
	}

	q := hsm.New(queue, comps)
	q.SetTop(top)

	return &Runtime{SM: sm, Components: comps, ComponentTypes: types, LoopOrder: order, Queue: queue, Machine: q}, nil
}

func buildComponents(sm *model.StateMachine, queue *eventqueue.Queue, params map[string]any) (component.Set, []string, map[string]string, error) {
	ids := make([]string, 0, len(sm.Components))
	for id := range sm.Components {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	set := component.Set{}
	types := make(map[string]string, len(ids))
	for _, id := range ids {
		decl := sm.Components[id]
		dev, err := component.New(decl.Type, decl.ID, decl.Parameters)
		if err != nil {
			return nil, nil, nil, err
		}
		if schematic, ok := dev.(component.Schematic); ok {
			if err := component.ValidateParameters(decl.ID, schematic.ParameterSchema(), decl.Parameters); err != nil {
				return nil, nil, nil, err
			}
		}
		if err := dev.InitFromOptions(params); err != nil {
			return nil, nil, nil, err
		}
		if poster, ok := dev.(component.Poster); ok {
			poster.SetPoster(queue.Post)
		}
		set[id] = dev
		types[id] = decl.Type
	}
	return set, ids, types, nil
}

// buildHandlers constructs one hsm.Handler per vertex in sm, wires parent
// links, parses actions_block/trigger_block text, and resolves every
// transition onto its runtime handler (spec.md §4.6.5 steps 2-5).
func buildHandlers(sm *model.StateMachine) (map[model.Id]hsm.Handler, error) {
	handlers := make(map[model.Id]hsm.Handler, len(sm.States)+len(sm.Initials)+len(sm.Choices)+len(sm.Finals)+len(sm.Terminates)+len(sm.History))

	for id := range sm.States {
		handlers[id] = &hsm.Composite{IDStr: id, Signals: map[string][]hsm.ParsedSignal{}}
	}
	for id := range sm.Initials {
		handlers[id] = &hsm.Initial{IDStr: id}
	}
	for id := range sm.Choices {
		handlers[id] = &hsm.Choice{IDStr: id}
	}
	for id := range sm.Finals {
		handlers[id] = &hsm.Final{IDStr: id}
	}
	// Terminate behaves identically to Final at runtime -- both just post
	// "break" on entry (model/types.go's TerminateVertex doc comment) -- so it
	// is built as a Final rather than a distinct hsm type.
	for id := range sm.Terminates {
		handlers[id] = &hsm.Final{IDStr: id}
	}
	// ShallowHistory resumption is out of scope (model/types.go's ShallowHistoryVertex
	// doc comment); a transition targeting one resolves like an ordinary
	// Initial vertex instead of replaying a remembered substate.
	for id := range sm.History {
		handlers[id] = &hsm.Initial{IDStr: id}
	}

	parentOf := func(id model.Id) *model.Id {
		switch {
		case sm.States[id] != nil:
			return sm.States[id].ParentID
		case sm.Initials[id] != nil:
			return sm.Initials[id].ParentID
		case sm.Choices[id] != nil:
			return sm.Choices[id].ParentID
		case sm.Finals[id] != nil:
			return sm.Finals[id].ParentID
		case sm.Terminates[id] != nil:
			return sm.Terminates[id].ParentID
		case sm.History[id] != nil:
			return sm.History[id].ParentID
		default:
			return nil
		}
	}

	for id, h := range handlers {
		parentID := parentOf(id)
		if parentID == nil {
			continue
		}
		parent, ok := handlers[*parentID]
		if !ok {
			continue
		}
		switch v := h.(type) {
		case *hsm.Composite:
			v.ParentH = parent
		case *hsm.Initial:
			v.ParentH = parent
		case *hsm.Choice:
			v.ParentH = parent
		case *hsm.Final:
			v.ParentH = parent
		}
	}

	// Each composite's default child is the nested Initial vertex whose
	// parent is that state, if one exists (spec.md §4.6.4 composite entry).
	for id, iv := range sm.Initials {
		if iv.ParentID == nil {
			continue
		}
		if comp, ok := handlers[*iv.ParentID].(*hsm.Composite); ok {
			comp.InitialChild = handlers[id]
		}
	}

	for id, st := range sm.States {
		if strings.TrimSpace(st.ActionsBlock) == "" {
			continue
		}
		blocks, err := lang.ParseActionsBlock(st.ActionsBlock)
		if err != nil {
			return nil, cgmlerr.NewActionBindingError(id, "parsing actions_block: "+err.Error(), err)
		}
		comp := handlers[id].(*hsm.Composite)
		for _, b := range blocks {
			comp.Signals[b.EventName] = append(comp.Signals[b.EventName], hsm.ParsedSignal{Guard: b.Guard, Actions: b.Actions})
		}
	}

	for tid, tr := range sm.Transitions {
		target, ok := handlers[tr.TargetID]
		if !ok {
			return nil, cgmlerr.NewUnresolvedTarget("transition targets unknown vertex "+tr.TargetID, tid, tr.Pos)
		}

		eb := lang.EventBlock{}
		if strings.TrimSpace(tr.TriggerBlock) != "" {
			parsed, err := lang.ParseTriggerBlock(tr.TriggerBlock)
			if err != nil {
				return nil, cgmlerr.NewActionBindingError(tid, "parsing trigger_block: "+err.Error(), err)
			}
			eb = *parsed
		}

		switch sm.Classify(tr.SourceID) {
		case model.VertexState:
			comp := handlers[tr.SourceID].(*hsm.Composite)
			comp.Signals[eb.EventName] = append(comp.Signals[eb.EventName], hsm.ParsedSignal{Guard: eb.Guard, Actions: eb.Actions, Target: target})
		case model.VertexInitial, model.VertexHistory:
			iv := handlers[tr.SourceID].(*hsm.Initial)
			iv.Target = target
		case model.VertexChoice:
			cv := handlers[tr.SourceID].(*hsm.Choice)
			cv.Branches = append(cv.Branches, hsm.ChoiceSignal{Guard: eb.Guard, Actions: eb.Actions, Target: target})
		default:
			return nil, cgmlerr.NewUnresolvedTarget("transition source "+tr.SourceID+" is not a valid transition origin", tid, tr.Pos)
		}
	}

	return handlers, nil
}

func findTopInitial(sm *model.StateMachine, handlers map[model.Id]hsm.Handler) (hsm.Handler, error) {
	for id, iv := range sm.Initials {
		if iv.ParentID == nil {
			if h, ok := handlers[id]; ok {
				return h, nil
			}
		}
	}
	return nil, cgmlerr.NewNoInitialState("no top-level initial vertex (parent == nil) was found")
}
