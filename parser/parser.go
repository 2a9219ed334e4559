// Package parser implements the CGML Semantic Parser (C3): it walks the
// generic xmlgraph.Node tree produced by C1 and classifies each node/edge
// into a state, pseudo-vertex, note, or component declaration, assembling
// the model.StateMachine graph (spec.md §4.3).
package parser

import (
	"strconv"
	"strings"

	"github.com/cyberiada-go/cgml/cgmlerr"
	"github.com/cyberiada-go/cgml/model"
	"github.com/cyberiada-go/cgml/xmlgraph"
)

// Parse decodes CGML text with xmlgraph.Parse and classifies it into a
// model.StateMachine built from the first top-level <graph> carrying a
// dStateMachine data key; absence is a fatal NotAStateMachine error.
func Parse(text []byte) (*model.StateMachine, error) {
	root, err := xmlgraph.Parse(text)
	if err != nil {
		return nil, err
	}
	return ParseNode(root)
}

// ParseNode runs the semantic pass over an already-decoded document root
// (exposed for callers that parsed the XML tree themselves, e.g. tests).
func ParseNode(root *xmlgraph.Node) (*model.StateMachine, error) {
	graph := findStateMachineGraph(root)
	if graph == nil {
		return nil, cgmlerr.NewNotAStateMachine("top-level graph has no dStateMachine data child", root.Pos)
	}

	sm := model.New()

	rawVertices, rawEdges := gatherPass1(graph, nil)
	if err := classifyPass2(sm, rawVertices); err != nil {
		return nil, err
	}
	if err := buildEdgesPass3(sm, rawEdges); err != nil {
		return nil, err
	}

	if sm.Meta == nil {
		return nil, cgmlerr.NewMissingMeta("state machine has no CGML_META note", graph.Pos)
	}
	if sm.Meta.Platform() == "" || sm.Meta.StandardVersion() == "" {
		return nil, cgmlerr.NewMissingMeta("CGML_META note missing platform or standardVersion", sm.Meta.Pos)
	}
	sm.Platform = sm.Meta.Platform()
	sm.StandardVersion = sm.Meta.StandardVersion()

	validateInitials(sm)

	return sm, nil
}

// findStateMachineGraph checks root itself, then each of root's direct
// <graph> children, and returns the first one whose direct
// <data key="dStateMachine"> child is present.
func findStateMachineGraph(root *xmlgraph.Node) *xmlgraph.Node {
	candidates := []*xmlgraph.Node{root}
	candidates = append(candidates, root.ChildrenOf("graph")...)
	for _, c := range candidates {
		for _, d := range c.ChildrenOf("data") {
			if d.Attr("key") == "dStateMachine" {
				return c
			}
		}
	}
	return nil
}

// rawVertex is a provisional <node>: its id, parent id, own data children
// and source position. Vertices nested inside a child <graph> are gathered
// as separate rawVertex entries carrying this node's id as parent.
type rawVertex struct {
	id       string
	parentID *string
	data     []*xmlgraph.Node
	pos      cgmlerr.Position
}

type rawEdge struct {
	id, source, target string
	data                []*xmlgraph.Node
	pos                 cgmlerr.Position
}

// gatherPass1 recurses through nested graphs, collecting every <node> as a
// provisional vertex carrying its enclosing node id as parent, and every
// <edge> regardless of nesting depth (edge endpoints are absolute ids).
func gatherPass1(graph *xmlgraph.Node, parentID *string) ([]rawVertex, []rawEdge) {
	var vertices []rawVertex
	var edges []rawEdge

	for _, n := range graph.ChildrenOf("node") {
		id := n.Attr("id")
		vertices = append(vertices, rawVertex{id: id, parentID: parentID, data: n.ChildrenOf("data"), pos: n.Pos})

		for _, sub := range n.ChildrenOf("graph") {
			childVertices, childEdges := gatherPass1(sub, &id)
			vertices = append(vertices, childVertices...)
			edges = append(edges, childEdges...)
		}
	}

	for _, e := range graph.ChildrenOf("edge") {
		edges = append(edges, rawEdge{
			id:     e.Attr("id"),
			source: e.Attr("source"),
			target: e.Attr("target"),
			data:   e.ChildrenOf("data"),
			pos:    e.Pos,
		})
	}

	return vertices, edges
}

// classifyPass2 inspects each provisional vertex's data keys and assigns it
// to the right bucket of the StateMachine (spec.md §4.3 classification
// table and rules).
func classifyPass2(sm *model.StateMachine, vertices []rawVertex) error {
	for _, v := range vertices {
		var (
			name       string
			dataBlock  string
			bounds     *model.Rect
			point      *model.Point
			vertexKind string
			noteKind   string
			hasNote    bool
			color      string
		)

		for _, d := range v.data {
			switch d.Attr("key") {
			case "dName":
				name = d.Text
			case "dData":
				dataBlock = d.Text
			case "dGeometry":
				bounds, point = parseGeometry(d)
			case "dVertex":
				vertexKind = d.Text
			case "dNote":
				hasNote = true
				noteKind = d.Text
				if noteKind == "" {
					noteKind = "informal"
				}
			case "dColor":
				color = d.Text
			}
		}

		switch {
		case hasNote:
			if err := classifyNote(sm, v, name, dataBlock, noteKind); err != nil {
				return err
			}
		case vertexKind != "":
			classifyPseudoVertex(sm, v, vertexKind)
		default:
			sm.States[v.id] = &model.State{
				ID:           v.id,
				Name:         name,
				ActionsBlock: dataBlock,
				ParentID:     v.parentID,
				Bounds:       bounds,
				Color:        color,
				Pos:          v.pos,
			}
			_ = point
		}
	}
	return nil
}

func classifyNote(sm *model.StateMachine, v rawVertex, name, dataBlock, noteKind string) error {
	switch name {
	case "CGML_META":
		if sm.Meta != nil {
			return cgmlerr.NewDuplicateMeta("more than one CGML_META note present", v.pos)
		}
		sm.Meta = &model.Meta{ID: v.id, Values: parseKeyValueBlock(dataBlock), Pos: v.pos}
	case "CGML_COMPONENT":
		params := parseKeyValueBlock(dataBlock)
		id, hasID := params["id"]
		typ, hasType := params["type"]
		if !hasID || !hasType || id == "" || typ == "" {
			return cgmlerr.NewComponentMissingIdOrType("component note missing id or type", v.pos)
		}
		delete(params, "id")
		delete(params, "type")
		sm.Components[id] = &model.ComponentDecl{ID: id, Type: typ, Parameters: params, Pos: v.pos}
	default:
		if noteKind != "formal" {
			sm.Notes[v.id] = &model.Note{ID: v.id, ParentID: v.parentID, Text: dataBlock, Pos: v.pos}
		}
		// formal notes with an unrecognized name are silently ignored: the
		// spec's note vocabulary only names CGML_META and CGML_COMPONENT.
	}
	return nil
}

func classifyPseudoVertex(sm *model.StateMachine, v rawVertex, kind string) {
	switch strings.ToLower(kind) {
	case "initial":
		sm.Initials[v.id] = &model.InitialVertex{ID: v.id, ParentID: v.parentID, Pos: v.pos}
	case "choice":
		sm.Choices[v.id] = &model.ChoiceVertex{ID: v.id, ParentID: v.parentID, Pos: v.pos}
	case "final":
		sm.Finals[v.id] = &model.FinalVertex{ID: v.id, ParentID: v.parentID, Pos: v.pos}
	case "terminate":
		sm.Terminates[v.id] = &model.TerminateVertex{ID: v.id, ParentID: v.parentID, Pos: v.pos}
	case "shallowhistory", "history":
		sm.History[v.id] = &model.ShallowHistoryVertex{ID: v.id, ParentID: v.parentID, Pos: v.pos}
	default:
		sm.Unknowns[v.id] = &model.UnknownVertex{ID: v.id, ParentID: v.parentID, Subtype: kind, Pos: v.pos}
		sm.Diagnostics = append(sm.Diagnostics, cgmlerr.Diagnostic{
			Severity: cgmlerr.SeverityWarning,
			Code:     "UnknownVertexSubtype",
			Message:  "unrecognized dVertex subtype: " + kind,
			Position: v.pos,
			Tag:      v.id,
		})
	}
}

// buildEdgesPass3 turns every raw edge into a model.Transition, dropping
// component transitions (whose source is the meta note id -- they only
// anchor a component visually and carry no runtime meaning).
func buildEdgesPass3(sm *model.StateMachine, edges []rawEdge) error {
	metaID := ""
	if sm.Meta != nil {
		metaID = sm.Meta.ID
	}

	for _, e := range edges {
		if metaID != "" && e.source == metaID {
			continue
		}

		var trigger, color string
		var waypoints []model.Point
		var label *model.Point

		for _, d := range e.data {
			switch d.Attr("key") {
			case "dData":
				trigger = d.Text
			case "dGeometry":
				_, pt := parseGeometry(d)
				if pt != nil {
					waypoints = append(waypoints, *pt)
				}
			case "dLabelGeometry":
				_, pt := parseGeometry(d)
				label = pt
			case "dColor":
				color = d.Text
			}
		}

		sm.Transitions[e.id] = &model.Transition{
			ID:            e.id,
			SourceID:      e.source,
			TargetID:      e.target,
			TriggerBlock:  trigger,
			Waypoints:     waypoints,
			LabelPosition: label,
			Color:         color,
			Pos:           e.pos,
		}
	}
	return nil
}

// validateInitials implements invariant 3 ("an Initial vertex has exactly
// one outgoing transition") as a non-fatal diagnostic per the REDESIGN
// FLAGS resolution: entries violating it are dropped from routing (the
// runtime builder will simply find no outgoing transition for them and
// fail with NoInitialState/UnresolvedTarget downstream as appropriate),
// but the fact is now recorded instead of silently vanishing.
func validateInitials(sm *model.StateMachine) {
	outgoing := map[string]int{}
	for _, t := range sm.Transitions {
		if _, ok := sm.Initials[t.SourceID]; ok {
			outgoing[t.SourceID]++
		}
	}
	for id, iv := range sm.Initials {
		if outgoing[id] != 1 {
			sm.Diagnostics = append(sm.Diagnostics, cgmlerr.Diagnostic{
				Severity: cgmlerr.SeverityWarning,
				Code:     "InitialVertexBadOutDegree",
				Message:  "initial vertex does not have exactly one outgoing transition",
				Position: iv.Pos,
				Tag:      id,
			})
			delete(sm.Initials, id)
		}
	}
}

// parseGeometry reads a dGeometry data node's nested <point>/<rect> child
// (or its own x/y/width/height attributes as a fallback) into a Rect/Point.
func parseGeometry(d *xmlgraph.Node) (*model.Rect, *model.Point) {
	if rects := d.ChildrenOf("rect"); len(rects) > 0 {
		r := rects[0]
		return &model.Rect{
			X:      atof(r.Attr("x")),
			Y:      atof(r.Attr("y")),
			Width:  atof(r.Attr("width")),
			Height: atof(r.Attr("height")),
		}, nil
	}
	if pts := d.ChildrenOf("point"); len(pts) > 0 {
		p := pts[0]
		return nil, &model.Point{X: atof(p.Attr("x")), Y: atof(p.Attr("y"))}
	}
	if d.Attr("width") != "" || d.Attr("height") != "" {
		return &model.Rect{
			X:      atof(d.Attr("x")),
			Y:      atof(d.Attr("y")),
			Width:  atof(d.Attr("width")),
			Height: atof(d.Attr("height")),
		}, nil
	}
	if d.Attr("x") != "" || d.Attr("y") != "" {
		return nil, &model.Point{X: atof(d.Attr("x")), Y: atof(d.Attr("y"))}
	}
	return nil, nil
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// parseKeyValueBlock parses the note-content grammar of spec.md §6.1:
// entries separated by a blank line, each entry "key/value".
func parseKeyValueBlock(text string) map[string]string {
	out := map[string]string{}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, entry := range strings.Split(text, "\n\n") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idx := strings.IndexByte(entry, '/')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(entry[:idx])
		val := strings.TrimSpace(entry[idx+1:])
		if key != "" {
			out[key] = val
		}
	}
	return out
}
