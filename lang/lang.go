// Package lang implements the Action/Guard Mini-Language (C4): it
// tokenizes actions_block/trigger_block text into event blocks, parses
// guard expressions, and resolves guard/action operands against a
// component attribute table (spec.md §4.4).
package lang

import (
	"strconv"
	"strings"

	"github.com/cyberiada-go/cgml/cgmlerr"
	"github.com/cyberiada-go/cgml/value"
)

// ActionCall is one action_line: component.method(args...).
type ActionCall struct {
	Component string
	Method    string
	Args      []string // raw, unresolved argument tokens
}

// EventBlock is one event_block: a header plus its ordered action lines.
type EventBlock struct {
	EventName string
	Guard     string // "" (always true), "else", or a raw "lhs OP rhs" expression
	Actions   []ActionCall
}

// IsElse reports whether this block is the fallback branch of its owner.
func (b EventBlock) IsElse() bool { return strings.TrimSpace(b.Guard) == "else" }

// ParseActionsBlock splits text into its constituent event blocks, each
// separated by a blank line, per spec.md §4.4.1.
func ParseActionsBlock(text string) ([]EventBlock, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var blocks []EventBlock
	for _, raw := range splitBlank(text) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		b, err := parseOneBlock(raw)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// ParseTriggerBlock parses a transition's trigger_block: the same grammar
// restricted to a single header (spec.md §4.4.1 final sentence). An empty
// trigger_block (unconditional transition) yields a block with an empty
// event name.
func ParseTriggerBlock(text string) (*EventBlock, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return &EventBlock{}, nil
	}
	b, err := parseOneBlock(text)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func splitBlank(text string) []string {
	lines := strings.Split(text, "\n")
	var out []string
	var cur []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if len(cur) > 0 {
				out = append(out, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, "\n"))
	}
	return out
}

func parseOneBlock(raw string) (EventBlock, error) {
	slashAt := findHeaderSlash(raw)
	if slashAt < 0 {
		return EventBlock{}, cgmlerr.NewGuardEvaluationError("", "", "action block missing '/' header terminator: "+raw, nil)
	}

	header := strings.TrimSpace(raw[:slashAt])
	remainder := strings.TrimSpace(raw[slashAt+1:])

	name, guard := splitHeader(header)

	block := EventBlock{EventName: name, Guard: guard}
	if remainder == "" {
		return block, nil
	}
	for _, line := range strings.Split(remainder, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		call, err := parseActionLine(line)
		if err != nil {
			return EventBlock{}, err
		}
		block.Actions = append(block.Actions, call)
	}
	return block, nil
}

// findHeaderSlash returns the index of the '/' that terminates the header,
// i.e. the first '/' outside of a '[...]' guard span.
func findHeaderSlash(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitHeader(header string) (name, guard string) {
	lb := strings.IndexByte(header, '[')
	if lb < 0 {
		return strings.TrimSpace(header), ""
	}
	rb := strings.LastIndexByte(header, ']')
	if rb < lb {
		return strings.TrimSpace(header), ""
	}
	name = strings.TrimSpace(header[:lb])
	guard = strings.TrimSpace(header[lb+1 : rb])
	return name, guard
}

// parseActionLine splits "component.method(args)" into its three parts.
func parseActionLine(line string) (ActionCall, error) {
	openParen := strings.IndexByte(line, '(')
	if openParen < 0 || !strings.HasSuffix(line, ")") {
		return ActionCall{}, cgmlerr.NewActionBindingError("", "malformed action call: "+line, nil)
	}
	head := line[:openParen]
	argsText := line[openParen+1 : len(line)-1]

	dot := strings.IndexByte(head, '.')
	if dot < 0 {
		return ActionCall{}, cgmlerr.NewActionBindingError("", "action call missing component.method: "+line, nil)
	}
	call := ActionCall{
		Component: strings.TrimSpace(head[:dot]),
		Method:    strings.TrimSpace(head[dot+1:]),
	}
	if strings.TrimSpace(argsText) != "" {
		call.Args = splitArgs(argsText)
	}
	return call, nil
}

// splitArgs splits a comma-separated argument list, respecting nested
// '{...}' braces at any depth (spec.md §4.4.3 final sentence).
func splitArgs(s string) []string {
	var args []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		args = append(args, tail)
	}
	return args
}

// AttrLookup resolves a component.attribute read, used by both guard and
// action-argument resolution.
type AttrLookup interface {
	ReadAttr(component, attribute string) (value.Value, error)
}

// guardOps lists the recognized comparison operators, longest first so
// e.g. ">=" is not mis-split as ">" followed by "=".
var guardOps = []string{">=", "<=", "==", "!=", ">", "<"}

// EvalGuard evaluates a raw guard expression per spec.md §4.4.2. An empty
// guard is always true; "else" is not a comparison and must be handled by
// the caller's selection logic (spec.md §4.4.4) before calling EvalGuard.
func EvalGuard(expr string, lookup AttrLookup) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}

	op, lhsText, rhsText, ok := splitGuardOp(expr)
	if !ok {
		return false, cgmlerr.NewGuardEvaluationError("", "", "guard is not a recognized binary comparison: "+expr, nil)
	}

	lhs, err := ResolveOperand(lhsText, lookup)
	if err != nil {
		return false, err
	}
	rhs, err := ResolveOperand(rhsText, lookup)
	if err != nil {
		return false, err
	}
	return compare(lhs, op, rhs)
}

func splitGuardOp(expr string) (op, lhs, rhs string, ok bool) {
	for _, candidate := range guardOps {
		if idx := strings.Index(expr, candidate); idx >= 0 {
			return candidate, strings.TrimSpace(expr[:idx]), strings.TrimSpace(expr[idx+len(candidate):]), true
		}
	}
	return "", "", "", false
}

func compare(lhs value.Value, op string, rhs value.Value) (bool, error) {
	if lhs.IsString() || rhs.IsString() {
		a, b := lhs.String(), rhs.String()
		switch op {
		case "==":
			return a == b, nil
		case "!=":
			return a != b, nil
		default:
			return false, cgmlerr.NewGuardEvaluationError("", "", "operator "+op+" is not defined for string operands", nil)
		}
	}

	a, b := numericOf(lhs), numericOf(rhs)
	switch op {
	case ">":
		return a > b, nil
	case "<":
		return a < b, nil
	case ">=":
		return a >= b, nil
	case "<=":
		return a <= b, nil
	case "==":
		return a == b, nil
	case "!=":
		return a != b, nil
	}
	return false, cgmlerr.NewGuardEvaluationError("", "", "unsupported guard operator: "+op, nil)
}

func numericOf(v value.Value) float64 {
	if v.IsInt() {
		return float64(v.Int())
	}
	return v.Float()
}

// ResolveOperand resolves a single guard/action operand per the order in
// spec.md §4.4.2: integer, then float, then component.attribute, else a
// literal token (string fallback).
func ResolveOperand(tok string, lookup AttrLookup) (value.Value, error) {
	tok = strings.TrimSpace(tok)
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return value.Int(n), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return value.Float(f), nil
	}
	if comp, attr, ok := splitDotted(tok); ok {
		if lookup == nil {
			return value.Value{}, cgmlerr.NewGuardEvaluationError("", "", "no component lookup available for "+tok, nil)
		}
		v, err := lookup.ReadAttr(comp, attr)
		if err != nil {
			return value.Value{}, cgmlerr.NewGuardEvaluationError("", "", "failed reading "+tok, err)
		}
		return v, nil
	}
	return value.FromLiteral(unquote(tok)), nil
}

// ResolveArg resolves one action argument per spec.md §4.4.3: numeric
// conversion, then component.attribute, else a safe literal, else the raw
// string; a '{...}' nested set resolves to a value.List.
func ResolveArg(tok string, lookup AttrLookup) (value.Value, error) {
	tok = strings.TrimSpace(tok)
	if strings.HasPrefix(tok, "{") && strings.HasSuffix(tok, "}") {
		inner := tok[1 : len(tok)-1]
		var elems []value.Value
		for _, part := range splitArgs(inner) {
			v, err := ResolveArg(part, lookup)
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, v)
		}
		return value.List(elems), nil
	}
	return ResolveOperand(tok, lookup)
}

func splitDotted(tok string) (component, attr string, ok bool) {
	idx := strings.IndexByte(tok, '.')
	if idx <= 0 || idx == len(tok)-1 {
		return "", "", false
	}
	comp := tok[:idx]
	rest := tok[idx+1:]
	if strings.ContainsAny(comp, " ({[") || strings.ContainsAny(rest, " ()[]{}") {
		return "", "", false
	}
	return comp, rest, true
}

func unquote(tok string) string {
	if len(tok) >= 2 && ((tok[0] == '"' && tok[len(tok)-1] == '"') || (tok[0] == '\'' && tok[len(tok)-1] == '\'')) {
		return tok[1 : len(tok)-1]
	}
	return tok
}

// Invoker performs an action call's method invocation against a component.
type Invoker interface {
	Invoke(component, method string, args []value.Value) error
}

// Execute runs every action line of a block in declaration order, resolving
// each argument against lookup before invoking it through invoker.
func Execute(block EventBlock, lookup AttrLookup, invoker Invoker) error {
	for _, call := range block.Actions {
		args := make([]value.Value, 0, len(call.Args))
		for _, raw := range call.Args {
			v, err := ResolveArg(raw, lookup)
			if err != nil {
				return err
			}
			args = append(args, v)
		}
		if err := invoker.Invoke(call.Component, call.Method, args); err != nil {
			return cgmlerr.NewActionBindingError(call.Component+"."+call.Method, "action invocation failed", err)
		}
	}
	return nil
}

// SelectBranch implements spec.md §4.4.4: the first block whose guard
// passes fires; failing that, an "else" block; failing that, none (the
// caller must delegate to the parent state or drop the event).
func SelectBranch(blocks []EventBlock, lookup AttrLookup) (*EventBlock, error) {
	var elseBlock *EventBlock
	for i := range blocks {
		b := &blocks[i]
		if b.IsElse() {
			if elseBlock == nil {
				elseBlock = b
			}
			continue
		}
		ok, err := EvalGuard(b.Guard, lookup)
		if err != nil {
			return nil, err
		}
		if ok {
			return b, nil
		}
	}
	return elseBlock, nil
}
