// Package reader implements the CharReader device: a cursor over a fixed
// input string, grounded in the original Python visualizer's
// JuniorReader.py signal list (spec_full.md §4.7.1).
package reader

import (
	"unicode"

	"github.com/cyberiada-go/cgml/component"
	"github.com/cyberiada-go/cgml/value"
)

func init() {
	component.Register("CharReader", New)
}

// CharReader wraps a fixed input string and a read cursor.
type CharReader struct {
	id     string
	input  []rune
	cursor int
	post   func(event string, called bool)
}

func New(id string, parameters map[string]string) (component.Device, error) {
	return &CharReader{id: id, input: []rune(parameters["input"])}, nil
}

func (r *CharReader) ID() string                           { return r.id }
func (r *CharReader) InitFromOptions(map[string]any) error { return nil }
func (r *CharReader) SetPoster(post func(event string, called bool)) { r.post = post }

func (r *CharReader) Attributes() map[string]component.AttrAccessor {
	return map[string]component.AttrAccessor{
		"current": func() value.Value { return value.String(r.current()) },
		"cursor":  func() value.Value { return value.Int(int64(r.cursor)) },
	}
}

func (r *CharReader) current() string {
	if r.cursor >= len(r.input) {
		return ""
	}
	return string(r.input[r.cursor])
}

func (r *CharReader) Methods() map[string]component.MethodInvoker {
	return map[string]component.MethodInvoker{
		"Advance": func(args []value.Value) error { r.advance(); return nil },
	}
}

func (r *CharReader) advance() {
	if r.cursor >= len(r.input) {
		if r.post != nil {
			r.post("eof", true)
		}
		return
	}
	ch := r.input[r.cursor]
	r.cursor++
	if r.post != nil {
		r.post(classOf(ch), true)
	}
}

func classOf(ch rune) string {
	switch {
	case unicode.IsDigit(ch):
		return "digit"
	case unicode.IsSpace(ch):
		return "space"
	case unicode.IsLetter(ch):
		return "letter"
	default:
		return "letter"
	}
}
