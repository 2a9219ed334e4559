// Package impulse implements the Impulse device used by scenarios 3 and 4:
// a settable attribute plus three methods that each post a called event
// named after themselves (spec_full.md §4.7.1).
package impulse

import (
	"github.com/cyberiada-go/cgml/component"
	"github.com/cyberiada-go/cgml/value"
)

func init() {
	component.Register("Impulse", New)
}

// Impulse exposes attribute x (int, settable via init_from_options or
// declaration parameters) and three impulse methods.
type Impulse struct {
	id   string
	x    int64
	post func(event string, called bool)
}

func New(id string, parameters map[string]string) (component.Device, error) {
	imp := &Impulse{id: id}
	if raw, ok := parameters["x"]; ok {
		imp.x = value.FromLiteral(raw).Int()
	}
	return imp, nil
}

func (i *Impulse) ID() string { return i.id }

func (i *Impulse) InitFromOptions(options map[string]any) error {
	if raw, ok := options["x"]; ok {
		if n, ok := raw.(int64); ok {
			i.x = n
		}
	}
	return nil
}

func (i *Impulse) SetPoster(post func(event string, called bool)) { i.post = post }

func (i *Impulse) Attributes() map[string]component.AttrAccessor {
	return map[string]component.AttrAccessor{
		"x": func() value.Value { return value.Int(i.x) },
	}
}

func (i *Impulse) Methods() map[string]component.MethodInvoker {
	return map[string]component.MethodInvoker{
		"ImpulseA": i.fire("impulseA"),
		"ImpulseB": i.fire("impulseB"),
		"ImpulseC": i.fire("impulseC"),
	}
}

func (i *Impulse) fire(name string) component.MethodInvoker {
	return func(args []value.Value) error {
		if i.post != nil {
			i.post(name, true)
		}
		return nil
	}
}
