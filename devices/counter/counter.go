// Package counter implements the Counter device used by scenario 4 of
// the mini-language's guarded self-loop example (spec_full.md §4.7.1).
package counter

import (
	"github.com/cyberiada-go/cgml/component"
	"github.com/cyberiada-go/cgml/value"
)

func init() {
	component.Register("Counter", New)
}

// Counter holds a single signed integer attribute, value.
type Counter struct {
	id    string
	value int64
}

func New(id string, parameters map[string]string) (component.Device, error) {
	c := &Counter{id: id}
	if raw, ok := parameters["value"]; ok {
		c.value = value.FromLiteral(raw).Int()
	}
	return c, nil
}

func (c *Counter) ID() string                           { return c.id }
func (c *Counter) InitFromOptions(map[string]any) error { return nil }

func (c *Counter) Attributes() map[string]component.AttrAccessor {
	return map[string]component.AttrAccessor{
		"value": func() value.Value { return value.Int(c.value) },
	}
}

func (c *Counter) Methods() map[string]component.MethodInvoker {
	return map[string]component.MethodInvoker{
		"Add": func(args []value.Value) error {
			if len(args) == 1 {
				c.value += args[0].Int()
			}
			return nil
		},
	}
}
