// Package eyebear implements the CyberBear device: a 5x7 RGBK LED matrix,
// grounded in the original Python visualizer's CyberBear.py rgbk_to_color
// helper (spec_full.md §4.7.1).
package eyebear

import (
	"github.com/cyberiada-go/cgml/component"
	"github.com/cyberiada-go/cgml/value"
)

func init() {
	component.Register("CyberBear", New)
}

const (
	Rows = 5
	Cols = 7
)

// pixel holds red/green/blue/key channel values, each 0-255.
type pixel [4]byte

// CyberBear is a component.Device wrapping a 5x7 RGBK LED matrix.
type CyberBear struct {
	id     string
	matrix [Rows][Cols]pixel
	post   func(event string, called bool)
}

func New(id string, parameters map[string]string) (component.Device, error) {
	return &CyberBear{id: id}, nil
}

func (b *CyberBear) ID() string                           { return b.id }
func (b *CyberBear) InitFromOptions(map[string]any) error { return nil }
func (b *CyberBear) SetPoster(post func(event string, called bool)) { b.post = post }

func (b *CyberBear) Attributes() map[string]component.AttrAccessor {
	return map[string]component.AttrAccessor{
		"rows": func() value.Value { return value.Int(Rows) },
		"cols": func() value.Value { return value.Int(Cols) },
	}
}

func (b *CyberBear) Methods() map[string]component.MethodInvoker {
	return map[string]component.MethodInvoker{
		"SetPixel":    func(args []value.Value) error { return b.setPixel(args) },
		"Clear":       func(args []value.Value) error { b.clear(); return nil },
		"DrawPattern": func(args []value.Value) error { return b.drawPattern(args) },
		"CheckPattern": func(args []value.Value) error { b.checkPattern(); return nil },
	}
}

func (b *CyberBear) setPixel(args []value.Value) error {
	if len(args) != 6 {
		return nil
	}
	row, col := int(args[0].Int()), int(args[1].Int())
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return nil
	}
	b.matrix[row][col] = pixel{
		byte(args[2].Int()), byte(args[3].Int()), byte(args[4].Int()), byte(args[5].Int()),
	}
	return nil
}

func (b *CyberBear) clear() {
	b.matrix = [Rows][Cols]pixel{}
}

// patterns is the small built-in pattern table DrawPattern and
// CheckPattern share; DrawPattern lights every cell a pattern marks as full
// red (r=255, other channels 0), varying only which cells are lit.
var patterns = map[string][Rows][Cols]bool{
	"blank": {},
	"smile": {
		{false, true, false, false, false, true, false},
		{false, true, false, false, false, true, false},
		{false, false, false, false, false, false, false},
		{true, false, false, false, false, false, true},
		{false, true, true, true, true, true, false},
	},
	"heart": {
		{false, true, true, false, true, true, false},
		{true, false, false, true, false, false, true},
		{true, false, false, false, false, false, true},
		{false, true, false, false, false, true, false},
		{false, false, true, true, true, false, false},
	},
}

func (b *CyberBear) drawPattern(args []value.Value) error {
	if len(args) != 1 {
		return nil
	}
	name := args[0].String()
	shape, ok := patterns[name]
	if !ok {
		return nil
	}
	b.clear()
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if shape[r][c] {
				b.matrix[r][c] = pixel{255, 0, 0, 0}
			}
		}
	}
	return nil
}

// checkPattern classifies the current matrix against the built-in table
// and emits exactly one called event: the matched pattern's name if
// recognized, else "unknown pattern" -- never both (the ambiguity the
// original left open is resolved in favor of one unambiguous trace entry).
func (b *CyberBear) checkPattern() {
	if b.post == nil {
		return
	}
	for name, shape := range patterns {
		if b.matches(shape) {
			b.post(name, true)
			return
		}
	}
	b.post("unknown pattern", true)
}

func (b *CyberBear) matches(shape [Rows][Cols]bool) bool {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			lit := b.matrix[r][c] != (pixel{})
			if lit != shape[r][c] {
				return false
			}
		}
	}
	return true
}
