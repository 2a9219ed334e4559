// Package gardener implements the Gardener device: a rectangular 2-D
// field a gardener walks and plants, grounded in the original Python
// visualizer's JuniorGardener.py (spec_full.md §4.7.1).
package gardener

import (
	"strconv"

	"github.com/cyberiada-go/cgml/cgmlerr"
	"github.com/cyberiada-go/cgml/component"
	"github.com/cyberiada-go/cgml/value"
)

func init() {
	component.Register("Gardener", New)
}

// Cell values: 0 empty, -1 wall, 1..n a planted marker.
const (
	CellEmpty = 0
	CellWall  = -1
)

// Orientation is the direction the gardener currently faces.
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

func (o Orientation) String() string {
	switch o {
	case North:
		return "NORTH"
	case East:
		return "EAST"
	case South:
		return "SOUTH"
	case West:
		return "WEST"
	default:
		return "?"
	}
}

func parseOrientation(s string) Orientation {
	switch s {
	case "EAST":
		return East
	case "SOUTH":
		return South
	case "WEST":
		return West
	default:
		return North
	}
}

var deltas = map[Orientation][2]int{
	North: {0, -1},
	East:  {1, 0},
	South: {0, 1},
	West:  {-1, 0},
}

// Gardener is a component.Device wrapping a width x height cell field and
// a cursor with position and facing.
type Gardener struct {
	id          string
	width       int
	height      int
	field       [][]int
	x, y        int
	orientation Orientation
}

// New constructs a Gardener from its declared parameters. width/height
// default to 10 when absent or unparsable.
func New(id string, parameters map[string]string) (component.Device, error) {
	width := intParam(parameters, "width", 10)
	height := intParam(parameters, "height", 10)
	g := &Gardener{id: id, width: width, height: height, orientation: North}
	g.field = make([][]int, height)
	for i := range g.field {
		g.field[i] = make([]int, width)
	}
	if ox, ok := parameters["x"]; ok {
		g.x, _ = strconv.Atoi(ox)
	}
	if oy, ok := parameters["y"]; ok {
		g.y, _ = strconv.Atoi(oy)
	}
	if oo, ok := parameters["orientation"]; ok {
		g.orientation = parseOrientation(oo)
	}
	return g, nil
}

func intParam(parameters map[string]string, key string, fallback int) int {
	if raw, ok := parameters[key]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}

func (g *Gardener) ID() string { return g.id }

// InitFromOptions accepts an optional pre-built field under
// options["gardener_field"] ([][]int), matching the Python app's
// editable-field-then-run flow.
func (g *Gardener) InitFromOptions(options map[string]any) error {
	raw, ok := options["gardener_field"]
	if !ok {
		return nil
	}
	field, ok := raw.([][]int)
	if !ok {
		return cgmlerr.NewComponentConfigError(g.id, "gardener_field option must be [][]int", nil)
	}
	if len(field) == 0 || len(field[0]) != g.width || len(field) != g.height {
		return cgmlerr.NewComponentConfigError(g.id, "gardener_field dimensions do not match width/height", nil)
	}
	g.field = field
	return nil
}

func (g *Gardener) Attributes() map[string]component.AttrAccessor {
	return map[string]component.AttrAccessor{
		"x":           func() value.Value { return value.Int(int64(g.x)) },
		"y":           func() value.Value { return value.Int(int64(g.y)) },
		"orientation": func() value.Value { return value.String(g.orientation.String()) },
		"field":       func() value.Value { return g.fieldSnapshot() },
	}
}

func (g *Gardener) fieldSnapshot() value.Value {
	rows := make([]value.Value, len(g.field))
	for i, row := range g.field {
		cells := make([]value.Value, len(row))
		for j, c := range row {
			cells[j] = value.Int(int64(c))
		}
		rows[i] = value.List(cells)
	}
	return value.List(rows)
}

func (g *Gardener) Methods() map[string]component.MethodInvoker {
	return map[string]component.MethodInvoker{
		"Forward":   func(args []value.Value) error { return g.forward() },
		"TurnLeft":  func(args []value.Value) error { g.orientation = (g.orientation + 3) % 4; return nil },
		"TurnRight": func(args []value.Value) error { g.orientation = (g.orientation + 1) % 4; return nil },
		"Plant":     func(args []value.Value) error { return g.plant(args) },
	}
}

func (g *Gardener) forward() error {
	d := deltas[g.orientation]
	nx, ny := g.x+d[0], g.y+d[1]
	if nx < 0 || ny < 0 || nx >= g.width || ny >= g.height {
		return cgmlerr.NewDeviceFault(g.id, "walked off the field", nil)
	}
	if g.field[ny][nx] == CellWall {
		return cgmlerr.NewDeviceFault(g.id, "wall ahead", nil)
	}
	g.x, g.y = nx, ny
	return nil
}

func (g *Gardener) plant(args []value.Value) error {
	kind := 1
	if len(args) > 0 {
		kind = int(args[0].Int())
	}
	cell := g.field[g.y][g.x]
	if cell == CellWall {
		return cgmlerr.NewDeviceFault(g.id, "wall ahead", nil)
	}
	if cell != CellEmpty {
		return cgmlerr.NewDeviceFault(g.id, "cell already planted", nil)
	}
	g.field[g.y][g.x] = kind
	return nil
}

// Field returns the live cell matrix, for tests and the check harness
// (component.Device does not expose it directly since guards/actions only
// see the read-only snapshot attribute).
func (g *Gardener) Field() [][]int { return g.field }

// Position returns the gardener's current (x, y).
func (g *Gardener) Position() (int, int) { return g.x, g.y }
