// Package check implements the Test/Check Harness (C9): two reference
// comparison functions used both by application code driving a run and
// by this package's own tests -- check_called_events and check_gardener
// (spec.md §4.9).
package check

import (
	"fmt"

	"github.com/cyberiada-go/cgml/devices/gardener"
	"github.com/cyberiada-go/cgml/driver"
)

// CheckCalledEvents compares a run's called-event trace against the
// expected sequence: success requires equal length and pointwise
// equality. A timed-out run always fails (spec.md §4.9: "both refuse on
// timeout").
func CheckCalledEvents(res *driver.Result, expected []string) (string, bool) {
	if res.TimedOut {
		return "run timed out before completion", false
	}
	got := res.CalledEvents
	if len(got) != len(expected) {
		return fmt.Sprintf("called events length mismatch: got %d %v, want %d %v", len(got), got, len(expected), expected), false
	}
	for i := range expected {
		if got[i] != expected[i] {
			return fmt.Sprintf("called event %d: got %q, want %q (full trace got=%v want=%v)", i, got[i], expected[i], got, expected), false
		}
	}
	return "", true
}

// CheckGardener compares a gardener device's final field against
// expectedField cell-by-cell, and, when expectedPosition is non-nil,
// also the gardener's final (x, y). A timed-out run always fails.
func CheckGardener(res *driver.Result, g *gardener.Gardener, expectedField [][]int, expectedPosition *[2]int) (string, bool) {
	if res.TimedOut {
		return "run timed out before completion", false
	}

	field := g.Field()
	if len(field) != len(expectedField) {
		return fmt.Sprintf("field height mismatch: got %d rows, want %d", len(field), len(expectedField)), false
	}
	for y, row := range field {
		wantRow := expectedField[y]
		if len(row) != len(wantRow) {
			return fmt.Sprintf("field row %d width mismatch: got %d cells, want %d", y, len(row), len(wantRow)), false
		}
		for x, cell := range row {
			if cell != wantRow[x] {
				return fmt.Sprintf("field cell (%d,%d): got %d, want %d", x, y, cell, wantRow[x]), false
			}
		}
	}

	if expectedPosition != nil {
		x, y := g.Position()
		if x != expectedPosition[0] || y != expectedPosition[1] {
			return fmt.Sprintf("gardener position: got (%d,%d), want (%d,%d)", x, y, expectedPosition[0], expectedPosition[1]), false
		}
	}

	return "", true
}
