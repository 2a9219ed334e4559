package driver

import (
	"github.com/cyberiada-go/cgml/cgmlerr"
	"github.com/cyberiada-go/cgml/model"
	"github.com/cyberiada-go/cgml/parser"
)

// Parse runs the CGML Semantic Parser (C3) over raw document text and
// returns the resulting typed model alongside every non-fatal diagnostic
// recorded while parsing it (e.g. a discarded initial vertex or an
// unrecognized pseudo-vertex subtype; spec_full.md §4.3).
func Parse(text []byte) (*model.StateMachine, []cgmlerr.Diagnostic, error) {
	sm, err := parser.Parse(text)
	if err != nil {
		return nil, nil, err
	}
	return sm, sm.Diagnostics, nil
}
