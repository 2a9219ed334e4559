package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberiada-go/cgml/cgmlerr"
)

const metaNote = `<node id="nMeta">
  <data key="dNote">formal</data>
  <data key="dName">CGML_META</data>
  <data key="dData">platform/BearLoopPlatform

standardVersion/1.0</data>
</node>`

func wrap(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <data key="gFormat">Cyberiada-GraphML-1.0</data>
  <graph id="G" edgedefault="directed">
    <data key="dStateMachine"/>
` + body + `
  </graph>
</graphml>`
}

func TestParseTwoStateToggle(t *testing.T) {
	doc := wrap(metaNote + `
    <node id="init1">
      <data key="dVertex">initial</data>
    </node>
    <node id="sOn">
      <data key="dName">On</data>
    </node>
    <node id="sOff">
      <data key="dName">Off</data>
    </node>
    <edge id="e0" source="init1" target="sOn">
      <data key="dData"></data>
    </edge>
    <edge id="e1" source="sOn" target="sOff">
      <data key="dData">toggle /</data>
    </edge>
    <edge id="e2" source="sOff" target="sOn">
      <data key="dData">toggle /</data>
    </edge>`)

	sm, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "BearLoopPlatform", sm.Platform)
	assert.Equal(t, "1.0", sm.StandardVersion)
	require.Len(t, sm.States, 2)
	assert.Contains(t, sm.States, "sOn")
	assert.Contains(t, sm.States, "sOff")
	require.Len(t, sm.Initials, 1)
	require.Len(t, sm.Transitions, 3)
	assert.Empty(t, sm.Diagnostics)
}

func TestParseChoiceVertex(t *testing.T) {
	doc := wrap(metaNote + `
    <node id="c1">
      <data key="dVertex">choice</data>
    </node>`)

	sm, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Contains(t, sm.Choices, "c1")
}

func TestParseUnknownVertexRecordsDiagnostic(t *testing.T) {
	doc := wrap(metaNote + `
    <node id="x1">
      <data key="dVertex">fork</data>
    </node>`)

	sm, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Contains(t, sm.Unknowns, "x1")
	require.Len(t, sm.Diagnostics, 1)
	assert.Equal(t, "UnknownVertexSubtype", sm.Diagnostics[0].Code)
}

func TestParseMissingMetaFails(t *testing.T) {
	doc := wrap(`<node id="sA"><data key="dName">A</data></node>`)
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.IsType(t, &cgmlerr.MissingMeta{}, err)
}

func TestParseNotAStateMachineFails(t *testing.T) {
	_, err := Parse([]byte(`<graphml><graph id="G"><node id="sA"/></graph></graphml>`))
	require.Error(t, err)
	assert.IsType(t, &cgmlerr.NotAStateMachine{}, err)
}

func TestParseComponentDecl(t *testing.T) {
	doc := wrap(metaNote + `
    <node id="nComp">
      <data key="dNote">formal</data>
      <data key="dName">CGML_COMPONENT</data>
      <data key="dData">id/garden1

type/Gardener

width/10

height/10</data>
    </node>`)

	sm, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Contains(t, sm.Components, "garden1")
	comp := sm.Components["garden1"]
	assert.Equal(t, "Gardener", comp.Type)
	assert.Equal(t, "10", comp.Parameters["width"])
	assert.Equal(t, "10", comp.Parameters["height"])
	assert.NotContains(t, comp.Parameters, "id")
	assert.NotContains(t, comp.Parameters, "type")
}

func TestParseComponentAnchorTransitionDiscarded(t *testing.T) {
	doc := wrap(metaNote + `
    <node id="nComp">
      <data key="dNote">formal</data>
      <data key="dName">CGML_COMPONENT</data>
      <data key="dData">id/garden1

type/Gardener</data>
    </node>
    <node id="sA"><data key="dName">A</data></node>
    <edge id="eAnchor" source="nMeta" target="sA">
      <data key="dData"></data>
    </edge>`)

	sm, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, sm.Transitions)
}

func TestParseDuplicateMetaFails(t *testing.T) {
	doc := wrap(metaNote + `
    <node id="nMeta2">
      <data key="dNote">formal</data>
      <data key="dName">CGML_META</data>
      <data key="dData">platform/BearLoopPlatform

standardVersion/1.0</data>
    </node>`)
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestParseComponentMissingTypeFails(t *testing.T) {
	doc := wrap(metaNote + `
    <node id="nComp">
      <data key="dNote">formal</data>
      <data key="dName">CGML_COMPONENT</data>
      <data key="dData">id/garden1</data>
    </node>`)
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestParseGeometryAndColor(t *testing.T) {
	doc := wrap(metaNote + `
    <node id="sA">
      <data key="dName">A</data>
      <data key="dGeometry"><rect x="1" y="2" width="30" height="40"/></data>
      <data key="dColor">#ff0000</data>
    </node>`)
	sm, err := Parse([]byte(doc))
	require.NoError(t, err)
	st := sm.States["sA"]
	require.NotNil(t, st.Bounds)
	assert.Equal(t, 30.0, st.Bounds.Width)
	assert.Equal(t, "#ff0000", st.Color)
}

func TestParseNestedCompositeState(t *testing.T) {
	doc := wrap(metaNote + `
    <node id="sParent">
      <data key="dName">Parent</data>
      <graph>
        <node id="sChild">
          <data key="dName">Child</data>
        </node>
      </graph>
    </node>`)
	sm, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Contains(t, sm.States, "sChild")
	require.NotNil(t, sm.States["sChild"].ParentID)
	assert.Equal(t, "sParent", *sm.States["sChild"].ParentID)
}
