package xmlgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <data key="gFormat">Cyberiada-GraphML-1.0</data>
  <graph id="G" edgedefault="directed">
    <data key="dStateMachine"/>
    <node id="A">
      <data key="dName">A</data>
    </node>
    <node id="B">
      <data key="dName">B</data>
    </node>
    <edge id="e1" source="A" target="B">
      <data key="dData">toggle /</data>
    </edge>
  </graph>
</graphml>`

func TestParseBasicTree(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, "graphml", root.Tag)

	graphs := root.ChildrenOf("graph")
	require.Len(t, graphs, 1)
	g := graphs[0]
	assert.Equal(t, "G", g.Attr("id"))

	nodes := g.ChildrenOf("node")
	require.Len(t, nodes, 2)
	assert.Equal(t, "A", nodes[0].Attr("id"))

	edges := g.ChildrenOf("edge")
	require.Len(t, edges, 1)
	assert.Equal(t, "A", edges[0].Attr("source"))
	assert.Equal(t, "B", edges[0].Attr("target"))
}

func TestParseMalformedXml(t *testing.T) {
	_, err := Parse([]byte("<graphml><unterminated>"))
	assert.Error(t, err)
}

func TestNumericAttrCoercion(t *testing.T) {
	root, err := Parse([]byte(`<root><node id="1" x="3.5"/></root>`))
	require.NoError(t, err)
	n := root.ChildrenOf("node")[0]
	assert.Equal(t, "1", n.Attr("id"))
	assert.Equal(t, "3.5", n.Attr("x"))
}
