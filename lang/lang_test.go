package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberiada-go/cgml/value"
)

type fakeLookup map[string]map[string]value.Value

func (f fakeLookup) ReadAttr(component, attr string) (value.Value, error) {
	return f[component][attr], nil
}

type fakeInvoker struct {
	calls []string
}

func (f *fakeInvoker) Invoke(component, method string, args []value.Value) error {
	f.calls = append(f.calls, component+"."+method)
	return nil
}

func TestParseActionsBlockSingleEvent(t *testing.T) {
	blocks, err := ParseActionsBlock("toggle /")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "toggle", blocks[0].EventName)
	assert.Empty(t, blocks[0].Guard)
	assert.Empty(t, blocks[0].Actions)
}

func TestParseActionsBlockGuardedInline(t *testing.T) {
	blocks, err := ParseActionsBlock("tick [cnt.value < 3] / cnt.add(1)")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "tick", blocks[0].EventName)
	assert.Equal(t, "cnt.value < 3", blocks[0].Guard)
	require.Len(t, blocks[0].Actions, 1)
	assert.Equal(t, "cnt", blocks[0].Actions[0].Component)
	assert.Equal(t, "add", blocks[0].Actions[0].Method)
	assert.Equal(t, []string{"1"}, blocks[0].Actions[0].Args)
}

func TestParseActionsBlockMultipleEventsElse(t *testing.T) {
	text := "tick [cnt.value < 3] / cnt.add(1)\n\ntick [else] / imp.impulseC()"
	blocks, err := ParseActionsBlock(text)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.True(t, blocks[1].IsElse())
}

func TestParseActionsBlockNestedSetArgs(t *testing.T) {
	blocks, err := ParseActionsBlock("go / garden.plant({1, 2}, 3)")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Len(t, blocks[0].Actions, 1)
	assert.Equal(t, []string{"{1, 2}", "3"}, blocks[0].Actions[0].Args)
}

func TestEvalGuardEmptyIsTrue(t *testing.T) {
	ok, err := EvalGuard("", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalGuardNumericComparison(t *testing.T) {
	lookup := fakeLookup{"cnt": {"value": value.Int(2)}}
	ok, err := EvalGuard("cnt.value < 3", lookup)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvalGuard("cnt.value >= 3", lookup)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalGuardStringEquality(t *testing.T) {
	lookup := fakeLookup{"reader": {"current": value.String("a")}}
	ok, err := EvalGuard("reader.current == a", lookup)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolveOperandOrder(t *testing.T) {
	v, err := ResolveOperand("42", nil)
	require.NoError(t, err)
	assert.True(t, v.IsInt())

	v, err = ResolveOperand("3.5", nil)
	require.NoError(t, err)
	assert.True(t, v.IsFloat())

	lookup := fakeLookup{"imp": {"x": value.Int(7)}}
	v, err = ResolveOperand("imp.x", lookup)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int())

	v, err = ResolveOperand("hello", nil)
	require.NoError(t, err)
	assert.True(t, v.IsString())
	assert.Equal(t, "hello", v.String())
}

func TestResolveArgNestedSet(t *testing.T) {
	v, err := ResolveArg("{1, 2, 3}", nil)
	require.NoError(t, err)
	require.True(t, v.IsList())
	assert.Len(t, v.List(), 3)
}

func TestSelectBranchFirstGuardWins(t *testing.T) {
	blocks := []EventBlock{
		{EventName: "tick", Guard: "cnt.value < 3"},
		{EventName: "tick", Guard: "else"},
	}
	lookup := fakeLookup{"cnt": {"value": value.Int(1)}}
	b, err := SelectBranch(blocks, lookup)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "cnt.value < 3", b.Guard)
}

func TestSelectBranchFallsBackToElse(t *testing.T) {
	blocks := []EventBlock{
		{EventName: "tick", Guard: "cnt.value < 3"},
		{EventName: "tick", Guard: "else"},
	}
	lookup := fakeLookup{"cnt": {"value": value.Int(5)}}
	b, err := SelectBranch(blocks, lookup)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, b.IsElse())
}

func TestSelectBranchNoneMatchReturnsNil(t *testing.T) {
	blocks := []EventBlock{{EventName: "tick", Guard: "cnt.value < 3"}}
	lookup := fakeLookup{"cnt": {"value": value.Int(5)}}
	b, err := SelectBranch(blocks, lookup)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestExecuteInvokesActionsInOrder(t *testing.T) {
	blocks, err := ParseActionsBlock("go / a.one()\nb.two()")
	require.NoError(t, err)
	inv := &fakeInvoker{}
	require.NoError(t, Execute(blocks[0], nil, inv))
	assert.Equal(t, []string{"a.one", "b.two"}, inv.calls)
}

func TestParseTriggerBlockUnconditional(t *testing.T) {
	b, err := ParseTriggerBlock("")
	require.NoError(t, err)
	assert.Empty(t, b.EventName)
}

func TestParseTriggerBlockWithGuardAndAction(t *testing.T) {
	b, err := ParseTriggerBlock("toggle [x > 1] / cnt.add(1)")
	require.NoError(t, err)
	assert.Equal(t, "toggle", b.EventName)
	assert.Equal(t, "x > 1", b.Guard)
	require.Len(t, b.Actions, 1)
}
