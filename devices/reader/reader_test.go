package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceClassifiesCharacters(t *testing.T) {
	dev, err := New("r1", map[string]string{"input": "a 1"})
	require.NoError(t, err)
	r := dev.(*CharReader)
	var called []string
	r.SetPoster(func(event string, isCalled bool) {
		if isCalled {
			called = append(called, event)
		}
	})

	methods := r.Methods()
	require.NoError(t, methods["Advance"](nil))
	require.NoError(t, methods["Advance"](nil))
	require.NoError(t, methods["Advance"](nil))

	assert.Equal(t, []string{"letter", "space", "digit"}, called)
}

func TestAdvancePastEndPostsEof(t *testing.T) {
	dev, _ := New("r1", map[string]string{"input": "a"})
	r := dev.(*CharReader)
	var called []string
	r.SetPoster(func(event string, isCalled bool) { called = append(called, event) })

	methods := r.Methods()
	require.NoError(t, methods["Advance"](nil))
	require.NoError(t, methods["Advance"](nil))
	require.NoError(t, methods["Advance"](nil))

	assert.Equal(t, []string{"letter", "eof", "eof"}, called)
}

func TestCurrentAndCursorAttributes(t *testing.T) {
	dev, _ := New("r1", map[string]string{"input": "xy"})
	r := dev.(*CharReader)
	attrs := r.Attributes()
	assert.Equal(t, "x", attrs["current"]().String())
	assert.Equal(t, int64(0), attrs["cursor"]().Int())

	r.advance()
	assert.Equal(t, "y", attrs["current"]().String())
	assert.Equal(t, int64(1), attrs["cursor"]().Int())
}

func TestCurrentAtEndOfInputIsEmpty(t *testing.T) {
	dev, _ := New("r1", map[string]string{"input": ""})
	r := dev.(*CharReader)
	attrs := r.Attributes()
	assert.Equal(t, "", attrs["current"]().String())
}
