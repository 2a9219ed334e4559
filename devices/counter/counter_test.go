package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberiada-go/cgml/value"
)

func TestNewDefaultsToZero(t *testing.T) {
	dev, err := New("c1", nil)
	require.NoError(t, err)
	c := dev.(*Counter)
	assert.Equal(t, int64(0), c.value)
}

func TestNewReadsInitialValue(t *testing.T) {
	dev, err := New("c1", map[string]string{"value": "7"})
	require.NoError(t, err)
	c := dev.(*Counter)
	assert.Equal(t, int64(7), c.value)
}

func TestAddAccumulates(t *testing.T) {
	dev, _ := New("c1", nil)
	c := dev.(*Counter)
	methods := c.Methods()
	require.NoError(t, methods["Add"]([]value.Value{value.Int(3)}))
	require.NoError(t, methods["Add"]([]value.Value{value.Int(-1)}))
	assert.Equal(t, int64(2), c.Attributes()["value"]().Int())
}

func TestAddIgnoresWrongArgCount(t *testing.T) {
	dev, _ := New("c1", map[string]string{"value": "5"})
	c := dev.(*Counter)
	require.NoError(t, c.Methods()["Add"](nil))
	assert.Equal(t, int64(5), c.value)
}
