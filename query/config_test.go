package query

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigPrePopulatesPinnedKeys(t *testing.T) {
	c := NewConfig()
	v, ok := c.Get("sm.var_offsets.bitsize")
	require.True(t, ok)
	assert.Equal(t, "64", v)
}

func TestSetRejectsNonPinnedValueForPinnedKey(t *testing.T) {
	c := NewConfig()
	err := c.Set("sm.var_offsets.mode", "bytes")
	assert.Error(t, err)
}

func TestSetAllowsPinnedKeyAtRequiredValue(t *testing.T) {
	c := NewConfig()
	err := c.Set("sm.var_offsets.mode", "elements")
	assert.NoError(t, err)
}

func TestUnsetRejectsPinnedKey(t *testing.T) {
	c := NewConfig()
	err := c.Unset("sm.var_offsets.bitsize")
	assert.Error(t, err)
}

func TestSetOnFrozenConfigErrors(t *testing.T) {
	c := NewConfig()
	c.Freeze()
	err := c.Set("foo", "bar")
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Set("foo", "bar"))

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	v, ok := loaded.Get("foo")
	require.True(t, ok)
	assert.Equal(t, "bar", v)
	assert.True(t, c.Compare(loaded))
}

func TestCompareDetectsDifference(t *testing.T) {
	a := NewConfig()
	b := NewConfig()
	require.NoError(t, b.Set("foo", "bar"))
	assert.False(t, a.Compare(b))
}
