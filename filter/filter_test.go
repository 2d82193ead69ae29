package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGzipWithLevel(t *testing.T) {
	level := int32(5)
	f, err := New(Gzip, Options{Level: &level})
	require.NoError(t, err)
	assert.Equal(t, Gzip, f.Kind)
}

func TestLevelRejectedForNonCompressionKind(t *testing.T) {
	level := int32(5)
	_, err := New(BitShuffle, Options{Level: &level})
	assert.Error(t, err)
}

func TestMaxWindowOnlyForBitWidthReductionOrPositiveDelta(t *testing.T) {
	window := uint32(100)
	_, err := New(BitWidthReduction, Options{MaxWindow: &window})
	assert.NoError(t, err)

	_, err = New(PositiveDelta, Options{MaxWindow: &window})
	assert.NoError(t, err)

	_, err = New(Gzip, Options{MaxWindow: &window})
	assert.Error(t, err)
}

func TestScaleFloatOptions(t *testing.T) {
	bw := uint64(4)
	factor := 1.5
	offset := 0.0
	_, err := New(ScaleFloat, Options{ScaleFloatByteWidth: &bw, ScaleFloatFactor: &factor, ScaleFloatOffset: &offset})
	assert.NoError(t, err)

	_, err = New(Xor, Options{ScaleFloatByteWidth: &bw})
	assert.Error(t, err)
}

func TestListWithMaxChunkSizeValidatesPositive(t *testing.T) {
	var l List
	_, err := l.WithMaxChunkSize(0)
	assert.Error(t, err)

	out, err := l.WithMaxChunkSize(4096)
	require.NoError(t, err)
	require.NotNil(t, out.MaxChunkSize)
	assert.Equal(t, uint32(4096), *out.MaxChunkSize)
}

func TestListAppendIsNonMutating(t *testing.T) {
	var l List
	f, _ := New(Gzip, Options{})
	appended := l.Append(f)
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 1, appended.Len())
}
