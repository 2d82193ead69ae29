package enumeration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/valrange"
)

func TestNewFixedColorEnumeration(t *testing.T) {
	// color: u8 with enumeration ["red","green","blue"] encoded as
	// fixed-width 1-byte codes is not meaningful for string data; here the
	// attribute's own datatype (UInt8) backs the codes and the vocabulary
	// itself is var-length strings, exercised below.
	e, err := New("priority", datatype.UInt8, valrange.Single(), true, []byte{0, 1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, e.NumVariants())
	assert.Equal(t, []byte{1}, e.Value(1))
}

func TestNewVarColorEnumeration(t *testing.T) {
	data := []byte("redgreenblue")
	offsets := []uint64{0, 3, 8, 12}
	e, err := New("color", datatype.UInt8, valrange.CellValNumVar, false, data, offsets)
	require.NoError(t, err)
	assert.Equal(t, 3, e.NumVariants())
	assert.Equal(t, "red", string(e.Value(0)))
	assert.Equal(t, "green", string(e.Value(1)))
	assert.Equal(t, "blue", string(e.Value(2)))
}

func TestNewRejectsNonIntegralDatatype(t *testing.T) {
	_, err := New("e", datatype.Float32, valrange.Single(), false, []byte{0, 0, 0, 0}, nil)
	assert.Error(t, err)
}

func TestNewRejectsMissingOffsetsForVar(t *testing.T) {
	_, err := New("e", datatype.UInt8, valrange.CellValNumVar, false, []byte("abc"), nil)
	assert.Error(t, err)
}

func TestNewRejectsOffsetsForFixed(t *testing.T) {
	_, err := New("e", datatype.UInt8, valrange.Single(), false, []byte{1, 2, 3}, []uint64{0, 1, 2, 3})
	assert.Error(t, err)
}

func TestNewRejectsDataLengthNotMultipleOfSize(t *testing.T) {
	_, err := New("e", datatype.Int32, valrange.Single(), false, []byte{1, 2, 3}, nil)
	assert.Error(t, err)
}

func TestNewRejectsTooManyVariantsForBoolean(t *testing.T) {
	_, err := New("e", datatype.Boolean, valrange.Single(), false, []byte{0, 1, 1}, nil)
	assert.Error(t, err)
}

func TestFingerprintStableAndSensitiveToContent(t *testing.T) {
	a, _ := New("e", datatype.UInt8, valrange.Single(), false, []byte{0, 1, 2}, nil)
	b, _ := New("e", datatype.UInt8, valrange.Single(), false, []byte{0, 1, 2}, nil)
	c, _ := New("e", datatype.UInt8, valrange.Single(), false, []byte{0, 1, 3}, nil)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
