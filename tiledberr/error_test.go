package tiledberr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "invalid_argument", InvalidArgument.String())
	assert.Equal(t, "backend", Backend.String())
	assert.Equal(t, "internal", Internal.String())
}

func TestEWithoutCause(t *testing.T) {
	err := E(InvalidArgument, "bad cell_val_num")
	assert.Equal(t, InvalidArgument, err.Kind)
	assert.Contains(t, err.Error(), "bad cell_val_num")
	assert.Nil(t, err.Unwrap())
}

func TestEWithCause(t *testing.T) {
	cause := errors.New("disk full")
	err := E(Backend, "submit failed", cause)
	require.NotNil(t, err.Unwrap())
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "submit failed")
}

func TestShorthandConstructors(t *testing.T) {
	assert.Equal(t, InvalidArgument, Invalid("x").Kind)
	assert.Equal(t, DatatypeMismatch, Mismatch("x").Kind)
	assert.Equal(t, DimensionCompatibility, Incompatible("x").Kind)
	assert.Equal(t, QueryBuffers, Buffers("x").Kind)
	assert.Equal(t, Backend, FromBackend("x").Kind)
	assert.Equal(t, Internal, Bug("x").Kind)
}

func TestIsUnwrapsChain(t *testing.T) {
	inner := Incompatible("range exceeds domain")
	outer := E(InvalidArgument, "add_range failed", inner)
	assert.True(t, Is(outer, InvalidArgument))
	// Is only inspects outer's own Kind (does not climb past a
	// *tiledberr.Error cause into a nested tiledberr.Error kind) --
	// matches "composes" per DimensionCompatibility doc: callers that
	// want the inner kind inspect errors.Cause(outer) directly.
	cause, ok := outer.Cause().(*Error)
	require.True(t, ok)
	assert.Equal(t, DimensionCompatibility, cause.Kind)
}
