package querybuffer

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/valrange"
)

func int32Buffer(values ...int32) QueryBuffer {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
	}
	return QueryBuffer{
		Field:      "a",
		Datatype:   datatype.Int32,
		CellValNum: valrange.Single(),
		Data:       Part{Bytes: data, Length: len(data), Ownership: Owned},
	}
}

func TestComputeSum(t *testing.T) {
	qb := int32Buffer(1, 2, 3)
	v, err := qb.Compute(AggregateSum)
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)
}

func TestComputeMinMax(t *testing.T) {
	qb := int32Buffer(5, -1, 3)
	min, err := qb.Compute(AggregateMin)
	require.NoError(t, err)
	assert.Equal(t, -1.0, min)

	max, err := qb.Compute(AggregateMax)
	require.NoError(t, err)
	assert.Equal(t, 5.0, max)
}

func TestComputeSumOverEmptyIsZero(t *testing.T) {
	qb := int32Buffer()
	v, err := qb.Compute(AggregateSum)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestComputeMinOverEmptyErrors(t *testing.T) {
	qb := int32Buffer()
	_, err := qb.Compute(AggregateMin)
	assert.Error(t, err)
}

func TestComputeNullCount(t *testing.T) {
	qb := int32Buffer(1, 2, 3)
	validity := Part{Bytes: []byte{1, 0, 1}, Length: 3, Ownership: Owned}
	qb.Validity = &validity
	qb.Nullable = true

	v, err := qb.Compute(AggregateNullCount)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestComputeNullCountRequiresValidity(t *testing.T) {
	qb := int32Buffer(1, 2, 3)
	_, err := qb.Compute(AggregateNullCount)
	assert.Error(t, err)
}

func TestComputeSumRejectsVarField(t *testing.T) {
	qb := int32Buffer(1, 2, 3)
	qb.CellValNum = valrange.CellValNumVar
	_, err := qb.Compute(AggregateSum)
	assert.Error(t, err)
}

func TestComputeNullCountRejectsVarField(t *testing.T) {
	qb := int32Buffer(1, 2, 3)
	qb.CellValNum = valrange.CellValNumVar
	validity := Part{Bytes: []byte{1, 0, 1}, Length: 3, Ownership: Owned}
	qb.Validity = &validity
	qb.Nullable = true
	_, err := qb.Compute(AggregateNullCount)
	assert.Error(t, err)
}
