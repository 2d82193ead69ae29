package querybuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/valrange"
)

func TestAllocateFixedSizesDataFromRecordCapacity(t *testing.T) {
	qb := Allocate("a", datatype.Int32, Policy{CellValNum: valrange.Single(), RecordCapacity: 10})
	assert.Equal(t, 40, qb.Data.Capacity())
	assert.Nil(t, qb.Offsets)
	assert.Nil(t, qb.Validity)
}

func TestAllocateVarAttachesOffsets(t *testing.T) {
	qb := Allocate("s", datatype.StringAscii, Policy{CellValNum: valrange.CellValNumVar, RecordCapacity: 4})
	require.NotNil(t, qb.Offsets)
	assert.Equal(t, 5*8, qb.Offsets.Capacity())
}

func TestAllocateNullableAttachesValidity(t *testing.T) {
	qb := Allocate("a", datatype.Int32, Policy{CellValNum: valrange.Single(), RecordCapacity: 10, Nullable: true})
	require.NotNil(t, qb.Validity)
}

func TestAllocateDefaultsTo10MiBData(t *testing.T) {
	qb := Allocate("a", datatype.Int32, Policy{CellValNum: valrange.Single()})
	assert.Equal(t, DefaultDataCapacityBytes, qb.Data.Capacity())
}

func TestValidateRejectsMissingOffsetsForVar(t *testing.T) {
	qb := QueryBuffer{Field: "s", CellValNum: valrange.CellValNumVar, Data: NewOwnedPart(16)}
	assert.Error(t, qb.Validate())
}

func TestValidateRejectsMissingValidityForNullable(t *testing.T) {
	qb := QueryBuffer{Field: "a", CellValNum: valrange.Single(), Nullable: true, Data: NewOwnedPart(16)}
	assert.Error(t, qb.Validate())
}

func TestBeginEndSubmitRoundTrip(t *testing.T) {
	qb := Allocate("a", datatype.Int32, Policy{CellValNum: valrange.Single(), RecordCapacity: 4})
	qb.BeginSubmit()
	err := qb.EndSubmit(12, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, qb.Data.Length)
}

func TestEndSubmitDetectsBackingArraySwap(t *testing.T) {
	qb := Allocate("a", datatype.Int32, Policy{CellValNum: valrange.Single(), RecordCapacity: 4})
	qb.BeginSubmit()
	qb.Data.Bytes = make([]byte, qb.Data.Capacity())
	err := qb.EndSubmit(12, nil, nil)
	assert.Error(t, err)
}

func TestNumRecordsFixed(t *testing.T) {
	qb := Allocate("a", datatype.Int32, Policy{CellValNum: valrange.Single(), RecordCapacity: 4})
	qb.BeginSubmit()
	require.NoError(t, qb.EndSubmit(12, nil, nil))
	n, err := qb.NumRecords()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNumRecordsVar(t *testing.T) {
	qb := Allocate("s", datatype.StringAscii, Policy{CellValNum: valrange.CellValNumVar, RecordCapacity: 4})
	qb.BeginSubmit()
	offLen := 3 * 8
	require.NoError(t, qb.EndSubmit(10, &offLen, nil))
	n, err := qb.NumRecords()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDoubleGrowsOwnedPartsOnly(t *testing.T) {
	qb := Allocate("a", datatype.Int32, Policy{CellValNum: valrange.Single(), RecordCapacity: 4})
	before := qb.Data.Capacity()
	qb.Double()
	assert.Equal(t, before*2, qb.Data.Capacity())
}

func TestDoubleNoopOnBorrowed(t *testing.T) {
	buf := make([]byte, 16)
	p := NewBorrowedPart(buf)
	p.double()
	assert.Equal(t, 16, p.Capacity())
}

func TestAllLengthsZeroDetectsBuffersTooSmall(t *testing.T) {
	qb := Allocate("a", datatype.Int32, Policy{CellValNum: valrange.Single(), RecordCapacity: 4})
	assert.True(t, qb.AllLengthsZero())
	qb.BeginSubmit()
	require.NoError(t, qb.EndSubmit(4, nil, nil))
	assert.False(t, qb.AllLengthsZero())
}

func TestNewBorrowedPartClipsSpareCapacity(t *testing.T) {
	backing := make([]byte, 4, 64)
	p := NewBorrowedPart(backing)
	assert.Equal(t, 4, p.Capacity())
	p.beginSubmit()
	assert.Equal(t, 4, p.Length, "beginSubmit's Length = Capacity() must not pick up the backing array's spare capacity")
}
