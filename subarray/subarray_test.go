package subarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/filter"
	"github.com/grailbio/tiledb/schema"
	"github.com/grailbio/tiledb/valrange"
)

func tileExtentI32(v int32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func rowsColsDomain(t *testing.T) schema.Domain {
	lo := valrange.NewSingle(int32(1), int32(4))
	rows, err := schema.NewDimension("rows", datatype.Int32, valrange.Single(), &lo, tileExtentI32(4), filter.List{})
	require.NoError(t, err)
	lo2 := valrange.NewSingle(int32(1), int32(4))
	cols, err := schema.NewDimension("cols", datatype.Int32, valrange.Single(), &lo2, tileExtentI32(4), filter.List{})
	require.NoError(t, err)
	dom, err := schema.NewDomain([]schema.Dimension{rows, cols})
	require.NoError(t, err)
	return dom
}

func TestAddRangeByNameAndIndexAgree(t *testing.T) {
	dom := rowsColsDomain(t)
	sa := New(dom)
	require.NoError(t, sa.AddRange("rows", valrange.NewSingle(int32(2), int32(3))))

	ranges, err := sa.Ranges(0)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	lo, hi, ok := valrange.Bounds[int32](ranges[0])
	require.True(t, ok)
	assert.Equal(t, []int32{2}, lo)
	assert.Equal(t, []int32{3}, hi)
}

func TestAddRangeRejectsIncompatibleShape(t *testing.T) {
	dom := rowsColsDomain(t)
	sa := New(dom)
	multi := valrange.NewMulti([]int32{1, 2}, []int32{3, 4})
	err := sa.AddRange("rows", multi)
	assert.Error(t, err)
}

func TestAddRangeUnknownDimensionName(t *testing.T) {
	dom := rowsColsDomain(t)
	sa := New(dom)
	err := sa.AddRange("bogus", valrange.NewSingle(int32(1), int32(2)))
	assert.Error(t, err)
}

func TestRangesUnionsOverlapping(t *testing.T) {
	dom := rowsColsDomain(t)
	sa := New(dom)
	require.NoError(t, sa.AddRange("rows", valrange.NewSingle(int32(1), int32(2))))
	require.NoError(t, sa.AddRange("rows", valrange.NewSingle(int32(2), int32(3))))

	ranges, err := sa.Ranges(0)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	lo, hi, _ := valrange.Bounds[int32](ranges[0])
	assert.Equal(t, []int32{1}, lo)
	assert.Equal(t, []int32{3}, hi)
}

func TestRangesKeepsDisjointRangesSeparate(t *testing.T) {
	dom := rowsColsDomain(t)
	sa := New(dom)
	require.NoError(t, sa.AddRange("rows", valrange.NewSingle(int32(1), int32(1))))
	require.NoError(t, sa.AddRange("rows", valrange.NewSingle(int32(3), int32(3))))

	ranges, err := sa.Ranges(0)
	require.NoError(t, err)
	assert.Len(t, ranges, 2)
}

func TestCellsCartesianProduct(t *testing.T) {
	dom := rowsColsDomain(t)
	sa := New(dom)
	require.NoError(t, sa.AddRange("rows", valrange.NewSingle(int32(2), int32(3))))
	require.NoError(t, sa.AddRange("cols", valrange.NewSingle(int32(6), int32(7))))

	var tuples [][]valrange.Range
	err := sa.Cells(func(tuple []valrange.Range) bool {
		cp := make([]valrange.Range, len(tuple))
		copy(cp, tuple)
		tuples = append(tuples, cp)
		return true
	})
	require.NoError(t, err)
	assert.Len(t, tuples, 1)
}

func TestCellsUnrestrictedDimensionFallsBackToDomain(t *testing.T) {
	dom := rowsColsDomain(t)
	sa := New(dom)
	require.NoError(t, sa.AddRange("rows", valrange.NewSingle(int32(2), int32(2))))

	var count int
	err := sa.Cells(func(tuple []valrange.Range) bool {
		count++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
