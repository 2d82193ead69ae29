package fakebackend

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/tiledb/abi"
	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/enumeration"
	"github.com/grailbio/tiledb/filter"
	"github.com/grailbio/tiledb/query"
	"github.com/grailbio/tiledb/querybuffer"
	"github.com/grailbio/tiledb/querycondition"
	"github.com/grailbio/tiledb/schema"
	"github.com/grailbio/tiledb/subarray"
	"github.com/grailbio/tiledb/valrange"
)

func le32(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func le64u(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// fixedField wraps bytes as a borrowed write buffer (spec.md section 4.5's
// write convention: a write buffer's capacity already equals its written
// length).
func fixedField(field string, dt datatype.Datatype, bytes []byte) querybuffer.QueryBuffer {
	return querybuffer.QueryBuffer{
		Field:      field,
		Datatype:   dt,
		CellValNum: valrange.Single(),
		Data:       querybuffer.NewBorrowedPart(bytes),
	}
}

// quickstartSchema is the dense 4x4 int32 array of spec.md section 8's
// first literal scenario: dimensions rows in [1,4], cols in [5,8],
// attribute a (int32).
func quickstartSchema(t *testing.T) schema.Schema {
	rowDomain := valrange.NewSingle(int32(1), int32(4))
	rows, err := schema.NewDimension("rows", datatype.Int32, valrange.Single(), &rowDomain, le32(4), filter.List{})
	require.NoError(t, err)
	colDomain := valrange.NewSingle(int32(5), int32(8))
	cols, err := schema.NewDimension("cols", datatype.Int32, valrange.Single(), &colDomain, le32(4), filter.List{})
	require.NoError(t, err)
	dom, err := schema.NewDomain([]schema.Dimension{rows, cols})
	require.NoError(t, err)

	a, err := schema.NewAttribute("a", datatype.Int32, false, valrange.Single(), le32(0), nil, filter.List{}, "")
	require.NoError(t, err)

	sch, err := schema.NewBuilder(schema.Dense, dom).WithAttribute(a).Build()
	require.NoError(t, err)
	return sch
}

// writeQuickstart creates path, writes the 16-cell quickstart dataset
// (values 16..31 in row-major order), and finalizes it.
func writeQuickstart(t *testing.T, sch schema.Schema, path string) *Array {
	arrBackend := NewArray(sch)
	arr := query.NewArray(query.NewContext(), arrBackend, sch)
	require.NoError(t, arr.Create(path))
	require.NoError(t, arr.Open(path, abi.QueryWrite, nil))

	var rowBytes, colBytes, aBytes []byte
	v := int32(16)
	for row := int32(1); row <= 4; row++ {
		for col := int32(5); col <= 8; col++ {
			rowBytes = append(rowBytes, le32(row)...)
			colBytes = append(colBytes, le32(col)...)
			aBytes = append(aBytes, le32(v)...)
			v++
		}
	}
	rowsQB := fixedField("rows", datatype.Int32, rowBytes)
	colsQB := fixedField("cols", datatype.Int32, colBytes)
	aQB := fixedField("a", datatype.Int32, aBytes)

	wb := query.NewQueryBuilder(arr, NewQuery(arrBackend, abi.QueryWrite))
	wb.WithField("rows", &rowsQB).WithField("cols", &colsQB).WithField("a", &aQB)
	wq, err := wb.Build()
	require.NoError(t, err)
	state, err := wq.Submit()
	require.NoError(t, err)
	require.Equal(t, query.Completed, state)
	require.NoError(t, wq.Finalize())
	require.NoError(t, arr.Close())
	return arrBackend
}

// readAll drains q to completion, appending every decoded int32 from field
// "a" (and its matching rows/cols) across as many Submit calls as it takes.
type cell struct{ row, col, a int32 }

func readAll(t *testing.T, q *query.Query) []cell {
	var out []cell
	for {
		state, err := q.Submit()
		if err != nil {
			require.Equal(t, query.BuffersTooSmall, err)
		}
		n, err := q.Field("a").NumRecords()
		require.NoError(t, err)
		rowsBuf := q.Field("rows").Data.Bytes
		colsBuf := q.Field("cols").Data.Bytes
		aBuf := q.Field("a").Data.Bytes
		for i := 0; i < n; i++ {
			out = append(out, cell{
				row: decodeBoxed(datatype.Int32, rowsBuf[i*4:(i+1)*4]).(int32),
				col: decodeBoxed(datatype.Int32, colsBuf[i*4:(i+1)*4]).(int32),
				a:   decodeBoxed(datatype.Int32, aBuf[i*4:(i+1)*4]).(int32),
			})
		}
		if state == query.Completed {
			return out
		}
	}
}

func TestQuickstartUnrestrictedReadMatchesSumMinMax(t *testing.T) {
	sch := quickstartSchema(t)
	arrBackend := writeQuickstart(t, sch, "arrays/quickstart1")

	arr := query.NewArray(query.NewContext(), arrBackend, sch)
	require.NoError(t, arr.Open("arrays/quickstart1", abi.QueryRead, nil))
	defer arr.Close()

	rowsQB := querybuffer.Allocate("rows", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 32})
	colsQB := querybuffer.Allocate("cols", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 32})
	aQB := querybuffer.Allocate("a", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 32})

	rb := query.NewQueryBuilder(arr, NewQuery(arrBackend, abi.QueryRead))
	rb.WithLayout(abi.LayoutUnordered).WithField("rows", &rowsQB).WithField("cols", &colsQB).WithField("a", &aQB)
	q, err := rb.Build()
	require.NoError(t, err)

	cells := readAll(t, q)
	require.Len(t, cells, 16)

	sum, min, max := 0, cells[0].a, cells[0].a
	for _, c := range cells {
		sum += int(c.a)
		if c.a < min {
			min = c.a
		}
		if c.a > max {
			max = c.a
		}
	}
	assert.Equal(t, 376, sum)
	assert.Equal(t, int32(16), min)
	assert.Equal(t, int32(31), max)
}

func TestSubarrayRestrictsToFourCells(t *testing.T) {
	sch := quickstartSchema(t)
	arrBackend := writeQuickstart(t, sch, "arrays/quickstart2")

	arr := query.NewArray(query.NewContext(), arrBackend, sch)
	require.NoError(t, arr.Open("arrays/quickstart2", abi.QueryRead, nil))
	defer arr.Close()

	sa := subarray.New(sch.Domain)
	require.NoError(t, sa.AddRange("rows", valrange.NewSingle(int32(2), int32(3))))
	require.NoError(t, sa.AddRange("cols", valrange.NewSingle(int32(6), int32(7))))
	abiSubarr := NewSubarray(sch.Domain)

	rowsQB := querybuffer.Allocate("rows", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 16})
	colsQB := querybuffer.Allocate("cols", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 16})
	aQB := querybuffer.Allocate("a", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 16})

	rb := query.NewQueryBuilder(arr, NewQuery(arrBackend, abi.QueryRead))
	rb.WithSubarray(&sa, abiSubarr).WithField("rows", &rowsQB).WithField("cols", &colsQB).WithField("a", &aQB)
	q, err := rb.Build()
	require.NoError(t, err)

	cells := readAll(t, q)
	require.Equal(t, []cell{
		{row: 2, col: 6, a: 21},
		{row: 2, col: 7, a: 22},
		{row: 3, col: 6, a: 25},
		{row: 3, col: 7, a: 26},
	}, cells)
}

func TestQueryConditionEqualitySelectsOneCell(t *testing.T) {
	sch := quickstartSchema(t)
	arrBackend := writeQuickstart(t, sch, "arrays/quickstart3")

	arr := query.NewArray(query.NewContext(), arrBackend, sch)
	require.NoError(t, arr.Open("arrays/quickstart3", abi.QueryRead, nil))
	defer arr.Close()

	expr := querycondition.Cond{Predicate: querycondition.Equality{
		Field: "a", Op: querycondition.Equal, Value: querycondition.NewLiteral(datatype.Int32, int32(23)),
	}}

	rowsQB := querybuffer.Allocate("rows", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 16})
	colsQB := querybuffer.Allocate("cols", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 16})
	aQB := querybuffer.Allocate("a", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 16})

	rb := query.NewQueryBuilder(arr, NewQuery(arrBackend, abi.QueryRead))
	rb.WithCondition(ConditionContext{}, expr).WithField("rows", &rowsQB).WithField("cols", &colsQB).WithField("a", &aQB)
	q, err := rb.Build()
	require.NoError(t, err)

	cells := readAll(t, q)
	require.Equal(t, []cell{{row: 2, col: 8, a: 23}}, cells)
}

func TestQueryConditionSetMembershipNegated(t *testing.T) {
	sch := quickstartSchema(t)
	arrBackend := writeQuickstart(t, sch, "arrays/quickstart4")

	arr := query.NewArray(query.NewContext(), arrBackend, sch)
	require.NoError(t, arr.Open("arrays/quickstart4", abi.QueryRead, nil))
	defer arr.Close()

	members := []querycondition.Literal{
		querycondition.NewLiteral(datatype.Int32, int32(16)),
		querycondition.NewLiteral(datatype.Int32, int32(17)),
		querycondition.NewLiteral(datatype.Int32, int32(30)),
		querycondition.NewLiteral(datatype.Int32, int32(31)),
	}
	expr := querycondition.Not{Operand: querycondition.Cond{Predicate: querycondition.SetMembership{
		Field: "a", Op: querycondition.In, Members: members,
	}}}

	rowsQB := querybuffer.Allocate("rows", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 16})
	colsQB := querybuffer.Allocate("cols", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 16})
	aQB := querybuffer.Allocate("a", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 16})

	rb := query.NewQueryBuilder(arr, NewQuery(arrBackend, abi.QueryRead))
	rb.WithCondition(ConditionContext{}, expr).WithField("rows", &rowsQB).WithField("cols", &colsQB).WithField("a", &aQB)
	q, err := rb.Build()
	require.NoError(t, err)

	cells := readAll(t, q)
	require.Len(t, cells, 12)
	min, max := cells[0].a, cells[0].a
	for _, c := range cells {
		if c.a < min {
			min = c.a
		}
		if c.a > max {
			max = c.a
		}
	}
	assert.Equal(t, int32(18), min)
	assert.Equal(t, int32(29), max)
}

// TestIncompleteReadReallocatesUntilDrained is spec.md section 8's large
// incomplete-read scenario: 1M uint64 rows, an 8 KiB (1024-value) initial
// buffer, paging to completion.
func TestIncompleteReadReallocatesUntilDrained(t *testing.T) {
	const n = 1_000_000

	idDomain := valrange.NewSingle(uint64(0), uint64(n-1))
	id, err := schema.NewDimension("id", datatype.UInt64, valrange.Single(), &idDomain, le64u(1024), filter.List{})
	require.NoError(t, err)
	dom, err := schema.NewDomain([]schema.Dimension{id})
	require.NoError(t, err)
	v, err := schema.NewAttribute("v", datatype.UInt64, false, valrange.Single(), le64u(0), nil, filter.List{}, "")
	require.NoError(t, err)
	sch, err := schema.NewBuilder(schema.Sparse, dom).WithAttribute(v).Build()
	require.NoError(t, err)

	arrBackend := NewArray(sch)
	arr := query.NewArray(query.NewContext(), arrBackend, sch)
	require.NoError(t, arr.Create("arrays/bignum"))
	require.NoError(t, arr.Open("arrays/bignum", abi.QueryWrite, nil))

	idBytes := make([]byte, 0, n*8)
	vBytes := make([]byte, 0, n*8)
	for i := uint64(0); i < n; i++ {
		idBytes = append(idBytes, le64u(i)...)
		vBytes = append(vBytes, le64u(i)...)
	}
	idQB := fixedField("id", datatype.UInt64, idBytes)
	vQB := fixedField("v", datatype.UInt64, vBytes)
	wb := query.NewQueryBuilder(arr, NewQuery(arrBackend, abi.QueryWrite))
	wb.WithField("id", &idQB).WithField("v", &vQB)
	wq, err := wb.Build()
	require.NoError(t, err)
	state, err := wq.Submit()
	require.NoError(t, err)
	require.Equal(t, query.Completed, state)
	require.NoError(t, wq.Finalize())
	require.NoError(t, arr.Close())

	require.NoError(t, arr.Open("arrays/bignum", abi.QueryRead, nil))
	defer arr.Close()

	idReadQB := querybuffer.Allocate("id", datatype.UInt64, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 1024})
	vReadQB := querybuffer.Allocate("v", datatype.UInt64, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 1024})
	require.Equal(t, 8*1024, idReadQB.Data.Capacity())

	rb := query.NewQueryBuilder(arr, NewQuery(arrBackend, abi.QueryRead))
	rb.WithField("id", &idReadQB).WithField("v", &vReadQB)
	q, err := rb.Build()
	require.NoError(t, err)

	total := 0
	var sum, lastID uint64
	submits := 0
	for {
		state, err := q.Submit()
		if err != nil {
			require.Equal(t, query.BuffersTooSmall, err)
		}
		submits++
		count, err := q.Field("id").NumRecords()
		require.NoError(t, err)
		idBuf := q.Field("id").Data.Bytes
		vBuf := q.Field("v").Data.Bytes
		for i := 0; i < count; i++ {
			gotID := decodeBoxed(datatype.UInt64, idBuf[i*8:(i+1)*8]).(uint64)
			gotV := decodeBoxed(datatype.UInt64, vBuf[i*8:(i+1)*8]).(uint64)
			require.Equal(t, gotID, gotV)
			require.Equal(t, lastID, gotID) // row-major: strictly ascending, no gaps
			lastID = gotID + 1
			sum += gotV
			total++
		}
		if state == query.Completed {
			break
		}
	}
	assert.Equal(t, n, total)
	assert.Equal(t, uint64(n)*(n-1)/2, sum)
	assert.True(t, submits > 1, "an 8 KiB buffer over 1M rows must take more than one submit")
}

// TestEnumerationRoundTripSetMembership is spec.md section 8's enumeration
// scenario: a u8-coded attribute over a 3-entry string vocabulary, read back
// filtered by a set-membership condition over two of the three codes.
func TestEnumerationRoundTripSetMembership(t *testing.T) {
	idxDomain := valrange.NewSingle(int32(0), int32(4))
	idx, err := schema.NewDimension("idx", datatype.Int32, valrange.Single(), &idxDomain, le32(1), filter.List{})
	require.NoError(t, err)
	dom, err := schema.NewDomain([]schema.Dimension{idx})
	require.NoError(t, err)

	data := []byte("redgreenblue")
	offsets := []uint64{0, 3, 8, 12}
	palette, err := enumeration.New("palette", datatype.UInt8, valrange.CellValNumVar, false, data, offsets)
	require.NoError(t, err)
	redCode, greenCode, blueCode := uint8(0), uint8(1), uint8(2)

	color, err := schema.NewAttribute("color", datatype.UInt8, false, valrange.Single(), []byte{0}, nil, filter.List{}, "palette")
	require.NoError(t, err)
	sch, err := schema.NewBuilder(schema.Sparse, dom).WithAttribute(color).WithEnumeration(palette).Build()
	require.NoError(t, err)

	arrBackend := NewArray(sch)
	arr := query.NewArray(query.NewContext(), arrBackend, sch)
	require.NoError(t, arr.Create("arrays/enum"))
	require.NoError(t, arr.Open("arrays/enum", abi.QueryWrite, nil))

	codes := []uint8{redCode, greenCode, blueCode, redCode, greenCode}
	var idxBytes, colorBytes []byte
	for i, c := range codes {
		idxBytes = append(idxBytes, le32(int32(i))...)
		colorBytes = append(colorBytes, c)
	}
	idxQB := fixedField("idx", datatype.Int32, idxBytes)
	colorQB := fixedField("color", datatype.UInt8, colorBytes)
	wb := query.NewQueryBuilder(arr, NewQuery(arrBackend, abi.QueryWrite))
	wb.WithField("idx", &idxQB).WithField("color", &colorQB)
	wq, err := wb.Build()
	require.NoError(t, err)
	state, err := wq.Submit()
	require.NoError(t, err)
	require.Equal(t, query.Completed, state)
	require.NoError(t, wq.Finalize())
	require.NoError(t, arr.Close())

	require.NoError(t, arr.Open("arrays/enum", abi.QueryRead, nil))
	defer arr.Close()

	expr := querycondition.Cond{Predicate: querycondition.SetMembership{
		Field: "color", Op: querycondition.In,
		Members: []querycondition.Literal{
			querycondition.NewLiteral(datatype.UInt8, redCode),
			querycondition.NewLiteral(datatype.UInt8, blueCode),
		},
	}}

	idxReadQB := querybuffer.Allocate("idx", datatype.Int32, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 8})
	colorReadQB := querybuffer.Allocate("color", datatype.UInt8, querybuffer.Policy{CellValNum: valrange.Single(), RecordCapacity: 8})

	rb := query.NewQueryBuilder(arr, NewQuery(arrBackend, abi.QueryRead))
	rb.WithCondition(ConditionContext{}, expr).WithField("idx", &idxReadQB).WithField("color", &colorReadQB)
	q, err := rb.Build()
	require.NoError(t, err)

	var gotIdx []int32
	var gotColor []uint8
	for {
		state, err := q.Submit()
		if err != nil {
			require.Equal(t, query.BuffersTooSmall, err)
		}
		n, err := q.Field("idx").NumRecords()
		require.NoError(t, err)
		idxBuf := q.Field("idx").Data.Bytes
		colorBuf := q.Field("color").Data.Bytes
		for i := 0; i < n; i++ {
			gotIdx = append(gotIdx, decodeBoxed(datatype.Int32, idxBuf[i*4:(i+1)*4]).(int32))
			gotColor = append(gotColor, colorBuf[i])
		}
		if state == query.Completed {
			break
		}
	}

	assert.Equal(t, []int32{0, 2, 3}, gotIdx)
	assert.Equal(t, []uint8{redCode, blueCode, redCode}, gotColor)
}
