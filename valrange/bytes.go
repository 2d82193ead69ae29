package valrange

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/tiledberr"
)

// FromSlices reinterprets the raw byte slices start/end as the physical
// type of d, producing a Range of the shape implied by cellValNum (Fixed(1)
// => Single, Fixed(n>1) => Multi, Var => Var). Fails with
// tiledberr.InvalidArgument on truncated length (spec.md section 4.2).
//
// Values are decoded little-endian, matching the encoding QueryCondition
// uses when serializing literals to the backend (spec.md section 4.7).
func FromSlices(d datatype.Datatype, cellValNum CellValNum, start, end []byte) (Range, error) {
	size := datatype.PhysicalTypeOf(d).Size()
	if size == 0 {
		return Range{}, tiledberr.Invalid(fmt.Sprintf("datatype %s has no fixed physical size", d))
	}
	if len(start)%size != 0 {
		return Range{}, tiledberr.Invalid(fmt.Sprintf(
			"start range truncation of datatype %s: expected multiple of %d bytes but found %d", d, size, len(start)))
	}
	if len(end)%size != 0 {
		return Range{}, tiledberr.Invalid(fmt.Sprintf(
			"end range truncation of datatype %s: expected multiple of %d bytes but found %d", d, size, len(end)))
	}

	n, isFixed := cellValNum.Value()
	if isFixed {
		wantLen := int(n) * size
		if len(start) != wantLen {
			return Range{}, tiledberr.Invalid(fmt.Sprintf(
				"start range invalid number of values: expected %d, found %d", n, len(start)/size))
		}
		if len(end) != wantLen {
			return Range{}, tiledberr.Invalid(fmt.Sprintf(
				"end range invalid number of values: expected %d, found %d", n, len(end)/size))
		}
	}

	shape := Var
	if isFixed {
		if n == 1 {
			shape = Single
		} else {
			shape = Multi
		}
	}

	return decodeRange(datatype.PhysicalTypeOf(d), shape, start, end)
}

func decodeRange(p datatype.PhysicalType, shape Shape, start, end []byte) (Range, error) {
	switch p {
	case datatype.PhysicalI8:
		return buildRange(shape, decodeI8(start), decodeI8(end)), nil
	case datatype.PhysicalI16:
		return buildRange(shape, decodeI16(start), decodeI16(end)), nil
	case datatype.PhysicalI32:
		return buildRange(shape, decodeI32(start), decodeI32(end)), nil
	case datatype.PhysicalI64:
		return buildRange(shape, decodeI64(start), decodeI64(end)), nil
	case datatype.PhysicalU8:
		return buildRange(shape, append([]uint8(nil), start...), append([]uint8(nil), end...)), nil
	case datatype.PhysicalU16:
		return buildRange(shape, decodeU16(start), decodeU16(end)), nil
	case datatype.PhysicalU32:
		return buildRange(shape, decodeU32(start), decodeU32(end)), nil
	case datatype.PhysicalU64:
		return buildRange(shape, decodeU64(start), decodeU64(end)), nil
	case datatype.PhysicalF32:
		return buildRange(shape, decodeF32(start), decodeF32(end)), nil
	case datatype.PhysicalF64:
		return buildRange(shape, decodeF64(start), decodeF64(end)), nil
	default:
		return Range{}, tiledberr.Bug("from_slices: unreachable physical type")
	}
}

// buildRange skips the NewSingle/NewMulti/NewVar ordering panics -- bytes
// decoded off the wire are not required to satisfy lo <= hi before
// CheckDimensionCompatibility / caller validation runs.
func buildRange[T Numeric](shape Shape, lo, hi []T) Range {
	r := Range{shape: shape, physical: physicalTypeOf[T]()}
	setField(&r, lo, hi)
	return r
}

func decodeI8(b []byte) []int8 {
	out := make([]int8, len(b))
	for i, v := range b {
		out[i] = int8(v)
	}
	return out
}

func decodeI16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

func decodeU16(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return out
}

func decodeI32(b []byte) []int32 {
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func decodeU32(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func decodeI64(b []byte) []int64 {
	out := make([]int64, len(b)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}

func decodeU64(b []byte) []uint64 {
	out := make([]uint64, len(b)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return out
}

func decodeF32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func decodeF64(b []byte) []float64 {
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}
