// Package valrange implements Range: a type-tagged union of Single/Multi/Var
// value ranges over the ten physical types, their union/intersection under
// bit-ordering, and the dimension-compatibility invariants from spec.md
// section 3.
//
// Grounded on interval/bedunion.go's disjoint-interval-set design (sorted
// endpoint pairs, explicit endpoint comparison helpers) and biopb/coord.go's
// Compare/LT/LE/GE/GT/Min method-family idiom for ordered value types,
// generalized here from a single int32 coordinate to the full physical-type
// dispatch built in the datatype package.
package valrange

import (
	"fmt"

	"github.com/grailbio/tiledb/datatype"
)

// Numeric re-exports datatype.Numeric so callers constructing a Range don't
// need to import both packages for the type constraint.
type Numeric = datatype.Numeric

// Shape distinguishes the three Range variants of spec.md section 3.
type Shape uint8

const (
	// Single is one physical value each side.
	Single Shape = iota
	// Multi is Box<[T]> of equal length n > 1, used only for fixed-size
	// multi-value cells.
	Multi
	// Var is Box<[T]> of arbitrary length, used only for variable-size
	// cells.
	Var
)

func (s Shape) String() string {
	switch s {
	case Single:
		return "single"
	case Multi:
		return "multi"
	case Var:
		return "var"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

// Range is a tagged union over the ten physical types and the three Shape
// variants. It is a value type: zero value is not meaningful and is never
// produced by the constructors below (the physical field would read as
// PhysicalI8 with nil slices, i.e. a Single range with Len() == 0). The
// operations below do not check for a zero-value Range.
//
// One slice pair is populated per value, selected by physical -- this
// mirrors the original Rust source's SingleValueRange/MultiValueRange/
// VarValueRange enums, which have one tuple variant per physical type
// (SingleValueRange::UInt8(u8,u8), ::Int32(i32,i32), ...): the payload
// really is one-slot-per-type there, just expressed as sum-type variants
// instead of struct fields.
type Range struct {
	shape    Shape
	physical datatype.PhysicalType

	loI8, hiI8 []int8
	loI16, hiI16 []int16
	loI32, hiI32 []int32
	loI64, hiI64 []int64
	loU8, hiU8   []uint8
	loU16, hiU16 []uint16
	loU32, hiU32 []uint32
	loU64, hiU64 []uint64
	loF32, hiF32 []float32
	loF64, hiF64 []float64
}

// Shape reports the variant.
func (r Range) Shape() Shape { return r.shape }

// PhysicalType reports the physical type backing r.
func (r Range) PhysicalType() datatype.PhysicalType { return r.physical }

// Len is the number of components on each side (1 for Single, n for Multi
// and Var).
func (r Range) Len() int {
	switch r.physical {
	case datatype.PhysicalI8:
		return len(r.loI8)
	case datatype.PhysicalI16:
		return len(r.loI16)
	case datatype.PhysicalI32:
		return len(r.loI32)
	case datatype.PhysicalI64:
		return len(r.loI64)
	case datatype.PhysicalU8:
		return len(r.loU8)
	case datatype.PhysicalU16:
		return len(r.loU16)
	case datatype.PhysicalU32:
		return len(r.loU32)
	case datatype.PhysicalU64:
		return len(r.loU64)
	case datatype.PhysicalF32:
		return len(r.loF32)
	case datatype.PhysicalF64:
		return len(r.loF64)
	default:
		return 0
	}
}

func physicalTypeOf[T Numeric]() datatype.PhysicalType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return datatype.PhysicalI8
	case int16:
		return datatype.PhysicalI16
	case int32:
		return datatype.PhysicalI32
	case int64:
		return datatype.PhysicalI64
	case uint8:
		return datatype.PhysicalU8
	case uint16:
		return datatype.PhysicalU16
	case uint32:
		return datatype.PhysicalU32
	case uint64:
		return datatype.PhysicalU64
	case float32:
		return datatype.PhysicalF32
	case float64:
		return datatype.PhysicalF64
	default:
		panic("valrange: unsupported type parameter")
	}
}

// NewSingle builds a Single range. Panics if hi precedes lo under
// bit-ordering -- constructors guarantee lo <= hi so every later operation
// can assume it (spec.md section 3's "lo <= hi componentwise").
func NewSingle[T Numeric](lo, hi T) Range {
	if less(hi, lo) {
		panic(fmt.Sprintf("valrange: NewSingle: lo %v > hi %v", lo, hi))
	}
	r := Range{shape: Single, physical: physicalTypeOf[T]()}
	setField(&r, []T{lo}, []T{hi})
	return r
}

// NewMulti builds a Multi range of equal-length lo/hi slices, n > 1.
// Panics if lengths differ, n <= 1, or any component has hi < lo.
func NewMulti[T Numeric](lo, hi []T) Range {
	if len(lo) != len(hi) {
		panic("valrange: NewMulti: lo/hi length mismatch")
	}
	if len(lo) <= 1 {
		panic("valrange: NewMulti: requires length > 1, use NewSingle")
	}
	for i := range lo {
		if less(hi[i], lo[i]) {
			panic(fmt.Sprintf("valrange: NewMulti: lo[%d] %v > hi[%d] %v", i, lo[i], i, hi[i]))
		}
	}
	r := Range{shape: Multi, physical: physicalTypeOf[T]()}
	setField(&r, lo, hi)
	return r
}

// NewVar builds a Var range of arbitrary (possibly unequal) lo/hi lengths.
// Unlike Single/Multi, lo and hi need not have matching arity -- a var range
// bounds its cells by byte content comparison performed elementwise up to
// the shorter length, matching how a variable-length string range compares.
func NewVar[T Numeric](lo, hi []T) Range {
	r := Range{shape: Var, physical: physicalTypeOf[T]()}
	setField(&r, lo, hi)
	return r
}

func setField[T Numeric](r *Range, lo, hi []T) {
	switch v := any(lo).(type) {
	case []int8:
		r.loI8, r.hiI8 = v, any(hi).([]int8)
	case []int16:
		r.loI16, r.hiI16 = v, any(hi).([]int16)
	case []int32:
		r.loI32, r.hiI32 = v, any(hi).([]int32)
	case []int64:
		r.loI64, r.hiI64 = v, any(hi).([]int64)
	case []uint8:
		r.loU8, r.hiU8 = v, any(hi).([]uint8)
	case []uint16:
		r.loU16, r.hiU16 = v, any(hi).([]uint16)
	case []uint32:
		r.loU32, r.hiU32 = v, any(hi).([]uint32)
	case []uint64:
		r.loU64, r.hiU64 = v, any(hi).([]uint64)
	case []float32:
		r.loF32, r.hiF32 = v, any(hi).([]float32)
	case []float64:
		r.loF64, r.hiF64 = v, any(hi).([]float64)
	default:
		panic("valrange: unsupported type parameter")
	}
}

// Bounds returns the typed lo/hi slices backing r, or ok=false if r's
// physical type does not match T.
func Bounds[T Numeric](r Range) (lo, hi []T, ok bool) {
	if r.physical != physicalTypeOf[T]() {
		return nil, nil, false
	}
	switch any(lo).(type) {
	case []int8:
		return any(r.loI8).([]T), any(r.hiI8).([]T), true
	case []int16:
		return any(r.loI16).([]T), any(r.hiI16).([]T), true
	case []int32:
		return any(r.loI32).([]T), any(r.hiI32).([]T), true
	case []int64:
		return any(r.loI64).([]T), any(r.hiI64).([]T), true
	case []uint8:
		return any(r.loU8).([]T), any(r.hiU8).([]T), true
	case []uint16:
		return any(r.loU16).([]T), any(r.hiU16).([]T), true
	case []uint32:
		return any(r.loU32).([]T), any(r.hiU32).([]T), true
	case []uint64:
		return any(r.loU64).([]T), any(r.hiU64).([]T), true
	case []float32:
		return any(r.loF32).([]T), any(r.hiF32).([]T), true
	case []float64:
		return any(r.loF64).([]T), any(r.hiF64).([]T), true
	default:
		return nil, nil, false
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%s(%s, len=%d)", r.shape, r.physical, r.Len())
}
