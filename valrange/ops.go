package valrange

import (
	"fmt"
	"math/big"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/tiledberr"
)

func mismatch(op string, a, b Range) {
	panic(fmt.Sprintf("valrange: %s: physical-type or arity mismatch (%s vs %s)", op, a, b))
}

// Union computes the componentwise bit-ordered union of a and b: the
// elementwise min of lower bounds and max of upper bounds (spec.md section
// 4.2). Panics on physical-type or arity mismatch -- callers guarantee
// matching discriminants, per spec.md section 4.2's own stated contract.
func Union(a, b Range) Range {
	if a.physical != b.physical || a.shape != b.shape || a.Len() != b.Len() {
		mismatch("union", a, b)
	}
	switch a.physical {
	case datatype.PhysicalI8:
		return unionTyped(a, b, a.loI8, a.hiI8, b.loI8, b.hiI8)
	case datatype.PhysicalI16:
		return unionTyped(a, b, a.loI16, a.hiI16, b.loI16, b.hiI16)
	case datatype.PhysicalI32:
		return unionTyped(a, b, a.loI32, a.hiI32, b.loI32, b.hiI32)
	case datatype.PhysicalI64:
		return unionTyped(a, b, a.loI64, a.hiI64, b.loI64, b.hiI64)
	case datatype.PhysicalU8:
		return unionTyped(a, b, a.loU8, a.hiU8, b.loU8, b.hiU8)
	case datatype.PhysicalU16:
		return unionTyped(a, b, a.loU16, a.hiU16, b.loU16, b.hiU16)
	case datatype.PhysicalU32:
		return unionTyped(a, b, a.loU32, a.hiU32, b.loU32, b.hiU32)
	case datatype.PhysicalU64:
		return unionTyped(a, b, a.loU64, a.hiU64, b.loU64, b.hiU64)
	case datatype.PhysicalF32:
		return unionTyped(a, b, a.loF32, a.hiF32, b.loF32, b.hiF32)
	case datatype.PhysicalF64:
		return unionTyped(a, b, a.loF64, a.hiF64, b.loF64, b.hiF64)
	default:
		panic("valrange: union: unreachable physical type")
	}
}

func unionTyped[T Numeric](a, b Range, aLo, aHi, bLo, bHi []T) Range {
	lo := make([]T, len(aLo))
	hi := make([]T, len(aHi))
	for i := range aLo {
		lo[i] = minBits(aLo[i], bLo[i])
		hi[i] = maxBits(aHi[i], bHi[i])
	}
	r := Range{shape: a.shape, physical: a.physical}
	setField(&r, lo, hi)
	return r
}

// Intersection computes the bit-ordered intersection of a and b: none if
// a.upper < b.lower or b.upper < a.lower (checked componentwise); otherwise
// (max(lo), min(hi)) componentwise. Panics on physical-type or arity
// mismatch, same contract as Union.
func Intersection(a, b Range) (Range, bool) {
	if a.physical != b.physical || a.shape != b.shape || a.Len() != b.Len() {
		mismatch("intersection", a, b)
	}
	switch a.physical {
	case datatype.PhysicalI8:
		return intersectionTyped(a, b, a.loI8, a.hiI8, b.loI8, b.hiI8)
	case datatype.PhysicalI16:
		return intersectionTyped(a, b, a.loI16, a.hiI16, b.loI16, b.hiI16)
	case datatype.PhysicalI32:
		return intersectionTyped(a, b, a.loI32, a.hiI32, b.loI32, b.hiI32)
	case datatype.PhysicalI64:
		return intersectionTyped(a, b, a.loI64, a.hiI64, b.loI64, b.hiI64)
	case datatype.PhysicalU8:
		return intersectionTyped(a, b, a.loU8, a.hiU8, b.loU8, b.hiU8)
	case datatype.PhysicalU16:
		return intersectionTyped(a, b, a.loU16, a.hiU16, b.loU16, b.hiU16)
	case datatype.PhysicalU32:
		return intersectionTyped(a, b, a.loU32, a.hiU32, b.loU32, b.hiU32)
	case datatype.PhysicalU64:
		return intersectionTyped(a, b, a.loU64, a.hiU64, b.loU64, b.hiU64)
	case datatype.PhysicalF32:
		return intersectionTyped(a, b, a.loF32, a.hiF32, b.loF32, b.hiF32)
	case datatype.PhysicalF64:
		return intersectionTyped(a, b, a.loF64, a.hiF64, b.loF64, b.hiF64)
	default:
		panic("valrange: intersection: unreachable physical type")
	}
}

func intersectionTyped[T Numeric](a, b Range, aLo, aHi, bLo, bHi []T) (Range, bool) {
	for i := range aLo {
		if less(aHi[i], bLo[i]) || less(bHi[i], aLo[i]) {
			return Range{}, false
		}
	}
	lo := make([]T, len(aLo))
	hi := make([]T, len(aHi))
	for i := range aLo {
		lo[i] = maxBits(aLo[i], bLo[i])
		hi[i] = minBits(aHi[i], bHi[i])
	}
	r := Range{shape: a.shape, physical: a.physical}
	setField(&r, lo, hi)
	return r, true
}

// NumCells returns the number of discrete values spanned by r, defined only
// for integral Single/Multi ranges (the product of per-component spans, in
// arbitrary precision to match the source's i128 arithmetic); ok is false
// for floating or Var ranges.
func NumCells(r Range) (count *big.Int, ok bool) {
	if r.shape == Var {
		return nil, false
	}
	if !datatypeOfPhysicalIsIntegral(r.physical) {
		return nil, false
	}
	total := big.NewInt(1)
	n := r.Len()
	for i := 0; i < n; i++ {
		span, ok := componentSpan(r, i)
		if !ok {
			return nil, false
		}
		total.Mul(total, span)
	}
	return total, true
}

func datatypeOfPhysicalIsIntegral(p datatype.PhysicalType) bool {
	switch p {
	case datatype.PhysicalF32, datatype.PhysicalF64:
		return false
	default:
		return true
	}
}

func componentSpan(r Range, i int) (*big.Int, bool) {
	switch r.physical {
	case datatype.PhysicalI8:
		return spanOf(int64(r.loI8[i]), int64(r.hiI8[i])), true
	case datatype.PhysicalI16:
		return spanOf(int64(r.loI16[i]), int64(r.hiI16[i])), true
	case datatype.PhysicalI32:
		return spanOf(int64(r.loI32[i]), int64(r.hiI32[i])), true
	case datatype.PhysicalI64:
		return spanOf(r.loI64[i], r.hiI64[i]), true
	case datatype.PhysicalU8:
		return spanOfUnsigned(uint64(r.loU8[i]), uint64(r.hiU8[i])), true
	case datatype.PhysicalU16:
		return spanOfUnsigned(uint64(r.loU16[i]), uint64(r.hiU16[i])), true
	case datatype.PhysicalU32:
		return spanOfUnsigned(uint64(r.loU32[i]), uint64(r.hiU32[i])), true
	case datatype.PhysicalU64:
		return spanOfUnsigned(r.loU64[i], r.hiU64[i]), true
	default:
		return nil, false
	}
}

func spanOf(lo, hi int64) *big.Int {
	span := new(big.Int).Sub(big.NewInt(hi), big.NewInt(lo))
	return span.Add(span, big.NewInt(1))
}

func spanOfUnsigned(lo, hi uint64) *big.Int {
	span := new(big.Int).Sub(new(big.Int).SetUint64(hi), new(big.Int).SetUint64(lo))
	return span.Add(span, big.NewInt(1))
}

// Less orders a and b by lower bound, then upper bound, componentwise under
// bit-ordering. Used to keep a Subarray's per-dimension range set sorted
// (subarray package's llrb.Tree of Range). Panics on physical-type or arity
// mismatch, same contract as Union.
func Less(a, b Range) bool {
	if a.physical != b.physical || a.Len() != b.Len() {
		mismatch("less", a, b)
	}
	switch a.physical {
	case datatype.PhysicalI8:
		return lessTyped(a.loI8, a.hiI8, b.loI8, b.hiI8)
	case datatype.PhysicalI16:
		return lessTyped(a.loI16, a.hiI16, b.loI16, b.hiI16)
	case datatype.PhysicalI32:
		return lessTyped(a.loI32, a.hiI32, b.loI32, b.hiI32)
	case datatype.PhysicalI64:
		return lessTyped(a.loI64, a.hiI64, b.loI64, b.hiI64)
	case datatype.PhysicalU8:
		return lessTyped(a.loU8, a.hiU8, b.loU8, b.hiU8)
	case datatype.PhysicalU16:
		return lessTyped(a.loU16, a.hiU16, b.loU16, b.hiU16)
	case datatype.PhysicalU32:
		return lessTyped(a.loU32, a.hiU32, b.loU32, b.hiU32)
	case datatype.PhysicalU64:
		return lessTyped(a.loU64, a.hiU64, b.loU64, b.hiU64)
	case datatype.PhysicalF32:
		return lessTyped(a.loF32, a.hiF32, b.loF32, b.hiF32)
	case datatype.PhysicalF64:
		return lessTyped(a.loF64, a.hiF64, b.loF64, b.hiF64)
	default:
		panic("valrange: less: unreachable physical type")
	}
}

func lessTyped[T Numeric](aLo, aHi, bLo, bHi []T) bool {
	for i := range aLo {
		if less(aLo[i], bLo[i]) {
			return true
		}
		if less(bLo[i], aLo[i]) {
			return false
		}
	}
	for i := range aHi {
		if less(aHi[i], bHi[i]) {
			return true
		}
		if less(bHi[i], aHi[i]) {
			return false
		}
	}
	return false
}

// Overlaps reports whether a and b share at least one value under
// bit-ordering (a cheaper yes/no than Intersection for callers that only
// need to decide whether to merge two ranges).
func Overlaps(a, b Range) bool {
	_, ok := Intersection(a, b)
	return ok
}

// CheckDimensionCompatibility enforces the Range/Dimension invariants of
// spec.md section 3:
//   - Single requires CellValNum = Fixed(1), type != StringAscii.
//   - Multi is never valid for a dimension.
//   - Var requires CellValNum = Var, and for dimensions, type = StringAscii
//     and the physical type is u8.
func CheckDimensionCompatibility(r Range, d datatype.Datatype, cellValNum CellValNum) error {
	if !datatype.PhysicalTypeCompatible(r.physical, d) {
		return tiledberr.Mismatch(fmt.Sprintf("range physical type %s incompatible with datatype %s", r.physical, d))
	}
	switch r.shape {
	case Single:
		if !cellValNum.IsSingle() {
			return tiledberr.Incompatible(fmt.Sprintf("single-value range requires cell_val_num = fixed(1), found %s", cellValNum))
		}
		if d == datatype.StringAscii {
			return tiledberr.Incompatible(fmt.Sprintf("dimension of type %s cannot have a fixed-length range", d))
		}
	case Multi:
		return tiledberr.Incompatible(fmt.Sprintf("dimensions cannot have multiple-value fixed ranges (found range of length %d)", r.Len()))
	case Var:
		if !cellValNum.IsVar() {
			return tiledberr.Incompatible(fmt.Sprintf("var-length range requires cell_val_num = var, found %s", cellValNum))
		}
		if d != datatype.StringAscii {
			return tiledberr.Incompatible(fmt.Sprintf("dimension of type %s cannot have a variable-length range", d))
		}
		if r.physical != datatype.PhysicalU8 {
			return tiledberr.Incompatible(fmt.Sprintf("var-length dimension range must be physical type u8, found %s", r.physical))
		}
	}
	return nil
}
