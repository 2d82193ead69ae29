package datatype

import "v.io/x/lib/vlog"

// Dispatch machinery generalizes the teacher's own hand-dispatch idiom (a
// switch over a closed FieldType/Datatype enum invoking a differently named,
// concretely typed method per arm -- see pam/fieldio/reader.go's
// Read*Field/Skip*Field families) into three reusable shapes, rather than
// duplicating the switch at every call site the way fieldio does.
//
// Go generic functions cannot be passed around with an unresolved type
// parameter, so a caller that wants one generic body instantiated per
// physical type builds a Visitor by explicitly instantiating that body once
// per field, e.g.:
//
//	v := datatype.Funcs[int]{
//		I8:  func() int { return sumGeneric[int8](buf) },
//		I16: func() int { return sumGeneric[int16](buf) },
//		...
//	}
//	total := datatype.Dispatch(d, v)
//
// This mirrors the explicit per-case method naming in reader.go rather than
// hiding the fan-out behind reflection.

// Numeric is the constraint satisfied by all ten physical-type
// representations.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Integral is the constraint satisfied by the eight integer physical types.
type Integral interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Visitor is a body dispatch target: one method per physical type, each
// concretely typed. Every PhysicalType value has a corresponding method, so
// an implementation covers every Datatype variant (string/datetime/time/
// geometry included) by construction -- there is no "default" arm to forget.
type Visitor[R any] interface {
	VisitI8() R
	VisitI16() R
	VisitI32() R
	VisitI64() R
	VisitU8() R
	VisitU16() R
	VisitU32() R
	VisitU64() R
	VisitF32() R
	VisitF64() R
}

// Dispatch instantiates v's method for the physical type backing d and
// invokes it. This is body dispatch (spec.md section 4.1): bind T locally by
// picking the one Visitor method that corresponds to physical_type_of(d).
func Dispatch[R any](d Datatype, v Visitor[R]) R {
	switch PhysicalTypeOf(d) {
	case PhysicalI8:
		return v.VisitI8()
	case PhysicalI16:
		return v.VisitI16()
	case PhysicalI32:
		return v.VisitI32()
	case PhysicalI64:
		return v.VisitI64()
	case PhysicalU8:
		return v.VisitU8()
	case PhysicalU16:
		return v.VisitU16()
	case PhysicalU32:
		return v.VisitU32()
	case PhysicalU64:
		return v.VisitU64()
	case PhysicalF32:
		return v.VisitF32()
	case PhysicalF64:
		return v.VisitF64()
	default:
		panic("datatype: unreachable physical type in Dispatch")
	}
}

// Funcs is a Visitor built from ten independently instantiated closures; the
// zero-value-friendly way to build a one-off Visitor without declaring a
// named type at every call site.
type Funcs[R any] struct {
	I8, I16, I32, I64         func() R
	U8, U16, U32, U64         func() R
	F32, F64                  func() R
}

func (f Funcs[R]) VisitI8() R  { return f.I8() }
func (f Funcs[R]) VisitI16() R { return f.I16() }
func (f Funcs[R]) VisitI32() R { return f.I32() }
func (f Funcs[R]) VisitI64() R { return f.I64() }
func (f Funcs[R]) VisitU8() R  { return f.U8() }
func (f Funcs[R]) VisitU16() R { return f.U16() }
func (f Funcs[R]) VisitU32() R { return f.U32() }
func (f Funcs[R]) VisitU64() R { return f.U64() }
func (f Funcs[R]) VisitF32() R { return f.F32() }
func (f Funcs[R]) VisitF64() R { return f.F64() }

// IntegralVisitor is a body dispatch target covering only the eight integer
// physical types, used for integral-only dispatch sites (spec.md section
// 4.1's second shape, e.g. range-span arithmetic).
type IntegralVisitor[R any] interface {
	VisitI8() R
	VisitI16() R
	VisitI32() R
	VisitI64() R
	VisitU8() R
	VisitU16() R
	VisitU32() R
	VisitU64() R
}

// IntegralFuncs is the IntegralVisitor analog of Funcs.
type IntegralFuncs[R any] struct {
	I8, I16, I32, I64 func() R
	U8, U16, U32, U64 func() R
}

func (f IntegralFuncs[R]) VisitI8() R  { return f.I8() }
func (f IntegralFuncs[R]) VisitI16() R { return f.I16() }
func (f IntegralFuncs[R]) VisitI32() R { return f.I32() }
func (f IntegralFuncs[R]) VisitI64() R { return f.I64() }
func (f IntegralFuncs[R]) VisitU8() R  { return f.U8() }
func (f IntegralFuncs[R]) VisitU16() R { return f.U16() }
func (f IntegralFuncs[R]) VisitU32() R { return f.U32() }
func (f IntegralFuncs[R]) VisitU64() R { return f.U64() }

// DispatchIntegral instantiates v for d's physical type when that type is
// integral, otherwise invokes fallback. Used at call sites (range-span
// arithmetic, num_cells) that are only meaningful for integer carriers.
func DispatchIntegral[R any](d Datatype, v IntegralVisitor[R], fallback func() R) R {
	switch PhysicalTypeOf(d) {
	case PhysicalI8:
		return v.VisitI8()
	case PhysicalI16:
		return v.VisitI16()
	case PhysicalI32:
		return v.VisitI32()
	case PhysicalI64:
		return v.VisitI64()
	case PhysicalU8:
		return v.VisitU8()
	case PhysicalU16:
		return v.VisitU16()
	case PhysicalU32:
		return v.VisitU32()
	case PhysicalU64:
		return v.VisitU64()
	case PhysicalF32, PhysicalF64:
		vlog.VI(1).Infof("datatype: DispatchIntegral falling back for non-integral physical type of %v", d)
		return fallback()
	default:
		panic("datatype: unreachable physical type in DispatchIntegral")
	}
}

// CrossDispatch2 dispatches on a pair of Datatypes that must share one
// physical type T. If d1 and d2 disagree on physical type, fallback runs
// instead of v -- this is the "mismatch takes a fallback arm" case of
// spec.md section 4.1's cross-dispatch shape (used e.g. when comparing a
// caller-supplied value's datatype against a field's declared datatype).
func CrossDispatch2[R any](d1, d2 Datatype, v Visitor[R], fallback func() R) R {
	if PhysicalTypeOf(d1) != PhysicalTypeOf(d2) {
		vlog.VI(1).Infof("datatype: CrossDispatch2 falling back: %v and %v do not share a physical type", d1, d2)
		return fallback()
	}
	return Dispatch(d1, v)
}

// CrossDispatch3 is CrossDispatch2 generalized to three Datatypes that must
// all share one physical type.
func CrossDispatch3[R any](d1, d2, d3 Datatype, v Visitor[R], fallback func() R) R {
	t := PhysicalTypeOf(d1)
	if PhysicalTypeOf(d2) != t || PhysicalTypeOf(d3) != t {
		vlog.VI(1).Infof("datatype: CrossDispatch3 falling back: %v, %v, %v do not share a physical type", d1, d2, d3)
		return fallback()
	}
	return Dispatch(d1, v)
}
