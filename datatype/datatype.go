// Package datatype implements the closed set of logical datatypes this
// client understands, their physical (bit-level) representations, and the
// compatibility predicates and kind bits that drive generic dispatch over
// them.
//
// The enum and naming follow the teacher's closed-enum idiom
// (encoding/bam.FieldType: an iota block, a String() table, a Parse
// function) generalized to the physical-type dispatch machinery described in
// dispatch.go.
package datatype

import "fmt"

// Datatype is a logical datatype. The discriminant is stable and is used on
// the ABI boundary (abi package), so existing values must never be
// renumbered.
type Datatype uint8

const (
	Int8 Datatype = iota
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	Char

	StringAscii
	StringUtf8
	StringUtf16
	StringUtf32
	StringUcs2
	StringUcs4

	DateTimeYear
	DateTimeMonth
	DateTimeWeek
	DateTimeDay
	DateTimeHour
	DateTimeMinute
	DateTimeSecond
	DateTimeMillisecond
	DateTimeMicrosecond
	DateTimeNanosecond
	DateTimePicosecond
	DateTimeFemtosecond
	DateTimeAttosecond

	TimeHour
	TimeMinute
	TimeSecond
	TimeMillisecond
	TimeMicrosecond
	TimeNanosecond
	TimePicosecond
	TimeFemtosecond
	TimeAttosecond

	Blob
	Boolean
	GeometryWkb
	GeometryWkt

	// Any is a sentinel "untyped" datatype. It is deliberately excluded from
	// All(), matching the original source's DATATYPES const (43 entries,
	// Any excluded) -- it is real, dispatchable (physical type u8), but is
	// not one of the "~43 logical datatypes" spec.md counts.
	Any

	numDatatypes
)

var names = [numDatatypes]string{
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	UInt8: "uint8", UInt16: "uint16", UInt32: "uint32", UInt64: "uint64",
	Float32: "float32", Float64: "float64", Char: "char",
	StringAscii: "string_ascii", StringUtf8: "string_utf8", StringUtf16: "string_utf16",
	StringUtf32: "string_utf32", StringUcs2: "string_ucs2", StringUcs4: "string_ucs4",
	DateTimeYear: "datetime_year", DateTimeMonth: "datetime_month", DateTimeWeek: "datetime_week",
	DateTimeDay: "datetime_day", DateTimeHour: "datetime_hour", DateTimeMinute: "datetime_minute",
	DateTimeSecond: "datetime_second", DateTimeMillisecond: "datetime_millisecond",
	DateTimeMicrosecond: "datetime_microsecond", DateTimeNanosecond: "datetime_nanosecond",
	DateTimePicosecond: "datetime_picosecond", DateTimeFemtosecond: "datetime_femtosecond",
	DateTimeAttosecond: "datetime_attosecond",
	TimeHour:           "time_hour", TimeMinute: "time_minute", TimeSecond: "time_second",
	TimeMillisecond: "time_millisecond", TimeMicrosecond: "time_microsecond",
	TimeNanosecond: "time_nanosecond", TimePicosecond: "time_picosecond",
	TimeFemtosecond: "time_femtosecond", TimeAttosecond: "time_attosecond",
	Blob: "blob", Boolean: "boolean", GeometryWkb: "geometry_wkb", GeometryWkt: "geometry_wkt",
	Any: "any",
}

// String returns the wire name of d. Used in error messages and is stable,
// so do not rename entries casually -- the same caution the teacher's own
// FieldType.String() doc calls out for PAM filenames.
func (d Datatype) String() string {
	if int(d) < len(names) && names[d] != "" {
		return names[d]
	}
	return fmt.Sprintf("datatype(%d)", uint8(d))
}

// Parse converts a wire name produced by String back to a Datatype.
func Parse(s string) (Datatype, error) {
	for d, n := range names {
		if n == s {
			return Datatype(d), nil
		}
	}
	return 0, fmt.Errorf("datatype: invalid name %q", s)
}

// All returns the 43 enumerable logical datatypes, in discriminant order,
// excluding the Any sentinel -- mirroring original_source's DATATYPES const
// exactly (spec.md's "closed set of ~43 logical datatypes").
func All() []Datatype {
	out := make([]Datatype, 0, numDatatypes-1)
	for d := Datatype(0); d < numDatatypes; d++ {
		if d == Any {
			continue
		}
		out = append(out, d)
	}
	return out
}

// PhysicalType is one of the ten bit-level representations a Datatype may be
// backed by.
type PhysicalType uint8

const (
	PhysicalI8 PhysicalType = iota
	PhysicalI16
	PhysicalI32
	PhysicalI64
	PhysicalU8
	PhysicalU16
	PhysicalU32
	PhysicalU64
	PhysicalF32
	PhysicalF64
)

func (p PhysicalType) String() string {
	switch p {
	case PhysicalI8:
		return "i8"
	case PhysicalI16:
		return "i16"
	case PhysicalI32:
		return "i32"
	case PhysicalI64:
		return "i64"
	case PhysicalU8:
		return "u8"
	case PhysicalU16:
		return "u16"
	case PhysicalU32:
		return "u32"
	case PhysicalU64:
		return "u64"
	case PhysicalF32:
		return "f32"
	case PhysicalF64:
		return "f64"
	default:
		return fmt.Sprintf("physical(%d)", uint8(p))
	}
}

// Size is the size in bytes of one value of p.
func (p PhysicalType) Size() int {
	switch p {
	case PhysicalI8, PhysicalU8:
		return 1
	case PhysicalI16, PhysicalU16:
		return 2
	case PhysicalI32, PhysicalU32, PhysicalF32:
		return 4
	case PhysicalI64, PhysicalU64, PhysicalF64:
		return 8
	default:
		return 0
	}
}

// physicalOf is the canonical physical representation of each Datatype. Per
// spec.md section 3, every Datatype maps 1:1 to its own physical type except
// the aliasing groups called out there (u8/u16/u32/i64 each backing several
// logical types).
var physicalOf = [numDatatypes]PhysicalType{
	Int8: PhysicalI8, Char: PhysicalI8,
	Int16: PhysicalI16,
	Int32: PhysicalI32,
	Int64: PhysicalI64,
	UInt8: PhysicalU8, Any: PhysicalU8, Blob: PhysicalU8, Boolean: PhysicalU8,
	GeometryWkb: PhysicalU8, GeometryWkt: PhysicalU8, StringAscii: PhysicalU8, StringUtf8: PhysicalU8,
	UInt16: PhysicalU16, StringUtf16: PhysicalU16, StringUcs2: PhysicalU16,
	UInt32: PhysicalU32, StringUtf32: PhysicalU32, StringUcs4: PhysicalU32,
	UInt64:  PhysicalU64,
	Float32: PhysicalF32,
	Float64: PhysicalF64,
	DateTimeYear: PhysicalI64, DateTimeMonth: PhysicalI64, DateTimeWeek: PhysicalI64,
	DateTimeDay: PhysicalI64, DateTimeHour: PhysicalI64, DateTimeMinute: PhysicalI64,
	DateTimeSecond: PhysicalI64, DateTimeMillisecond: PhysicalI64, DateTimeMicrosecond: PhysicalI64,
	DateTimeNanosecond: PhysicalI64, DateTimePicosecond: PhysicalI64, DateTimeFemtosecond: PhysicalI64,
	DateTimeAttosecond: PhysicalI64,
	TimeHour:           PhysicalI64, TimeMinute: PhysicalI64, TimeSecond: PhysicalI64,
	TimeMillisecond: PhysicalI64, TimeMicrosecond: PhysicalI64, TimeNanosecond: PhysicalI64,
	TimePicosecond: PhysicalI64, TimeFemtosecond: PhysicalI64, TimeAttosecond: PhysicalI64,
}

// PhysicalTypeOf returns the canonical physical representation of d.
func PhysicalTypeOf(d Datatype) PhysicalType {
	return physicalOf[d]
}

// Size is the number of bytes one cell value of d occupies.
func (d Datatype) Size() int {
	return PhysicalTypeOf(d).Size()
}

// aliasGroups lists, for the physical types that back more than one logical
// datatype, the full set of logical datatypes compatible with that physical
// type. This is the "except" list in spec.md section 3.
var aliasGroups = map[PhysicalType][]Datatype{
	PhysicalU8:  {Any, Blob, Boolean, GeometryWkb, GeometryWkt, StringAscii, StringUtf8, UInt8},
	PhysicalU16: {StringUtf16, StringUcs2, UInt16},
	PhysicalU32: {StringUtf32, StringUcs4, UInt32},
	PhysicalI64: {
		Int64,
		DateTimeYear, DateTimeMonth, DateTimeWeek, DateTimeDay, DateTimeHour, DateTimeMinute,
		DateTimeSecond, DateTimeMillisecond, DateTimeMicrosecond, DateTimeNanosecond,
		DateTimePicosecond, DateTimeFemtosecond, DateTimeAttosecond,
		TimeHour, TimeMinute, TimeSecond, TimeMillisecond, TimeMicrosecond, TimeNanosecond,
		TimePicosecond, TimeFemtosecond, TimeAttosecond,
	},
}

// PhysicalTypeCompatible reports whether the physical type T is a valid
// caller-supplied representation for the logical datatype d. Exactly one
// physical type satisfies this for any d (spec.md section 8's universal
// property), except for the alias groups above where several logical
// datatypes share one physical type -- within a group, only that group's
// physical type is compatible.
func PhysicalTypeCompatible(t PhysicalType, d Datatype) bool {
	return PhysicalTypeOf(d) == t
}

// IsIntegral reports whether d is an integer-kind datatype.
func IsIntegral(d Datatype) bool {
	switch d {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Boolean:
		return true
	default:
		return false
	}
}

// IsReal reports whether d is a floating-point datatype.
func IsReal(d Datatype) bool {
	return d == Float32 || d == Float64
}

// IsString reports whether d is one of the string encodings.
func IsString(d Datatype) bool {
	switch d {
	case StringAscii, StringUtf8, StringUtf16, StringUtf32, StringUcs2, StringUcs4:
		return true
	default:
		return false
	}
}

// IsDateTime reports whether d is a DateTime* resolution.
func IsDateTime(d Datatype) bool {
	return d >= DateTimeYear && d <= DateTimeAttosecond
}

// IsTime reports whether d is a Time* (time-of-day, no date component)
// resolution.
func IsTime(d Datatype) bool {
	return d >= TimeHour && d <= TimeAttosecond
}

// IsByte reports whether d is an opaque byte-oriented datatype (no
// arithmetic or ordering semantics beyond raw bytes).
func IsByte(d Datatype) bool {
	switch d {
	case Blob, Any, GeometryWkb, GeometryWkt:
		return true
	default:
		return false
	}
}

// IsAllowedDimensionTypeDense reports whether d may back a dimension of a
// dense array: integral, DateTime, or Time, but never Boolean.
func IsAllowedDimensionTypeDense(d Datatype) bool {
	if d == Boolean {
		return false
	}
	return IsIntegral(d) || IsDateTime(d) || IsTime(d)
}

// IsAllowedDimensionTypeSparse reports whether d may back a dimension of a
// sparse array: everything dense allows, plus floating point and
// variable-length ASCII strings.
func IsAllowedDimensionTypeSparse(d Datatype) bool {
	return IsAllowedDimensionTypeDense(d) || d == Float32 || d == Float64 || d == StringAscii
}

// IsAllowedAttributeTypeForEnumeration reports whether d may be the datatype
// of an attribute with an attached Enumeration: only integral types carry an
// enumeration code.
func IsAllowedAttributeTypeForEnumeration(d Datatype) bool {
	return IsIntegral(d)
}

// MaxEnumerationVariants is the maximum number of distinct values an
// Enumeration over an attribute of datatype d may contain: one less than the
// number of representable values of d's physical type, except Boolean which
// is capped at 2. The "minus one" reserves a sentinel code for
// not-yet-assigned / null indices, matching the source's
// datatype_is_integer-keyed enumeration limit.
func MaxEnumerationVariants(d Datatype) uint64 {
	if d == Boolean {
		return 2
	}
	switch PhysicalTypeOf(d) {
	case PhysicalI8:
		return 1<<8 - 1
	case PhysicalU8:
		return 1<<8 - 1
	case PhysicalI16:
		return 1<<16 - 1
	case PhysicalU16:
		return 1<<16 - 1
	case PhysicalI32:
		return 1<<32 - 1
	case PhysicalU32:
		return 1<<32 - 1
	case PhysicalI64, PhysicalU64:
		return 1<<64 - 1
	default:
		return 0
	}
}
