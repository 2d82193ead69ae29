package fakebackend

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/schema"
	"github.com/grailbio/tiledb/valrange"
)

// record is one cell: a raw, little-endian-encoded value per dimension and
// per attached attribute, plus a validity flag for nullable attributes.
// Keeping values as raw bytes rather than decoding eagerly means a read
// never has to re-encode anything -- the bytes written at write time are
// exactly the bytes copied back into a read buffer.
type record struct {
	coords [][]byte
	attrs  map[string][]byte
	valid  map[string]bool // attribute name -> true iff non-null
}

// fieldMeta resolves a field name to its datatype, shape, and position.
type fieldMeta struct {
	dt         datatype.Datatype
	cellValNum valrange.CellValNum
	nullable   bool
	isDim      bool
	dimIndex   int
}

func (m fieldMeta) elementSize() (int, error) {
	n, ok := m.cellValNum.Value()
	if !ok {
		return 0, fmt.Errorf("fakebackend: var-length fields are not supported")
	}
	return m.dt.Size() * int(n), nil
}

func lookupField(s schema.Schema, name string) (fieldMeta, error) {
	for i, dim := range s.Domain.Dimensions {
		if dim.Name == name {
			return fieldMeta{dt: dim.Datatype, cellValNum: dim.CellValNum, isDim: true, dimIndex: i}, nil
		}
	}
	for _, a := range s.Attributes {
		if a.Name == name {
			return fieldMeta{dt: a.Datatype, cellValNum: a.CellValNum, nullable: a.Nullable}, nil
		}
	}
	return fieldMeta{}, fmt.Errorf("fakebackend: no field named %q", name)
}

func dimIndexByName(d schema.Domain, name string) (int, error) {
	for i, dim := range d.Dimensions {
		if dim.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("fakebackend: no dimension named %q", name)
}

// decodeBoxed decodes b as dt's physical type, returning it as the matching
// native Go scalar. Grounded on querybuffer/aggregate.go's widenToFloat64
// dispatch, generalized here to keep the native type instead of widening
// straight to float64.
func decodeBoxed(dt datatype.Datatype, b []byte) interface{} {
	switch datatype.PhysicalTypeOf(dt) {
	case datatype.PhysicalI8:
		return int8(b[0])
	case datatype.PhysicalU8:
		return b[0]
	case datatype.PhysicalI16:
		return int16(binary.LittleEndian.Uint16(b))
	case datatype.PhysicalU16:
		return binary.LittleEndian.Uint16(b)
	case datatype.PhysicalI32:
		return int32(binary.LittleEndian.Uint32(b))
	case datatype.PhysicalU32:
		return binary.LittleEndian.Uint32(b)
	case datatype.PhysicalI64:
		return int64(binary.LittleEndian.Uint64(b))
	case datatype.PhysicalU64:
		return binary.LittleEndian.Uint64(b)
	case datatype.PhysicalF32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case datatype.PhysicalF64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return nil
	}
}

// asFloat64 widens any of decodeBoxed's or valrange.Bounds' native return
// types to float64, for range/comparison purposes where exact integer
// identity does not matter (the widest type involved, uint64, loses no
// precision for the record counts this package's tests use).
func asFloat64(v interface{}) float64 {
	switch x := v.(type) {
	case int8:
		return float64(x)
	case uint8:
		return float64(x)
	case int16:
		return float64(x)
	case uint16:
		return float64(x)
	case int32:
		return float64(x)
	case uint32:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}

// boundsBoxed extracts r's Single-shape bounds as boxed natives, dispatching
// on physical type. Mirrors query/querybuilder.go's boxSingleBounds.
func boundsBoxed(r valrange.Range) (lo, hi interface{}, err error) {
	switch r.PhysicalType() {
	case datatype.PhysicalI8:
		l, h, _ := valrange.Bounds[int8](r)
		return l[0], h[0], nil
	case datatype.PhysicalI16:
		l, h, _ := valrange.Bounds[int16](r)
		return l[0], h[0], nil
	case datatype.PhysicalI32:
		l, h, _ := valrange.Bounds[int32](r)
		return l[0], h[0], nil
	case datatype.PhysicalI64:
		l, h, _ := valrange.Bounds[int64](r)
		return l[0], h[0], nil
	case datatype.PhysicalU8:
		l, h, _ := valrange.Bounds[uint8](r)
		return l[0], h[0], nil
	case datatype.PhysicalU16:
		l, h, _ := valrange.Bounds[uint16](r)
		return l[0], h[0], nil
	case datatype.PhysicalU32:
		l, h, _ := valrange.Bounds[uint32](r)
		return l[0], h[0], nil
	case datatype.PhysicalU64:
		l, h, _ := valrange.Bounds[uint64](r)
		return l[0], h[0], nil
	case datatype.PhysicalF32:
		l, h, _ := valrange.Bounds[float32](r)
		return l[0], h[0], nil
	case datatype.PhysicalF64:
		l, h, _ := valrange.Bounds[float64](r)
		return l[0], h[0], nil
	default:
		return nil, nil, fmt.Errorf("fakebackend: unreachable physical type in boundsBoxed")
	}
}

// rangeContains reports whether raw (encoded as dt) falls within r's bounds,
// inclusive.
func rangeContains(r valrange.Range, dt datatype.Datatype, raw []byte) (bool, error) {
	lo, hi, err := boundsBoxed(r)
	if err != nil {
		return false, err
	}
	v := asFloat64(decodeBoxed(dt, raw))
	return v >= asFloat64(lo) && v <= asFloat64(hi), nil
}

// lessRecord orders a, b by their dimension tuples in domain order
// (row-major), used to give read results a deterministic iteration order.
func lessRecord(domain schema.Domain, a, b record) bool {
	for i, dim := range domain.Dimensions {
		av := asFloat64(decodeBoxed(dim.Datatype, a.coords[i]))
		bv := asFloat64(decodeBoxed(dim.Datatype, b.coords[i]))
		if av != bv {
			return av < bv
		}
	}
	return false
}
