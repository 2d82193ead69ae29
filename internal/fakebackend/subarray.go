package fakebackend

import (
	"fmt"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/schema"
	"github.com/grailbio/tiledb/valrange"
)

// Subarray implements abi.Subarray: a per-dimension-index set of attached
// ranges, boxed back into typed valrange.Ranges as they arrive.
type Subarray struct {
	domain    schema.Domain
	ranges    map[int][]valrange.Range
	varRanges map[int][][2][]byte // stored for interface completeness; unused by Submit's filtering, since every spec.md section 8 scenario restricts a fixed-size dimension
}

// NewSubarray constructs an empty Subarray over domain.
func NewSubarray(domain schema.Domain) *Subarray {
	return &Subarray{domain: domain, ranges: make(map[int][]valrange.Range), varRanges: make(map[int][][2][]byte)}
}

func boxRange(dt datatype.Datatype, lo, hi interface{}) (valrange.Range, error) {
	switch datatype.PhysicalTypeOf(dt) {
	case datatype.PhysicalI8:
		return valrange.NewSingle(lo.(int8), hi.(int8)), nil
	case datatype.PhysicalI16:
		return valrange.NewSingle(lo.(int16), hi.(int16)), nil
	case datatype.PhysicalI32:
		return valrange.NewSingle(lo.(int32), hi.(int32)), nil
	case datatype.PhysicalI64:
		return valrange.NewSingle(lo.(int64), hi.(int64)), nil
	case datatype.PhysicalU8:
		return valrange.NewSingle(lo.(uint8), hi.(uint8)), nil
	case datatype.PhysicalU16:
		return valrange.NewSingle(lo.(uint16), hi.(uint16)), nil
	case datatype.PhysicalU32:
		return valrange.NewSingle(lo.(uint32), hi.(uint32)), nil
	case datatype.PhysicalU64:
		return valrange.NewSingle(lo.(uint64), hi.(uint64)), nil
	case datatype.PhysicalF32:
		return valrange.NewSingle(lo.(float32), hi.(float32)), nil
	case datatype.PhysicalF64:
		return valrange.NewSingle(lo.(float64), hi.(float64)), nil
	default:
		return valrange.Range{}, fmt.Errorf("fakebackend: unreachable physical type in boxRange")
	}
}

// AddRangeByIndex attaches the fixed-size range [lo, hi] to the dimension at
// position dim.
func (s *Subarray) AddRangeByIndex(dim int, lo, hi interface{}) error {
	if dim < 0 || dim >= len(s.domain.Dimensions) {
		return fmt.Errorf("fakebackend: dimension index %d out of range", dim)
	}
	r, err := boxRange(s.domain.Dimensions[dim].Datatype, lo, hi)
	if err != nil {
		return err
	}
	s.ranges[dim] = append(s.ranges[dim], r)
	return nil
}

// AddRangeByName resolves name to a dimension index and delegates to
// AddRangeByIndex.
func (s *Subarray) AddRangeByName(name string, lo, hi interface{}) error {
	i, err := dimIndexByName(s.domain, name)
	if err != nil {
		return err
	}
	return s.AddRangeByIndex(i, lo, hi)
}

// AddVarRangeByIndex records a variable-length range for dim. Not consulted
// by Query's filtering path (see the package doc's scope note).
func (s *Subarray) AddVarRangeByIndex(dim int, lo, hi []byte) error {
	if dim < 0 || dim >= len(s.domain.Dimensions) {
		return fmt.Errorf("fakebackend: dimension index %d out of range", dim)
	}
	s.varRanges[dim] = append(s.varRanges[dim], [2][]byte{lo, hi})
	return nil
}

// AddVarRangeByName resolves name to a dimension index and delegates to
// AddVarRangeByIndex.
func (s *Subarray) AddVarRangeByName(name string, lo, hi []byte) error {
	i, err := dimIndexByName(s.domain, name)
	if err != nil {
		return err
	}
	return s.AddVarRangeByIndex(i, lo, hi)
}

// matches reports whether raw (dimension dim's coordinate, encoded as dt)
// falls inside any range attached to dim. An unrestricted dimension (no
// ranges attached) matches everything.
func (s *Subarray) matches(dim int, dt datatype.Datatype, raw []byte) (bool, error) {
	ranges := s.ranges[dim]
	if len(ranges) == 0 {
		return true, nil
	}
	for _, r := range ranges {
		ok, err := rangeContains(r, dt, raw)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
