package querybuffer

import (
	"math"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/tiledberr"
)

// Aggregate is a post-read reduction computable over a filled QueryBuffer
// without a round trip to the backend (SPEC_FULL.md SUPPLEMENTED FEATURES).
type Aggregate uint8

const (
	AggregateSum Aggregate = iota
	AggregateMin
	AggregateMax
	AggregateNullCount
)

// Compute reduces qb's filled data according to agg.
//
// Sum/Min/Max over an empty (zero-record) buffer return the identity for an
// absent value -- zero for Sum, and an error for Min/Max, since there is no
// datatype-independent sentinel to stand in for "no minimum" (documented
// empty-input quirk, per the Open Question decision in SPEC_FULL.md).
//
// NullCount requires a fixed-size, non-dimension field with a Validity
// part; a var-length or dimension field without validity tracking surfaces
// as a Backend-kind error, matching the native engine's own restriction.
func (qb *QueryBuffer) Compute(agg Aggregate) (float64, error) {
	if agg == AggregateNullCount {
		return qb.nullCount()
	}

	n, err := qb.NumRecords()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if agg == AggregateSum {
			return 0, nil
		}
		return 0, tiledberr.E(tiledberr.Internal, "aggregate over zero records has no "+aggName(agg))
	}

	values, err := qb.floatValues(n)
	if err != nil {
		return 0, err
	}

	switch agg {
	case AggregateSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum, nil
	case AggregateMin:
		m := math.Inf(1)
		for _, v := range values {
			if v < m {
				m = v
			}
		}
		return m, nil
	case AggregateMax:
		m := math.Inf(-1)
		for _, v := range values {
			if v > m {
				m = v
			}
		}
		return m, nil
	default:
		return 0, tiledberr.Bug("unknown aggregate kind")
	}
}

func aggName(agg Aggregate) string {
	switch agg {
	case AggregateSum:
		return "sum"
	case AggregateMin:
		return "minimum"
	case AggregateMax:
		return "maximum"
	default:
		return "aggregate"
	}
}

func (qb *QueryBuffer) nullCount() (float64, error) {
	if qb.CellValNum.IsVar() {
		return 0, tiledberr.FromBackend("null_count is not supported on var-length fields")
	}
	if qb.Validity == nil {
		return 0, tiledberr.FromBackend("null_count requires a nullable field")
	}
	var count float64
	for _, b := range qb.Validity.Bytes[:qb.Validity.Length] {
		if b == 0 {
			count++
		}
	}
	return count, nil
}

// floatValues widens qb's n fixed-size physical cells to float64 via
// datatype's closed dispatch, so Sum/Min/Max share one code path regardless
// of the field's concrete numeric type.
func (qb *QueryBuffer) floatValues(n int) ([]float64, error) {
	if qb.CellValNum.IsVar() {
		return nil, tiledberr.FromBackend("sum/min/max aggregates are not supported on var-length fields")
	}
	cvn, _ := qb.CellValNum.Value()
	if cvn != 1 {
		return nil, tiledberr.FromBackend("sum/min/max aggregates require cell_val_num = 1")
	}
	pt := datatype.PhysicalTypeOf(qb.Datatype)
	size := pt.Size()
	data := qb.Data.Bytes
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		off := i * size
		cell := data[off : off+size]
		v, err := widenToFloat64(pt, cell)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func widenToFloat64(pt datatype.PhysicalType, cell []byte) (float64, error) {
	switch pt {
	case datatype.PhysicalI8:
		return float64(int8(cell[0])), nil
	case datatype.PhysicalU8:
		return float64(cell[0]), nil
	case datatype.PhysicalI16:
		return float64(int16(le16(cell))), nil
	case datatype.PhysicalU16:
		return float64(le16(cell)), nil
	case datatype.PhysicalI32:
		return float64(int32(le32(cell))), nil
	case datatype.PhysicalU32:
		return float64(le32(cell)), nil
	case datatype.PhysicalI64:
		return float64(int64(le64(cell))), nil
	case datatype.PhysicalU64:
		return float64(le64(cell)), nil
	case datatype.PhysicalF32:
		return float64(math.Float32frombits(le32(cell))), nil
	case datatype.PhysicalF64:
		return math.Float64frombits(le64(cell)), nil
	default:
		return 0, tiledberr.FromBackend("sum/min/max aggregates are not supported on this physical type")
	}
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
