// Package enumeration implements Enumeration: a named, ordered-or-not
// vocabulary of fixed- or var-length values an Attribute may reference by
// name (spec.md section 4.3).
//
// Grounded on biopb's plain-struct-plus-methods style for the value type
// itself; New's validation rules follow
// tiledb/api/src/array/enumeration/serde.rs (original_source/). Content
// checksumming uses blainsmith.com/go/seahash (seahash.New()/Write/Sum64),
// grounded on cmd/bio-pamtool/checksum.go's identical usage, repurposed here
// to fingerprint an Enumeration's vocabulary for cheap equality checks
// without comparing the full byte buffer.
package enumeration

import (
	"encoding/binary"

	"blainsmith.com/go/seahash"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/tiledberr"
	"github.com/grailbio/tiledb/valrange"
)

// Enumeration is an immutable named vocabulary.
type Enumeration struct {
	Name        string
	Datatype    datatype.Datatype
	CellValNum  valrange.CellValNum
	Ordered     bool
	Data        []byte
	Offsets     []uint64 // nil unless CellValNum.IsVar()
}

// New validates and constructs an Enumeration.
//
//   - offsets must be present iff cellValNum is Var.
//   - the number of records (len(offsets)-1 for Var,
//     len(data)/(cell_val_num*size) for fixed) must not exceed
//     datatype.MaxEnumerationVariants(dt).
//   - for fixed cell_val_num, len(data) must be a multiple of dt.Size().
func New(name string, dt datatype.Datatype, cellValNum valrange.CellValNum, ordered bool, data []byte, offsets []uint64) (Enumeration, error) {
	if name == "" {
		return Enumeration{}, tiledberr.Invalid("enumeration name must not be empty")
	}
	if !datatype.IsAllowedAttributeTypeForEnumeration(dt) {
		return Enumeration{}, tiledberr.Incompatible("datatype " + dt.String() + " cannot back an enumeration (must be integral)")
	}

	isVar := cellValNum.IsVar()
	hasOffsets := offsets != nil
	if isVar != hasOffsets {
		return Enumeration{}, tiledberr.Invalid("offsets must be present iff cell_val_num = var")
	}

	var numRecords uint64
	if isVar {
		if len(offsets) == 0 {
			return Enumeration{}, tiledberr.Invalid("var enumeration requires at least one offset (N+1 convention)")
		}
		numRecords = uint64(len(offsets) - 1)
		last := offsets[len(offsets)-1]
		if last != uint64(len(data)) {
			return Enumeration{}, tiledberr.Invalid("last offset must equal len(data)")
		}
		for i := 1; i < len(offsets); i++ {
			if offsets[i] < offsets[i-1] {
				return Enumeration{}, tiledberr.Invalid("offsets must be non-decreasing")
			}
		}
	} else {
		size := dt.Size()
		if size == 0 || len(data)%size != 0 {
			return Enumeration{}, tiledberr.Invalid("enumeration data length must be a multiple of the datatype size")
		}
		n, _ := cellValNum.Value()
		cellSize := int(n) * size
		if cellSize == 0 || len(data)%cellSize != 0 {
			return Enumeration{}, tiledberr.Invalid("enumeration data length must be a multiple of cell_val_num * datatype size")
		}
		numRecords = uint64(len(data) / cellSize)
	}

	if max := datatype.MaxEnumerationVariants(dt); numRecords > max {
		return Enumeration{}, tiledberr.Invalid("enumeration variant count exceeds datatype.max_enumeration_variants()")
	}

	return Enumeration{
		Name:       name,
		Datatype:   dt,
		CellValNum: cellValNum,
		Ordered:    ordered,
		Data:       data,
		Offsets:    offsets,
	}, nil
}

// NumVariants is the number of distinct vocabulary entries.
func (e Enumeration) NumVariants() int {
	if e.CellValNum.IsVar() {
		return len(e.Offsets) - 1
	}
	n, _ := e.CellValNum.Value()
	size := e.Datatype.Size() * int(n)
	if size == 0 {
		return 0
	}
	return len(e.Data) / size
}

// Value returns the raw bytes of variant i.
func (e Enumeration) Value(i int) []byte {
	if e.CellValNum.IsVar() {
		return e.Data[e.Offsets[i]:e.Offsets[i+1]]
	}
	n, _ := e.CellValNum.Value()
	size := e.Datatype.Size() * int(n)
	return e.Data[i*size : (i+1)*size]
}

// Fingerprint is a content checksum over the vocabulary's shape and bytes,
// used to detect when two Enumeration values (e.g. across a Schema
// revision) carry identical content without a full byte comparison.
func (e Enumeration) Fingerprint() uint64 {
	h := seahash.New()
	_, _ = h.Write([]byte(e.Name))
	var hdr [10]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(e.Datatype))
	binary.LittleEndian.PutUint32(hdr[2:6], uint32(e.CellValNum))
	if e.Ordered {
		hdr[6] = 1
	}
	_, _ = h.Write(hdr[:])
	_, _ = h.Write(e.Data)
	for _, off := range e.Offsets {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], off)
		_, _ = h.Write(b[:])
	}
	return h.Sum64()
}
