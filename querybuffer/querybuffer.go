package querybuffer

import (
	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/tiledberr"
	"github.com/grailbio/tiledb/valrange"
)

// minScratchCapacity is the capacity a zero-capacity Owned part grows to
// when doubled, and the minimum offsets/validity capacity Allocate uses when
// it derives the record count itself (Policy.RecordCapacity == 0).
const minScratchCapacity = 4096

// DefaultDataCapacityBytes is the scratch allocator's default initial data
// capacity, ~10 MiB (spec.md section 4.5).
const DefaultDataCapacityBytes = 10 << 20

// QueryBuffer is the typed data/offsets/validity triple bound to one field
// of a Query (spec.md section 4.5).
type QueryBuffer struct {
	Field      string
	Datatype   datatype.Datatype
	CellValNum valrange.CellValNum
	Nullable   bool

	Data     Part
	Offsets  *Part // non-nil iff CellValNum.IsVar()
	Validity *Part // non-nil iff Nullable
}

// Policy is a named scratch allocation policy for one field (spec.md
// section 4.5).
type Policy struct {
	CellValNum valrange.CellValNum
	// RecordCapacity is the number of records to size the initial buffers
	// for. Zero means "derive from DefaultDataCapacityBytes".
	RecordCapacity uint64
	Nullable       bool
}

// Allocate builds a QueryBuffer with Owned scratch parts sized per policy:
// ~10 MiB of data by default (or policy.RecordCapacity records' worth), with
// proportional offsets/validity capacity.
func Allocate(field string, dt datatype.Datatype, policy Policy) QueryBuffer {
	size := dt.Size()
	if size == 0 {
		size = 1
	}

	var dataCap int
	var numRecords uint64
	if policy.RecordCapacity > 0 {
		numRecords = policy.RecordCapacity
		if n, ok := policy.CellValNum.Value(); ok {
			dataCap = int(numRecords) * int(n) * size
		} else {
			// Var: record capacity bounds the offsets array; data capacity
			// still defaults, since the average record length is unknown
			// until the first submit.
			dataCap = DefaultDataCapacityBytes
		}
	} else {
		dataCap = DefaultDataCapacityBytes
		if n, ok := policy.CellValNum.Value(); ok && n > 0 {
			numRecords = uint64(dataCap / (int(n) * size))
		}
	}

	qb := QueryBuffer{
		Field:      field,
		Datatype:   dt,
		CellValNum: policy.CellValNum,
		Nullable:   policy.Nullable,
		Data:       NewOwnedPart(dataCap),
	}
	if policy.CellValNum.IsVar() {
		offsetsCap := int(numRecords+1) * 8
		if policy.RecordCapacity == 0 && offsetsCap < minScratchCapacity {
			offsetsCap = minScratchCapacity
		}
		offsets := NewOwnedPart(offsetsCap)
		qb.Offsets = &offsets
	}
	if policy.Nullable {
		validityCap := int(numRecords)
		if policy.RecordCapacity == 0 && validityCap < minScratchCapacity {
			validityCap = minScratchCapacity
		}
		validity := NewOwnedPart(validityCap)
		qb.Validity = &validity
	}
	return qb
}

// parts returns every non-nil part of qb, Data first.
func (qb *QueryBuffer) parts() []*Part {
	out := []*Part{&qb.Data}
	if qb.Offsets != nil {
		out = append(out, qb.Offsets)
	}
	if qb.Validity != nil {
		out = append(out, qb.Validity)
	}
	return out
}

// BeginSubmit transitions every attached part into the engine's exclusive
// borrow for the duration of one submit call (spec.md section 4.5 step 1).
func (qb *QueryBuffer) BeginSubmit() {
	for _, p := range qb.parts() {
		p.beginSubmit()
	}
}

// EndSubmit releases the exclusive borrow, recording each part's actual
// written length.
func (qb *QueryBuffer) EndSubmit(dataLen int, offsetsLen, validityLen *int) error {
	if err := qb.Data.endSubmit(dataLen); err != nil {
		return err
	}
	if qb.Offsets != nil {
		if offsetsLen == nil {
			return tiledberr.Buffers("field " + qb.Field + ": var cell_val_num requires an offsets length")
		}
		if err := qb.Offsets.endSubmit(*offsetsLen); err != nil {
			return err
		}
	}
	if qb.Validity != nil {
		if validityLen == nil {
			return tiledberr.Buffers("field " + qb.Field + ": nullable field requires a validity length")
		}
		if err := qb.Validity.endSubmit(*validityLen); err != nil {
			return err
		}
	}
	return nil
}

// AllLengthsZero reports whether every attached part's Length is zero --
// the BuffersTooSmall signal of spec.md section 4.8.
func (qb *QueryBuffer) AllLengthsZero() bool {
	for _, p := range qb.parts() {
		if p.Length != 0 {
			return false
		}
	}
	return true
}

// Double grows every Owned part to (at least) twice its capacity. Borrowed
// parts are left untouched -- spec.md section 4.5: "borrowed buffers
// require caller action".
func (qb *QueryBuffer) Double() {
	for _, p := range qb.parts() {
		p.double()
	}
}

// Validate checks the Offsets/Validity presence invariants of spec.md
// section 4.5 (offsets iff var, validity iff nullable).
func (qb *QueryBuffer) Validate() error {
	if qb.CellValNum.IsVar() != (qb.Offsets != nil) {
		return tiledberr.Buffers("field " + qb.Field + ": offsets buffer must be present iff cell_val_num = var")
	}
	if qb.Nullable != (qb.Validity != nil) {
		return tiledberr.Buffers("field " + qb.Field + ": validity buffer must be present iff nullable")
	}
	return nil
}

// NumRecords translates Data's filled length into a record count, using the
// offsets buffer for Var fields or cell_val_num for fixed fields (spec.md
// section 4.5: "the caller must translate to records via the offset buffer
// or the cell-val-num").
func (qb *QueryBuffer) NumRecords() (int, error) {
	if qb.CellValNum.IsVar() {
		if qb.Offsets == nil {
			return 0, tiledberr.Buffers("field " + qb.Field + ": var field missing offsets buffer")
		}
		// N+1 element-count offsets (spec.md section 6): record count is
		// one less than the number of 8-byte offset elements filled.
		n := qb.Offsets.Length / 8
		if n == 0 {
			return 0, nil
		}
		return n - 1, nil
	}
	n, _ := qb.CellValNum.Value()
	size := qb.Datatype.Size() * int(n)
	if size == 0 {
		return 0, tiledberr.Bug("field " + qb.Field + ": zero-size cell")
	}
	return qb.Data.Length / size, nil
}
