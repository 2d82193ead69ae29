package query

import (
	"v.io/x/lib/vlog"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/tiledb/abi"
	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/querybuffer"
	"github.com/grailbio/tiledb/querycondition"
	"github.com/grailbio/tiledb/subarray"
	"github.com/grailbio/tiledb/tiledberr"
	"github.com/grailbio/tiledb/valrange"
)

// State is the Query lifecycle state of spec.md section 4.8:
// Uninitialized -> Initialized -> InProgress -> {Completed, Incomplete,
// Failed}.
type State uint8

const (
	Uninitialized State = iota
	Initialized
	InProgress
	Completed
	Incomplete
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	case Incomplete:
		return "incomplete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// BuffersTooSmall is returned by Submit instead of Incomplete when every
// attached buffer came back with zero filled length -- distinct from
// Incomplete so callers can reallocate unconditionally (spec.md section
// 4.8).
var BuffersTooSmall = tiledberr.Buffers("incomplete submit returned zero bytes in every buffer; grow and resubmit")

// QueryBuilder accumulates a Query's configuration before Build commits it,
// following the teacher's move-consuming option-accumulation pattern
// (pamwriter.go's NewWriter).
type QueryBuilder struct {
	array   *Array
	backend abi.Query
	layout  abi.Layout
	cfg     *Config
	subarr  *subarray.Subarray
	abiSubarr abi.Subarray
	cond    querycondition.Expr
	condCtx abi.QueryCondition
	fields  map[string]*querybuffer.QueryBuffer
}

// NewQueryBuilder begins building a Query against array, driven by backend.
func NewQueryBuilder(array *Array, backend abi.Query) *QueryBuilder {
	return &QueryBuilder{
		array:   array,
		backend: backend,
		fields:  make(map[string]*querybuffer.QueryBuffer),
	}
}

// WithLayout sets the cell iteration order.
func (b *QueryBuilder) WithLayout(l abi.Layout) *QueryBuilder {
	b.layout = l
	return b
}

// WithConfig attaches cfg, freezing it per spec.md section 5 ("Config
// objects are immutable once attached to a Query").
func (b *QueryBuilder) WithConfig(cfg *Config) *QueryBuilder {
	cfg.Freeze()
	b.cfg = cfg
	return b
}

// WithSubarray attaches sa, restricting the query's coordinate space.
// abiSubarr is the backend-side subarray handle the ranges are pushed into
// via abi.Subarray.AddRange{ByIndex,Var...} before the Query's
// SetSubarray call (spec.md section 6: Subarray is alloc'd and populated,
// then bound to the Query).
func (b *QueryBuilder) WithSubarray(sa *subarray.Subarray, abiSubarr abi.Subarray) *QueryBuilder {
	b.subarr = sa
	b.abiSubarr = abiSubarr
	return b
}

// WithCondition attaches a QueryCondition AST, lowered against condCtx at
// Build time.
func (b *QueryBuilder) WithCondition(condCtx abi.QueryCondition, expr querycondition.Expr) *QueryBuilder {
	b.condCtx = condCtx
	b.cond = expr
	return b
}

// WithField attaches a QueryBuffer for one field.
func (b *QueryBuilder) WithField(field string, qb *querybuffer.QueryBuffer) *QueryBuilder {
	b.fields[field] = qb
	return b
}

// Build validates and commits the accumulated configuration into a Query in
// state Initialized.
func (b *QueryBuilder) Build() (*Query, error) {
	if len(b.fields) == 0 {
		return nil, tiledberr.Invalid("query: at least one field buffer must be attached")
	}
	for _, qb := range b.fields {
		if err := qb.Validate(); err != nil {
			return nil, err
		}
	}

	if b.cfg != nil {
		if err := b.backend.SetConfig(b.cfg); err != nil {
			return nil, tiledberr.FromBackend(err.Error())
		}
	}
	if err := b.backend.SetLayout(b.layout); err != nil {
		return nil, tiledberr.FromBackend(err.Error())
	}
	if b.subarr != nil {
		if err := pushRanges(b.subarr, b.abiSubarr); err != nil {
			return nil, err
		}
		if err := b.backend.SetSubarray(b.abiSubarr); err != nil {
			return nil, tiledberr.FromBackend(err.Error())
		}
	}
	if b.cond != nil {
		handle, err := querycondition.Build(b.condCtx, b.cond)
		if err != nil {
			return nil, err
		}
		if err := b.backend.SetCondition(handle); err != nil {
			return nil, tiledberr.FromBackend(err.Error())
		}
	}

	return &Query{
		array:   b.array,
		backend: b.backend,
		fields:  b.fields,
		state:   Initialized,
	}, nil
}

// pushRanges replays every range attached to sa into abiSa via
// AddRange{ByIndex,Var...}, boxing each Range's bounds by physical type
// (spec.md section 6: "Subarray: alloc/free, add_range (by index/name,
// fixed/var)").
func pushRanges(sa *subarray.Subarray, abiSa abi.Subarray) error {
	for i := 0; i < sa.NumDimensions(); i++ {
		ranges, err := sa.Ranges(i)
		if err != nil {
			return err
		}
		for _, r := range ranges {
			if r.Shape() == valrange.Var {
				lo, hi, ok := valrange.Bounds[uint8](r)
				if !ok {
					return tiledberr.Bug("query: var range is not physical type u8")
				}
				if err := abiSa.AddVarRangeByIndex(i, lo, hi); err != nil {
					return tiledberr.FromBackend(err.Error())
				}
				continue
			}
			lo, hi, err := boxSingleBounds(r)
			if err != nil {
				return err
			}
			if err := abiSa.AddRangeByIndex(i, lo, hi); err != nil {
				return tiledberr.FromBackend(err.Error())
			}
		}
	}
	return nil
}

// boxSingleBounds extracts r's Single-shape bounds as a boxed interface{},
// dispatching on physical type via datatype.PhysicalType.
func boxSingleBounds(r valrange.Range) (lo, hi interface{}, err error) {
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
		return nil, nil, tiledberr.Bug("query: unreachable physical type in boxSingleBounds")
	}
}

// Query is one alloc/submit/finalize lifecycle (spec.md section 4.8).
type Query struct {
	array   *Array
	backend abi.Query
	fields  map[string]*querybuffer.QueryBuffer
	state   State
}

// State reports the current lifecycle state.
func (q *Query) State() State { return q.state }

// Submit executes one submit call, implementing the four-step protocol of
// spec.md section 4.8: rebind every buffer, call submit, read back written
// lengths, translate the backend status.
func (q *Query) Submit() (State, error) {
	if q.state == Completed || q.state == Failed {
		return q.state, tiledberr.Invalid("query: submit called after a terminal state")
	}

	// lengths holds the in/out length cells the backend reads and writes
	// through, one set per bound field -- these, not the QueryBuffer's own
	// fields, are what SetDataBuffer/SetOffsetsBuffer/SetValidityBuffer
	// bind by pointer, so the backend's writeback lands somewhere this
	// loop can read back after Submit returns. Rebinding is independent
	// per field, so it fans out with traverse.Each the way pamwriter.go's
	// Close() fans out its per-field Close calls; every field's error is
	// passed to an errors.Once, the way mark_duplicates.go's per-shard
	// goroutines each call e.Set(...) into one shared accumulator. The Once
	// keeps the first error set and drops the rest.
	type boundLengths struct {
		data, offsets, validity *int
	}
	names := make([]string, 0, len(q.fields))
	for field := range q.fields {
		names = append(names, field)
	}
	lengths := make([]boundLengths, len(names))

	var rebindErr errors.Once
	traverse.Each(len(names), func(i int) error { // nolint: errcheck
		field, qb := names[i], q.fields[names[i]]
		qb.BeginSubmit()
		dataLen := qb.Data.Length
		bl := boundLengths{data: &dataLen}
		if err := q.backend.SetDataBuffer(field, abi.Buffer{Bytes: qb.Data.Bytes, Length: bl.data}); err != nil {
			rebindErr.Set(tiledberr.FromBackend(err.Error()))
		}
		if qb.Offsets != nil {
			offsetsLen := qb.Offsets.Length
			bl.offsets = &offsetsLen
			if err := q.backend.SetOffsetsBuffer(field, abi.Buffer{Bytes: qb.Offsets.Bytes, Length: bl.offsets}); err != nil {
				rebindErr.Set(tiledberr.FromBackend(err.Error()))
			}
		}
		if qb.Validity != nil {
			validityLen := qb.Validity.Length
			bl.validity = &validityLen
			if err := q.backend.SetValidityBuffer(field, abi.Buffer{Bytes: qb.Validity.Bytes, Length: bl.validity}); err != nil {
				rebindErr.Set(tiledberr.FromBackend(err.Error()))
			}
		}
		lengths[i] = bl
		return nil
	})
	if err := rebindErr.Err(); err != nil {
		q.state = Failed
		return Failed, err
	}

	q.state = InProgress
	status, err := q.backend.Submit()
	if err != nil {
		q.state = Failed
		return Failed, tiledberr.FromBackend(err.Error())
	}

	var endErr errors.Once
	traverse.Each(len(names), func(i int) error { // nolint: errcheck
		bl := lengths[i]
		endErr.Set(q.fields[names[i]].EndSubmit(*bl.data, bl.offsets, bl.validity))
		return nil
	})
	if err := endErr.Err(); err != nil {
		q.state = Failed
		return Failed, err
	}

	switch status {
	case abi.StatusCompleted:
		q.state = Completed
		return Completed, nil
	case abi.StatusFailed:
		q.state = Failed
		cause := q.array.ctx.LastError()
		if cause == nil {
			cause = tiledberr.Bug("query: backend reported Failed with no last-error set")
		}
		return Failed, tiledberr.FromBackend(cause.Error())
	case abi.StatusIncomplete:
		allZero := true
		for _, qb := range q.fields {
			if !qb.AllLengthsZero() {
				allZero = false
				break
			}
		}
		if allZero {
			q.state = Incomplete
			for field, qb := range q.fields {
				before := qb.Data.Capacity()
				qb.Double()
				vlog.VI(1).Infof("query: field %q buffer too small, growing %d -> %d bytes", field, before, qb.Data.Capacity())
			}
			return Incomplete, BuffersTooSmall
		}
		q.state = Incomplete
		return Incomplete, nil
	default:
		q.state = Failed
		return Failed, tiledberr.Bug("query: submit returned an unclassifiable status")
	}
}

// Finalize commits a write Query's buffers as a new fragment. Write
// submits always go straight to Completed or Failed (spec.md section 4.8).
func (q *Query) Finalize() error {
	if err := q.backend.Finalize(); err != nil {
		q.state = Failed
		return tiledberr.FromBackend(err.Error())
	}
	q.state = Completed
	return nil
}

// Field returns the QueryBuffer attached to field, or nil if none.
func (q *Query) Field(field string) *querybuffer.QueryBuffer {
	return q.fields[field]
}
