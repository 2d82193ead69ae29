package fakebackend

import (
	"fmt"
	"sort"

	"github.com/grailbio/tiledb/abi"
)

// Query implements abi.Query against one Array handle. Read queries compute
// their full result set on the first Submit call, then page it out across
// however many Submit calls it takes for every attached buffer to drain it
// -- the incomplete/BuffersTooSmall protocol of spec.md section 4.8.
type Query struct {
	array  *Array
	mode   abi.QueryType
	layout abi.Layout
	cfg    abi.ConfigBackend

	dataBufs     map[string]abi.Buffer
	offsetsBufs  map[string]abi.Buffer
	validityBufs map[string]abi.Buffer

	subarray  *Subarray
	condition *conditionNode

	pendingWrites []record

	resultSet      []record
	resultComputed bool
	cursor         int

	status abi.QueryStatus
}

// NewQuery begins a Query against array in mode.
func NewQuery(array *Array, mode abi.QueryType) *Query {
	return &Query{
		array:        array,
		mode:         mode,
		dataBufs:     make(map[string]abi.Buffer),
		offsetsBufs:  make(map[string]abi.Buffer),
		validityBufs: make(map[string]abi.Buffer),
		status:       abi.StatusUninitialized,
	}
}

func (q *Query) SetConfig(cfg abi.ConfigBackend) error { q.cfg = cfg; return nil }

func (q *Query) SetLayout(layout abi.Layout) error { q.layout = layout; return nil }

func (q *Query) SetSubarray(sa abi.Subarray) error {
	s, ok := sa.(*Subarray)
	if !ok {
		return fmt.Errorf("fakebackend: SetSubarray given a handle not produced by this package")
	}
	q.subarray = s
	return nil
}

func (q *Query) SetCondition(cond abi.ConditionHandle) error {
	c, ok := cond.(*conditionNode)
	if !ok {
		return fmt.Errorf("fakebackend: SetCondition given a handle not produced by this package")
	}
	q.condition = c
	return nil
}

func (q *Query) SetDataBuffer(field string, buf abi.Buffer) error {
	q.dataBufs[field] = buf
	return nil
}

func (q *Query) SetOffsetsBuffer(field string, buf abi.Buffer) error {
	q.offsetsBufs[field] = buf
	return nil
}

func (q *Query) SetValidityBuffer(field string, buf abi.Buffer) error {
	q.validityBufs[field] = buf
	return nil
}

func (q *Query) GetStatus() abi.QueryStatus { return q.status }

// Submit executes one step of the write or read protocol, depending on the
// mode the Query was opened with.
func (q *Query) Submit() (abi.QueryStatus, error) {
	if q.mode == abi.QueryWrite {
		return q.submitWrite()
	}
	return q.submitRead()
}

func (q *Query) submitWrite() (abi.QueryStatus, error) {
	if len(q.offsetsBufs) != 0 {
		return abi.StatusFailed, fmt.Errorf("fakebackend: var-length write fields are not supported")
	}

	var n int
	haveCount := false
	fieldSize := make(map[string]int, len(q.dataBufs))
	for name, buf := range q.dataBufs {
		meta, err := lookupField(q.array.schema, name)
		if err != nil {
			return abi.StatusFailed, err
		}
		size, err := meta.elementSize()
		if err != nil {
			return abi.StatusFailed, err
		}
		fieldSize[name] = size
		count := *buf.Length / size
		if !haveCount {
			n, haveCount = count, true
		} else if count != n {
			return abi.StatusFailed, fmt.Errorf("fakebackend: field %q wrote %d records, expected %d", name, count, n)
		}
	}

	dims := q.array.schema.Domain.Dimensions
	batch := make([]record, n)
	for i := 0; i < n; i++ {
		rec := record{
			coords: make([][]byte, len(dims)),
			attrs:  make(map[string][]byte),
			valid:  make(map[string]bool),
		}
		for d, dim := range dims {
			buf, ok := q.dataBufs[dim.Name]
			if !ok {
				return abi.StatusFailed, fmt.Errorf("fakebackend: dimension %q has no attached data buffer", dim.Name)
			}
			size := fieldSize[dim.Name]
			rec.coords[d] = append([]byte(nil), buf.Bytes[i*size:(i+1)*size]...)
		}
		for _, attr := range q.array.schema.Attributes {
			buf, ok := q.dataBufs[attr.Name]
			if !ok {
				continue
			}
			size := fieldSize[attr.Name]
			rec.attrs[attr.Name] = append([]byte(nil), buf.Bytes[i*size:(i+1)*size]...)
			if attr.Nullable {
				valid := true
				if vbuf, ok := q.validityBufs[attr.Name]; ok {
					valid = vbuf.Bytes[i] != 0
				}
				rec.valid[attr.Name] = valid
			}
		}
		batch[i] = rec
	}

	q.pendingWrites = append(q.pendingWrites, batch...)
	q.status = abi.StatusCompleted
	return q.status, nil
}

// Finalize commits pendingWrites (for a write Query) as a new fragment.
// Read Queries have nothing to flush.
func (q *Query) Finalize() error {
	if q.mode != abi.QueryWrite {
		return nil
	}
	data := q.array.data
	data.mu.Lock()
	defer data.mu.Unlock()
	ts := data.nextTs
	data.nextTs++
	data.fragments = append(data.fragments, fragment{records: q.pendingWrites, tsStart: ts, tsEnd: ts})
	q.pendingWrites = nil
	return nil
}

func (q *Query) submitRead() (abi.QueryStatus, error) {
	if !q.resultComputed {
		if err := q.computeResultSet(); err != nil {
			q.status = abi.StatusFailed
			return q.status, err
		}
		q.resultComputed = true
	}

	remaining := len(q.resultSet) - q.cursor
	fit, err := q.fitCount()
	if err != nil {
		q.status = abi.StatusFailed
		return q.status, err
	}
	n := fit
	if remaining < n {
		n = remaining
	}

	if err := q.encodeInto(q.resultSet[q.cursor : q.cursor+n]); err != nil {
		q.status = abi.StatusFailed
		return q.status, err
	}
	q.cursor += n

	if q.cursor >= len(q.resultSet) {
		q.status = abi.StatusCompleted
	} else {
		q.status = abi.StatusIncomplete
	}
	return q.status, nil
}

// computeResultSet filters every visible record through the attached
// subarray and query condition, then sorts the survivors into deterministic
// dimension order.
func (q *Query) computeResultSet() error {
	dims := q.array.schema.Domain.Dimensions
	var out []record
	for _, f := range q.array.visible {
	recordLoop:
		for _, rec := range f.records {
			if q.subarray != nil {
				for i, dim := range dims {
					ok, err := q.subarray.matches(i, dim.Datatype, rec.coords[i])
					if err != nil {
						return err
					}
					if !ok {
						continue recordLoop
					}
				}
			}
			if q.condition != nil {
				ok, err := q.condition.evaluate(rec)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessRecord(q.array.schema.Domain, out[i], out[j]) })
	q.resultSet = out
	return nil
}

// fitCount is the largest number of records every attached data and
// validity buffer has room for, given the capacities BeginSubmit bound
// through each Length pointer. Offsets buffers are not consulted.
func (q *Query) fitCount() (int, error) {
	fit := -1
	consider := func(n int) {
		if fit == -1 || n < fit {
			fit = n
		}
	}
	for name, buf := range q.dataBufs {
		meta, err := lookupField(q.array.schema, name)
		if err != nil {
			return 0, err
		}
		size, err := meta.elementSize()
		if err != nil {
			return 0, err
		}
		consider(*buf.Length / size)
	}
	for _, buf := range q.validityBufs {
		consider(*buf.Length)
	}
	if fit == -1 {
		return 0, fmt.Errorf("fakebackend: no data buffers attached")
	}
	return fit, nil
}

// encodeInto copies recs into every attached buffer and writes back each
// buffer's actual filled length.
func (q *Query) encodeInto(recs []record) error {
	dims := q.array.schema.Domain.Dimensions
	for d, dim := range dims {
		buf, ok := q.dataBufs[dim.Name]
		if !ok {
			continue
		}
		meta, _ := lookupField(q.array.schema, dim.Name)
		size, _ := meta.elementSize()
		for i, rec := range recs {
			copy(buf.Bytes[i*size:(i+1)*size], rec.coords[d])
		}
		*buf.Length = len(recs) * size
	}
	for _, attr := range q.array.schema.Attributes {
		buf, ok := q.dataBufs[attr.Name]
		if !ok {
			continue
		}
		meta, _ := lookupField(q.array.schema, attr.Name)
		size, _ := meta.elementSize()
		for i, rec := range recs {
			copy(buf.Bytes[i*size:(i+1)*size], rec.attrs[attr.Name])
		}
		*buf.Length = len(recs) * size

		if vbuf, ok := q.validityBufs[attr.Name]; ok {
			for i, rec := range recs {
				b := byte(0)
				if rec.valid[attr.Name] {
					b = 1
				}
				vbuf.Bytes[i] = b
			}
			*vbuf.Length = len(recs)
		}
	}
	return nil
}
