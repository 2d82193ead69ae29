// Package fakebackend is an in-memory reference implementation of the
// abi.Array/abi.Query/abi.Subarray/abi.QueryCondition interfaces (spec.md
// section 6), used only by this repo's own tests to drive the core end to
// end without a real fragment store, compression codec, or network
// transport -- all of which spec.md section 1 scopes out of the core.
//
// Scope: fixed cell_val_num fields only (no var-length data/offsets
// buffers). Every scenario in spec.md section 8's TESTABLE PROPERTIES is
// fixed-size, so this limitation never bites the properties this package
// exists to exercise; see DESIGN.md for the record.
//
// Test-only: never imported from non-test code.
package fakebackend

import (
	"fmt"
	"sync"

	"v.io/x/lib/vlog"

	"github.com/grailbio/tiledb/abi"
	"github.com/grailbio/tiledb/schema"
)

// fragment is one committed batch of records, stamped with the timestamp
// range its Finalize call ran in (spec.md section 5: "fragment timestamps
// ... define a total order").
type fragment struct {
	records        []record
	tsStart, tsEnd uint64
}

// arrayData is the registry-resident state behind one array path: schema
// plus every committed fragment. Shared across every Array handle opened
// against the same path, the way a real backend's on-disk fragments are
// shared across process-local handles.
type arrayData struct {
	mu        sync.Mutex
	schema    schema.Schema
	fragments []fragment
	nextTs    uint64
}

var registry = struct {
	mu     sync.Mutex
	arrays map[string]*arrayData
}{arrays: make(map[string]*arrayData)}

// Array implements abi.Array over the package-level in-memory registry.
type Array struct {
	schema  schema.Schema
	path    string
	mode    abi.QueryType
	data    *arrayData
	visible []fragment
}

// NewArray constructs a handle carrying s, not yet bound to any path.
func NewArray(s schema.Schema) *Array {
	return &Array{schema: s}
}

// Create registers a new, empty array at path. Create on an already-
// existing path is rejected, matching the real backend's refusal to
// silently overwrite a schema.
func (a *Array) Create(path string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.arrays[path]; exists {
		return fmt.Errorf("fakebackend: array already exists at %q", path)
	}
	registry.arrays[path] = &arrayData{schema: a.schema}
	return nil
}

// Open binds a to the array registered at path, restricted to fragments
// whose timestamp range intersects ts (the whole history if ts is nil).
func (a *Array) Open(path string, mode abi.QueryType, ts *abi.TimestampRange) error {
	registry.mu.Lock()
	data, ok := registry.arrays[path]
	registry.mu.Unlock()
	if !ok {
		return fmt.Errorf("fakebackend: no array registered at %q", path)
	}

	data.mu.Lock()
	defer data.mu.Unlock()
	var visible []fragment
	for _, f := range data.fragments {
		if ts != nil && (f.tsEnd < ts.Start || f.tsStart > ts.End) {
			vlog.VI(1).Infof("fakebackend: %s: excluding fragment [%d,%d] outside open range %+v", path, f.tsStart, f.tsEnd, *ts)
			continue
		}
		visible = append(visible, f)
	}
	if ts != nil {
		vlog.VI(1).Infof("fakebackend: %s: opened with %d/%d fragments visible in range %+v", path, len(visible), len(data.fragments), *ts)
	}

	a.path = path
	a.data = data
	a.mode = mode
	a.visible = visible
	a.schema = data.schema
	return nil
}

// Close releases the handle. Fragments committed through Finalize already
// landed in the registry, so Close itself has nothing to flush.
func (a *Array) Close() error {
	a.visible = nil
	a.data = nil
	return nil
}

// NonEmptyDomain reports the tightest per-dimension bounding box over every
// visible fragment's records, boxed by each dimension's native Go type.
func (a *Array) NonEmptyDomain() (map[string][2]interface{}, error) {
	out := make(map[string][2]interface{}, len(a.schema.Domain.Dimensions))
	for i, dim := range a.schema.Domain.Dimensions {
		var lo, hi interface{}
		var loF, hiF float64
		first := true
		for _, f := range a.visible {
			for _, rec := range f.records {
				v := decodeBoxed(dim.Datatype, rec.coords[i])
				fv := asFloat64(v)
				if first || fv < loF {
					lo, loF = v, fv
				}
				if first || fv > hiF {
					hi, hiF = v, fv
				}
				first = false
			}
		}
		if !first {
			out[dim.Name] = [2]interface{}{lo, hi}
		}
	}
	return out, nil
}

// FragmentInfo lists every visible fragment, in finalize order.
func (a *Array) FragmentInfo() ([]abi.FragmentInfo, error) {
	out := make([]abi.FragmentInfo, len(a.visible))
	for i, f := range a.visible {
		out[i] = abi.FragmentInfo{
			URI:            fmt.Sprintf("%s#%d-%d", a.path, f.tsStart, f.tsEnd),
			TimestampStart: f.tsStart,
			TimestampEnd:   f.tsEnd,
			NumCells:       uint64(len(f.records)),
		}
	}
	return out, nil
}
