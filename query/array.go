package query

import (
	"v.io/x/lib/vlog"

	"github.com/grailbio/tiledb/abi"
	"github.com/grailbio/tiledb/schema"
	"github.com/grailbio/tiledb/tiledberr"
)

// Array is a single create/open/close handle over one array's fragments,
// wrapping an abi.Array implementation. The open mode is fixed for the
// lifetime of the handle (spec.md section 5: "the mode is fixed at open").
type Array struct {
	ctx    *Context
	backend abi.Array
	schema  schema.Schema
	mode    abi.QueryType
	open    bool
}

// NewArray wraps backend with the schema it was created with (or will be
// created with).
func NewArray(ctx *Context, backend abi.Array, s schema.Schema) *Array {
	return &Array{ctx: ctx, backend: backend, schema: s}
}

// Create persists a new, empty array with the wrapped schema at path.
func (a *Array) Create(path string) error {
	if err := a.backend.Create(path); err != nil {
		a.ctx.SetLastError(err)
		return tiledberr.FromBackend(err.Error())
	}
	return nil
}

// Open opens the array for mode, optionally restricted to a timestamp
// range (spec.md section 5: "a reader opened at timestamp range [t0, t1]
// observes exactly those write-finalizes whose timestamps fall in
// [t0, t1]").
func (a *Array) Open(path string, mode abi.QueryType, ts *abi.TimestampRange) error {
	if ts != nil {
		vlog.VI(1).Infof("query: opening %q restricted to fragments finalized in [%d, %d]", path, ts.Start, ts.End)
	}
	if err := a.backend.Open(path, mode, ts); err != nil {
		a.ctx.SetLastError(err)
		return tiledberr.FromBackend(err.Error())
	}
	a.mode = mode
	a.open = true
	return nil
}

// Close releases the array handle. Per spec.md section 5's "no outstanding
// backend pointers into caller memory after any public entry point
// returns", Close is the last call any Query bound to a must make before
// the caller may reuse its Array.
func (a *Array) Close() error {
	if !a.open {
		return nil
	}
	a.open = false
	if err := a.backend.Close(); err != nil {
		a.ctx.SetLastError(err)
		return tiledberr.FromBackend(err.Error())
	}
	return nil
}

// Mode is the open mode this Array was opened with.
func (a *Array) Mode() abi.QueryType { return a.mode }

// Schema is the array's attached schema.
func (a *Array) Schema() schema.Schema { return a.schema }

// NonEmptyDomain reports the tightest per-dimension bounding box over all
// committed fragments.
func (a *Array) NonEmptyDomain() (map[string][2]interface{}, error) {
	dom, err := a.backend.NonEmptyDomain()
	if err != nil {
		a.ctx.SetLastError(err)
		return nil, tiledberr.FromBackend(err.Error())
	}
	return dom, nil
}

// FragmentInfo lists every committed fragment, in finalize order.
func (a *Array) FragmentInfo() ([]abi.FragmentInfo, error) {
	info, err := a.backend.FragmentInfo()
	if err != nil {
		a.ctx.SetLastError(err)
		return nil, tiledberr.FromBackend(err.Error())
	}
	return info, nil
}
