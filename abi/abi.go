// Package abi declares the stable entry-point contract the core sits above
// (spec.md section 6): Context, Config, Array, Query, Subarray, and
// QueryCondition, plus the status/layout/type enums threaded through them.
// This package holds interfaces only -- no implementation. query/ drives
// these interfaces; internal/fakebackend/ is the only implementation in
// this repo, kept test-only since fragment storage, compression, and
// network transport are the external collaborators spec.md section 1 scopes
// out of the core.
package abi

import "github.com/grailbio/tiledb/datatype"

// QueryStatus is the result of one submit call (spec.md section 4.8).
type QueryStatus uint8

const (
	StatusUninitialized QueryStatus = iota
	StatusInProgress
	StatusCompleted
	StatusIncomplete
	StatusFailed
)

func (s QueryStatus) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusIncomplete:
		return "incomplete"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Layout is the cell iteration order a Query requests (spec.md section 3's
// Order, reused at the ABI boundary).
type Layout uint8

const (
	LayoutRowMajor Layout = iota
	LayoutColumnMajor
	LayoutHilbert
	LayoutUnordered
)

// ArrayType mirrors schema.ArrayType at the ABI boundary.
type ArrayType uint8

const (
	ArrayDense ArrayType = iota
	ArraySparse
)

// QueryType is the open mode of an Array handle (spec.md section 5: "the
// mode is fixed at open").
type QueryType uint8

const (
	QueryRead QueryType = iota
	QueryWrite
)

// TimestampRange restricts an Array open to fragments finalized within
// [Start, End] (spec.md section 5's per-Array read-timestamp semantics).
type TimestampRange struct {
	Start, End uint64
}

// Context is the error channel shared across Queries (spec.md section 5:
// "shareable across Queries ... last-error retrieval is per-context").
type Context interface {
	LastError() error
	SetLastError(err error)
}

// ConfigBackend is the key/value configuration store attached to a Query.
// Once attached to a Query it is immutable (spec.md section 5).
type ConfigBackend interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Unset(key string) error
	Keys() []string
}

// Array is a single create/open/close handle over one array's fragments.
type Array interface {
	Create(path string) error
	Open(path string, mode QueryType, ts *TimestampRange) error
	Close() error
	NonEmptyDomain() (map[string][2]interface{}, error)
	FragmentInfo() ([]FragmentInfo, error)
}

// FragmentInfo describes one committed fragment (spec.md section 5:
// "fragment timestamps ... define a total order").
type FragmentInfo struct {
	URI            string
	TimestampStart uint64
	TimestampEnd   uint64
	NumCells       uint64
}

// Buffer is the ABI-level view of one data/offsets/validity part: a byte
// slice plus the length the backend is told to treat as filled capacity on
// entry, and filled-with-actual-data length on return.
type Buffer struct {
	Bytes  []byte
	Length *int // in: capacity to assume; out: bytes actually written
}

// Query is one alloc/submit/finalize lifecycle against an open Array.
type Query interface {
	SetConfig(cfg ConfigBackend) error
	SetLayout(layout Layout) error
	SetSubarray(sa Subarray) error
	SetCondition(cond ConditionHandle) error
	SetDataBuffer(field string, buf Buffer) error
	SetOffsetsBuffer(field string, buf Buffer) error
	SetValidityBuffer(field string, buf Buffer) error
	Submit() (QueryStatus, error)
	Finalize() error
	GetStatus() QueryStatus
}

// Subarray is the ABI-level per-dimension range attachment surface.
type Subarray interface {
	AddRangeByIndex(dim int, lo, hi interface{}) error
	AddRangeByName(dim string, lo, hi interface{}) error
	AddVarRangeByIndex(dim int, lo, hi []byte) error
	AddVarRangeByName(dim string, lo, hi []byte) error
}

// ConditionHandle is the opaque backend handle produced by lowering a
// querycondition.Expr (spec.md section 4.7: "build(context) lowers the AST
// into an opaque backend condition handle").
type ConditionHandle interface {
	isConditionHandle()
}

// QueryCondition is the ABI-level AST-lowering surface.
type QueryCondition interface {
	AllocEquality(field string, op ComparisonOp, value []byte, dt datatype.Datatype) (ConditionHandle, error)
	AllocSetMembership(field string, op SetOp, members [][]byte, dt datatype.Datatype) (ConditionHandle, error)
	AllocNullness(field string, op NullOp) (ConditionHandle, error)
	Combine(left, right ConditionHandle, op CombineOp) (ConditionHandle, error)
	Negate(cond ConditionHandle) (ConditionHandle, error)
}

// ComparisonOp is an Equality predicate's operator.
type ComparisonOp uint8

const (
	OpLess ComparisonOp = iota
	OpLessEqual
	OpEqual
	OpNotEqual
	OpGreaterEqual
	OpGreater
)

// SetOp is a SetMembership predicate's operator.
type SetOp uint8

const (
	OpIn SetOp = iota
	OpNotIn
)

// NullOp is a Nullness predicate's operator.
type NullOp uint8

const (
	OpIsNull NullOp = iota
	OpNotNull
)

// CombineOp is an And/Or combinator.
type CombineOp uint8

const (
	CombineAnd CombineOp = iota
	CombineOr
)
