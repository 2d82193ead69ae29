// Package querycondition implements the QueryCondition AST of spec.md
// section 4.7 and its lowering to the opaque abi.ConditionHandle boundary.
//
// Grounded on tiledb/api/src/query/conditions.rs (original_source/) for the
// exact lowering rules -- Equality/Nullness allocate-and-init with a
// byte-serialized value, SetMembership passes the deduplicated members to
// the backend as one byte slice per member (no offsets array is built),
// And/Or/Not recurse then call the backend combinator/negation.
// Local set-membership deduplication uses github.com/dgryski/go-farm's
// Hash64WithSeed, grounded on fusion/kmer_index.go's hashKmer idiom (hash
// the raw bytes, not the decoded value, so the same code path handles every
// physical type uniformly).
package querycondition

import (
	"encoding/binary"
	"math"

	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/tiledb/abi"
	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/tiledberr"
)

// Literal is a single value tagged by physical type, serialized the way the
// backend expects it: little-endian for numerics, raw bytes for strings
// (spec.md section 4.7).
type Literal struct {
	Datatype datatype.Datatype
	Bytes    []byte
}

func serialize[T datatype.Numeric](v T) []byte {
	switch x := any(v).(type) {
	case int8:
		return []byte{byte(x)}
	case uint8:
		return []byte{x}
	case int16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(x))
		return b
	case uint16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, x)
		return b
	case int32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(x))
		return b
	case uint32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, x)
		return b
	case int64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(x))
		return b
	case uint64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, x)
		return b
	case float32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
		return b
	case float64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
		return b
	default:
		panic("querycondition: unsupported literal type")
	}
}

// NewLiteral builds a Literal from a numeric value of the attribute's
// logical datatype.
func NewLiteral[T datatype.Numeric](dt datatype.Datatype, v T) Literal {
	return Literal{Datatype: dt, Bytes: serialize(v)}
}

// NewStringLiteral builds a Literal from raw string bytes, for
// StringAscii/StringUtf8 fields.
func NewStringLiteral(dt datatype.Datatype, s string) Literal {
	return Literal{Datatype: dt, Bytes: []byte(s)}
}

// ComparisonOp mirrors abi.ComparisonOp at the AST layer, re-exported so
// callers need not import abi to build an Expr.
type ComparisonOp = abi.ComparisonOp

const (
	Less         = abi.OpLess
	LessEqual    = abi.OpLessEqual
	Equal        = abi.OpEqual
	NotEqual     = abi.OpNotEqual
	GreaterEqual = abi.OpGreaterEqual
	Greater      = abi.OpGreater
)

// SetOp mirrors abi.SetOp.
type SetOp = abi.SetOp

const (
	In    = abi.OpIn
	NotIn = abi.OpNotIn
)

// NullOp mirrors abi.NullOp.
type NullOp = abi.NullOp

const (
	IsNull  = abi.OpIsNull
	NotNull = abi.OpNotNull
)

// Predicate is the leaf condition kind of spec.md section 4.7's grammar.
type Predicate interface {
	isPredicate()
}

// Equality is `field OP value`.
type Equality struct {
	Field string
	Op    ComparisonOp
	Value Literal
}

func (Equality) isPredicate() {}

// SetMembership is `field (In|NotIn) members`.
type SetMembership struct {
	Field   string
	Op      SetOp
	Members []Literal
}

func (SetMembership) isPredicate() {}

// Nullness is `field (IsNull|NotNull)`.
type Nullness struct {
	Field string
	Op    NullOp
}

func (Nullness) isPredicate() {}

// Expr is the QueryCondition AST of spec.md section 4.7.
type Expr interface {
	isExpr()
}

// Cond wraps a single Predicate as a leaf Expr.
type Cond struct{ Predicate Predicate }

func (Cond) isExpr() {}

// And is the conjunction of two sub-expressions.
type And struct{ Left, Right Expr }

func (And) isExpr() {}

// Or is the disjunction of two sub-expressions.
type Or struct{ Left, Right Expr }

func (Or) isExpr() {}

// Not negates a sub-expression.
type Not struct{ Operand Expr }

func (Not) isExpr() {}

// dedupMembers removes duplicate members by hashing their serialized bytes,
// preserving first-occurrence order. Grounded on fusion/kmer_index.go's
// farm.Hash64WithSeed sharding idiom, reused here as a plain dedup set
// rather than a sharded table since set-membership lists are small relative
// to the kmer index's scale.
func dedupMembers(members []Literal) []Literal {
	seen := make(map[uint64]struct{}, len(members))
	out := make([]Literal, 0, len(members))
	for _, m := range members {
		h := farm.Hash64WithSeed(m.Bytes, uint64(m.Datatype))
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Build lowers expr into an opaque backend condition handle via ctx,
// following the recursive rules of spec.md section 4.7. Empty set
// membership is rejected locally before any backend call, per spec.md
// section 4.7: "Empty set membership is rejected before calling the
// backend."
func Build(ctx abi.QueryCondition, expr Expr) (abi.ConditionHandle, error) {
	switch e := expr.(type) {
	case Cond:
		return buildPredicate(ctx, e.Predicate)
	case And:
		left, err := Build(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := Build(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		h, err := ctx.Combine(left, right, abi.CombineAnd)
		if err != nil {
			return nil, tiledberr.FromBackend(err.Error())
		}
		return h, nil
	case Or:
		left, err := Build(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := Build(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		h, err := ctx.Combine(left, right, abi.CombineOr)
		if err != nil {
			return nil, tiledberr.FromBackend(err.Error())
		}
		return h, nil
	case Not:
		operand, err := Build(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		h, err := ctx.Negate(operand)
		if err != nil {
			return nil, tiledberr.FromBackend(err.Error())
		}
		return h, nil
	default:
		return nil, tiledberr.Bug("querycondition: unknown Expr variant")
	}
}

func buildPredicate(ctx abi.QueryCondition, p Predicate) (abi.ConditionHandle, error) {
	switch pred := p.(type) {
	case Equality:
		h, err := ctx.AllocEquality(pred.Field, pred.Op, pred.Value.Bytes, pred.Value.Datatype)
		if err != nil {
			return nil, tiledberr.FromBackend(err.Error())
		}
		return h, nil
	case SetMembership:
		members := dedupMembers(pred.Members)
		if len(members) == 0 {
			return nil, tiledberr.Invalid("query condition: set membership over an empty member set for field " + pred.Field)
		}
		dt := members[0].Datatype
		raw := make([][]byte, len(members))
		for i, m := range members {
			raw[i] = m.Bytes
		}
		h, err := ctx.AllocSetMembership(pred.Field, pred.Op, raw, dt)
		if err != nil {
			return nil, tiledberr.FromBackend(err.Error())
		}
		return h, nil
	case Nullness:
		h, err := ctx.AllocNullness(pred.Field, pred.Op)
		if err != nil {
			return nil, tiledberr.FromBackend(err.Error())
		}
		return h, nil
	default:
		return nil, tiledberr.Bug("querycondition: unknown Predicate variant")
	}
}
