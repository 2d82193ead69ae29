package fakebackend

import (
	"bytes"
	"fmt"

	"github.com/grailbio/tiledb/abi"
	"github.com/grailbio/tiledb/datatype"
)

type conditionKind uint8

const (
	kindEquality conditionKind = iota
	kindSetMembership
	kindNullness
	kindCombine
	kindNegate
)

// conditionNode is the lowered form of a querycondition.Expr: a tree of
// opaque abi.ConditionHandle values this package both produces (via
// ConditionContext) and consumes (via Query.Submit's filtering pass).
type conditionNode struct {
	kind conditionKind

	field string
	dt    datatype.Datatype

	cmpOp  abi.ComparisonOp
	value  []byte
	setOp  abi.SetOp
	members [][]byte
	nullOp abi.NullOp

	left, right *conditionNode
	combineOp   abi.CombineOp
	operand     *conditionNode
}

func (*conditionNode) isConditionHandle() {}

// ConditionContext implements abi.QueryCondition by building a conditionNode
// tree in memory -- no actual backend allocation, since this package's
// Query.Submit walks the tree directly against each candidate record.
type ConditionContext struct{}

func (ConditionContext) AllocEquality(field string, op abi.ComparisonOp, value []byte, dt datatype.Datatype) (abi.ConditionHandle, error) {
	return &conditionNode{kind: kindEquality, field: field, cmpOp: op, value: value, dt: dt}, nil
}

func (ConditionContext) AllocSetMembership(field string, op abi.SetOp, members [][]byte, dt datatype.Datatype) (abi.ConditionHandle, error) {
	return &conditionNode{kind: kindSetMembership, field: field, setOp: op, members: members, dt: dt}, nil
}

func (ConditionContext) AllocNullness(field string, op abi.NullOp) (abi.ConditionHandle, error) {
	return &conditionNode{kind: kindNullness, field: field, nullOp: op}, nil
}

func (ConditionContext) Combine(left, right abi.ConditionHandle, op abi.CombineOp) (abi.ConditionHandle, error) {
	l, ok := left.(*conditionNode)
	if !ok {
		return nil, fmt.Errorf("fakebackend: Combine given a handle not produced by this context")
	}
	r, ok := right.(*conditionNode)
	if !ok {
		return nil, fmt.Errorf("fakebackend: Combine given a handle not produced by this context")
	}
	return &conditionNode{kind: kindCombine, left: l, right: r, combineOp: op}, nil
}

func (ConditionContext) Negate(cond abi.ConditionHandle) (abi.ConditionHandle, error) {
	c, ok := cond.(*conditionNode)
	if !ok {
		return nil, fmt.Errorf("fakebackend: Negate given a handle not produced by this context")
	}
	return &conditionNode{kind: kindNegate, operand: c}, nil
}

// evaluate reports whether rec satisfies n.
func (n *conditionNode) evaluate(rec record) (bool, error) {
	switch n.kind {
	case kindEquality:
		raw, ok := rec.attrs[n.field]
		if !ok {
			return false, fmt.Errorf("fakebackend: condition references unattached field %q", n.field)
		}
		lhs := asFloat64(decodeBoxed(n.dt, raw))
		rhs := asFloat64(decodeBoxed(n.dt, n.value))
		switch n.cmpOp {
		case abi.OpLess:
			return lhs < rhs, nil
		case abi.OpLessEqual:
			return lhs <= rhs, nil
		case abi.OpEqual:
			return lhs == rhs, nil
		case abi.OpNotEqual:
			return lhs != rhs, nil
		case abi.OpGreaterEqual:
			return lhs >= rhs, nil
		case abi.OpGreater:
			return lhs > rhs, nil
		default:
			return false, fmt.Errorf("fakebackend: unknown comparison op")
		}
	case kindSetMembership:
		raw, ok := rec.attrs[n.field]
		if !ok {
			return false, fmt.Errorf("fakebackend: condition references unattached field %q", n.field)
		}
		isMember := false
		for _, m := range n.members {
			if bytes.Equal(raw, m) {
				isMember = true
				break
			}
		}
		if n.setOp == abi.OpNotIn {
			return !isMember, nil
		}
		return isMember, nil
	case kindNullness:
		valid, tracked := rec.valid[n.field]
		if !tracked {
			// rec.valid only carries entries for nullable attributes; a
			// field absent from it is never null.
			return n.nullOp == abi.OpNotNull, nil
		}
		if n.nullOp == abi.OpIsNull {
			return !valid, nil
		}
		return valid, nil
	case kindCombine:
		l, err := n.left.evaluate(rec)
		if err != nil {
			return false, err
		}
		r, err := n.right.evaluate(rec)
		if err != nil {
			return false, err
		}
		if n.combineOp == abi.CombineAnd {
			return l && r, nil
		}
		return l || r, nil
	case kindNegate:
		v, err := n.operand.evaluate(rec)
		if err != nil {
			return false, err
		}
		return !v, nil
	default:
		return false, fmt.Errorf("fakebackend: unknown condition node kind")
	}
}
