package valrange

import "fmt"

// CellValNum is the number of values carried by one cell of a field:
// Fixed(n) for n >= 1, or Var for variable-length cells. The zero value is
// Var, since the zero discriminant is the one that most call sites must
// handle explicitly rather than silently defaulting to Fixed(1) -- matching
// the reader.go idiom of treating an unset cell-val-num as "var" until
// proven otherwise.
type CellValNum uint32

// CellValNumVar is the Var variant.
const CellValNumVar CellValNum = 0

// Fixed constructs a Fixed(n) CellValNum. Panics if n == 0: n >= 1 is an
// invariant of Fixed, not a runtime condition to be propagated as an error
// (a caller that can produce n == 0 has a logic bug, not bad input).
func Fixed(n uint32) CellValNum {
	if n == 0 {
		panic("valrange: Fixed cell_val_num must be >= 1")
	}
	return CellValNum(n)
}

// Single is shorthand for Fixed(1).
func Single() CellValNum { return Fixed(1) }

// IsVar reports whether c is the Var variant.
func (c CellValNum) IsVar() bool { return c == CellValNumVar }

// IsSingle reports whether c is Fixed(1).
func (c CellValNum) IsSingle() bool { return c == CellValNum(1) }

// Value returns the fixed count and true, or (0, false) if c is Var.
func (c CellValNum) Value() (uint32, bool) {
	if c.IsVar() {
		return 0, false
	}
	return uint32(c), true
}

func (c CellValNum) String() string {
	if c.IsVar() {
		return "var"
	}
	return fmt.Sprintf("fixed(%d)", uint32(c))
}
