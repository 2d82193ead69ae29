// Package subarray implements Subarray: a per-dimension set of Ranges that
// restricts a query's coordinate space (spec.md section 4.6).
//
// Each dimension's range set is kept in a github.com/biogo/store/llrb.Tree
// sorted by valrange.Less, grounded on encoding/bampair/shard_info.go's
// ShardInfo.byKey llrb.Tree of start-coordinate-keyed shard boundaries. The
// composed result is the union of ranges within a dimension, and the
// Cartesian product across dimensions, per spec.md section 4.6.
package subarray

import (
	"fmt"

	"github.com/biogo/store/llrb"

	"github.com/grailbio/tiledb/schema"
	"github.com/grailbio/tiledb/tiledberr"
	"github.com/grailbio/tiledb/valrange"
)

// rangeItem adapts valrange.Range to llrb.Comparable, ordering by
// valrange.Less.
type rangeItem struct {
	r valrange.Range
}

func (i rangeItem) Compare(c llrb.Comparable) int {
	other := c.(rangeItem).r
	if valrange.Less(i.r, other) {
		return -1
	}
	if valrange.Less(other, i.r) {
		return 1
	}
	return 0
}

// Subarray restricts domain's coordinate space via a per-dimension set of
// ranges, composed as a union within a dimension and a Cartesian product
// across dimensions.
type Subarray struct {
	domain schema.Domain
	byDim  []llrb.Tree // indexed by dimension position, one tree per dimension
}

// New constructs an empty Subarray over domain (no ranges attached to any
// dimension restricts nothing -- spec.md section 4.6 treats an empty
// per-dimension range set as "whole domain for that dimension").
func New(domain schema.Domain) Subarray {
	return Subarray{domain: domain, byDim: make([]llrb.Tree, len(domain.Dimensions))}
}

// AddRangeByIndex attaches r to the dimension at index i. r is rejected if
// it fails valrange.CheckDimensionCompatibility for that dimension --
// this also rejects Multi-shape ranges unconditionally, since
// CheckDimensionCompatibility treats Multi as never valid for a dimension
// (the Open Question decision recorded in SPEC_FULL.md: MultiValueRange is
// never usable in a Subarray).
func (s *Subarray) AddRangeByIndex(i int, r valrange.Range) error {
	dim, err := s.domain.At(i)
	if err != nil {
		return err
	}
	if err := valrange.CheckDimensionCompatibility(r, dim.Datatype, dim.CellValNum); err != nil {
		return err
	}
	s.byDim[i].Insert(rangeItem{r})
	return nil
}

// AddRange attaches r to the dimension named name.
func (s *Subarray) AddRange(name string, r valrange.Range) error {
	for i, dim := range s.domain.Dimensions {
		if dim.Name == name {
			return s.AddRangeByIndex(i, r)
		}
	}
	return tiledberr.Invalid(fmt.Sprintf("subarray: no dimension named %q", name))
}

// Ranges returns the union-composed range set for the dimension at index i,
// in sorted, non-overlapping order. An empty result means the dimension is
// unrestricted (spans its whole domain).
func (s *Subarray) Ranges(i int) ([]valrange.Range, error) {
	if i < 0 || i >= len(s.byDim) {
		return nil, tiledberr.Invalid(fmt.Sprintf("subarray: dimension index %d out of range [0,%d)", i, len(s.byDim)))
	}
	var sorted []valrange.Range
	s.byDim[i].Do(func(c llrb.Comparable) bool {
		sorted = append(sorted, c.(rangeItem).r)
		return false
	})
	return unionAdjacent(sorted), nil
}

// unionAdjacent merges overlapping or touching ranges in a sorted slice into
// their componentwise union (spec.md section 4.6: "composing the subarray
// as the union over ranges per dimension").
func unionAdjacent(sorted []valrange.Range) []valrange.Range {
	if len(sorted) == 0 {
		return nil
	}
	out := make([]valrange.Range, 0, len(sorted))
	cur := sorted[0]
	for _, r := range sorted[1:] {
		if valrange.Overlaps(cur, r) {
			cur = valrange.Union(cur, r)
			continue
		}
		out = append(out, cur)
		cur = r
	}
	out = append(out, cur)
	return out
}

// NumDimensions is the number of dimensions s spans.
func (s *Subarray) NumDimensions() int { return len(s.byDim) }

// Cells invokes fn once per tuple in the Cartesian product of each
// dimension's unioned range set, in dimension order. A dimension with no
// ranges attached contributes its Dimension.Domain unrestricted (the whole
// axis) as its sole tuple entry.
//
// fn returning false stops enumeration early.
func (s *Subarray) Cells(fn func(tuple []valrange.Range) bool) error {
	perDim := make([][]valrange.Range, len(s.byDim))
	for i := range s.byDim {
		ranges, err := s.Ranges(i)
		if err != nil {
			return err
		}
		if len(ranges) == 0 {
			dim, err := s.domain.At(i)
			if err != nil {
				return err
			}
			if dim.Domain == nil {
				return tiledberr.Bug(fmt.Sprintf("subarray: dimension %d has no attached ranges and no whole-domain fallback", i))
			}
			ranges = []valrange.Range{*dim.Domain}
		}
		perDim[i] = ranges
	}

	tuple := make([]valrange.Range, len(perDim))
	var recurse func(dim int) bool
	recurse = func(dim int) bool {
		if dim == len(perDim) {
			return fn(tuple)
		}
		for _, r := range perDim[dim] {
			tuple[dim] = r
			if !recurse(dim + 1) {
				return false
			}
		}
		return true
	}
	recurse(0)
	return nil
}
