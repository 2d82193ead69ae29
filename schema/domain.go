package schema

import (
	"fmt"

	"github.com/antzucaro/matchr"

	"github.com/grailbio/tiledb/tiledberr"
)

// Domain is the ordered sequence of Dimensions making up an array's
// coordinate space.
type Domain struct {
	Dimensions []Dimension
}

// NewDomain constructs a Domain from an ordered, non-empty dimension list.
// Uniqueness of names across the whole Schema (domain + attributes) is
// enforced at Schema build time, not here, since it is a cross-cutting
// invariant.
func NewDomain(dims []Dimension) (Domain, error) {
	if len(dims) == 0 {
		return Domain{}, tiledberr.Invalid("domain must have at least one dimension")
	}
	return Domain{Dimensions: dims}, nil
}

// Dimension looks up a dimension by name. On failure, the error message
// includes a "did you mean %q" hint for the closest name by Levenshtein
// distance, grounded on util/distance_test.go's matchr.Levenshtein usage.
func (d Domain) Dimension(name string) (Dimension, error) {
	for _, dim := range d.Dimensions {
		if dim.Name == name {
			return dim, nil
		}
	}
	return Dimension{}, tiledberr.Invalid(fmt.Sprintf("no dimension named %q%s", name, suggestClosest(name, d.names())))
}

// At returns the i'th dimension in domain order.
func (d Domain) At(i int) (Dimension, error) {
	if i < 0 || i >= len(d.Dimensions) {
		return Dimension{}, tiledberr.Invalid(fmt.Sprintf("dimension index %d out of range [0,%d)", i, len(d.Dimensions)))
	}
	return d.Dimensions[i], nil
}

func (d Domain) names() []string {
	out := make([]string, len(d.Dimensions))
	for i, dim := range d.Dimensions {
		out[i] = dim.Name
	}
	return out
}

// suggestClosest returns ", did you mean \"x\"?" for the candidate in names
// closest to target by Levenshtein distance, or "" if names is empty.
func suggestClosest(target string, names []string) string {
	if len(names) == 0 {
		return ""
	}
	best := names[0]
	bestDist := matchr.Levenshtein(target, best)
	for _, n := range names[1:] {
		if dist := matchr.Levenshtein(target, n); dist < bestDist {
			best, bestDist = n, dist
		}
	}
	return fmt.Sprintf(", did you mean %q?", best)
}
