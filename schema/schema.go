package schema

import (
	"fmt"

	"github.com/grailbio/tiledb/enumeration"
	"github.com/grailbio/tiledb/filter"
	"github.com/grailbio/tiledb/tiledberr"
)

// ArrayType distinguishes a Schema's storage layout.
type ArrayType uint8

const (
	Dense ArrayType = iota
	Sparse
)

func (a ArrayType) String() string {
	if a == Dense {
		return "dense"
	}
	return "sparse"
}

// Order is a cell/tile iteration order.
type Order uint8

const (
	RowMajor Order = iota
	ColumnMajor
	Hilbert
	Unordered
)

func (o Order) String() string {
	switch o {
	case RowMajor:
		return "row_major"
	case ColumnMajor:
		return "col_major"
	case Hilbert:
		return "hilbert"
	case Unordered:
		return "unordered"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

// Schema is an immutable, fully-validated array schema.
type Schema struct {
	ArrayType         ArrayType
	Domain            Domain
	Attributes        []Attribute
	Capacity          uint64
	CellOrder         Order
	TileOrder         Order
	AllowDuplicates   bool
	CoordinateFilters filter.List
	OffsetsFilters    filter.List
	NullityFilters    filter.List
	Enumerations      []enumeration.Enumeration
}

// Attribute looks up an attribute by name, with a did-you-mean hint on
// failure (same idiom as Domain.Dimension).
func (s Schema) Attribute(name string) (Attribute, error) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, nil
		}
	}
	names := make([]string, len(s.Attributes))
	for i, a := range s.Attributes {
		names[i] = a.Name
	}
	return Attribute{}, tiledberr.Invalid(fmt.Sprintf("no attribute named %q%s", name, suggestClosest(name, names)))
}

// Enumeration looks up an enumeration by name.
func (s Schema) Enumeration(name string) (enumeration.Enumeration, error) {
	for _, e := range s.Enumerations {
		if e.Name == name {
			return e, nil
		}
	}
	names := make([]string, len(s.Enumerations))
	for i, e := range s.Enumerations {
		names[i] = e.Name
	}
	return enumeration.Enumeration{}, tiledberr.Invalid(fmt.Sprintf("no enumeration named %q%s", name, suggestClosest(name, names)))
}

// fieldNames returns every domain dimension name followed by every
// attribute name, in that order -- used by Build to check uniqueness.
func fieldNames(d Domain, attrs []Attribute) []string {
	names := make([]string, 0, len(d.Dimensions)+len(attrs))
	for _, dim := range d.Dimensions {
		names = append(names, dim.Name)
	}
	for _, a := range attrs {
		names = append(names, a.Name)
	}
	return names
}
