package schema

import (
	"fmt"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/enumeration"
	"github.com/grailbio/tiledb/filter"
	"github.com/grailbio/tiledb/tiledberr"
)

// Builder accumulates Schema setters then runs a single Build step that
// enforces every Schema invariant at once (spec.md section 4.4). Every
// setter is a value receiver returning a new Builder, so a partially-built
// schema is never observable mid-construction -- the same move-consuming
// shape as pamwriter.go's NewWriter option accumulation.
type Builder struct {
	arrayType         ArrayType
	domain            Domain
	attributes        []Attribute
	capacity          uint64
	cellOrder         Order
	tileOrder         Order
	allowDuplicates   bool
	coordinateFilters filter.List
	offsetsFilters    filter.List
	nullityFilters    filter.List
	enumerations      []enumeration.Enumeration
}

// NewBuilder starts a Builder for an array of the given type and domain.
func NewBuilder(arrayType ArrayType, domain Domain) Builder {
	return Builder{
		arrayType: arrayType,
		domain:    domain,
		capacity:  10000,
		cellOrder: RowMajor,
		tileOrder: RowMajor,
	}
}

func (b Builder) WithAttribute(a Attribute) Builder {
	b.attributes = append(append([]Attribute(nil), b.attributes...), a)
	return b
}

func (b Builder) WithCapacity(n uint64) Builder {
	b.capacity = n
	return b
}

func (b Builder) WithCellOrder(o Order) Builder {
	b.cellOrder = o
	return b
}

func (b Builder) WithTileOrder(o Order) Builder {
	b.tileOrder = o
	return b
}

func (b Builder) WithAllowDuplicates(v bool) Builder {
	b.allowDuplicates = v
	return b
}

func (b Builder) WithCoordinateFilters(l filter.List) Builder {
	b.coordinateFilters = l
	return b
}

func (b Builder) WithOffsetsFilters(l filter.List) Builder {
	b.offsetsFilters = l
	return b
}

func (b Builder) WithNullityFilters(l filter.List) Builder {
	b.nullityFilters = l
	return b
}

func (b Builder) WithEnumeration(e enumeration.Enumeration) Builder {
	b.enumerations = append(append([]enumeration.Enumeration(nil), b.enumerations...), e)
	return b
}

// Build validates every Schema invariant and, on success, returns an
// immutable Schema. Errors name the first failing invariant, in the order
// listed in spec.md section 3.
func (b Builder) Build() (Schema, error) {
	if len(b.attributes) == 0 {
		return Schema{}, tiledberr.Invalid("schema must have at least one attribute")
	}

	names := fieldNames(b.domain, b.attributes)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return Schema{}, tiledberr.Invalid(fmt.Sprintf("duplicate field name %q across domain and attributes", n))
		}
		seen[n] = true
	}

	if b.allowDuplicates && b.arrayType != Sparse {
		return Schema{}, tiledberr.Invalid("allow_duplicates requires a sparse array")
	}
	if b.cellOrder == Hilbert && b.arrayType != Sparse {
		return Schema{}, tiledberr.Invalid("cell_order = hilbert requires a sparse array")
	}

	for _, dim := range b.domain.Dimensions {
		allowed := datatype.IsAllowedDimensionTypeDense(dim.Datatype)
		if b.arrayType == Sparse {
			allowed = datatype.IsAllowedDimensionTypeSparse(dim.Datatype)
		}
		if !allowed {
			return Schema{}, tiledberr.Incompatible(fmt.Sprintf(
				"dimension %s: datatype %s is not allowed for %s arrays", dim.Name, dim.Datatype, b.arrayType))
		}
	}

	enumByName := make(map[string]bool, len(b.enumerations))
	for _, e := range b.enumerations {
		enumByName[e.Name] = true
	}
	for _, a := range b.attributes {
		if a.HasEnumeration() && !enumByName[a.EnumerationName] {
			return Schema{}, tiledberr.Invalid(fmt.Sprintf(
				"attribute %s references undefined enumeration %q", a.Name, a.EnumerationName))
		}
	}

	return Schema{
		ArrayType:         b.arrayType,
		Domain:            b.domain,
		Attributes:        append([]Attribute(nil), b.attributes...),
		Capacity:          b.capacity,
		CellOrder:         b.cellOrder,
		TileOrder:         b.tileOrder,
		AllowDuplicates:   b.allowDuplicates,
		CoordinateFilters: b.coordinateFilters,
		OffsetsFilters:    b.offsetsFilters,
		NullityFilters:    b.nullityFilters,
		Enumerations:      append([]enumeration.Enumeration(nil), b.enumerations...),
	}, nil
}
