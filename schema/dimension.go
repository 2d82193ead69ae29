// Package schema implements the array schema model: Dimension, Domain,
// Attribute, Schema, and a move-consuming Builder, per spec.md
// sections 3 and 4.4.
//
// Grounded on tiledb/api/src/array/{dimension,attribute}.rs
// (original_source/) for the invariant set and
// tiledb/proptests/src/schema.rs for the scenarios a builder must reject.
// The builder's "accumulate setters, consume and return" pattern is the
// teacher's own idiom in pamwriter.go (NewWriter accumulates options then
// commits once at Close).
package schema

import (
	"fmt"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/filter"
	"github.com/grailbio/tiledb/tiledberr"
	"github.com/grailbio/tiledb/valrange"
)

// Dimension is a named, typed axis. Domain and TileExtent are nil iff
// Datatype is a variable-length string (spec.md section 3: "domain/extent
// absent iff the datatype is var-length string").
type Dimension struct {
	Name       string
	Datatype   datatype.Datatype
	CellValNum valrange.CellValNum
	Domain     *valrange.Range // Single-shape [lo, hi], nil iff var-length string
	TileExtent []byte          // one value's worth of bytes, nil iff var-length string
	FilterList filter.List
}

// NewDimension validates and constructs a Dimension.
func NewDimension(name string, dt datatype.Datatype, cellValNum valrange.CellValNum, domain *valrange.Range, tileExtent []byte, filterList filter.List) (Dimension, error) {
	if name == "" {
		return Dimension{}, tiledberr.Invalid("dimension name must not be empty")
	}

	isVarString := dt == datatype.StringAscii && cellValNum.IsVar()
	if isVarString {
		if domain != nil || tileExtent != nil {
			return Dimension{}, tiledberr.Invalid(fmt.Sprintf("dimension %s: var-length string dimension must not set domain or tile_extent", name))
		}
	} else {
		if domain == nil {
			return Dimension{}, tiledberr.Invalid(fmt.Sprintf("dimension %s: domain is required for non-var-string dimensions", name))
		}
		if tileExtent == nil {
			return Dimension{}, tiledberr.Invalid(fmt.Sprintf("dimension %s: tile_extent is required for non-var-string dimensions", name))
		}
		if err := valrange.CheckDimensionCompatibility(*domain, dt, cellValNum); err != nil {
			return Dimension{}, err
		}
		if len(tileExtent) != dt.Size() {
			return Dimension{}, tiledberr.Invalid(fmt.Sprintf("dimension %s: tile_extent length %d does not match datatype size %d", name, len(tileExtent), dt.Size()))
		}
	}

	return Dimension{
		Name:       name,
		Datatype:   dt,
		CellValNum: cellValNum,
		Domain:     domain,
		TileExtent: tileExtent,
		FilterList: filterList,
	}, nil
}
