package schema

import (
	"fmt"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/filter"
	"github.com/grailbio/tiledb/tiledberr"
	"github.com/grailbio/tiledb/valrange"
)

// Attribute is a named, typed per-cell value field.
type Attribute struct {
	Name            string
	Datatype        datatype.Datatype
	Nullable        bool
	CellValNum      valrange.CellValNum
	FillBytes       []byte
	FillValidity    *bool // only set when Nullable; may be nil for a nullable attribute
	FilterList      filter.List
	EnumerationName string // "" if none
}

// NewAttribute validates and constructs an Attribute.
//
// Fill-value/cell-val-num compatibility (spec.md section 3): for Fixed
// cell_val_num, len(fill)/datatype.Size() must equal the fixed count;
// for Var, the fill length is unconstrained (it represents one
// variable-length record's worth of default bytes).
func NewAttribute(name string, dt datatype.Datatype, nullable bool, cellValNum valrange.CellValNum, fillBytes []byte, fillValidity *bool, filterList filter.List, enumerationName string) (Attribute, error) {
	if name == "" {
		return Attribute{}, tiledberr.Invalid("attribute name must not be empty")
	}
	if !nullable && fillValidity != nil {
		return Attribute{}, tiledberr.Invalid(fmt.Sprintf("attribute %s: fill_validity is only meaningful for nullable attributes", name))
	}
	if n, isFixed := cellValNum.Value(); isFixed {
		size := dt.Size()
		if size == 0 || len(fillBytes) != int(n)*size {
			return Attribute{}, tiledberr.Invalid(fmt.Sprintf(
				"attribute %s: fill value length %d does not match cell_val_num %d x datatype size %d",
				name, len(fillBytes), n, size))
		}
	}
	return Attribute{
		Name:            name,
		Datatype:        dt,
		Nullable:        nullable,
		CellValNum:      cellValNum,
		FillBytes:       fillBytes,
		FillValidity:    fillValidity,
		FilterList:      filterList,
		EnumerationName: enumerationName,
	}, nil
}

// HasEnumeration reports whether a references an Enumeration by name.
func (a Attribute) HasEnumeration() bool { return a.EnumerationName != "" }
