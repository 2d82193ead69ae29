// Package filter implements Filter and FilterList: an ordered pipeline of
// byte-level value transformations configured by option key/value, per
// spec.md section 3. The transformations themselves (actually compressing
// or reducing bytes) are an external collaborator behind the abi package --
// this package only models the configuration values a caller attaches to a
// Dimension, Attribute, or Schema-level coordinate/offsets/validity filter
// list.
//
// Grounded on biopb's plain-struct-plus-methods style; option validation and
// max_chunk_size follow tiledb/api/src/filter.rs (original_source/).
package filter

import (
	"fmt"

	"github.com/grailbio/tiledb/datatype"
	"github.com/grailbio/tiledb/tiledberr"
)

// Kind is the closed set of filter kinds a FilterList may contain.
type Kind uint8

const (
	None Kind = iota
	Bzip2
	Delta
	Dictionary
	DoubleDelta
	Gzip
	Lz4
	Rle
	Zstd
	BitShuffle
	ByteShuffle
	BitWidthReduction
	PositiveDelta
	ScaleFloat
	ChecksumMd5
	ChecksumSha256
	Xor
	WebP
)

var kindNames = map[Kind]string{
	None: "none", Bzip2: "bzip2", Delta: "delta", Dictionary: "dictionary",
	DoubleDelta: "double_delta", Gzip: "gzip", Lz4: "lz4", Rle: "rle", Zstd: "zstd",
	BitShuffle: "bit_shuffle", ByteShuffle: "byte_shuffle",
	BitWidthReduction: "bit_width_reduction", PositiveDelta: "positive_delta",
	ScaleFloat: "scale_float", ChecksumMd5: "checksum_md5", ChecksumSha256: "checksum_sha256",
	Xor: "xor", WebP: "webp",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// WebPFormat is the recognized input_format option value for a WebP filter.
type WebPFormat uint8

const (
	RGB WebPFormat = iota
	BGR
	RGBA
	BGRA
)

// Options holds the recognized option keys per kind (spec.md section 3).
// Every field is optional; Filter.Validate checks that only the fields
// relevant to its Kind are set.
type Options struct {
	Level               *int32
	ReinterpretDatatype  *datatype.Datatype
	MaxWindow            *uint32
	ScaleFloatByteWidth  *uint64
	ScaleFloatFactor     *float64
	ScaleFloatOffset     *float64
	WebPInputFormat      *WebPFormat
	WebPLossless         *bool
	WebPQuality          *float32
}

// Filter is one stage of a FilterList.
type Filter struct {
	Kind    Kind
	Options Options
}

// New constructs a Filter after validating that only the option keys
// recognized for kind are populated.
func New(kind Kind, opts Options) (Filter, error) {
	f := Filter{Kind: kind, Options: opts}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Validate reports a tiledberr.InvalidArgument if opts carries a key not
// recognized for f.Kind.
func (f Filter) Validate() error {
	o := f.Options
	isCompression := f.Kind == Bzip2 || f.Kind == Gzip || f.Kind == Lz4 ||
		f.Kind == Zstd || f.Kind == Delta || f.Kind == DoubleDelta || f.Kind == Dictionary || f.Kind == Rle

	if o.Level != nil && !isCompression {
		return tiledberr.Invalid(fmt.Sprintf("filter %s does not accept option level", f.Kind))
	}
	if o.ReinterpretDatatype != nil && !isCompression {
		return tiledberr.Invalid(fmt.Sprintf("filter %s does not accept option reinterpret_datatype", f.Kind))
	}
	if o.MaxWindow != nil && f.Kind != BitWidthReduction && f.Kind != PositiveDelta {
		return tiledberr.Invalid(fmt.Sprintf("filter %s does not accept option max_window", f.Kind))
	}
	scaleFloatOptSet := o.ScaleFloatByteWidth != nil || o.ScaleFloatFactor != nil || o.ScaleFloatOffset != nil
	if scaleFloatOptSet && f.Kind != ScaleFloat {
		return tiledberr.Invalid(fmt.Sprintf("filter %s does not accept scale_float options", f.Kind))
	}
	webPOptSet := o.WebPInputFormat != nil || o.WebPLossless != nil || o.WebPQuality != nil
	if webPOptSet && f.Kind != WebP {
		return tiledberr.Invalid(fmt.Sprintf("filter %s does not accept webp options", f.Kind))
	}
	return nil
}

// List is an ordered FilterList with an optional max_chunk_size.
type List struct {
	Filters      []Filter
	MaxChunkSize *uint32
}

// WithMaxChunkSize returns a copy of l with MaxChunkSize set, validated to
// be > 0 (spec.md's "SUPPLEMENTED FEATURES": stored and validated here even
// though chunking behavior belongs to the external tile engine).
func (l List) WithMaxChunkSize(n uint32) (List, error) {
	if n == 0 {
		return List{}, tiledberr.Invalid("max_chunk_size must be > 0")
	}
	out := List{Filters: append([]Filter(nil), l.Filters...), MaxChunkSize: &n}
	return out, nil
}

// Append returns a copy of l with f appended.
func (l List) Append(f Filter) List {
	out := List{Filters: append(append([]Filter(nil), l.Filters...), f), MaxChunkSize: l.MaxChunkSize}
	return out
}

// Len is the number of filters in the pipeline.
func (l List) Len() int { return len(l.Filters) }
