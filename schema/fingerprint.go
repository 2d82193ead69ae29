package schema

import (
	"encoding/binary"

	"blainsmith.com/go/seahash"
)

// Fingerprint is a content checksum over s (blainsmith.com/go/seahash, the
// same library cmd/bio-pamtool/checksum.go uses for record-content
// checksums): schemas with equal hashed content yield equal fingerprints.
// No code in this module caches or keys anything on it.
func (s Schema) Fingerprint() uint64 {
	h := seahash.New()
	writeUint64 := func(v uint64) {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		_, _ = h.Write(b[:])
	}

	_, _ = h.Write([]byte{byte(s.ArrayType)})
	writeUint64(s.Capacity)
	_, _ = h.Write([]byte{byte(s.CellOrder), byte(s.TileOrder)})
	if s.AllowDuplicates {
		_, _ = h.Write([]byte{1})
	}
	for _, dim := range s.Domain.Dimensions {
		_, _ = h.Write([]byte(dim.Name))
		_, _ = h.Write([]byte{byte(dim.Datatype)})
		writeUint64(uint64(dim.CellValNum))
	}
	for _, a := range s.Attributes {
		_, _ = h.Write([]byte(a.Name))
		_, _ = h.Write([]byte{byte(a.Datatype)})
		writeUint64(uint64(a.CellValNum))
		if a.Nullable {
			_, _ = h.Write([]byte{1})
		}
	}
	for _, e := range s.Enumerations {
		writeUint64(e.Fingerprint())
	}
	return h.Sum64()
}
