// Package querybuffer implements QueryBuffer: the typed data/offsets/
// validity triple a caller binds to a Query field, its borrowed-vs-owned
// ownership state machine, the doubling scratch allocator, and post-read
// aggregates (spec.md sections 4.5 and the SUPPLEMENTED FEATURES in
// SPEC_FULL.md).
//
// The doubling growth policy is grounded directly on
// pam/fieldio/bytebuffer.go's ensure() (grow to next 16-byte-aligned size,
// but never less than double current capacity). The arena-style bulk
// allocation underneath is grounded on pam/fieldio/unsafearena.go.
package querybuffer

import (
	"encoding/binary"

	"github.com/minio/highwayhash"

	"github.com/grailbio/tiledb/tiledberr"
)

// Ownership distinguishes a borrowed (caller-memory) part from one owned
// (scratch-allocated) by this library.
type Ownership uint8

const (
	Borrowed Ownership = iota
	Owned
)

// borrowState tracks whether a part is exclusively borrowed by the engine
// during a submit, or shared/immutable between submits (spec.md section
// 4.5's "mutably owns its buffers between submit and result consumption").
type borrowState uint8

const (
	shared borrowState = iota
	exclusiveSubmit
)

var highwayKey [32]byte

// Part is one data/offsets/validity buffer: a byte slice with a filled
// length and a backing capacity, plus the bookkeeping needed to catch a
// buffer handed back to the engine after being mutated by the caller
// outside the submit protocol.
type Part struct {
	Bytes     []byte
	Length    int // bytes filled
	Ownership Ownership

	state       borrowState
	generation  uint64
	fingerprint [highwayhash.Size]byte
}

// NewOwnedPart allocates an owned, zeroed Part with the given capacity.
func NewOwnedPart(capacity int) Part {
	return Part{Bytes: make([]byte, capacity), Ownership: Owned}
}

// NewBorrowedPart wraps caller-owned memory. The caller is responsible for
// not mutating buf between beginSubmit and the matching endSubmit.
//
// buf is clipped to its own length (buf[:len(buf):len(buf)]) so Capacity()
// never picks up spare capacity the caller's append calls happened to leave
// behind -- beginSubmit's Length = Capacity() would otherwise tell the
// backend more bytes are valid than the caller actually wrote.
func NewBorrowedPart(buf []byte) Part {
	return Part{Bytes: buf[:len(buf):len(buf)], Ownership: Borrowed}
}

// Capacity is the number of bytes available in the part.
func (p *Part) Capacity() int { return cap(p.Bytes) }

func (p *Part) identity() [highwayhash.Size]byte {
	var key [16]byte
	if len(p.Bytes) > 0 {
		binary.LittleEndian.PutUint64(key[0:8], sliceDataAddr(p.Bytes))
	}
	binary.LittleEndian.PutUint64(key[8:16], p.generation)
	return highwayhash.Sum(key[:], highwayKey[:])
}

// beginSubmit resets Length to Capacity (the engine writes back the actual
// length once submit returns) and exclusively borrows the part for the
// duration of the call, fingerprinting its identity so endSubmit can detect a
// part whose backing array changed underneath it without going through this
// state machine (spec.md section 5: "Buffers during submit are effectively
// borrowed mutably by the engine; the core must enforce this statically or
// with a runtime borrow check").
func (p *Part) beginSubmit() {
	p.Length = p.Capacity()
	p.state = exclusiveSubmit
	p.fingerprint = p.identity()
}

// endSubmit releases the exclusive borrow, recording the actual bytes
// written by the backend.
func (p *Part) endSubmit(writtenLength int) error {
	if p.state != exclusiveSubmit {
		return tiledberr.Buffers("endSubmit called on a part that was not submitted")
	}
	if p.identity() != p.fingerprint {
		return tiledberr.Buffers("buffer identity changed during submit (caller mutated a buffer mid-call)")
	}
	p.Length = writtenLength
	p.state = shared
	return nil
}

// double grows an Owned part to (at least) twice its capacity, copying
// filled bytes forward; a no-op on Borrowed parts, since those "require
// caller action" per spec.md section 4.5.
func (p *Part) double() {
	if p.Ownership != Owned {
		return
	}
	newCap := p.Capacity() * 2
	if newCap == 0 {
		newCap = minScratchCapacity
	}
	newBuf := make([]byte, newCap)
	copy(newBuf, p.Bytes[:p.Length])
	p.Bytes = newBuf
	p.generation++
}
