package querybuffer

import "unsafe"

// sliceDataAddr returns the address of b's backing array as a uint64, used
// only as an identity key for the borrow-check fingerprint in part.go -- it
// is never dereferenced.
func sliceDataAddr(b []byte) uint64 {
	return uint64(uintptr(unsafe.Pointer(&b[0])))
}
