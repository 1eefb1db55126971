package umem

import "unsafe"

// unsafeAddr returns the address of a byte slice's backing array. Kept
// in its own function so the one `unsafe` use in this package is easy to
// audit.
func unsafeAddr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}
