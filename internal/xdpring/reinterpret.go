package xdpring

import "unsafe"

// AsDescriptors reinterprets a mmap'd ring entry region as a Descriptor
// slice (RX/TX rings), aliasing the same memory.
func AsDescriptors(b []byte) []Descriptor {
	n := len(b) / int(unsafe.Sizeof(Descriptor{}))
	return unsafe.Slice((*Descriptor)(unsafe.Pointer(&b[0])), n)
}

// AsAddrs reinterprets a mmap'd ring entry region as a uint64 address
// slice (FILL/COMPLETION rings), aliasing the same memory.
func AsAddrs(b []byte) []uint64 {
	n := len(b) / 8
	return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), n)
}
