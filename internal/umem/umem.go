// Package umem implements the UMEM frame arena: a single page-aligned
// allocation shared with the kernel and partitioned into fixed-size
// frames.
package umem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// alignment is the large-page boundary the arena is aligned to (16 KiB).
const alignment = 16 * 1024

// Registration is the record the socket layer passes to XDP_UMEM_REG.
type Registration struct {
	Addr          uintptr
	Len           uint64
	FrameSize     uint32
	Headroom      uint32
	Flags         uint32
	TxMetadataLen uint32
}

// Arena is a zero-copy frame buffer shared with the kernel. Frame
// addresses in [0, FrameCount*FrameSize) are disjoint by construction;
// callers partition those addresses by (queue, role) themselves (see
// internal/bootstrap), the arena does not track ownership.
type Arena struct {
	mem       []byte
	frameSize uint32
	frames    uint32
}

// New mmaps an anonymous, page-aligned region big enough for frameCount
// frames of frameSize bytes each and zero-initializes it. The mapping is
// shared with the kernel once registered via Reg.
func New(frameSize uint32, frameCount uint32) (*Arena, error) {
	if frameSize == 0 || frameCount == 0 {
		return nil, fmt.Errorf("umem: frameSize and frameCount must be non-zero")
	}
	total := int(frameSize) * int(frameCount)
	// round up to the alignment boundary; mmap already returns
	// page-aligned memory, but we size generously so the UMEM
	// registration's reported length matches a large-page multiple.
	if rem := total % alignment; rem != 0 {
		total += alignment - rem
	}

	mem, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("umem: mmap %d bytes: %w", total, err)
	}

	return &Arena{mem: mem, frameSize: frameSize, frames: frameCount}, nil
}

// Close unmaps the arena. It must only be called after every socket
// bound to it has been closed.
func (a *Arena) Close() error {
	if a.mem == nil {
		return nil
	}
	err := unix.Munmap(a.mem)
	a.mem = nil
	return err
}

// FrameSize returns the configured per-frame size.
func (a *Arena) FrameSize() uint32 { return a.frameSize }

// FrameCount returns the number of frames in the arena.
func (a *Arena) FrameCount() uint32 { return a.frames }

// Len returns the mapped length in bytes.
func (a *Arena) Len() int { return len(a.mem) }

// Addr returns the base address of the mapping, for registration.
func (a *Arena) Addr() uintptr {
	return uintptr(unsafeAddr(a.mem))
}

// Frame returns the byte slice backing frame index i. The slice aliases
// the arena's memory directly; writes are visible to the kernel.
func (a *Arena) Frame(i uint32) []byte {
	start := uint64(i) * uint64(a.frameSize)
	return a.mem[start : start+uint64(a.frameSize)]
}

// At returns the byte slice at a raw UMEM byte offset and length, as used
// when reading an RX/TX descriptor's {addr, len} pair directly.
func (a *Arena) At(addr uint64, length uint32) []byte {
	return a.mem[addr : addr+uint64(length)]
}

// unalignedBufOffsetShift and unalignedBufAddrMask decode a descriptor
// address under the AF_XDP unaligned chunk convention: the low 48 bits
// are the base chunk address, the high 16 bits are a headroom offset
// within that chunk.
const (
	unalignedBufOffsetShift = 48
	unalignedBufAddrMask    = (uint64(1) << unalignedBufOffsetShift) - 1
)

// DecodeAddr splits a descriptor's addr field into its base chunk
// address and headroom offset.
func DecodeAddr(addr uint64) (base uint64, offset uint64) {
	base = addr & unalignedBufAddrMask
	offset = addr >> unalignedBufOffsetShift
	return base, offset
}

// Reg builds the registration record for XDP_UMEM_REG. headroom is 0 and
// flags/txMetadataLen are set by the caller when TX checksum-offload
// metadata (XDP_UMEM_TX_METADATA_LEN) is negotiated.
func (a *Arena) Reg(flags uint32, txMetadataLen uint32) Registration {
	return Registration{
		Addr:          a.Addr(),
		Len:           uint64(len(a.mem)),
		FrameSize:     a.frameSize,
		Headroom:      0,
		Flags:         flags,
		TxMetadataLen: txMetadataLen,
	}
}
