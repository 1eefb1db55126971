// Package xsock wraps the kernel AF_XDP socket: creation, UMEM
// registration, ring-size options, bind, and the wakeup pokes.
package xsock

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/cezamee/xdpscan/internal/umem"
)

// AF_XDP wire constants. golang.org/x/sys/unix does not expose all of
// these as typed wrappers (the AF_XDP socket family is young enough
// that only the address family and a few option names are present), so
// the remainder are declared here directly from linux/if_xdp.h.
const (
	afXDP = 44 // AF_XDP
	pfXDP = 44 // PF_XDP

	solXDP = 283 // SOL_XDP

	xdpMmapOffsets       = 1
	xdpRXRing            = 2
	xdpTXRing            = 3
	xdpUmemReg           = 4
	xdpUmemFillRing      = 5
	xdpUmemCompletionRng = 6

	xdpCopy         = 1 << 1
	xdpZeroCopy     = 1 << 2
	xdpUseNeedWake  = 1 << 3
	xdpSharedUmem   = 1 << 0
	xdpUseSg        = 1 << 4
	xdpRingNeedWake = 1 << 0

	xdpUmemTxMetadataLen = 1 << 2 // xdp_umem_reg.flags: accept a TX metadata record ahead of each frame

	soPreferBusyPoll = 69
	soBusyPoll       = 46
	soBusyPollBudget = 70
)

// BindFlags are the XDP_ZEROCOPY/XDP_COPY/XDP_USE_NEED_WAKEUP/
// XDP_SHARED_UMEM bind() option bits.
type BindFlags uint16

const (
	FlagCopy        BindFlags = xdpCopy
	FlagZeroCopy    BindFlags = xdpZeroCopy
	FlagNeedWakeup  BindFlags = xdpUseNeedWake
	FlagSharedUmem  BindFlags = xdpSharedUmem
	FlagUseSG       BindFlags = xdpUseSg
	RingNeedsWakeup           = xdpRingNeedWake
)

// UmemFlagTxMetadata is XDP_UMEM_TX_METADATA_LEN, the xdp_umem_reg.flags
// bit requesting the kernel accept a per-frame TX metadata record ahead
// of packet data (NIC checksum offload, timestamping).
const UmemFlagTxMetadata = xdpUmemTxMetadataLen

// umemReg matches struct xdp_umem_reg from linux/if_xdp.h.
type umemReg struct {
	Addr          uint64
	Len           uint64
	ChunkSize     uint32
	Headroom      uint32
	Flags         uint32
	TxMetadataLen uint32
}

// ringOffset and mmapOffsets match struct xdp_ring_offset /
// xdp_mmap_offsets.
type ringOffset struct {
	Producer uint64
	Consumer uint64
	Desc     uint64
	Flags    uint64
}

type mmapOffsets struct {
	RX, TX, Fill, Completion ringOffset
}

// sockaddrXDP matches struct sockaddr_xdp.
type sockaddrXDP struct {
	Family        uint16
	Flags         uint16
	IfIndex       uint32
	QueueID       uint32
	SharedUmemFD  uint32
}

// Socket is an AF_XDP endpoint. It owns its file descriptor; Close
// releases it. Multiple Sockets may share one UMEM registration,
// including send-only sockets that never build RX/FILL rings.
type Socket struct {
	fd int
}

// New opens a raw AF_XDP socket.
func New() (*Socket, error) {
	fd, _, errno := unix.Syscall(unix.SYS_SOCKET, uintptr(afXDP), uintptr(unix.SOCK_RAW|unix.SOCK_CLOEXEC), 0)
	if errno != 0 {
		return nil, fmt.Errorf("xsock: socket: %w", errno)
	}
	return &Socket{fd: int(fd)}, nil
}

// Close releases the socket's file descriptor.
func (s *Socket) Close() error { return unix.Close(s.fd) }

// FD returns the raw file descriptor, for insertion into the XSK
// redirect map.
func (s *Socket) FD() int { return s.fd }

func (s *Socket) setOpt(level, name int, ptr unsafe.Pointer, size uintptr) error {
	_, _, errno := unix.Syscall6(unix.SYS_SETSOCKOPT, uintptr(s.fd), uintptr(level), uintptr(name), uintptr(ptr), size, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func (s *Socket) getOpt(level, name int, ptr unsafe.Pointer, size uintptr) error {
	sz := size
	_, _, errno := unix.Syscall6(unix.SYS_GETSOCKOPT, uintptr(s.fd), uintptr(level), uintptr(name), uintptr(ptr), uintptr(unsafe.Pointer(&sz)), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// SetUmemReg issues XDP_UMEM_REG for the arena's base registration.
func (s *Socket) SetUmemReg(reg umem.Registration) error {
	r := umemReg{
		Addr:          uint64(reg.Addr),
		Len:           reg.Len,
		ChunkSize:     reg.FrameSize,
		Headroom:      reg.Headroom,
		Flags:         reg.Flags,
		TxMetadataLen: reg.TxMetadataLen,
	}
	if err := s.setOpt(solXDP, xdpUmemReg, unsafe.Pointer(&r), unsafe.Sizeof(r)); err != nil {
		return fmt.Errorf("xsock: XDP_UMEM_REG: %w", err)
	}
	return nil
}

// RingKind names one of the four AF_XDP rings a socket can carry.
type RingKind int

const (
	RingTX RingKind = iota
	RingRX
	RingFill
	RingCompletion
)

func (k RingKind) optName() int {
	switch k {
	case RingTX:
		return xdpTXRing
	case RingRX:
		return xdpRXRing
	case RingFill:
		return xdpUmemFillRing
	case RingCompletion:
		return xdpUmemCompletionRng
	default:
		panic("xsock: unknown ring kind")
	}
}

// SetRingSize sets the requested capacity for one of the four ring
// kinds, prior to mmap'ing it.
func (s *Socket) SetRingSize(kind RingKind, size uint32) error {
	if err := s.setOpt(solXDP, kind.optName(), unsafe.Pointer(&size), unsafe.Sizeof(size)); err != nil {
		return fmt.Errorf("xsock: set ring size (%d): %w", kind, err)
	}
	return nil
}

// MmapOffsets retrieves the layout the kernel chose for the four rings,
// via XDP_MMAP_OFFSETS, needed before mmap'ing each ring's memory.
func (s *Socket) MmapOffsets() (mmapOffsets, error) {
	var off mmapOffsets
	if err := s.getOpt(solXDP, xdpMmapOffsets, unsafe.Pointer(&off), unsafe.Sizeof(off)); err != nil {
		return off, fmt.Errorf("xsock: XDP_MMAP_OFFSETS: %w", err)
	}
	return off, nil
}

// SetBusyPoll enables SO_PREFER_BUSY_POLL/SO_BUSY_POLL/SO_BUSY_POLL_BUDGET
// so the kernel polls the NAPI context instead of waiting for an
// interrupt, trading CPU for latency on a busy receive queue.
func (s *Socket) SetBusyPoll(budget int32) error {
	one := int32(1)
	if err := s.setOpt(unix.SOL_SOCKET, soPreferBusyPoll, unsafe.Pointer(&one), unsafe.Sizeof(one)); err != nil {
		return fmt.Errorf("xsock: SO_PREFER_BUSY_POLL: %w", err)
	}
	timeout := int32(1000)
	if err := s.setOpt(unix.SOL_SOCKET, soBusyPoll, unsafe.Pointer(&timeout), unsafe.Sizeof(timeout)); err != nil {
		return fmt.Errorf("xsock: SO_BUSY_POLL: %w", err)
	}
	if err := s.setOpt(unix.SOL_SOCKET, soBusyPollBudget, unsafe.Pointer(&budget), unsafe.Sizeof(budget)); err != nil {
		return fmt.Errorf("xsock: SO_BUSY_POLL_BUDGET: %w", err)
	}
	return nil
}

// Bind attaches the socket to (ifIndex, queueID) with the given flags.
// sharedUmemFD is the base socket's FD when flags includes
// FlagSharedUmem, else 0.
func (s *Socket) Bind(flags BindFlags, ifIndex, queueID, sharedUmemFD uint32) error {
	addr := sockaddrXDP{
		Family:       uint16(pfXDP),
		Flags:        uint16(flags),
		IfIndex:      ifIndex,
		QueueID:      queueID,
		SharedUmemFD: sharedUmemFD,
	}
	_, _, errno := unix.Syscall(unix.SYS_BIND, uintptr(s.fd), uintptr(unsafe.Pointer(&addr)), unsafe.Sizeof(addr))
	if errno != 0 {
		return fmt.Errorf("xsock: bind: %w", errno)
	}
	return nil
}

// Wake issues a zero-length sendto/recvfrom, the AF_XDP convention for
// waking the kernel's TX/RX processing when a ring's NEED_WAKEUP flag
// is set. tx selects sendto (TX/FILL rings) vs recvfrom (RX/COMPLETION).
func (s *Socket) Wake(tx bool) error {
	var errno error
	if tx {
		_, _, e := unix.Syscall6(unix.SYS_SENDTO, uintptr(s.fd), 0, 0, uintptr(unix.MSG_DONTWAIT), 0, 0)
		if e != 0 {
			errno = e
		}
	} else {
		_, _, e := unix.Syscall6(unix.SYS_RECVFROM, uintptr(s.fd), 0, 0, uintptr(unix.MSG_DONTWAIT), 0, 0)
		if e != 0 {
			errno = e
		}
	}
	if errno != nil {
		if errno == unix.EAGAIN || errno == unix.EWOULDBLOCK || errno == unix.EBUSY {
			return nil
		}
		return fmt.Errorf("xsock: wakeup: %w", errno)
	}
	return nil
}

// MmapRing maps the ring region for kind at the kernel-reported page
// offset, returning the producer/consumer/flags words and the entry
// area as a byte slice for the caller to reinterpret.
func (s *Socket) MmapRing(kind RingKind, off ringOffset, size uint32, entrySize uintptr) (prod, cons, flags *uint32, entries []byte, err error) {
	length := int(off.Desc) + int(size)*int(entrySize)
	pageOffset := ringPageOffset(kind)

	mem, err := unix.Mmap(s.fd, pageOffset, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("xsock: mmap ring %d: %w", kind, err)
	}

	base := unsafe.Pointer(&mem[0])
	prod = (*uint32)(unsafe.Add(base, off.Producer))
	cons = (*uint32)(unsafe.Add(base, off.Consumer))
	flags = (*uint32)(unsafe.Add(base, off.Flags))
	entries = mem[off.Desc:]
	return prod, cons, flags, entries, nil
}

func ringPageOffset(kind RingKind) int64 {
	// linux/if_xdp.h page offsets for mmap(2).
	const (
		pgoffRX   = 0
		pgoffTX   = 0x80000000
		pgoffFill = 0x100000000
		pgoffComp = 0x180000000
	)
	switch kind {
	case RingTX:
		return pgoffTX
	case RingRX:
		return pgoffRX
	case RingFill:
		return pgoffFill
	case RingCompletion:
		return pgoffComp
	default:
		panic("xsock: unknown ring kind")
	}
}
