// Package responder implements the stateless-scan handshake state
// machine: per-(ip,port) connection state, SYN-cookie validation on
// SYN-ACK, payload dispatch, banner reassembly across segments, and
// teardown.
package responder

import (
	"github.com/cezamee/xdpscan/internal/scanner"
	"github.com/cezamee/xdpscan/internal/umem"
	"github.com/cezamee/xdpscan/internal/xdpring"
	"github.com/cezamee/xdpscan/internal/xsock"
)

// Receiver owns a FILL producer and an RX consumer for one queue. Each
// Receive call that finds an RX descriptor ready hands back the frame
// bytes plus a release callback that must be invoked once the caller is
// done reading them; the callback returns the frame to the FILL ring.
type Receiver struct {
	shared *scanner.Shared
	socket *xsock.Socket
	fr     *xdpring.Producer[uint64]
	rx     *xdpring.Consumer[xdpring.Descriptor]
}

// NewReceiver seeds the FILL ring with every frame in [startingFrame,
// startingFrame+size) so the kernel has somewhere to land RX traffic
// immediately.
func NewReceiver(shared *scanner.Shared, socket *xsock.Socket, fr *xdpring.Producer[uint64], rx *xdpring.Consumer[xdpring.Descriptor], startingFrame uint32) *Receiver {
	size := fr.Size()
	index, ok := fr.Reserve(size)
	if !ok {
		panic("responder: could not reserve initial fill ring capacity")
	}
	for i := uint32(0); i < size; i++ {
		*fr.At(index + i) = uint64(startingFrame+i) * uint64(shared.Umem.FrameSize())
	}
	fr.Submit(size)

	return &Receiver{shared: shared, socket: socket, fr: fr, rx: rx}
}

// Receive checks whether an RX descriptor is ready. If none is ready it
// returns ok=false without touching the FILL ring; the caller should try
// again. Otherwise it reserves one fill slot (spinning with a wakeup
// poke if the kernel asked for one), which release fills and submits.
func (r *Receiver) Receive() (data []byte, release func(), ok bool) {
	rxIndex, _, peeked := r.rx.Peek(1)
	if !peeked {
		return nil, nil, false
	}

	var fillIndex uint32
	for {
		if r.fr.NeedsWakeup() {
			_ = r.socket.Wake(false)
		}
		if i, reserved := r.fr.Reserve(1); reserved {
			fillIndex = i
			break
		}
	}

	desc := r.rx.At(rxIndex)
	base, offset := umem.DecodeAddr(desc.Addr)
	frame := r.shared.Umem.At(base+offset, desc.Len)

	release = func() {
		r.rx.Release(1)
		*r.fr.At(fillIndex) = base
		r.fr.Submit(1)
	}
	return frame, release, true
}
