package bootstrap

import (
	"fmt"
	"unsafe"

	"github.com/cezamee/xdpscan/internal/xdpring"
	"github.com/cezamee/xdpscan/internal/xsock"
)

// txRing builds a TX ring producer on sock, sized ringSize. Every
// socket this package creates has a TX ring; only the full (non
// sender-only) sockets additionally get FILL/RX/COMPLETION rings, built
// by fullRings below.
func txRing(sock *xsock.Socket, ringSize uint32) (*xdpring.Producer[xdpring.Descriptor], error) {
	if err := sock.SetRingSize(xsock.RingTX, ringSize); err != nil {
		return nil, err
	}
	off, err := sock.MmapOffsets()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: mmap offsets: %w", err)
	}
	prod, cons, flags, entries, err := sock.MmapRing(xsock.RingTX, off.TX, ringSize, unsafe.Sizeof(xdpring.Descriptor{}))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: mmap tx ring: %w", err)
	}
	return xdpring.NewTXProducer(prod, cons, flags, xdpring.AsDescriptors(entries)), nil
}

// fullRings builds all four rings on sock: TX, FILL, RX, COMPLETION.
// Used for the base socket and every shared-UMEM "full" socket (one per
// queue), which both send and receive.
func fullRings(sock *xsock.Socket, ringSize uint32) (tx *xdpring.Producer[xdpring.Descriptor], fr *xdpring.Producer[uint64], rx *xdpring.Consumer[xdpring.Descriptor], cr *xdpring.Consumer[uint64], err error) {
	for _, kind := range []xsock.RingKind{xsock.RingTX, xsock.RingFill, xsock.RingRX, xsock.RingCompletion} {
		if err = sock.SetRingSize(kind, ringSize); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("bootstrap: set ring size (%d): %w", kind, err)
		}
	}

	off, err := sock.MmapOffsets()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("bootstrap: mmap offsets: %w", err)
	}

	txProd, txCons, txFlags, txEntries, err := sock.MmapRing(xsock.RingTX, off.TX, ringSize, unsafe.Sizeof(xdpring.Descriptor{}))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("bootstrap: mmap tx ring: %w", err)
	}
	tx = xdpring.NewTXProducer(txProd, txCons, txFlags, xdpring.AsDescriptors(txEntries))

	frProd, frCons, frFlags, frEntries, err := sock.MmapRing(xsock.RingFill, off.Fill, ringSize, 8)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("bootstrap: mmap fill ring: %w", err)
	}
	fr = xdpring.NewFillProducer(frProd, frCons, frFlags, xdpring.AsAddrs(frEntries))

	rxProd, rxCons, rxFlags, rxEntries, err := sock.MmapRing(xsock.RingRX, off.RX, ringSize, unsafe.Sizeof(xdpring.Descriptor{}))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("bootstrap: mmap rx ring: %w", err)
	}
	rx = xdpring.NewRXConsumer(rxProd, rxCons, rxFlags, xdpring.AsDescriptors(rxEntries))

	crProd, crCons, crFlags, crEntries, err := sock.MmapRing(xsock.RingCompletion, off.Completion, ringSize, 8)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("bootstrap: mmap completion ring: %w", err)
	}
	cr = xdpring.NewCompletionConsumer(crProd, crCons, crFlags, xdpring.AsAddrs(crEntries))

	return tx, fr, rx, cr, nil
}
