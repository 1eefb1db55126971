package scanner

import (
	"math/rand/v2"

	"github.com/cezamee/xdpscan/internal/codec"
	"github.com/cezamee/xdpscan/internal/xdpring"
	"github.com/cezamee/xdpscan/internal/xsock"
)

// Sender owns a TX ring producer and the frames it was allocated: a
// full socket at queue q owns [2·q·R, (2·q+1)·R); additional send-only
// sockets get their own disjoint range past every full socket's
// allocation (the caller passes startingFrame accordingly).
type Sender struct {
	shared *Shared
	socket *xsock.Socket
	tx     *xdpring.Producer[xdpring.Descriptor]
	writer *codec.Writer
}

// NewSender prefills every frame the ring was given with the constant
// template bytes plus this session's MACs/source IP, then wraps the TX
// producer for per-packet sends. Each frame reserves codec.TxMetaLen
// bytes ahead of its packet data for a TX metadata record: the
// descriptor address points past that record, at the packet itself, the
// kernel convention for XDP_TX_METADATA.
func NewSender(shared *Shared, socket *xsock.Socket, tx *xdpring.Producer[xdpring.Descriptor], startingFrame uint32) (*Sender, error) {
	size := tx.Size()
	for i := uint32(0); i < size; i++ {
		frameIndex := startingFrame + i
		base := uint64(frameIndex) * uint64(shared.Umem.FrameSize())
		addr := base + codec.TxMetaLen

		desc := tx.At(frameIndex)
		desc.Addr = addr
		desc.Options = xdpring.TXMetadata

		codec.WriteTxMeta(shared.Umem.At(base, codec.TxMetaLen))
		codec.Prefill(shared.Umem.At(addr, shared.Umem.FrameSize()-codec.TxMetaLen), shared.GatewayMAC, shared.InterfaceMAC, shared.SourceIP)
	}

	return &Sender{
		shared: shared,
		socket: socket,
		tx:     tx,
		writer: codec.NewWriter(shared.SourceIP),
	}, nil
}

// Send reserves a TX slot, writes the packet into its prefilled frame,
// and submits it. sourcePort of 0 picks a random ephemeral port from
// the session's configured range, mirroring sender.rs's
// `source_port.unwrap_or_else(|| rng.random_range(...))`.
func (s *Sender) Send(flags codec.Flags, destIP [4]byte, sourcePort, destPort uint16, seq, ack uint32, body []byte) error {
	if sourcePort == 0 {
		span := uint32(s.shared.SourcePortHi) - uint32(s.shared.SourcePortLo) + 1
		sourcePort = s.shared.SourcePortLo + uint16(rand.N(span))
	}

	var index uint32
	for {
		if s.tx.NeedsWakeup() {
			_ = s.socket.Wake(true)
		}
		if i, ok := s.tx.Reserve(1); ok {
			index = i
			break
		}
	}

	desc := s.tx.At(index)
	frame := s.shared.Umem.At(desc.Addr, s.shared.Umem.FrameSize()-codec.TxMetaLen)

	n := s.writer.Write(frame, codec.Outgoing{
		Flags:      flags,
		DestIP:     destIP,
		SourcePort: sourcePort,
		DestPort:   destPort,
		Seq:        seq,
		Ack:        ack,
		Body:       body,
	})
	desc.Len = uint32(n)

	s.tx.Submit(1)
	return nil
}
