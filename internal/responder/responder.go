package responder

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ReneKroon/ttlcache/v2"

	"github.com/cezamee/xdpscan/internal/codec"
	"github.com/cezamee/xdpscan/internal/protocol"
)

// packetSender is the subset of scanner.Sender the responder needs;
// declared here so tests can substitute a recorder without a real
// AF_XDP ring behind it.
type packetSender interface {
	Send(flags codec.Flags, destIP [4]byte, sourcePort, destPort uint16, seq, ack uint32, body []byte) error
}

// frameSource is the subset of Receiver the responder needs.
type frameSource interface {
	Receive() (data []byte, release func(), ok bool)
}

// state is the per-connection handshake state, keyed by (peer_ip,
// peer_port): accumulated banner bytes, the sequence we last sent (for
// retransmits), the sequence we expect next, an ack we're still
// awaiting, and whether we've already sent our FIN.
type state struct {
	data []byte

	hasNextSeq bool
	nextSeq    uint32

	nextExpectedSeq uint32

	hasNextExpectedAck bool
	nextExpectedAck    uint32

	finSent bool
}

// Responder drives the handshake state machine for one queue's RX
// traffic. T is the parser's output type (e.g. slp.Response).
type Responder[T any] struct {
	payload protocol.Payload
	parser  protocol.Parser[T]

	sender   packetSender
	receiver frameSource
	seed     uint64

	connections *ttlcache.Cache
}

// Record is a successfully parsed banner, ready for the sink.
type Record[T any] struct {
	IP      uint32
	Port    uint16
	Payload T
}

// New builds a Responder with a TTL-evicted connection map; entries
// idle longer than pingTimeout are expired by ttlcache's own background
// expiration and are never returned by a later lookup.
func New[T any](payload protocol.Payload, parser protocol.Parser[T], sender packetSender, receiver frameSource, seed uint64, pingTimeout time.Duration) *Responder[T] {
	connections := ttlcache.NewCache()
	connections.SetTTL(pingTimeout)
	return &Responder[T]{
		payload:     payload,
		parser:      parser,
		sender:      sender,
		receiver:    receiver,
		seed:        seed,
		connections: connections,
	}
}

func connKey(ip uint32, port uint16) string {
	return fmt.Sprintf("%d:%d", ip, port)
}

// Tick processes at most one RX frame. It returns ok=false when there
// was nothing to process this call.
func (r *Responder[T]) Tick() (rec Record[T], ok bool) {
	data, release, got := r.receiver.Receive()
	if !got {
		return rec, false
	}
	defer release()

	if len(data) < 34 {
		return rec, false
	}

	ip := binary.BigEndian.Uint32(data[26:30])
	ihl := int(data[14]&0x0F) * 4
	tcpStart := 14 + ihl
	if len(data) < tcpStart+20 {
		return rec, false
	}

	port := binary.BigEndian.Uint16(data[tcpStart : tcpStart+2])
	destPort := binary.BigEndian.Uint16(data[tcpStart+2 : tcpStart+4])
	seq := binary.BigEndian.Uint32(data[tcpStart+4 : tcpStart+8])
	ack := binary.BigEndian.Uint32(data[tcpStart+8 : tcpStart+12])
	flags := codec.Flags(data[tcpStart+13])

	key := connKey(ip, port)

	var ipBytes [4]byte
	binary.BigEndian.PutUint32(ipBytes[:], ip)

	switch {
	case flags&codec.FlagRst != 0:
		return rec, false

	case flags&codec.FlagFin != 0:
		return r.handleFin(ipBytes, ip, port, destPort, seq, ack, key)

	case flags&codec.FlagSyn != 0 && flags&codec.FlagAck != 0:
		return r.handleSynAck(ipBytes, ip, port, destPort, seq, ack, key)

	case flags&codec.FlagAck != 0:
		headerLen := int((data[tcpStart+12] & 0xF0) >> 2)
		payloadStart := tcpStart + headerLen
		if payloadStart > len(data) {
			return rec, false
		}
		payload := data[payloadStart:]
		return r.handleAck(ipBytes, ip, port, destPort, seq, ack, payload, key)
	}

	return rec, false
}

// handleFin answers a peer FIN. If the connection is unknown or
// forgotten (evicted by TTL, or simply never seen, e.g. a stray FIN
// from a prior scan), it still answers with a bare ACK rather than
// silently dropping it, acknowledging at the TCP level even with no
// scan state behind it.
func (r *Responder[T]) handleFin(ipBytes [4]byte, ip uint32, port, destPort uint16, seq, ack uint32, key string) (rec Record[T], ok bool) {
	v, err := r.connections.Get(key)
	if err != nil {
		_ = r.sender.Send(codec.FlagAck, ipBytes, destPort, port, ack, seq+1, nil)
		return rec, false
	}
	st := v.(*state)
	if !st.hasNextSeq {
		return rec, false
	}

	flags := codec.FlagAck
	if !st.finSent {
		st.finSent = true
		flags = codec.FlagFin | codec.FlagAck
	}
	_ = r.sender.Send(flags, ipBytes, destPort, port, st.nextSeq, seq+1, nil)

	if len(st.data) != 0 {
		_ = r.connections.Remove(key)
	}
	return rec, false
}

func (r *Responder[T]) handleSynAck(ipBytes [4]byte, ip uint32, port, destPort uint16, seq, ack uint32, key string) (rec Record[T], ok bool) {
	if ack != codec.Cookie(ip, port, r.seed)+1 {
		return rec, false
	}

	body, err := r.payload.Build(ip, port)
	if err != nil {
		_ = r.sender.Send(codec.FlagRst, ipBytes, destPort, port, ack, seq+1, nil)
		return rec, false
	}

	_ = r.sender.Send(codec.FlagPsh|codec.FlagAck, ipBytes, destPort, port, ack, seq+1, body)

	r.connections.Set(key, &state{
		nextExpectedSeq:    0,
		hasNextExpectedAck: true,
		nextExpectedAck:    ack + uint32(len(body)),
	})
	return rec, false
}

func (r *Responder[T]) handleAck(ipBytes [4]byte, ip uint32, port, destPort uint16, seq, ack uint32, payload []byte, key string) (rec Record[T], ok bool) {
	v, err := r.connections.Get(key)
	if err != nil {
		return rec, false
	}
	st := v.(*state)

	if len(payload) == 0 {
		return rec, false
	}

	if st.hasNextExpectedAck {
		if ack != st.nextExpectedAck {
			return rec, false
		}
		st.hasNextExpectedAck = false
	} else if seq != st.nextExpectedSeq {
		flags := codec.FlagAck
		if st.finSent {
			flags = codec.FlagFin | codec.FlagAck
		}
		_ = r.sender.Send(flags, ipBytes, destPort, port, ack, st.nextExpectedSeq, nil)
		return rec, false
	}

	st.data = append(st.data, payload...)
	st.hasNextSeq = true
	st.nextSeq = ack
	st.nextExpectedSeq = seq + uint32(len(payload))

	out, perr := r.parser.Parse(ip, port, st.data)
	switch perr {
	case nil:
		_ = r.sender.Send(codec.FlagFin|codec.FlagAck, ipBytes, destPort, port, ack, st.nextExpectedSeq, nil)
		st.finSent = true
		return Record[T]{IP: ip, Port: port, Payload: out}, true

	case protocol.ErrInvalid:
		_ = r.connections.Remove(key)
		return rec, false

	case protocol.ErrIncomplete:
		_ = r.sender.Send(codec.FlagAck, ipBytes, destPort, port, ack, st.nextExpectedSeq, nil)
		return rec, false

	default:
		return rec, false
	}
}
