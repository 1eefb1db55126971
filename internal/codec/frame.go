package codec

import "encoding/binary"

// TxMetaLen is the byte length of the TX metadata record a frame must
// carry immediately before its packet data once the UMEM registration
// negotiated XDP_UMEM_TX_METADATA_LEN: struct xsk_tx_metadata's request
// variant (8-byte flags, then a 16-bit csum_start and csum_offset).
const TxMetaLen = 12

// txmdFlagsChecksum is XDP_TXMD_FLAGS_CHECKSUM: ask the NIC to compute
// and write a checksum rather than timestamp the frame.
const txmdFlagsChecksum = 1 << 1

// csumStart and csumOffset locate the partial TCP checksum within the
// packet that follows the metadata record: the NIC's own checksum run
// starts at the TCP header (offset 34) and the field it completes sits
// 16 bytes into that run (offset 50, the TCP checksum word).
const (
	csumStart  = 34
	csumOffset = 16
)

// WriteTxMeta writes the 12-byte TX metadata request record at meta[0:12],
// requesting the NIC complete the partial checksum Writer.Write left in
// the packet that immediately follows it.
func WriteTxMeta(meta []byte) {
	binary.LittleEndian.PutUint64(meta[0:8], txmdFlagsChecksum)
	binary.LittleEndian.PutUint16(meta[8:10], csumStart)
	binary.LittleEndian.PutUint16(meta[10:12], csumOffset)
}

// Writer prefills TX frames with the constant parts of the template
// (destination/source MAC, source IP) once per frame, then rewrites only
// the fields that change per packet: the expensive bytes are copied once,
// the hot path touches only flags, destination IP, ports, sequence/ack,
// and the two checksums.
type Writer struct {
	sourceIPSum      uint32
	ipv4ChecksumBase uint32 // ipv4ChecksumConstant + sourceIPSum
}

// ipv4ChecksumConstant is the precomputed sum of every Template field
// fed into the IPv4 header checksum except the source and destination IP
// words: version/IHL/DSCP/total-length/identification/flags/TTL/protocol.
const ipv4ChecksumConstant uint32 = 50487

// NewWriter builds a Writer bound to a fixed source IP for the life of a
// session.
func NewWriter(sourceIP [4]byte) *Writer {
	s := IPv4Sum(sourceIP)
	return &Writer{sourceIPSum: s, ipv4ChecksumBase: ipv4ChecksumConstant + s}
}

// Prefill writes the constant header bytes into a UMEM frame: the
// template, destination MAC (gateway), source MAC (our interface), and
// our source IP. Call once per frame at pool construction.
func Prefill(frame []byte, gatewayMAC, interfaceMAC [6]byte, sourceIP [4]byte) {
	copy(frame[:HeaderLen], Template[:])
	copy(frame[0:6], gatewayMAC[:])
	copy(frame[6:12], interfaceMAC[:])
	copy(frame[26:30], sourceIP[:])
}

// Outgoing describes the per-packet fields a TCP segment needs; zero
// value SourcePort means "pick one from the caller's ephemeral range".
type Outgoing struct {
	Flags      Flags
	DestIP     [4]byte
	SourcePort uint16 // written as given; Write never randomizes, so the caller resolves 0 first
	DestPort   uint16
	Seq        uint32
	Ack        uint32
	Body       []byte
}

// Write overwrites the per-packet fields of a prefilled frame and returns
// the total frame length (header plus body). frame must be at least
// HeaderLen+len(pkt.Body) bytes and must already carry the bytes written
// by Prefill.
func (w *Writer) Write(frame []byte, pkt Outgoing) int {
	frame[47] = byte(pkt.Flags)

	copy(frame[30:34], pkt.DestIP[:])
	putU16(frame[34:36], pkt.SourcePort)
	putU16(frame[36:38], pkt.DestPort)
	putU32(frame[38:42], pkt.Seq)
	putU32(frame[42:46], pkt.Ack)

	destSum := IPv4Sum(pkt.DestIP)
	ipChecksum := FinalizeChecksum(w.ipv4ChecksumBase + destSum)

	segLen := 28 // fixed TCP header + options, no payload
	total := HeaderLen
	if len(pkt.Body) > 0 {
		total = HeaderLen + len(pkt.Body)
		segLen += len(pkt.Body)
		putU16(frame[16:18], uint16(48+len(pkt.Body)))
		copy(frame[HeaderLen:total], pkt.Body)
		ipChecksum -= uint16(len(pkt.Body))
	} else {
		putU16(frame[16:18], 48)
	}

	putU16(frame[24:26], ipChecksum)
	putU16(frame[50:52], RawPartial(w.sourceIPSum+destSum, segLen))

	return total
}

func putU16(b []byte, v uint16) { b[0] = byte(v >> 8); b[1] = byte(v) }
func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
