// Package scanner ties the range compiler, the keyed shuffle, the TCP
// codec, and the AF_XDP rings together into the two roles that touch
// the TX path: Sender, shared with the responder for reply frames, and
// Scanner, which drives the SYN sweep.
package scanner

import "github.com/cezamee/xdpscan/internal/umem"

// Shared is the immutable per-session context every sender and receiver
// needs: source IP, gateway/NIC MACs, ephemeral source port range,
// cookie seed, and the UMEM handle.
type Shared struct {
	Umem *umem.Arena

	SourceIP    [4]byte
	GatewayMAC  [6]byte
	InterfaceMAC [6]byte

	SourcePortLo, SourcePortHi uint16

	Seed uint64
}
