// Package netutil implements the OS probes bootstrap needs before it
// can attach XDP and construct sockets: gateway IPv4/MAC discovery,
// interface MAC and local IPv4 lookup, and ethtool queue-count
// discovery.
package netutil

import (
	"fmt"
	"net"
)

// ParseMAC wraps net.ParseMAC with the 6-byte-result check the AF_XDP
// prefill path relies on.
func ParseMAC(s string) ([6]byte, error) {
	var out [6]byte
	hw, err := net.ParseMAC(s)
	if err != nil {
		return out, fmt.Errorf("netutil: parsing mac %q: %w", s, err)
	}
	if len(hw) != 6 {
		return out, fmt.Errorf("netutil: mac %q is not 6 bytes", s)
	}
	copy(out[:], hw)
	return out, nil
}
