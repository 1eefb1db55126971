package netutil

import (
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// InterfaceMAC reads /sys/class/net/<name>/address, matching
// interface.rs's own direct sysfs read.
func InterfaceMAC(name string) ([6]byte, error) {
	b, err := os.ReadFile("/sys/class/net/" + name + "/address")
	if err != nil {
		return [6]byte{}, fmt.Errorf("netutil: reading interface mac: %w", err)
	}
	return ParseMAC(strings.TrimSpace(string(b)))
}

// InterfaceIndex resolves an interface name to its kernel ifindex via
// if_nametoindex(3).
func InterfaceIndex(name string) (uint32, error) {
	idx, err := unix.IfNametoindex(name)
	if err != nil {
		return 0, fmt.Errorf("netutil: resolving interface index for %q: %w", name, err)
	}
	return idx, nil
}

// LocalIPv4 returns the first IPv4 address assigned to name.
func LocalIPv4(name string) ([4]byte, error) {
	var out [4]byte
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return out, fmt.Errorf("netutil: looking up interface %q: %w", name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return out, fmt.Errorf("netutil: listing addresses for %q: %w", name, err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		v4 := ipNet.IP.To4()
		if v4 == nil {
			continue
		}
		copy(out[:], v4)
		return out, nil
	}
	return out, fmt.Errorf("netutil: no ipv4 address found on interface %q", name)
}
