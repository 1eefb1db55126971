package netutil

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// GatewayIPv4 reads /proc/net/route looking for iface's gateway: rows
// whose Gateway column is 00000000 (directly connected routes) are
// skipped, and the Gateway column of the first remaining row for the
// interface is returned, matching gateway.rs's own loose matching rather
// than parsing the routing flags.
func GatewayIPv4(iface string) ([4]byte, error) {
	var out [4]byte
	f, err := os.Open("/proc/net/route")
	if err != nil {
		return out, fmt.Errorf("netutil: reading route table: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Scan() // header
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) < 3 || fields[2] == "00000000" || fields[0] != iface {
			continue
		}
		return parseLittleEndianHexIP(fields[2])
	}
	return out, fmt.Errorf("netutil: no gateway route found for interface %q", iface)
}

// GatewayMAC reads /proc/net/arp looking for the ARP entry matching ip.
func GatewayMAC(ip [4]byte) ([6]byte, error) {
	var out [6]byte
	f, err := os.Open("/proc/net/arp")
	if err != nil {
		return out, fmt.Errorf("netutil: reading arp table: %w", err)
	}
	defer f.Close()

	target := fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])

	sc := bufio.NewScanner(f)
	sc.Scan() // header
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 6 || fields[0] != target {
			continue
		}
		return ParseMAC(fields[3])
	}
	return out, fmt.Errorf("netutil: no arp entry found for %s", target)
}

// parseLittleEndianHexIP decodes /proc/net/route's little-endian hex
// IPv4 encoding (e.g. "0101A8C0" is 192.168.1.1).
func parseLittleEndianHexIP(s string) ([4]byte, error) {
	var out [4]byte
	if len(s) != 8 {
		return out, fmt.Errorf("netutil: invalid route ip length %d", len(s))
	}
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseUint(s[6-2*i:8-2*i], 16, 8)
		if err != nil {
			return out, fmt.Errorf("netutil: parsing route ip octet: %w", err)
		}
		out[i] = byte(v)
	}
	return out, nil
}
