package config

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/cezamee/xdpscan/internal/rangealgebra"
)

// LoadExcludes reads and parses an exclude file.
func LoadExcludes(filename string) ([]rangealgebra.IPRange, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: reading exclude file: %w", err)
	}
	return parseExcludes(string(data))
}

// parseExcludes implements a line-oriented exclude-list grammar: blank
// lines and `#` comments are ignored; each remaining line is one of
// `A.B.C.D`, `A.B.C.D/n`, or `A.B.C.D-E.F.G.H`.
func parseExcludes(input string) ([]rangealgebra.IPRange, error) {
	var ranges []rangealgebra.IPRange

	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		isSlash := strings.Contains(line, "/")
		isHyphen := strings.Contains(line, "-")
		if isSlash && isHyphen {
			return nil, fmt.Errorf("config: invalid exclude range %q (cannot contain both - and /)", line)
		}

		var r rangealgebra.IPRange
		var err error
		switch {
		case isSlash:
			r, err = parseCIDRExclude(line)
		case isHyphen:
			r, err = parseHyphenExclude(line)
		default:
			ip, perr := parseIPv4(line)
			if perr != nil {
				err = perr
			} else {
				r = rangealgebra.IPRange{StartIP: ip, EndIP: ip}
			}
		}
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}

	return ranges, nil
}

func parseCIDRExclude(line string) (rangealgebra.IPRange, error) {
	ipStr, bitsStr, ok := strings.Cut(line, "/")
	if !ok {
		return rangealgebra.IPRange{}, fmt.Errorf("config: malformed cidr exclude %q", line)
	}
	ip, err := parseIPv4(ipStr)
	if err != nil {
		return rangealgebra.IPRange{}, err
	}
	prefix, err := strconv.ParseUint(bitsStr, 10, 8)
	if err != nil || prefix > 32 {
		return rangealgebra.IPRange{}, fmt.Errorf("config: invalid cidr prefix %q", bitsStr)
	}

	var hostBits uint32
	if prefix < 32 {
		hostBits = ^uint32(0) >> prefix
	}
	return rangealgebra.IPRange{StartIP: ip &^ hostBits, EndIP: ip | hostBits}, nil
}

func parseHyphenExclude(line string) (rangealgebra.IPRange, error) {
	startStr, endStr, ok := strings.Cut(line, "-")
	if !ok {
		return rangealgebra.IPRange{}, fmt.Errorf("config: malformed range exclude %q", line)
	}
	start, err := parseIPv4(startStr)
	if err != nil {
		return rangealgebra.IPRange{}, err
	}
	end, err := parseIPv4(endStr)
	if err != nil {
		return rangealgebra.IPRange{}, err
	}
	if start > end {
		return rangealgebra.IPRange{}, fmt.Errorf("config: invalid exclude range %q (start greater than end)", line)
	}
	return rangealgebra.IPRange{StartIP: start, EndIP: end}, nil
}

func parseIPv4(s string) (uint32, error) {
	ip := net.ParseIP(strings.TrimSpace(s))
	v4 := ip.To4()
	if v4 == nil {
		return 0, fmt.Errorf("config: invalid ipv4 address %q", s)
	}
	return binary.BigEndian.Uint32(v4), nil
}
