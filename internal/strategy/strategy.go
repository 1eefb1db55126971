// Package strategy chooses what address/port space a scan session
// covers. An IPStrategy and a PortStrategy each produce their own
// inclusive range lists; Combined takes their cartesian product into
// the rangealgebra.Range shape the range compiler consumes.
package strategy

import "github.com/cezamee/xdpscan/internal/rangealgebra"

// IPRange is an inclusive IPv4 range, the unit an IPStrategy produces.
type IPRange struct {
	Start, End uint32
}

// PortRange is an inclusive port range, the unit a PortStrategy
// produces.
type PortRange struct {
	Start, End uint16
}

// IPStrategy generates a set of IPv4 ranges to scan.
type IPStrategy interface {
	IPRanges() ([]IPRange, error)
}

// PortStrategy generates a set of port ranges to scan.
type PortStrategy interface {
	PortRanges() ([]PortRange, error)
}

// Strategy produces the concrete range list a session compiles and
// scans.
type Strategy interface {
	Generate() ([]rangealgebra.Range, error)
}

// Combined is the cartesian product of an IPStrategy and a
// PortStrategy, mirroring CombinedStrategy's `S1::Output × S2::Output`
// composition.
type Combined struct {
	IP   IPStrategy
	Port PortStrategy
}

// Generate returns one rangealgebra.Range per (ip-range, port-range)
// pair.
func (c Combined) Generate() ([]rangealgebra.Range, error) {
	ipRanges, err := c.IP.IPRanges()
	if err != nil {
		return nil, err
	}
	portRanges, err := c.Port.PortRanges()
	if err != nil {
		return nil, err
	}

	out := make([]rangealgebra.Range, 0, len(ipRanges)*len(portRanges))
	for _, pr := range portRanges {
		for _, ir := range ipRanges {
			out = append(out, rangealgebra.Range{
				StartIP:   ir.Start,
				EndIP:     ir.End,
				StartPort: pr.Start,
				EndPort:   pr.End,
			})
		}
	}
	return out, nil
}
