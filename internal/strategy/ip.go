package strategy

import "fmt"

// SlashN generates the single IPv4 CIDR block containing ip at prefix
// length block.
type SlashN struct {
	IP    uint32
	Block uint8
}

// IPRanges returns the one block [ip&mask, ip|^mask].
func (s SlashN) IPRanges() ([]IPRange, error) {
	if s.Block > 32 {
		return nil, fmt.Errorf("strategy: cidr block %d out of range", s.Block)
	}
	var mask uint32
	if s.Block != 0 {
		mask = ^uint32(0) << (32 - s.Block)
	}
	return []IPRange{{Start: s.IP & mask, End: s.IP | ^mask}}, nil
}
