package strategy

import (
	"fmt"
	"math/rand/v2"
)

// Selector picks a Strategy for each scan session using an
// epsilon-greedy policy: with probability epsilon it explores a random
// block and port sub-range, otherwise it exploits the default full
// space.
// TODO: an exploit mode weighted by historical response density per
// block would sharpen the exploit branch beyond "always full space",
// but needs a density map fed back from completed sessions first.
type Selector struct {
	epsilon float64
}

// NewSelector validates epsilon is a probability.
func NewSelector(epsilon float64) (*Selector, error) {
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("strategy: epsilon %v out of bounds", epsilon)
	}
	return &Selector{epsilon: epsilon}, nil
}

// Select returns the exploit strategy with probability (1-epsilon), the
// explore strategy otherwise.
func (s *Selector) Select() Strategy {
	if rand.Float64() > s.epsilon {
		return s.exploit()
	}
	return s.explore()
}

func (s *Selector) exploit() Strategy {
	return Combined{
		IP:   SlashN{IP: 0, Block: 0},
		Port: AllPortsNonPrivileged{},
	}
}

func (s *Selector) explore() Strategy {
	block := uint8(rand.IntN(33))
	portStart := uint16(1024 + rand.IntN(65535-1024+1))
	portEnd := portStart
	if portStart < 65535 {
		portEnd = portStart + uint16(rand.IntN(int(65535-portStart)+1))
	}

	return Combined{
		IP:   SlashN{IP: rand.Uint32(), Block: block},
		Port: RangedPorts{Start: portStart, End: portEnd},
	}
}
