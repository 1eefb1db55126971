package scanner

import (
	"sync/atomic"

	"github.com/cezamee/xdpscan/internal/codec"
	"github.com/cezamee/xdpscan/internal/rangealgebra"
	"github.com/cezamee/xdpscan/internal/shuffle"
)

// Scanner transmits SYNs indexed by a shared monotonic counter. Each
// tick: fetch-and-increment the counter, run it through the keyed
// shuffle to get a near-uniform probe index, look the index up in the
// compiled range space, compute the SYN cookie, and send.
type Scanner struct {
	sender   *Sender
	ranges   rangealgebra.CompiledRanges
	shuffler *shuffle.Shuffler
	counter  *atomic.Uint64
	seed     uint64
}

// New builds a Scanner over a shared index counter and compiled range
// space. Multiple Scanners (one per sender/queue) may share the same
// counter and shuffler so that a scan session's probes are partitioned
// without overlap across queues.
func New(sender *Sender, ranges rangealgebra.CompiledRanges, shuffler *shuffle.Shuffler, counter *atomic.Uint64, seed uint64) *Scanner {
	return &Scanner{sender: sender, ranges: ranges, shuffler: shuffler, counter: counter, seed: seed}
}

// Tick sends exactly one SYN. The outgoing ack field is left at 0: at
// SYN time there is nothing to acknowledge yet, since the peer has
// sent us nothing.
func (s *Scanner) Tick() {
	index := s.shuffler.Shuffle(s.counter.Add(1) - 1)
	ip, port := s.ranges.Index(index)

	cookie := codec.Cookie(ip, port, s.seed)

	var ipBytes [4]byte
	ipBytes[0] = byte(ip >> 24)
	ipBytes[1] = byte(ip >> 16)
	ipBytes[2] = byte(ip >> 8)
	ipBytes[3] = byte(ip)

	_ = s.sender.Send(codec.FlagSyn, ipBytes, 0, port, cookie, 0, nil)
}
