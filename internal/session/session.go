package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cezamee/xdpscan/internal/rangealgebra"
	"github.com/cezamee/xdpscan/internal/scanner"
	"github.com/cezamee/xdpscan/internal/shuffle"
	"github.com/cezamee/xdpscan/internal/xdpring"
)

// Session drives one scan of a compiled range space: one Scanner
// goroutine per available sender, one Completer goroutine per available
// completion ring, and one printer goroutine, all sharing a single
// monotonic index counter and keyed shuffle so the probe order is
// consistent across queues.
type Session struct {
	senders    *Pool[*scanner.Sender]
	completers *Pool[*xdpring.Consumer[uint64]]

	ranges rangealgebra.CompiledRanges
	seed   uint64

	printEvery time.Duration
}

// New builds a Session over a compiled range space. senders and
// completers are the pools left over after RunResponders has claimed
// its (sender, receiver) pairs.
func New(senders *Pool[*scanner.Sender], completers *Pool[*xdpring.Consumer[uint64]], ranges rangealgebra.CompiledRanges, seed uint64, printEvery time.Duration) *Session {
	return &Session{senders: senders, completers: completers, ranges: ranges, seed: seed, printEvery: printEvery}
}

// Start runs the scan for duration, blocking until every worker has
// drained. Senders and completion rings are returned to their pools
// before Start returns.
func (s *Session) Start(duration time.Duration) {
	var done atomic.Bool
	var index atomic.Uint64
	var completed atomic.Uint64
	shuffler := shuffle.New(s.ranges.Count(), s.seed)

	var wg sync.WaitGroup

	for {
		sender, ok := s.senders.Pop()
		if !ok {
			break
		}
		wg.Add(1)
		go func(sender *scanner.Sender) {
			defer wg.Done()
			sc := scanner.New(sender, s.ranges, shuffler, &index, s.seed)
			for !done.Load() {
				sc.Tick()
			}
			s.senders.Push(sender)
		}(sender)
	}

	for {
		cr, ok := s.completers.Pop()
		if !ok {
			break
		}
		wg.Add(1)
		go func(cr *xdpring.Consumer[uint64]) {
			defer wg.Done()
			c := newCompleter(cr)
			for !done.Load() {
				if c.tick() {
					completed.Add(1)
				}
			}
			s.completers.Push(cr)
		}(cr)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p := newPrinter(&completed, s.printEvery)
		for !done.Load() {
			p.tick()
		}
	}()

	time.Sleep(duration)
	done.Store(true)
	wg.Wait()
}
