// Package session drives the worker pools behind one scan run: scanner
// goroutines pushing SYNs, completer goroutines draining the TX
// completion ring, responder goroutines parsing RX traffic, a writer
// goroutine forwarding finished records to a sink, and a printer
// goroutine logging throughput.
package session

import (
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// printer periodically logs packets-per-second derived from a shared
// completed counter, picking a pps/kpps/mpps unit by magnitude.
// rate.Sometimes gates how often tick actually emits, enforcing a
// minimum interval between log lines without a separate ticker.
type printer struct {
	completed *atomic.Uint64
	sometimes rate.Sometimes

	last     time.Time
	lastComp uint64
}

func newPrinter(completed *atomic.Uint64, printEvery time.Duration) *printer {
	return &printer{
		completed: completed,
		sometimes: rate.Sometimes{Interval: printEvery},
		last:      time.Now(),
	}
}

// tick logs once printEvery has elapsed since the last log; calls
// inside the window are no-ops.
func (p *printer) tick() {
	p.sometimes.Do(func() {
		elapsed := time.Since(p.last)
		comp := p.completed.Load()
		pps := float64(comp-p.lastComp) / elapsed.Seconds()

		switch {
		case pps > 10_000_000:
			log.Printf("%s mpps", strconv.FormatInt(round(pps/1_000_000), 10))
		case pps > 10_000:
			log.Printf("%s kpps", strconv.FormatInt(round(pps/1_000), 10))
		default:
			log.Printf("%s pps", strconv.FormatInt(round(pps), 10))
		}

		p.lastComp = comp
		p.last = time.Now()
	})
}

func round(v float64) int64 {
	return int64(v + 0.5)
}
