package session

import (
	"context"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cezamee/xdpscan/internal/protocol"
	"github.com/cezamee/xdpscan/internal/responder"
	"github.com/cezamee/xdpscan/internal/scanner"
	"github.com/cezamee/xdpscan/internal/sink"
)

// Pair is one queue's (sender, receiver) socket pair, handed to a
// responder goroutine for the life of the program.
type Pair struct {
	Sender   *scanner.Sender
	Receiver *responder.Receiver
}

// RunResponders spawns one goroutine per pair running a Responder[T]'s
// Tick loop until done, plus a writer goroutine forwarding finished
// records to sk. Every spawned goroutine is tracked on wg; callers wait
// on wg after signalling done to know responders have drained. The
// writer keeps draining for pingTimeout after done is set, to catch
// banners already in flight before the caller discards the channel.
func RunResponders[T any](wg *sync.WaitGroup, done *atomic.Bool, pairs []Pair, payload protocol.Payload, parser protocol.Parser[T], seed uint64, pingTimeout time.Duration, sk sink.Sink[T]) {
	records := make(chan sink.Record[T], 4096)

	for _, pair := range pairs {
		wg.Add(1)
		go func(pair Pair) {
			defer wg.Done()
			r := responder.New[T](payload, parser, pair.Sender, pair.Receiver, seed, pingTimeout)
			for !done.Load() {
				rec, ok := r.Tick()
				if !ok {
					continue
				}
				records <- sink.Record[T]{
					Timestamp: time.Now(),
					IP:        ipv4(rec.IP),
					Port:      rec.Port,
					Payload:   rec.Payload,
				}
			}
		}(pair)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		var doneAt time.Time
		for {
			select {
			case rec := <-records:
				ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
				if err := sk.Write(ctx, rec); err != nil {
					log.Printf("sink write failed: %v", err)
				}
				cancel()
			default:
				if done.Load() {
					if doneAt.IsZero() {
						doneAt = time.Now()
					}
					if time.Since(doneAt) >= pingTimeout {
						return
					}
				}
			}
		}
	}()
}

func ipv4(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
