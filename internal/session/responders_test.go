package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cezamee/xdpscan/internal/sink"
)

type fakeSink struct {
	mu      sync.Mutex
	written []sink.Record[string]
}

func (f *fakeSink) Write(_ context.Context, rec sink.Record[string]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, rec)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func TestRunRespondersWithNoPairsStillDrainsWriter(t *testing.T) {
	var wg sync.WaitGroup
	var done atomic.Bool
	sk := &fakeSink{}

	RunResponders[string](&wg, &done, nil, nil, nil, 0, 10*time.Millisecond, sk)

	done.Store(true)
	wg.Wait()

	if sk.count() != 0 {
		t.Fatalf("count = %d, want 0", sk.count())
	}
}

func TestIPv4FormatsBigEndianOctets(t *testing.T) {
	got := ipv4(0x0A000105).String()
	if got != "10.0.1.5" {
		t.Fatalf("ipv4() = %q, want 10.0.1.5", got)
	}
}
