package scanner

import (
	"sync/atomic"
	"testing"

	"github.com/cezamee/xdpscan/internal/codec"
	"github.com/cezamee/xdpscan/internal/rangealgebra"
	"github.com/cezamee/xdpscan/internal/shuffle"
)

// Tick's index math (counter, shuffle, range lookup) is reproduced here
// directly, since Tick's Send needs a real kernel TX ring.
func TestTickAdvancesCounterAndCoversFullRange(t *testing.T) {
	ranges := []rangealgebra.Range{
		{StartIP: 0x0A000000, EndIP: 0x0A0000FF, StartPort: 80, EndPort: 80},
	}
	compiled := rangealgebra.Compile(ranges)
	shuf := shuffle.New(compiled.Count(), 0x1234)

	var counter atomic.Uint64
	seen := make(map[uint64]bool)
	for i := uint64(0); i < compiled.Count(); i++ {
		index := shuf.Shuffle(counter.Add(1) - 1)
		ip, port := compiled.Index(index)
		if port != 80 {
			t.Fatalf("unexpected port %d", port)
		}
		key := uint64(ip)
		if seen[key] {
			t.Fatalf("index %d revisited ip %d", i, ip)
		}
		seen[key] = true
	}
	if counter.Load() != compiled.Count() {
		t.Fatalf("counter = %d, want %d", counter.Load(), compiled.Count())
	}
}

func TestCookieMatchesIndexedAddress(t *testing.T) {
	ranges := []rangealgebra.Range{
		{StartIP: 0x0A000001, EndIP: 0x0A000001, StartPort: 25565, EndPort: 25565},
	}
	compiled := rangealgebra.Compile(ranges)
	ip, port := compiled.Index(0)

	c1 := codec.Cookie(ip, port, 0x0123456789ABCDEF)
	c2 := codec.Cookie(ip, port, 0x0123456789ABCDEF)
	if c1 != c2 {
		t.Fatal("cookie must be deterministic for the same inputs")
	}
}
