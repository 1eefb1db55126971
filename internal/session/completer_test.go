package session

import (
	"testing"

	"github.com/cezamee/xdpscan/internal/xdpring"
)

func TestCompleterTicksOncePerReadyEntry(t *testing.T) {
	var prod, cons, flags uint32
	entries := make([]uint64, 8)

	p := xdpring.NewFillProducer(&prod, &cons, &flags, entries)
	c := newCompleter(xdpring.NewCompletionConsumer(&prod, &cons, &flags, entries))

	if c.tick() {
		t.Fatal("tick() on empty ring should report false")
	}

	index, ok := p.Reserve(1)
	if !ok {
		t.Fatal("Reserve(1) should succeed on a fresh ring")
	}
	*p.At(index) = 0xdead
	p.Submit(1)

	if !c.tick() {
		t.Fatal("tick() should report true once an entry is ready")
	}
	if c.tick() {
		t.Fatal("tick() should report false after the single entry was released")
	}
}
