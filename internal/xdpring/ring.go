// Package xdpring implements the four AF_XDP SPSC ring kinds (TX, RX,
// FILL, COMPLETION) over memory shared with the kernel.
// Producer and Consumer wrap the same underlying counters/entries with
// the access pattern appropriate to their role; a ring is never both.
package xdpring

import "sync/atomic"

// NeedWakeup is the advisory bit the kernel sets in a ring's flags word
// (XDP_RING_NEED_WAKEUP) asking user space to poke the socket before
// blocking again.
const NeedWakeup uint32 = 1 << 0

// TXMetadata is XDP_TX_METADATA, the per-descriptor Options bit asking
// the kernel/NIC to act on the TX metadata record carried just ahead of
// that descriptor's frame data.
const TXMetadata uint32 = 1 << 1

// Descriptor is the RX/TX ring entry: a UMEM frame address, the length
// of the valid data in it, and per-descriptor options (e.g.
// XDP_TX_METADATA).
type Descriptor struct {
	Addr    uint64
	Len     uint32
	Options uint32
}

// ring is the shared core of every ring kind: entries must be a slice
// whose length is a power of two (newRing panics otherwise), so indexing
// can mask instead of divide.
type ring[T any] struct {
	prod  *uint32
	cons  *uint32
	flags *uint32

	entries []T
	mask    uint32

	cachedProd uint32
	cachedCons uint32
}

func newRing[T any](prod, cons, flags *uint32, entries []T) ring[T] {
	size := uint32(len(entries))
	if size == 0 || size&(size-1) != 0 {
		panic("xdpring: ring size must be a non-zero power of two")
	}
	return ring[T]{prod: prod, cons: cons, flags: flags, entries: entries, mask: size - 1}
}

// NeedsWakeup reports the kernel's advisory wakeup bit.
func (r *ring[T]) NeedsWakeup() bool {
	return atomic.LoadUint32(r.flags)&NeedWakeup != 0
}

// Size returns the ring's entry capacity.
func (r *ring[T]) Size() uint32 { return r.mask + 1 }

func (r *ring[T]) at(index uint32) *T { return &r.entries[index&r.mask] }

// Producer is the TX/FILL half of a ring: reserve a run of slots, write
// into them, then submit to publish to the kernel.
type Producer[T any] struct{ ring[T] }

// NewTXProducer binds a TX ring producer. cachedCons starts at
// cons+size: a freshly bound TX ring has no descriptors in flight yet.
func NewTXProducer(prod, cons, flags *uint32, entries []Descriptor) *Producer[Descriptor] {
	r := newRing(prod, cons, flags, entries)
	r.cachedProd = atomic.LoadUint32(prod)
	r.cachedCons = atomic.LoadUint32(cons) + r.Size()
	return &Producer[Descriptor]{r}
}

// NewFillProducer binds a FILL ring producer. cachedCons starts at size:
// the ring begins empty and fully available for fill-frame submission.
func NewFillProducer(prod, cons, flags *uint32, entries []uint64) *Producer[uint64] {
	r := newRing(prod, cons, flags, entries)
	r.cachedProd = 0
	r.cachedCons = r.Size()
	return &Producer[uint64]{r}
}

// Free reports how many slots are free, refreshing the cached consumer
// cursor from the kernel-visible counter if the cached view shows fewer
// than batchSize.
func (p *Producer[T]) Free(batchSize uint32) uint32 {
	free := p.cachedCons - p.cachedProd
	if free >= batchSize {
		return free
	}
	p.cachedCons = atomic.LoadUint32(p.cons) + p.Size()
	return p.cachedCons - p.cachedProd
}

// Reserve returns the starting index of batchSize contiguous slots, or
// ok=false if fewer are free. The caller must Submit the same batchSize
// after writing into the reserved slots via At.
func (p *Producer[T]) Reserve(batchSize uint32) (index uint32, ok bool) {
	if p.Free(batchSize) < batchSize {
		return 0, false
	}
	index = p.cachedProd
	p.cachedProd += batchSize
	return index, true
}

// At returns a pointer to the entry at a reserved index, for writing.
func (p *Producer[T]) At(index uint32) *T { return p.at(index) }

// Submit publishes batchSize previously-reserved entries to the kernel
// with release ordering.
func (p *Producer[T]) Submit(batchSize uint32) {
	atomic.AddUint32(p.prod, batchSize)
}

// Consumer is the RX/COMPLETION half of a ring: peek a run of ready
// entries, read them, then release back to the kernel.
type Consumer[T any] struct{ ring[T] }

// NewRXConsumer binds an RX ring consumer.
func NewRXConsumer(prod, cons, flags *uint32, entries []Descriptor) *Consumer[Descriptor] {
	r := newRing(prod, cons, flags, entries)
	r.cachedProd = atomic.LoadUint32(prod)
	r.cachedCons = atomic.LoadUint32(cons)
	return &Consumer[Descriptor]{r}
}

// NewCompletionConsumer binds a COMPLETION ring consumer.
func NewCompletionConsumer(prod, cons, flags *uint32, entries []uint64) *Consumer[uint64] {
	r := newRing(prod, cons, flags, entries)
	r.cachedProd = 0
	r.cachedCons = 0
	return &Consumer[uint64]{r}
}

// Available reports how many entries (up to batchSize) are ready,
// refreshing the cached producer cursor from the kernel if the cached
// view shows none.
func (c *Consumer[T]) Available(batchSize uint32) uint32 {
	entries := c.cachedProd - c.cachedCons
	if entries == 0 {
		c.cachedProd = atomic.LoadUint32(c.prod)
		entries = c.cachedProd - c.cachedCons
	}
	if entries < batchSize {
		return entries
	}
	return batchSize
}

// Peek returns the starting index of up to batchSize ready entries, or
// ok=false if none are ready yet.
func (c *Consumer[T]) Peek(batchSize uint32) (index uint32, n uint32, ok bool) {
	n = c.Available(batchSize)
	if n == 0 {
		return 0, 0, false
	}
	index = c.cachedCons
	c.cachedCons += n
	return index, n, true
}

// At returns a pointer to the entry at a peeked index, for reading.
func (c *Consumer[T]) At(index uint32) *T { return c.at(index) }

// Release publishes that batchSize previously-peeked entries have been
// consumed, with release ordering.
func (c *Consumer[T]) Release(batchSize uint32) {
	atomic.AddUint32(c.cons, batchSize)
}
