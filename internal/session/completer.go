package session

import "github.com/cezamee/xdpscan/internal/xdpring"

// completer drains one queue's TX completion ring, freeing UMEM frames
// the kernel has finished transmitting back for reuse.
type completer struct {
	cr *xdpring.Consumer[uint64]
}

func newCompleter(cr *xdpring.Consumer[uint64]) *completer {
	return &completer{cr: cr}
}

// tick releases one completed frame if one is ready, reporting whether
// it did.
func (c *completer) tick() bool {
	_, n, ok := c.cr.Peek(1)
	if !ok {
		return false
	}
	c.cr.Release(n)
	return true
}
