// Package xdpfilter loads and attaches the in-kernel ingress classifier
// (xdp.c) and manages the xsks_map/stats_map it exposes.
package xdpfilter

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
)

//go:embed obj/xdp_redirect.o
var objBytes []byte

// Program is the loaded classifier: the XSK redirect map callers insert
// queue sockets into, the stats map for throughput/diagnostics, and the
// attached link.
type Program struct {
	collection *ebpf.Collection
	prog       *ebpf.Program
	XSKs       *ebpf.Map
	Stats      *ebpf.Map
	link       link.Link
}

// Load parses the embedded object file, sets the SOURCE_PORT_START/END
// writable globals, and creates the collection.
// Attach must be called separately once the interface index is known.
func Load(sourcePortStart, sourcePortEnd uint16) (*Program, error) {
	spec, err := ebpf.LoadCollectionSpecFromReader(bytes.NewReader(objBytes))
	if err != nil {
		return nil, fmt.Errorf("xdpfilter: load collection spec: %w", err)
	}

	if err := spec.RewriteConstants(map[string]interface{}{
		"SOURCE_PORT_START": sourcePortStart,
		"SOURCE_PORT_END":   sourcePortEnd,
	}); err != nil {
		return nil, fmt.Errorf("xdpfilter: rewrite port window globals: %w", err)
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("xdpfilter: create collection: %w", err)
	}

	prog := coll.Programs["xdp_redirect_port"]
	if prog == nil {
		coll.Close()
		return nil, fmt.Errorf("xdpfilter: program xdp_redirect_port not found in object")
	}
	xsks := coll.Maps["xsks_map"]
	if xsks == nil {
		coll.Close()
		return nil, fmt.Errorf("xdpfilter: map xsks_map not found in object")
	}
	stats := coll.Maps["stats_map"]

	return &Program{collection: coll, prog: prog, XSKs: xsks, Stats: stats}, nil
}

// Attach links the program to an interface using the configured attach
// mode, falling back to generic mode if the configured (driver or
// offload) mode failed to attach.
func (p *Program) Attach(ifIndex int, flags link.XDPAttachFlags) error {
	l, err := link.AttachXDP(link.XDPOptions{
		Program:   p.prog,
		Interface: ifIndex,
		Flags:     flags,
	})
	if err != nil && flags != link.XDPGenericMode {
		l, err = link.AttachXDP(link.XDPOptions{
			Program:   p.prog,
			Interface: ifIndex,
			Flags:     link.XDPGenericMode,
		})
	}
	if err != nil {
		return fmt.Errorf("xdpfilter: attach (configured mode and generic mode both failed): %w", err)
	}
	p.link = l
	return nil
}

// InsertSocket places a queue's socket FD into the XSK redirect map.
func (p *Program) InsertSocket(queueID uint32, fd int) error {
	if err := p.XSKs.Update(queueID, uint32(fd), ebpf.UpdateAny); err != nil {
		return fmt.Errorf("xdpfilter: insert queue %d socket into xsks_map: %w", queueID, err)
	}
	return nil
}

// Counters reads and sums the PERCPU_ARRAY stats_map across CPUs: every
// frame seen, every IPv4 TCP frame, and every frame in the port window
// that was handed to the redirect.
func (p *Program) Counters() (total, tcp, redirected uint64, err error) {
	read := func(idx uint32) (uint64, error) {
		var perCPU []uint64
		if err := p.Stats.Lookup(&idx, &perCPU); err != nil {
			return 0, err
		}
		var sum uint64
		for _, v := range perCPU {
			sum += v
		}
		return sum, nil
	}

	if total, err = read(0); err != nil {
		return 0, 0, 0, fmt.Errorf("xdpfilter: read stats[0]: %w", err)
	}
	if tcp, err = read(1); err != nil {
		return 0, 0, 0, fmt.Errorf("xdpfilter: read stats[1]: %w", err)
	}
	if redirected, err = read(3); err != nil {
		return 0, 0, 0, fmt.Errorf("xdpfilter: read stats[3]: %w", err)
	}
	return total, tcp, redirected, nil
}

// Close detaches the link and closes the collection.
func (p *Program) Close() error {
	if p.link != nil {
		p.link.Close()
	}
	p.collection.Close()
	return nil
}
