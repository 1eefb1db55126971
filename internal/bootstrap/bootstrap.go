// Package bootstrap wires every other package into a running scan
// daemon: interface/gateway/MAC discovery, UMEM and AF_XDP socket
// construction, XDP program attach, and the strategy-selection loop
// that drives successive session.Session runs.
package bootstrap

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cezamee/xdpscan/internal/codec"
	"github.com/cezamee/xdpscan/internal/config"
	"github.com/cezamee/xdpscan/internal/netutil"
	"github.com/cezamee/xdpscan/internal/protocol"
	"github.com/cezamee/xdpscan/internal/protocol/slp"
	"github.com/cezamee/xdpscan/internal/rangealgebra"
	"github.com/cezamee/xdpscan/internal/responder"
	"github.com/cezamee/xdpscan/internal/scanner"
	"github.com/cezamee/xdpscan/internal/session"
	"github.com/cezamee/xdpscan/internal/sink"
	"github.com/cezamee/xdpscan/internal/strategy"
	"github.com/cezamee/xdpscan/internal/umem"
	"github.com/cezamee/xdpscan/internal/xdpfilter"
	"github.com/cezamee/xdpscan/internal/xdpring"
	"github.com/cezamee/xdpscan/internal/xsock"
)

// frameSize is the fixed per-frame UMEM chunk size.
const frameSize = 2048

// Controller owns every kernel resource a scan daemon needs for its
// entire lifetime: the attached XDP program, the UMEM arena, and the
// pools of sender/completer/receiver endpoints built over it. Its
// fields are populated once by New and never change shape afterward;
// Session consumes senders/completers per scan, RunResponders consumes
// receivers (paired with a sender) once, for good.
type Controller struct {
	umem *umem.Arena
	prog *xdpfilter.Program

	shared *scanner.Shared

	senders    *session.Pool[*scanner.Sender]
	completers *session.Pool[*xdpring.Consumer[uint64]]
	pairs      []session.Pair

	cfg *config.Config
}

// New performs the full bootstrap sequence: resolve the interface, read
// the gateway MAC before attaching XDP (driver-mode attach resets the
// kernel's ARP cache for the interface), build the UMEM arena sized for
// every queue's rings, load and attach the XDP program, then build one
// full (send+receive) socket per queue plus one additional send-only
// socket per queue beyond the first.
func New(cfg *config.Config) (*Controller, error) {
	ifIndex, err := netutil.InterfaceIndex(cfg.Controller.Interface)
	if err != nil {
		return nil, err
	}

	gatewayIP, err := netutil.GatewayIPv4(cfg.Controller.Interface)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: gateway ip: %w", err)
	}
	gatewayMAC, err := netutil.GatewayMAC(gatewayIP)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: gateway mac: %w", err)
	}

	interfaceMAC, err := netutil.InterfaceMAC(cfg.Controller.Interface)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: interface mac: %w", err)
	}

	sourceIP, err := netutil.LocalIPv4(cfg.Controller.Interface)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: local ip: %w", err)
	}

	queues, err := netutil.InterfaceQueues(cfg.Controller.Interface)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: interface queues: %w", err)
	}
	queueCount := queues.Current.Combined
	if queueCount == 0 {
		queueCount = 1
	}
	if queues.Max.Combined > queueCount {
		log.Printf("bootstrap: nic %q runs %d of %d available queues; "+
			"'ethtool -L %s combined %d' may improve throughput",
			cfg.Controller.Interface, queueCount, queues.Max.Combined,
			cfg.Controller.Interface, queues.Max.Combined)
	}
	logTopology(queueCount)

	ringSize := cfg.XDP.RingSize
	// two rings' worth of frames per queue: one for TX, one for FILL/RX.
	arena, err := umem.New(frameSize, 2*queueCount*ringSize)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: umem arena: %w", err)
	}

	prog, err := xdpfilter.Load(cfg.Controller.SourcePortRange[0], cfg.Controller.SourcePortRange[1])
	if err != nil {
		arena.Close()
		return nil, err
	}
	attachFlags, err := cfg.XDP.AttachMode.Flags()
	if err != nil {
		prog.Close()
		arena.Close()
		return nil, err
	}
	if err := prog.Attach(int(ifIndex), attachFlags); err != nil {
		prog.Close()
		arena.Close()
		return nil, err
	}

	shared := &scanner.Shared{
		Umem:         arena,
		SourceIP:     sourceIP,
		GatewayMAC:   gatewayMAC,
		InterfaceMAC: interfaceMAC,
		SourcePortLo: cfg.Controller.SourcePortRange[0],
		SourcePortHi: cfg.Controller.SourcePortRange[1],
		Seed:         rand.Uint64(),
	}

	modeFlags, err := cfg.XDP.Mode.Flags()
	if err != nil {
		prog.Close()
		arena.Close()
		return nil, err
	}

	c := &Controller{umem: arena, prog: prog, shared: shared, cfg: cfg}

	var senders []*scanner.Sender
	var completers []*xdpring.Consumer[uint64]

	baseSocket, baseSender, baseCompleter, baseReceiver, err := c.createFull(nil, modeFlags|xsock.FlagNeedWakeup, ifIndex, 0, ringSize)
	if err != nil {
		prog.Close()
		arena.Close()
		return nil, fmt.Errorf("bootstrap: base socket (queue 0): %w", err)
	}
	senders = append(senders, baseSender)
	completers = append(completers, baseCompleter)
	c.pairs = append(c.pairs, session.Pair{Sender: baseSender, Receiver: baseReceiver})

	for q := uint32(1); q < queueCount; q++ {
		_, fullSender, fullCompleter, fullReceiver, err := c.createFull(baseSocket, xsock.FlagSharedUmem, ifIndex, q, ringSize)
		if err != nil {
			prog.Close()
			arena.Close()
			return nil, fmt.Errorf("bootstrap: shared full socket (queue %d): %w", q, err)
		}
		senders = append(senders, fullSender)
		completers = append(completers, fullCompleter)
		c.pairs = append(c.pairs, session.Pair{Sender: fullSender, Receiver: fullReceiver})

		extraSender, err := c.createSenderOnly(baseSocket, ifIndex, q, queueCount, ringSize)
		if err != nil {
			prog.Close()
			arena.Close()
			return nil, fmt.Errorf("bootstrap: shared sender-only socket (queue %d): %w", q, err)
		}
		senders = append(senders, extraSender)
	}

	c.senders = session.NewPool(senders)
	c.completers = session.NewPool(completers)

	return c, nil
}

// createFull builds one socket bound to (ifIndex, queueID) with all
// four rings. sharedWith is nil for the base socket (which registers
// the UMEM and whose fd is shared by every other socket), non-nil for
// every subsequent queue's full socket.
func (c *Controller) createFull(sharedWith *xsock.Socket, flags xsock.BindFlags, ifIndex, queueID uint32, ringSize uint32) (*xsock.Socket, *scanner.Sender, *xdpring.Consumer[uint64], *responder.Receiver, error) {
	sock, err := xsock.New()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	var sharedFD uint32
	if sharedWith == nil {
		// negotiate XDP_UMEM_TX_METADATA_LEN so the NIC completes the
		// partial TCP checksum Writer.Write leaves in every frame
		// (codec.WriteTxMeta); every socket shares this registration.
		if err := sock.SetUmemReg(c.umem.Reg(xsock.UmemFlagTxMetadata, codec.TxMetaLen)); err != nil {
			sock.Close()
			return nil, nil, nil, nil, fmt.Errorf("xdp umem reg: %w", err)
		}
	} else {
		sharedFD = uint32(sharedWith.FD())
	}

	tx, fr, rx, cr, err := fullRings(sock, ringSize)
	if err != nil {
		sock.Close()
		return nil, nil, nil, nil, err
	}

	if c.cfg.XDP.BusyPollBudget > 0 {
		if err := sock.SetBusyPoll(c.cfg.XDP.BusyPollBudget); err != nil {
			log.Printf("bootstrap: enabling busy-poll on queue %d: %v", queueID, err)
		}
	}

	if err := sock.Bind(flags, ifIndex, queueID, sharedFD); err != nil {
		sock.Close()
		return nil, nil, nil, nil, fmt.Errorf("binding queue %d: %w", queueID, err)
	}
	if err := c.prog.InsertSocket(queueID, sock.FD()); err != nil {
		sock.Close()
		return nil, nil, nil, nil, err
	}

	txStart, rxStart := fullFrameOffsets(queueID, ringSize)

	sender, err := scanner.NewSender(c.shared, sock, tx, txStart)
	if err != nil {
		sock.Close()
		return nil, nil, nil, nil, err
	}
	receiver := responder.NewReceiver(c.shared, sock, fr, rx, rxStart)

	return sock, sender, cr, receiver, nil
}

// createSenderOnly builds an additional send-only socket sharing
// baseSocket's UMEM registration, for a queue that already has a full
// socket. Its frames occupy the disjoint range past every full socket's
// TX+RX allocation.
func (c *Controller) createSenderOnly(baseSocket *xsock.Socket, ifIndex, queueID, queueCount, ringSize uint32) (*scanner.Sender, error) {
	sock, err := xsock.New()
	if err != nil {
		return nil, err
	}

	tx, err := txRing(sock, ringSize)
	if err != nil {
		sock.Close()
		return nil, err
	}

	if c.cfg.XDP.BusyPollBudget > 0 {
		if err := sock.SetBusyPoll(c.cfg.XDP.BusyPollBudget); err != nil {
			log.Printf("bootstrap: enabling busy-poll on sender-only queue %d: %v", queueID, err)
		}
	}

	if err := sock.Bind(xsock.FlagSharedUmem, ifIndex, queueID, uint32(baseSocket.FD())); err != nil {
		sock.Close()
		return nil, fmt.Errorf("binding sender-only queue %d: %w", queueID, err)
	}

	return scanner.NewSender(c.shared, sock, tx, senderOnlyFrameOffset(queueCount, queueID, ringSize))
}

// fullFrameOffsets returns the starting UMEM frame for a full socket's
// TX and RX/FILL rings at queueID: two ringSize-sized blocks per queue,
// TX first.
func fullFrameOffsets(queueID, ringSize uint32) (tx, rx uint32) {
	return 2 * queueID * ringSize, (2*queueID + 1) * ringSize
}

// senderOnlyFrameOffset returns the starting UMEM frame for a
// sender-only socket at queueID, past every full socket's TX+RX
// allocation (queueCount full sockets, two ringSize blocks each).
func senderOnlyFrameOffset(queueCount, queueID, ringSize uint32) uint32 {
	return (queueCount + queueID) * ringSize
}

// Close detaches the XDP program and releases the UMEM arena. It must
// only be called after every socket built over the arena has stopped
// being used.
func (c *Controller) Close() error {
	c.prog.Close()
	return c.umem.Close()
}

// RunResponders permanently claims every (sender, receiver) pair this
// controller built and starts one responder goroutine per pair, plus
// the writer goroutine draining finished records to sk. It must be
// called exactly once, before the first call to RunSessions.
func RunResponders[T any](c *Controller, wg *sync.WaitGroup, done *atomic.Bool, payload protocol.Payload, parser protocol.Parser[T], pingTimeout time.Duration, sk sink.Sink[T]) {
	session.RunResponders(wg, done, c.pairs, payload, parser, c.shared.Seed, pingTimeout, sk)
}

// RunSessions is the outer strategy-selection loop: pick a strategy,
// generate its ranges, subtract the exclude set, compile the flattened
// index space, and scan it for one session's duration, forever, until
// stop is closed.
func RunSessions(c *Controller, selector *strategy.Selector, excludes []rangealgebra.IPRange, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		strat := selector.Select()
		ranges, err := strat.Generate()
		if err != nil {
			log.Printf("bootstrap: generating ranges: %v", err)
			continue
		}
		scoped := rangealgebra.Exclude(ranges, excludes)
		compiled := rangealgebra.Compile(scoped)
		if compiled.Count() == 0 {
			log.Printf("bootstrap: strategy produced zero addresses after exclusion, skipping")
			continue
		}

		sess := session.New(c.senders, c.completers, compiled, c.shared.Seed, c.cfg.Controller.PrintEvery())
		sess.Start(c.cfg.Session.Duration())
	}
}

// DefaultParser wires up the one parser this repository ships: the
// Minecraft Server List Ping protocol.
func DefaultParser(cfg config.SLPConfig) (protocol.Payload, protocol.Parser[slp.Response]) {
	payload := protocol.StaticPayload(slp.BuildHandshakeRequest(cfg.Host, cfg.Port, cfg.ProtocolVersion))
	return payload, slp.Parser{}
}
