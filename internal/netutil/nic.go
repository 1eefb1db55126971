package netutil

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ethtoolGChannels is ETHTOOL_GCHANNELS, the ethtool sub-command that
// reports a NIC's current and maximum RX/TX/combined queue counts.
const ethtoolGChannels = 0x0000003c

// Queue mirrors struct ethtool_channels' four counts.
type Queue struct {
	RX, TX, Other, Combined uint32
}

// Queues is the max/current pair nic.rs's Queues struct reports.
type Queues struct {
	Max     Queue
	Current Queue
}

// ethtoolChannels is the wire layout of struct ethtool_channels,
// cmd followed by four uint32 pairs (max then current).
type ethtoolChannels struct {
	cmd uint32

	maxRX, maxTX, maxOther, maxCombined uint32
	curRX, curTX, curOther, curCombined uint32
}

// ifreqData is the portion of struct ifreq this ioctl needs: the
// interface name followed by the ifr_data union member, a pointer to
// the ethtool command buffer.
type ifreqData struct {
	name [unix.IFNAMSIZ]byte
	data uintptr
	_    [8]byte // pad ifr_ifru to its largest union member on amd64
}

// InterfaceQueues issues SIOCETHTOOL/ETHTOOL_GCHANNELS against name,
// reporting its current and maximum queue (channel) counts. Grounded on
// nic.rs's InterfaceInfoGuard::queues.
func InterfaceQueues(name string) (Queues, error) {
	var out Queues
	if len(name) >= unix.IFNAMSIZ {
		return out, fmt.Errorf("netutil: interface name %q too long", name)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return out, fmt.Errorf("netutil: opening control socket: %w", err)
	}
	defer unix.Close(fd)

	channels := ethtoolChannels{cmd: ethtoolGChannels}

	var req ifreqData
	copy(req.name[:], name)
	req.data = uintptr(unsafe.Pointer(&channels))

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.SIOCETHTOOL, uintptr(unsafe.Pointer(&req))); errno != 0 {
		return out, fmt.Errorf("netutil: SIOCETHTOOL ioctl: %w", errno)
	}

	out.Max = Queue{RX: channels.maxRX, TX: channels.maxTX, Other: channels.maxOther, Combined: channels.maxCombined}
	out.Current = Queue{RX: channels.curRX, TX: channels.curTX, Other: channels.curOther, Combined: channels.curCombined}
	return out, nil
}
