// Package config loads the TOML configuration tree and exclude-file
// grammar that parameterize a scan: interface selection, source port
// window, session timing, and the strategy/sink/ping knobs layered on
// top, kept deliberately separate from the hot-path packages that
// consume them.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cilium/ebpf/link"
	"github.com/pelletier/go-toml/v2"

	"github.com/cezamee/xdpscan/internal/xsock"
)

// Config is the full configuration tree, one section per subsystem.
type Config struct {
	Controller ControllerConfig `toml:"controller"`
	Mongo      MongoConfig      `toml:"mongo"`
	Strategy   StrategyConfig   `toml:"strategy"`
	Session    SessionConfig    `toml:"session"`
	Ping       PingConfig       `toml:"ping"`
	XDP        XDPConfig        `toml:"xdp"`
}

// ControllerConfig configures the bootstrap/session layer.
type ControllerConfig struct {
	SourcePortRange [2]uint16 `toml:"source_port_range"`
	Interface       string    `toml:"interface"`
	PrintEverySecs  uint64    `toml:"print_every"`
}

// PrintEvery is the printer's emit cadence.
func (c ControllerConfig) PrintEvery() time.Duration {
	return time.Duration(c.PrintEverySecs) * time.Second
}

// MongoConfig configures the sink.
type MongoConfig struct {
	URL         string             `toml:"url"`
	Database    string             `toml:"database"`
	Collections []CollectionConfig `toml:"collections"`
}

// ParserKind names which parser a collection entry belongs to.
type ParserKind string

// ParserKindSLP is the only parser kind this repository ships.
const ParserKindSLP ParserKind = "slp"

// CollectionConfig routes one parser kind to a Mongo collection.
type CollectionConfig struct {
	Parser     ParserKind `toml:"parser"`
	Collection string     `toml:"collection"`
}

// CollectionFor returns the collection name configured for kind.
func (m MongoConfig) CollectionFor(kind ParserKind) (string, error) {
	for _, c := range m.Collections {
		if c.Parser == kind {
			return c.Collection, nil
		}
	}
	return "", fmt.Errorf("config: no collection configured for parser %q", kind)
}

// StrategyConfig configures the epsilon-greedy selector.
type StrategyConfig struct {
	Epsilon float64 `toml:"epsilon"`
}

// SessionConfig configures one scan session's lifetime.
type SessionConfig struct {
	DurationSecs uint64 `toml:"duration"`
}

// Duration is how long each session runs before reselecting a
// strategy.
func (s SessionConfig) Duration() time.Duration {
	return time.Duration(s.DurationSecs) * time.Second
}

// PingConfig configures the responder's per-connection behavior.
type PingConfig struct {
	TimeoutSecs uint64    `toml:"timeout"`
	SLP         SLPConfig `toml:"slp"`
}

// Timeout is the TTL a connection is held for between segments.
func (p PingConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// SLPConfig configures the Minecraft handshake payload.
type SLPConfig struct {
	Host            string `toml:"host"`
	Port            uint16 `toml:"port"`
	ProtocolVersion int32  `toml:"protocol_version"`
}

// XdpMode selects the AF_XDP socket bind flags.
type XdpMode string

const (
	XdpModeCopy     XdpMode = "copy"
	XdpModeZeroCopy XdpMode = "zero-copy"
	XdpModeFallback XdpMode = "fallback"
)

// Flags maps a configured mode to the socket bind flags it implies.
func (m XdpMode) Flags() (xsock.BindFlags, error) {
	switch m {
	case XdpModeCopy:
		return xsock.FlagCopy, nil
	case XdpModeZeroCopy:
		return xsock.FlagZeroCopy, nil
	case XdpModeFallback:
		return 0, nil
	default:
		return 0, fmt.Errorf("config: unknown xdp mode %q", m)
	}
}

// XdpAttachMode selects how the XDP program attaches to the interface.
type XdpAttachMode string

const (
	XdpAttachDriver   XdpAttachMode = "driver"
	XdpAttachHardware XdpAttachMode = "hardware"
	XdpAttachSkb      XdpAttachMode = "skb"
)

// Flags maps a configured attach mode to cilium/ebpf's link flags.
func (m XdpAttachMode) Flags() (link.XDPAttachFlags, error) {
	switch m {
	case XdpAttachDriver:
		return link.XDPDriverMode, nil
	case XdpAttachHardware:
		return link.XDPOffloadMode, nil
	case XdpAttachSkb:
		return link.XDPGenericMode, nil
	default:
		return 0, fmt.Errorf("config: unknown xdp attach mode %q", m)
	}
}

// XDPConfig configures the kernel side of the scan.
type XDPConfig struct {
	Mode           XdpMode       `toml:"mode"`
	AttachMode     XdpAttachMode `toml:"attach_mode"`
	RingSize       uint32        `toml:"ring_size"`
	BusyPollBudget int32         `toml:"busy_poll_budget"`
}

// Load reads and parses a TOML configuration file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: reading file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing config: %w", err)
	}
	return &cfg, nil
}
