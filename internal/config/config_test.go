package config

import (
	"testing"
	"time"

	"github.com/cilium/ebpf/link"

	"github.com/cezamee/xdpscan/internal/xsock"
)

func TestDurationAccessorsConvertSecondsFields(t *testing.T) {
	if got, want := (ControllerConfig{PrintEverySecs: 5}).PrintEvery(), 5*time.Second; got != want {
		t.Errorf("PrintEvery() = %v, want %v", got, want)
	}
	if got, want := (SessionConfig{DurationSecs: 120}).Duration(), 120*time.Second; got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}
	if got, want := (PingConfig{TimeoutSecs: 30}).Timeout(), 30*time.Second; got != want {
		t.Errorf("Timeout() = %v, want %v", got, want)
	}
}

func TestMongoConfigCollectionFor(t *testing.T) {
	m := MongoConfig{Collections: []CollectionConfig{
		{Parser: ParserKindSLP, Collection: "slp_results"},
	}}

	got, err := m.CollectionFor(ParserKindSLP)
	if err != nil {
		t.Fatalf("CollectionFor(slp) returned error: %v", err)
	}
	if got != "slp_results" {
		t.Errorf("CollectionFor(slp) = %q, want %q", got, "slp_results")
	}

	if _, err := m.CollectionFor(ParserKind("unknown")); err == nil {
		t.Error("CollectionFor(unknown) should return an error")
	}
}

func TestXdpModeFlags(t *testing.T) {
	cases := []struct {
		mode    XdpMode
		want    xsock.BindFlags
		wantErr bool
	}{
		{XdpModeCopy, xsock.FlagCopy, false},
		{XdpModeZeroCopy, xsock.FlagZeroCopy, false},
		{XdpModeFallback, 0, false},
		{XdpMode("bogus"), 0, true},
	}
	for _, c := range cases {
		got, err := c.mode.Flags()
		if (err != nil) != c.wantErr {
			t.Errorf("XdpMode(%q).Flags() error = %v, wantErr %v", c.mode, err, c.wantErr)
			continue
		}
		if err == nil && got != c.want {
			t.Errorf("XdpMode(%q).Flags() = %v, want %v", c.mode, got, c.want)
		}
	}
}

func TestXdpAttachModeFlags(t *testing.T) {
	cases := []struct {
		mode    XdpAttachMode
		want    link.XDPAttachFlags
		wantErr bool
	}{
		{XdpAttachDriver, link.XDPDriverMode, false},
		{XdpAttachHardware, link.XDPOffloadMode, false},
		{XdpAttachSkb, link.XDPGenericMode, false},
		{XdpAttachMode("bogus"), 0, true},
	}
	for _, c := range cases {
		got, err := c.mode.Flags()
		if (err != nil) != c.wantErr {
			t.Errorf("XdpAttachMode(%q).Flags() error = %v, wantErr %v", c.mode, err, c.wantErr)
			continue
		}
		if err == nil && got != c.want {
			t.Errorf("XdpAttachMode(%q).Flags() = %v, want %v", c.mode, got, c.want)
		}
	}
}
