package codec

import "testing"

func TestCookieDeterministicAndSensitive(t *testing.T) {
	seed := uint64(0x0123456789ABCDEF)
	ip := ipToU32(10, 0, 0, 1)
	port := uint16(25565)

	c1 := Cookie(ip, port, seed)
	c2 := Cookie(ip, port, seed)
	if c1 != c2 {
		t.Fatalf("cookie not deterministic: %x != %x", c1, c2)
	}

	if Cookie(ip+1, port, seed) == c1 {
		t.Fatalf("cookie did not change with ip")
	}
	if Cookie(ip, port+1, seed) == c1 {
		t.Fatalf("cookie did not change with port")
	}
	if Cookie(ip, port, seed+1) == c1 {
		t.Fatalf("cookie did not change with seed")
	}
}

func TestFinalizeChecksumKnownVector(t *testing.T) {
	// all-zero pseudo header and body folds to all-ones checksum.
	if got := FinalizeChecksum(0); got != 0xFFFF {
		t.Fatalf("FinalizeChecksum(0) = %#x, want 0xFFFF", got)
	}
}

func TestWriterPrefillAndWriteRoundTrip(t *testing.T) {
	frame := make([]byte, HeaderLen+4)
	gw := [6]byte{1, 2, 3, 4, 5, 6}
	src := [6]byte{6, 5, 4, 3, 2, 1}
	srcIP := [4]byte{192, 168, 1, 1}
	Prefill(frame, gw, src, srcIP)

	if got := [6]byte(frame[0:6]); got != gw {
		t.Fatalf("dst mac = %v, want %v", got, gw)
	}
	if got := [4]byte(frame[26:30]); got != srcIP {
		t.Fatalf("src ip = %v, want %v", got, srcIP)
	}

	w := NewWriter(srcIP)
	n := w.Write(frame, Outgoing{
		Flags:      FlagSyn,
		DestIP:     [4]byte{10, 0, 0, 1},
		SourcePort: 40000,
		DestPort:   25565,
		Seq:        Cookie(ipToU32(10, 0, 0, 1), 25565, 0xdead),
		Ack:        0,
	})
	if n != HeaderLen {
		t.Fatalf("Write length = %d, want %d (no body)", n, HeaderLen)
	}
	if frame[47] != byte(FlagSyn) {
		t.Fatalf("flags byte = %#x, want SYN", frame[47])
	}

	n = w.Write(frame, Outgoing{
		Flags:    FlagPsh | FlagAck,
		DestIP:   [4]byte{10, 0, 0, 1},
		DestPort: 25565,
		Body:     []byte{1, 2, 3, 4},
	})
	if n != HeaderLen+4 {
		t.Fatalf("Write length with body = %d, want %d", n, HeaderLen+4)
	}
}

func ipToU32(a, b, c, d byte) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d)
}
