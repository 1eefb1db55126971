package umem

import "testing"

func TestArenaFramesAreDisjoint(t *testing.T) {
	a, err := New(2048, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	seen := make(map[uintptr]bool)
	for i := uint32(0); i < a.FrameCount(); i++ {
		f := a.Frame(i)
		if len(f) != int(a.FrameSize()) {
			t.Fatalf("frame %d has len %d, want %d", i, len(f), a.FrameSize())
		}
		addr := uintptr(unsafeAddr(f))
		if seen[addr] {
			t.Fatalf("frame %d aliases a previously seen address", i)
		}
		seen[addr] = true

		f[0] = byte(i)
	}

	for i := uint32(0); i < a.FrameCount(); i++ {
		if got := a.Frame(i)[0]; got != byte(i) {
			t.Fatalf("frame %d byte 0 = %d, want %d (cross-frame write?)", i, got, byte(i))
		}
	}
}

func TestRegMatchesArena(t *testing.T) {
	a, err := New(2048, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	reg := a.Reg(0, 0)
	if reg.FrameSize != 2048 {
		t.Fatalf("reg.FrameSize = %d, want 2048", reg.FrameSize)
	}
	if uint64(reg.Len) != uint64(a.Len()) {
		t.Fatalf("reg.Len = %d, want %d", reg.Len, a.Len())
	}
}
