package shuffle

import "testing"

func TestShuffleIsBijective(t *testing.T) {
	// bitLen(n-1) is even for 1000 (10 bits, 5/5 split) but odd for 500
	// (9 bits, 5/4 split) and 2000 (11 bits, 6/5 split): the odd cases
	// exercise leftBits != rightBits, where a width-mismatched round
	// function previously collapsed the permutation to a fraction of
	// [0,n).
	for _, n := range []uint64{10, 500, 1000, 2000} {
		n := n
		t.Run("", func(t *testing.T) {
			s := New(n, 0xDEADBEEFCAFEBABE)

			seen := make(map[uint64]bool, n)
			for i := uint64(0); i < n; i++ {
				v := s.Shuffle(i)
				if v >= n {
					t.Fatalf("n=%d: Shuffle(%d) = %d, out of range [0,%d)", n, i, v, n)
				}
				if seen[v] {
					t.Fatalf("n=%d: Shuffle(%d) = %d is a duplicate", n, i, v)
				}
				seen[v] = true
			}
			if uint64(len(seen)) != n {
				t.Fatalf("n=%d: got %d distinct outputs, want %d", n, len(seen), n)
			}
		})
	}
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	s1 := New(500, 42)
	s2 := New(500, 42)
	for i := uint64(0); i < 500; i++ {
		if s1.Shuffle(i) != s2.Shuffle(i) {
			t.Fatalf("same seed produced different output at index %d", i)
		}
	}
}

func TestShuffleDiffersAcrossSeeds(t *testing.T) {
	s1 := New(2000, 1)
	s2 := New(2000, 2)

	diff := 0
	for i := uint64(0); i < 2000; i++ {
		if s1.Shuffle(i) != s2.Shuffle(i) {
			diff++
		}
	}
	if diff < 1000 {
		t.Fatalf("expected most outputs to differ across seeds, only %d/2000 did", diff)
	}
}

func TestShuffleWrapsModuloN(t *testing.T) {
	s := New(10, 7)
	for i := uint64(0); i < 10; i++ {
		if s.Shuffle(i) != s.Shuffle(i+10) {
			t.Fatalf("Shuffle(%d) and Shuffle(%d) should be equal under modulo wraparound", i, i+10)
		}
	}
}

func TestSingleElementDomain(t *testing.T) {
	s := New(1, 99)
	if got := s.Shuffle(0); got != 0 {
		t.Fatalf("Shuffle(0) over domain of size 1 = %d, want 0", got)
	}
}
