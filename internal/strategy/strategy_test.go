package strategy

import "testing"

func TestSlashNZeroBlockCoversWholeSpace(t *testing.T) {
	s := SlashN{IP: 0, Block: 0}
	ranges, err := s.IPRanges()
	if err != nil {
		t.Fatalf("IPRanges() error = %v", err)
	}
	if ranges[0].Start != 0 || ranges[0].End != 0xFFFFFFFF {
		t.Fatalf("got %+v, want full IPv4 space", ranges[0])
	}
}

func TestSlashNRejectsOversizedBlock(t *testing.T) {
	s := SlashN{IP: 0, Block: 33}
	if _, err := s.IPRanges(); err == nil {
		t.Fatal("expected error for block > 32")
	}
}

func TestSlashNMasksCorrectly(t *testing.T) {
	s := SlashN{IP: 0x0A000105, Block: 24} // 10.0.1.5/24
	ranges, _ := s.IPRanges()
	if ranges[0].Start != 0x0A000100 || ranges[0].End != 0x0A0001FF {
		t.Fatalf("got %08X-%08X, want 0A000100-0A0001FF", ranges[0].Start, ranges[0].End)
	}
}

func TestOnePortIsInclusiveSingleton(t *testing.T) {
	p := OnePort{Port: 443}
	ranges, _ := p.PortRanges()
	if ranges[0].Start != 443 || ranges[0].End != 443 {
		t.Fatalf("got %+v, want a single port 443", ranges[0])
	}
}

func TestCombinedIsCartesianProduct(t *testing.T) {
	c := Combined{
		IP: testIPStrategy{ranges: []IPRange{{Start: 1, End: 2}, {Start: 5, End: 6}}},
		Port: testPortStrategy{ranges: []PortRange{{Start: 80, End: 80}}},
	}
	out, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d ranges, want 2", len(out))
	}
}

type testIPStrategy struct{ ranges []IPRange }

func (t testIPStrategy) IPRanges() ([]IPRange, error) { return t.ranges, nil }

type testPortStrategy struct{ ranges []PortRange }

func (t testPortStrategy) PortRanges() ([]PortRange, error) { return t.ranges, nil }

func TestSelectorRejectsInvalidEpsilon(t *testing.T) {
	if _, err := NewSelector(1.5); err == nil {
		t.Fatal("expected error for epsilon > 1")
	}
	if _, err := NewSelector(-0.1); err == nil {
		t.Fatal("expected error for epsilon < 0")
	}
}

func TestSelectorAlwaysExploitsAtZeroEpsilon(t *testing.T) {
	sel, err := NewSelector(0)
	if err != nil {
		t.Fatalf("NewSelector() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		strat := sel.Select()
		combined, ok := strat.(Combined)
		if !ok {
			t.Fatal("expected Combined strategy")
		}
		ipStrat, ok := combined.IP.(SlashN)
		if !ok {
			t.Fatal("expected SlashN IP strategy")
		}
		if ipStrat.Block != 0 {
			t.Fatalf("block = %d, want 0 (exploit covers 0.0.0.0/0)", ipStrat.Block)
		}
		if _, ok := combined.Port.(AllPortsNonPrivileged); !ok {
			t.Fatalf("port strategy = %T, want AllPortsNonPrivileged", combined.Port)
		}
	}
}
