package config

import "testing"

func TestParseExcludesSkipsCommentsAndBlankLines(t *testing.T) {
	ranges, err := parseExcludes("# comment\n\n10.0.0.1\n")
	if err != nil {
		t.Fatalf("parseExcludes() error = %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
}

func TestParseExcludesSingleIP(t *testing.T) {
	ranges, err := parseExcludes("10.0.0.5")
	if err != nil {
		t.Fatalf("parseExcludes() error = %v", err)
	}
	if ranges[0].StartIP != ranges[0].EndIP {
		t.Fatalf("single ip should produce a single-point range, got %+v", ranges[0])
	}
}

func TestParseExcludesCIDR(t *testing.T) {
	ranges, err := parseExcludes("10.0.0.0/24")
	if err != nil {
		t.Fatalf("parseExcludes() error = %v", err)
	}
	want := uint32(10)<<24 | 0<<16 | 0<<8 | 0
	if ranges[0].StartIP != want || ranges[0].EndIP != want+255 {
		t.Fatalf("got %08X-%08X, want %08X-%08X", ranges[0].StartIP, ranges[0].EndIP, want, want+255)
	}
}

func TestParseExcludesHyphenRange(t *testing.T) {
	ranges, err := parseExcludes("10.0.0.1-10.0.0.10")
	if err != nil {
		t.Fatalf("parseExcludes() error = %v", err)
	}
	if ranges[0].EndIP-ranges[0].StartIP != 9 {
		t.Fatalf("got range of size %d, want 9", ranges[0].EndIP-ranges[0].StartIP)
	}
}

func TestParseExcludesRejectsInvertedRange(t *testing.T) {
	if _, err := parseExcludes("10.0.0.10-10.0.0.1"); err == nil {
		t.Fatal("expected error for start > end")
	}
}

func TestParseExcludesRejectsMixedSlashAndHyphen(t *testing.T) {
	if _, err := parseExcludes("10.0.0.0/24-10.0.0.1"); err == nil {
		t.Fatal("expected error for mixing / and -")
	}
}

func TestParseExcludesStripsTrailingComment(t *testing.T) {
	ranges, err := parseExcludes("10.0.0.1 # a note\n")
	if err != nil {
		t.Fatalf("parseExcludes() error = %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
}
