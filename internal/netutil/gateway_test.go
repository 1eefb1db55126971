package netutil

import "testing"

func TestParseLittleEndianHexIP(t *testing.T) {
	// 192.168.1.1 is stored as "0101A8C0" in /proc/net/route.
	got, err := parseLittleEndianHexIP("0101A8C0")
	if err != nil {
		t.Fatalf("parseLittleEndianHexIP() error = %v", err)
	}
	want := [4]byte{192, 168, 1, 1}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseLittleEndianHexIPRejectsWrongLength(t *testing.T) {
	if _, err := parseLittleEndianHexIP("ABCD"); err == nil {
		t.Fatal("expected error for short input")
	}
}

func TestParseMACRoundTrips(t *testing.T) {
	got, err := ParseMAC("de:ad:be:ef:00:01")
	if err != nil {
		t.Fatalf("ParseMAC() error = %v", err)
	}
	want := [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseMACRejectsGarbage(t *testing.T) {
	if _, err := ParseMAC("not-a-mac"); err == nil {
		t.Fatal("expected error for malformed mac")
	}
}
