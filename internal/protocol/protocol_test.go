package protocol

import "testing"

func TestParseErrorStrings(t *testing.T) {
	cases := []struct {
		err  ParseError
		want string
	}{
		{ErrInvalid, "protocol: invalid"},
		{ErrIncomplete, "protocol: incomplete"},
		{ParseError(99), "protocol: unknown parse error"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("ParseError(%d).Error() = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestStaticPayloadBuildReturnsFixedBytesIgnoringArgs(t *testing.T) {
	p := StaticPayload([]byte{1, 2, 3})
	got, err := p.Build(0xDEADBEEF, 1234)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("Build() = %v, want [1 2 3]", got)
	}
}
