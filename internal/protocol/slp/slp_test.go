package slp

import (
	"bytes"
	"testing"

	"github.com/cezamee/xdpscan/internal/protocol"
)

func buildStatusFrame(t *testing.T, jsonBody string) []byte {
	t.Helper()
	var inner bytes.Buffer
	writeVarint(&inner, 0x00) // packet ID
	writeVarint(&inner, int32(len(jsonBody)))
	inner.WriteString(jsonBody)

	var out bytes.Buffer
	writeVarint(&out, int32(inner.Len()))
	out.Write(inner.Bytes())
	return out.Bytes()
}

func TestParseCompleteStatus(t *testing.T) {
	body := `{"version":{"name":"1.20.1","protocol":763},"players":{"max":20,"online":3}}`
	frame := buildStatusFrame(t, body)

	resp, err := (Parser{}).Parse(0, 0, frame)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if resp.Version.Name != "1.20.1" || resp.Players.Max != 20 {
		t.Fatalf("Parse() = %+v, unexpected", resp)
	}
}

func TestParseIncompleteStatus(t *testing.T) {
	body := `{"version":{"name":"1.20.1","protocol":763},"players":{"max":20,"online":3}}`
	frame := buildStatusFrame(t, body)

	_, err := (Parser{}).Parse(0, 0, frame[:len(frame)-10])
	if err != protocol.ErrIncomplete {
		t.Fatalf("Parse() error = %v, want ErrIncomplete", err)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	frame := buildStatusFrame(t, `not json`)

	_, err := (Parser{}).Parse(0, 0, frame)
	if err != protocol.ErrInvalid {
		t.Fatalf("Parse() error = %v, want ErrInvalid", err)
	}
}

func TestBuildHandshakeRequestRoundTripsVarints(t *testing.T) {
	req := BuildHandshakeRequest("example.com", 25565, 763)
	if len(req) == 0 {
		t.Fatal("BuildHandshakeRequest() returned empty payload")
	}

	r := bytes.NewReader(req)
	handshakeLen, err := readVarint(r)
	if err != nil {
		t.Fatalf("reading handshake length: %v", err)
	}
	if int(handshakeLen) <= 0 || int(handshakeLen) > len(req) {
		t.Fatalf("handshake length %d out of bounds", handshakeLen)
	}
}
