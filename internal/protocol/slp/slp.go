// Package slp implements the Minecraft Server List Ping protocol: the
// handshake+status-request payload a scanner pushes right after a SYN-ACK,
// and the parser that turns the resulting status JSON into a typed
// response. The varint/packet framing follows the same shape as
// github.com/kiwiyou/craftping.
package slp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cezamee/xdpscan/internal/protocol"
)

// Parser implements protocol.Parser[Response].
type Parser struct{}

// Parse reads the SLP response frame: varint packet length, varint
// packet ID (must be 0x00), varint JSON length, then the JSON body
// itself. Returns protocol.ErrIncomplete if the declared JSON length
// exceeds what has arrived so far.
func (Parser) Parse(_ uint32, _ uint16, data []byte) (Response, error) {
	var resp Response

	r := bytes.NewReader(data)
	if _, err := readVarint(r); err != nil {
		return resp, err
	}

	packetID, err := readVarint(r)
	if err != nil {
		return resp, err
	}
	responseLength, err := readVarint(r)
	if err != nil {
		return resp, err
	}
	if packetID != 0x00 || responseLength <= 0 {
		return resp, protocol.ErrInvalid
	}

	remaining := data[len(data)-r.Len():]
	if len(remaining) < int(responseLength) {
		return resp, protocol.ErrIncomplete
	}

	if err := json.Unmarshal(remaining[:responseLength], &resp); err != nil {
		return resp, protocol.ErrInvalid
	}
	return resp, nil
}

// BuildHandshakeRequest builds the two-packet handshake+status-request
// payload: a handshake packet (protocol version, hostname, port, next
// state = status) immediately followed by an empty status-request
// packet, per the Notchian SLP handshake sequence.
func BuildHandshakeRequest(hostname string, port uint16, protocolVersion int32) []byte {
	var body bytes.Buffer
	body.WriteByte(0x00) // packet ID 0: handshake
	writeVarint(&body, protocolVersion)
	writeVarint(&body, int32(len(hostname)))
	body.WriteString(hostname)
	body.WriteByte(byte(port >> 8))
	body.WriteByte(byte(port))
	writeVarint(&body, 1) // next state: status

	var out bytes.Buffer
	writeVarint(&out, int32(body.Len()))
	out.Write(body.Bytes())
	out.WriteByte(1)    // length of 2nd packet (just the ID)
	out.WriteByte(0x00) // packet ID 0: status request

	return out.Bytes()
}

func writeVarint(w *bytes.Buffer, value int32) {
	v := uint32(value)
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

func readVarint(r *bytes.Reader) (int32, error) {
	var out int32
	for i := 0; i < 5; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, protocol.ErrIncomplete
		}
		out |= int32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return out, nil
		}
	}
	return 0, fmt.Errorf("slp: varint exceeds 5 bytes")
}

// Response mirrors the SLP status JSON schema, including the optional
// Forge/FML mod-list extensions seen on modded servers.
type Response struct {
	Version            Version         `json:"version"`
	Players            Players         `json:"players"`
	Description        json.RawMessage `json:"description,omitempty"`
	Favicon            *string         `json:"favicon,omitempty"`
	EnforcesSecureChat *bool           `json:"enforcesSecureChat,omitempty"`
	PreviewsChat       *bool           `json:"previewsChat,omitempty"`
	ModInfo            *ModInfo        `json:"modinfo,omitempty"`
	ForgeData          *ForgeData      `json:"forgeData,omitempty"`
}

type Version struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type Players struct {
	Max    int      `json:"max"`
	Online int      `json:"online"`
	Sample []Player `json:"sample,omitempty"`
}

type Player struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ModInfo is the FML (1.7–1.12) mod-list extension.
type ModInfo struct {
	ModType string        `json:"type"`
	ModList []ModInfoItem `json:"modList"`
}

type ModInfoItem struct {
	ModID   string `json:"modid"`
	Version string `json:"version"`
}

// ForgeData is the FML2 (1.13+) mod-list extension.
type ForgeData struct {
	Channels          []ForgeChannel `json:"channels"`
	Mods              []ForgeMod     `json:"mods"`
	FMLNetworkVersion int32          `json:"fmlNetworkVersion"`
}

type ForgeChannel struct {
	Res      string `json:"res"`
	Version  string `json:"version"`
	Required bool   `json:"required"`
}

type ForgeMod struct {
	ModID     string `json:"modId"`
	ModMarker string `json:"modmarker"`
}
