package h3

import "github.com/quic-go/quic-go/quicvarint"

// Registered SETTINGS identifiers. The identifiers 0x00 and 0x02 through
// 0x05 are reserved (they correspond to HTTP/2 settings) and must trigger
// H3_SETTINGS_ERROR when received; scripts send them by value.
const (
	SettingQPACKMaxTableCapacity uint64 = 0x01
	SettingMaxFieldSectionSize   uint64 = 0x06
	SettingQPACKBlockedStreams   uint64 = 0x07
	SettingEnableConnectProtocol uint64 = 0x08
	SettingH3Datagram            uint64 = 0x33

	// settingGrease is the first identifier of the 0x1f*N+0x21 reserved
	// range that peers must ignore (RFC 9114 section 7.2.4.1).
	settingGrease uint64 = 0x21
)

// Setting is one (identifier, value) pair of a SETTINGS frame body.
//
// SETTINGS are modeled as an ordered slice of pairs rather than a map so
// that a frame body containing the same identifier twice, a violation some
// scripts need to produce, is directly expressible.
type Setting struct {
	ID    uint64
	Value uint64
}

// DefaultSettings returns the baseline settings a conformant setup declares:
// QPACK table capacity and blocked-stream allowance, extended CONNECT, and
// one GREASE identifier that the peer is required to ignore.
func DefaultSettings() []Setting {
	return []Setting{
		{ID: SettingQPACKMaxTableCapacity, Value: 4096},
		{ID: SettingQPACKBlockedStreams, Value: 16},
		{ID: SettingEnableConnectProtocol, Value: 1},
		{ID: settingGrease, Value: 1},
	}
}

// AppendSettings appends the SETTINGS frame body (not the frame header) to
// b: the concatenation of (identifier, value) varint pairs in slice order.
func AppendSettings(b []byte, settings []Setting) []byte {
	for _, s := range settings {
		b = quicvarint.Append(b, s.ID)
		b = quicvarint.Append(b, s.Value)
	}
	return b
}

// ParseSettings decodes a SETTINGS frame body into its ordered pairs.
// Duplicate identifiers are preserved, not collapsed; like ReadFrame this
// exists for tests and the in-memory transport.
func ParseSettings(body []byte) ([]Setting, error) {
	var settings []Setting
	for len(body) > 0 {
		id, n, err := quicvarint.Parse(body)
		if err != nil {
			return settings, err
		}
		body = body[n:]
		value, n, err := quicvarint.Parse(body)
		if err != nil {
			return settings, err
		}
		body = body[n:]
		settings = append(settings, Setting{ID: id, Value: value})
	}
	return settings, nil
}
