package h3tests

import (
	"github.com/quic-go/quic-go/quicvarint"

	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
	"github.com/h3probe/h3probe/h3"
)

func doControlStreamTests(t *h3test.T) {
	t.Run("unknown stream type", doUnknownStreamTypeCase)
	t.Run("second control stream", doSecondControlStreamCase)
	t.Run("client-initiated push stream", doClientPushStreamCase)
}

func doUnknownStreamTypeCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         45,
		Name:       "Unknown unidirectional stream type",
		Violation:  "Client opens unknown stream type, server should abort or discard",
		RFCSection: "HTTP/3 Stream Type Handling",
	}, unknownStreamTypeScript)
}

// unknownStreamTypeScript declares a unidirectional stream with the
// unregistered type 0xCC and pushes data through it. A conformant peer
// ignores the stream; closing the connection over it would itself be
// non-conformant, so the script ends by checking the connection still
// accepts an ordinary request.
func unknownStreamTypeScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	id, err := conn.OpenUniStream(h3.StreamType(0xCC))
	if p.Step("unknown_stream_created", err) != nil {
		return
	}
	p.Step("data_sent", conn.SendStreamBytes(id, []byte("This is test data for unknown stream type"), false))

	p.Observe()

	reqID, err := p.CreateRequestStream()
	if err == nil {
		err = conn.SendHeaders(reqID, commonHeaders("GET", "/test",
			field("x-test-case", "45"),
		), true)
	}
	p.Step("connection_still_active", err)

	p.Note("Unknown stream type 0xcc sent")
	p.Note("Server should abort reading or discard data")
	p.Note("Connection should remain active (not connection error)")
}

func doSecondControlStreamCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         46,
		Name:       "Second control stream",
		Violation:  "Opening second control stream triggers H3_STREAM_CREATION_ERROR",
		RFCSection: "Only one control stream per peer is permitted",
	}, secondControlStreamScript)
}

func secondControlStreamScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	second, err := conn.OpenUniStream(h3.StreamTypeControl)
	if p.Step("second_control_stream_created", err) == nil {
		p.Step("second_control_stream_settings_sent", conn.SendSettings(second, nil))
	}

	p.Note("Second control stream opened (protocol violation)")
	p.Note("Only one control stream per peer is permitted")
	p.Note("Should trigger H3_STREAM_CREATION_ERROR connection error")
}

func doClientPushStreamCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         48,
		Name:       "Client-initiated push stream",
		Violation:  "Client opening push stream triggers H3_STREAM_CREATION_ERROR",
		RFCSection: "Only servers can push",
	}, clientPushStreamScript)
}

func clientPushStreamScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	id, err := conn.OpenUniStream(h3.StreamTypePush)
	if p.Step("push_stream_created", err) == nil {
		p.Step("push_id_sent", conn.SendStreamBytes(id, quicvarint.Append(nil, 0), false))
	}

	p.Note("Client-initiated push stream opened (protocol violation)")
	p.Note("Only servers are allowed to push")
	p.Note("Should trigger H3_STREAM_CREATION_ERROR connection error")
}
