package h3tests

import (
	"github.com/quic-go/quic-go/quicvarint"

	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
	"github.com/h3probe/h3probe/h3"
)

func doFramePlacementTests(t *h3test.T) {
	t.Run("PRIORITY_UPDATE before SETTINGS", doPriorityUpdateFirstCase)
	t.Run("DATA on control stream", doDataOnControlStreamCase)
	t.Run("HEADERS on control stream", doHeadersOnControlStreamCase)
	t.Run("CANCEL_PUSH on request stream", doCancelPushOnRequestStreamCase)
	t.Run("GOAWAY on request stream", doGoAwayOnRequestStreamCase)
	t.Run("MAX_PUSH_ID on push stream", doMaxPushIDOnPushStreamCase)
	t.Run("reserved frame type", doReservedFrameTypeCase)
}

func doPriorityUpdateFirstCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         1,
		Name:       "PRIORITY_UPDATE frame before SETTINGS frame",
		Violation:  "RFC 9114 Section 6.2.1 - SETTINGS must be first frame on control stream",
		RFCSection: "RFC 9114 Section 6.2.1",
	}, priorityUpdateFirstScript)
}

func priorityUpdateFirstScript(p *harness.Probe) {
	conn := p.Conn()

	ctrl, err := conn.OpenUniStream(h3.StreamTypeControl)
	if p.Step("control_stream_created", err) != nil {
		return
	}
	p.Step("priority_update_sent", conn.SendPriorityUpdate(ctrl, 0, []byte("i")))

	p.Note("PRIORITY_UPDATE was sent as first frame (protocol violation)")
	p.Note("SETTINGS frame MUST be the first frame on control stream")
}

func doDataOnControlStreamCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         50,
		Name:       "DATA frame on control stream",
		Violation:  "DATA frame on control stream triggers H3_FRAME_UNEXPECTED",
		RFCSection: "DATA frames MUST be associated with HTTP request or response",
	}, dataOnControlStreamScript)
}

func dataOnControlStreamScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	ctrl, ok := conn.ControlStream()
	if !ok {
		return
	}
	payload := []byte(`{"violation": "DATA frame should not be sent on control stream"}`)
	p.Step("data_frame_on_control_stream_sent", conn.SendData(ctrl, payload, false))

	p.Note("DATA frame sent on control stream (protocol violation)")
	p.Note("DATA frames MUST be associated with HTTP request or response")
	p.Note("Should trigger H3_FRAME_UNEXPECTED connection error")
}

func doHeadersOnControlStreamCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         52,
		Name:       "HEADERS frame on control stream",
		Violation:  "HEADERS frame on control stream triggers H3_FRAME_UNEXPECTED",
		RFCSection: "HEADERS frames can only be sent on request streams or push streams",
	}, headersOnControlStreamScript)
}

func headersOnControlStreamScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	ctrl, ok := conn.ControlStream()
	if !ok {
		return
	}
	err := conn.SendHeaders(ctrl, commonHeaders("GET", "/invalid-control-stream-request",
		field("x-violation", "headers-on-control-stream"),
		field("x-test-case", "52"),
	), false)
	p.Step("headers_frame_on_control_stream_sent", err)

	p.Note("HEADERS frame sent on control stream (protocol violation)")
	p.Note("HEADERS frames can only be sent on request streams or push streams")
	p.Note("Should trigger H3_FRAME_UNEXPECTED connection error")
}

func doCancelPushOnRequestStreamCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         54,
		Name:       "CANCEL_PUSH frame on request stream",
		Violation:  "CANCEL_PUSH frame on request stream triggers H3_FRAME_UNEXPECTED",
		RFCSection: "CANCEL_PUSH frame is sent on the control stream",
	}, cancelPushOnRequestStreamScript)
}

func cancelPushOnRequestStreamScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}

	id, err := openRequestWithHeaders(p, "54")
	if err != nil {
		return
	}
	p.Step("cancel_push_on_request_stream_sent",
		p.Conn().SendRawFrame(id, h3.FrameTypeCancelPush, quicvarint.Append(nil, 0)))

	p.Note("CANCEL_PUSH frame sent on request stream (protocol violation)")
	p.Note("CANCEL_PUSH frames should only be sent on control stream")
	p.Note("Should trigger H3_FRAME_UNEXPECTED connection error")
}

func doGoAwayOnRequestStreamCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         71,
		Name:       "GOAWAY frame on request stream",
		Violation:  "GOAWAY frame on request stream triggers H3_FRAME_UNEXPECTED",
		RFCSection: "GOAWAY frame must be on control stream only",
	}, goAwayOnRequestStreamScript)
}

func goAwayOnRequestStreamScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}

	id, err := openRequestWithHeaders(p, "71")
	if err != nil {
		return
	}
	p.Step("goaway_on_request_stream_sent", p.Conn().SendGoAway(id, 0))

	p.Note("GOAWAY frame sent on request stream (protocol violation)")
	p.Note("GOAWAY frame must be on control stream only")
	p.Note("Should trigger H3_FRAME_UNEXPECTED connection error")
}

func doMaxPushIDOnPushStreamCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         72,
		Name:       "MAX_PUSH_ID frame on push stream",
		Violation:  "MAX_PUSH_ID frame on push stream triggers H3_FRAME_UNEXPECTED",
		RFCSection: "MAX_PUSH_ID frame is always sent on control stream",
	}, maxPushIDOnPushStreamScript)
}

func maxPushIDOnPushStreamScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}

	id, err := openPushTypedStream(p)
	if p.Step("push_stream_created", err) != nil {
		return
	}
	p.Step("max_push_id_on_push_stream_sent", p.Conn().SendMaxPushID(id, 5))

	p.Note("MAX_PUSH_ID frame sent on push stream (protocol violation)")
	p.Note("MAX_PUSH_ID frame is always sent on control stream")
	p.Note("Should trigger H3_FRAME_UNEXPECTED connection error")
}

func doReservedFrameTypeCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         75,
		Name:       "Reserved frame type",
		Violation:  "Reserved frame type triggers H3_FRAME_UNEXPECTED",
		RFCSection: "Reserved frame types MUST NOT be sent by client",
	}, reservedFrameTypeScript)
}

// reservedFrameTypeScript sends frame type 0x4 in the middle of a request
// stream. 0x4 is SETTINGS, which is only ever legal as the first frame of
// the control stream; anywhere else it occupies the space of the reserved
// HTTP/2 frame types.
func reservedFrameTypeScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}

	id, err := openRequestWithHeaders(p, "75")
	if err != nil {
		return
	}
	p.Step("reserved_frame_type_sent",
		p.Conn().SendRawFrame(id, h3.FrameTypeSettings, []byte{0x00, 0x00, 0x00, 0x00}))

	p.Note("Reserved frame type 0x4 sent on request stream (protocol violation)")
	p.Note("Reserved frame types MUST NOT be sent by client")
	p.Note("Should trigger H3_FRAME_UNEXPECTED connection error")
}
