package h3tests

import (
	"github.com/quic-go/qpack"

	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
)

func doRequestStreamTests(t *h3test.T) {
	t.Run("multiple requests on same stream", doMultipleRequestsCase)
	t.Run("DATA before HEADERS", doDataBeforeHeadersCase)
	t.Run("DATA after trailing HEADERS", doDataAfterTrailersCase)
}

func doMultipleRequestsCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         3,
		Name:       "Multiple requests on same stream",
		Violation:  "RFC 9114 Section 4.1 - Client must send only single request per stream",
		RFCSection: "RFC 9114 Section 4.1",
	}, multipleRequestsScript)
}

func multipleRequestsScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	id, err := p.CreateRequestStream()
	if err != nil {
		return
	}
	err = conn.SendHeaders(id, commonHeaders("GET", "/first-request",
		field("x-test-case", "3"),
		field("x-request-number", "1"),
	), false)
	if p.Step("first_request_sent", err) != nil {
		return
	}
	err = conn.SendHeaders(id, commonHeaders("POST", "/second-request",
		field("x-test-case", "3"),
		field("x-request-number", "2"),
	), true)
	p.Step("second_request_sent", err)

	p.Note("Two HEADERS frames sent on same stream (protocol violation)")
	p.Note("RFC 9114 Section 4.1: Client MUST send only single request per stream")
}

func doDataBeforeHeadersCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         5,
		Name:       "DATA frame before HEADERS frame",
		Violation:  "Invalid frame sequence - DATA before HEADERS triggers H3_FRAME_UNEXPECTED",
		RFCSection: "HTTP/3 Frame Sequencing",
	}, dataBeforeHeadersScript)
}

func dataBeforeHeadersScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}

	id, err := p.CreateRequestStream()
	if err != nil {
		return
	}
	payload := []byte(`{"error": "This DATA frame should not be accepted without HEADERS"}`)
	p.Step("data_frame_sent_first", p.Conn().SendData(id, payload, false))

	p.Note("DATA frame sent before any HEADERS frame (protocol violation)")
	p.Note("Invalid frame sequence should trigger H3_FRAME_UNEXPECTED")
}

func doDataAfterTrailersCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         7,
		Name:       "DATA frame after trailing HEADERS frame",
		Violation:  "Invalid frame sequence - DATA after trailing HEADERS triggers H3_FRAME_UNEXPECTED",
		RFCSection: "HTTP/3 Frame Sequencing Rules",
	}, dataAfterTrailersScript)
}

// dataAfterTrailersScript closes a request with a trailing HEADERS frame and
// then tries to append DATA. The trailing frame carried end_stream, so the
// transport itself usually refuses the write; the report records the attempt
// either way.
func dataAfterTrailersScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	id, err := openRequestWithHeaders(p, "7")
	if err != nil {
		return
	}
	err = conn.SendHeaders(id, []qpack.HeaderField{
		field("x-response-trailer", "test-trailer-value"),
		field("x-stream-complete", "true"),
	}, true)
	if p.Step("trailing_headers_sent", err) != nil {
		return
	}
	payload := []byte(`{"violation": "This DATA frame should not be accepted after trailing HEADERS"}`)
	p.Step("data_after_trailing_headers_sent", conn.SendData(id, payload, false))

	p.Note("DATA frame sent after trailing HEADERS with end_stream=True (protocol violation)")
	p.Note("Invalid frame sequence should trigger H3_FRAME_UNEXPECTED")
	p.Note("Stream should have been closed by trailing HEADERS frame")
}
