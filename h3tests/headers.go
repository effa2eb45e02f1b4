package h3tests

import (
	"github.com/quic-go/qpack"
	"github.com/stretchr/testify/require"

	"github.com/h3probe/h3probe/data"
	"github.com/h3probe/h3probe/data/testmodel"
	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
	"github.com/h3probe/h3probe/transport"
)

func doHeaderFieldTests(t *h3test.T) {
	for _, suite := range getAllHeaderCaseSuites(t, "header-violations") {
		t.Run(suite.Name, func(t *h3test.T) {
			for _, c := range suite.Cases {
				t.Run(c.Name, func(t *h3test.T) {
					runHeaderCase(t, c)
				})
			}
		})
	}
	t.Run("pseudo-headers in trailers", doPseudoHeadersInTrailersCase)
	t.Run("incorrect header ordering", doIncorrectHeaderOrderingCase)
}

func getAllHeaderCaseSuites(t *h3test.T, dirName string) []testmodel.HeaderCaseSuite {
	sources, err := data.LoadAllDataFiles(dirName)
	require.NoError(t, err)
	ret := make([]testmodel.HeaderCaseSuite, 0, len(sources))
	for _, source := range sources {
		var suite testmodel.HeaderCaseSuite
		require.NoError(t, source.ParseInto(&suite))
		ret = append(ret, suite)
	}
	return ret
}

// runHeaderCase executes one data-driven case.
func runHeaderCase(t *h3test.T, c testmodel.HeaderCase) {
	runProbe(t, harness.CaseInfo{
		ID:         c.ID,
		Name:       c.Name,
		Violation:  c.Violation,
		RFCSection: c.RFCSection,
	}, headerCaseScript(c))
}

// headerCaseScript builds the script for one data-driven case: every
// request's HEADERS frame goes out first, each on its own stream, then the
// declared bodies follow in the same order. Splitting the sends this way
// puts all header violations on the wire before any body data can provoke a
// reaction of its own.
func headerCaseScript(c testmodel.HeaderCase) func(*harness.Probe) {
	return func(p *harness.Probe) {
		if p.SetupConformantConnection() != nil {
			return
		}
		conn := p.Conn()

		streams := make([]transport.StreamID, len(c.Requests))
		for i, req := range c.Requests {
			id, err := p.CreateRequestStream()
			if err != nil {
				return
			}
			streams[i] = id
			p.Step(req.Step, conn.SendHeaders(id, headerFields(req.Headers), req.EndStream))
		}
		for i, req := range c.Requests {
			if !req.Body.IsDefined() {
				continue
			}
			body := req.Body.Value()
			p.Step(body.Step, conn.SendData(streams[i], []byte(body.Data), !body.KeepOpen))
		}

		for _, note := range c.Notes {
			p.Note("%s", note)
		}
	}
}

func headerFields(fields []testmodel.HeaderField) []qpack.HeaderField {
	out := make([]qpack.HeaderField, len(fields))
	for i, f := range fields {
		out[i] = qpack.HeaderField{Name: f.Name, Value: f.Value}
	}
	return out
}

func doPseudoHeadersInTrailersCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         20,
		Name:       "Pseudo-headers in trailing HEADERS frame",
		Violation:  "Pseudo-headers MUST NOT appear in trailer sections",
		RFCSection: "HTTP/3 Trailer Field Requirements",
	}, pseudoHeadersInTrailersScript)
}

func pseudoHeadersInTrailersScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	id, err := p.CreateRequestStream()
	if err != nil {
		return
	}
	err = conn.SendHeaders(id, commonHeaders("POST", "/test-pseudo-trailers",
		field("x-test-case", "20"),
		field("content-type", "application/json"),
		field("user-agent", testUserAgent),
		field("te", "trailers"),
	), false)
	if p.Step("initial_headers_sent", err) != nil {
		return
	}
	body := []byte(`{"message": "This request will have invalid pseudo-headers in trailers"}`)
	if p.Step("request_body_sent", conn.SendData(id, body, false)) != nil {
		return
	}
	err = conn.SendHeaders(id, []qpack.HeaderField{
		field(":path", "/updated-path"),
		field(":method", "PUT"),
		field(":status", "200"),
		field(":scheme", "http"),
		field("x-request-id", "12345"),
		field("x-processing-time", "150ms"),
		field("x-trailer-test", "pseudo-headers-violation"),
	}, true)
	p.Step("pseudo_trailers_sent", err)

	p.Note("Trailing HEADERS frame sent with pseudo-headers (protocol violation)")
	p.Note("Pseudo-headers MUST NOT appear in trailer sections")
	p.Note("Forbidden pseudo-headers in trailers: :path, :method, :status, :scheme")
	p.Note("Valid trailers should only contain regular header fields")
}

func doIncorrectHeaderOrderingCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         22,
		Name:       "Incorrect header ordering",
		Violation:  "Pseudo-headers MUST appear before regular headers in requests",
		RFCSection: "HTTP/3 Header Field Ordering Requirements",
	}, incorrectHeaderOrderingScript)
}

// incorrectHeaderOrderingScript needs the raw header path: the shape of the
// violation is the wire order of the fields themselves.
func incorrectHeaderOrderingScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	id, err := p.CreateRequestStream()
	if err != nil {
		return
	}
	err = conn.SendRawHeaders(id, []qpack.HeaderField{
		field("host", defaultAuthority),
		field("user-agent", testUserAgent),
		field("accept", "application/json"),
		field("x-test-case", "22"),
		field("content-type", "application/json"),
		field(":method", "POST"),
		field(":path", "/test-header-ordering"),
		field(":scheme", "https"),
		field(":authority", defaultAuthority),
		field("authorization", "Bearer test-token"),
		field("cache-control", "no-cache"),
	}, false)
	if p.Step("incorrect_header_ordering_sent", err) != nil {
		return
	}
	body := []byte(`{"message": "This request has incorrect header ordering"}`)
	p.Step("request_body_sent", conn.SendData(id, body, true))

	p.Note("HEADERS frame sent with incorrect ordering (protocol violation)")
	p.Note("Regular headers appeared before pseudo-headers")
	p.Note("Pseudo-headers MUST appear before regular headers in requests")
	p.Note("Correct order: :method, :path, :scheme, :authority, then regular headers")
}
