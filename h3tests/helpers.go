package h3tests

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
	"github.com/h3probe/h3probe/h3"
	"github.com/h3probe/h3probe/transport"

	"github.com/quic-go/qpack"
	"github.com/quic-go/quic-go/quicvarint"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "HTTP3-NonConformance-Test/1.0"

// errNoControlStream is recorded when a script needs the control stream but the
// conformant setup never produced one.
var errNoControlStream = errors.New("no control stream available")

const defaultAuthority = "test-server"

// acceptHTML is the browser-shaped accept value the push-inviting requests
// carry to look like page loads.
const acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// field is shorthand for one header field in a case script.
func field(name, value string) qpack.HeaderField {
	return qpack.HeaderField{Name: name, Value: value}
}

// commonHeaders builds the pseudo-fields every conformant request starts
// with, in the conformant order, followed by the extra fields in the order
// given.
func commonHeaders(method, path string, extra ...qpack.HeaderField) []qpack.HeaderField {
	fields := []qpack.HeaderField{
		{Name: ":method", Value: method},
		{Name: ":path", Value: path},
		{Name: ":scheme", Value: "https"},
		{Name: ":authority", Value: defaultAuthority},
	}
	return append(fields, extra...)
}

// openPushTypedStream opens a unidirectional stream declared as a push
// stream and writes push ID 0, the preamble a server-initiated push stream
// would carry. Several cases misuse such a stream as the scene of a second
// violation.
func openPushTypedStream(p *harness.Probe) (transport.StreamID, error) {
	conn := p.Conn()
	id, err := conn.OpenUniStream(h3.StreamTypePush)
	if err == nil {
		err = conn.SendStreamBytes(id, quicvarint.Append(nil, 0), false)
	}
	return id, err
}

// openRequestWithHeaders opens a request stream and sends an unremarkable
// initial HEADERS frame on it, leaving the stream open for the violation
// that follows.
func openRequestWithHeaders(p *harness.Probe, caseID string) (transport.StreamID, error) {
	id, err := p.CreateRequestStream()
	if err != nil {
		return 0, err
	}
	err = p.Conn().SendHeaders(id, commonHeaders("GET", "/test-request",
		field("x-test-case", caseID),
		field("user-agent", testUserAgent),
	), false)
	if p.Step("initial_headers_sent", err) != nil {
		return 0, err
	}
	return id, nil
}

// sendSingleRequest opens a request stream and sends one complete GET on it,
// recording the outcome under the given step name.
func sendSingleRequest(p *harness.Probe, step, path string, extra ...qpack.HeaderField) {
	id, err := p.CreateRequestStream()
	if err == nil {
		err = p.Conn().SendHeaders(id, commonHeaders("GET", path, extra...), true)
	}
	p.Step(step, err)
}

// runProbe dials a fresh probe for one case, runs the case's script, then
// consumes the observation window and renders the report. Only a connection
// failure can fail the test scope: a script whose sends are rejected is
// observing a peer reaction, not hitting a bug in the harness.
func runProbe(t *h3test.T, info harness.CaseInfo, script func(*harness.Probe)) {
	probeCtx := requireContext(t)
	p, err := probeCtx.harness.NewProbe(context.Background(), info, t.DebugLogger())
	if err != nil {
		emitReport(t, renderConnectionFailure(probeCtx, info, err))
		require.NoError(t, err)
	}
	t.Defer(func() {
		_ = p.Close()
	})
	script(p)
	p.Observe()
	var buf bytes.Buffer
	p.Finalize(&buf)
	emitReport(t, buf.String())
}

// renderConnectionFailure produces the report shell for a case whose probe
// never got a connection.
func renderConnectionFailure(probeCtx ProbeContext, info harness.CaseInfo, err error) string {
	report := harness.NewReport(info, probeCtx.harness.Target().Address())
	report.AddStep("connection_established", false)
	report.AddNote("%s", err)
	report.Finalize()
	var buf bytes.Buffer
	report.Render(&buf)
	return buf.String()
}

// emitReport prints a rendered report to the console and mirrors it into the
// test scope's debug log, so JUnit output and --debug replay carry it.
func emitReport(t *h3test.T, text string) {
	fmt.Print(text)
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		t.Debug("%s", line)
	}
}
