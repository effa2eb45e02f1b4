package h3tests

import (
	"fmt"
	"strconv"

	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
	"github.com/h3probe/h3probe/transport"
)

func doGoAwayTests(t *h3test.T) {
	t.Run("increasing GOAWAY identifiers", doGoAwaySequenceCase)
}

func doGoAwaySequenceCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         41,
		Name:       "GOAWAY frames with increasing identifiers",
		Violation:  "GOAWAY frame identifiers MUST NOT increase across multiple frames",
		RFCSection: "HTTP/3 GOAWAY Frame Requirements",
	}, goawaySequenceScript)
}

// goawaySequenceScript sends five GOAWAY frames whose identifiers mostly climb.
// Each GOAWAY's identifier must be no greater than any sent before it; only the
// fourth frame here obeys that, so the peer gets several chances to object. The
// stream IDs named by the GOAWAYs come from real requests opened up front.
func goawaySequenceScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	var requestStreams []transport.StreamID
	var reqErr error
	for i := 1; i <= 5; i++ {
		id, err := p.CreateRequestStream()
		if err != nil {
			return
		}
		requestStreams = append(requestStreams, id)
		err = conn.SendHeaders(id, commonHeaders("GET", fmt.Sprintf("/request%d.html", i),
			field("x-test-case", "41"),
			field("user-agent", testUserAgent),
			field("x-request-number", strconv.Itoa(i)),
		), true)
		if err != nil && reqErr == nil {
			reqErr = err
		}
	}
	p.Step("initial_requests_sent", reqErr)

	ctrl, ok := conn.ControlStream()
	if !ok {
		p.Step("first_goaway_sent", errNoControlStream)
		return
	}

	first := requestStreams[1]
	if p.Step("first_goaway_sent", conn.SendGoAway(ctrl, uint64(first))) != nil {
		return
	}

	p.Observe()

	// Higher than the first GOAWAY's identifier, which is the violation.
	second := requestStreams[3]
	p.Step("second_goaway_sent", conn.SendGoAway(ctrl, uint64(second)))

	third, err := p.CreateRequestStream()
	if err != nil {
		return
	}
	p.Step("third_goaway_sent", conn.SendGoAway(ctrl, uint64(third)))

	// The one conformant frame in the sequence: its identifier decreases.
	fourth := requestStreams[0]
	p.Step("fourth_goaway_sent", conn.SendGoAway(ctrl, uint64(fourth)))

	for i := 1; i <= 3; i++ {
		sendSingleRequest(p, fmt.Sprintf("post_goaway_request_%d_sent", i), fmt.Sprintf("/post-goaway%d.html", i),
			field("x-test-case", "41"),
			field("user-agent", testUserAgent),
			field("x-post-goaway", "true"),
			field("x-request-number", strconv.Itoa(i)),
		)
	}

	extreme := requestStreams[0]
	for _, id := range requestStreams {
		if id > extreme {
			extreme = id
		}
	}
	extreme += 1000
	p.Step("extreme_goaway_sent", conn.SendGoAway(ctrl, uint64(extreme)))

	p.Observe()

	sendSingleRequest(p, "final_request_sent", "/status",
		field("x-test-case", "41"),
		field("user-agent", testUserAgent),
		field("x-final-check", "true"),
	)

	p.Note("Multiple GOAWAY frames sent with increasing identifiers (protocol violation)")
	p.Note("GOAWAY sequence: %d -> %d -> %d -> %d -> %d", first, second, third, fourth, extreme)
	p.Note("Violations: Second, third, and extreme GOAWAY IDs were higher than previous")
	p.Note("Conformant: Fourth GOAWAY ID correctly decreased")
	p.Note("GOAWAY identifiers MUST NOT increase to avoid client retry confusion")
	p.Note("Increasing GOAWAY IDs can cause clients to retry already-processed requests")
	p.Note("Test validates server handling of malformed GOAWAY sequences")
}
