package h3tests

import (
	"fmt"

	"github.com/quic-go/quic-go/quicvarint"

	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
	"github.com/h3probe/h3probe/h3"
)

func doPushTests(t *h3test.T) {
	t.Run("push without MAX_PUSH_ID", doPushWithoutMaxPushIDCase)
	t.Run("push ID limit", doPushIDLimitCase)
	t.Run("CANCEL_PUSH with invalid push ID", doCancelPushInvalidIDCase)
	t.Run("CANCEL_PUSH for unannounced push ID", doCancelPushUnannouncedIDCase)
	t.Run("client sends PUSH_PROMISE", doClientPushPromiseCase)
}

func doPushWithoutMaxPushIDCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         39,
		Name:       "Push stream without MAX_PUSH_ID frame",
		Violation:  "Server MUST NOT push when client hasn't sent MAX_PUSH_ID",
		RFCSection: "HTTP/3 Server Push Requirements",
	}, pushWithoutMaxPushIDScript)
}

// pushWithoutMaxPushIDScript never sends MAX_PUSH_ID, then issues a series of
// requests whose shape invites server push. The violation here belongs to the
// peer if it takes the bait: without MAX_PUSH_ID no push ID is permitted.
func pushWithoutMaxPushIDScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	p.Step("max_push_id_deliberately_omitted", nil)

	sendSingleRequest(p, "html_request_sent", "/index.html",
		field("accept", acceptHTML),
		field("accept-language", "en-US,en;q=0.5"),
		field("accept-encoding", "gzip, deflate, br"),
		field("x-test-case", "39"),
		field("user-agent", testUserAgent),
		field("x-request-push-resources", "true"),
		field("x-expect-resources", "css,js,images"),
	)
	sendSingleRequest(p, "resource_heavy_request_sent", "/dashboard",
		field("accept", acceptHTML),
		field("x-test-case", "39"),
		field("user-agent", testUserAgent),
		field("x-page-complexity", "high"),
		field("x-resource-count", "50+"),
		field("cache-control", "no-cache"),
	)
	sendSingleRequest(p, "push_hint_request_sent", "/app",
		field("accept", acceptHTML),
		field("x-test-case", "39"),
		field("user-agent", testUserAgent),
		field("x-preferred-push", "css,js,fonts"),
		field("x-push-policy", "aggressive"),
		field("priority", "u=1"),
	)
	sendSingleRequest(p, "spa_request_sent", "/spa",
		field("accept", acceptHTML),
		field("x-test-case", "39"),
		field("user-agent", testUserAgent),
		field("x-app-type", "spa"),
		field("x-preload-modules", "true"),
		field("x-bundle-splitting", "enabled"),
	)
	sendSingleRequest(p, "preload_request_sent", "/preload-test",
		field("accept", acceptHTML),
		field("x-test-case", "39"),
		field("user-agent", testUserAgent),
		field("x-preload-css", "/styles/main.css,/styles/theme.css"),
		field("x-preload-js", "/scripts/app.js,/scripts/vendor.js"),
		field("x-preload-fonts", "/fonts/main.woff2"),
	)
	sendSingleRequest(p, "cache_opt_request_sent", "/optimized",
		field("accept", acceptHTML),
		field("x-test-case", "39"),
		field("user-agent", testUserAgent),
		field("cache-control", "max-age=0"),
		field("if-none-match", "*"),
		field("x-cache-strategy", "push-then-cache"),
	)

	p.Observe()
	p.Step("observation_period_completed", nil)

	sendSingleRequest(p, "connection_still_active", "/status",
		field("x-test-case", "39"),
		field("user-agent", testUserAgent),
		field("x-final-check", "true"),
	)

	p.Note("Client deliberately did NOT send MAX_PUSH_ID frame")
	p.Note("Multiple requests sent that typically trigger server push")
	p.Note("Server MUST NOT initiate push streams without MAX_PUSH_ID")
	p.Note("Any push stream attempts would violate RFC 9114")
	p.Note("Expected behavior: Server processes requests normally, no push")
	p.Note("Violation check: Monitor for H3_ID_ERROR if server attempts push")
	p.Note("Test validates server compliance with MAX_PUSH_ID requirement")
}

func doPushIDLimitCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         40,
		Name:       "Push ID exceeds MAX_PUSH_ID limit",
		Violation:  "Server MUST NOT use push IDs greater than client's MAX_PUSH_ID",
		RFCSection: "HTTP/3 Server Push ID Management",
	}, pushIDLimitScript)
}

// pushIDLimitScript advertises a small MAX_PUSH_ID and then floods the peer
// with resource-heavy requests, far more than the limit can cover. A peer
// that pushes past push ID 3 has violated the advertised limit.
func pushIDLimitScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	const maxPushIDLimit = 3
	if ctrl, ok := conn.ControlStream(); ok {
		p.Step("max_push_id_sent", conn.SendMaxPushID(ctrl, maxPushIDLimit))
	} else {
		p.Step("max_push_id_sent", errNoControlStream)
	}

	sendSingleRequest(p, "request_1_sent", "/main.html",
		field("accept", acceptHTML),
		field("x-test-case", "40"),
		field("user-agent", testUserAgent),
		field("x-push-resources", "css,js,images,fonts"),
		field("x-max-push-id", "3"),
	)
	sendSingleRequest(p, "request_2_sent", "/dashboard.html",
		field("accept", acceptHTML),
		field("x-test-case", "40"),
		field("user-agent", testUserAgent),
		field("x-resource-heavy", "true"),
		field("x-expect-push-count", "10+"),
		field("x-max-push-id", "3"),
	)
	sendSingleRequest(p, "request_3_sent", "/app.html",
		field("accept", acceptHTML),
		field("x-test-case", "40"),
		field("user-agent", testUserAgent),
		field("x-modules", "core,auth,ui,api,utils"),
		field("x-aggressive-push", "true"),
		field("x-max-push-id", "3"),
	)
	sendSingleRequest(p, "request_4_sent", "/gallery.html",
		field("accept", acceptHTML),
		field("x-test-case", "40"),
		field("user-agent", testUserAgent),
		field("x-media-count", "20"),
		field("x-thumbnail-push", "enabled"),
		field("x-preload-images", "true"),
		field("x-max-push-id", "3"),
	)
	sendSingleRequest(p, "request_5_sent", "/product.html",
		field("accept", acceptHTML),
		field("x-test-case", "40"),
		field("user-agent", testUserAgent),
		field("x-product-images", "15"),
		field("x-related-products", "8"),
		field("x-push-strategy", "all-resources"),
		field("x-max-push-id", "3"),
	)
	sendSingleRequest(p, "request_6_sent", "/docs.html",
		field("accept", acceptHTML),
		field("x-test-case", "40"),
		field("user-agent", testUserAgent),
		field("x-code-samples", "25"),
		field("x-syntax-highlighting", "true"),
		field("x-push-all-assets", "true"),
		field("x-max-push-id", "3"),
	)
	for i := 7; i <= 11; i++ {
		sendSingleRequest(p, fmt.Sprintf("request_%d_sent", i), fmt.Sprintf("/page%d.html", i),
			field("accept", acceptHTML),
			field("x-test-case", "40"),
			field("user-agent", testUserAgent),
			field("x-push-encouragement", fmt.Sprintf("request-%d", i)),
			field("x-resource-intensive", "true"),
			field("x-max-push-id", "3"),
		)
	}

	p.Observe()
	p.Step("observation_period_completed", nil)

	sendSingleRequest(p, "final_status_sent", "/status",
		field("x-test-case", "40"),
		field("user-agent", testUserAgent),
		field("x-final-check", "true"),
		field("x-push-id-limit", "3"),
	)

	p.Note("Client sent MAX_PUSH_ID = %d (allows push IDs 0-%d)", maxPushIDLimit, maxPushIDLimit)
	p.Note("Multiple resource-intensive requests sent to trigger push")
	p.Note("Server MUST NOT use push IDs > %d", maxPushIDLimit)
	p.Note("Push ID violations should trigger H3_ID_ERROR")
	p.Note("Expected: Server respects push ID limit or doesn't push")
	p.Note("Violation: Server uses push IDs 4, 5, 6, etc.")
	p.Note("Test validates server compliance with MAX_PUSH_ID limits")
}

func doCancelPushInvalidIDCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         56,
		Name:       "CANCEL_PUSH frame with invalid push ID",
		Violation:  "CANCEL_PUSH with invalid push ID triggers H3_ID_ERROR",
		RFCSection: "CANCEL_PUSH must reference valid push ID",
	}, cancelPushInvalidIDScript)
}

func cancelPushInvalidIDScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()
	ctrl, ok := conn.ControlStream()
	if !ok {
		return
	}

	const invalidPushID = 5
	p.Step("cancel_push_invalid_id_sent",
		conn.SendRawFrame(ctrl, h3.FrameTypeCancelPush, quicvarint.Append(nil, invalidPushID)))

	p.Note("CANCEL_PUSH frame with invalid push ID %d (protocol violation)", invalidPushID)
	p.Note("Push ID exceeds currently allowed range")
	p.Note("Should trigger H3_ID_ERROR connection error")
}

func doCancelPushUnannouncedIDCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         58,
		Name:       "CANCEL_PUSH frame for unannounced push ID",
		Violation:  "CANCEL_PUSH for unannounced push ID triggers H3_ID_ERROR",
		RFCSection: "CANCEL_PUSH must reference push ID announced by PUSH_PROMISE",
	}, cancelPushUnannouncedIDScript)
}

func cancelPushUnannouncedIDScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()
	ctrl, ok := conn.ControlStream()
	if !ok {
		return
	}

	// Raising the limit first makes push ID 3 valid but still unannounced:
	// no PUSH_PROMISE ever mentioned it.
	if p.Step("max_push_id_sent", conn.SendMaxPushID(ctrl, 10)) != nil {
		return
	}

	const unannouncedPushID = 3
	p.Step("cancel_push_unannounced_id_sent",
		conn.SendRawFrame(ctrl, h3.FrameTypeCancelPush, quicvarint.Append(nil, unannouncedPushID)))

	p.Note("CANCEL_PUSH frame for unannounced push ID %d (protocol violation)", unannouncedPushID)
	p.Note("Push ID was never announced by server via PUSH_PROMISE")
	p.Note("Should trigger H3_ID_ERROR connection error")
}

func doClientPushPromiseCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         69,
		Name:       "Client sends PUSH_PROMISE frame",
		Violation:  "Client PUSH_PROMISE triggers H3_FRAME_UNEXPECTED",
		RFCSection: "Client MUST NOT send PUSH_PROMISE frame",
	}, clientPushPromiseScript)
}

func clientPushPromiseScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	id, err := openRequestWithHeaders(p, "69")
	if err != nil {
		return
	}

	// Push ID 0 followed by a minimal encoded field section.
	payload := quicvarint.Append(nil, 0)
	payload = append(payload, 0x00)
	p.Step("push_promise_sent", conn.SendRawFrame(id, h3.FrameTypePushPromise, payload))

	p.Note("PUSH_PROMISE frame sent by client (protocol violation)")
	p.Note("Client MUST NOT send PUSH_PROMISE frame")
	p.Note("Should trigger H3_FRAME_UNEXPECTED connection error")
}
