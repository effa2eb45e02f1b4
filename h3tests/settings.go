package h3tests

import (
	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
	"github.com/h3probe/h3probe/h3"
)

func doSettingsTests(t *h3test.T) {
	t.Run("second SETTINGS frame", doSecondSettingsFrameCase)
	t.Run("SETTINGS on push stream", doSettingsOnPushStreamCase)
	t.Run("duplicate setting identifiers", doDuplicateSettingIdentifiersCase)
	t.Run("reserved setting identifier", doReservedSettingIdentifierCase)
}

func doSecondSettingsFrameCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         60,
		Name:       "Second SETTINGS frame",
		Violation:  "Second SETTINGS frame triggers H3_FRAME_UNEXPECTED",
		RFCSection: "Only one SETTINGS frame allowed per control stream",
	}, secondSettingsFrameScript)
}

func secondSettingsFrameScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}
	conn := p.Conn()

	ctrl, ok := conn.ControlStream()
	if !ok {
		return
	}
	p.Step("second_settings_frame_sent", conn.SendSettings(ctrl, nil))

	p.Note("Second SETTINGS frame sent on control stream (protocol violation)")
	p.Note("Only one SETTINGS frame is allowed per control stream")
	p.Note("Should trigger H3_FRAME_UNEXPECTED connection error")
}

func doSettingsOnPushStreamCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         62,
		Name:       "SETTINGS frame on push stream",
		Violation:  "SETTINGS frame on push stream triggers H3_FRAME_UNEXPECTED",
		RFCSection: "SETTINGS frames MUST NOT be sent on any stream other than control stream",
	}, settingsOnPushStreamScript)
}

func settingsOnPushStreamScript(p *harness.Probe) {
	if p.SetupConformantConnection() != nil {
		return
	}

	id, err := openPushTypedStream(p)
	if p.Step("push_stream_created", err) != nil {
		return
	}
	p.Step("settings_on_push_stream_sent", p.Conn().SendSettings(id, nil))

	p.Note("SETTINGS frame sent on push stream (protocol violation)")
	p.Note("SETTINGS frames MUST NOT be sent on any stream other than control stream")
	p.Note("Should trigger H3_FRAME_UNEXPECTED connection error")
}

func doDuplicateSettingIdentifiersCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         63,
		Name:       "Duplicate setting identifiers",
		Violation:  "Duplicate setting identifiers trigger H3_SETTINGS_ERROR",
		RFCSection: "Same setting identifier MUST NOT occur more than once",
	}, duplicateSettingIdentifiersScript)
}

// duplicateSettingIdentifiersScript does not use the conformant setup: the
// violation is inside the connection's very first SETTINGS frame.
func duplicateSettingIdentifiersScript(p *harness.Probe) {
	conn := p.Conn()

	ctrl, err := conn.OpenUniStream(h3.StreamTypeControl)
	if p.Step("control_stream_created", err) != nil {
		return
	}
	p.Step("duplicate_settings_sent", conn.SendSettings(ctrl, []h3.Setting{
		{ID: h3.SettingQPACKMaxTableCapacity, Value: 4096},
		{ID: h3.SettingQPACKMaxTableCapacity, Value: 8192},
		{ID: h3.SettingMaxFieldSectionSize, Value: 16},
	}))
	openQPACKStreams(p)

	p.Note("SETTINGS frame with duplicate setting identifiers (protocol violation)")
	p.Note("Same setting identifier MUST NOT occur more than once")
	p.Note("Should trigger H3_SETTINGS_ERROR connection error")
}

func doReservedSettingIdentifierCase(t *h3test.T) {
	runProbe(t, harness.CaseInfo{
		ID:         65,
		Name:       "Reserved setting identifier",
		Violation:  "Reserved setting identifier triggers H3_SETTINGS_ERROR",
		RFCSection: "Reserved settings MUST NOT be sent by client",
	}, reservedSettingIdentifierScript)
}

func reservedSettingIdentifierScript(p *harness.Probe) {
	conn := p.Conn()

	ctrl, err := conn.OpenUniStream(h3.StreamTypeControl)
	if p.Step("control_stream_created", err) != nil {
		return
	}
	// 0x2 is SETTINGS_ENABLE_PUSH from HTTP/2; in HTTP/3 it is reserved and
	// must not appear at all. The value sent with it is irrelevant.
	p.Step("reserved_settings_sent", conn.SendSettings(ctrl, []h3.Setting{
		{ID: h3.SettingQPACKMaxTableCapacity, Value: 4096},
		{ID: h3.SettingMaxFieldSectionSize, Value: 16},
		{ID: 0x2, Value: 1},
	}))
	openQPACKStreams(p)

	p.Note("SETTINGS frame with reserved setting identifier 0x2 (protocol violation)")
	p.Note("Reserved settings MUST NOT be sent by client")
	p.Note("Should trigger H3_SETTINGS_ERROR connection error")
}

func openQPACKStreams(p *harness.Probe) {
	conn := p.Conn()
	_, err := conn.OpenUniStream(h3.StreamTypeQPACKEncoder)
	if err == nil {
		_, err = conn.OpenUniStream(h3.StreamTypeQPACKDecoder)
	}
	p.Step("qpack_streams_created", err)
}
