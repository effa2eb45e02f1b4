package harness

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h3probe/h3probe/framework/helpers"
	"github.com/h3probe/h3probe/h3"
	"github.com/h3probe/h3probe/mockh3"
)

func newTestProbe(t *testing.T) (*Probe, *mockh3.MockConnection) {
	mock := mockh3.NewMockConnection()
	p := NewProbeForConnection(sampleCaseInfo(), mock, time.Millisecond, nil)
	t.Cleanup(func() { _ = p.Close() })
	return p, mock
}

func TestProbeStartsExecutingWithConnectionEstablished(t *testing.T) {
	p, _ := newTestProbe(t)

	assert.Equal(t, ProbeExecuting, p.State())
	require.Len(t, p.Report().Steps(), 1)
	assert.Equal(t, StepOutcome{Name: "connection_established", OK: true}, p.Report().Steps()[0])
}

func TestProbeStepRecordsOutcomeAndPassesErrorThrough(t *testing.T) {
	p, _ := newTestProbe(t)

	require.NoError(t, p.Step("good_step", nil))

	boom := errors.New("boom")
	assert.Equal(t, boom, p.Step("bad_step", boom))

	steps := p.Report().Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, StepOutcome{Name: "good_step", OK: true}, steps[1])
	assert.Equal(t, StepOutcome{Name: "bad_step", OK: false}, steps[2])
	assert.Contains(t, p.Report().Notes(), "bad_step failed: boom")
}

func TestProbeSetupConformantConnection(t *testing.T) {
	p, mock := newTestProbe(t)

	require.NoError(t, p.SetupConformantConnection())

	steps := p.Report().Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, "control_stream_created", steps[1].Name)
	assert.True(t, steps[1].OK)
	assert.Equal(t, "qpack_streams_created", steps[2].Name)
	assert.True(t, steps[2].OK)

	// Control stream: type preamble, then one SETTINGS frame with the
	// default settings.
	ctrl := mock.WrittenBytes(2)
	require.NotEmpty(t, ctrl)
	assert.Equal(t, byte(0x00), ctrl[0])
	r := bytes.NewReader(ctrl[1:])
	frame, err := h3.ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, h3.FrameTypeSettings, frame.Type)
	settings, err := h3.ParseSettings(frame.Payload)
	require.NoError(t, err)
	assert.Equal(t, h3.DefaultSettings(), settings)

	// QPACK streams carry only their type bytes.
	assert.Equal(t, []byte{0x02}, mock.WrittenBytes(6))
	assert.Equal(t, []byte{0x03}, mock.WrittenBytes(10))
}

func TestProbeSetupFailureIsRecorded(t *testing.T) {
	p, mock := newTestProbe(t)
	mock.FailOpensWith(mockh3.ErrConnectionClosed)

	err := p.SetupConformantConnection()
	require.Error(t, err)

	steps := p.Report().Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, StepOutcome{Name: "control_stream_created", OK: false}, steps[1])
}

func TestProbeRecordsPeerTermination(t *testing.T) {
	p, mock := newTestProbe(t)

	mock.InjectTermination(uint64(h3.ErrCodeSettingsError), "duplicate settings")

	helpers.RequireEventually(t, func() bool {
		_, ok := p.Terminated()
		return ok
	}, time.Second, 10*time.Millisecond, "termination was never recorded")

	term, _ := p.Terminated()
	assert.Equal(t, uint64(h3.ErrCodeSettingsError), term.Code)
	assert.Equal(t, "duplicate settings", term.Reason)
	assert.True(t, term.Remote)
	assert.Contains(t, p.Report().Notes(), "Connection terminated: H3_SETTINGS_ERROR - duplicate settings")
}

func TestProbeRecordsStreamReset(t *testing.T) {
	p, mock := newTestProbe(t)

	mock.InjectStreamReset(0, uint64(h3.ErrCodeRequestCancelled))

	helpers.RequireEventually(t, func() bool {
		for _, note := range p.Report().Notes() {
			if note == "Stream 0 reset (code: 268)" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond, "stream reset was never recorded")
}

func TestProbeObserveConsumesWindowAndAdvancesState(t *testing.T) {
	mock := mockh3.NewMockConnection()
	p := NewProbeForConnection(sampleCaseInfo(), mock, 30*time.Millisecond, nil)
	t.Cleanup(func() { _ = p.Close() })

	start := time.Now()
	p.Observe()

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, ProbeObserving, p.State())
}

func TestProbeFinalizeSealsReport(t *testing.T) {
	p, _ := newTestProbe(t)
	p.Step("only_step", nil)

	var buf bytes.Buffer
	p.Finalize(&buf)

	assert.Equal(t, ProbeFinalized, p.State())
	assert.Contains(t, buf.String(), "NON-CONFORMANCE TEST CASE #63 RESULTS")
	assert.Contains(t, buf.String(), "PASS Only Step")

	p.Step("late_step", nil)
	assert.Len(t, p.Report().Steps(), 2)

	// States only advance; observing after finalization is a no-op.
	p.Observe()
	assert.Equal(t, ProbeFinalized, p.State())
}

func TestProbeCloseAfterPeerCloseDoesNotHang(t *testing.T) {
	mock := mockh3.NewMockConnection()
	p := NewProbeForConnection(sampleCaseInfo(), mock, time.Millisecond, nil)

	mock.InjectTermination(uint64(h3.ErrCodeNoError), "bye")
	require.NoError(t, p.Close())
}
