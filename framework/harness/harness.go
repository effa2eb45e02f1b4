package harness

import (
	"io"
	"time"

	"github.com/h3probe/h3probe/framework"
	"github.com/h3probe/h3probe/targetinfo"
	"github.com/h3probe/h3probe/transport"
)

// DefaultObservationWindow is how long a probe keeps listening for a peer reaction after
// its script finishes, unless configured otherwise.
const DefaultObservationWindow = 3 * time.Second

// TestHarness is the main component that manages probing of a target endpoint.
//
// It always probes a single target, which it verifies is reachable on startup by completing
// a normal QUIC handshake (NewTestHarness fails if the target never answers). Test cases
// then ask it for probes (NewProbe); each probe wraps a fresh connection to the target.
//
// It contains no knowledge of individual violations, but only provides a general mechanism
// for case suites to build on.
type TestHarness struct {
	target            transport.Config
	targetInfo        targetinfo.TargetInfo
	observationWindow time.Duration
	logger            framework.Logger
}

// NewTestHarness creates a TestHarness instance, verifying that the target endpoint is
// answering QUIC handshakes before any cases run. Progress is written to startupOutput.
func NewTestHarness(
	target transport.Config,
	preflightTimeout time.Duration,
	observationWindow time.Duration,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if observationWindow <= 0 {
		observationWindow = DefaultObservationWindow
	}
	target.Logger = debugLogger

	h := &TestHarness{
		target:            target,
		observationWindow: observationWindow,
		logger:            debugLogger,
	}

	info, err := queryTargetInfo(target, preflightTimeout, startupOutput)
	if err != nil {
		return nil, err
	}
	h.targetInfo = info

	return h, nil
}

// TargetInfo returns what the preflight connection learned about the target endpoint.
func (h *TestHarness) TargetInfo() targetinfo.TargetInfo {
	return h.targetInfo
}

// Target returns the connection parameters for the endpoint under test.
func (h *TestHarness) Target() transport.Config {
	return h.target
}

// ObservationWindow returns how long each probe watches for peer reactions.
func (h *TestHarness) ObservationWindow() time.Duration {
	return h.observationWindow
}
