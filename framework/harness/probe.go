package harness

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/h3probe/h3probe/framework"
	"github.com/h3probe/h3probe/h3"
	"github.com/h3probe/h3probe/transport"
)

// CaseInfo identifies one violation case and the protocol rule it breaks.
type CaseInfo struct {
	// ID is the stable case number used in reports and test names.
	ID int

	// Name is a short human-readable summary of the case.
	Name string

	// Violation describes the illegal behavior the probe performs.
	Violation string

	// RFCSection cites the requirement being violated, such as "RFC 9114 Section 6.2.1".
	RFCSection string
}

// ProbeState tracks where a probe is in its lifecycle. States only ever advance.
type ProbeState int

const (
	ProbeCreated ProbeState = iota
	ProbeConnecting
	ProbeExecuting
	ProbeObserving
	ProbeFinalized
)

func (s ProbeState) String() string {
	switch s {
	case ProbeCreated:
		return "created"
	case ProbeConnecting:
		return "connecting"
	case ProbeExecuting:
		return "executing"
	case ProbeObserving:
		return "observing"
	case ProbeFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("unknown (%d)", int(s))
	}
}

// Probe drives one violation case over its own connection to the target. The case script
// sends whatever bytes it wants through Conn, recording named steps and observations as it
// goes; every peer reaction seen on the connection lands in the probe's report until the
// report is finalized.
type Probe struct {
	info   CaseInfo
	conn   *h3.Conn
	tr     transport.Connection
	report *Report
	logger framework.Logger
	window time.Duration

	stateLock  sync.Mutex
	state      ProbeState
	listenDone chan struct{}
}

// NewProbe dials a fresh connection to the harness's target and begins capturing events
// from it. Each case gets its own probe, so one server reaction can never bleed into
// another case's observations.
func (h *TestHarness) NewProbe(ctx context.Context, info CaseInfo, logger framework.Logger) (*Probe, error) {
	if logger == nil {
		logger = h.logger
	}
	target := h.target
	target.Logger = logger

	p := newProbe(info, target.Address(), h.observationWindow, logger)

	p.setState(ProbeConnecting)
	tr, err := transport.Dial(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to target at %s: %w", target.Address(), err)
	}
	p.attach(tr)
	return p, nil
}

// NewProbeForConnection wires a probe to a connection that already exists instead of
// dialing one. Unit tests use it with a mock connection.
func NewProbeForConnection(
	info CaseInfo,
	tr transport.Connection,
	observationWindow time.Duration,
	logger framework.Logger,
) *Probe {
	if logger == nil {
		logger = framework.NullLogger()
	}
	p := newProbe(info, "(test connection)", observationWindow, logger)
	p.attach(tr)
	return p
}

func newProbe(info CaseInfo, target string, window time.Duration, logger framework.Logger) *Probe {
	return &Probe{
		info:       info,
		report:     NewReport(info, target),
		logger:     logger,
		window:     window,
		state:      ProbeCreated,
		listenDone: make(chan struct{}),
	}
}

func (p *Probe) attach(tr transport.Connection) {
	p.tr = tr
	p.conn = h3.NewConn(tr)
	p.report.AddStep("connection_established", true)
	p.setState(ProbeExecuting)
	go p.listen(tr.Events())
}

// listen runs until the transport's event channel closes. Every event type the transport
// can produce is handled here; a new event kind would fail to compile without a case.
func (p *Probe) listen(events <-chan transport.Event) {
	defer close(p.listenDone)
	for ev := range events {
		switch e := ev.(type) {
		case transport.Terminated:
			name := h3.ErrorCode(e.Code).String()
			p.report.SetTermination(Termination{Code: e.Code, Reason: e.Reason, Remote: e.Remote})
			p.report.AddNote("Connection terminated: %s - %s", name, e.Reason)
			p.logger.Printf("peer reaction: connection terminated with %s (reason %q)", name, e.Reason)
		case transport.StreamReset:
			p.report.AddNote("Stream %d reset (code: %d)", e.Stream, e.Code)
			p.logger.Printf("peer reaction: stream %d reset with code %d", e.Stream, e.Code)
		}
	}
}

// Conn returns the HTTP/3 layer of this probe's connection. Cases drive it directly;
// nothing on the path between a case script and the wire second-guesses what it sends.
func (p *Probe) Conn() *h3.Conn {
	return p.conn
}

// Report returns the report being accumulated for this probe.
func (p *Probe) Report() *Report {
	return p.report
}

// State returns the probe's current lifecycle state.
func (p *Probe) State() ProbeState {
	p.stateLock.Lock()
	defer p.stateLock.Unlock()
	return p.state
}

func (p *Probe) setState(s ProbeState) {
	p.stateLock.Lock()
	defer p.stateLock.Unlock()
	if s > p.state {
		p.state = s
	}
}

// Step records the outcome of one named script step. A step succeeds when its bytes were
// handed to the transport locally; whether the peer tolerated them is a separate question,
// answered by the report's termination state. The given error is passed through so that
// sends can be wrapped in place.
func (p *Probe) Step(name string, err error) error {
	if err == nil {
		p.report.AddStep(name, true)
		p.logger.Printf("step %s: ok", name)
	} else {
		p.report.AddStep(name, false)
		p.report.AddNote("%s failed: %v", name, err)
		p.logger.Printf("step %s: %v", name, err)
	}
	return err
}

// Note records an observation in the report.
func (p *Probe) Note(format string, args ...interface{}) {
	p.report.AddNote(format, args...)
}

// Terminated reports whether a connection termination has been recorded, and its detail.
func (p *Probe) Terminated() (Termination, bool) {
	return p.report.Termination()
}

// SetupConformantConnection performs the legal HTTP/3 opening that most cases need before
// their violation: a control stream carrying default SETTINGS, plus the two QPACK streams.
func (p *Probe) SetupConformantConnection() error {
	p.logger.Printf("setting up conformant HTTP/3 connection")

	ctrl, err := p.conn.OpenUniStream(h3.StreamTypeControl)
	if err == nil {
		err = p.conn.SendSettings(ctrl, nil)
	}
	if err := p.Step("control_stream_created", err); err != nil {
		return err
	}

	_, err = p.conn.OpenUniStream(h3.StreamTypeQPACKEncoder)
	if err == nil {
		_, err = p.conn.OpenUniStream(h3.StreamTypeQPACKDecoder)
	}
	return p.Step("qpack_streams_created", err)
}

// CreateRequestStream opens a bidirectional stream for a request, recording the step.
func (p *Probe) CreateRequestStream() (transport.StreamID, error) {
	id, err := p.conn.OpenRequestStream()
	if err := p.Step("request_stream_created", err); err != nil {
		return 0, err
	}
	return id, nil
}

// Observe consumes the full observation window, giving the peer time to react to whatever
// the script sent. It always waits out the entire window even if a termination was already
// seen, so reports reflect everything the peer did rather than just its first reaction.
func (p *Probe) Observe() {
	p.setState(ProbeObserving)
	p.logger.Printf("observing target behavior (%s)", p.window)
	time.Sleep(p.window)
}

// Finalize seals the report and renders it to w. Events arriving after this point, such as
// the probe's own teardown close, are not recorded.
func (p *Probe) Finalize(w io.Writer) {
	p.setState(ProbeFinalized)
	p.report.Finalize()
	p.report.Render(w)
}

// Close tears the connection down with H3_NO_ERROR and waits for the event listener to
// drain. It is safe to call after the peer has already closed the connection.
func (p *Probe) Close() error {
	err := p.tr.CloseWithError(uint64(h3.ErrCodeNoError), "")
	<-p.listenDone
	return err
}
