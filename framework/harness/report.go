package harness

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/h3probe/h3probe/framework/helpers"
	o "github.com/h3probe/h3probe/framework/opt"
	"github.com/h3probe/h3probe/h3"

	"github.com/fatih/color"
)

var reportStepPassColor = color.New(color.FgGreen)    //nolint:gochecknoglobals
var reportStepFailColor = color.New(color.FgRed)      //nolint:gochecknoglobals
var reportTerminationColor = color.New(color.FgCyan)  //nolint:gochecknoglobals
var reportHeadingColor = color.New(color.Bold)        //nolint:gochecknoglobals

const reportRuleWidth = 70

// Termination is the peer reaction that ended a probe's connection.
type Termination struct {
	// Code is the application error code from the CONNECTION_CLOSE, interpreted against the
	// HTTP/3 and QPACK registries by h3.ErrorCode.
	Code uint64

	// Reason is the peer's reason phrase, often empty.
	Reason string

	// Remote is false only when the close originated locally, such as an idle timeout.
	Remote bool
}

// StepOutcome is one recorded script step. OK means the step's bytes were handed to the
// transport; it says nothing about whether the peer tolerated them.
type StepOutcome struct {
	Name string
	OK   bool
}

// Report accumulates everything one probe run produced: the ordered step outcomes, free-form
// observations, and the first connection termination seen. It is written to by both the case
// script and the probe's event listener, so all access goes through a mutex.
//
// Recording a step under an already-used name overwrites that step's outcome in place rather
// than appending, so a script can re-run a step and keep one line per name in the report.
// Only the first termination is kept; later closes, including the probe's own teardown, never
// replace it. After Finalize, the report ignores all further writes.
type Report struct {
	lock        sync.Mutex
	info        CaseInfo
	target      string
	startTime   time.Time
	endTime     time.Time
	steps       []StepOutcome
	stepIndex   map[string]int
	notes       []string
	termination o.Maybe[Termination]
	finalized   bool
}

func NewReport(info CaseInfo, target string) *Report {
	return &Report{
		info:      info,
		target:    target,
		startTime: time.Now(),
		stepIndex: make(map[string]int),
	}
}

// AddStep records the outcome of a named step, replacing any earlier outcome of the same name.
func (r *Report) AddStep(name string, ok bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.finalized {
		return
	}
	if i, seen := r.stepIndex[name]; seen {
		r.steps[i].OK = ok
		return
	}
	r.stepIndex[name] = len(r.steps)
	r.steps = append(r.steps, StepOutcome{Name: name, OK: ok})
}

// AddNote records a free-form observation.
func (r *Report) AddNote(format string, args ...interface{}) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.finalized {
		return
	}
	r.notes = append(r.notes, fmt.Sprintf(format, args...))
}

// SetTermination records how the connection ended. The first recorded termination wins;
// anything the connection does after it is already a consequence of being closed.
func (r *Report) SetTermination(t Termination) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.finalized || r.termination.IsDefined() {
		return
	}
	r.termination = o.Some(t)
}

// Termination returns the recorded termination, if any.
func (r *Report) Termination() (Termination, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.termination.Value(), r.termination.IsDefined()
}

// Steps returns a copy of the recorded steps in order.
func (r *Report) Steps() []StepOutcome {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]StepOutcome(nil), r.steps...)
}

// Notes returns a copy of the recorded observations in order.
func (r *Report) Notes() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.notes...)
}

// Finalize seals the report. Writes after this point are silently dropped, which keeps the
// probe's own teardown close from showing up as a peer reaction.
func (r *Report) Finalize() {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.finalized {
		return
	}
	r.finalized = true
	r.endTime = time.Now()
}

// Render writes the human-readable report. The layout is stable so that runs can be diffed:
// a header identifying the case, the step outcomes in execution order, termination detail if
// the peer closed the connection, observations, and a one-line summary.
func (r *Report) Render(w io.Writer) {
	r.lock.Lock()
	defer r.lock.Unlock()

	rule := strings.Repeat("=", reportRuleWidth)

	fmt.Fprintln(w, rule)
	_, _ = reportHeadingColor.Fprintf(w, "NON-CONFORMANCE TEST CASE #%d RESULTS\n", r.info.ID)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Test: %s\n", r.info.Name)
	fmt.Fprintf(w, "Violation: %s\n", r.info.Violation)
	fmt.Fprintf(w, "RFC Section: %s\n", r.info.RFCSection)
	fmt.Fprintf(w, "Target: %s\n", r.target)
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "Test Execution:")
	passed := 0
	for _, step := range r.steps {
		if step.OK {
			passed++
		}
		statusColor := helpers.IfElse(step.OK, reportStepPassColor, reportStepFailColor)
		_, _ = statusColor.Fprintf(w, "   %s %s\n", helpers.IfElse(step.OK, "PASS", "FAIL"), formatStepName(step.Name))
	}

	if r.termination.IsDefined() {
		t := r.termination.Value()
		fmt.Fprintln(w)
		_, _ = reportTerminationColor.Fprintf(w, "Connection Terminated: %s\n", h3.ErrorCode(t.Code))
		if t.Reason != "" {
			fmt.Fprintf(w, "   Reason: %s\n", t.Reason)
		}
		if !t.Remote {
			fmt.Fprintln(w, "   (closed locally)")
		}
	}

	if len(r.notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Key Observations:")
		for _, note := range r.notes {
			fmt.Fprintf(w, "   * %s\n", note)
		}
	}

	duration := r.endTime.Sub(r.startTime)
	if r.endTime.IsZero() {
		duration = time.Since(r.startTime)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d/%d steps passed in %.2fs\n", passed, len(r.steps), duration.Seconds())
	fmt.Fprintln(w, rule)
}

// formatStepName turns a step identifier like "control_stream_created" into the report form
// "Control Stream Created".
func formatStepName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
