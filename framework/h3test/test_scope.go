package h3test

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/h3probe/h3probe/framework"
)

// TestConfiguration holds the options for an entire run of the suite.
type TestConfiguration struct {
	// Filter decides which test scopes run, based on their full IDs. A nil
	// Filter runs everything.
	Filter Filter

	// TestLogger receives progress and result callbacks as scopes run.
	TestLogger TestLogger

	// Context is an arbitrary application value that test code can read
	// back with T.Context. The harness uses it to hand each test its
	// probe environment.
	Context interface{}
}

// Run executes action as the root test scope and returns the accumulated
// results of every scope that ran inside it.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	state := &runState{config: config}
	root := &T{state: state}
	root.run(action)
	return state.results
}

// runState is shared by every T in one call to Run.
type runState struct {
	config  TestConfiguration
	results Results
}

// T is the handle for one test scope. It deliberately resembles Go's
// testing.T and implements the subset of it that assertion libraries
// expect (Errorf, FailNow, Helper).
type T struct {
	state       *runState
	id          TestID
	debugLogger framework.CapturingLogger
	nonCritical string
	failed      bool
	skipped     bool
	skipReason  string
	cleanups    []func()
	errors      []error
	helperNames []string
}

// ID returns the full path of this scope within the run.
func (t *T) ID() TestID {
	return t.id
}

// Run executes a child scope, like testing.T.Run. If the run's Filter
// excludes the child's ID, the child is reported as skipped and its action
// never executes.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)

	t.state.config.TestLogger.TestStarted(id)
	if t.state.config.Filter != nil && !t.state.config.Filter(id) {
		t.state.config.TestLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}

	child := &T{state: t.state, id: id}
	t.debugLogger.AddChildLogger(&child.debugLogger) // see comments on DebugLogger
	result := child.run(action)
	t.debugLogger.RemoveChildLogger(&child.debugLogger)

	if child.skipped {
		t.state.config.TestLogger.TestSkipped(id, child.skipReason)
	} else {
		t.state.config.TestLogger.TestFinished(id, result, child.debugLogger.Output())
	}
}

func (t *T) run(action func(*T)) (result TestResult) {
	result.TestID = t.id
	defer func() {
		t.settle(&result, recover())
	}()
	action(t)
	return result
}

// settle records the outcome of a scope after its action returned or
// panicked. A Skip panic leaves no result behind and runs no cleanups; the
// parent scope reports the skip instead.
func (t *T) settle(result *TestResult, panicked interface{}) {
	if panicked != nil {
		if t.skipped {
			return
		}
		t.failed = true
		var failure error
		if _, ok := panicked.(*T); ok {
			// FailNow; any messages were already recorded by Errorf
			if len(t.errors) == 0 {
				failure = errors.New("test failed with no failure message")
			}
		} else {
			failure = fmt.Errorf("unexpected panic in test: %+v\n%s", panicked, string(debug.Stack()))
		}
		if failure != nil {
			t.errors = append(t.errors, failure)
			t.state.config.TestLogger.TestError(t.id, failure)
		}
	}

	result.Errors = t.errors
	if t.failed {
		if t.nonCritical == "" {
			t.state.results.Failures = append(t.state.results.Failures, *result)
		} else {
			result.Explanation = t.nonCritical
			result.NonCritical = true
			t.state.results.NonCriticalFailures = append(t.state.results.NonCriticalFailures, *result)
		}
	}
	t.state.results.Tests = append(t.state.results.Tests, *result)

	for i := len(t.cleanups) - 1; i >= 0; i-- {
		t.cleanups[i]()
	}
}

// NonCritical downgrades any failure in this scope. It is reported
// separately with the given explanation and does not affect the process
// exit status. Used for peer behaviors that are recommended rather than
// required.
func (t *T) NonCritical(explanation string) {
	t.nonCritical = explanation
}

// Errorf records a failure message and marks the scope as failed without
// stopping it, like testing.T.Errorf. Assertion libraries reach it through
// the assert.TestingT interface; test code rarely calls it directly.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := normalizeError(fmt.Errorf(format, args...), captureStacktrace(false, t.helperNames))
	t.errors = append(t.errors, err)
	t.state.config.TestLogger.TestError(t.id, err)
}

// FailNow marks the scope as failed and stops it immediately, like
// testing.T.FailNow. Assertion libraries reach it through the
// require.TestingT interface.
func (t *T) FailNow() {
	panic(t)
}

// Skip stops the scope immediately and marks it as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is Skip with a message saying why.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Debug writes a printf-style message to this scope's captured output.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns the logger that captures output for this scope. The
// captured output is handed to TestLogger.TestFinished when the scope ends,
// and the runner decides whether to display it.
//
// A child scope's logger starts with a copy of whatever the parent had
// already captured, and while the child runs, output sent to the parent's
// logger is redirected into the child. A parent that holds a long-lived
// object, such as a probe connection shared by several subtests, thus has
// its connection chatter attributed to whichever subtest it happened
// during.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer registers a cleanup to run when this scope ends for any reason.
// Unlike the defer statement, it works from inside helper functions.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// Context returns the application value from TestConfiguration.Context.
func (t *T) Context() interface{} {
	return t.state.config.Context
}

// Helper marks the calling function as a helper whose stack frames are
// left out of failure stacktraces, like testing.T.Helper.
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1) // 0 is Helper itself
	if !ok {
		return
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return
	}
	t.helperNames = append(t.helperNames, f.Name())
}
