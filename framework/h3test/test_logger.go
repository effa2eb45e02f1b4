package h3test

import (
	"fmt"
	"os"
	"strings"

	"github.com/h3probe/h3probe/framework"

	"github.com/fatih/color"
)

var consoleTestErrorColor = color.New(color.FgYellow)              //nolint:gochecknoglobals
var consoleTestFailedColor = color.New(color.FgRed)                //nolint:gochecknoglobals
var consoleTestNonCriticalColor = color.New(color.FgYellow)        //nolint:gochecknoglobals
var consoleTestSkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)               //nolint:gochecknoglobals
var allTestsPassedColor = color.New(color.FgGreen)                 //nolint:gochecknoglobals

// TestLogger receives status information about each test as the run progresses. EndLog is
// called once after the whole run, with the final results.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput)
	TestSkipped(id TestID, reason string)
	EndLog(results Results) error
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                                        {}
func (n nullTestLogger) TestError(TestID, error)                                   {}
func (n nullTestLogger) TestFinished(TestID, TestResult, framework.CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                                {}
func (n nullTestLogger) EndLog(Results) error                                      { return nil }

type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleTestLogger) TestStarted(id TestID) {
	fmt.Printf("[%s]\n", id)
}

func (c ConsoleTestLogger) TestError(id TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = consoleTestErrorColor.Printf("  %s\n", line)
	}
}

func (c ConsoleTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	failed := result.Failed()
	switch {
	case failed && result.NonCritical:
		_, _ = consoleTestNonCriticalColor.Printf("  FAILED (non-critical): %s\n", id)
	case failed:
		_, _ = consoleTestFailedColor.Printf("  FAILED: %s\n", id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Println(debugOutput.ToString("    DEBUG "))
	}
}

func (c ConsoleTestLogger) TestSkipped(id TestID, reason string) {
	if reason == "" {
		_, _ = consoleTestSkippedColor.Printf("  SKIPPED: %s\n", id)
	} else {
		_, _ = consoleTestSkippedColor.Printf("  SKIPPED: %s (%s)\n", id, reason)
	}
}

func (c ConsoleTestLogger) EndLog(results Results) error {
	if len(results.NonCriticalFailures) > 0 {
		_, _ = consoleTestNonCriticalColor.Printf("NON-CRITICAL FAILURES (%d):\n", len(results.NonCriticalFailures))
		for _, f := range results.NonCriticalFailures {
			_, _ = consoleTestNonCriticalColor.Printf("  * %s (%s)\n", f.TestID, f.Explanation)
		}
		fmt.Println()
	}
	if results.OK() {
		_, _ = allTestsPassedColor.Println("All tests passed")
		return nil
	}
	_, _ = consoleTestFailedColor.Fprintf(os.Stderr, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		_, _ = consoleTestFailedColor.Fprintf(os.Stderr, "  * %s\n", f.TestID)
	}
	return nil
}

// MultiTestLogger delegates to any number of other loggers, so that for instance a run can
// produce both console output and a JUnit file.
type MultiTestLogger struct {
	Loggers []TestLogger
}

func (m *MultiTestLogger) TestStarted(id TestID) {
	for _, l := range m.Loggers {
		l.TestStarted(id)
	}
}

func (m *MultiTestLogger) TestError(id TestID, err error) {
	for _, l := range m.Loggers {
		l.TestError(id, err)
	}
}

func (m *MultiTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	for _, l := range m.Loggers {
		l.TestFinished(id, result, debugOutput)
	}
}

func (m *MultiTestLogger) TestSkipped(id TestID, reason string) {
	for _, l := range m.Loggers {
		l.TestSkipped(id, reason)
	}
}

func (m *MultiTestLogger) EndLog(results Results) error {
	var firstErr error
	for _, l := range m.Loggers {
		if err := l.EndLog(results); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
