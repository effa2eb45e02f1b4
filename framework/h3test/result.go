package h3test

import "strings"

type Results struct {
	Tests               []TestResult
	Failures            []TestResult
	NonCriticalFailures []TestResult
}

type TestResult struct {
	TestID TestID
	Errors []error

	// Explanation is set for non-critical failures only; it is the reason the failure was
	// downgraded, as given to T.NonCritical.
	Explanation string
	NonCritical bool
}

func (r TestResult) Failed() bool {
	return len(r.Errors) > 0
}

// OK is true if there were no critical failures. Non-critical failures do not affect it.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

type TestID []string

func (t TestID) String() string {
	return strings.Join(t, "/")
}

func (t TestID) Plus(name string) TestID {
	return append(append(TestID(nil), t...), name)
}
