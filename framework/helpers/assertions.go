package helpers

import (
	"time"

	"github.com/stretchr/testify/assert"
)

// PollUntil calls testFn every interval until it returns true or the timeout
// elapses, and reports whether it succeeded. Unlike testify's Eventually it
// polls on the calling goroutine; failures reported from another goroutine
// would not reach the right test scope.
func PollUntil(timeout, interval time.Duration, testFn func() bool) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	expired := time.After(timeout)
	for {
		select {
		case <-expired:
			return false
		case <-ticker.C:
			if testFn() {
				return true
			}
		}
	}
}

// AssertEventually fails the test if testFn does not return true before the
// timeout. The return value reports success, in the manner of testify's
// assert functions.
func AssertEventually(
	t TestContext,
	testFn func() bool,
	timeout, interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) bool {
	if !PollUntil(timeout, interval, testFn) {
		t.Errorf(failureMsgFormat, failureMsgArgs...)
		return false
	}
	return true
}

// RequireEventually is AssertEventually plus an immediate FailNow on
// failure.
func RequireEventually(
	t TestContext,
	testFn func() bool,
	timeout, interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) {
	if !AssertEventually(t, testFn, timeout, interval, failureMsgFormat, failureMsgArgs...) {
		t.FailNow()
	}
}

// AssertJSONEqual asserts that two JSON documents are deeply equal and
// prints a diff if they are not. It delegates to assert.JSONEq.
func AssertJSONEqual(t assert.TestingT, expectedJSONString, actualJSONString string) bool {
	return assert.JSONEq(t, expectedJSONString, actualJSONString)
}
