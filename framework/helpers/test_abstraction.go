package helpers

import (
	"errors"
	"fmt"
	"strings"
)

// TestContext is a minimal interface for types like *testing.T and *h3test.T representing a
// test that can fail. Functions can use this to avoid specific dependencies on those packages.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...interface{})
	FailNow()
	Helper()
}

// TestRecorder is a TestContext implementation that only records failures, for testing our
// own test logic. FailNow does not really stop execution unless PanicOnTerminate is set, in
// which case it panics with the TestRecorder itself as the panic value.
type TestRecorder struct {
	Errors           []string
	Terminated       bool
	PanicOnTerminate bool
}

func (t *TestRecorder) Errorf(msgFormat string, msgArgs ...interface{}) {
	t.Errors = append(t.Errors, fmt.Sprintf(msgFormat, msgArgs...))
}

func (t *TestRecorder) FailNow() {
	t.Terminated = true
	if t.PanicOnTerminate {
		panic(t)
	}
}

func (t *TestRecorder) Helper() {}

// Err returns nil if no failures were recorded, or else an error whose message is all of the
// recorded failure messages.
func (t *TestRecorder) Err() error {
	if len(t.Errors) == 0 {
		return nil
	}
	return errors.New(strings.Join(t.Errors, ", "))
}
