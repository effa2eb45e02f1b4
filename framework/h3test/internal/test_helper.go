// Package internal contains test helpers for h3test.
package internal

// RunAction calls action from within this package. Stacktrace filtering
// tests use it to get a frame that is outside the h3test package.
func RunAction(action func()) {
	action()
}
