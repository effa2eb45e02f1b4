package h3tests

import (
	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
)

type ProbeContext struct {
	harness *harness.TestHarness
}

func requireContext(t *h3test.T) ProbeContext {
	if c, ok := t.Context().(ProbeContext); ok {
		return c
	}
	panic("ProbeContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}
