package h3tests

import (
	"fmt"

	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
)

func RunProbeTests(
	testHarness *harness.TestHarness,
	filters h3test.RegexFilters,
	testLogger h3test.TestLogger,
) h3test.Results {
	fmt.Printf("Running HTTP/3 non-conformance suite against %s\n", testHarness.Target().Address())
	fmt.Println()
	h3test.PrintFilterDescription(filters)

	config := h3test.TestConfiguration{
		Filter:     filters.Match,
		TestLogger: testLogger,
		Context: ProbeContext{
			harness: testHarness,
		},
	}

	return h3test.Run(config, doAllProbeTests)
}

func doAllProbeTests(t *h3test.T) {
	t.Run("control-stream", doControlStreamTests)
	t.Run("settings", doSettingsTests)
	t.Run("frame-placement", doFramePlacementTests)
	t.Run("request-stream", doRequestStreamTests)
	t.Run("headers", doHeaderFieldTests)
	t.Run("push", doPushTests)
	t.Run("goaway", doGoAwayTests)
}
