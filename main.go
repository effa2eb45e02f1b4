package main

import (
	_ "embed" // for the VERSION file
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/h3probe/h3probe/framework"
	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
	"github.com/h3probe/h3probe/h3tests"
	"github.com/h3probe/h3probe/targetinfo"
	"github.com/h3probe/h3probe/transport"
)

const defaultPort = 4433
const preflightTimeout = time.Second * 10

//go:embed VERSION
var versionString string // updated for each release

func main() {
	fmt.Printf("h3probe v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*h3test.Results, error) {
	if params.skipFile != "" {
		if err := applySkipFile(&params); err != nil {
			return nil, err
		}
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	harness, err := harness.NewTestHarness(
		transport.Config{Host: params.host, Port: params.port},
		preflightTimeout,
		params.observation,
		mainDebugLogger,
		os.Stdout,
	)
	if err != nil {
		return nil, err
	}

	testLogger := makeTestLogger(params, harness.TargetInfo())

	results := h3tests.RunProbeTests(harness, params.filters, testLogger)

	fmt.Println()
	if err := testLogger.EndLog(results); err != nil {
		return nil, fmt.Errorf("error writing log: %v", err)
	}

	if params.recordFailures != "" {
		if err := writeFailureList(params.recordFailures, results); err != nil {
			return nil, err
		}
	}

	return &results, nil
}

func makeTestLogger(params commandParams, info targetinfo.TargetInfo) h3test.TestLogger {
	consoleLogger := h3test.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	if params.jUnitFile == "" {
		return consoleLogger
	}
	return &h3test.MultiTestLogger{Loggers: []h3test.TestLogger{
		consoleLogger,
		h3test.NewJUnitTestLogger(params.jUnitFile, info, params.filters),
	}}
}

// applySkipFile turns each line of the skip file into a must-not-match filter.
// Lines are matched literally, so IDs recorded by --record-failures can be fed
// back in without worrying about regex metacharacters.
func applySkipFile(params *commandParams) error {
	data, err := os.ReadFile(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot read skip file: %v", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := params.filters.MustNotMatch.Set(regexp.QuoteMeta(line)); err != nil {
			return fmt.Errorf("cannot parse skip file entry: %v", err)
		}
	}
	return nil
}

func writeFailureList(path string, results h3test.Results) error {
	var sb strings.Builder
	for _, test := range results.Failures {
		sb.WriteString(test.TestID.String())
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil { //nolint:gosec
		return fmt.Errorf("cannot write failure list: %v", err)
	}
	return nil
}
