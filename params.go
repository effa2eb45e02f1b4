package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/h3probe/h3probe/framework/h3test"
	"github.com/h3probe/h3probe/framework/harness"
)

type commandParams struct {
	host           string
	port           int
	filters        h3test.RegexFilters
	verbose        bool
	debug          bool
	debugAll       bool
	jUnitFile      string
	skipFile       string
	recordFailures string
	observation    time.Duration
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.host, "host", "localhost", "hostname or IP of the target endpoint")
	fs.IntVar(&c.port, "port", defaultPort, "UDP port of the target endpoint")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select cases to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select cases not to run")
	fs.BoolVar(&c.verbose, "verbose", false, "enable debug logging for all cases")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed cases")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all cases")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.skipFile, "skip-from", "", "file listing cases to skip, one ID per line")
	fs.StringVar(&c.recordFailures, "record-failures", "", "file to write IDs of failed cases to")
	fs.DurationVar(&c.observation, "observation", harness.DefaultObservationWindow,
		"how long each case watches for a peer reaction after sending")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	// --verbose predates --debug-all and means the same thing.
	if c.verbose {
		c.debugAll = true
	}
	return true
}
