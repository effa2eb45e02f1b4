package h3test

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/h3probe/h3probe/framework"
	o "github.com/h3probe/h3probe/framework/opt"
	"github.com/h3probe/h3probe/targetinfo"
)

// JUnitTestLogger is a TestLogger that writes the results of a run to a
// JUnit XML file, with one testsuite per top-level scope. Properties on
// each suite record the target's reported build information and any filter
// patterns that were in effect.
type JUnitTestLogger struct {
	filePath   string
	targetInfo targetinfo.TargetInfo
	filters    RegexFilters
	testIDs    []TestID // in the order the tests were started
	tests      map[string]junitCaseStatus
	mu         sync.Mutex
}

type junitCaseStatus struct {
	failures    []error
	skipped     o.Maybe[string]
	nonCritical bool
	output      string
	startTime   time.Time
	duration    time.Duration
}

// XML schema structs - see https://github.com/jstemmer/go-junit-report

type junitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []junitXMLTestSuite `xml:"testsuite"`
}

type junitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []junitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []junitXMLTestCase `xml:"testcase"`
}

type junitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *junitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *junitXMLFailure     `xml:"failure,omitempty"`
}

type junitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type junitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

func NewJUnitTestLogger(
	filePath string,
	targetInfo targetinfo.TargetInfo,
	filters RegexFilters,
) *JUnitTestLogger {
	return &JUnitTestLogger{
		filePath:   filePath,
		targetInfo: targetInfo,
		filters:    filters,
		tests:      make(map[string]junitCaseStatus),
	}
}

func (j *JUnitTestLogger) TestStarted(id TestID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.testIDs = append(j.testIDs, id)
	j.tests[id.String()] = junitCaseStatus{startTime: time.Now()}
}

func (j *JUnitTestLogger) TestError(id TestID, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	status := j.tests[id.String()]
	status.failures = append(status.failures, err)
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	j.mu.Lock()
	defer j.mu.Unlock()
	status := j.tests[id.String()]
	status.output = debugOutput.ToString("")
	status.duration = time.Since(status.startTime)
	status.nonCritical = result.NonCritical
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) TestSkipped(id TestID, reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	status := j.tests[id.String()]
	status.skipped = o.Some(reason)
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) EndLog(results Results) error {
	fmt.Printf("Writing JUnit data to %s\n", j.filePath)

	properties := []junitXMLProperty{
		{Name: "tests.target.info", Value: string(j.targetInfo.FullData)},
		{Name: "tests.filter.mustMatch", Value: j.filters.MustMatch.String()},
		{Name: "tests.filter.mustNotMatch", Value: j.filters.MustNotMatch.String()},
	}

	var doc junitXMLDocument
	for _, suiteName := range topLevelSuiteNames(j.testIDs) {
		doc.Suites = append(doc.Suites, j.buildSuite(suiteName, properties))
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return os.WriteFile(j.filePath, data, 0644) //nolint:gosec
}

// buildSuite collects every recorded test whose top-level scope name is
// suiteName, preserving start order.
func (j *JUnitTestLogger) buildSuite(suiteName string, properties []junitXMLProperty) junitXMLTestSuite {
	suite := junitXMLTestSuite{
		Name:       fmt.Sprintf("HTTP/3 conformance tests: %s", suiteName),
		Properties: properties,
	}
	totalDuration := time.Duration(0)
	for _, testID := range j.testIDs {
		if len(testID) == 0 || testID[0] != suiteName {
			continue
		}
		status := j.tests[testID.String()]

		suite.Tests++
		if len(status.failures) != 0 {
			suite.Failures++
		}
		totalDuration += status.duration

		testCase := junitXMLTestCase{
			Name: testID.String(),
			Time: junitSeconds(status.duration),
		}
		if status.nonCritical {
			testCase.Name += " (non-critical)"
		}
		if status.skipped.IsDefined() {
			testCase.SkipMessage = &junitXMLSkipMessage{Message: status.skipped.Value()}
		}
		if len(status.failures) != 0 {
			testCase.Failure = failureElement(status)
		}

		suite.TestCases = append(suite.TestCases, testCase)
	}
	suite.Time = junitSeconds(totalDuration)
	return suite
}

func failureElement(status junitCaseStatus) *junitXMLFailure {
	var messages []string
	for _, e := range status.failures {
		message := e.Error()
		if es, ok := e.(ErrorWithStacktrace); ok {
			message += "\n  Stacktrace:"
			for _, frame := range es.Stacktrace {
				message += "\n    " + frame.String()
			}
		}
		messages = append(messages, message)
	}
	return &junitXMLFailure{
		Message:  strings.Join(messages, "\n"),
		Contents: status.output,
	}
}

func topLevelSuiteNames(allIDs []TestID) []string {
	var names []string
	seen := make(map[string]bool)
	for _, testID := range allIDs {
		if len(testID) != 0 && !seen[testID[0]] {
			names = append(names, testID[0])
			seen[testID[0]] = true
		}
	}
	return names
}

func junitSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
