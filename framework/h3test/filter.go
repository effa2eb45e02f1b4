package h3test

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter decides whether a test scope with the given ID should run.
type Filter func(TestID) bool

// RegexFilters is the include/exclude filter pair built from the --run and
// --skip command line options.
type RegexFilters struct {
	MustMatch    TestIDPatternList
	MustNotMatch TestIDPatternList
}

// Match returns true if the ID passes both lists: it must match at least
// one MustMatch pattern (when any are given) and no MustNotMatch pattern.
func (r RegexFilters) Match(id TestID) bool {
	if r.MustMatch.IsDefined() && !r.MustMatch.AnyMatch(id, true) {
		return false
	}
	return !r.MustNotMatch.AnyMatch(id, false)
}

// TestIDPattern matches test IDs component-wise: element N of the pattern
// is an unanchored regex applied to element N of the ID.
type TestIDPattern []*regexp.Regexp

// Match tests the ID against the pattern. When includeParents is true, an
// ID shorter than the pattern still matches as long as its components do,
// so that the parent scopes leading to a wanted test are not filtered out.
func (p TestIDPattern) Match(id TestID, includeParents bool) bool {
	depth := len(p)
	if depth > len(id) {
		if !includeParents {
			return false
		}
		depth = len(id)
	}
	for i := 0; i < depth; i++ {
		if !p[i].MatchString(id[i]) {
			return false
		}
	}
	return true
}

func (p TestIDPattern) String() string {
	parts := make([]string, 0, len(p))
	for _, rx := range p {
		parts = append(parts, rx.String())
	}
	return strings.Join(parts, "/")
}

// ParseTestIDPattern compiles a slash-delimited string into a pattern, one
// regex per path component.
func ParseTestIDPattern(s string) (TestIDPattern, error) {
	components := strings.Split(s, "/")
	pattern := make(TestIDPattern, 0, len(components))
	for _, component := range components {
		rx, err := regexp.Compile(component)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		pattern = append(pattern, rx)
	}
	return pattern, nil
}

type TestIDPatternList []TestIDPattern

func (l TestIDPatternList) String() string {
	descriptions := make([]string, 0, len(l))
	for _, p := range l {
		descriptions = append(descriptions, `"`+p.String()+`"`)
	}
	return strings.Join(descriptions, " or ")
}

// Set adds a pattern to the list. It makes the list usable as a repeatable
// flag.Value on the command line.
func (l *TestIDPatternList) Set(value string) error {
	p, err := ParseTestIDPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func (l TestIDPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l TestIDPatternList) AnyMatch(id TestID, includeParents bool) bool {
	for _, p := range l {
		if p.Match(id, includeParents) {
			return true
		}
	}
	return false
}

// PrintFilterDescription summarizes active filters on standard output at
// the start of a run.
func PrintFilterDescription(filters RegexFilters) {
	if !filters.MustMatch.IsDefined() && !filters.MustNotMatch.IsDefined() {
		return
	}
	fmt.Println("Some tests will be skipped based on the filter criteria for this test run:")
	if filters.MustMatch.IsDefined() {
		fmt.Printf("  skip any not matching %s\n", filters.MustMatch)
	}
	if filters.MustNotMatch.IsDefined() {
		fmt.Printf("  skip any matching %s\n", filters.MustNotMatch)
	}
	fmt.Println()
}
