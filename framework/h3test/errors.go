package h3test

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/exp/slices"
)

// ErrorWithStacktrace is the error type recorded for assertion failures, so
// the reporting layers can show where in a test script a failure happened.
type ErrorWithStacktrace struct {
	Message    string
	Stacktrace []StacktraceInfo
}

func (e ErrorWithStacktrace) Error() string { return e.Message }

// StacktraceInfo identifies one frame of a captured stacktrace.
type StacktraceInfo struct {
	FileName string
	Package  string
	Function string
	Line     int
}

func (s StacktraceInfo) String() string {
	pkg := strings.TrimPrefix(s.Package, rootPackageName()+"/")
	return fmt.Sprintf("%s.%s (%s:%d)", pkg, s.Function, s.FileName, s.Line)
}

var testifyTraceRegex = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`)

// normalizeError pairs an error with our own captured stacktrace, first
// stripping the "Error Trace:" block that testify assertions embed in their
// messages. The frames in that block point at the assertion library, not at
// the test that failed.
func normalizeError(err error, frames []StacktraceInfo) error {
	message := err.Error()
	if strings.Contains(message, "Error Trace:") {
		message = strings.TrimSpace(testifyTraceRegex.ReplaceAllLiteralString(message, ""))
	}
	if len(frames) == 0 {
		return errors.New(message)
	}
	return ErrorWithStacktrace{Message: message, Stacktrace: frames}
}

// captureStacktrace walks the calling goroutine's stack, stopping at the
// h3test.Run frame that roots every test run. Frames inside this package
// are left out unless includeFrameworkCode is set, as are functions
// registered through T.Helper.
func captureStacktrace(includeFrameworkCode bool, helperNames []string) []StacktraceInfo {
	frames := []StacktraceInfo{}
	ownPackage := currentPackageName()
	for i := 1; ; i++ { // frame 0 is captureStacktrace itself
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		f := runtime.FuncForPC(pc)
		if f == nil {
			break
		}
		qualifiedName := f.Name()
		pkg, fn := splitQualifiedName(qualifiedName)
		if pkg == ownPackage && fn == "Run" {
			break
		}
		if !includeFrameworkCode && pkg == ownPackage {
			continue
		}
		if slices.Contains(helperNames, qualifiedName) {
			continue
		}
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		frames = append(frames, StacktraceInfo{FileName: file, Package: pkg, Function: fn, Line: line})
	}
	return frames
}

func currentPackageName() string {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		return "?"
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "?"
	}
	pkg, _ := splitQualifiedName(f.Name())
	return pkg
}

func rootPackageName() string {
	parts := strings.Split(currentPackageName(), "/")
	return strings.Join(parts[:3], "/")
}

// splitQualifiedName separates a runtime function name like
// "host/owner/repo/pkg.Func" into its package path and function parts.
func splitQualifiedName(fullName string) (string, string) {
	lastSlash := strings.LastIndex(fullName, "/")
	dot := strings.Index(fullName[lastSlash+1:], ".")
	pkg := fullName[0 : lastSlash+dot+1]
	return pkg, fullName[len(pkg)+1:]
}
