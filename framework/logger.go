package framework

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used throughout the harness. The
// transport adapter, the conformance target, and probe scripts all log
// through this so that output can be captured per test scope and replayed
// only when wanted.
type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Println(args ...interface{})                {}
func (n nullLogger) Printf(message string, args ...interface{}) {}

// NullLogger returns a Logger that discards all output.
func NullLogger() Logger { return nullLogger{} }

// CapturedMessage is one timestamped log line recorded by a CapturingLogger.
type CapturedMessage struct {
	Time    time.Time
	Message string
}

// CapturedOutput is the recorded output of one test scope.
type CapturedOutput []CapturedMessage

// CapturingLogger records all output from a test scope. While any child
// loggers are attached, new messages go to the children instead of being
// recorded here. See the comments on h3test.(*T).DebugLogger() for how
// output propagates between parent and child scopes.
type CapturingLogger struct {
	output   []CapturedMessage
	children []*CapturingLogger
	mu       sync.Mutex
}

func (l *CapturingLogger) Println(args ...interface{}) {
	message := strings.TrimRight(fmt.Sprintln(args...), "\r\n") // Sprintln appends a newline
	l.record(CapturedMessage{Time: time.Now(), Message: message})
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.record(CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
}

func (l *CapturingLogger) record(m CapturedMessage) {
	l.mu.Lock()
	if len(l.children) == 0 {
		l.output = append(l.output, m)
		l.mu.Unlock()
		return
	}
	children := append([]*CapturingLogger(nil), l.children...)
	l.mu.Unlock()
	for _, child := range children {
		child.record(m)
	}
}

// Output returns a snapshot of everything recorded so far.
func (l *CapturingLogger) Output() CapturedOutput {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append(CapturedOutput(nil), l.output...)
}

// AddChildLogger routes subsequent output to the child instead of this
// logger, seeding the child with everything recorded so far.
func (l *CapturingLogger) AddChildLogger(child *CapturingLogger) {
	l.mu.Lock()
	l.children = append(l.children, child)
	seed := append([]CapturedMessage(nil), l.output...)
	l.mu.Unlock()

	child.mu.Lock()
	child.output = append(seed, child.output...)
	child.mu.Unlock()
}

// RemoveChildLogger detaches a child added with AddChildLogger.
func (l *CapturingLogger) RemoveChildLogger(child *CapturingLogger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.children {
		if c == child {
			l.children = append(l.children[0:i], l.children[i+1:]...)
			return
		}
	}
}

// ToString renders the captured output one line per message, each prefixed
// with the given string and its timestamp.
func (output CapturedOutput) ToString(prefix string) string {
	var sb strings.Builder
	for i, m := range output {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s[%s] %s", prefix, m.Time.Format(timestampFormat), m.Message)
	}
	return sb.String()
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

// LoggerWithPrefix wraps a Logger so every message starts with prefix. The
// probe uses this to tag transport-level output within a scope's debug log.
func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	return prefixedLogger{base: baseLogger, prefix: prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}
