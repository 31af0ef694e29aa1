package app

import (
	"strings"
	"sync"
)

// logSink keeps the most recent log lines for the log panel. It is the
// zapcore.WriteSyncer behind the panel core.
type logSink struct {
	mu       sync.Mutex
	lines    []string
	limit    int
	onChange func()
}

func newLogSink(limit int) *logSink {
	if limit <= 0 {
		limit = 200
	}
	return &logSink{limit: limit}
}

// Notify registers fn to run after every write.
func (l *logSink) Notify(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *logSink) Write(p []byte) (int, error) {
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	l.mu.Lock()
	for _, part := range strings.Split(text, "\n") {
		if part == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	fn := l.onChange
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
	return len(p), nil
}

func (l *logSink) Sync() error { return nil }

// Text returns the retained lines joined by newlines.
func (l *logSink) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}
