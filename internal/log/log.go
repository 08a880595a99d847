// Package log wraps logrus with a dedupe-by-hash mechanism: a component
// that hits a degraded-but-non-fatal condition repeatedly calls WarnOnce
// so the condition is logged once per distinct message rather than
// flooding the log. The cartridge package's unsupported-MBC fallback is
// its one caller; bank selects that the controllers clamp are not logged.
package log

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

// Logger is a logrus.Logger augmented with a seen-message dedupe table.
type Logger struct {
	*logrus.Logger

	mu   sync.Mutex
	seen map[uint64]struct{}
}

// New returns a Logger at Info level with a text formatter, matching
// the teacher's convention for component loggers.
func New() *Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	return &Logger{Logger: l, seen: make(map[uint64]struct{})}
}

// WarnOnce logs msg at Warn level with fields the first time that exact
// combination is seen, and silently drops repeats.
func (l *Logger) WarnOnce(msg string, fields logrus.Fields) {
	key := xxhash.Sum64String(msg + fieldsKey(fields))

	l.mu.Lock()
	_, already := l.seen[key]
	if !already {
		l.seen[key] = struct{}{}
	}
	l.mu.Unlock()

	if !already {
		l.WithFields(fields).Warn(msg)
	}
}

func fieldsKey(fields logrus.Fields) string {
	s := ""
	for k, v := range fields {
		s += fmt.Sprintf("%s=%v;", k, v)
	}
	return s
}
