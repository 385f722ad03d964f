package main

import (
	"fmt"
	"os"
)

// stderrLogger satisfies rdme.Logger by writing level-prefixed lines to
// stderr, keeping stdout free for the run summary.
type stderrLogger struct{}

func newStderrLogger() *stderrLogger { return &stderrLogger{} }

func (l *stderrLogger) Debugf(format string, args ...any) { l.printf("DEBUG", format, args...) }
func (l *stderrLogger) Infof(format string, args ...any)  { l.printf("INFO", format, args...) }
func (l *stderrLogger) Warnf(format string, args ...any)  { l.printf("WARN", format, args...) }
func (l *stderrLogger) Errorf(format string, args ...any) { l.printf("ERROR", format, args...) }

func (l *stderrLogger) printf(level, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}
