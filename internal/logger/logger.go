// Package logger is scholar's process-wide log.
//
// Only errors are written by default. The --verbose flag adds debug, info,
// warning and section lines. Failures the core swallows to stay available,
// such as a failed rebuild or session flush, log at error so they always
// leave a trace.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var prefixes = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
	levelError: "[ERROR] ",
}

var (
	mu      sync.RWMutex
	verbose bool
	out     io.Writer = os.Stderr
)

func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects the log, which starts on stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// emit writes line when l is enabled.
func emit(l level, line string) {
	mu.RLock()
	defer mu.RUnlock()
	if l == levelError || verbose {
		io.WriteString(out, line) //nolint:errcheck // nowhere to report it
	}
}

func logf(l level, format string, args ...any) {
	emit(l, prefixes[l]+fmt.Sprintf(format, args...)+"\n")
}

func Debug(format string, args ...any) { logf(levelDebug, format, args...) }
func Info(format string, args ...any)  { logf(levelInfo, format, args...) }
func Warn(format string, args ...any)  { logf(levelWarn, format, args...) }
func Error(format string, args ...any) { logf(levelError, format, args...) }

// Section heads a group of verbose lines.
func Section(name string) {
	emit(levelInfo, "\n=== "+name+" ===\n")
}

// Elapsed logs at debug how long op has run since start:
//
//	defer logger.Elapsed("rebuild", time.Now())
func Elapsed(op string, start time.Time) {
	Debug("%s took %s", op, time.Since(start).Round(time.Microsecond))
}
