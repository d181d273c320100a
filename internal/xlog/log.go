// Package xlog is the engine's minimal leveled logger, adapted from the
// teacher repository's utils package: a package-level level gate plus
// Debugf/Infof/Errorf, writing to an injectable io.Writer.
package xlog

import (
	"fmt"
	"io"
	"os"
)

var out io.Writer = os.Stderr

// Level is the logging verbosity.
type Level uint8

const (
	// LevelDebug enables debug logs (packet-level tracing).
	LevelDebug Level = iota
	// LevelInfo enables info logs (connection lifecycle events).
	LevelInfo
	// LevelError enables only error logs.
	LevelError
	// LevelNothing disables logging entirely.
	LevelNothing
)

var level = LevelNothing

// SetLevel sets the global log level.
func SetLevel(l Level) { level = l }

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) { out = w }

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) {
	if level == LevelDebug {
		fmt.Fprintf(out, format+"\n", args...)
	}
}

// Infof logs at info level or more verbose.
func Infof(format string, args ...interface{}) {
	if level <= LevelInfo {
		fmt.Fprintf(out, format+"\n", args...)
	}
}

// Errorf logs at error level or more verbose.
func Errorf(format string, args ...interface{}) {
	if level <= LevelError {
		fmt.Fprintf(out, format+"\n", args...)
	}
}

// SessionLogger prefixes every line with a session identifier, so the
// text-log lines of one transfer can be grouped by grepping for the same
// ID: the SessionID exported on endpoint.Sender/Receiver. eventlog
// records and qlogtrace output do not carry this ID.
type SessionLogger struct {
	sessionID string
}

// ForSession returns a SessionLogger prefixing every line with id.
func ForSession(id fmt.Stringer) *SessionLogger {
	return &SessionLogger{sessionID: id.String()}
}

// Debugf logs at debug level, prefixed with the session ID.
func (s *SessionLogger) Debugf(format string, args ...interface{}) {
	Debugf("[session %s] "+format, append([]interface{}{s.sessionID}, args...)...)
}

// Infof logs at info level, prefixed with the session ID.
func (s *SessionLogger) Infof(format string, args ...interface{}) {
	Infof("[session %s] "+format, append([]interface{}{s.sessionID}, args...)...)
}

// Errorf logs at error level, prefixed with the session ID.
func (s *SessionLogger) Errorf(format string, args ...interface{}) {
	Errorf("[session %s] "+format, append([]interface{}{s.sessionID}, args...)...)
}
