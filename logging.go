package opentuinvim

import (
	"io"
	"log"
)

// Logger is the logging capability injected into the session at
// construction. Components never reach for a process-wide logger; the
// handle's lifecycle is tied to the owning session.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// stdLogger adapts a stdlib *log.Logger to the Logger capability.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger wraps a stdlib logger. A nil argument yields a logger that
// discards everything.
func NewStdLogger(l *log.Logger) Logger {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &stdLogger{l: l}
}

func (s *stdLogger) Debugf(format string, args ...interface{}) {
	s.l.Printf("debug: "+format, args...)
}

func (s *stdLogger) Warnf(format string, args ...interface{}) {
	s.l.Printf("warn: "+format, args...)
}

func (s *stdLogger) Errorf(format string, args ...interface{}) {
	s.l.Printf("error: "+format, args...)
}
