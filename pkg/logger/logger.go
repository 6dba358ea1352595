// Package logger provides leveled, structured logging for the broker,
// backed by zerolog the way the teacher project's own plugin/kzerolog
// adapter wires zerolog into its client logging interface.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Level mirrors zerolog's own severity levels, keeping the small Debug/
// Info/Warn/Error surface the rest of this codebase calls through.
type Level int8

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger wraps a zerolog.Logger with the printf-style call sites the rest
// of this codebase uses.
type Logger struct {
	z zerolog.Logger
}

// New creates a console-writing Logger at the given minimum level.
func New(level Level) *Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a Logger writing to w, useful for tests that want
// to assert on log output.
func NewWithWriter(w io.Writer, level Level) *Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	z := zerolog.New(cw).With().Timestamp().Logger().Level(level.zerolog())
	return &Logger{z: z}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.z.Debug().Msgf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.z.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.z.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.z.Error().Msgf(format, args...)
}

// With returns a child Logger with a string field attached to every
// subsequent line, useful for tagging a per-connection log line with the
// remote address.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{z: l.z.With().Str(key, value).Logger()}
}
