// Package stdlogger adapts the global zerolog logger to printf style logger
// interfaces, such as the gorm statement logger writer and the cloudsqlconn
// debug logger.
package stdlogger

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a printf style logger writing through zerolog.
type Logger struct {
	component string
}

// New returns a Logger writing through the global zerolog logger.
// The optional component is added as "component" field.
func New(component ...string) *Logger {
	l := &Logger{}
	if len(component) > 0 {
		l.component = component[0]
	}

	return l
}

// Printf logs at info level. It satisfies gorm's logger.Writer.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.msgf(log.Info(), format, args...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.msgf(log.Debug(), format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.msgf(log.Info(), format, args...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.msgf(log.Warn(), format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.msgf(log.Error(), format, args...)
}

// Context returns a context aware debug logger sharing the component of l.
func (l *Logger) Context() ContextLogger {
	return ContextLogger{parent: l}
}

func (l *Logger) msgf(e *zerolog.Event, format string, args ...interface{}) {
	if e == nil {
		return
	}

	if l.component != "" {
		e = e.Str("component", l.component)
	}

	// gorm formats multi line messages, keep one log line per event
	e.Msgf(strings.TrimSpace(strings.ReplaceAll(format, "\n", " ")), args...)
}

// ContextLogger implements cloudsqlconn's debug.ContextLogger.
type ContextLogger struct {
	parent *Logger
}

// Debugf logs at debug level using the logger attached to ctx, if any.
func (c ContextLogger) Debugf(ctx context.Context, format string, args ...interface{}) {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		c.parent.msgf(l.Debug(), format, args...)

		return
	}

	c.parent.msgf(log.Debug(), format, args...)
}
