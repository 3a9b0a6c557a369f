// Package log is a small leveled logger on top of stdlib log.
package log

import (
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
)

// Logger is subset of github.com/uber-common/bark.Logger.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	// Fatal logs and exits with status 1.
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	// Panic logs at error level and panics with message.
	Panic(args ...interface{})
	Panicf(format string, args ...interface{})
	WithFields(keyValues LogFields) Logger
	Fields() Fields
}

type LogFields interface {
	Fields() map[string]interface{}
}

type Fields map[string]interface{}

func (f Fields) Fields() map[string]interface{} { return f }

// Sink receives formatted lines. callDepth is the number of frames above
// Output to the logging call site.
type Sink interface {
	Output(callDepth int, line string)
}

func NewLogger(l Level, w io.Writer) Logger {
	std := stdlog.New(w, "", stdlog.LstdFlags|stdlog.Lmicroseconds|stdlog.Lshortfile)
	return NewLoggerSink(l, writerSink{std})
}

func NewLoggerSink(l Level, s Sink) Logger {
	return &logger{sink: s, min: l}
}

// NewNop returns logger that drops messages. Fatal and Panic still exit and panic.
func NewNop() Logger {
	return NewLogger(disabled, io.Discard)
}

type writerSink struct{ std *stdlog.Logger }

func (s writerSink) Output(callDepth int, line string) {
	s.std.Output(callDepth+1, line)
}

type logger struct {
	sink   Sink
	min    Level
	fields Fields
}

func (l *logger) Fields() Fields { return l.fields }

func (l *logger) WithFields(keyValues LogFields) Logger {
	extra := keyValues.Fields()
	merged := make(Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return &logger{sink: l.sink, min: l.min, fields: merged}
}

func (l *logger) Debug(args ...interface{}) { l.print(DebugLevel, fmt.Sprint(args...)) }
func (l *logger) Info(args ...interface{})  { l.print(InfoLevel, fmt.Sprint(args...)) }
func (l *logger) Warn(args ...interface{})  { l.print(WarnLevel, fmt.Sprint(args...)) }
func (l *logger) Error(args ...interface{}) { l.print(ErrorLevel, fmt.Sprint(args...)) }

func (l *logger) Debugf(format string, args ...interface{}) { l.printf(DebugLevel, format, args) }
func (l *logger) Infof(format string, args ...interface{})  { l.printf(InfoLevel, format, args) }
func (l *logger) Warnf(format string, args ...interface{})  { l.printf(WarnLevel, format, args) }
func (l *logger) Errorf(format string, args ...interface{}) { l.printf(ErrorLevel, format, args) }

func (l *logger) Fatal(args ...interface{}) {
	l.print(FatalLevel, fmt.Sprint(args...))
	os.Exit(1)
}

func (l *logger) Fatalf(format string, args ...interface{}) {
	l.printf(FatalLevel, format, args)
	os.Exit(1)
}

func (l *logger) Panic(args ...interface{}) {
	msg := fmt.Sprint(args...)
	l.print(ErrorLevel, msg)
	panic(msg)
}

func (l *logger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.print(ErrorLevel, msg)
	panic(msg)
}

// callDepth from Sink.Output to the caller of Logger method.
const callDepth = 3

func (l *logger) printf(level Level, format string, args []interface{}) {
	if level < l.min {
		return
	}
	l.sink.Output(callDepth, l.line(level, fmt.Sprintf(format, args...)))
}

func (l *logger) print(level Level, msg string) {
	if level < l.min {
		return
	}
	l.sink.Output(callDepth, l.line(level, msg))
}

// line formats message as "LEVEL: {json fields} msg".
func (l *logger) line(level Level, msg string) string {
	if len(l.fields) == 0 {
		return level.String() + ": " + msg
	}
	data, err := json.Marshal(l.fields)
	if err != nil {
		data = []byte(fmt.Sprintf("%q", fmt.Sprint(map[string]interface{}(l.fields))))
	}
	return fmt.Sprintf("%s: %s %s", level, data, msg)
}
