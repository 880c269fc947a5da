package pubsub

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

// Logger is the structured-logging sink the dispatcher writes to: a
// warning when a publish or a change announcement is dropped because the
// queue is full, and an error for each subscriber panic recovered under
// WithRecoverHandlerPanics. Topic creation and garbage collection,
// redefinition conflicts and timer rearm are not logged. This mirrors the teacher
// package's (go-eventloop) package-level Logger abstraction, so hosts
// can plug in any backend without the core depending on one concretely;
// NewSlogLogger/DefaultLogger wire the concrete implementation this
// module ships, github.com/joeycumines/logiface over log/slog.
type Logger interface {
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a single structured logging attribute.
type Field struct {
	Key string
	Val any
}

// StrField builds a string-valued Field.
func StrField(key, val string) Field { return Field{Key: key, Val: val} }

// IntField builds an int-valued Field.
func IntField(key string, val int) Field { return Field{Key: key, Val: val} }

// HashField builds a TopicHash-valued Field.
func HashField(key string, val TopicHash) Field { return Field{Key: key, Val: val} }

type noopLogger struct{}

func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Warn(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}

// logifaceLogger adapts a github.com/joeycumines/logiface Logger, backed
// by the log/slog integration from github.com/joeycumines/logiface-slog,
// to the Logger interface above.
type logifaceLogger struct {
	l *logiface.Logger[*islog.Event]
}

// NewSlogLogger builds a Logger that forwards to h via logiface, the way
// github.com/joeycumines/logiface-slog's own examples wire a
// slog.Handler into a logiface.Logger:
//
//	logger := islog.L.New(islog.L.WithSlogHandler(h))
func NewSlogLogger(h slog.Handler) Logger {
	return &logifaceLogger{l: islog.L.New(islog.L.WithSlogHandler(h))}
}

// DefaultLogger returns a Logger writing JSON lines to os.Stderr, for
// hosts that want structured logging without assembling their own
// slog.Handler.
func DefaultLogger() Logger {
	return NewSlogLogger(slog.NewJSONHandler(os.Stderr, nil))
}

func (l *logifaceLogger) Info(msg string, fields ...Field) {
	writeFields(l.l.Info(), fields).Log(msg)
}

func (l *logifaceLogger) Warn(msg string, fields ...Field) {
	writeFields(l.l.Warning(), fields).Log(msg)
}

func (l *logifaceLogger) Error(msg string, fields ...Field) {
	writeFields(l.l.Err(), fields).Log(msg)
}

func writeFields(b *logiface.Builder[*islog.Event], fields []Field) *logiface.Builder[*islog.Event] {
	for _, f := range fields {
		switch v := f.Val.(type) {
		case string:
			b = b.Str(f.Key, v)
		case int:
			b = b.Int(f.Key, v)
		case bool:
			b = b.Bool(f.Key, v)
		case TopicHash:
			b = b.Int(f.Key, int(v))
		default:
			b = b.Str(f.Key, fmt.Sprint(v))
		}
	}
	return b
}
