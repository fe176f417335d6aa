package logging

import (
	"go.uber.org/zap"
)

// Sink is the write-only diagnostic interface consumed by the resolver.
// Implementations must be safe for concurrent use.
type Sink interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// zapSink forwards to a zap logger
type zapSink struct {
	log *zap.Logger
}

// Sink returns a Sink backed by this logger.
func (l *Logger) Sink() Sink {
	if l == nil || l.Logger == nil {
		return Nop()
	}
	return &zapSink{log: l.Logger.WithOptions(zap.AddCallerSkip(1))}
}

func (s *zapSink) Debug(msg string) { s.log.Debug(msg) }
func (s *zapSink) Info(msg string)  { s.log.Info(msg) }
func (s *zapSink) Warn(msg string)  { s.log.Warn(msg) }

func (s *zapSink) Error(msg string, err error) {
	s.log.Error(msg, faultFields(err)...)
}

func (s *zapSink) Fatal(msg string, err error) {
	s.log.Fatal(msg, faultFields(err)...)
}

func faultFields(err error) []zap.Field {
	if err == nil {
		return nil
	}
	return []zap.Field{zap.Error(err)}
}

type nopSink struct{}

// Nop returns a Sink that discards everything.
func Nop() Sink { return nopSink{} }

func (nopSink) Debug(string)        {}
func (nopSink) Info(string)         {}
func (nopSink) Warn(string)         {}
func (nopSink) Error(string, error) {}
func (nopSink) Fatal(string, error) {}

// guarded recovers panics raised by a wrapped sink
type guarded struct {
	inner Sink
}

// Guard wraps a sink so that a panicking implementation cannot escape into
// the caller. A nil sink becomes Nop.
func Guard(s Sink) Sink {
	if s == nil {
		return Nop()
	}
	if g, ok := s.(guarded); ok {
		return g
	}
	return guarded{inner: s}
}

func (g guarded) Debug(msg string) {
	defer swallow()
	g.inner.Debug(msg)
}

func (g guarded) Info(msg string) {
	defer swallow()
	g.inner.Info(msg)
}

func (g guarded) Warn(msg string) {
	defer swallow()
	g.inner.Warn(msg)
}

func (g guarded) Error(msg string, err error) {
	defer swallow()
	g.inner.Error(msg, err)
}

func (g guarded) Fatal(msg string, err error) {
	defer swallow()
	g.inner.Fatal(msg, err)
}

func swallow() {
	_ = recover()
}
