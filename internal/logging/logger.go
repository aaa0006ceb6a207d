// Package logging carries over the teacher's pluggable-Logger idiom
// (go-mcast's pkg/mcast/definition.DefaultLogger) backed by logrus instead
// of the stdlib log package, since logrus is already in the teacher's
// dependency graph (an indirect require, and the library
// github.com/prometheus/common/log — imported directly by the teacher's
// own transport.go — wraps).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the interface the dispatcher, runtime, façade and the relt and
// ws adapters take (the outbound batcher and the heartbeat take none),
// matching the teacher's types.Logger contract field-for-field.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})
}

// FieldLogger wraps a *logrus.Entry so call sites can attach structured
// fields (channel id, peer id, doc id) the way the teacher's peer.go
// attaches %#v-formatted structs to its log lines, but queryable instead
// of just stringified.
type FieldLogger struct {
	entry *logrus.Entry
}

// NewDefaultLogger builds the default logger used when an embedder does
// not provide its own, writing to stderr at info level like the teacher's
// NewDefaultLogger.
func NewDefaultLogger() *FieldLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &FieldLogger{entry: logrus.NewEntry(l)}
}

// WithField returns a derived logger carrying an extra structured field,
// e.g. a channel, peer or doc identifier. No package in this repository
// calls it; the dispatcher and runtime log with formatted messages only.
func (f *FieldLogger) WithField(key string, value interface{}) *FieldLogger {
	return &FieldLogger{entry: f.entry.WithField(key, value)}
}

// ToggleDebug flips the logger between info and debug verbosity, mirroring
// the teacher's DefaultLogger.ToggleDebug.
func (f *FieldLogger) ToggleDebug(on bool) {
	if on {
		f.entry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		f.entry.Logger.SetLevel(logrus.InfoLevel)
	}
}

func (f *FieldLogger) Debugf(format string, v ...interface{}) { f.entry.Debugf(format, v...) }
func (f *FieldLogger) Infof(format string, v ...interface{})  { f.entry.Infof(format, v...) }
func (f *FieldLogger) Warnf(format string, v ...interface{})  { f.entry.Warnf(format, v...) }
func (f *FieldLogger) Errorf(format string, v ...interface{}) { f.entry.Errorf(format, v...) }
func (f *FieldLogger) Fatalf(format string, v ...interface{}) { f.entry.Fatalf(format, v...) }

// noop is a Logger that discards everything, handy for tests that don't
// want log noise but still need to satisfy the interface.
type noop struct{}

func (noop) Debugf(string, ...interface{}) {}
func (noop) Infof(string, ...interface{})  {}
func (noop) Warnf(string, ...interface{})  {}
func (noop) Errorf(string, ...interface{}) {}
func (noop) Fatalf(string, ...interface{}) {}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return noop{} }
