// Package logging re-expresses the teacher's process-wide stdlib logger as
// a dependency-injected sink (spec §9 "Global logger" design note), backed
// by zerolog. Each worker receives a Logger at construction instead of
// reaching for a global.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the minimal structured-logging contract every worker depends
// on. Keeping it an interface lets tests inject a buffering sink instead of
// writing to stdout.
type Logger interface {
	Debug(event string, fields map[string]interface{})
	Info(event string, fields map[string]interface{})
	Warn(event string, fields map[string]interface{})
	Error(event string, err error, fields map[string]interface{})
	With(field string, value interface{}) Logger
}

type zlog struct {
	z zerolog.Logger
}

// New builds a Logger writing human-readable lines to w (os.Stdout by
// default). A nil w defaults to os.Stdout.
func New(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return &zlog{z: zerolog.New(console).With().Timestamp().Logger()}
}

// Noop returns a Logger that discards everything, for tests that don't
// care about log output but still need to satisfy the constructor.
func Noop() Logger {
	return &zlog{z: zerolog.New(io.Discard)}
}

func apply(e *zerolog.Event, fields map[string]interface{}) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

func (l *zlog) Debug(event string, fields map[string]interface{}) {
	apply(l.z.Debug(), fields).Msg(event)
}

func (l *zlog) Info(event string, fields map[string]interface{}) {
	apply(l.z.Info(), fields).Msg(event)
}

func (l *zlog) Warn(event string, fields map[string]interface{}) {
	apply(l.z.Warn(), fields).Msg(event)
}

func (l *zlog) Error(event string, err error, fields map[string]interface{}) {
	apply(l.z.Error().Err(err), fields).Msg(event)
}

func (l *zlog) With(field string, value interface{}) Logger {
	return &zlog{z: l.z.With().Interface(field, value).Logger()}
}
