// Package logging provides component-scoped structured loggers backed by logrus.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options controls how a Logger renders.
type Options struct {
	Level  string    // debug, info, warn, error
	Format string    // text or json
	Output io.Writer // defaults to stderr
}

// Logger is a logrus entry carrying a "component" field.
type Logger struct {
	*logrus.Entry
}

// New builds a logger for component. An unknown level or format is an error.
func New(component string, opts Options) (*Logger, error) {
	base := logrus.New()

	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	base.SetLevel(lvl)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	if opts.Output != nil {
		base.SetOutput(opts.Output)
	} else {
		base.SetOutput(os.Stderr)
	}

	return &Logger{Entry: base.WithField("component", component)}, nil
}

// NewDefault returns an info-level text logger writing to stderr.
func NewDefault(component string) *Logger {
	l, _ := New(component, Options{})
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l, _ := New("discard", Options{Output: io.Discard})
	return l
}

// Named returns a logger sharing l's output and level with a different component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", component)}
}
