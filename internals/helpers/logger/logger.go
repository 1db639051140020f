// Package logger holds the process-wide logrus instance.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is usable before Setup is called; Setup only adjusts level and format.
var Log = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Setup applies level and format to Log.
func Setup(level string, json bool) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	if json {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}
}

// Discard returns a logger that writes nowhere, for tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
