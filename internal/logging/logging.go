// Package logging provides component-tagged loggers for the daemon.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	initOnce sync.Once
	root     *logrus.Logger
)

func rootLogger() *logrus.Logger {
	initOnce.Do(func() {
		root = logrus.New()
		root.SetOutput(os.Stderr)
		root.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		if os.Getenv("KURORYUU_DEBUG") != "" {
			root.SetLevel(logrus.DebugLevel)
		}
	})
	return root
}

// NewLogger returns a logger entry tagged with the given component name.
func NewLogger(component string) *logrus.Entry {
	return rootLogger().WithField("component", component)
}

// SetOutput redirects all loggers to the given writer.
func SetOutput(w io.Writer) {
	rootLogger().SetOutput(w)
}

// SetLevel sets the global log level.
func SetLevel(level logrus.Level) {
	rootLogger().SetLevel(level)
}
