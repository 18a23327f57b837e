package logging

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	std *logrus.Logger
	mu  sync.RWMutex
)

func init() {
	std = logrus.New()
	std.SetLevel(logrus.WarnLevel)
}

// Logger returns the package logger shared by all esodm components.
func Logger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// SetLogger replaces the package logger, e.g. to route esodm output
// into an application-wide logrus instance.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	std = l
	mu.Unlock()
}

// SetLevel sets the logging level from a string such as "debug" or "warn".
// Unknown levels are ignored.
func SetLevel(level string) {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	Logger().SetLevel(lv)
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	Logger().SetOutput(w)
}

// UseJSONFormat switches the logger to JSON output.
func UseJSONFormat() {
	Logger().SetFormatter(&logrus.JSONFormatter{})
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields map[string]any) *logrus.Entry {
	return Logger().WithFields(logrus.Fields(fields))
}

// Component returns an entry tagged with a component name, the form
// used by the backend drivers and the operations layer.
func Component(name string) *logrus.Entry {
	return Logger().WithField("component", name)
}
