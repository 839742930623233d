// Package logger provides leveled logging for the repricer, backed by logrus.
// It exposes the package-level functions the rest of the application logs
// through, so call sites never carry a logger instance around.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Init configures the shared logger with the given level ("debug", "info",
// "warn", "error") and format ("json" or "text"). Unknown values fall back
// to info/text.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	log.SetOutput(os.Stderr)
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) {
	log.Debugf(format, args...)
}

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) {
	log.Infof(format, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) {
	log.Warnf(format, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) {
	log.Errorf(format, args...)
}

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) {
	log.Fatalf(format, args...)
}

// WithFields returns an entry carrying structured fields, for call sites
// that log several related lines about the same offer.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}
