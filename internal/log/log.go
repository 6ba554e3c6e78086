// Package log is the structured-logging entry point every other internal
// package logs through, so a caller gets one consistent log stream
// regardless of which component emitted an entry. Carried from
// rancher-sandbox-hypper's dependency set (a Go package-manager CLI in
// the pack) the way the teacher's Tracer hook would be wired to a real
// logger in production.
package log

import (
	"github.com/sirupsen/logrus"
)

// Logger is the package-wide logger every component logs through.
// Replacing it (e.g. in cmd/oma, to set level or format from flags) is
// the only supported configuration surface.
var Logger = logrus.New()

// WithField is a thin convenience wrapper so call sites read
// log.WithField(...) instead of threading logrus imports everywhere.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}
