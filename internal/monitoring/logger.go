// Package monitoring holds the diagnostic logger shared by the device,
// acquisition and policy packages.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Named returns a logger that prefixes every message with "[component] ".
// The returned function looks Logf up on every call, so SetLogger also
// affects loggers created earlier.
func Named(component string) func(format string, v ...interface{}) {
	prefix := fmt.Sprintf("[%s] ", component)
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
