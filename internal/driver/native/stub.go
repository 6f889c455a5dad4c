//go:build !ltr11 || !cgo

package native

import "github.com/banshee-data/ltr11/internal/driver"

// Available reports whether the native binding is compiled in.
func Available() bool { return false }

// New returns ErrUnavailable in builds without the native binding.
func New() (driver.Driver, error) {
	return nil, ErrUnavailable
}
