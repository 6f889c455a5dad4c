// Package native binds the vendor libltr11 shared library. The binding is
// compiled only with the ltr11 build tag and cgo enabled; without it New
// reports ErrUnavailable so callers can fall back to the simulator.
package native

import "errors"

// ErrUnavailable is returned by New when the binding was not compiled in.
var ErrUnavailable = errors.New("native ltr11 driver not compiled in (build with -tags ltr11)")

// portListSize is the buffer handed to ltr11_get_list.
const portListSize = 2048
