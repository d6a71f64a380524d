// Package browser implements the DOM ports on top of syscall/js. Outside
// a js/wasm build every constructor reports ErrUnavailable.
package browser

import "errors"

// ErrUnavailable is returned when no browser page is reachable.
var ErrUnavailable = errors.New("browser: no document available")

// ErrFrameDetached is returned when posting to a frame whose window has
// gone away.
var ErrFrameDetached = errors.New("browser: frame has no content window")
