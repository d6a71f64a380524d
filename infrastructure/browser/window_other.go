//go:build !(js && wasm)

package browser

import "github.com/iselfietest/cardio-sdk/domain/ports"

// NewWindow reports ErrUnavailable outside a js/wasm build.
func NewWindow() (ports.Window, error) {
	return nil, ErrUnavailable
}
