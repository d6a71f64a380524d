//go:build js && wasm

package log

import (
	"log/slog"
	"syscall/js"
)

// emit writes to the matching console method so browser devtools can
// filter by level.
func emit(entry Entry, prefix string) error {
	console := js.Global().Get("console")
	if console.IsUndefined() {
		return nil
	}
	method := "debug"
	switch {
	case entry.Level >= slog.LevelError:
		method = "error"
	case entry.Level >= slog.LevelWarn:
		method = "warn"
	case entry.Level >= slog.LevelInfo:
		method = "info"
	}
	console.Call(method, entry.Text(prefix))
	return nil
}
