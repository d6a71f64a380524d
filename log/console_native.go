//go:build !(js && wasm)

package log

import (
	"io"
	"os"
)

func emit(entry Entry, prefix string) error {
	_, err := io.WriteString(os.Stderr, entry.Text(prefix)+"\n")
	return err
}
