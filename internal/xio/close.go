// Package xio holds small filesystem helpers shared across the storage stack.
package xio

import (
	"log/slog"
	"os"
)

// CloseFile closes f and logs a warning instead of dropping the error, since
// callers are almost always in a defer where returning the error is awkward.
func CloseFile(f *os.File) {
	if err := f.Close(); err != nil {
		slog.Warn("xio: close file failed", "name", f.Name(), "err", err)
	}
}
