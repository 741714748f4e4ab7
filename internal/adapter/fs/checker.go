// Package fs provides filesystem-backed helpers for the core.
package fs

import (
	"os"

	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

// OSFileChecker reports whether a path names an existing regular file.
type OSFileChecker struct{}

// NewOSFileChecker creates a new checker.
func NewOSFileChecker() OSFileChecker {
	return OSFileChecker{}
}

// Exists returns true if path exists and is not a directory.
func (OSFileChecker) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

var _ ports.FileChecker = OSFileChecker{}
