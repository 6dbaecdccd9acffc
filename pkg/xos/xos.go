//go:build !windows
// +build !windows

// Package xos provides atomic file writes.
// It uses atomic rename operations to prevent partially written files on crashes.
package xos

import (
	"os"

	"github.com/google/renameio/v2"
)

// WriteFile writes data to the named file atomically using rename.
// If the file does not exist, WriteFile creates it with permissions perm;
// otherwise the previous contents are replaced in one step.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(filename, data, perm)
}
