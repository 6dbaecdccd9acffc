//go:build windows
// +build windows

// Package xos provides atomic file writes.
// On Windows, rename cannot replace an open target, so the write is best effort.
package xos

import (
	"os"
	"path/filepath"
)

// WriteFile writes data to a temp file next to filename and renames it into place.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	tempFile, err := os.CreateTemp(filepath.Dir(filename), ".tmp-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tempName, perm); err != nil {
		return err
	}

	// The target has to go first on Windows.
	if _, err := os.Stat(filename); err == nil {
		if err := os.Remove(filename); err != nil {
			return err
		}
	}

	if err := os.Rename(tempName, filename); err != nil {
		return err
	}

	success = true
	return nil
}
