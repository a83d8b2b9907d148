package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it into place, so a concurrent reader never
// observes a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (retErr error) {
	dir := filepath.Dir(path)
	tmp, tmpErr := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if tmpErr != nil {
		return fmt.Errorf("failed to create temp file: %w", tmpErr)
	}

	tmpPath := tmp.Name()
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, writeErr := tmp.Write(data); writeErr != nil {
		return errors.Join(fmt.Errorf("failed to write temp file: %w", writeErr), tmp.Close())
	}

	if closeErr := tmp.Close(); closeErr != nil {
		return fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	if chmodErr := os.Chmod(tmpPath, perm); chmodErr != nil {
		return fmt.Errorf("failed to set permissions: %w", chmodErr)
	}

	if renameErr := os.Rename(tmpPath, path); renameErr != nil {
		return fmt.Errorf("failed to replace %s: %w", path, renameErr)
	}

	return nil
}
