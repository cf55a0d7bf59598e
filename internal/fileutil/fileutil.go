// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// WriteAtomic writes content to path through a temporary file in the same
// directory, renamed into place once complete. Readers never observe a
// partially written file.
func WriteAtomic(path string, content []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".mathdoc-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, writeErr := tmpFile.Write(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil { // #nosec G302 -- rendered pages are meant to be shared
		cleanup()
		return fmt.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// OutputPath returns the path for the output derived from input: the same
// base name with its extension replaced by extension, placed in outDir, or
// next to input when outDir is empty.
func OutputPath(input, outDir, extension string) (string, error) {
	if err := ValidateExtension(extension); err != nil {
		return "", err
	}

	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + "." + extension

	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name), nil
}

// ValidateExtension checks that the extension is safe for use in file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsURL returns true if the string looks like a URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
