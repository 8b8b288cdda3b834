package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrPathRequired = errors.New("path is required")

func Normalize(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrPathRequired
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	return absPath, nil
}

// Resolve joins a manifest-relative path onto root. Absolute paths are kept.
func Resolve(root, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, filepath.FromSlash(path))
}
