package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

const (
	readOnlyDir  fs.FileMode = 0o555
	readOnlyFile fs.FileMode = 0o444
)

// Files reads and writes manifest sources and answers existence checks for
// provisioned paths.
type Files struct{}

func (Files) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (Files) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (f Files) Exists(path string) (bool, error) {
	return f.FileExists(path)
}

// DirExists reports whether path is a directory. An existing non-directory
// is an error rather than false so callers never clone or build over it.
func (Files) DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s: %w", path, domain.ErrNotDirectory)
	}
	return true, nil
}

func (Files) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return !info.IsDir(), nil
}

// MakeReadOnly strips write permission from the tree at root: directories
// become 0555 and files 0444. Symlinks are left alone since chmod would
// follow them out of the tree.
func (Files) MakeReadOnly(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		mode := readOnlyFile
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return nil
		case d.IsDir():
			mode = readOnlyDir
		}
		if err := os.Chmod(path, mode); err != nil {
			return fmt.Errorf("make read-only: %w", err)
		}
		return nil
	})
}
