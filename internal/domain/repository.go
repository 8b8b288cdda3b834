package domain

import (
	"fmt"
	"path"
	"strings"
)

type RepositorySpec struct {
	Name        string
	URL         string
	Ref         string
	Sparse      bool
	SparsePaths []string
	// ReadOnly marks a mirror: after a fresh clone the tree is made
	// read-only (directories 0555, files 0444).
	ReadOnly bool
}

func (r RepositorySpec) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrRepoNameRequired
	}
	if !IsValidRepoName(r.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidRepoName, r.Name)
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%s: %w", r.Name, ErrRepoURLRequired)
	}
	if !r.Sparse {
		return nil
	}
	if len(r.SparsePaths) == 0 {
		return fmt.Errorf("%s: %w", r.Name, ErrSparsePathsRequired)
	}
	for _, p := range r.SparsePaths {
		if !IsValidSparsePath(p) {
			return fmt.Errorf("%s: %w: %q", r.Name, ErrInvalidSparsePath, p)
		}
	}
	return nil
}

// CleanSparsePaths returns the sparse paths in declaration order, cleaned and
// without duplicates.
func (r RepositorySpec) CleanSparsePaths() []string {
	if !r.Sparse {
		return nil
	}
	seen := make(map[string]struct{}, len(r.SparsePaths))
	out := make([]string, 0, len(r.SparsePaths))
	for _, p := range r.SparsePaths {
		cleaned := path.Clean(strings.TrimSpace(p))
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

type EnvironmentDescriptor struct {
	RootPath string
	Python   string
}

func (e EnvironmentDescriptor) Validate() error {
	if strings.TrimSpace(e.RootPath) == "" {
		return ErrEnvPathRequired
	}
	return nil
}

type SparseSupport string

const (
	SparseSupported   SparseSupport = "supported"
	SparseUnsupported SparseSupport = "unsupported"
	SparseUnknown     SparseSupport = "unknown"
)
