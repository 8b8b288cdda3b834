package domain

import (
	"fmt"
	"strings"
)

type PackageSpec struct {
	Name              string
	VersionConstraint string
	Module            string
	Command           string
}

func (p PackageSpec) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return ErrPackageNameRequired
	}
	if !IsValidPackageName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidPackageName, p.Name)
	}
	return nil
}

// Requirement renders the package as an installer requirement string. A bare
// version is pinned exactly.
func (p PackageSpec) Requirement() string {
	name := strings.TrimSpace(p.Name)
	constraint := strings.TrimSpace(p.VersionConstraint)
	if constraint == "" {
		return name
	}
	if strings.ContainsAny(constraint[:1], "<>=!~") {
		return name + constraint
	}
	return name + "==" + constraint
}

func (p PackageSpec) ImportName() string {
	if module := strings.TrimSpace(p.Module); module != "" {
		return module
	}
	return strings.ReplaceAll(strings.TrimSpace(p.Name), "-", "_")
}
