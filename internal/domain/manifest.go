package domain

import (
	"fmt"
)

const ManifestVersion = 1

const (
	DefaultManifestFile = "envprov.yaml"
	DefaultWorkspaces   = "workspaces"
	DefaultEnvironment  = ".venv"
	DefaultPython       = "python3"
	DefaultRequirements = "requirements.txt"
	StateDir            = ".envprov"
	JournalFile         = "journal.db"
)

// Manifest is the resolved provisioning plan: paths are absolute and
// defaults applied.
type Manifest struct {
	Version      int
	Path         string
	ProjectRoot  string
	Workspaces   string
	Environment  EnvironmentDescriptor
	Policy       Policy
	Repositories []RepositorySpec
	Packages     []PackageSpec
	Requirements RequirementsFile
	Digest       string
}

// RequirementsFile is a pip requirements file installed after the declared
// packages. Explicit is set when the manifest names the file; an implicit
// file that does not exist is ignored.
type RequirementsFile struct {
	Path     string
	Explicit bool
}

func (m Manifest) WithDefaults() Manifest {
	if m.Version == 0 {
		m.Version = ManifestVersion
	}
	if m.Environment.Python == "" {
		m.Environment.Python = DefaultPython
	}
	m.Policy = NormalizePolicy(m.Policy)
	return m
}

func (m Manifest) Validate() error {
	if m.Version != ManifestVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}
	if err := m.Environment.Validate(); err != nil {
		return err
	}
	repos := make(map[string]struct{}, len(m.Repositories))
	for _, repo := range m.Repositories {
		if err := repo.Validate(); err != nil {
			return err
		}
		if _, ok := repos[repo.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRepo, repo.Name)
		}
		repos[repo.Name] = struct{}{}
	}
	pkgs := make(map[string]struct{}, len(m.Packages))
	for _, pkg := range m.Packages {
		if err := pkg.Validate(); err != nil {
			return err
		}
		key := NormalizePackageName(pkg.Name)
		if _, ok := pkgs[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePackage, pkg.Name)
		}
		pkgs[key] = struct{}{}
	}
	return nil
}
