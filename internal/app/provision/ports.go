package provision

import (
	"context"
	"time"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

// CloneRequest describes a single clone. Depth 0 fetches full history.
// SparsePaths, when non-empty, restricts the checkout to those directories.
type CloneRequest struct {
	URL         string
	Path        string
	Ref         string
	Depth       int
	SparsePaths []string
}

type Cloner interface {
	Clone(ctx context.Context, req CloneRequest) error
}

type SparseProber interface {
	ProbeSparse(ctx context.Context) domain.SparseSupport
}

type PathChecker interface {
	DirExists(path string) (bool, error)
	FileExists(path string) (bool, error)
}

// PermissionSetter locks a cloned tree against edits.
type PermissionSetter interface {
	MakeReadOnly(path string) error
}

// Preflight confirms the external tools a manifest needs are installed
// before anything is changed.
type Preflight interface {
	Preflight(ctx context.Context, manifest domain.Manifest) error
}

type EnvironmentBuilder interface {
	Create(ctx context.Context, env domain.EnvironmentDescriptor) error
}

type PackageInstaller interface {
	Installed(ctx context.Context, env domain.EnvironmentDescriptor) (map[string]string, error)
	UpgradeInstaller(ctx context.Context, env domain.EnvironmentDescriptor) error
	Install(ctx context.Context, env domain.EnvironmentDescriptor, requirement string) error
	InstallRequirements(ctx context.Context, env domain.EnvironmentDescriptor, path string) error
	// Satisfies reports whether an installed version meets constraint. An
	// empty constraint accepts any version.
	Satisfies(installed, constraint string) bool
}

type InstallProber interface {
	ProbeImport(ctx context.Context, env domain.EnvironmentDescriptor, module string) error
	ProbeCommand(ctx context.Context, env domain.EnvironmentDescriptor, command string) (string, error)
}

type Journal interface {
	RecordRun(ctx context.Context, report domain.Report) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() (string, error)
}
