package status

import (
	"context"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

type RepoInspector interface {
	LoadStatus(ctx context.Context, path string) (domain.RepoStatus, error)
}

type PathChecker interface {
	DirExists(path string) (bool, error)
	FileExists(path string) (bool, error)
}

type InterpreterLocator interface {
	InterpreterPath(env domain.EnvironmentDescriptor) string
}

type RunReader interface {
	LastRun(ctx context.Context) (domain.Report, bool, error)
}
