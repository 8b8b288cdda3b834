package status

import (
	"context"
	"path/filepath"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

type Service struct {
	repos   RepoInspector
	paths   PathChecker
	locator InterpreterLocator
	runs    RunReader
}

// NewService builds a status service. runs may be nil when no journal is
// available.
func NewService(repos RepoInspector, paths PathChecker, locator InterpreterLocator, runs RunReader) *Service {
	return &Service{
		repos:   repos,
		paths:   paths,
		locator: locator,
		runs:    runs,
	}
}

// Status inspects the provisioned target without modifying it.
func (s *Service) Status(ctx context.Context, manifest domain.Manifest) (domain.ProvisionStatus, error) {
	out := domain.ProvisionStatus{
		ManifestPath:   manifest.Path,
		ManifestDigest: manifest.Digest,
	}

	for _, repo := range manifest.Repositories {
		if err := ctx.Err(); err != nil {
			return domain.ProvisionStatus{}, err
		}
		repoStatus, err := s.repoStatus(ctx, filepath.Join(manifest.Workspaces, repo.Name))
		if err != nil {
			return domain.ProvisionStatus{}, err
		}
		repoStatus.Name = repo.Name
		out.Repositories = append(out.Repositories, repoStatus)
	}

	envStatus, err := s.environmentStatus(manifest.Environment)
	if err != nil {
		return domain.ProvisionStatus{}, err
	}
	out.Environment = envStatus

	if s.runs != nil {
		last, ok, err := s.runs.LastRun(ctx)
		if err != nil {
			return domain.ProvisionStatus{}, err
		}
		if ok {
			out.LastRun = &last
			out.Drift = last.ManifestDigest != manifest.Digest
		}
	}
	return out, nil
}

func (s *Service) repoStatus(ctx context.Context, path string) (domain.RepoStatus, error) {
	exists, err := s.paths.DirExists(path)
	if err != nil {
		return domain.RepoStatus{}, err
	}
	if !exists {
		return domain.RepoStatus{Path: path}, nil
	}
	repoStatus, err := s.repos.LoadStatus(ctx, path)
	if err != nil {
		return domain.RepoStatus{}, err
	}
	repoStatus.Path = path
	repoStatus.Exists = true
	return repoStatus, nil
}

func (s *Service) environmentStatus(env domain.EnvironmentDescriptor) (domain.EnvironmentStatus, error) {
	out := domain.EnvironmentStatus{Root: env.RootPath}
	exists, err := s.paths.DirExists(env.RootPath)
	if err != nil {
		return domain.EnvironmentStatus{}, err
	}
	if !exists {
		return out, nil
	}
	out.Exists = true
	out.Interpreter = s.locator.InterpreterPath(env)
	hasInterpreter, err := s.paths.FileExists(out.Interpreter)
	if err != nil {
		return domain.EnvironmentStatus{}, err
	}
	out.HasInterpreter = hasInterpreter
	return out, nil
}
