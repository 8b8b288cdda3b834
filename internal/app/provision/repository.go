package provision

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

const sparseFallbackMessage = "sparse checkout unsupported; cloned full repository"

// EnsureRepository makes sure <workspaces>/<spec.Name> exists, cloning it
// shallowly when absent. Existing directories are never touched, so a mirror
// is made read-only only by the run that cloned it.
func (s *Service) EnsureRepository(ctx context.Context, workspaces string, spec domain.RepositorySpec) (string, domain.StepResult, error) {
	started := s.clock.Now()
	step := domain.StepResult{Kind: domain.StepClone, Target: spec.Name}

	if err := spec.Validate(); err != nil {
		return "", s.finish(step, started, domain.StepFailed, err.Error()), domain.NewProvisionError(domain.StepClone, spec.Name, err)
	}

	path := filepath.Join(workspaces, spec.Name)
	exists, err := s.paths.DirExists(path)
	if err != nil {
		return "", s.finish(step, started, domain.StepFailed, err.Error()), domain.NewProvisionError(domain.StepClone, spec.Name, err)
	}
	if exists {
		s.logger.Info("repository already exists", "repository", spec.Name, "path", path)
		return path, s.finish(step, started, domain.StepSkipped, "already exists"), nil
	}

	req := CloneRequest{
		URL:   spec.URL,
		Path:  path,
		Ref:   spec.Ref,
		Depth: shallowDepth,
	}
	fellBack := false
	if spec.Sparse {
		support := s.prober.ProbeSparse(ctx)
		s.logger.Debug("sparse checkout probe", "repository", spec.Name, "support", support)
		if support == domain.SparseUnsupported {
			fellBack = true
			s.logger.Warn("sparse checkout unsupported; falling back to full checkout", "repository", spec.Name)
		} else {
			req.SparsePaths = spec.CleanSparsePaths()
		}
	}

	s.logger.Info("cloning repository", "repository", spec.Name, "url", spec.URL, "path", path, "sparse", len(req.SparsePaths) > 0)
	err = s.cloner.Clone(ctx, req)
	if err != nil && len(req.SparsePaths) > 0 && errors.Is(err, domain.ErrSparseUnsupported) {
		fellBack = true
		s.logger.Warn("sparse checkout unsupported; falling back to full checkout", "repository", spec.Name, "error", err)
		req.SparsePaths = nil
		err = s.cloner.Clone(ctx, req)
	}
	if err != nil {
		s.logger.Error("clone failed", "repository", spec.Name, "url", spec.URL, "error", err)
		return "", s.finish(step, started, domain.StepFailed, err.Error()), domain.NewProvisionError(domain.StepClone, spec.Name, err)
	}

	if spec.ReadOnly {
		if err := s.permissions.MakeReadOnly(path); err != nil {
			s.logger.Warn("could not make mirror read-only", "repository", spec.Name, "path", path, "error", err)
			return path, s.finish(step, started, domain.StepWarned, "cloned; not made read-only: "+err.Error()), nil
		}
	}

	if fellBack {
		return path, s.finish(step, started, domain.StepWarned, sparseFallbackMessage), nil
	}
	return path, s.finish(step, started, domain.StepDone, cloneMessage(len(req.SparsePaths) > 0, spec.ReadOnly)), nil
}

func cloneMessage(sparse, readOnly bool) string {
	switch {
	case sparse && readOnly:
		return "cloned (sparse, read-only)"
	case sparse:
		return "cloned (sparse)"
	case readOnly:
		return "cloned (read-only)"
	}
	return "cloned"
}
