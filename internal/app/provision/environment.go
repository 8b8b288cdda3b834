package provision

import (
	"context"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

// EnsureEnvironment creates the isolated environment when its root is
// absent. An existing environment is reused as is.
func (s *Service) EnsureEnvironment(ctx context.Context, env domain.EnvironmentDescriptor) (domain.StepResult, error) {
	started := s.clock.Now()
	step := domain.StepResult{Kind: domain.StepEnvironment, Target: env.RootPath}

	if err := env.Validate(); err != nil {
		return s.finish(step, started, domain.StepFailed, err.Error()), domain.NewProvisionError(domain.StepEnvironment, env.RootPath, err)
	}

	exists, err := s.paths.DirExists(env.RootPath)
	if err != nil {
		return s.finish(step, started, domain.StepFailed, err.Error()), domain.NewProvisionError(domain.StepEnvironment, env.RootPath, err)
	}
	if exists {
		s.logger.Info("environment already exists", "path", env.RootPath)
		return s.finish(step, started, domain.StepSkipped, "already exists"), nil
	}

	s.logger.Info("creating environment", "path", env.RootPath, "python", env.Python)
	if err := s.builder.Create(ctx, env); err != nil {
		s.logger.Error("environment creation failed", "path", env.RootPath, "error", err)
		return s.finish(step, started, domain.StepFailed, err.Error()), domain.NewProvisionError(domain.StepEnvironment, env.RootPath, err)
	}
	return s.finish(step, started, domain.StepDone, "created"), nil
}
