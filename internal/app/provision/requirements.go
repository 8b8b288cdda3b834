package provision

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

// InstallRequirements hands a requirements file to the installer. pip treats
// requirements that are already met as a no-op, so the step is safe to
// repeat. ran is false when an implicit file is absent and nothing was done.
func (s *Service) InstallRequirements(ctx context.Context, env domain.EnvironmentDescriptor, file domain.RequirementsFile) (step domain.StepResult, ran bool, err error) {
	started := s.clock.Now()
	target := filepath.Base(file.Path)
	step = domain.StepResult{Kind: domain.StepRequirements, Target: target}

	exists, err := s.paths.FileExists(file.Path)
	if err != nil {
		return s.finish(step, started, domain.StepFailed, err.Error()), true, domain.NewProvisionError(domain.StepRequirements, target, err)
	}
	if !exists {
		if !file.Explicit {
			s.logger.Debug("no requirements file", "path", file.Path)
			return domain.StepResult{}, false, nil
		}
		err := fmt.Errorf("%w: %s", domain.ErrRequirementsMissing, file.Path)
		return s.finish(step, started, domain.StepFailed, err.Error()), true, domain.NewProvisionError(domain.StepRequirements, target, err)
	}

	s.logger.Info("installing requirements", "path", file.Path)
	if err := s.installer.InstallRequirements(ctx, env, file.Path); err != nil {
		s.logger.Error("requirements install failed", "path", file.Path, "exit_code", domain.ExitStatus(err), "error", err)
		return s.finish(step, started, domain.StepFailed, err.Error()), true, domain.NewProvisionError(domain.StepRequirements, target, err)
	}
	return s.finish(step, started, domain.StepDone, "installed "+file.Path), true, nil
}
