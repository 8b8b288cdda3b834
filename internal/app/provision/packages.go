package provision

import (
	"context"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

const installerTarget = "pip"

// InstallPackages installs each spec into env. Packages already present at
// a version their constraint accepts are skipped; when nothing is pending
// the installer bootstrap is skipped too, so a provisioned environment is
// left untouched.
func (s *Service) InstallPackages(ctx context.Context, env domain.EnvironmentDescriptor, specs []domain.PackageSpec) ([]domain.StepResult, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			step := domain.StepResult{Kind: domain.StepInstall, Target: spec.Name, Status: domain.StepFailed, Message: err.Error()}
			return []domain.StepResult{step}, domain.NewProvisionError(domain.StepInstall, spec.Name, err)
		}
	}

	installed, err := s.installer.Installed(ctx, env)
	if err != nil {
		s.logger.Debug("could not list installed packages", "error", err)
		installed = nil
	}

	pending := make(map[int]bool, len(specs))
	for i, spec := range specs {
		version, ok := installed[domain.NormalizePackageName(spec.Name)]
		if ok && s.installer.Satisfies(version, spec.VersionConstraint) {
			continue
		}
		pending[i] = true
	}

	var steps []domain.StepResult
	if len(pending) > 0 {
		started := s.clock.Now()
		step := domain.StepResult{Kind: domain.StepBootstrap, Target: installerTarget}
		s.logger.Info("upgrading installer", "environment", env.RootPath)
		if err := s.installer.UpgradeInstaller(ctx, env); err != nil {
			s.logger.Error("installer upgrade failed", "error", err)
			steps = append(steps, s.finish(step, started, domain.StepFailed, err.Error()))
			return steps, domain.NewProvisionError(domain.StepBootstrap, installerTarget, err)
		}
		steps = append(steps, s.finish(step, started, domain.StepDone, "upgraded"))
	}

	for i, spec := range specs {
		started := s.clock.Now()
		step := domain.StepResult{Kind: domain.StepInstall, Target: spec.Name}
		if !pending[i] {
			version := installed[domain.NormalizePackageName(spec.Name)]
			s.logger.Info("package already installed", "package", spec.Name, "version", version)
			steps = append(steps, s.finish(step, started, domain.StepSkipped, "already installed "+version))
			continue
		}

		requirement := spec.Requirement()
		s.logger.Info("installing package", "requirement", requirement)
		if err := s.installer.Install(ctx, env, requirement); err != nil {
			s.logger.Error("package install failed", "requirement", requirement, "exit_code", domain.ExitStatus(err), "error", err)
			steps = append(steps, s.finish(step, started, domain.StepFailed, err.Error()))
			return steps, domain.NewProvisionError(domain.StepInstall, spec.Name, err)
		}
		steps = append(steps, s.finish(step, started, domain.StepDone, "installed "+requirement))
	}
	return steps, nil
}
