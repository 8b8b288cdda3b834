package provision

import (
	"context"
	"strings"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

type VerificationReport struct {
	Steps []domain.StepResult
}

func (r VerificationReport) OK() bool {
	for _, step := range r.Steps {
		if step.Status != domain.StepDone {
			return false
		}
	}
	return true
}

// VerifyInstallation probes every package: an import of its top-level
// module and, when a command is declared, "<command> --version". Failures
// are logged as warnings and never stop the caller.
func (s *Service) VerifyInstallation(ctx context.Context, env domain.EnvironmentDescriptor, specs []domain.PackageSpec) VerificationReport {
	var report VerificationReport
	for _, spec := range specs {
		module := spec.ImportName()
		started := s.clock.Now()
		step := domain.StepResult{Kind: domain.StepVerifyImport, Target: module}
		if err := s.verifier.ProbeImport(ctx, env, module); err != nil {
			s.logger.Warn("import probe failed", "package", spec.Name, "module", module, "error", err)
			report.Steps = append(report.Steps, s.finish(step, started, domain.StepWarned, err.Error()))
		} else {
			s.logger.Debug("import probe passed", "module", module)
			report.Steps = append(report.Steps, s.finish(step, started, domain.StepDone, "import "+module))
		}

		command := strings.TrimSpace(spec.Command)
		if command == "" {
			continue
		}
		started = s.clock.Now()
		step = domain.StepResult{Kind: domain.StepVerifyCommand, Target: command}
		output, err := s.verifier.ProbeCommand(ctx, env, command)
		if err != nil {
			s.logger.Warn("command probe failed", "package", spec.Name, "command", command, "error", err)
			report.Steps = append(report.Steps, s.finish(step, started, domain.StepWarned, err.Error()))
			continue
		}
		version := firstLine(output)
		s.logger.Info("command probe passed", "command", command, "version", version)
		report.Steps = append(report.Steps, s.finish(step, started, domain.StepDone, version))
	}
	return report
}

// Verify runs VerifyInstallation for a manifest whose environment must
// already exist.
func (s *Service) Verify(ctx context.Context, manifest domain.Manifest) (VerificationReport, error) {
	exists, err := s.paths.DirExists(manifest.Environment.RootPath)
	if err != nil {
		return VerificationReport{}, err
	}
	if !exists {
		return VerificationReport{}, ErrEnvironmentMissing
	}
	return s.VerifyInstallation(ctx, manifest.Environment, manifest.Packages), nil
}

func firstLine(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}
