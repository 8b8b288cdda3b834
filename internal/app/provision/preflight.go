package provision

import (
	"context"
	"errors"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

const preflightTarget = "tools"

// CheckTools runs every preflight and fails before any repository or
// environment is touched. Missing tools are reported together.
func (s *Service) CheckTools(ctx context.Context, manifest domain.Manifest) (domain.StepResult, error) {
	started := s.clock.Now()
	step := domain.StepResult{Kind: domain.StepPreflight, Target: preflightTarget}

	var errs []error
	for _, check := range s.preflights {
		if err := ctx.Err(); err != nil {
			return s.finish(step, started, domain.StepFailed, err.Error()), err
		}
		if err := check.Preflight(ctx, manifest); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("required tools missing", "error", err)
		return s.finish(step, started, domain.StepFailed, err.Error()), domain.NewProvisionError(domain.StepPreflight, preflightTarget, err)
	}
	return s.finish(step, started, domain.StepDone, "required tools found"), nil
}
