package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

const shallowDepth = 1

type Dependencies struct {
	Paths       PathChecker
	Permissions PermissionSetter
	// Preflights run before the first step; none is required.
	Preflights []Preflight
	Cloner     Cloner
	Prober     SparseProber
	Builder    EnvironmentBuilder
	Installer  PackageInstaller
	Verifier   InstallProber
	Journal    Journal
	Clock      Clock
	IDs        IDGenerator
	Logger     *slog.Logger
}

type Service struct {
	paths       PathChecker
	permissions PermissionSetter
	preflights  []Preflight
	cloner      Cloner
	prober      SparseProber
	builder     EnvironmentBuilder
	installer   PackageInstaller
	verifier    InstallProber
	journal     Journal
	clock       Clock
	ids         IDGenerator
	logger      *slog.Logger
}

func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Paths == nil:
		return nil, fmt.Errorf("%w: path checker", ErrDependencyMissing)
	case deps.Permissions == nil:
		return nil, fmt.Errorf("%w: permission setter", ErrDependencyMissing)
	case deps.Cloner == nil:
		return nil, fmt.Errorf("%w: cloner", ErrDependencyMissing)
	case deps.Prober == nil:
		return nil, fmt.Errorf("%w: sparse prober", ErrDependencyMissing)
	case deps.Builder == nil:
		return nil, fmt.Errorf("%w: environment builder", ErrDependencyMissing)
	case deps.Installer == nil:
		return nil, fmt.Errorf("%w: package installer", ErrDependencyMissing)
	case deps.Verifier == nil:
		return nil, fmt.Errorf("%w: install prober", ErrDependencyMissing)
	case deps.Clock == nil:
		return nil, fmt.Errorf("%w: clock", ErrDependencyMissing)
	case deps.IDs == nil:
		return nil, fmt.Errorf("%w: id generator", ErrDependencyMissing)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		paths:       deps.Paths,
		permissions: deps.Permissions,
		preflights:  deps.Preflights,
		cloner:      deps.Cloner,
		prober:      deps.Prober,
		builder:     deps.Builder,
		installer:   deps.Installer,
		verifier:    deps.Verifier,
		journal:     deps.Journal,
		clock:       deps.Clock,
		ids:         deps.IDs,
		logger:      logger,
	}, nil
}

// Run provisions everything the manifest declares: repositories, then the
// environment, then packages, then verification. The returned error is
// non-nil only for a fatal step; the report is always populated.
func (s *Service) Run(ctx context.Context, manifest domain.Manifest) (domain.Report, error) {
	runID, err := s.ids.NewID()
	if err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{
		RunID:          runID,
		ManifestPath:   manifest.Path,
		ManifestDigest: manifest.Digest,
		Policy:         domain.NormalizePolicy(manifest.Policy),
		Stage:          domain.StageUnprovisioned,
		StartedAt:      s.clock.Now(),
	}
	logger := s.logger.With("run", runID)
	logger.Info("provisioning started",
		"policy", report.Policy,
		"repositories", len(manifest.Repositories),
		"packages", len(manifest.Packages),
	)

	err = s.run(ctx, logger, manifest, &report)
	report.FinishedAt = s.clock.Now()
	if err != nil {
		report.Aborted = true
		report.Error = err.Error()
		var stepErr *domain.ProvisionError
		if errors.As(err, &stepErr) {
			report.FailedStep = domain.StepResult{Kind: stepErr.Kind, Target: stepErr.Target}.Label()
		}
		logger.Error("provisioning aborted", "stage", report.Stage, "step", report.FailedStep, "error", err)
	} else {
		logger.Info("provisioning finished",
			"stage", report.Stage,
			"warnings", report.Count(domain.StepWarned),
			"failures", report.Count(domain.StepFailed),
		)
	}

	s.record(ctx, logger, report)
	return report, err
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, manifest domain.Manifest, report *domain.Report) error {
	if len(s.preflights) > 0 {
		step, err := s.CheckTools(ctx, manifest)
		report.Add(step)
		if err != nil {
			return err
		}
	}

	for _, repo := range manifest.Repositories {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, step, err := s.EnsureRepository(ctx, manifest.Workspaces, repo)
		report.Add(step)
		if err == nil {
			continue
		}
		if ctx.Err() != nil || !report.Policy.Tolerates(domain.StepClone) {
			return err
		}
		logger.Warn("repository unavailable; continuing", "repository", repo.Name, "error", err)
	}
	report.Stage = domain.StageReposReady

	step, err := s.EnsureEnvironment(ctx, manifest.Environment)
	report.Add(step)
	if err != nil {
		return err
	}
	report.Stage = domain.StageEnvReady

	steps, err := s.InstallPackages(ctx, manifest.Environment, manifest.Packages)
	report.Add(steps...)
	if err != nil {
		return err
	}
	if manifest.Requirements.Path != "" {
		step, ran, err := s.InstallRequirements(ctx, manifest.Environment, manifest.Requirements)
		if ran {
			report.Add(step)
		}
		if err != nil {
			return err
		}
	}
	report.Stage = domain.StagePackagesReady

	verification := s.VerifyInstallation(ctx, manifest.Environment, manifest.Packages)
	report.Add(verification.Steps...)
	report.Stage = domain.StageVerified
	return nil
}

func (s *Service) record(ctx context.Context, logger *slog.Logger, report domain.Report) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordRun(context.WithoutCancel(ctx), report); err != nil {
		logger.Warn("could not record run", "error", err)
	}
}

func (s *Service) finish(step domain.StepResult, started time.Time, status domain.StepStatus, message string) domain.StepResult {
	step.Status = status
	step.Message = message
	step.Duration = s.clock.Now().Sub(started)
	return step
}
