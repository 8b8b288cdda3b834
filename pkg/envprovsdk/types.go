package envprovsdk

import (
	"time"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

type Step struct {
	Kind     string
	Target   string
	Status   string
	Message  string
	Duration time.Duration
}

// Label names the step the way failure reports do, e.g. clone[repoA].
func (s Step) Label() string {
	if s.Target == "" {
		return s.Kind
	}
	return s.Kind + "[" + s.Target + "]"
}

type Report struct {
	RunID          string
	ManifestPath   string
	ManifestDigest string
	Policy         Policy
	Stage          string
	Steps          []Step
	Aborted        bool
	FailedStep     string
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Succeeded reports whether the run completed without a failed step.
func (r Report) Succeeded() bool {
	if r.Aborted {
		return false
	}
	for _, step := range r.Steps {
		if step.Status == string(domain.StepFailed) {
			return false
		}
	}
	return true
}

type RepoStatus struct {
	Name    string
	Path    string
	Present bool
	Git     bool
	Head    string
	Branch  string
	Remote  string
	Sparse  bool
}

type EnvironmentStatus struct {
	Root        string
	Present     bool
	Interpreter string
	Usable      bool
}

type Status struct {
	ManifestPath   string
	ManifestDigest string
	Complete       bool
	Drift          bool
	Repositories   []RepoStatus
	Environment    EnvironmentStatus
	LastRun        *Report
}

type Verification struct {
	Steps []Step
}

func (v Verification) OK() bool {
	for _, step := range v.Steps {
		if step.Status != string(domain.StepDone) {
			return false
		}
	}
	return true
}

func toSteps(steps []domain.StepResult) []Step {
	out := make([]Step, 0, len(steps))
	for _, step := range steps {
		out = append(out, Step{
			Kind:     string(step.Kind),
			Target:   step.Target,
			Status:   string(step.Status),
			Message:  step.Message,
			Duration: step.Duration,
		})
	}
	return out
}

func toReport(report domain.Report) Report {
	return Report{
		RunID:          report.RunID,
		ManifestPath:   report.ManifestPath,
		ManifestDigest: report.ManifestDigest,
		Policy:         Policy(report.Policy),
		Stage:          string(report.Stage),
		Steps:          toSteps(report.Steps),
		Aborted:        report.Aborted,
		FailedStep:     report.FailedStep,
		Error:          report.Error,
		StartedAt:      report.StartedAt,
		FinishedAt:     report.FinishedAt,
	}
}

func toStatus(status domain.ProvisionStatus) Status {
	out := Status{
		ManifestPath:   status.ManifestPath,
		ManifestDigest: status.ManifestDigest,
		Complete:       status.Complete(),
		Drift:          status.Drift,
		Repositories:   make([]RepoStatus, 0, len(status.Repositories)),
		Environment: EnvironmentStatus{
			Root:        status.Environment.Root,
			Present:     status.Environment.Exists,
			Interpreter: status.Environment.Interpreter,
			Usable:      status.Environment.HasInterpreter,
		},
	}
	for _, repo := range status.Repositories {
		out.Repositories = append(out.Repositories, RepoStatus{
			Name:    repo.Name,
			Path:    repo.Path,
			Present: repo.Exists,
			Git:     repo.IsRepo,
			Head:    repo.HeadHash,
			Branch:  repo.Branch,
			Remote:  repo.Remote,
			Sparse:  repo.Sparse,
		})
	}
	if status.LastRun != nil {
		last := toReport(*status.LastRun)
		out.LastRun = &last
	}
	return out
}
