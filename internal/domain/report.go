package domain

import "time"

type Stage string

const (
	StageUnprovisioned Stage = "UNPROVISIONED"
	StageReposReady    Stage = "REPOS_READY"
	StageEnvReady      Stage = "ENV_READY"
	StagePackagesReady Stage = "PACKAGES_READY"
	StageVerified      Stage = "VERIFIED"
)

var stageOrder = map[Stage]int{
	StageUnprovisioned: 0,
	StageReposReady:    1,
	StageEnvReady:      2,
	StagePackagesReady: 3,
	StageVerified:      4,
}

func (s Stage) IsValid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Reached reports whether s is at or past other.
func (s Stage) Reached(other Stage) bool {
	return stageOrder[s] >= stageOrder[other]
}

// Report is the outcome of one provisioning run.
type Report struct {
	RunID          string
	ManifestPath   string
	ManifestDigest string
	Policy         Policy
	Stage          Stage
	Steps          []StepResult
	Aborted        bool
	FailedStep     string
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
}

func (r *Report) Add(steps ...StepResult) {
	r.Steps = append(r.Steps, steps...)
}

func (r Report) Count(status StepStatus) int {
	n := 0
	for _, step := range r.Steps {
		if step.Status == status {
			n++
		}
	}
	return n
}

func (r Report) Succeeded() bool {
	return !r.Aborted && r.Count(StepFailed) == 0
}

func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
