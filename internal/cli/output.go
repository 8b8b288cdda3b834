package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	manifestapp "github.com/osvaldoandrade/envprov/internal/app/manifest"
	provisionapp "github.com/osvaldoandrade/envprov/internal/app/provision"
	"github.com/osvaldoandrade/envprov/internal/domain"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

type verification provisionapp.VerificationReport

func (v verification) failures() int {
	n := 0
	for _, step := range v.Steps {
		if step.Status != domain.StepDone {
			n++
		}
	}
	return n
}

type probeResult struct {
	Backend domain.GitBackend
	Sparse  domain.SparseSupport
}

type stepOutput struct {
	Kind       string `json:"kind"`
	Target     string `json:"target,omitempty"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type reportOutput struct {
	RunID          string       `json:"run_id"`
	Manifest       string       `json:"manifest"`
	ManifestDigest string       `json:"manifest_digest,omitempty"`
	Policy         string       `json:"policy"`
	Stage          string       `json:"stage"`
	Aborted        bool         `json:"aborted"`
	FailedStep     string       `json:"failed_step,omitempty"`
	Error          string       `json:"error,omitempty"`
	StartedAt      string       `json:"started_at,omitempty"`
	FinishedAt     string       `json:"finished_at,omitempty"`
	Steps          []stepOutput `json:"steps"`
}

type repoOutput struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Present bool   `json:"present"`
	Git     bool   `json:"git"`
	Head    string `json:"head,omitempty"`
	Branch  string `json:"branch,omitempty"`
	Remote  string `json:"remote,omitempty"`
	Sparse  bool   `json:"sparse"`
}

type environmentOutput struct {
	Root        string `json:"root"`
	Present     bool   `json:"present"`
	Interpreter string `json:"interpreter,omitempty"`
	Usable      bool   `json:"usable"`
}

type statusOutput struct {
	Manifest       string            `json:"manifest"`
	ManifestDigest string            `json:"manifest_digest"`
	Complete       bool              `json:"complete"`
	Drift          bool              `json:"drift"`
	Repositories   []repoOutput      `json:"repositories"`
	Environment    environmentOutput `json:"environment"`
	LastRun        *reportOutput     `json:"last_run,omitempty"`
}

func toStepOutputs(steps []domain.StepResult) []stepOutput {
	out := make([]stepOutput, 0, len(steps))
	for _, step := range steps {
		out = append(out, stepOutput{
			Kind:       string(step.Kind),
			Target:     step.Target,
			Status:     string(step.Status),
			Message:    step.Message,
			DurationMS: step.Duration.Milliseconds(),
		})
	}
	return out
}

func toReportOutput(report domain.Report) reportOutput {
	return reportOutput{
		RunID:          report.RunID,
		Manifest:       report.ManifestPath,
		ManifestDigest: report.ManifestDigest,
		Policy:         string(report.Policy),
		Stage:          string(report.Stage),
		Aborted:        report.Aborted,
		FailedStep:     report.FailedStep,
		Error:          report.Error,
		StartedAt:      formatTime(report.StartedAt),
		FinishedAt:     formatTime(report.FinishedAt),
		Steps:          toStepOutputs(report.Steps),
	}
}

func writeInitResult(cmd *cobra.Command, result manifestapp.InitResult, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, struct {
			Path    string `json:"path"`
			Created bool   `json:"created"`
		}{Path: result.Path, Created: result.Created})
	}
	ui := newRenderer(out, asJSON)
	state := ui.paint(toneMuted, "exists, left unchanged")
	if result.Created {
		state = ui.paint(toneGood, "created")
	}
	return writeKV(out, ui, "Manifest", fmt.Sprintf("%s (%s)", result.Path, state))
}

func writeReport(cmd *cobra.Command, report domain.Report, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, toReportOutput(report))
	}

	ui := newRenderer(out, asJSON)
	if err := writeKV(out, ui, "Run", report.RunID); err != nil {
		return err
	}
	if err := writeKV(out, ui, "Manifest", report.ManifestPath); err != nil {
		return err
	}
	if err := writeKV(out, ui, "Policy", string(report.Policy)); err != nil {
		return err
	}
	if err := writeKV(out, ui, "Stage", ui.stage(report.Stage)); err != nil {
		return err
	}
	if len(report.Steps) > 0 {
		writeSteps(out, ui, report.Steps)
	}

	summary := fmt.Sprintf("%d done, %d skipped, %d warned, %d failed in %s",
		report.Count(domain.StepDone),
		report.Count(domain.StepSkipped),
		report.Count(domain.StepWarned),
		report.Count(domain.StepFailed),
		report.Duration().Round(time.Millisecond),
	)
	if report.Aborted {
		summary = ui.paint(toneBad, "aborted") + " " + ui.paint(toneMuted, summary)
	}
	return writeKV(out, ui, "Result", summary)
}

func writeSteps(out io.Writer, ui renderer, steps []domain.StepResult) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"STEP", "STATUS", "DURATION", "DETAIL"})
	for _, step := range steps {
		t.AppendRow(table.Row{
			step.Label(),
			ui.status(step.Status),
			step.Duration.Round(time.Millisecond).String(),
			step.Message,
		})
	}
	t.Render()
}

func writeVerification(cmd *cobra.Command, report verification, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, struct {
			OK    bool         `json:"ok"`
			Steps []stepOutput `json:"steps"`
		}{OK: report.failures() == 0, Steps: toStepOutputs(report.Steps)})
	}

	ui := newRenderer(out, asJSON)
	if len(report.Steps) == 0 {
		return writeKV(out, ui, "Verify", ui.paint(toneMuted, "no packages declared"))
	}
	writeSteps(out, ui, report.Steps)
	if failed := report.failures(); failed > 0 {
		return writeKV(out, ui, "Verify", ui.paint(toneWarn, fmt.Sprintf("%d of %d probes failed", failed, len(report.Steps))))
	}
	return writeKV(out, ui, "Verify", ui.paint(toneGood, "all probes passed"))
}

func writeStatus(cmd *cobra.Command, status domain.ProvisionStatus, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		output := statusOutput{
			Manifest:       status.ManifestPath,
			ManifestDigest: status.ManifestDigest,
			Complete:       status.Complete(),
			Drift:          status.Drift,
			Repositories:   make([]repoOutput, 0, len(status.Repositories)),
			Environment: environmentOutput{
				Root:        status.Environment.Root,
				Present:     status.Environment.Exists,
				Interpreter: status.Environment.Interpreter,
				Usable:      status.Environment.HasInterpreter,
			},
		}
		for _, repo := range status.Repositories {
			output.Repositories = append(output.Repositories, repoOutput{
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
			last := toReportOutput(*status.LastRun)
			output.LastRun = &last
		}
		return writeJSON(out, output)
	}

	ui := newRenderer(out, asJSON)
	if err := writeKV(out, ui, "Manifest", status.ManifestPath); err != nil {
		return err
	}

	if len(status.Repositories) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"REPOSITORY", "STATE", "BRANCH", "HEAD", "CHECKOUT"})
		for _, repo := range status.Repositories {
			t.AppendRow(table.Row{repo.Name, repoState(ui, repo), repo.Branch, shortHash(repo.HeadHash), checkoutMode(repo)})
		}
		t.Render()
	}

	env := ui.paint(toneBad, "missing")
	switch {
	case status.Environment.HasInterpreter:
		env = ui.paint(toneGood, "ready") + " " + ui.paint(toneMuted, status.Environment.Interpreter)
	case status.Environment.Exists:
		env = ui.paint(toneWarn, "no interpreter")
	}
	if err := writeKV(out, ui, "Environment", fmt.Sprintf("%s (%s)", status.Environment.Root, env)); err != nil {
		return err
	}

	if status.LastRun == nil {
		return writeKV(out, ui, "Last Run", ui.paint(toneMuted, "(none)"))
	}
	last := *status.LastRun
	line := fmt.Sprintf("%s %s %s", last.RunID, ui.stage(last.Stage), ui.paint(toneMuted, formatTime(last.FinishedAt)))
	if err := writeKV(out, ui, "Last Run", line); err != nil {
		return err
	}
	if status.Drift {
		return writeKV(out, ui, "Drift", ui.paint(toneWarn, "manifest changed since the last run"))
	}
	return nil
}

func writeHistory(cmd *cobra.Command, reports []domain.Report, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		output := make([]reportOutput, 0, len(reports))
		for _, report := range reports {
			output = append(output, toReportOutput(report))
		}
		return writeJSON(out, output)
	}

	ui := newRenderer(out, asJSON)
	if len(reports) == 0 {
		return writeKV(out, ui, "History", ui.paint(toneMuted, "no runs recorded"))
	}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"RUN", "STARTED", "POLICY", "STAGE", "RESULT", "DURATION"})
	for _, report := range reports {
		t.AppendRow(table.Row{
			report.RunID,
			formatTime(report.StartedAt),
			string(report.Policy),
			string(report.Stage),
			runResult(ui, report),
			report.Duration().Round(time.Millisecond).String(),
		})
	}
	t.Render()
	return nil
}

func writeProbe(cmd *cobra.Command, result probeResult, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, struct {
			Backend string `json:"backend"`
			Sparse  string `json:"sparse"`
		}{Backend: string(result.Backend), Sparse: string(result.Sparse)})
	}
	ui := newRenderer(out, asJSON)
	if err := writeKV(out, ui, "Git Backend", string(result.Backend)); err != nil {
		return err
	}
	sparse := ui.paint(toneWarn, string(result.Sparse))
	if result.Sparse == domain.SparseSupported {
		sparse = ui.paint(toneGood, string(result.Sparse))
	}
	return writeKV(out, ui, "Sparse Checkout", sparse)
}

func writeKV(out io.Writer, ui renderer, key, value string) error {
	_, err := fmt.Fprintf(out, "%s: %s\n", ui.label(key), value)
	return err
}

func runResult(ui renderer, report domain.Report) string {
	switch {
	case report.Aborted:
		return ui.paint(toneBad, "aborted at "+report.FailedStep)
	case report.Count(domain.StepFailed) > 0 || report.Count(domain.StepWarned) > 0:
		return ui.paint(toneWarn, fmt.Sprintf("%d failed, %d warned", report.Count(domain.StepFailed), report.Count(domain.StepWarned)))
	default:
		return ui.paint(toneGood, "ok")
	}
}

func repoState(ui renderer, repo domain.RepoStatus) string {
	switch {
	case !repo.Exists:
		return ui.paint(toneBad, "missing")
	case !repo.IsRepo:
		return ui.paint(toneWarn, "not a git repository")
	case !repo.HasHead:
		return ui.paint(toneWarn, "empty")
	default:
		return ui.paint(toneGood, "present")
	}
}

func checkoutMode(repo domain.RepoStatus) string {
	if !repo.IsRepo {
		return ""
	}
	if repo.Sparse {
		return "sparse"
	}
	return "full"
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
