package provision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

// world is an in-memory filesystem shared by the fakes so that a clone or a
// venv creation is visible to later existence checks.
type world struct {
	dirs     map[string]bool
	files    map[string]bool
	readOnly []string
	lockErr  error
}

func newWorld() *world {
	return &world{dirs: map[string]bool{}, files: map[string]bool{}}
}

func (w *world) DirExists(path string) (bool, error) {
	if w.files[path] {
		return false, fmt.Errorf("%s: %w", path, domain.ErrNotDirectory)
	}
	return w.dirs[path], nil
}

func (w *world) FileExists(path string) (bool, error) {
	return w.files[path], nil
}

func (w *world) MakeReadOnly(path string) error {
	if w.lockErr != nil {
		return w.lockErr
	}
	w.readOnly = append(w.readOnly, path)
	return nil
}

type fakeCloner struct {
	world     *world
	requests  []CloneRequest
	errFor    map[string]error
	sparseErr error
}

func (f *fakeCloner) Clone(ctx context.Context, req CloneRequest) error {
	f.requests = append(f.requests, req)
	if len(req.SparsePaths) > 0 && f.sparseErr != nil {
		return f.sparseErr
	}
	if err := f.errFor[req.URL]; err != nil {
		return err
	}
	f.world.dirs[req.Path] = true
	return nil
}

type fakeProber struct {
	support domain.SparseSupport
	calls   int
}

func (f *fakeProber) ProbeSparse(ctx context.Context) domain.SparseSupport {
	f.calls++
	return f.support
}

type fakeBuilder struct {
	world   *world
	created []string
	err     error
}

func (f *fakeBuilder) Create(ctx context.Context, env domain.EnvironmentDescriptor) error {
	f.created = append(f.created, env.RootPath)
	if f.err != nil {
		return f.err
	}
	f.world.dirs[env.RootPath] = true
	return nil
}

type exitErr struct {
	code int
}

func (e exitErr) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitErr) ExitCode() int { return e.code }

type fakeInstaller struct {
	installed    map[string]string
	listErr      error
	upgrades     int
	installs     []string
	requirements []string
	upgradeErr   error
	installErr   map[string]error
	reqErr       error
}

func (f *fakeInstaller) Installed(ctx context.Context, env domain.EnvironmentDescriptor) (map[string]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]string, len(f.installed))
	for k, v := range f.installed {
		out[k] = v
	}
	return out, nil
}

func (f *fakeInstaller) UpgradeInstaller(ctx context.Context, env domain.EnvironmentDescriptor) error {
	f.upgrades++
	return f.upgradeErr
}

func (f *fakeInstaller) Install(ctx context.Context, env domain.EnvironmentDescriptor, requirement string) error {
	f.installs = append(f.installs, requirement)
	if err := f.installErr[requirement]; err != nil {
		return err
	}
	if f.installed == nil {
		f.installed = map[string]string{}
	}
	name := requirement
	for i, r := range requirement {
		if r == '<' || r == '>' || r == '=' || r == '!' || r == '~' {
			name = requirement[:i]
			break
		}
	}
	f.installed[domain.NormalizePackageName(name)] = "1.0.0"
	return nil
}

func (f *fakeInstaller) InstallRequirements(ctx context.Context, env domain.EnvironmentDescriptor, path string) error {
	f.requirements = append(f.requirements, path)
	return f.reqErr
}

// Satisfies accepts exact pins only; range semantics live in pyenv.
func (f *fakeInstaller) Satisfies(installed, constraint string) bool {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return true
	}
	return strings.TrimPrefix(constraint, "==") == installed
}

type fakeVerifier struct {
	importErr  map[string]error
	commandErr map[string]error
	imports    []string
	commands   []string
}

func (f *fakeVerifier) ProbeImport(ctx context.Context, env domain.EnvironmentDescriptor, module string) error {
	f.imports = append(f.imports, module)
	return f.importErr[module]
}

func (f *fakeVerifier) ProbeCommand(ctx context.Context, env domain.EnvironmentDescriptor, command string) (string, error) {
	f.commands = append(f.commands, command)
	if err := f.commandErr[command]; err != nil {
		return "", err
	}
	return command + " 1.0.0\nextra", nil
}

type fakeJournal struct {
	reports []domain.Report
	err     error
}

func (f *fakeJournal) RecordRun(ctx context.Context, report domain.Report) error {
	f.reports = append(f.reports, report)
	return f.err
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

type fakeIDs struct {
	n   int
	err error
}

func (f *fakeIDs) NewID() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return fmt.Sprintf("run-%d", f.n), nil
}

type harness struct {
	world     *world
	cloner    *fakeCloner
	prober    *fakeProber
	builder   *fakeBuilder
	installer *fakeInstaller
	verifier  *fakeVerifier
	journal   *fakeJournal
	logs      *bytes.Buffer
	service   *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	w := newWorld()
	h := &harness{
		world:     w,
		cloner:    &fakeCloner{world: w, errFor: map[string]error{}},
		prober:    &fakeProber{support: domain.SparseSupported},
		builder:   &fakeBuilder{world: w},
		installer: &fakeInstaller{installErr: map[string]error{}},
		verifier:  &fakeVerifier{importErr: map[string]error{}, commandErr: map[string]error{}},
		journal:   &fakeJournal{},
		logs:      &bytes.Buffer{},
	}
	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc, err := NewService(Dependencies{
		Paths:       w,
		Permissions: w,
		Cloner:      h.cloner,
		Prober:      h.prober,
		Builder:     h.builder,
		Installer:   h.installer,
		Verifier:    h.verifier,
		Journal:     h.journal,
		Clock:       &fakeClock{now: time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC)},
		IDs:         &fakeIDs{},
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	h.service = svc
	return h
}

func testManifest(policy domain.Policy) domain.Manifest {
	return domain.Manifest{
		Version:     domain.ManifestVersion,
		Path:        "/project/envprov.yaml",
		ProjectRoot: "/project",
		Workspaces:  "/project/workspaces",
		Environment: domain.EnvironmentDescriptor{RootPath: "/project/.venv", Python: "python3"},
		Policy:      policy,
		Repositories: []domain.RepositorySpec{
			{Name: "repoA", URL: "https://example/repoA.git"},
		},
		Packages: []domain.PackageSpec{
			{Name: "requests"},
			{Name: "black", Command: "black"},
		},
		Digest: "digest",
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
