package pyenv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/google/shlex"
	"github.com/osvaldoandrade/envprov/internal/domain"
	"github.com/osvaldoandrade/envprov/internal/infra/process"
)

type Runner interface {
	Run(ctx context.Context, cmd process.Command) (process.Result, error)
	LookPath(name string) (string, error)
}

// Manager drives Python virtual environments through the interpreter's own
// venv and pip modules.
type Manager struct {
	runner Runner
	logger *slog.Logger
	goos   string
}

func NewManager(runner Runner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{runner: runner, logger: logger, goos: runtime.GOOS}
}

func (m *Manager) Create(ctx context.Context, env domain.EnvironmentDescriptor) error {
	python, err := pythonCommand(env.Python)
	if err != nil {
		return err
	}
	args := append(python[1:], "-m", "venv", env.RootPath)
	if _, err := m.runner.Run(ctx, process.Command{Name: python[0], Args: args}); err != nil {
		_ = os.RemoveAll(env.RootPath)
		return fmt.Errorf("create virtual environment: %w", err)
	}
	return nil
}

func (m *Manager) UpgradeInstaller(ctx context.Context, env domain.EnvironmentDescriptor) error {
	if _, err := m.pip(ctx, env, "install", "--upgrade", "pip"); err != nil {
		return fmt.Errorf("upgrade pip: %w", err)
	}
	return nil
}

func (m *Manager) Install(ctx context.Context, env domain.EnvironmentDescriptor, requirement string) error {
	if _, err := m.pip(ctx, env, "install", requirement); err != nil {
		return fmt.Errorf("pip install %s: %w", requirement, err)
	}
	return nil
}

func (m *Manager) InstallRequirements(ctx context.Context, env domain.EnvironmentDescriptor, path string) error {
	if _, err := m.pip(ctx, env, "install", "-r", path); err != nil {
		return fmt.Errorf("pip install -r %s: %w", path, err)
	}
	return nil
}

// Preflight looks up the interpreter that creates the environment. An
// environment that already exists brings its own, so nothing is required.
func (m *Manager) Preflight(ctx context.Context, manifest domain.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dirExists(manifest.Environment.RootPath) {
		return nil
	}
	python, err := pythonCommand(manifest.Environment.Python)
	if err != nil {
		return err
	}
	if _, err := m.runner.LookPath(python[0]); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrToolMissing, python[0])
	}
	return nil
}

type installedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Installed lists the distributions in the environment keyed by normalized
// name.
func (m *Manager) Installed(ctx context.Context, env domain.EnvironmentDescriptor) (map[string]string, error) {
	result, err := m.pip(ctx, env, "list", "--format=json")
	if err != nil {
		return nil, fmt.Errorf("pip list: %w", err)
	}
	var listed []installedPackage
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Stdout)), &listed); err != nil {
		return nil, fmt.Errorf("decode pip list: %w", err)
	}
	out := make(map[string]string, len(listed))
	for _, pkg := range listed {
		out[domain.NormalizePackageName(pkg.Name)] = pkg.Version
	}
	return out, nil
}

func (m *Manager) ProbeImport(ctx context.Context, env domain.EnvironmentDescriptor, module string) error {
	_, err := m.runner.Run(ctx, process.Command{
		Name: m.InterpreterPath(env),
		Args: []string{"-c", "import " + module},
	})
	return err
}

// ProbeCommand runs `command --version`, preferring the environment's own
// scripts over PATH.
func (m *Manager) ProbeCommand(ctx context.Context, env domain.EnvironmentDescriptor, command string) (string, error) {
	name := command
	if local := m.scriptPath(env, command); fileExists(local) {
		name = local
	}
	result, err := m.runner.Run(ctx, process.Command{Name: name, Args: []string{"--version"}})
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(result.Stdout)
	if out == "" {
		out = strings.TrimSpace(result.Stderr)
	}
	return out, nil
}

func (m *Manager) InterpreterPath(env domain.EnvironmentDescriptor) string {
	return m.scriptPath(env, "python")
}

func (m *Manager) scriptPath(env domain.EnvironmentDescriptor, name string) string {
	if m.goos == "windows" {
		return filepath.Join(env.RootPath, "Scripts", name+".exe")
	}
	return filepath.Join(env.RootPath, "bin", name)
}

func (m *Manager) pip(ctx context.Context, env domain.EnvironmentDescriptor, args ...string) (process.Result, error) {
	full := append([]string{"-m", "pip"}, args...)
	full = append(full, "--disable-pip-version-check")
	return m.runner.Run(ctx, process.Command{
		Name: m.InterpreterPath(env),
		Args: full,
		Env:  []string{"PIP_NO_INPUT=1"},
	})
}

// pythonCommand splits a configured interpreter such as "py -3.12".
func pythonCommand(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = domain.DefaultPython
	}
	parts, err := shlex.Split(value)
	if err != nil {
		return nil, fmt.Errorf("parse python command %q: %w", value, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("parse python command %q: empty", value)
	}
	return parts, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
