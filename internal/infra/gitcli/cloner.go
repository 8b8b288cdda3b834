package gitcli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/osvaldoandrade/envprov/internal/app/provision"
	"github.com/osvaldoandrade/envprov/internal/domain"
	"github.com/osvaldoandrade/envprov/internal/infra/process"
)

// sparseSince is the first git release with the sparse-checkout command
// and --sparse clones.
var sparseSince = semver.MustParse("2.25.0")

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

type Runner interface {
	Run(ctx context.Context, cmd process.Command) (process.Result, error)
	LookPath(name string) (string, error)
}

// Cloner shells out to the installed git binary.
type Cloner struct {
	runner Runner
	binary string
	logger *slog.Logger

	once    sync.Once
	support domain.SparseSupport
}

func NewCloner(runner Runner, binary string, logger *slog.Logger) *Cloner {
	if binary == "" {
		binary = "git"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{runner: runner, binary: binary, logger: logger}
}

func (c *Cloner) Clone(ctx context.Context, req provision.CloneRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(req.Path), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	sparse := len(req.SparsePaths) > 0
	args := []string{"clone"}
	if req.Depth > 0 {
		args = append(args, "--depth", fmt.Sprint(req.Depth))
	}
	if ref := strings.TrimSpace(req.Ref); ref != "" {
		args = append(args, "--branch", ref)
	}
	if sparse {
		args = append(args, "--sparse")
	}
	args = append(args, "--", req.URL, req.Path)

	if _, err := c.git(ctx, "", args...); err != nil {
		discard(req.Path)
		if sparse && unknownOption(err) {
			return fmt.Errorf("git clone --sparse: %w: %w", domain.ErrSparseUnsupported, err)
		}
		return fmt.Errorf("git clone: %w", err)
	}
	if !sparse {
		return nil
	}

	setArgs := append([]string{"sparse-checkout", "set", "--cone", "--"}, req.SparsePaths...)
	if _, err := c.git(ctx, req.Path, setArgs...); err != nil {
		discard(req.Path)
		return fmt.Errorf("git sparse-checkout: %w: %w", domain.ErrSparseUnsupported, err)
	}
	return nil
}

// Preflight looks up the git binary when the manifest declares any
// repository.
func (c *Cloner) Preflight(ctx context.Context, manifest domain.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(manifest.Repositories) == 0 {
		return nil
	}
	if _, err := c.runner.LookPath(c.binary); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrToolMissing, c.binary)
	}
	return nil
}

// ProbeSparse checks the installed git version once per process.
func (c *Cloner) ProbeSparse(ctx context.Context) domain.SparseSupport {
	c.once.Do(func() {
		c.support = c.probe(ctx)
	})
	return c.support
}

func (c *Cloner) probe(ctx context.Context) domain.SparseSupport {
	result, err := c.git(ctx, "", "version")
	if err != nil {
		c.logger.Debug("git version probe failed", "err", err)
		return domain.SparseUnknown
	}
	version, err := ParseVersion(result.Stdout)
	if err != nil {
		c.logger.Debug("git version unrecognized", "output", strings.TrimSpace(result.Stdout))
		return domain.SparseUnknown
	}
	if version.LessThan(sparseSince) {
		return domain.SparseUnsupported
	}
	return domain.SparseSupported
}

func (c *Cloner) git(ctx context.Context, dir string, args ...string) (process.Result, error) {
	return c.runner.Run(ctx, process.Command{
		Name: c.binary,
		Args: args,
		Dir:  dir,
		Env:  []string{"GIT_TERMINAL_PROMPT=0"},
	})
}

// ParseVersion extracts the release from `git version` output such as
// "git version 2.39.3 (Apple Git-146)" or "git version 2.45.1.windows.1".
func ParseVersion(output string) (*semver.Version, error) {
	match := versionPattern.FindStringSubmatch(output)
	if match == nil {
		return nil, fmt.Errorf("unrecognized git version %q", strings.TrimSpace(output))
	}
	patch := match[3]
	if patch == "" {
		patch = "0"
	}
	return semver.NewVersion(match[1] + "." + match[2] + "." + patch)
}

func unknownOption(err error) bool {
	var execErr *process.ExecError
	if !errors.As(err, &execErr) {
		return false
	}
	stderr := strings.ToLower(execErr.Stderr)
	return strings.Contains(stderr, "unknown option") || strings.Contains(stderr, "usage: git clone")
}

func discard(path string) {
	_ = os.RemoveAll(path)
}
