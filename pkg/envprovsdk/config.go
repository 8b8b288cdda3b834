package envprovsdk

import (
	"io"
	"log/slog"
	"strings"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

type Policy string

const (
	PolicyStrict  Policy = "strict"
	PolicyLenient Policy = "lenient"
)

type GitBackend string

const (
	GitBackendNative GitBackend = "native"
	GitBackendSystem GitBackend = "system"
)

// Config defines how the SDK loads a manifest and provisions it.
type Config struct {
	ManifestPath string
	// Overlays are merged onto the manifest in order before validation.
	Overlays []string
	// Policy and Python override the manifest when set.
	Policy     Policy
	Python     string
	GitBackend GitBackend
	// GitBinary is the git executable used by the system backend.
	GitBinary string
	NoJournal bool
	// Trace receives every external command and its output.
	Trace  io.Writer
	Logger *slog.Logger
}

// DefaultConfig provisions the manifest at path with the native git backend
// and the run journal enabled.
func DefaultConfig(manifestPath string) Config {
	return Config{
		ManifestPath: manifestPath,
		GitBackend:   GitBackendNative,
	}
}

func normalizeConfig(cfg Config) (Config, error) {
	if strings.TrimSpace(cfg.ManifestPath) == "" {
		return cfg, ErrManifestPathRequired
	}
	if cfg.Policy != "" {
		policy, err := domain.ParsePolicy(string(cfg.Policy))
		if err != nil {
			return cfg, err
		}
		cfg.Policy = Policy(policy)
	}
	backend, err := domain.ParseGitBackend(string(cfg.GitBackend))
	if err != nil {
		return cfg, err
	}
	cfg.GitBackend = GitBackend(backend)
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg, nil
}
