package wiring

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/osvaldoandrade/envprov/internal/app/history"
	"github.com/osvaldoandrade/envprov/internal/app/manifest"
	"github.com/osvaldoandrade/envprov/internal/app/provision"
	"github.com/osvaldoandrade/envprov/internal/app/status"
	"github.com/osvaldoandrade/envprov/internal/domain"
	"github.com/osvaldoandrade/envprov/internal/infra/canonicaljson"
	"github.com/osvaldoandrade/envprov/internal/infra/filesystem"
	"github.com/osvaldoandrade/envprov/internal/infra/gitcli"
	"github.com/osvaldoandrade/envprov/internal/infra/gitrepo"
	"github.com/osvaldoandrade/envprov/internal/infra/ident"
	"github.com/osvaldoandrade/envprov/internal/infra/jsonpatch"
	"github.com/osvaldoandrade/envprov/internal/infra/process"
	"github.com/osvaldoandrade/envprov/internal/infra/pyenv"
	"github.com/osvaldoandrade/envprov/internal/infra/schema"
	"github.com/osvaldoandrade/envprov/internal/infra/sqlitejournal"
	"github.com/osvaldoandrade/envprov/internal/infra/yamldoc"
	"github.com/osvaldoandrade/envprov/internal/platform"
)

// Options selects adapters for a provisioning session.
type Options struct {
	GitBackend domain.GitBackend
	GitBinary  string
	// Trace receives "+ cmd" echoes and tool output; nil keeps tools quiet.
	Trace     io.Writer
	Logger    *slog.Logger
	NoJournal bool
	// ReadOnly opens the journal only if it already exists, and never
	// writes to it. Runs are not recorded.
	ReadOnly bool
}

// Components are the services bound to one manifest.
type Components struct {
	Provision *provision.Service
	Status    *status.Service
	// History is nil when the journal is disabled.
	History *history.Service
	Backend domain.GitBackend
	Sparse  provision.SparseProber

	journal *sqlitejournal.Store
}

func NewManifestService() (*manifest.Service, error) {
	validator, err := schema.NewManifestValidator()
	if err != nil {
		return nil, err
	}
	return manifest.NewService(
		filesystem.Files{},
		yamldoc.Converter{},
		jsonpatch.Patcher{},
		validator,
		canonicaljson.NewDigester(),
	), nil
}

// JournalPath is where runs for m are recorded.
func JournalPath(m domain.Manifest) string {
	return filepath.Join(m.ProjectRoot, domain.StateDir, domain.JournalFile)
}

func Open(m domain.Manifest, opts Options) (*Components, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backend, err := domain.ParseGitBackend(string(opts.GitBackend))
	if err != nil {
		return nil, err
	}

	files := filesystem.Files{}
	runner := process.NewRunner(opts.Trace, logger)
	python := pyenv.NewManager(runner, logger)
	native := gitrepo.NewStore(logger)

	deps := provision.Dependencies{
		Paths:       files,
		Permissions: files,
		Preflights:  []provision.Preflight{python},
		Builder:     python,
		Installer:   python,
		Verifier:    python,
		Clock:       platform.RealClock{},
		IDs:         ident.NewULIDGenerator(),
		Logger:      logger,
	}
	switch backend {
	case domain.GitBackendSystem:
		cloner := gitcli.NewCloner(runner, opts.GitBinary, logger)
		deps.Cloner = cloner
		deps.Prober = cloner
		deps.Preflights = append(deps.Preflights, cloner)
	default:
		deps.Cloner = native
		deps.Prober = native
	}

	components := &Components{Backend: backend, Sparse: deps.Prober}
	var runs status.RunReader
	switch {
	case opts.NoJournal:
	case opts.ReadOnly:
		path := JournalPath(m)
		exists, err := files.FileExists(path)
		if err != nil {
			return nil, fmt.Errorf("open run journal: %w", err)
		}
		if !exists {
			components.History = history.NewService(nil)
			break
		}
		journal, err := sqlitejournal.OpenWithOptions(path, sqlitejournal.OpenOptions{ReadOnly: true})
		if err != nil {
			return nil, fmt.Errorf("open run journal: %w", err)
		}
		components.journal = journal
		components.History = history.NewService(journal)
		runs = journal
	default:
		journal, err := sqlitejournal.Open(JournalPath(m))
		if err != nil {
			return nil, fmt.Errorf("open run journal: %w", err)
		}
		components.journal = journal
		components.History = history.NewService(journal)
		deps.Journal = journal
		runs = journal
	}

	svc, err := provision.NewService(deps)
	if err != nil {
		_ = components.Close()
		return nil, err
	}
	components.Provision = svc
	components.Status = status.NewService(native, files, python, runs)
	return components, nil
}

func (c *Components) Close() error {
	if c == nil || c.journal == nil {
		return nil
	}
	err := c.journal.Close()
	c.journal = nil
	return err
}
