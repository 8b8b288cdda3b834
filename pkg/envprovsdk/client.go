package envprovsdk

import (
	"context"
	"errors"
	"sync"

	historyapp "github.com/osvaldoandrade/envprov/internal/app/history"
	manifestapp "github.com/osvaldoandrade/envprov/internal/app/manifest"
	"github.com/osvaldoandrade/envprov/internal/domain"
	"github.com/osvaldoandrade/envprov/internal/wiring"
)

// Client provisions one manifest through the core services.
type Client struct {
	cfg      Config
	manifest domain.Manifest

	mu         sync.Mutex
	components *wiring.Components
}

// New loads and validates the manifest without opening the run journal.
func New(ctx context.Context, cfg Config) (*Client, error) {
	normalized, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	service, err := wiring.NewManifestService()
	if err != nil {
		return nil, err
	}
	manifest, err := service.Load(ctx, normalized.ManifestPath, manifestapp.LoadOptions{
		Overlays: normalized.Overlays,
		Policy:   domain.Policy(normalized.Policy),
		Python:   normalized.Python,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &Client{cfg: normalized, manifest: manifest}, nil
}

// Open creates a client and binds the provisioning adapters, opening the
// journal unless it is disabled.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	client, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := client.open(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.components != nil {
		return nil
	}
	components, err := wiring.Open(c.manifest, wiring.Options{
		GitBackend: domain.GitBackend(c.cfg.GitBackend),
		GitBinary:  c.cfg.GitBinary,
		Trace:      c.cfg.Trace,
		Logger:     c.cfg.Logger,
		NoJournal:  c.cfg.NoJournal,
	})
	if err != nil {
		return err
	}
	c.components = components
	return nil
}

// Close releases the run journal.
func (c *Client) Close() error {
	c.mu.Lock()
	components := c.components
	c.components = nil
	c.mu.Unlock()

	if components != nil {
		return components.Close()
	}
	return nil
}

// ManifestPath returns the absolute path of the loaded manifest.
func (c *Client) ManifestPath() string {
	return c.manifest.Path
}

// ManifestDigest returns the canonical digest of the merged manifest.
func (c *Client) ManifestDigest() string {
	return c.manifest.Digest
}

// Up runs the full provisioning pipeline. The report is returned even when
// a fatal step aborts the run.
func (c *Client) Up(ctx context.Context) (Report, error) {
	components, err := c.ensureComponents()
	if err != nil {
		return Report{}, err
	}
	report, err := components.Provision.Run(ctx, c.manifest)
	return toReport(report), err
}

// Verify probes the declared packages in the existing environment.
func (c *Client) Verify(ctx context.Context) (Verification, error) {
	components, err := c.ensureComponents()
	if err != nil {
		return Verification{}, err
	}
	report, err := components.Provision.Verify(ctx, c.manifest)
	if err != nil {
		return Verification{}, err
	}
	return Verification{Steps: toSteps(report.Steps)}, nil
}

// Status inspects what is provisioned without changing anything.
func (c *Client) Status(ctx context.Context) (Status, error) {
	components, err := c.ensureComponents()
	if err != nil {
		return Status{}, err
	}
	status, err := components.Status.Status(ctx, c.manifest)
	if err != nil {
		return Status{}, err
	}
	return toStatus(status), nil
}

// History lists recorded runs, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]Report, error) {
	history, err := c.history()
	if err != nil {
		return nil, err
	}
	reports, err := history.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Report, 0, len(reports))
	for _, report := range reports {
		out = append(out, toReport(report))
	}
	return out, nil
}

// Run loads one recorded run.
func (c *Client) Run(ctx context.Context, runID string) (Report, error) {
	history, err := c.history()
	if err != nil {
		return Report{}, err
	}
	report, err := history.Show(ctx, runID)
	if err != nil {
		return Report{}, mapErr(err)
	}
	return toReport(report), nil
}

func (c *Client) ensureComponents() (*wiring.Components, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.components == nil {
		return nil, ErrNotOpen
	}
	return c.components, nil
}

func (c *Client) history() (*historyapp.Service, error) {
	components, err := c.ensureComponents()
	if err != nil {
		return nil, err
	}
	if components.History == nil {
		return nil, ErrJournalDisabled
	}
	return components.History, nil
}

// StepError returns the failed step carried by err, if any.
func StepError(err error) (Step, bool) {
	var stepErr *domain.ProvisionError
	if !errors.As(err, &stepErr) {
		return Step{}, false
	}
	return Step{Kind: string(stepErr.Kind), Target: stepErr.Target, Status: string(domain.StepFailed)}, true
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, historyapp.ErrRunNotFound) || errors.Is(err, manifestapp.ErrManifestNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	return err
}
