package cli

import (
	"fmt"
	"io"
	"strings"

	historyapp "github.com/osvaldoandrade/envprov/internal/app/history"
	manifestapp "github.com/osvaldoandrade/envprov/internal/app/manifest"
	"github.com/osvaldoandrade/envprov/internal/domain"
	"github.com/osvaldoandrade/envprov/internal/wiring"
	"github.com/spf13/cobra"
)

func newInitCmd(opts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := policyOverride(opts)
			if err != nil {
				return err
			}
			service, err := wiring.NewManifestService()
			if err != nil {
				return err
			}
			result, err := service.Init(cmd.Context(), opts.ManifestPath, manifestapp.InitOptions{
				Policy: policy,
				Python: opts.Python,
				Force:  force,
			})
			if err != nil {
				return err
			}
			return writeInitResult(cmd, result, opts.JSONOutput)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing manifest")
	return cmd
}

func newUpCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Clone repositories, build the environment, install and verify packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, err := loadManifest(cmd, opts)
			if err != nil {
				return err
			}
			components, err := wiring.Open(manifest, wiringOptions(opts, opts.NoJournal))
			if err != nil {
				return err
			}
			defer components.Close()

			report, runErr := components.Provision.Run(cmd.Context(), manifest)
			if err := writeReport(cmd, report, opts.JSONOutput); err != nil {
				return err
			}
			return runErr
		},
	}
}

func newStatusCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what is provisioned, without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, err := loadManifest(cmd, opts)
			if err != nil {
				return err
			}
			components, err := openReader(opts, manifest)
			if err != nil {
				return err
			}
			defer components.Close()

			status, err := components.Status.Status(cmd.Context(), manifest)
			if err != nil {
				return err
			}
			return writeStatus(cmd, status, opts.JSONOutput)
		},
	}
}

func newVerifyCmd(opts *RootOptions) *cobra.Command {
	var failOnWarn bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Probe imports and commands of the declared packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, err := loadManifest(cmd, opts)
			if err != nil {
				return err
			}
			components, err := wiring.Open(manifest, wiringOptions(opts, true))
			if err != nil {
				return err
			}
			defer components.Close()

			out := cmd.ErrOrStderr()
			var report verification
			err = busy(out, styled(out, opts.JSONOutput) && !opts.Trace, "verifying packages", func() error {
				result, err := components.Provision.Verify(cmd.Context(), manifest)
				report = verification(result)
				return err
			})
			if err != nil {
				return err
			}
			if err := writeVerification(cmd, report, opts.JSONOutput); err != nil {
				return err
			}
			if failed := report.failures(); failOnWarn && failed > 0 {
				return ExitError{
					Code:    ExitProvision,
					Kind:    KindProvision,
					Message: fmt.Sprintf("%d verification probe(s) failed", failed),
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnWarn, "fail-on-warn", false, "Exit non-zero when a probe fails")
	return cmd
}

func newHistoryCmd(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.NoJournal {
				return ExitError{Code: ExitInvalid, Kind: KindValidation, Message: "history requires the run journal"}
			}
			manifest, err := loadManifest(cmd, opts)
			if err != nil {
				return err
			}
			components, err := openReader(opts, manifest)
			if err != nil {
				return err
			}
			defer components.Close()

			if len(args) == 1 {
				report, err := components.History.Show(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeReport(cmd, report, opts.JSONOutput)
			}
			reports, err := components.History.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeHistory(cmd, reports, opts.JSONOutput)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", historyapp.DefaultLimit, "Maximum number of runs to list")
	return cmd
}

func newProbeCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "probe",
		Aliases: []string{"capabilities"},
		Short:   "Report whether the selected git backend supports sparse checkout",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			components, err := wiring.Open(domain.Manifest{}, wiringOptions(opts, true))
			if err != nil {
				return err
			}
			defer components.Close()

			result := probeResult{
				Backend: components.Backend,
				Sparse:  components.Sparse.ProbeSparse(cmd.Context()),
			}
			return writeProbe(cmd, result, opts.JSONOutput)
		},
	}
}

func loadManifest(cmd *cobra.Command, opts *RootOptions) (domain.Manifest, error) {
	policy, err := policyOverride(opts)
	if err != nil {
		return domain.Manifest{}, err
	}
	service, err := wiring.NewManifestService()
	if err != nil {
		return domain.Manifest{}, err
	}
	return service.Load(cmd.Context(), opts.ManifestPath, manifestapp.LoadOptions{
		Overlays: opts.Overlays,
		Policy:   policy,
		Python:   opts.Python,
	})
}

func policyOverride(opts *RootOptions) (domain.Policy, error) {
	if strings.TrimSpace(opts.Policy) == "" {
		return "", nil
	}
	return domain.ParsePolicy(opts.Policy)
}

// openReader binds components for commands that only inspect state; a
// missing journal stays missing.
func openReader(opts *RootOptions, manifest domain.Manifest) (*wiring.Components, error) {
	options := wiringOptions(opts, opts.NoJournal)
	options.ReadOnly = true
	return wiring.Open(manifest, options)
}

func wiringOptions(opts *RootOptions, noJournal bool) wiring.Options {
	var trace io.Writer
	if opts.Trace {
		trace = opts.traceOutput
	}
	return wiring.Options{
		GitBackend: domain.GitBackend(strings.ToLower(strings.TrimSpace(opts.GitBackend))),
		Trace:      trace,
		Logger:     opts.logger,
		NoJournal:  noJournal,
	}
}
