package cli

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/envprov/internal/domain"
	"github.com/osvaldoandrade/envprov/internal/platform"
	"github.com/spf13/cobra"
)

type RootOptions struct {
	ManifestPath string
	Overlays     []string
	Policy       string
	Python       string
	GitBackend   string
	JSONOutput   bool
	LogLevel     string
	LogFormat    string
	LogFile      string
	Trace        bool
	NoJournal    bool

	logger      *slog.Logger
	traceOutput io.Writer
	logCloser   io.Closer
}

func newRootCmd() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{
		ManifestPath: envDefault("ENVPROV_MANIFEST", domain.DefaultManifestFile),
		Policy:       envDefault("ENVPROV_POLICY", ""),
		Python:       envDefault("ENVPROV_PYTHON", ""),
		GitBackend:   envDefault("ENVPROV_GIT_BACKEND", string(domain.DefaultGitBackend)),
		LogLevel:     envDefault("ENVPROV_LOG_LEVEL", "info"),
		LogFormat:    envDefault("ENVPROV_LOG_FORMAT", "text"),
		LogFile:      envDefault("ENVPROV_LOG_FILE", ""),
		Trace:        envBoolDefault("ENVPROV_TRACE", false),
	}
	cmd := &cobra.Command{
		Use:           "envprov",
		Short:         "Provision workspaces of git repositories and a Python environment",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			out, closer, err := platform.OpenLogOutput(cmd.ErrOrStderr(), opts.LogFile)
			if err != nil {
				return err
			}
			logger, err := platform.ConfigureLogger(platform.LoggerOptions{
				Level:  opts.LogLevel,
				Format: opts.LogFormat,
				Out:    out,
				Tag:    platform.DefaultLogTag,
				Trace:  opts.Trace,
			})
			if err != nil {
				_ = closer.Close()
				return err
			}
			opts.logger = logger
			opts.traceOutput = platform.NewTagWriter(out, platform.DefaultLogTag)
			opts.logCloser = closer
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ManifestPath, "manifest", "f", opts.ManifestPath, "Path to the manifest")
	flags.StringArrayVar(&opts.Overlays, "overlay", nil, "Overlay merged onto the manifest (repeatable)")
	flags.StringVar(&opts.Policy, "policy", opts.Policy, "Failure policy override (strict, lenient)")
	flags.StringVar(&opts.Python, "python", opts.Python, "Interpreter used to create the environment")
	flags.StringVar(&opts.GitBackend, "git-backend", opts.GitBackend, "Git backend (native, system)")
	flags.BoolVar(&opts.JSONOutput, "json", false, "Emit JSON output")
	flags.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.LogFormat, "log-format", opts.LogFormat, "Log format (text, json)")
	flags.StringVar(&opts.LogFile, "log-file", opts.LogFile, "Also append log output to this file")
	flags.BoolVar(&opts.Trace, "trace", opts.Trace, "Debug logging and echo every external command")
	flags.BoolVar(&opts.NoJournal, "no-journal", false, "Do not record runs in the journal")

	cmd.AddCommand(
		newInitCmd(opts),
		newUpCmd(opts),
		newStatusCmd(opts),
		newVerifyCmd(opts),
		newHistoryCmd(opts),
		newProbeCmd(opts),
	)

	return cmd, opts
}

func (o *RootOptions) closeLog() error {
	if o.logCloser == nil {
		return nil
	}
	err := o.logCloser.Close()
	o.logCloser = nil
	return err
}

func envDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBoolDefault(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
