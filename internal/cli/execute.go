package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

// Execute runs the CLI and returns the process exit code. SIGINT and SIGTERM
// cancel the running command; the provisioning step in flight stops at its
// next context check.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, opts := newRootCmd()
	defer func() {
		_ = opts.closeLog()
	}()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		exitErr := NormalizeError(err)
		_ = writeCLIError(cmd.ErrOrStderr(), exitErr, opts.JSONOutput)
		return exitErr.Code
	}
	return 0
}
