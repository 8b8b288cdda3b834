package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

type Result struct {
	Stdout string
	Stderr string
}

// Runner executes external tools to completion. With Trace set, every
// command line is echoed as "+ cmd" and its output streamed to Trace as it
// runs; output is captured either way.
type Runner struct {
	Trace  io.Writer
	Logger *slog.Logger
}

func NewRunner(trace io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Trace: trace, Logger: logger}
}

func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Env = append(os.Environ(), cmd.Env...)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	if r.Trace != nil {
		fmt.Fprintf(r.Trace, "+ %s\n", cmd)
		execCmd.Stdout = io.MultiWriter(stdout, r.Trace)
		execCmd.Stderr = io.MultiWriter(stderr, r.Trace)
	} else {
		execCmd.Stdout = stdout
		execCmd.Stderr = stderr
	}

	r.logger().Debug("exec", "command", cmd.String(), "dir", cmd.Dir)
	err := execCmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, &ExecError{
			Command: cmd,
			Code:    exitCode(err),
			Err:     err,
			Stdout:  result.Stdout,
			Stderr:  result.Stderr,
		}
	}
	return result, nil
}

// LookPath reports the resolved path of an executable.
func (r *Runner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
