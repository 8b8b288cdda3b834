package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	requireShell(t)
	runner := NewRunner(nil, nil)

	result, err := runner.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo out; echo err >&2"}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "out" || strings.TrimSpace(result.Stderr) != "err" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunReportsExitCode(t *testing.T) {
	requireShell(t)
	runner := NewRunner(nil, nil)

	_, err := runner.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got %v", err)
	}
	if execErr.ExitCode() != 3 {
		t.Fatalf("expected exit code 3, got %d", execErr.ExitCode())
	}
	if !strings.HasSuffix(execErr.Error(), ": boom") {
		t.Fatalf("expected stderr detail in error, got %q", execErr.Error())
	}
}

func TestRunTraceEchoesCommand(t *testing.T) {
	requireShell(t)
	trace := &bytes.Buffer{}
	runner := NewRunner(trace, nil)

	if _, err := runner.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo hi"}}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	got := trace.String()
	if !strings.HasPrefix(got, `+ sh -c "echo hi"`) || !strings.Contains(got, "hi\n") {
		t.Fatalf("unexpected trace output %q", got)
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(nil, nil).Run(ctx, Command{Name: "sh"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLookPathMissing(t *testing.T) {
	_, err := NewRunner(nil, nil).LookPath("envprov-does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
