package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	historyapp "github.com/osvaldoandrade/envprov/internal/app/history"
	manifestapp "github.com/osvaldoandrade/envprov/internal/app/manifest"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, key := range []string{"ENVPROV_MANIFEST", "ENVPROV_POLICY", "ENVPROV_PYTHON", "ENVPROV_GIT_BACKEND", "ENVPROV_LOG_FILE", "ENVPROV_TRACE"} {
		t.Setenv(key, "")
	}
	cmd, opts := newRootCmd()
	defer func() {
		_ = opts.closeLog()
	}()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func compactJSON(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "envprov.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestInitCommandWritesManifestOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "envprov.yaml")

	out, _, err := runCLI(t, "-f", path, "--policy", "strict", "init")
	if err != nil {
		t.Fatalf("init returned error: %v", err)
	}
	if !strings.Contains(out, "created") {
		t.Fatalf("unexpected output %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(data), "policy: strict") {
		t.Fatalf("unexpected manifest:\n%s", data)
	}

	out, _, err = runCLI(t, "-f", path, "init", "--json")
	if err != nil {
		t.Fatalf("second init returned error: %v", err)
	}
	if !strings.Contains(compactJSON(out), `"created":false`) {
		t.Fatalf("expected existing manifest to be kept, got %s", out)
	}
}

func TestStatusCommandReportsMissingTargets(t *testing.T) {
	path := writeManifest(t, `
version: 1
repositories:
  - name: repoA
    url: https://example/repoA.git
`)

	out, _, err := runCLI(t, "-f", path, "status", "--json")
	if err != nil {
		t.Fatalf("status returned error: %v", err)
	}
	compact := compactJSON(out)
	for _, part := range []string{`"name":"repoA"`, `"present":false`, `"complete":false`} {
		if !strings.Contains(compact, part) {
			t.Fatalf("expected %s in %s", part, out)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	path := writeManifest(t, "version: 1\n")

	out, _, err := runCLI(t, "-f", path, "history")
	if err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	if !strings.Contains(out, "no runs recorded") {
		t.Fatalf("unexpected output %q", out)
	}

	_, _, err = runCLI(t, "-f", path, "history", "01UNKNOWN")
	if !errors.Is(err, historyapp.ErrRunNotFound) || ExitCode(err) != ExitNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProbeCommandNativeBackend(t *testing.T) {
	out, _, err := runCLI(t, "--git-backend", "native", "probe", "--json")
	if err != nil {
		t.Fatalf("probe returned error: %v", err)
	}
	if !strings.Contains(compactJSON(out), `"sparse":"supported"`) {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestMissingManifestIsNotFound(t *testing.T) {
	_, _, err := runCLI(t, "-f", filepath.Join(t.TempDir(), "missing.yaml"), "status")
	if !errors.Is(err, manifestapp.ErrManifestNotFound) || ExitCode(err) != ExitNotFound {
		t.Fatalf("expected manifest not found, got %v", err)
	}
}

func TestInvalidManifestIsValidationError(t *testing.T) {
	path := writeManifest(t, "version: 1\nrepositories:\n  - name: repoA\n")

	_, _, err := runCLI(t, "-f", path, "status")
	if ExitCode(err) != ExitInvalid {
		t.Fatalf("expected validation exit code, got %d (%v)", ExitCode(err), err)
	}
}

func TestInvalidPolicyFlag(t *testing.T) {
	path := writeManifest(t, "version: 1\n")

	_, _, err := runCLI(t, "-f", path, "--policy", "sometimes", "status")
	if ExitCode(err) != ExitInvalid {
		t.Fatalf("expected validation exit code, got %v", err)
	}
}

func TestLogFileReceivesTaggedLines(t *testing.T) {
	path := writeManifest(t, "version: 1\n")
	logFile := filepath.Join(t.TempDir(), "envprov.log")

	if _, _, err := runCLI(t, "-f", path, "--log-file", logFile, "--log-level", "debug", "status"); err != nil {
		t.Fatalf("status returned error: %v", err)
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line != "" && !strings.HasPrefix(line, "[envprov] ") {
			t.Fatalf("untagged log line %q", line)
		}
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("ENVPROV_TEST_VALUE", " strict ")
	t.Setenv("ENVPROV_TEST_BOOL", "yes")
	if got := envDefault("ENVPROV_TEST_VALUE", "lenient"); got != "strict" {
		t.Fatalf("unexpected env default %q", got)
	}
	if got := envDefault("ENVPROV_TEST_MISSING", "lenient"); got != "lenient" {
		t.Fatalf("unexpected fallback %q", got)
	}
	if envBoolDefault("ENVPROV_TEST_BOOL", true) != true {
		t.Fatalf("unparseable bool must fall back")
	}
	t.Setenv("ENVPROV_TEST_BOOL", "1")
	if !envBoolDefault("ENVPROV_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
}

func TestTraceOutputIsTagged(t *testing.T) {
	_, stderr, err := runCLI(t, "--git-backend", "system", "--trace", "capabilities")
	if err != nil {
		t.Fatalf("command returned error: %v", err)
	}
	if !strings.Contains(stderr, "[envprov] + git version") {
		t.Fatalf("expected traced git command, got:\n%s", stderr)
	}
	for _, line := range strings.Split(strings.TrimRight(stderr, "\n"), "\n") {
		if line != "" && !strings.HasPrefix(line, "[envprov] ") {
			t.Fatalf("untagged trace line %q in:\n%s", line, stderr)
		}
	}
}

func TestReadOnlyCommandsLeaveNoJournal(t *testing.T) {
	path := writeManifest(t, "version: 1\n")
	journal := filepath.Join(filepath.Dir(path), ".envprov", "journal.db")

	if _, _, err := runCLI(t, "-f", path, "status"); err != nil {
		t.Fatalf("status returned error: %v", err)
	}
	if _, _, err := runCLI(t, "-f", path, "history"); err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), ".envprov")); !os.IsNotExist(err) {
		t.Fatalf("expected no state directory, stat returned %v", err)
	}
	if _, err := os.Stat(journal); !os.IsNotExist(err) {
		t.Fatalf("expected no journal at %s, stat returned %v", journal, err)
	}
}
