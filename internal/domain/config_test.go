package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    Policy
		wantErr bool
	}{
		{input: "strict", want: PolicyStrict},
		{input: " Lenient ", want: PolicyLenient},
		{input: "", wantErr: true},
		{input: "yolo", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPolicy) {
				t.Fatalf("expected ErrInvalidPolicy for %q, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("expected %s, got %s", tt.want, got)
		}
	}
}

func TestPolicyTolerates(t *testing.T) {
	tests := []struct {
		policy Policy
		kind   StepKind
		want   bool
	}{
		{policy: PolicyStrict, kind: StepClone, want: false},
		{policy: PolicyLenient, kind: StepClone, want: true},
		{policy: PolicyStrict, kind: StepEnvironment, want: false},
		{policy: PolicyLenient, kind: StepEnvironment, want: false},
		{policy: PolicyLenient, kind: StepInstall, want: false},
		{policy: PolicyLenient, kind: StepBootstrap, want: false},
		{policy: PolicyStrict, kind: StepVerifyImport, want: true},
		{policy: PolicyStrict, kind: StepVerifyCommand, want: true},
		{policy: "", kind: StepClone, want: true},
	}

	for _, tt := range tests {
		if got := tt.policy.Tolerates(tt.kind); got != tt.want {
			t.Fatalf("%s.Tolerates(%s) = %t, want %t", tt.policy, tt.kind, got, tt.want)
		}
	}
}

func TestParseGitBackend(t *testing.T) {
	got, err := ParseGitBackend("")
	if err != nil || got != GitBackendNative {
		t.Fatalf("expected native default, got %s (%v)", got, err)
	}
	got, err = ParseGitBackend("SYSTEM")
	if err != nil || got != GitBackendSystem {
		t.Fatalf("expected system, got %s (%v)", got, err)
	}
	if _, err := ParseGitBackend("svn"); !errors.Is(err, ErrInvalidGitBackend) {
		t.Fatalf("expected ErrInvalidGitBackend, got %v", err)
	}
}

type codedErr struct{ code int }

func (e codedErr) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e codedErr) ExitCode() int { return e.code }

func TestProvisionErrorMatchesKind(t *testing.T) {
	err := NewProvisionError(StepInstall, "requests", fmt.Errorf("pip: %w", codedErr{code: 2}))
	if !errors.Is(err, ErrInstallFailed) {
		t.Fatalf("expected install error to match ErrInstallFailed")
	}
	if errors.Is(err, ErrCloneFailed) {
		t.Fatalf("install error must not match ErrCloneFailed")
	}
	if err.ExitCode != 2 {
		t.Fatalf("expected exit code 2, got %d", err.ExitCode)
	}
	if err.Error() != "install[requests]: pip: exit status 2" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	wrapped := fmt.Errorf("run: %w", NewProvisionError(StepClone, "repoA", errors.New("network")))
	if !errors.Is(wrapped, ErrCloneFailed) {
		t.Fatalf("expected wrapped clone error to match ErrCloneFailed")
	}
	if ExitStatus(wrapped) != -1 {
		t.Fatalf("expected no exit status for network error")
	}
}

func TestStageReached(t *testing.T) {
	if !StageVerified.Reached(StageEnvReady) {
		t.Fatalf("VERIFIED must be past ENV_READY")
	}
	if StageReposReady.Reached(StagePackagesReady) {
		t.Fatalf("REPOS_READY must not be past PACKAGES_READY")
	}
}
