package envprovsdk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "envprov.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestNewRequiresManifestPath(t *testing.T) {
	if _, err := New(context.Background(), Config{}); !errors.Is(err, ErrManifestPathRequired) {
		t.Fatalf("expected ErrManifestPathRequired, got %v", err)
	}
}

func TestNewRejectsInvalidOverrides(t *testing.T) {
	path := writeManifest(t, "version: 1\n")

	cfg := DefaultConfig(path)
	cfg.Policy = "sometimes"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected policy error")
	}

	cfg = DefaultConfig(path)
	cfg.GitBackend = "svn"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected backend error")
	}
}

func TestNewMissingManifest(t *testing.T) {
	_, err := New(context.Background(), DefaultConfig(filepath.Join(t.TempDir(), "missing.yaml")))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientRequiresOpen(t *testing.T) {
	client, err := New(context.Background(), DefaultConfig(writeManifest(t, "version: 1\n")))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Status(context.Background()); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
	if len(client.ManifestDigest()) != 64 {
		t.Fatalf("expected sha256 digest, got %q", client.ManifestDigest())
	}
}

func TestStatusAndHistory(t *testing.T) {
	path := writeManifest(t, `
version: 1
policy: strict
repositories:
  - name: repoA
    url: https://example/repoA.git
`)
	ctx := context.Background()
	client, err := Open(ctx, DefaultConfig(path))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer client.Close()

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.Complete || len(status.Repositories) != 1 || status.Repositories[0].Present {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.LastRun != nil {
		t.Fatalf("expected no runs yet")
	}

	runs, err := client.History(ctx, 0)
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty history, got %v %v", runs, err)
	}
	if _, err := client.Run(ctx, "01UNKNOWN"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryWithoutJournal(t *testing.T) {
	cfg := DefaultConfig(writeManifest(t, "version: 1\n"))
	cfg.NoJournal = true
	client, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer client.Close()

	if _, err := client.History(context.Background(), 10); !errors.Is(err, ErrJournalDisabled) {
		t.Fatalf("expected ErrJournalDisabled, got %v", err)
	}
}

func TestReportSucceeded(t *testing.T) {
	report := Report{Steps: []Step{{Kind: "clone", Target: "a", Status: "done"}}}
	if !report.Succeeded() {
		t.Fatalf("expected success")
	}
	report.Steps = append(report.Steps, Step{Kind: "install", Target: "requests", Status: "failed"})
	if report.Succeeded() {
		t.Fatalf("failed step must fail the report")
	}
	if report.Steps[1].Label() != "install[requests]" {
		t.Fatalf("unexpected label %q", report.Steps[1].Label())
	}
}
