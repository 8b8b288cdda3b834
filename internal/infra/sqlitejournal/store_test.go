package sqlitejournal

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/osvaldoandrade/envprov/internal/app/history"
	"github.com/osvaldoandrade/envprov/internal/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), ".envprov", "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func sampleReport(id string, started time.Time) domain.Report {
	return domain.Report{
		RunID:          id,
		ManifestPath:   "/project/envprov.yaml",
		ManifestDigest: "abc",
		Policy:         domain.PolicyLenient,
		Stage:          domain.StageVerified,
		Steps: []domain.StepResult{
			{Kind: domain.StepClone, Target: "repoA", Status: domain.StepDone, Message: "cloned", Duration: 2 * time.Second},
			{Kind: domain.StepVerifyImport, Target: "requests", Status: domain.StepWarned, Message: "ModuleNotFoundError"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}
}

func TestRecordAndLoadRun(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	want := sampleReport("01RUN", time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC))

	if err := store.RecordRun(ctx, want); err != nil {
		t.Fatalf("RecordRun returned error: %v", err)
	}
	got, err := store.LoadRun(ctx, "01RUN")
	if err != nil {
		t.Fatalf("LoadRun returned error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected run (-want +got):\n%s", diff)
	}
}

func TestRecordRunReplacesSteps(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	report := sampleReport("01RUN", time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC))
	if err := store.RecordRun(ctx, report); err != nil {
		t.Fatalf("RecordRun returned error: %v", err)
	}

	report.Steps = report.Steps[:1]
	report.Aborted = true
	report.FailedStep = "clone[repoA]"
	if err := store.RecordRun(ctx, report); err != nil {
		t.Fatalf("RecordRun returned error: %v", err)
	}
	got, err := store.LoadRun(ctx, "01RUN")
	if err != nil {
		t.Fatalf("LoadRun returned error: %v", err)
	}
	if len(got.Steps) != 1 || !got.Aborted || got.FailedStep != "clone[repoA]" {
		t.Fatalf("unexpected run %+v", got)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	base := time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"01A", "01B", "01C"} {
		if err := store.RecordRun(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("RecordRun returned error: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	ids := []string{}
	for _, run := range runs {
		ids = append(ids, run.RunID)
	}
	if diff := cmp.Diff([]string{"01C", "01B"}, ids); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	last, ok, err := store.LastRun(ctx)
	if err != nil || !ok || last.RunID != "01C" {
		t.Fatalf("unexpected last run %q %v %v", last.RunID, ok, err)
	}
}

func TestLoadRunMissing(t *testing.T) {
	_, err := openStore(t).LoadRun(context.Background(), "nope")
	if !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestLastRunEmptyJournal(t *testing.T) {
	_, ok, err := openStore(t).LastRun(context.Background())
	if err != nil || ok {
		t.Fatalf("expected no run, got ok=%v err=%v", ok, err)
	}
}

func TestRecordRunRequiresID(t *testing.T) {
	err := openStore(t).RecordRun(context.Background(), domain.Report{})
	if !errors.Is(err, history.ErrRunIDRequired) {
		t.Fatalf("expected ErrRunIDRequired, got %v", err)
	}
}

func TestOpenFastMode(t *testing.T) {
	store, err := OpenWithOptions(filepath.Join(t.TempDir(), "journal.db"), OpenOptions{Fast: true})
	if err != nil {
		t.Fatalf("OpenWithOptions returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestOpenReadOnlyRequiresExistingJournal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".envprov")
	path := filepath.Join(dir, "journal.db")

	if _, err := OpenWithOptions(path, OpenOptions{ReadOnly: true}); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("read-only open must not create %s, stat returned %v", dir, err)
	}
}

func TestOpenReadOnlyReadsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	writer, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	want := sampleReport("01RUN", time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC))
	if err := writer.RecordRun(ctx, want); err != nil {
		t.Fatalf("RecordRun returned error: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reader, err := OpenWithOptions(path, OpenOptions{ReadOnly: true})
	if err != nil {
		t.Fatalf("read-only Open returned error: %v", err)
	}
	defer reader.Close()

	got, err := reader.LoadRun(ctx, "01RUN")
	if err != nil {
		t.Fatalf("LoadRun returned error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected run (-want +got):\n%s", diff)
	}
	if err := reader.RecordRun(ctx, sampleReport("02RUN", want.StartedAt)); err == nil {
		t.Fatalf("expected write to a read-only journal to fail")
	}
}
