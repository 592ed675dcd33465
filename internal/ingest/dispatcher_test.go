package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDispatcherRenamesAcceptedFilesOnly(t *testing.T) {
	dir := t.TempDir()
	cleanPath := writeGzipFile(t, dir, "clean.tsv.gz", []string{
		"idfa\tdev1\t1.0\t2.0\t1",
	})
	badPath := writeGzipFile(t, dir, "bad.tsv.gz", []string{
		"only\tthree\tfields",
	})

	p := &Processor{Router: testRouter(), NewBulkStore: alwaysSucceeds, SocketTimeout: time.Second}
	d := NewDispatcher(filepath.Join(dir, "*.tsv.gz"), p, true)

	outcomes, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}

	if _, err := os.Stat(filepath.Join(dir, ".clean.tsv.gz")); err != nil {
		t.Fatalf("expected accepted file renamed: %v", err)
	}
	if _, err := os.Stat(cleanPath); err == nil {
		t.Fatal("original accepted file path should no longer exist")
	}
	if _, err := os.Stat(badPath); err != nil {
		t.Fatalf("rejected file should be left in place: %v", err)
	}
}

// Property 4 — idempotence: a second run over an already-"."-prefixed
// directory does no work, because Run skips dot-prefixed names even where
// the glob matches them.
func TestDispatcherIdempotentOnRerun(t *testing.T) {
	dir := t.TempDir()
	writeGzipFile(t, dir, "clean.tsv.gz", []string{
		"idfa\tdev1\t1.0\t2.0\t1",
	})

	p := &Processor{Router: testRouter(), NewBulkStore: alwaysSucceeds, SocketTimeout: time.Second}
	d := NewDispatcher(filepath.Join(dir, "*.tsv.gz"), p, true)

	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	outcomes, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected no work on rerun, got %d outcomes", len(outcomes))
	}
}
