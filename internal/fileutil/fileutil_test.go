package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicFileCommit(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "catalog.txt")
	if err := os.WriteFile(dst, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := CreateAtomic(dst)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("new\n"); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old\n" {
		t.Fatalf("destination changed before commit: %q", got)
	}

	if err := f.Commit(); err != nil {
		t.Fatal(err)
	}
	f.Abort()

	got, err = os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new\n" {
		t.Fatalf("content mismatch: got %q", got)
	}
	assertNoTemps(t, dir)
}

func TestAtomicFileAbort(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "list.txt")

	f, err := CreateAtomic(dst)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("partial")); err != nil {
		t.Fatal(err)
	}
	f.Abort()

	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected no destination after abort, got %v", err)
	}
	assertNoTemps(t, dir)

	if err := f.Commit(); err == nil {
		t.Fatal("expected commit after abort to fail")
	}
}

func TestCreateAtomicMissingDir(t *testing.T) {
	if _, err := CreateAtomic(filepath.Join(t.TempDir(), "missing", "out.txt")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestWriteLinesAtomic(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "rescaled.txt")
	if err := WriteLinesAtomic(dst, []string{"a.fits", "b.fits"}); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "a.fits\nb.fits\n" {
		t.Fatalf("got %q", got)
	}
}

func TestCopyAtomic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "trial1_LSST_averaged_noised.fits")
	dst := filepath.Join(dir, "lsst_0.fits")
	content := []byte("SIMPLE  =                    T\x00\x01")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyAtomic(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("got %q, want %q", got, content)
	}
	assertNoTemps(t, dir)
}

func TestCopyAtomicMissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "lsst_0.fits")
	if err := os.WriteFile(dst, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyAtomic(filepath.Join(dir, "absent.fits"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous" {
		t.Fatalf("destination changed: %q", got)
	}
	assertNoTemps(t, dir)
}

func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}
