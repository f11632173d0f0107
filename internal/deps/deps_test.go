package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestCheckBinariesPathChecks(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "jedipaste")
	if err := os.WriteFile(plain, []byte("not executable"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	results := CheckBinaries([]Requirement{
		{Name: "NotExecutable", Command: plain},
		{Name: "Absent", Command: filepath.Join(dir, "jedinoise")},
		{Name: "Directory", Command: dir},
		{Name: "Blank", Command: "  "},
	})
	for _, r := range results {
		if r.Available {
			t.Errorf("%s unexpectedly available", r.Name)
		}
		if r.Detail == "" {
			t.Errorf("%s missing detail", r.Name)
		}
	}
}

func TestCheckBinariesResolvesFromPath(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "jedisim-test-tool")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	results := CheckBinaries([]Requirement{{Name: "Tool", Command: "jedisim-test-tool"}})
	if !results[0].Available || results[0].Command != stub {
		t.Fatalf("result = %#v, want resolved %s", results[0], stub)
	}
}
