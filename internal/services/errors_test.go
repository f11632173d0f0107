package services_test

import (
	"errors"
	"strings"
	"testing"

	"jedisim/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "runner", "jedipaste", "exit status 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"runner", "jedipaste", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCode(t *testing.T) {
	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("expected 0 for nil, got %d", code)
	}
	err := services.Wrap(services.ErrMissingKey, "settings", "derive", "prefix", nil)
	if code := services.ExitCode(err); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestHintPerMarker(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrConfigParse, "settings", "parse", "line 3", nil), "malformed line"},
		{services.Wrap(services.ErrMissingKey, "settings", "derive", "prefix", nil), "missing key"},
		{services.Wrap(services.ErrExternalTool, "runner", "jedinoise", "exit 1", nil), "stage output"},
		{services.Wrap(services.ErrCatalogFormat, "catalog", "rotate", "line 9", nil), "jedicatalog"},
		{errors.New("other"), "check logs"},
	}
	for _, tc := range cases {
		if hint := services.Hint(tc.err); !strings.Contains(hint, tc.want) {
			t.Fatalf("hint for %v = %q, want substring %q", tc.err, hint, tc.want)
		}
	}
	if services.Hint(nil) != "" {
		t.Fatal("expected empty hint for nil error")
	}
}
