package collect_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"jedisim/internal/collect"
	"jedisim/internal/services"
	"jedisim/internal/settings"
	"jedisim/internal/testsupport"
)

func loadSettings(t *testing.T) (string, settings.Namespace, settings.Namespace) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	root := testsupport.WriteSettings(t, cfg, 10, 21)
	raw, ns, err := settings.Load(cfg.SettingsPath())
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	return root, raw, ns
}

func TestProducts(t *testing.T) {
	want := []collect.Product{
		{Key: "LSST_averaged_noised_image", Format: "lsst_%d.fits"},
		{Key: "90_LSST_averaged_noised_image", Format: "lsst_90_%d.fits"},
		{Key: "monochromatic_outfits", Format: "monochromatic_%d.fits"},
		{Key: "monochromatic_outfits90", Format: "monochromatic_90_%d.fits"},
	}
	if diff := cmp.Diff(want, collect.Products(true)); diff != "" {
		t.Fatalf("products mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]collect.Product{want[0], want[2]}, collect.Products(false)); diff != "" {
		t.Fatalf("baseline products mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchDir(t *testing.T) {
	_, raw, _ := loadSettings(t)
	at := time.Date(2026, 3, 7, 9, 5, 0, 0, time.UTC)
	if got := collect.BatchDir("/w/jedisim_output", raw, at); got != "/w/jedisim_output/jout_z1.5_2026_Mar_07_09_05" {
		t.Fatalf("BatchDir = %s", got)
	}

	bare, err := settings.Parse(strings.NewReader("nx=10\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := collect.BatchDir("/w/out", bare, at); got != "/w/out/jout_2026_Mar_07_09_05" {
		t.Fatalf("BatchDir without redshift = %s", got)
	}
}

func TestCollectCopiesEveryProduct(t *testing.T) {
	root, _, ns := loadSettings(t)
	sources := map[string]string{
		"jedisim_out/out0/trial1_LSST_averaged_noised.fits":     "lsst",
		"jedisim_out/out90/90_trial1_LSST_averaged_noised.fits": "lsst90",
		"jedisim_out/out0/monochromatic_noised.fits":            "mono",
		"jedisim_out/out90/monochromatic_noised.fits":           "mono90",
	}
	for rel, content := range sources {
		testsupport.WriteText(t, filepath.Join(root, rel), content)
	}

	dir := filepath.Join(t.TempDir(), "jout_z1.5")
	c := collect.New(dir, root, true, nil)
	written, err := c.Collect(ns, 3)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := map[string]string{
		"lsst_3.fits":             "lsst",
		"lsst_90_3.fits":          "lsst90",
		"monochromatic_3.fits":    "mono",
		"monochromatic_90_3.fits": "mono90",
	}
	if len(written) != len(want) {
		t.Fatalf("wrote %v", written)
	}
	for name, content := range want {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(data) != content {
			t.Fatalf("%s = %q, want %q", name, data, content)
		}
	}
	if c.Dir() != dir {
		t.Fatalf("Dir = %s", c.Dir())
	}
}

func TestCollectMissingProduct(t *testing.T) {
	root, _, ns := loadSettings(t)
	testsupport.WriteText(t, filepath.Join(root, "jedisim_out/out0/trial1_LSST_averaged_noised.fits"), "lsst")

	dir := t.TempDir()
	written, err := collect.New(dir, root, false, nil).Collect(ns, 0)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "monochromatic_outfits") {
		t.Fatalf("error should name the key: %v", err)
	}
	if len(written) != 1 || filepath.Base(written[0]) != "lsst_0.fits" {
		t.Fatalf("written = %v", written)
	}
}

func TestCollectRejectsNegativeIndex(t *testing.T) {
	_, _, ns := loadSettings(t)
	if _, err := collect.New(t.TempDir(), "", false, nil).Collect(ns, -1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
