package catalog

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"jedisim/internal/services"
	"jedisim/internal/settings"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRotateAngle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0", "90.0"},
		{"0.0", "90.0"},
		{"45.5", "135.5"},
		{"269.9", "359.9"},
		{"270", "0.0"},
		{"350.0", "80.0"},
		{" 359.5 ", "89.5"},
		{"332.907227", "62.907227"},
		{"62.90722699999998", "152.90722699999998"},
		{"0.1", "90.1"},
		{"1e-5", "90.00001"},
	}
	for _, tt := range tests {
		got, err := RotateAngle(tt.in)
		if err != nil {
			t.Fatalf("RotateAngle(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("RotateAngle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRotateAngleRejectsNonNumbers(t *testing.T) {
	for _, in := range []string{"", "north", "NaN", "Inf", "1.2.3"} {
		if got, err := RotateAngle(in); err == nil {
			t.Errorf("RotateAngle(%q) = %q, want error", in, got)
		}
	}
}

func TestRotateAngleFourTimesIsExact(t *testing.T) {
	for _, in := range []string{"0.1", "0.3", "123.456789", "332.907227", "62.90722699999998", "359.999999999999999999", "12.50"} {
		cur := in
		for k := 0; k < 4; k++ {
			next, err := RotateAngle(cur)
			if err != nil {
				t.Fatalf("rotate %q: %v", cur, err)
			}
			cur = next
		}
		if cur != in {
			t.Errorf("four rotations of %q gave %q", in, cur)
		}
	}
}

func TestRotateCatalogScenario(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "catalog.txt")
	out := filepath.Join(dir, "90_catalog.txt")
	writeFile(t, in, "img.fits\t1.0\t2.0\t350.0\t0.5\t0.06\t22\t3\t23\t4\tout0/stamp_0/s.fits.gz\tout0/distorted_0/d.fits\n")

	if err := RotateCatalog(in, out, "out0/", "out90/"); err != nil {
		t.Fatalf("RotateCatalog: %v", err)
	}
	want := "img.fits\t1.0\t2.0\t80.0\t0.5\t0.06\t22\t3\t23\t4\tout90/stamp_0/s.fits.gz\tout90/distorted_0/d.fits\n"
	if got := readFile(t, out); got != want {
		t.Fatalf("rotated catalog mismatch\n got %q\nwant %q", got, want)
	}
}

func TestRotateCatalogOnlyRewritesTrailingPaths(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "catalog.txt")
	out := filepath.Join(dir, "rotated.txt")
	writeFile(t, in, "out0/src.fits\t1\t2\t10\tout0/a\tout0/b\n")

	if err := RotateCatalog(in, out, "out0/", "out90/"); err != nil {
		t.Fatal(err)
	}
	want := "out0/src.fits\t1\t2\t100.0\tout90/a\tout90/b\n"
	if got := readFile(t, out); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRotateCatalogPreservesStructure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "catalog.txt")
	var b strings.Builder
	for i := 0; i < 50; i++ {
		angle := float64(i)*7 + 0.5
		b.WriteString("g.fits\t0\t0\t" + strconv.FormatFloat(angle, 'f', -1, 64) + "\tz\tout0/s" + strconv.Itoa(i) + "\tout0/d" + strconv.Itoa(i))
		if i < 49 {
			b.WriteString("\n")
		}
	}
	writeFile(t, in, b.String())

	paths := []string{in}
	for k := 1; k <= 4; k++ {
		next := filepath.Join(dir, "rot"+strconv.Itoa(k)+".txt")
		if err := RotateCatalog(paths[k-1], next, "out0/", "out0/"); err != nil {
			t.Fatalf("rotation %d: %v", k, err)
		}
		paths = append(paths, next)
	}

	inLines := strings.Split(readFile(t, in), "\n")
	for k := 1; k <= 4; k++ {
		content := readFile(t, paths[k])
		if strings.HasSuffix(content, "\n") {
			t.Fatalf("rotation %d added a trailing newline", k)
		}
		lines := strings.Split(content, "\n")
		if len(lines) != len(inLines) {
			t.Fatalf("rotation %d: %d lines, want %d", k, len(lines), len(inLines))
		}
		for i := range lines {
			got := strings.Split(lines[i], "\t")
			orig := strings.Split(inLines[i], "\t")
			if len(got) != len(orig) {
				t.Fatalf("rotation %d line %d: %d fields, want %d", k, i, len(got), len(orig))
			}
			a0, _ := strconv.ParseFloat(orig[AngleField], 64)
			a, err := strconv.ParseFloat(got[AngleField], 64)
			if err != nil {
				t.Fatal(err)
			}
			want := math.Mod(a0+90*float64(k), 360)
			if math.Abs(a-want) > 1e-9 {
				t.Fatalf("rotation %d line %d: angle %v, want %v", k, i, a, want)
			}
			if k == 4 && got[AngleField] != orig[AngleField] {
				t.Fatalf("line %d: angle %q after four rotations, want %q", i, got[AngleField], orig[AngleField])
			}
		}
	}
}

func TestRotateCatalogFourTimesIsIdentity(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "catalog.txt")
	content := "a\t0\t0\t0.0\tx\ty\nb\t0\t0\t45.25\tx\ty\nc\t0\t0\t359.0\tx\ty\n" +
		"d\t0\t0\t0.1\tx\ty\ne\t0\t0\t123.456789\tx\ty\nf\t0\t0\t332.907227\tx\ty\n"
	writeFile(t, in, content)

	cur := in
	for k := 0; k < 4; k++ {
		next := filepath.Join(dir, "r"+strconv.Itoa(k))
		if err := RotateCatalog(cur, next, "zz", "zz"); err != nil {
			t.Fatal(err)
		}
		cur = next
	}
	if got := readFile(t, cur); got != content {
		t.Fatalf("four rotations changed the catalog\n got %q\nwant %q", got, content)
	}
}

func TestRotateCatalogShortLine(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "catalog.txt")
	out := filepath.Join(dir, "out.txt")
	writeFile(t, in, "a\t0\t0\t10\tx\ty\nbroken\t1\t2\n")

	err := RotateCatalog(in, out, "x", "y")
	if !errors.Is(err, services.ErrCatalogFormat) {
		t.Fatalf("expected catalog format error, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error should name the line: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("partial output left behind: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("unexpected files after failure: %v", entries)
	}
}

func TestRotateCatalogBadAngleKeepsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "catalog.txt")
	out := filepath.Join(dir, "out.txt")
	writeFile(t, in, "a\t0\t0\tnorth\tx\ty\n")
	writeFile(t, out, "previous\n")

	if err := RotateCatalog(in, out, "x", "y"); !errors.Is(err, services.ErrCatalogFormat) {
		t.Fatalf("expected catalog format error, got %v", err)
	}
	if got := readFile(t, out); got != "previous\n" {
		t.Fatalf("existing output modified: %q", got)
	}
}

func TestRewriteList(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "list.txt")
	out := filepath.Join(dir, "90_list.txt")
	writeFile(t, in, "out0/convolved/a.fits\r\nother/b.fits\nout0/out0/c.fits")

	if err := RewriteList(in, out, "out0/", "out90/"); err != nil {
		t.Fatal(err)
	}
	want := "out90/convolved/a.fits\r\nother/b.fits\nout90/out90/c.fits"
	if got := readFile(t, out); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRewriteListEmptyInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "list.txt")
	out := filepath.Join(dir, "out.txt")
	writeFile(t, in, "")
	if err := RewriteList(in, out, "a", "b"); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, out); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestRewriteRejectsEmptyFrom(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "list.txt")
	writeFile(t, in, "a\n")
	if err := RewriteList(in, filepath.Join(dir, "out"), "", "x"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRewriteMissingInput(t *testing.T) {
	dir := t.TempDir()
	if err := RewriteList(filepath.Join(dir, "missing"), filepath.Join(dir, "out"), "a", "b"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRotatedPairsAndRotateAll(t *testing.T) {
	dir := t.TempDir()
	out0 := dir + "/out0/"
	out90 := dir + "/out90/"
	for _, d := range []string{out0, out90} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	raw, err := settings.Parse(strings.NewReader(strings.Join([]string{
		"output_folder=" + out0,
		"90_output_folder=" + out90,
		"prefix=trial1_",
		"HST_image=HST.fits",
		"HST_convolved_image=HST_conv.fits",
		"LSST_averaged_image=avg.fits",
		"LSST_averaged_noised_image=avg_noised.fits",
		"catalog_file=catalog.txt",
		"dislist_file=dislist.txt",
		"distortedlist_file=distorted.txt",
		"convolvedlist_file=convolved.txt",
	}, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	ns, err := settings.Derive(raw)
	if err != nil {
		t.Fatal(err)
	}

	pairs, err := RotatedPairs(ns)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 3 || pairs[0].Kind != ObjectCatalog || pairs[1].Kind != PathList || pairs[2].Kind != PathList {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
	if pairs[0].Out != out90+"90_trial1_catalog.txt" {
		t.Fatalf("catalog destination = %q", pairs[0].Out)
	}

	writeFile(t, pairs[0].In, "g\t0\t0\t300\t"+out0+"stamp_0/s\t"+out0+"distorted_0/d\n")
	writeFile(t, pairs[1].In, out0+"convolved/band0.fits\n")
	writeFile(t, pairs[2].In, out0+"distorted_0/d.fits\n")

	if err := RotateAll(out0, out90, pairs...); err != nil {
		t.Fatalf("RotateAll: %v", err)
	}
	if got := readFile(t, pairs[0].Out); got != "g\t0\t0\t30.0\t"+out90+"stamp_0/s\t"+out90+"distorted_0/d\n" {
		t.Fatalf("catalog = %q", got)
	}
	if got := readFile(t, pairs[1].Out); got != out90+"convolved/band0.fits\n" {
		t.Fatalf("convolved list = %q", got)
	}
	if got := readFile(t, pairs[2].Out); got != out90+"distorted_0/d.fits\n" {
		t.Fatalf("distorted list = %q", got)
	}
}
