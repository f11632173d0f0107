package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jedisim/internal/config"
)

// SettingsLines returns a complete physics settings file rooted at root.
// Every path value is absolute so tests do not depend on the working
// directory.
func SettingsLines(root string, numGalaxies int) []string {
	j := func(rel string) string { return filepath.ToSlash(filepath.Join(root, rel)) }
	return []string{
		"# jedisim test settings",
		"output_folder=" + j("jedisim_out/out0") + "/",
		"90_output_folder=" + j("jedisim_out/out90") + "/",
		"prefix=trial1_",
		fmt.Sprintf("num_galaxies=%d", numGalaxies),
		"nx=12288",
		"ny=12288",
		"pix_scale=0.03",
		"final_pix_scale=0.2",
		"x_trim=480",
		"y_trim=480",
		"lens_z=0.3",
		"fixed_redshift=1.5",
		"exp_time=6000",
		"noise_mean=10",
		"lenses_file=" + j("physics_settings/lens.txt"),
		"color_infile=" + j("physics_settings/color.txt"),
		"jedicolor_args_infile=" + j("physics_settings/color_weights.txt"),
		"color_outfolder=" + j("simdatabase/bulge_disk_f8") + "/",
		"rescaled_outfolder=" + j("jedisim_out/rescaled_lsst") + "/",
		"rescaled_outfolder90=" + j("jedisim_out/rescaled_lsst90") + "/",
		"rescaled_lsst_outfile=" + j("physics_settings/rescaled_lsst_outfile.txt"),
		"rescaled_lsst_outfile90=" + j("physics_settings/rescaled_lsst_outfile90.txt"),
		"monochromatic_infits=" + j("jedisim_out/rescaled_lsst/rescaled_lsst_10.fits"),
		"monochromatic_outfits=" + j("jedisim_out/out0/monochromatic_noised.fits"),
		"monochromatic_infits90=" + j("jedisim_out/rescaled_lsst90/rescaled_lsst90_10.fits"),
		"monochromatic_outfits90=" + j("jedisim_out/out90/monochromatic_noised.fits"),
		"HST_image=HST.fits",
		"HST_convolved_image=HST_convolved.fits",
		"LSST_averaged_image=LSST_averaged.fits",
		"LSST_averaged_noised_image=LSST_averaged_noised.fits",
		"catalog_file=catalog.txt",
		"dislist_file=dislist.txt",
		"distortedlist_file=distortedlist.txt",
		"convolvedlist_file=convolvedlist.txt",
	}
}

// WriteSettings writes the physics settings file and a weight table with
// rows rows for cfg. Returns the settings root.
func WriteSettings(t testing.TB, cfg *config.Config, numGalaxies, rows int) string {
	t.Helper()
	root := cfg.Paths.WorkDir
	WriteText(t, cfg.SettingsPath(), strings.Join(SettingsLines(root, numGalaxies), "\n")+"\n")
	WriteWeights(t, filepath.Join(root, "physics_settings", "color_weights.txt"), rows)
	return root
}

// WriteWeights writes a bulge/disk weight table with rows rows.
func WriteWeights(t testing.TB, path string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("# bulge disk\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%.2f %.2f\n", float64(i)/20, 1-float64(i)/20)
	}
	WriteText(t, path, b.String())
}

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WritePSFs creates placeholder PSF files for the first count iterations of
// cfg's psf pattern.
func WritePSFs(t testing.TB, cfg *config.Config, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		WriteText(t, fmt.Sprintf(cfg.Paths.PSFPattern, i), "SIMPLE  = T\n")
	}
}
