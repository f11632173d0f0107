package settings

import (
	"fmt"
	"strings"
)

// Case selects between the baseline and 90 degree rotated namespaces.
type Case int

const (
	Baseline Case = iota
	Rotated
)

// Cases lists both pipeline cases in execution order.
var Cases = []Case{Baseline, Rotated}

func (c Case) String() string {
	switch c {
	case Baseline:
		return "baseline"
	case Rotated:
		return "rotated"
	default:
		return fmt.Sprintf("case(%d)", int(c))
	}
}

// Key maps a prefixable key to the key holding this case's value.
func (c Case) Key(key string) string {
	if c == Rotated {
		return RotatedKey(key)
	}
	return key
}

// OutputFolderKey names the key holding the case's output tree.
func (c Case) OutputFolderKey() string {
	if c == Rotated {
		return KeyRotatedOutputFolder
	}
	return KeyOutputFolder
}

// RescaledFolderKey names the key holding the case's rescaled image folder.
func (c Case) RescaledFolderKey() string {
	if c == Rotated {
		return "rescaled_outfolder90"
	}
	return "rescaled_outfolder"
}

// RescaledListKey names the key holding the list file read by jediaverage.
func (c Case) RescaledListKey() string {
	if c == Rotated {
		return "rescaled_lsst_outfile90"
	}
	return "rescaled_lsst_outfile"
}

// MonochromaticKeys names the input and output keys of the monochromatic
// noise stage.
func (c Case) MonochromaticKeys() (in, out string) {
	if c == Rotated {
		return "monochromatic_infits90", "monochromatic_outfits90"
	}
	return "monochromatic_infits", "monochromatic_outfits"
}

// RescaledName returns the filename of the rescaled image for iteration i.
func (c Case) RescaledName(i int) string {
	if c == Rotated {
		return fmt.Sprintf("rescaled_lsst90_%d.fits", i)
	}
	return fmt.Sprintf("rescaled_lsst_%d.fits", i)
}

// ParseCase converts a case name back to a Case.
func ParseCase(name string) (Case, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "baseline", "0":
		return Baseline, nil
	case "rotated", "90":
		return Rotated, nil
	default:
		return Baseline, fmt.Errorf("unknown case %q", name)
	}
}

// JoinDir appends name to a settings folder value. Folder values normally
// carry their own trailing slash and are concatenated verbatim, keeping paths
// byte-identical to the ones the executables write into catalogs.
func JoinDir(folder, name string) string {
	if folder == "" || strings.HasSuffix(folder, "/") {
		return folder + name
	}
	return folder + "/" + name
}
