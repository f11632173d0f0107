package settings

import (
	"maps"

	"jedisim/internal/services"
)

// Well-known settings keys consumed by the orchestrator.
const (
	KeyOutputFolder        = "output_folder"
	KeyRotatedOutputFolder = "90_output_folder"
	KeyPrefix              = "prefix"
	KeyNumGalaxies         = "num_galaxies"
	KeyNX                  = "nx"
	KeyNY                  = "ny"
	KeyPixScale            = "pix_scale"
	KeyFinalPixScale       = "final_pix_scale"
	KeyXTrim               = "x_trim"
	KeyYTrim               = "y_trim"
	KeyLensZ               = "lens_z"
	KeyFixedRedshift       = "fixed_redshift"
	KeyExpTime             = "exp_time"
	KeyNoiseMean           = "noise_mean"
	KeyLensesFile          = "lenses_file"
	KeyColorInfile         = "color_infile"
	KeyWeightsInfile       = "jedicolor_args_infile"
	KeyColorOutfolder      = "color_outfolder"
)

// RotatedPrefix is prepended to both keys and filenames of the rotated case.
const RotatedPrefix = "90_"

// PrefixableKeys are the filename keys qualified with the output folder and
// run prefix by Derive.
var PrefixableKeys = []string{
	"HST_image",
	"HST_convolved_image",
	"LSST_averaged_image",
	"LSST_averaged_noised_image",
	"catalog_file",
	"dislist_file",
	"distortedlist_file",
	"convolvedlist_file",
}

// RotatedKey returns the rotated-namespace key for key.
func RotatedKey(key string) string {
	return RotatedPrefix + key
}

// Derive extends raw with prefixed filename keys and their rotated
// counterparts. raw is never modified.
func Derive(raw Namespace) (Namespace, error) {
	required := append([]string{KeyOutputFolder, KeyRotatedOutputFolder, KeyPrefix}, PrefixableKeys...)
	for _, key := range required {
		if _, ok := raw.values[key]; !ok {
			return Namespace{}, services.Wrap(services.ErrMissingKey, "settings", "derive", key, nil)
		}
	}

	outputFolder := raw.values[KeyOutputFolder]
	rotatedFolder := raw.values[KeyRotatedOutputFolder]
	prefix := raw.values[KeyPrefix]

	derived := maps.Clone(raw.values)
	for _, key := range PrefixableKeys {
		original := raw.values[key]
		derived[key] = outputFolder + prefix + original
		derived[RotatedKey(key)] = rotatedFolder + RotatedPrefix + prefix + original
	}
	return Namespace{values: derived}, nil
}

// Load parses the settings file at path and derives its namespace.
func Load(path string) (raw Namespace, derived Namespace, err error) {
	raw, err = ParseFile(path)
	if err != nil {
		return Namespace{}, Namespace{}, err
	}
	derived, err = Derive(raw)
	if err != nil {
		return Namespace{}, Namespace{}, err
	}
	return raw, derived, nil
}
